package repository

import (
	"context"

	"sku-generator/models"
)

// SuffixRepositoryInterface defines the contract for the SKU suffix log
type SuffixRepositoryInterface interface {
	EnsureSchema(ctx context.Context) error
	List(ctx context.Context) ([]models.SuffixRecord, error)
	Append(ctx context.Context, rec models.SuffixRecord) error
	Get(ctx context.Context, suffix string) (*models.SuffixRecord, error)
}
