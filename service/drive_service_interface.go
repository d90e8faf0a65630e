package service

import (
	"context"
	"errors"

	"sku-generator/models"
)

// ErrNotFound is returned (wrapped) when a path does not resolve.
var ErrNotFound = errors.New("not found")

// FileStore defines the contract for the cloud folder holding design assets.
// Paths are slash separated and relative to the store root.
type FileStore interface {
	List(ctx context.Context, path string) ([]models.FileEntry, error)
	Download(ctx context.Context, path string) ([]byte, error)
	// SharedLink returns a public direct-download URL for the file.
	SharedLink(ctx context.Context, path string) (string, error)
	// Move renames src to dst, auto-renaming on conflict, and returns the
	// final path.
	Move(ctx context.Context, src, dst string) (string, error)
	Delete(ctx context.Context, path string) error
	EnsureFolder(ctx context.Context, path string) error
	Exists(ctx context.Context, path string) (bool, error)
}
