package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"sku-generator/logger"
	"sku-generator/models"
)

// ErrSuffixExists is returned by Append when the suffix is already recorded.
var ErrSuffixExists = errors.New("suffix already recorded")

const suffixSchema = `
	CREATE TABLE IF NOT EXISTS sku_suffixes (
		suffix      TEXT PRIMARY KEY,
		lister      TEXT NOT NULL DEFAULT '',
		recorded_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`

// SuffixRepository keeps the SKU suffix log in Postgres.
// Implements SuffixRepositoryInterface
type SuffixRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSuffixRepository creates a new SuffixRepository
func NewSuffixRepository(conn *sql.DB, log *zap.Logger) *SuffixRepository {
	return &SuffixRepository{db: conn, logger: logger.OrNop(log)}
}

// Ensure SuffixRepository implements SuffixRepositoryInterface
var _ SuffixRepositoryInterface = (*SuffixRepository)(nil)

// EnsureSchema creates the sku_suffixes table when missing.
func (r *SuffixRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, suffixSchema); err != nil {
		return fmt.Errorf("failed to create sku_suffixes table: %w", err)
	}
	return nil
}

// List returns every recorded suffix, oldest first.
func (r *SuffixRepository) List(ctx context.Context) ([]models.SuffixRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT suffix, lister, recorded_at FROM sku_suffixes ORDER BY recorded_at, suffix`)
	if err != nil {
		return nil, fmt.Errorf("failed to query suffixes: %w", err)
	}
	defer rows.Close()

	var records []models.SuffixRecord
	for rows.Next() {
		var rec models.SuffixRecord
		if err := rows.Scan(&rec.Suffix, &rec.Lister, &rec.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan suffix: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating suffixes: %w", err)
	}
	return records, nil
}

// Append records rec. The suffix is stored upper-cased.
func (r *SuffixRepository) Append(ctx context.Context, rec models.SuffixRecord) error {
	suffix := strings.ToUpper(strings.TrimSpace(rec.Suffix))
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO sku_suffixes (suffix, lister, recorded_at) VALUES ($1, $2, $3)
		 ON CONFLICT (suffix) DO NOTHING`,
		suffix, rec.Lister, rec.RecordedAt)
	if err != nil {
		r.logger.Error("❌ Error recording suffix", zap.String("suffix", suffix), zap.Error(err))
		return fmt.Errorf("failed to record suffix: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to record suffix: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", suffix, ErrSuffixExists)
	}

	r.logger.Info("🧾 Suffix recorded", zap.String("suffix", suffix), zap.String("lister", rec.Lister))
	return nil
}

// Get returns the record of suffix, or sql.ErrNoRows.
func (r *SuffixRepository) Get(ctx context.Context, suffix string) (*models.SuffixRecord, error) {
	var rec models.SuffixRecord
	err := r.db.QueryRowContext(ctx,
		`SELECT suffix, lister, recorded_at FROM sku_suffixes WHERE suffix = $1`,
		strings.ToUpper(strings.TrimSpace(suffix))).Scan(&rec.Suffix, &rec.Lister, &rec.RecordedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get suffix: %w", err)
	}
	return &rec, nil
}
