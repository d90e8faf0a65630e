package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"sku-generator/catalog"
	"sku-generator/config"
	"sku-generator/logger"
	"sku-generator/models"
	"sku-generator/shopify"
	"sku-generator/utils"
)

// ErrTrackerDisabled is returned by suffix lookups when no tracker is set.
var ErrTrackerDisabled = errors.New("SKU suffix tracker is disabled")

// DuplicateSuffixError reports a suffix that was already listed.
type DuplicateSuffixError struct {
	Suffix     string
	Lister     string
	RecordedAt time.Time
}

func (e *DuplicateSuffixError) Error() string {
	msg := fmt.Sprintf("SKU suffix %s is already used", e.Suffix)
	if e.Lister != "" {
		msg += " by " + e.Lister
	}
	if !e.RecordedAt.IsZero() {
		msg += " on " + e.RecordedAt.Format("2006-01-02 15:04")
	}
	return msg
}

// StoreSession is what publishing needs from a store connection.
type StoreSession interface {
	Upload(ctx context.Context, rows []models.VariantRow, opts shopify.UploadOptions) ([]models.UploadResult, error)
	CheckConnection(ctx context.Context) (shopify.ShopStatus, error)
}

// SessionFactory opens a session for a store profile label.
type SessionFactory func(store string) (StoreSession, error)

// PublishOptions are the per-run publishing choices.
type PublishOptions struct {
	Store          string   `json:"store"`
	VariantBudget  int      `json:"variantBudget"`
	SkipHandles    []string `json:"skipHandles"`
	MoveToFinished bool     `json:"moveToFinished"`
	SkipGuard      bool     `json:"skipGuard"`
	Lister         string   `json:"lister"`
}

// CSVFile is one generated product CSV.
type CSVFile struct {
	Name string `json:"name"`
	Rows int    `json:"rows"`
	Size int    `json:"size"`
	Data []byte `json:"data"`
}

// BatchBuild is the output of a batch CSV build.
type BatchBuild struct {
	Parts   []CSVFile              `json:"parts"`
	Summary []models.DesignSummary `json:"summary"`
}

// PublishServiceInterface defines the CSV and upload operations.
type PublishServiceInterface interface {
	GuardSuffix(ctx context.Context, suffix, lister string) error
	LookupSuffix(ctx context.Context, suffix string) (*models.SuffixRecord, error)
	BuildCSV(ctx context.Context, folder string, guard bool, lister string) (*CSVFile, error)
	BuildManualCSV(ctx context.Context, meta models.DesignMetadata, excluded []string, lister string) (*CSVFile, error)
	BuildBatch(ctx context.Context, folders []string) (*BatchBuild, error)
	PublishDesign(ctx context.Context, folder string, opts PublishOptions, progress shopify.ProgressFunc) (models.DesignSummary, error)
	PublishBatch(ctx context.Context, folders []string, opts PublishOptions, progress shopify.ProgressFunc) ([]models.DesignSummary, error)
	PublishRows(ctx context.Context, rows []models.VariantRow, opts PublishOptions, progress shopify.ProgressFunc) ([]models.UploadResult, error)
	CheckConnection(ctx context.Context, store string) (shopify.ShopStatus, error)
}

// PublishService turns designs into CSV files or store uploads.
type PublishService struct {
	designs  DesignServiceInterface
	tracker  SuffixTracker
	sessions SessionFactory
	csv      config.CSVConfig
	lister   string
	logger   *zap.Logger
	now      func() time.Time
}

var _ PublishServiceInterface = (*PublishService)(nil)

// NewPublishService creates a PublishService. A nil tracker disables the
// duplicate-suffix guard.
func NewPublishService(designs DesignServiceInterface, tracker SuffixTracker, sessions SessionFactory, cfg *config.Config, log *zap.Logger) *PublishService {
	return &PublishService{
		designs:  designs,
		tracker:  tracker,
		sessions: sessions,
		csv:      cfg.CSV,
		lister:   cfg.Tracker.Lister,
		logger:   logger.OrNop(log),
		now:      time.Now,
	}
}

// GuardSuffix fails with DuplicateSuffixError when suffix is already in the
// tracker, otherwise records it.
func (s *PublishService) GuardSuffix(ctx context.Context, suffix, lister string) error {
	suffix = strings.ToUpper(strings.TrimSpace(suffix))
	if s.tracker == nil {
		s.logger.Debug("suffix guard skipped, no tracker", zap.String("suffix", suffix))
		return nil
	}
	if lister == "" {
		lister = s.lister
	}

	records, err := s.tracker.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to read suffix tracker: %w", err)
	}
	for _, r := range records {
		if r.Suffix == suffix {
			return &DuplicateSuffixError{Suffix: suffix, Lister: r.Lister, RecordedAt: r.RecordedAt}
		}
	}

	return s.tracker.Append(ctx, models.SuffixRecord{Suffix: suffix, Lister: lister, RecordedAt: s.now()})
}

// LookupSuffix returns the tracker record of suffix.
func (s *PublishService) LookupSuffix(ctx context.Context, suffix string) (*models.SuffixRecord, error) {
	if s.tracker == nil {
		return nil, ErrTrackerDisabled
	}
	suffix = strings.ToUpper(strings.TrimSpace(suffix))
	records, err := s.tracker.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, r := range records {
		if r.Suffix == suffix {
			return &r, nil
		}
	}
	return nil, fmt.Errorf("suffix %s: %w", suffix, ErrNotFound)
}

// BuildCSV builds one design into "{SUFFIX}.csv". With guard set the suffix
// is checked and recorded first.
func (s *PublishService) BuildCSV(ctx context.Context, folder string, guard bool, lister string) (*CSVFile, error) {
	build, err := s.designs.BuildDesign(ctx, folder)
	if err != nil {
		return nil, err
	}
	if guard {
		if err := s.GuardSuffix(ctx, build.Metadata.SKUSuffix, lister); err != nil {
			return nil, err
		}
	}
	return s.encode(build.Metadata.SKUSuffix+".csv", build.Rows)
}

// BuildManualCSV expands posted metadata into "{SUFFIX}.csv". The suffix is
// always guarded.
func (s *PublishService) BuildManualCSV(ctx context.Context, meta models.DesignMetadata, excluded []string, lister string) (*CSVFile, error) {
	build, err := s.designs.BuildManual(ctx, meta, excluded)
	if err != nil {
		return nil, err
	}
	if err := s.GuardSuffix(ctx, build.Metadata.SKUSuffix, lister); err != nil {
		return nil, err
	}
	return s.encode(build.Metadata.SKUSuffix+".csv", build.Rows)
}

func (s *PublishService) encode(name string, rows []models.VariantRow) (*CSVFile, error) {
	data, err := catalog.EncodeCSV(rows)
	if err != nil {
		return nil, err
	}
	return &CSVFile{Name: name, Rows: len(rows), Size: len(data), Data: data}, nil
}

// BuildBatch builds every folder (all ready folders when none are given) and
// splits the combined rows into CSV parts within the size limits. Designs
// that fail to build are reported in the summary and left out.
func (s *PublishService) BuildBatch(ctx context.Context, folders []string) (*BatchBuild, error) {
	start := s.now()
	folders, err := s.targets(ctx, folders)
	if err != nil {
		return nil, err
	}

	out := &BatchBuild{}
	var rows []models.VariantRow
	for _, folder := range folders {
		t0 := s.now()
		build, err := s.designs.BuildDesign(ctx, folder)
		summary := models.DesignSummary{Folder: folder, OK: err == nil, Elapsed: s.now().Sub(t0)}
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			summary.Error = err.Error()
			s.logger.Warn("⚠️ Batch design failed", zap.String("folder", folder), zap.Error(err))
		} else {
			rows = append(rows, build.Rows...)
		}
		out.Summary = append(out.Summary, summary)
	}
	if len(rows) == 0 {
		return out, fmt.Errorf("no rows built for %d folders", len(folders))
	}

	parts, err := catalog.SplitByLimits(rows, s.csv.MaxBytes(), s.csv.MaxRows)
	if err != nil {
		return nil, err
	}
	stamp := start.Format("20060102_150405")
	for i, part := range parts {
		file, err := s.encode(fmt.Sprintf("BATCH_%s_part%d.csv", stamp, i+1), part)
		if err != nil {
			return nil, err
		}
		out.Parts = append(out.Parts, *file)
	}

	s.logger.Info("🧾 Batch CSV built",
		zap.Int("designs", len(folders)),
		zap.Int("rows", len(rows)),
		zap.Int("parts", len(out.Parts)),
		zap.Duration("elapsed", s.now().Sub(start)))
	return out, nil
}

func (s *PublishService) targets(ctx context.Context, folders []string) ([]string, error) {
	if len(folders) > 0 {
		return folders, nil
	}
	analysis, err := s.designs.AnalyzeFolders(ctx)
	if err != nil {
		return nil, err
	}
	if len(analysis.Ready) == 0 {
		return nil, fmt.Errorf("no ready design folders")
	}
	return analysis.Ready, nil
}

// run carries the per-run logger and progress sink.
type run struct {
	id     string
	logger *zap.Logger
	emit   func(format string, args ...any)
}

func (s *PublishService) newRun(progress shopify.ProgressFunc) *run {
	id := uuid.NewString()
	r := &run{
		id:     id,
		logger: s.logger.With(zap.String("run_id", id)),
		emit: func(format string, args ...any) {
			if progress != nil {
				progress(fmt.Sprintf(format, args...))
			}
		},
	}
	r.emit("🆔 Run %s", id)
	return r
}

// PublishDesign builds, guards and uploads one design, then optionally moves
// it to finished.
func (s *PublishService) PublishDesign(ctx context.Context, folder string, opts PublishOptions, progress shopify.ProgressFunc) (models.DesignSummary, error) {
	r := s.newRun(progress)
	session, err := s.sessions(opts.Store)
	if err != nil {
		return models.DesignSummary{Folder: folder, Error: err.Error()}, err
	}
	summary, err := s.publishDesign(ctx, r, session, folder, opts, progress)
	r.emit("⏱ Upload finished in %s", utils.FormatElapsed(summary.Elapsed))
	return summary, err
}

func (s *PublishService) publishDesign(ctx context.Context, r *run, session StoreSession, folder string, opts PublishOptions, progress shopify.ProgressFunc) (models.DesignSummary, error) {
	t0 := s.now()
	summary := models.DesignSummary{Folder: folder}
	fail := func(err error) (models.DesignSummary, error) {
		summary.Error = err.Error()
		summary.Elapsed = s.now().Sub(t0)
		r.logger.Error("❌ Design publish failed", zap.String("folder", folder), zap.Error(err))
		return summary, err
	}

	r.emit("📦 %s: starting…", folder)
	build, err := s.designs.BuildDesign(ctx, folder)
	if err != nil {
		return fail(err)
	}
	if n := len(build.MissingSlots); n > 0 {
		shown := build.MissingSlots
		more := ""
		if n > 10 {
			shown, more = shown[:10], "…"
		}
		r.emit("⚠️ Missing images: %v%s", shown, more)
	} else {
		r.emit("✅ All image links fetched")
	}
	r.emit("✅ Rows ready: %d", len(build.Rows))

	if !opts.SkipGuard {
		if err := s.GuardSuffix(ctx, build.Metadata.SKUSuffix, opts.Lister); err != nil {
			return fail(err)
		}
	}

	results, err := session.Upload(ctx, build.Rows, shopify.UploadOptions{
		VariantBudget: opts.VariantBudget,
		SkipHandles:   opts.SkipHandles,
		Progress:      progress,
	})
	summary.Products = results
	if err != nil {
		return fail(err)
	}
	summary.OK = true
	r.emit("✅ %s: upload complete", folder)

	if opts.MoveToFinished {
		if dest, err := s.designs.MoveToFinished(ctx, folder); err != nil {
			r.emit("⚠️ Uploaded, but move to finished failed: %v", err)
			r.logger.Warn("move to finished failed", zap.String("folder", folder), zap.Error(err))
		} else {
			r.emit("📦 Moved to %s", dest)
		}
	}

	summary.Elapsed = s.now().Sub(t0)
	r.logger.Info("✅ Design published",
		zap.String("folder", folder),
		zap.Int("products", len(results)),
		zap.Duration("elapsed", summary.Elapsed))
	return summary, nil
}

// PublishBatch publishes folders (all ready folders when none are given) in
// sequence. A failed design does not stop the batch; reaching the daily
// variant quota does, and that error is returned with the summaries.
func (s *PublishService) PublishBatch(ctx context.Context, folders []string, opts PublishOptions, progress shopify.ProgressFunc) ([]models.DesignSummary, error) {
	r := s.newRun(progress)
	start := s.now()

	folders, err := s.targets(ctx, folders)
	if err != nil {
		return nil, err
	}
	session, err := s.sessions(opts.Store)
	if err != nil {
		return nil, err
	}

	unlimited := opts.VariantBudget <= 0
	remaining := opts.VariantBudget

	var summaries []models.DesignSummary
	var stopErr error
	for _, folder := range folders {
		if ctx.Err() != nil {
			stopErr = ctx.Err()
			break
		}
		if !unlimited && remaining <= 0 {
			r.emit("⏭️ Variant budget exhausted, stopping batch.")
			break
		}

		designOpts := opts
		if !unlimited {
			designOpts.VariantBudget = remaining
		}
		summary, err := s.publishDesign(ctx, r, session, folder, designOpts, progress)
		for _, p := range summary.Products {
			remaining -= p.CreatedVariants
		}

		var dup *DuplicateSuffixError
		switch {
		case err == nil:
		case shopify.IsQuota(err):
			summary.Error = "Daily variant limit"
			r.emit("⛔ %s: daily variant creation limit hit. Use the bulk CSV import now or resume tomorrow.", folder)
			stopErr = err
		case errors.As(err, &dup):
			summary.Error = "SKU suffix already used"
			r.emit("❌ %s: %v", folder, err)
		default:
			r.emit("❌ %s: failed: %v", folder, err)
		}
		summaries = append(summaries, summary)
		if stopErr != nil {
			break
		}
	}

	r.emit("Batch summary")
	for _, sm := range summaries {
		if sm.OK {
			r.emit("• %s: ✅ %s", sm.Folder, utils.FormatElapsed(sm.Elapsed))
		} else {
			r.emit("• %s: ❌ %s: %s", sm.Folder, utils.FormatElapsed(sm.Elapsed), sm.Error)
		}
	}
	r.emit("⏱ All folders processed in %s", utils.FormatElapsed(s.now().Sub(start)))

	r.logger.Info("📦 Batch finished",
		zap.Int("designs", len(summaries)),
		zap.Bool("stopped", stopErr != nil))
	return summaries, stopErr
}

// PublishRows uploads rows read back from a CSV.
func (s *PublishService) PublishRows(ctx context.Context, rows []models.VariantRow, opts PublishOptions, progress shopify.ProgressFunc) ([]models.UploadResult, error) {
	r := s.newRun(progress)
	session, err := s.sessions(opts.Store)
	if err != nil {
		return nil, err
	}
	results, err := session.Upload(ctx, rows, shopify.UploadOptions{
		VariantBudget: opts.VariantBudget,
		SkipHandles:   opts.SkipHandles,
		Progress:      progress,
	})
	if err != nil {
		r.logger.Error("❌ CSV upload failed", zap.Error(err))
		return results, err
	}
	r.logger.Info("✅ CSV uploaded", zap.Int("products", len(results)))
	return results, nil
}

// CheckConnection reads the shop with the store's credential.
func (s *PublishService) CheckConnection(ctx context.Context, store string) (shopify.ShopStatus, error) {
	session, err := s.sessions(store)
	if err != nil {
		return shopify.ShopStatus{}, err
	}
	return session.CheckConnection(ctx)
}
