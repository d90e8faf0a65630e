package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"sku-generator/catalog"
	"sku-generator/config"
	"sku-generator/logger"
	"sku-generator/models"
	"sku-generator/utils"
)

// maxArchivedSlot is the highest numbered image removed on archive.
const maxArchivedSlot = 127

// ignoredFolders are never treated as designs.
var ignoredFolders = map[string]bool{
	"finished": true,
	"images":   true,
	"designs":  true,
	"1_ready":  true,
}

// DesignServiceInterface defines the design folder workflow.
type DesignServiceInterface interface {
	AnalyzeFolders(ctx context.Context) (models.FolderAnalysis, error)
	LoadMetadata(ctx context.Context, folder string) (models.DesignMetadata, error)
	LoadImageLinks(ctx context.Context, folderPath string) (map[int]string, []int, error)
	BuildDesign(ctx context.Context, folder string) (*DesignBuild, error)
	BuildManual(ctx context.Context, meta models.DesignMetadata, excluded []string) (*DesignBuild, error)
	MoveToFinished(ctx context.Context, folder string) (string, error)
	CleanAndArchive(ctx context.Context, folder string) (int, string, error)
	ArtworkPreview(ctx context.Context, folder, size string) ([]byte, error)
	ArtworkInfo(ctx context.Context, folder string) (models.ArtworkInfo, error)
}

// DesignBuild is an expanded design ready for CSV export or upload.
type DesignBuild struct {
	Folder       string                `json:"folder"`
	Metadata     models.DesignMetadata `json:"metadata"`
	Rows         []models.VariantRow   `json:"rows"`
	MissingSlots []int                 `json:"missingSlots,omitempty"`
}

// DesignService reads design folders from a FileStore and expands them into
// variant rows.
type DesignService struct {
	store     FileStore
	expander  *catalog.Expander
	cfg       config.DriveConfig
	optimizer *ImageOptimizer
	logger    *zap.Logger
	sleep     func(ctx context.Context, d time.Duration) error
}

var _ DesignServiceInterface = (*DesignService)(nil)

// NewDesignService creates a DesignService.
func NewDesignService(store FileStore, expander *catalog.Expander, cfg config.DriveConfig, optimizer *ImageOptimizer, log *zap.Logger) *DesignService {
	if optimizer == nil {
		optimizer = NewImageOptimizer("", log)
	}
	return &DesignService{
		store:     store,
		expander:  expander,
		cfg:       cfg,
		optimizer: optimizer,
		logger:    logger.OrNop(log),
		sleep:     sleepContext,
	}
}

// AnalyzeFolders splits the design folders under the designs root into
// ready and not-ready. A folder that cannot be listed is reported as not
// ready with the error as its issue.
func (s *DesignService) AnalyzeFolders(ctx context.Context) (models.FolderAnalysis, error) {
	analysis := models.FolderAnalysis{Ready: []string{}, NotReady: []models.FolderStatus{}}

	entries, err := s.store.List(ctx, s.cfg.DesignsRoot)
	if err != nil {
		return analysis, fmt.Errorf("failed to list designs root: %w", err)
	}

	for _, e := range entries {
		if !e.IsFolder || s.ignored(e.Name) {
			continue
		}

		files, err := s.store.List(ctx, e.Path)
		if err != nil {
			if ctx.Err() != nil {
				return analysis, ctx.Err()
			}
			s.logger.Warn("⚠️ Failed to list design folder", zap.String("folder", e.Name), zap.Error(err))
			analysis.NotReady = append(analysis.NotReady, models.FolderStatus{
				Folder:   e.Name,
				Required: s.cfg.ImageSlots,
				Issues:   fmt.Sprintf("Error: %v", err),
			})
			continue
		}

		status, ready := analyzeFolder(e.Name, files, s.cfg.ImageSlots)
		if ready {
			analysis.Ready = append(analysis.Ready, e.Name)
		} else {
			analysis.NotReady = append(analysis.NotReady, status)
		}
	}

	s.logger.Info("📂 Design folders analysed",
		zap.Int("ready", len(analysis.Ready)),
		zap.Int("notReady", len(analysis.NotReady)))
	return analysis, nil
}

func (s *DesignService) ignored(name string) bool {
	lower := strings.ToLower(name)
	return ignoredFolders[lower] || strings.EqualFold(name, s.cfg.FinishedDir)
}

// analyzeFolder checks one folder's files. It is ready when the artwork is
// present and at least slots numbered PNGs exist.
func analyzeFolder(folder string, files []models.FileEntry, slots int) (models.FolderStatus, bool) {
	status := models.FolderStatus{Folder: folder, Required: slots}
	for _, f := range files {
		if f.IsFolder {
			continue
		}
		switch {
		case utils.IsMetadataFile(f.Name):
			status.HasJSON = true
		case utils.IsNotesFile(f.Name):
			status.HasNotes = true
		}
		if utils.IsArtworkFor(folder, f.Name) {
			status.HasArt = true
		}
		if _, ok := utils.ParseSlotFileName(f.Name); ok {
			status.ImageCount++
		}
	}

	var issues []string
	if !status.HasArt {
		issues = append(issues, "Missing matching artwork")
	}
	if status.ImageCount < slots {
		issues = append(issues, fmt.Sprintf("Only %d/%d images", status.ImageCount, slots))
	}
	status.Issues = strings.Join(issues, ", ")
	return status, len(issues) == 0
}

// LoadMetadata decodes the first .json file of the design folder.
func (s *DesignService) LoadMetadata(ctx context.Context, folder string) (models.DesignMetadata, error) {
	folderPath, err := s.folderPath(folder)
	if err != nil {
		return models.DesignMetadata{}, err
	}

	files, err := s.store.List(ctx, folderPath)
	if err != nil {
		return models.DesignMetadata{}, fmt.Errorf("failed to list %s: %w", folderPath, err)
	}

	for _, f := range files {
		if f.IsFolder || !utils.IsMetadataFile(f.Name) {
			continue
		}
		data, err := s.store.Download(ctx, f.Path)
		if err != nil {
			return models.DesignMetadata{}, fmt.Errorf("failed to download %s: %w", f.Path, err)
		}
		var meta models.DesignMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			return models.DesignMetadata{}, &catalog.ValidationError{
				Message: fmt.Sprintf("invalid metadata in %s: %v", f.Name, err),
			}
		}
		return meta.Normalize(), nil
	}
	return models.DesignMetadata{}, fmt.Errorf("no metadata .json in %s: %w", folderPath, ErrNotFound)
}

// LoadImageLinks fetches shared links for the numbered mockups of a folder
// on a bounded worker pool. Slots whose links could not be produced after
// the configured attempts are returned sorted in failed.
func (s *DesignService) LoadImageLinks(ctx context.Context, folderPath string) (map[int]string, []int, error) {
	start := time.Now()
	links := make(map[int]string, s.cfg.ImageSlots)
	var failed []int
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, s.cfg.Workers))
	for slot := 1; slot <= s.cfg.ImageSlots; slot++ {
		g.Go(func() error {
			link, err := s.sharedLink(gctx, path.Join(folderPath, utils.SlotFileName(slot)))

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				failed = append(failed, slot)
				return nil
			}
			links[slot] = link
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	sort.Ints(failed)
	s.logger.Info("🔗 Image links loaded",
		zap.String("folder", folderPath),
		zap.Int("links", len(links)),
		zap.Ints("failed", failed),
		zap.Duration("elapsed", time.Since(start)))
	return links, failed, nil
}

func (s *DesignService) sharedLink(ctx context.Context, filePath string) (string, error) {
	attempts := max(1, s.cfg.LinkAttempts)
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		link, err := s.store.SharedLink(ctx, filePath)
		if err == nil {
			return link, nil
		}
		lastErr = err
		if errors.Is(err, ErrNotFound) || attempt == attempts {
			break
		}
		if err := s.sleep(ctx, s.cfg.LinkRetryDelay); err != nil {
			return "", err
		}
	}
	s.logger.Debug("shared link failed", zap.String("path", filePath), zap.Error(lastErr))
	return "", lastErr
}

// BuildDesign loads a folder's metadata and image links and expands it.
func (s *DesignService) BuildDesign(ctx context.Context, folder string) (*DesignBuild, error) {
	meta, err := s.LoadMetadata(ctx, folder)
	if err != nil {
		return nil, err
	}
	if err := s.expander.Validate(meta); err != nil {
		return nil, err
	}
	folderPath, _ := s.folderPath(folder)

	links, missing, err := s.LoadImageLinks(ctx, folderPath)
	if err != nil {
		return nil, err
	}

	rows, err := s.expander.Expand(catalog.Input{Metadata: meta, ImageLinks: links})
	if err != nil {
		return nil, err
	}
	return &DesignBuild{Folder: folder, Metadata: meta, Rows: rows, MissingSlots: missing}, nil
}

// BuildManual expands metadata that did not come from a design folder. Image
// links are taken from the configured images folder when one is set.
func (s *DesignService) BuildManual(ctx context.Context, meta models.DesignMetadata, excluded []string) (*DesignBuild, error) {
	meta = meta.Normalize()
	if err := s.expander.Validate(meta); err != nil {
		return nil, err
	}
	in := catalog.Input{Metadata: meta, Excluded: excluded}

	var missing []int
	if s.cfg.ImagesFolder != "" {
		links, failed, err := s.LoadImageLinks(ctx, s.cfg.ImagesFolder)
		if err != nil {
			return nil, err
		}
		in.ImageLinks = links
		missing = failed
	}

	rows, err := s.expander.Expand(in)
	if err != nil {
		return nil, err
	}
	return &DesignBuild{Metadata: meta, Rows: rows, MissingSlots: missing}, nil
}

// MoveToFinished moves {root}/{folder} into {root}/{finished}/{folder} and
// returns the destination. A folder already in finished is left in place.
func (s *DesignService) MoveToFinished(ctx context.Context, folder string) (string, error) {
	src, err := s.folderPath(folder)
	if err != nil {
		return "", err
	}
	finishedRoot := path.Join(s.cfg.DesignsRoot, s.cfg.FinishedDir)
	dst := path.Join(finishedRoot, folder)

	exists, err := s.store.Exists(ctx, src)
	if err != nil {
		return "", err
	}
	if !exists {
		if done, err := s.store.Exists(ctx, dst); err == nil && done {
			return dst, nil
		}
		return "", fmt.Errorf("design folder %s: %w", src, ErrNotFound)
	}

	if err := s.store.EnsureFolder(ctx, finishedRoot); err != nil {
		return "", err
	}
	final, err := s.store.Move(ctx, src, dst)
	if err != nil {
		return "", err
	}
	s.logger.Info("📦 Moved to finished", zap.String("folder", folder), zap.String("dest", final))
	return final, nil
}

// CleanAndArchive deletes the numbered mockups (1 to 127) of a finished
// design and moves the folder under the completed root. It returns the
// number of files deleted and the destination.
func (s *DesignService) CleanAndArchive(ctx context.Context, folder string) (int, string, error) {
	if err := validateFolder(folder); err != nil {
		return 0, "", err
	}
	src := path.Join(s.cfg.DesignsRoot, s.cfg.FinishedDir, folder)

	exists, err := s.store.Exists(ctx, src)
	if err != nil {
		return 0, "", err
	}
	if !exists {
		return 0, "", fmt.Errorf("%s is not in %s: %w", folder, s.cfg.FinishedDir, ErrNotFound)
	}

	files, err := s.store.List(ctx, src)
	if err != nil {
		return 0, "", err
	}

	deleted := 0
	for _, f := range files {
		n, ok := utils.ParseNumberedImage(f.Name)
		if f.IsFolder || !ok || n > maxArchivedSlot {
			continue
		}
		if err := s.store.Delete(ctx, f.Path); err != nil {
			return deleted, "", fmt.Errorf("failed to delete %s: %w", f.Path, err)
		}
		deleted++
	}

	if err := s.store.EnsureFolder(ctx, s.cfg.CompletedRoot); err != nil {
		return deleted, "", err
	}
	dest, err := s.store.Move(ctx, src, path.Join(s.cfg.CompletedRoot, folder))
	if err != nil {
		return deleted, "", err
	}

	s.logger.Info("🧹 Cleaned and archived",
		zap.String("folder", folder),
		zap.Int("deleted", deleted),
		zap.String("dest", dest))
	return deleted, dest, nil
}

// ArtworkPreview returns a resized JPEG of the folder's artwork.
func (s *DesignService) ArtworkPreview(ctx context.Context, folder, size string) ([]byte, error) {
	artwork, err := s.findArtwork(ctx, folder)
	if err != nil {
		return nil, err
	}

	key := folder + "_" + artwork.Name
	if data, ok := s.optimizer.Cached(key, size); ok {
		return data, nil
	}

	raw, err := s.store.Download(ctx, artwork.Path)
	if err != nil {
		return nil, err
	}
	data, err := s.optimizer.Optimize(raw, size)
	if err != nil {
		return nil, err
	}
	if err := s.optimizer.Save(key, size, data); err != nil {
		s.logger.Warn("⚠️ Failed to cache preview", zap.String("folder", folder), zap.Error(err))
	}
	return data, nil
}

// ArtworkInfo reports the artwork's dimensions.
func (s *DesignService) ArtworkInfo(ctx context.Context, folder string) (models.ArtworkInfo, error) {
	artwork, err := s.findArtwork(ctx, folder)
	if err != nil {
		return models.ArtworkInfo{}, err
	}
	raw, err := s.store.Download(ctx, artwork.Path)
	if err != nil {
		return models.ArtworkInfo{}, err
	}
	return Dimensions(artwork.Name, raw)
}

func (s *DesignService) findArtwork(ctx context.Context, folder string) (models.FileEntry, error) {
	folderPath, err := s.folderPath(folder)
	if err != nil {
		return models.FileEntry{}, err
	}
	files, err := s.store.List(ctx, folderPath)
	if err != nil {
		return models.FileEntry{}, err
	}
	for _, f := range files {
		if !f.IsFolder && utils.IsArtworkFor(folder, f.Name) {
			return f, nil
		}
	}
	return models.FileEntry{}, fmt.Errorf("artwork for %s: %w", folder, ErrNotFound)
}

func (s *DesignService) folderPath(folder string) (string, error) {
	if err := validateFolder(folder); err != nil {
		return "", err
	}
	return path.Join(s.cfg.DesignsRoot, folder), nil
}

// validateFolder rejects names that would escape the designs root.
func validateFolder(folder string) error {
	if folder == "" || folder == "." || folder == ".." || strings.ContainsAny(folder, `/\`) {
		return &catalog.ValidationError{
			Message: fmt.Sprintf("invalid design folder name %q", folder),
			Fields:  map[string]string{"folder": "invalid"},
		}
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
