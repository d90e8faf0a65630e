package service

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"
	_ "golang.org/x/image/webp"

	"sku-generator/logger"
	"sku-generator/models"
)

const (
	defaultCacheDir = "cache/artwork"

	PreviewThumb  = "thumb"
	PreviewMedium = "medium"

	qualityThumb  = 60
	qualityMedium = 75
	maxSizeThumb  = 300
	maxSizeMedium = 800
)

var unsafeCacheChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// ImageOptimizer resizes artwork into JPEG previews and keeps them on disk.
type ImageOptimizer struct {
	dir    string
	logger *zap.Logger
}

// NewImageOptimizer creates an optimizer caching under dir. An empty dir
// uses cache/artwork.
func NewImageOptimizer(dir string, log *zap.Logger) *ImageOptimizer {
	if dir == "" {
		dir = defaultCacheDir
	}
	return &ImageOptimizer{dir: dir, logger: logger.OrNop(log)}
}

// CachePath returns the cache file for a source file and preview size.
func (o *ImageOptimizer) CachePath(key, size string) string {
	name := fmt.Sprintf("%s_%s.jpg", unsafeCacheChars.ReplaceAllString(key, "_"), size)
	return filepath.Join(o.dir, name)
}

// Cached returns the cached preview if present.
func (o *ImageOptimizer) Cached(key, size string) ([]byte, bool) {
	data, err := os.ReadFile(o.CachePath(key, size))
	if err != nil {
		return nil, false
	}
	return data, true
}

// Save stores a preview in the cache.
func (o *ImageOptimizer) Save(key, size string, data []byte) error {
	cachePath := o.CachePath(key, size)
	if err := os.MkdirAll(filepath.Dir(cachePath), 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	if err := os.WriteFile(cachePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	o.logger.Debug("✓ Image cached", zap.String("path", cachePath))
	return nil
}

// Optimize decodes raw image bytes (PNG, JPEG, WebP) and re-encodes them as
// a JPEG bounded to the size's max dimension.
func (o *ImageOptimizer) Optimize(imageData []byte, size string) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(imageData), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	maxDim, quality := maxSizeMedium, qualityMedium
	switch size {
	case PreviewThumb:
		maxDim, quality = maxSizeThumb, qualityThumb
	case PreviewMedium:
	default:
		o.logger.Warn("⚠️ Unknown preview size, defaulting to medium", zap.String("size", size))
	}

	bounds := img.Bounds()
	if bounds.Dx() > maxDim || bounds.Dy() > maxDim {
		img = imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("failed to encode to JPEG: %w", err)
	}

	o.logger.Debug("✓ Image optimized",
		zap.String("size", size),
		zap.Int("quality", quality),
		zap.Int("bytes", buf.Len()))
	return buf.Bytes(), nil
}

// Dimensions decodes imageData and reports its size.
func Dimensions(name string, imageData []byte) (models.ArtworkInfo, error) {
	img, err := imaging.Decode(bytes.NewReader(imageData))
	if err != nil {
		return models.ArtworkInfo{}, fmt.Errorf("failed to decode %s: %w", name, err)
	}
	b := img.Bounds()
	info := models.ArtworkInfo{FileName: name, Width: b.Dx(), Height: b.Dy()}
	if info.Height > 0 {
		info.AspectRatio = float64(info.Width) / float64(info.Height)
	}
	return info, nil
}
