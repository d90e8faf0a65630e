package shopify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"sku-generator/catalog"
	"sku-generator/config"
	"sku-generator/logger"
	"sku-generator/models"
	"sku-generator/utils"
)

// Settings are the orchestrator tunables.
type Settings struct {
	InlineImages        bool
	CreateCooldown      time.Duration
	ImageUploadSleep    time.Duration
	AttachmentFallback  bool
	TitleStripAfterPipe bool
	MetaDescMax         int
}

// SettingsFromConfig maps the upload configuration onto Settings.
func SettingsFromConfig(u config.UploadConfig) Settings {
	return Settings{
		InlineImages:        u.InlineImages,
		CreateCooldown:      u.CreateCooldown,
		ImageUploadSleep:    u.ImageUploadSleep,
		AttachmentFallback:  u.AttachmentFallback,
		TitleStripAfterPipe: u.TitleStripAfterPipe,
		MetaDescMax:         u.MetaDescMax,
	}
}

// UploadOptions are per-run choices.
type UploadOptions struct {
	// VariantBudget caps the variants created across the run. <= 0 is unlimited.
	VariantBudget int
	// SkipHandles lists products already created by an interrupted run.
	SkipHandles []string
	Progress    ProgressFunc
}

// Uploader creates one product per handle group, then attaches images and
// links variants to them. Products are processed strictly in sequence.
type Uploader struct {
	client   *Client
	settings Settings
	logger   *zap.Logger
	sleep    func(ctx context.Context, d time.Duration) error
}

// NewUploader creates an uploader over client.
func NewUploader(client *Client, settings Settings, log *zap.Logger) *Uploader {
	return &Uploader{
		client:   client,
		settings: settings,
		logger:   logger.OrNop(log),
		sleep:    sleepContext,
	}
}

type productGroup struct {
	key  string
	rows []models.VariantRow
}

// imageSpec is one distinct image source and the colors that use it.
type imageSpec struct {
	src    string
	alt    string
	main   bool
	colors []string
}

// Upload sends rows to the store. On failure it returns the results of the
// products created so far together with the error.
func (u *Uploader) Upload(ctx context.Context, rows []models.VariantRow, opts UploadOptions) ([]models.UploadResult, error) {
	ctx = WithProgress(ctx, opts.Progress)
	start := time.Now()

	groups := groupByHandle(rows)
	say(ctx, "✅ Shopify upload started")
	say(ctx, "📦 Total rows: %d", len(rows))
	say(ctx, "🔑 Unique product handles: %d", len(groups))

	skip := make(map[string]bool, len(opts.SkipHandles))
	for _, h := range opts.SkipHandles {
		skip[strings.ToLower(strings.TrimSpace(h))] = true
	}

	unlimited := opts.VariantBudget <= 0
	remaining := opts.VariantBudget

	var results []models.UploadResult
	for i, g := range groups {
		if skip[strings.ToLower(g.key)] {
			say(ctx, "⏭️ Skipping %s (already uploaded)", g.key)
			continue
		}

		say(ctx, "────────────────────────────────────────")
		say(ctx, "🚀 Creating product for handle: %s with %d rows", g.key, len(g.rows))

		variants, missing, dupes := sanitize(g.rows)
		if missing > 0 {
			say(ctx, "⚠️ Dropped %d rows with missing Size/Colour.", missing)
		}
		if dupes > 0 {
			say(ctx, "ℹ️ Skipped %d duplicate (Size,Colour) combos.", dupes)
		}
		if len(variants) == 0 {
			return results, &NoVariantsError{Handle: g.key}
		}

		if !unlimited {
			if remaining <= 0 {
				say(ctx, "⏭️ Variant budget exhausted, skipping remaining products.")
				break
			}
			if len(variants) > remaining {
				say(ctx, "🔪 Capping variants from %d → %d due to budget", len(variants), remaining)
				variants = variants[:remaining]
			}
			remaining -= len(variants)
		}
		say(ctx, "🧩 Variants to send (final): %d", len(variants))

		result, err := u.uploadProduct(ctx, g, variants)
		if err != nil {
			u.logger.Error("product upload failed", zap.String("handle", g.key), zap.Int64("product_id", result.ProductID), zap.Error(err))
			if result.ProductID != 0 {
				results = append(results, result)
				say(ctx, "⚠️ Product %s was created (ID: %d) but not finished", g.key, result.ProductID)
				return results, fmt.Errorf("product %s created but not finished: %w", g.key, err)
			}
			return results, fmt.Errorf("failed to create product %s: %w", g.key, err)
		}
		results = append(results, result)

		if i < len(groups)-1 && u.settings.CreateCooldown > 0 {
			if err := u.sleep(ctx, u.settings.CreateCooldown); err != nil {
				return results, err
			}
		}
	}

	say(ctx, "⏱ All products uploaded in %s", utils.FormatElapsed(time.Since(start)))
	return results, nil
}

func (u *Uploader) uploadProduct(ctx context.Context, g productGroup, variants []models.VariantRow) (models.UploadResult, error) {
	t0 := time.Now()
	first := g.rows[0]

	specs := imageSpecs(g.rows, variants)
	payload := u.buildPayload(first, variants)

	inline := u.settings.InlineImages && len(specs) > 0
	if inline {
		for i, s := range specs {
			payload.Images = append(payload.Images, imagePayload{Src: s.src, Position: i + 1, Alt: s.alt})
		}
	}

	var created createdProductResponse
	if err := u.client.Post(ctx, "/products.json", productEnvelope{Product: payload}, &created); err != nil {
		return models.UploadResult{}, err
	}
	product := created.Product
	say(ctx, "✅ Created product: %s (ID: %d)", product.Title, product.ID)

	name := product.Handle
	if name == "" {
		name = product.Title
	}
	result := models.UploadResult{
		HandleOrTitle:   name,
		ProductID:       product.ID,
		CreatedVariants: len(product.Variants),
		AdminURL:        u.client.AdminURL(product.ID),
	}
	// From here on the product exists; failures return it with the error.
	partial := func(err error) (models.UploadResult, error) {
		result.Elapsed = time.Since(t0)
		return result, err
	}

	imageByColor := make(map[string]int64)

	if inline {
		for _, img := range product.Images {
			result.CreatedImages++
			idx := img.Position - 1
			if idx < 0 || idx >= len(specs) {
				continue
			}
			for _, c := range specs[idx].colors {
				imageByColor[colorKey(c)] = img.ID
			}
		}
	} else if len(specs) > 0 {
		say(ctx, "⏳ Uploading images after create…")
		for i, s := range specs {
			if i > 0 && u.settings.ImageUploadSleep > 0 {
				if err := u.sleep(ctx, u.settings.ImageUploadSleep); err != nil {
					return partial(err)
				}
			}
			img, err := u.uploadImage(ctx, product.ID, s)
			if err != nil {
				if IsQuota(err) || ctx.Err() != nil {
					return partial(err)
				}
				say(ctx, "⚠️ Image upload failed for %s: %v", strings.Join(s.colors, ", "), err)
				u.logger.Warn("image upload failed", zap.Int64("product_id", product.ID), zap.String("src", s.src), zap.Error(err))
				continue
			}
			result.CreatedImages++
			for _, c := range s.colors {
				imageByColor[colorKey(c)] = img.ID
			}
		}
	}

	if err := u.linkVariants(ctx, product, specs, imageByColor); err != nil {
		return partial(err)
	}

	result.Elapsed = time.Since(t0)
	say(ctx, "⏱ Product finished in %s", utils.FormatElapsed(result.Elapsed))
	return result, nil
}

func (u *Uploader) buildPayload(first models.VariantRow, variants []models.VariantRow) productPayload {
	longTitle := strings.TrimSpace(first.Title)
	title := longTitle
	if u.settings.TitleStripAfterPipe {
		title = catalog.StripAfterPipe(longTitle)
	}

	seoTitle := strings.TrimSpace(first.SEOTitle)
	if seoTitle == "" {
		seoTitle = longTitle
	}
	seoDesc := strings.TrimSpace(first.SEODescription)
	if seoDesc == "" {
		seoDesc = catalog.MetaDescription(first.BodyHTML, longTitle, u.settings.MetaDescMax)
	}

	p := productPayload{
		Title:           title,
		Handle:          strings.TrimSpace(first.Handle),
		BodyHTML:        first.BodyHTML,
		Vendor:          first.Vendor,
		ProductType:     first.Type,
		Tags:            first.Tags,
		Options:         []optionPayload{{Name: catalog.OptionSize}, {Name: catalog.OptionColour}},
		MetaTitle:       seoTitle,
		MetaDescription: seoDesc,
	}
	for _, v := range variants {
		p.Variants = append(p.Variants, variantPayload{
			Option1:             strings.TrimSpace(v.Size),
			Option2:             strings.TrimSpace(v.Color),
			Price:               v.Price.StringFixed(2),
			SKU:                 v.SKU,
			InventoryQuantity:   v.InventoryQty,
			InventoryManagement: v.InventoryTracker,
			InventoryPolicy:     v.InventoryPolicy,
			FulfillmentService:  v.FulfillmentService,
			Grams:               v.Grams,
			RequiresShipping:    v.RequiresShipping,
			Taxable:             v.Taxable,
		})
	}
	return p
}

// linkVariants points every created variant at its color's image. Failures
// are reported and do not fail the product.
func (u *Uploader) linkVariants(ctx context.Context, product createdProduct, specs []imageSpec, imageByColor map[string]int64) error {
	if len(imageByColor) == 0 {
		return nil
	}

	linked := make(map[string]int)
	failed := make(map[string]bool)
	for _, v := range product.Variants {
		color := strings.TrimSpace(v.Option2)
		imageID, ok := imageByColor[colorKey(color)]
		if color == "" || !ok {
			continue
		}

		path := fmt.Sprintf("/variants/%d.json", v.ID)
		body := variantLinkEnvelope{Variant: variantLink{ID: v.ID, ImageID: imageID}}
		if err := u.client.Put(ctx, path, body, nil); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if !failed[colorKey(color)] {
				say(ctx, "⚠️ Link failed for %s: %v", color, err)
			}
			failed[colorKey(color)] = true
			u.logger.Warn("variant image link failed", zap.Int64("variant_id", v.ID), zap.String("color", color), zap.Error(err))
			continue
		}
		linked[colorKey(color)]++
	}

	for _, s := range specs {
		for _, c := range s.colors {
			if n := linked[colorKey(c)]; n > 0 {
				say(ctx, "✅ Linked %d variants to image for %s", n, c)
			}
		}
	}
	return nil
}

// uploadImage posts the image by URL and, when the store cannot fetch it,
// retries once with the bytes attached.
func (u *Uploader) uploadImage(ctx context.Context, productID int64, s imageSpec) (createdImage, error) {
	path := fmt.Sprintf("/products/%d/images.json", productID)
	img := imagePayload{Src: s.src, Alt: s.alt}
	if s.main {
		img.Position = 1
	}

	var out createdImageResponse
	err := u.client.Post(ctx, path, imageEnvelope{Image: img}, &out)
	if err == nil {
		return out.Image, nil
	}
	if !u.settings.AttachmentFallback || !isFetchFailure(err) {
		return createdImage{}, err
	}

	say(ctx, "🛟 Fallback: uploading image as attachment (base64)…")
	attachment, err := u.attachment(ctx, s.src)
	if err != nil {
		return createdImage{}, err
	}
	attachment.Position = img.Position
	attachment.Alt = img.Alt

	if err := u.client.Post(ctx, path, imageEnvelope{Image: attachment}, &out); err != nil {
		return createdImage{}, err
	}
	return out.Image, nil
}

func isFetchFailure(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Status == 422 || strings.Contains(apiErr.Body, "Could not download image")
}

// groupByHandle groups rows by handle, falling back to the title, in order
// of first appearance.
func groupByHandle(rows []models.VariantRow) []productGroup {
	index := make(map[string]int)
	var groups []productGroup
	for _, r := range rows {
		key := strings.TrimSpace(r.Handle)
		if key == "" {
			key = strings.TrimSpace(r.Title)
		}
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, productGroup{key: key})
		}
		groups[i].rows = append(groups[i].rows, r)
	}
	return groups
}

// sanitize drops rows with a blank size or color and repeated
// (size, color) pairs, compared case-insensitively.
func sanitize(rows []models.VariantRow) (kept []models.VariantRow, missing, dupes int) {
	seen := make(map[[2]string]bool, len(rows))
	for _, r := range rows {
		size, color := strings.TrimSpace(r.Size), strings.TrimSpace(r.Color)
		if size == "" || color == "" {
			missing++
			continue
		}
		key := [2]string{strings.ToLower(size), strings.ToLower(color)}
		if seen[key] {
			dupes++
			continue
		}
		seen[key] = true
		kept = append(kept, r)
	}
	return kept, missing, dupes
}

// imageSpecs picks one image per color among the colors actually sent, and
// merges colors sharing a source. The main image comes first.
func imageSpecs(rows, variants []models.VariantRow) []imageSpec {
	sent := make(map[string]bool)
	var colors []string
	for _, v := range variants {
		k := colorKey(v.Color)
		if !sent[k] {
			sent[k] = true
			colors = append(colors, strings.TrimSpace(v.Color))
		}
	}

	var specs []imageSpec
	bySrc := make(map[string]int)
	for _, color := range colors {
		var src, alt string
		main := false
		for _, r := range rows {
			if colorKey(r.Color) != colorKey(color) {
				continue
			}
			if src == "" {
				if s := strings.TrimSpace(r.ImageSource()); s != "" {
					src = s
					alt = r.ImageAltText
				}
			}
			if r.ImagePosition == 1 {
				main = true
			}
		}
		if src == "" {
			continue
		}

		if i, ok := bySrc[src]; ok {
			specs[i].colors = append(specs[i].colors, color)
			specs[i].main = specs[i].main || main
			continue
		}
		bySrc[src] = len(specs)
		specs = append(specs, imageSpec{src: src, alt: alt, main: main, colors: []string{color}})
	}

	for i, s := range specs {
		if s.main && i > 0 {
			copy(specs[1:i+1], specs[:i])
			specs[0] = s
			break
		}
	}
	return specs
}

func colorKey(color string) string {
	return strings.ToLower(strings.TrimSpace(color))
}
