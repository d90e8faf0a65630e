package service

import (
	"bytes"
	"context"
	"errors"
	"image/color"
	"strconv"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sku-generator/catalog"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, imaging.New(w, h, color.White), imaging.PNG))
	return buf.Bytes()
}

func newTestDesignService(t *testing.T, store *memStore) *DesignService {
	t.Helper()
	return NewDesignService(store, testExpander(t), testDriveConfig(), NewImageOptimizer(t.TempDir(), nil), nil)
}

func TestAnalyzeFolders(t *testing.T) {
	store := newMemStore()
	svc := newTestDesignService(t, store)
	meta := testMetadata(t, svc.expander, "ACME")
	art := pngBytes(t, 4, 4)

	seedDesign(t, store, "designs", "Acme", meta, 80, art)
	seedDesign(t, store, "designs", "Partial", meta, 10, nil)
	store.put("designs/Partial/brief.pdf", []byte("%PDF"))
	seedDesign(t, store, "designs", "finished/Old", meta, 80, art)
	seedDesign(t, store, "designs", "Images", meta, 80, art)
	seedDesign(t, store, "designs", "Broken", meta, 0, nil)
	store.listErr["designs/Broken"] = errors.New("permission denied")
	store.put("designs/loose.txt", []byte("x"))

	analysis, err := svc.AnalyzeFolders(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"Acme"}, analysis.Ready)
	require.Len(t, analysis.NotReady, 2)

	broken := analysis.NotReady[0]
	assert.Equal(t, "Broken", broken.Folder)
	assert.Equal(t, "Error: permission denied", broken.Issues)

	partial := analysis.NotReady[1]
	assert.Equal(t, "Partial", partial.Folder)
	assert.True(t, partial.HasJSON)
	assert.True(t, partial.HasNotes)
	assert.False(t, partial.HasArt)
	assert.Equal(t, 10, partial.ImageCount)
	assert.Equal(t, 80, partial.Required)
	assert.Equal(t, "Missing matching artwork, Only 10/80 images", partial.Issues)
}

func TestAnalyzeFolders_RootListingFails(t *testing.T) {
	store := newMemStore()
	svc := newTestDesignService(t, store)

	_, err := svc.AnalyzeFolders(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoadMetadata(t *testing.T) {
	store := newMemStore()
	svc := newTestDesignService(t, store)
	store.put("designs/Acme/meta.json", []byte(`{
		"product_name": " Acme Logo ",
		"sku_suffix": "acme",
		"main_color": "White",
		"descriptions": "one | two",
		"Restrictions": "Pink"
	}`))

	meta, err := svc.LoadMetadata(context.Background(), "Acme")
	require.NoError(t, err)
	assert.Equal(t, "Acme Logo", meta.ProductName)
	assert.Equal(t, "ACME", meta.SKUSuffix)
	assert.Equal(t, []string{"one", "two"}, []string(meta.Descriptions))
	assert.Equal(t, []string{"Pink"}, meta.ExcludedColors())
}

func TestLoadMetadata_Errors(t *testing.T) {
	store := newMemStore()
	svc := newTestDesignService(t, store)
	store.put("designs/NoMeta/NoMeta.png", []byte("x"))
	store.put("designs/Bad/meta.json", []byte(`{not json`))

	_, err := svc.LoadMetadata(context.Background(), "NoMeta")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.LoadMetadata(context.Background(), "Bad")
	var vErr *catalog.ValidationError
	assert.True(t, errors.As(err, &vErr))

	_, err = svc.LoadMetadata(context.Background(), "../etc")
	assert.True(t, errors.As(err, &vErr))
}

func TestLoadImageLinks_RetriesAndReportsFailures(t *testing.T) {
	store := newMemStore()
	svc := newTestDesignService(t, store)
	seedDesign(t, store, "designs", "Acme", testMetadata(t, svc.expander, "ACME"), 79, nil)
	store.linkFailures["designs/Acme/3.png"] = 2
	store.linkFailures["designs/Acme/7.png"] = 5

	links, failed, err := svc.LoadImageLinks(context.Background(), "designs/Acme")
	require.NoError(t, err)

	assert.Equal(t, []int{7, 80}, failed)
	assert.Len(t, links, 78)
	assert.Equal(t, "https://cdn.test/designs/Acme/3.png", links[3])
	assert.Equal(t, 3, store.linkCalls["designs/Acme/3.png"])
	assert.Equal(t, 3, store.linkCalls["designs/Acme/7.png"])
	assert.Equal(t, 1, store.linkCalls["designs/Acme/80.png"], "a missing file is not retried")
}

func TestLoadImageLinks_Cancelled(t *testing.T) {
	store := newMemStore()
	svc := newTestDesignService(t, store)
	seedDesign(t, store, "designs", "Acme", testMetadata(t, svc.expander, "ACME"), 80, nil)
	for i := 1; i <= 80; i++ {
		store.linkFailures["designs/Acme/"+strconv.Itoa(i)+".png"] = 10
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := svc.LoadImageLinks(ctx, "designs/Acme")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuildDesign(t *testing.T) {
	store := newMemStore()
	svc := newTestDesignService(t, store)
	seedDesign(t, store, "designs", "Acme", testMetadata(t, svc.expander, "acme"), 80, pngBytes(t, 4, 4))

	build, err := svc.BuildDesign(context.Background(), "Acme")
	require.NoError(t, err)

	assert.Equal(t, "Acme", build.Folder)
	assert.Equal(t, "ACME", build.Metadata.SKUSuffix)
	assert.Empty(t, build.MissingSlots)
	require.NotEmpty(t, build.Rows)

	withImage := 0
	for _, r := range build.Rows {
		assert.True(t, strings.HasSuffix(r.SKU, "-ACME"), r.SKU)
		if r.ImageURL != "" {
			withImage++
			assert.True(t, strings.HasPrefix(r.ImageURL, "https://cdn.test/designs/Acme/"), r.ImageURL)
		}
	}
	assert.Equal(t, len(build.Rows), withImage)
}

func TestBuildDesign_InvalidMetadataFails(t *testing.T) {
	store := newMemStore()
	svc := newTestDesignService(t, store)
	meta := testMetadata(t, svc.expander, "ACME")
	meta.Descriptions = meta.Descriptions[:9]
	seedDesign(t, store, "designs", "Acme", meta, 80, nil)

	_, err := svc.BuildDesign(context.Background(), "Acme")
	var vErr *catalog.ValidationError
	assert.True(t, errors.As(err, &vErr))
	assert.Empty(t, store.linkCalls, "no links are shared for invalid metadata")
}

func TestBuildManual_InvalidMetadataFailsBeforeLinks(t *testing.T) {
	store := newMemStore()
	svc := newTestDesignService(t, store)
	svc.cfg.ImagesFolder = "images"
	for i := 1; i <= 80; i++ {
		store.put("images/"+strconv.Itoa(i)+".png", []byte("png"))
	}
	meta := testMetadata(t, svc.expander, "manual")
	meta.MainColor = ""

	_, err := svc.BuildManual(context.Background(), meta, nil)
	var vErr *catalog.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "required", vErr.Fields["main_color"])
	assert.Empty(t, store.linkCalls)
}

func TestBuildManual(t *testing.T) {
	store := newMemStore()
	svc := newTestDesignService(t, store)
	meta := testMetadata(t, svc.expander, "manual")

	build, err := svc.BuildManual(context.Background(), meta, []string{"White"})
	require.NoError(t, err)
	require.NotEmpty(t, build.Rows)
	for _, r := range build.Rows {
		assert.Empty(t, r.ImageURL)
		assert.NotEqual(t, "White", r.Color)
	}

	svc.cfg.ImagesFolder = "images"
	for i := 1; i <= 80; i++ {
		store.put("images/"+strconv.Itoa(i)+".png", []byte("png"))
	}
	build, err = svc.BuildManual(context.Background(), meta, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, build.Rows[0].ImageURL)
}

func TestMoveToFinished(t *testing.T) {
	store := newMemStore()
	svc := newTestDesignService(t, store)
	seedDesign(t, store, "designs", "Acme", testMetadata(t, svc.expander, "ACME"), 2, nil)

	dest, err := svc.MoveToFinished(context.Background(), "Acme")
	require.NoError(t, err)
	assert.Equal(t, "designs/finished/Acme", dest)
	assert.False(t, store.has("designs/Acme"))
	assert.True(t, store.has("designs/finished/Acme/meta.json"))

	dest, err = svc.MoveToFinished(context.Background(), "Acme")
	require.NoError(t, err, "already finished is a no-op")
	assert.Equal(t, "designs/finished/Acme", dest)

	_, err = svc.MoveToFinished(context.Background(), "Ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCleanAndArchive(t *testing.T) {
	store := newMemStore()
	svc := newTestDesignService(t, store)
	seedDesign(t, store, "designs", "finished/Acme", testMetadata(t, svc.expander, "ACME"), 80, pngBytes(t, 4, 4))
	store.put("designs/finished/Acme/81.JPG", []byte("x"))
	store.put("designs/finished/Acme/200.png", []byte("x"))
	store.put("designs/finished/Acme/notes.txt", []byte("x"))

	deleted, dest, err := svc.CleanAndArchive(context.Background(), "Acme")
	require.NoError(t, err)
	assert.Equal(t, 81, deleted)
	assert.Equal(t, "Completed/Acme", dest)

	left, err := store.List(context.Background(), "Completed/Acme")
	require.NoError(t, err)
	var names []string
	for _, f := range left {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"200.png", "Acme.png", "meta.json", "notes.txt"}, names)
	assert.False(t, store.has("designs/finished/Acme"))
}

func TestCleanAndArchive_RequiresFinishedFolder(t *testing.T) {
	store := newMemStore()
	svc := newTestDesignService(t, store)
	seedDesign(t, store, "designs", "Acme", testMetadata(t, svc.expander, "ACME"), 80, nil)

	_, _, err := svc.CleanAndArchive(context.Background(), "Acme")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, store.deleted)
}

func TestArtworkInfoAndPreview(t *testing.T) {
	store := newMemStore()
	svc := newTestDesignService(t, store)
	seedDesign(t, store, "designs", "Acme", testMetadata(t, svc.expander, "ACME"), 0, pngBytes(t, 1200, 600))

	info, err := svc.ArtworkInfo(context.Background(), "Acme")
	require.NoError(t, err)
	assert.Equal(t, "Acme.png", info.FileName)
	assert.Equal(t, 1200, info.Width)
	assert.Equal(t, 600, info.Height)
	assert.InDelta(t, 2.0, info.AspectRatio, 1e-9)

	thumb, err := svc.ArtworkPreview(context.Background(), "Acme", PreviewThumb)
	require.NoError(t, err)
	img, err := imaging.Decode(bytes.NewReader(thumb))
	require.NoError(t, err)
	assert.Equal(t, 300, img.Bounds().Dx())
	assert.Equal(t, 150, img.Bounds().Dy())

	cached, ok := svc.optimizer.Cached("Acme_Acme.png", PreviewThumb)
	require.True(t, ok)
	assert.Equal(t, thumb, cached)

	_, err = svc.ArtworkInfo(context.Background(), "Missing")
	assert.Error(t, err)
}
