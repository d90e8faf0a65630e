package service

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"sku-generator/catalog"
	"sku-generator/config"
	"sku-generator/models"
	"sku-generator/shopify"
)

// memStore is an in-memory FileStore.
type memStore struct {
	mu      sync.Mutex
	files   map[string][]byte
	folders map[string]bool

	linkFailures map[string]int
	linkCalls    map[string]int
	listErr      map[string]error
	deleted      []string
}

var _ FileStore = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{
		files:        make(map[string][]byte),
		folders:      map[string]bool{"": true},
		linkFailures: make(map[string]int),
		linkCalls:    make(map[string]int),
		listErr:      make(map[string]error),
	}
}

func (m *memStore) put(p string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p = cleanPath(p)
	m.files[p] = data
	for dir := parentPath(p); ; dir = parentPath(dir) {
		m.folders[dir] = true
		if dir == "" {
			break
		}
	}
}

func (m *memStore) List(_ context.Context, p string) ([]models.FileEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p = cleanPath(p)
	if err := m.listErr[p]; err != nil {
		return nil, err
	}
	if !m.folders[p] {
		return nil, fmt.Errorf("folder %s: %w", p, ErrNotFound)
	}

	var out []models.FileEntry
	for f, data := range m.files {
		if parentPath(f) == p {
			out = append(out, models.FileEntry{Name: path.Base(f), Path: f, Size: int64(len(data))})
		}
	}
	for d := range m.folders {
		if d != "" && parentPath(d) == p {
			out = append(out, models.FileEntry{Name: path.Base(d), Path: d, IsFolder: true})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memStore) Download(_ context.Context, p string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[cleanPath(p)]
	if !ok {
		return nil, fmt.Errorf("%s: %w", p, ErrNotFound)
	}
	return data, nil
}

func (m *memStore) SharedLink(_ context.Context, p string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p = cleanPath(p)
	m.linkCalls[p]++
	if m.linkFailures[p] > 0 {
		m.linkFailures[p]--
		return "", fmt.Errorf("transient failure for %s", p)
	}
	if _, ok := m.files[p]; !ok {
		return "", fmt.Errorf("%s: %w", p, ErrNotFound)
	}
	return "https://cdn.test/" + p, nil
}

func (m *memStore) Move(_ context.Context, src, dst string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	src, dst = cleanPath(src), cleanPath(dst)
	if !m.folders[parentPath(dst)] {
		return "", fmt.Errorf("folder %s: %w", parentPath(dst), ErrNotFound)
	}

	final := dst
	for i := 1; m.folders[final] || m.files[final] != nil; i++ {
		final = fmt.Sprintf("%s (%d)", dst, i)
	}

	if _, ok := m.files[src]; ok {
		m.files[final] = m.files[src]
		delete(m.files, src)
		return final, nil
	}
	if !m.folders[src] {
		return "", fmt.Errorf("%s: %w", src, ErrNotFound)
	}
	for f, data := range m.files {
		if strings.HasPrefix(f, src+"/") {
			m.files[final+strings.TrimPrefix(f, src)] = data
			delete(m.files, f)
		}
	}
	for d := range m.folders {
		if d == src || strings.HasPrefix(d, src+"/") {
			m.folders[final+strings.TrimPrefix(d, src)] = true
			delete(m.folders, d)
		}
	}
	return final, nil
}

func (m *memStore) Delete(_ context.Context, p string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p = cleanPath(p)
	if _, ok := m.files[p]; !ok {
		return fmt.Errorf("%s: %w", p, ErrNotFound)
	}
	delete(m.files, p)
	m.deleted = append(m.deleted, p)
	return nil
}

func (m *memStore) EnsureFolder(_ context.Context, p string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for dir := cleanPath(p); ; dir = parentPath(dir) {
		m.folders[dir] = true
		if dir == "" {
			return nil
		}
	}
}

func (m *memStore) Exists(_ context.Context, p string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p = cleanPath(p)
	_, isFile := m.files[p]
	return isFile || m.folders[p], nil
}

func (m *memStore) has(p string) bool {
	ok, _ := m.Exists(context.Background(), p)
	return ok
}

// memTracker is an in-memory SuffixTracker.
type memTracker struct {
	records []models.SuffixRecord
	listErr error
}

func (t *memTracker) List(context.Context) ([]models.SuffixRecord, error) {
	return t.records, t.listErr
}

func (t *memTracker) Append(_ context.Context, rec models.SuffixRecord) error {
	t.records = append(t.records, rec)
	return nil
}

// fakeSession records uploads and returns scripted results.
type fakeSession struct {
	uploads  [][]models.VariantRow
	options  []shopify.UploadOptions
	failures map[string]error // keyed by the first row's SKU suffix
	status   shopify.ShopStatus
}

func (f *fakeSession) Upload(_ context.Context, rows []models.VariantRow, opts shopify.UploadOptions) ([]models.UploadResult, error) {
	f.uploads = append(f.uploads, rows)
	f.options = append(f.options, opts)
	if opts.Progress != nil {
		opts.Progress("✅ Shopify upload started")
	}
	if len(rows) > 0 {
		sku := rows[0].SKU
		suffix := sku[strings.LastIndex(sku, "-")+1:]
		if err := f.failures[suffix]; err != nil {
			return nil, err
		}
	}

	n := len(rows)
	if opts.VariantBudget > 0 && n > opts.VariantBudget {
		n = opts.VariantBudget
	}
	return []models.UploadResult{{HandleOrTitle: rows[0].Handle, ProductID: 1, CreatedVariants: n}}, nil
}

func (f *fakeSession) CheckConnection(context.Context) (shopify.ShopStatus, error) {
	return f.status, nil
}

func testDriveConfig() config.DriveConfig {
	return config.DriveConfig{
		DesignsRoot:    "designs",
		FinishedDir:    "finished",
		CompletedRoot:  "Completed",
		ImageSlots:     80,
		Workers:        8,
		LinkAttempts:   3,
		LinkRetryDelay: 0,
	}
}

func testExpander(t *testing.T) *catalog.Expander {
	t.Helper()
	tables, err := catalog.DefaultTables()
	require.NoError(t, err)
	return catalog.NewExpander(tables, catalog.Defaults{
		Vendor:             "Spoofy",
		Published:          true,
		InventoryPolicy:    "deny",
		FulfillmentService: "manual",
		RequiresShipping:   true,
		Taxable:            true,
		InventoryTracker:   "shopify",
		CustomLabel0:       "Sal",
	})
}

func testMetadata(t *testing.T, exp *catalog.Expander, suffix string) models.DesignMetadata {
	t.Helper()
	descriptions := make([]string, len(exp.Tables().GarmentKeys))
	for i := range descriptions {
		descriptions[i] = fmt.Sprintf("Description %d. Soft and durable.", i+1)
	}
	return models.DesignMetadata{
		ProductName:  "Acme Logo",
		SKUSuffix:    suffix,
		MainColor:    "Black",
		Tags:         []string{"acme", "logo"},
		Descriptions: descriptions,
		Collection:   "Brands",
	}
}

// seedDesign writes a complete design folder: metadata, artwork and the
// given number of numbered mockups.
func seedDesign(t *testing.T, m *memStore, root, folder string, meta models.DesignMetadata, images int, art []byte) {
	t.Helper()
	data, err := json.Marshal(meta)
	require.NoError(t, err)
	base := path.Join(root, folder)
	m.put(path.Join(base, "meta.json"), data)
	if art != nil {
		m.put(path.Join(base, path.Base(folder)+".png"), art)
	}
	for i := 1; i <= images; i++ {
		m.put(path.Join(base, fmt.Sprintf("%d.png", i)), []byte("png"))
	}
}
