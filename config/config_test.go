package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "http://localhost:8080", cfg.BaseURL)
	assert.Equal(t, "2024-10", cfg.Shopify.APIVersion)
	assert.Equal(t, 120*time.Second, cfg.Upload.Timeout)
	assert.Equal(t, 5, cfg.Upload.MaxRetries)
	assert.InDelta(t, 1.8, cfg.Upload.BackoffBase, 1e-9)
	assert.False(t, cfg.Upload.InlineImages)
	assert.Equal(t, time.Second, cfg.Upload.CreateCooldown)
	assert.True(t, cfg.Upload.AttachmentFallback)
	assert.True(t, cfg.Upload.TitleStripAfterPipe)
	assert.Equal(t, 300, cfg.Upload.MetaDescMax)
	assert.InDelta(t, 14.5, cfg.CSV.MaxMB, 1e-9)
	assert.Equal(t, 0, cfg.CSV.MaxRows)
	assert.Equal(t, 80, cfg.Drive.ImageSlots)
	assert.Equal(t, 15, cfg.Drive.Workers)
	assert.Equal(t, 100*time.Millisecond, cfg.Drive.LinkRetryDelay)
	assert.Equal(t, "none", cfg.Tracker.Backend)
	assert.Equal(t, "Sal", cfg.Catalog.CustomLabel0)
	assert.Empty(t, cfg.Shopify.Profiles)
	assert.Empty(t, cfg.Database.DSN())
}

func TestLoad_Overrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SHOPIFY_MAX_RETRIES", "7")
	t.Setenv("SHOPIFY_PRODUCT_CREATE_COOLDOWN", "2.5")
	t.Setenv("SHOPIFY_INLINE_IMAGES", "true")
	t.Setenv("SHOPIFY_PRODUCT_CSV_MAX_ROWS", "500")
	t.Setenv("PORT", ":9000")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, 7, cfg.Upload.MaxRetries)
	assert.Equal(t, 2500*time.Millisecond, cfg.Upload.CreateCooldown)
	assert.True(t, cfg.Upload.InlineImages)
	assert.Equal(t, 500, cfg.CSV.MaxRows)
}

func TestLoad_StoreProfiles(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SHOPIFY_STORE_URL_TEST", "https://test-shop.myshopify.com/")
	t.Setenv("SHOPIFY_API_PASSWORD_TEST", "tok-test")
	t.Setenv("SHOPIFY_STORE_URL_PROD", "prod-shop.myshopify.com")
	t.Setenv("SHOPIFY_API_PASSWORD_PROD", "tok-prod")
	t.Setenv("SHOPIFY_STORE_URL", "legacy.myshopify.com")
	t.Setenv("SHOPIFY_API_PASSWORD", "tok-legacy")

	cfg, err := Load()
	require.NoError(t, err)
	require.Len(t, cfg.Shopify.Profiles, 2)

	p, err := cfg.Shopify.Profile("")
	require.NoError(t, err)
	assert.Equal(t, "test-shop.myshopify.com", p.ShopDomain)

	p, err = cfg.Shopify.Profile("PROD")
	require.NoError(t, err)
	assert.Equal(t, "tok-prod", p.AccessToken)

	_, err = cfg.Shopify.Profile("staging")
	assert.Error(t, err)
}

func TestLoad_LegacyProfile(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SHOPIFY_STORE_URL", "legacy.myshopify.com")
	t.Setenv("SHOPIFY_ADMIN_API_ACCESS_TOKEN", "tok-admin")

	cfg, err := Load()
	require.NoError(t, err)
	require.Len(t, cfg.Shopify.Profiles, 1)
	assert.Equal(t, "default", cfg.Shopify.Profiles[0].Label)
	assert.Equal(t, "tok-admin", cfg.Shopify.Profiles[0].AccessToken)
}

func TestLoad_InvalidTracker(t *testing.T) {
	t.Chdir(t.TempDir())

	t.Setenv("SKU_TRACKER_BACKEND", "sheets")
	_, err := Load()
	assert.Error(t, err, "sheets backend needs a spreadsheet id")

	t.Setenv("SKU_TRACKER_BACKEND", "redis")
	_, err = Load()
	assert.Error(t, err)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", DBName: "skus", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=skus sslmode=disable", d.DSN())

	d.URL = "postgres://u:p@db/skus"
	assert.Equal(t, "postgres://u:p@db/skus", d.DSN())
}
