package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds every tunable of the service. It is built once by Load and
// passed to components at construction time.
type Config struct {
	Port        string
	Environment string
	LogLevel    string
	BaseURL     string // used by the review PDF renderer to reach this server
	Database    DatabaseConfig
	Shopify     ShopifyConfig
	Upload      UploadConfig
	CSV         CSVConfig
	Drive       DriveConfig
	Tracker     TrackerConfig
	Catalog     CatalogConfig
}

type DatabaseConfig struct {
	URL      string
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DSN returns DATABASE_URL when set, otherwise a key/value connection string.
// Empty when no database is configured.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	if d.Host == "" || d.User == "" || d.DBName == "" {
		return ""
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

// StoreProfile is one Shopify store credential.
type StoreProfile struct {
	Label       string
	ShopDomain  string
	AccessToken string
}

type ShopifyConfig struct {
	APIVersion string
	Profiles   []StoreProfile
}

// Profile returns the store profile with the given label. An empty label
// selects the first configured profile.
func (s ShopifyConfig) Profile(label string) (StoreProfile, error) {
	if len(s.Profiles) == 0 {
		return StoreProfile{}, fmt.Errorf("no Shopify store profiles configured: set SHOPIFY_STORE_URL_* and SHOPIFY_API_PASSWORD_*")
	}
	if label == "" {
		return s.Profiles[0], nil
	}
	for _, p := range s.Profiles {
		if strings.EqualFold(p.Label, label) {
			return p, nil
		}
	}
	return StoreProfile{}, fmt.Errorf("unknown Shopify store profile %q", label)
}

// UploadConfig carries the upload orchestrator and HTTP layer tunables.
type UploadConfig struct {
	Timeout             time.Duration
	MaxRetries          int
	BackoffBase         float64
	InlineImages        bool
	CreateCooldown      time.Duration
	ImageUploadSleep    time.Duration
	AttachmentFallback  bool
	AfterEachDelay      time.Duration
	TitleStripAfterPipe bool
	MetaDescMax         int
	RatePerSecond       float64
	RateBurst           int
}

type CSVConfig struct {
	MaxMB   float64
	MaxRows int
}

// MaxBytes converts the MB ceiling into bytes.
func (c CSVConfig) MaxBytes() int64 {
	return int64(c.MaxMB * 1024 * 1024)
}

type DriveConfig struct {
	CredentialsPath string
	CredentialsJSON string
	RootFolderID    string
	ImagesFolder    string // FOLDER_PATH, used by manual builds
	DesignsRoot     string // FOLDER_PATH_DESIGN
	FinishedDir     string
	CompletedRoot   string
	ImageSlots      int
	Workers         int
	LinkAttempts    int
	LinkRetryDelay  time.Duration
}

type TrackerConfig struct {
	Backend       string // sheets | postgres | none
	SpreadsheetID string
	SheetName     string
	Lister        string
}

type CatalogConfig struct {
	TablesPath         string
	Vendor             string
	Published          bool
	InventoryPolicy    string
	FulfillmentService string
	RequiresShipping   bool
	Taxable            bool
	InventoryTracker   string
	CustomLabel0       string
}

// Load reads configuration from the environment and an optional .env file.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("env")
	v.SetConfigName(".env")
	v.AddConfigPath(".")
	v.AddConfigPath("..")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	port := strings.TrimPrefix(getEnvOrViper(v, "PORT", "8080"), ":")

	cfg := &Config{
		Port:        port,
		Environment: getEnvOrViper(v, "ENV", "development"),
		LogLevel:    getEnvOrViper(v, "LOG_LEVEL", "info"),
		BaseURL:     strings.TrimSuffix(getEnvOrViper(v, "BASE_URL", "http://localhost:"+port), "/"),
		Database: DatabaseConfig{
			URL:      strings.TrimSpace(getEnvOrViper(v, "DATABASE_URL", "")),
			Host:     getEnvOrViper(v, "DB_HOST", ""),
			Port:     getEnvOrViper(v, "DB_PORT", "5432"),
			User:     getEnvOrViper(v, "DB_USER", ""),
			Password: getEnvOrViper(v, "DB_PASSWORD", ""),
			DBName:   getEnvOrViper(v, "DB_NAME", ""),
			SSLMode:  getEnvOrViper(v, "DB_SSLMODE", "disable"),
		},
		Shopify: ShopifyConfig{
			APIVersion: getEnvOrViper(v, "SHOPIFY_API_VERSION", "2024-10"),
			Profiles:   loadProfiles(v),
		},
		Upload: UploadConfig{
			Timeout:             getSeconds(v, "SHOPIFY_HTTP_TIMEOUT", 120),
			MaxRetries:          getInt(v, "SHOPIFY_MAX_RETRIES", 5),
			BackoffBase:         getFloat(v, "SHOPIFY_RETRY_BACKOFF_BASE", 1.8),
			InlineImages:        getBool(v, "SHOPIFY_INLINE_IMAGES", false),
			CreateCooldown:      getSeconds(v, "SHOPIFY_PRODUCT_CREATE_COOLDOWN", 1.0),
			ImageUploadSleep:    getSeconds(v, "SHOPIFY_IMAGE_UPLOAD_SLEEP", 0),
			AttachmentFallback:  getBool(v, "SHOPIFY_IMAGE_ATTACHMENT_FALLBACK", true),
			AfterEachDelay:      getSeconds(v, "SHOPIFY_AFTER_EACH_DELAY", 0),
			TitleStripAfterPipe: getBool(v, "SHOPIFY_TITLE_STRIP_AFTER_PIPE", true),
			MetaDescMax:         getInt(v, "SHOPIFY_META_DESC_MAX", 300),
			RatePerSecond:       getFloat(v, "SHOPIFY_RATE_PER_SECOND", 2),
			RateBurst:           getInt(v, "SHOPIFY_RATE_BURST", 40),
		},
		CSV: CSVConfig{
			MaxMB:   getFloat(v, "SHOPIFY_PRODUCT_CSV_MAX_MB", 14.5),
			MaxRows: getInt(v, "SHOPIFY_PRODUCT_CSV_MAX_ROWS", 0),
		},
		Drive: DriveConfig{
			CredentialsPath: getEnvOrViper(v, "GOOGLE_APPLICATION_CREDENTIALS", ""),
			CredentialsJSON: getEnvOrViper(v, "GOOGLE_APPLICATION_CREDENTIALS_JSON", ""),
			RootFolderID:    getEnvOrViper(v, "DRIVE_ROOT_FOLDER_ID", "root"),
			ImagesFolder:    strings.Trim(getEnvOrViper(v, "FOLDER_PATH", ""), "/ "),
			DesignsRoot:     strings.Trim(getEnvOrViper(v, "FOLDER_PATH_DESIGN", "designs"), "/ "),
			FinishedDir:     getEnvOrViper(v, "FINISHED_DIR_NAME", "finished"),
			CompletedRoot:   strings.Trim(getEnvOrViper(v, "COMPLETED_ROOT", "Completed"), "/ "),
			ImageSlots:      getInt(v, "IMAGE_SLOTS", 80),
			Workers:         getInt(v, "IMAGE_LINK_WORKERS", 15),
			LinkAttempts:    getInt(v, "IMAGE_LINK_ATTEMPTS", 3),
			LinkRetryDelay:  getSeconds(v, "IMAGE_LINK_RETRY_DELAY", 0.1),
		},
		Tracker: TrackerConfig{
			Backend:       strings.ToLower(getEnvOrViper(v, "SKU_TRACKER_BACKEND", "none")),
			SpreadsheetID: getEnvOrViper(v, "SKU_TRACKER_SPREADSHEET_ID", ""),
			SheetName:     getEnvOrViper(v, "SKU_TRACKER_SHEET", "SKU Tracker"),
			Lister:        getEnvOrViper(v, "SKU_TRACKER_LISTER", "Batch"),
		},
		Catalog: CatalogConfig{
			TablesPath:         getEnvOrViper(v, "CATALOG_TABLES_PATH", ""),
			Vendor:             getEnvOrViper(v, "SHOPIFY_VENDOR", "Spoofy"),
			Published:          getBool(v, "SHOPIFY_PUBLISHED", true),
			InventoryPolicy:    getEnvOrViper(v, "SHOPIFY_INVENTORY_POLICY", "deny"),
			FulfillmentService: getEnvOrViper(v, "SHOPIFY_FULFILLMENT_SERVICE", "manual"),
			RequiresShipping:   getBool(v, "SHOPIFY_REQUIRES_SHIPPING", true),
			Taxable:            getBool(v, "SHOPIFY_TAXABLE", true),
			InventoryTracker:   getEnvOrViper(v, "SHOPIFY_INVENTORY_TRACKER", "shopify"),
			CustomLabel0:       getEnvOrViper(v, "GOOGLE_CUSTOM_LABEL_0", "Sal"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Upload.MaxRetries < 1 {
		return fmt.Errorf("SHOPIFY_MAX_RETRIES must be at least 1")
	}
	if c.Upload.BackoffBase < 1 {
		return fmt.Errorf("SHOPIFY_RETRY_BACKOFF_BASE must be >= 1")
	}
	if c.Drive.ImageSlots < 1 || c.Drive.Workers < 1 || c.Drive.LinkAttempts < 1 {
		return fmt.Errorf("IMAGE_SLOTS, IMAGE_LINK_WORKERS and IMAGE_LINK_ATTEMPTS must be positive")
	}
	switch c.Tracker.Backend {
	case "none", "postgres":
	case "sheets":
		if c.Tracker.SpreadsheetID == "" {
			return fmt.Errorf("SKU_TRACKER_SPREADSHEET_ID is required for the sheets tracker")
		}
	default:
		return fmt.Errorf("unknown SKU_TRACKER_BACKEND %q", c.Tracker.Backend)
	}
	return nil
}

// loadProfiles mirrors the store picker: test and prod pairs first, then the
// legacy single-store variables when neither pair is complete.
func loadProfiles(v *viper.Viper) []StoreProfile {
	var profiles []StoreProfile
	add := func(label, urlKey, tokenKey string) {
		domain := normalizeDomain(getEnvOrViper(v, urlKey, ""))
		token := strings.TrimSpace(getEnvOrViper(v, tokenKey, ""))
		if domain != "" && token != "" {
			profiles = append(profiles, StoreProfile{Label: label, ShopDomain: domain, AccessToken: token})
		}
	}
	add("test", "SHOPIFY_STORE_URL_TEST", "SHOPIFY_API_PASSWORD_TEST")
	add("prod", "SHOPIFY_STORE_URL_PROD", "SHOPIFY_API_PASSWORD_PROD")

	if len(profiles) == 0 {
		domain := normalizeDomain(getEnvOrViper(v, "SHOPIFY_STORE_URL", ""))
		token := strings.TrimSpace(getEnvOrViper(v, "SHOPIFY_API_PASSWORD", ""))
		if token == "" {
			token = strings.TrimSpace(getEnvOrViper(v, "SHOPIFY_ADMIN_API_ACCESS_TOKEN", ""))
		}
		if domain != "" && token != "" {
			profiles = append(profiles, StoreProfile{Label: "default", ShopDomain: domain, AccessToken: token})
		}
	}
	return profiles
}

// normalizeDomain strips scheme and trailing slashes from a shop domain.
func normalizeDomain(domain string) string {
	domain = strings.TrimSpace(domain)
	domain = strings.TrimPrefix(domain, "https://")
	domain = strings.TrimPrefix(domain, "http://")
	return strings.TrimSuffix(domain, "/")
}

func getEnvOrViper(v *viper.Viper, key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return defaultValue
}

func getInt(v *viper.Viper, key string, defaultValue int) int {
	n, err := strconv.Atoi(strings.TrimSpace(getEnvOrViper(v, key, "")))
	if err != nil {
		return defaultValue
	}
	return n
}

func getFloat(v *viper.Viper, key string, defaultValue float64) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(getEnvOrViper(v, key, "")), 64)
	if err != nil {
		return defaultValue
	}
	return f
}

func getBool(v *viper.Viper, key string, defaultValue bool) bool {
	raw := strings.ToLower(strings.TrimSpace(getEnvOrViper(v, key, "")))
	switch raw {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return defaultValue
}

// getSeconds reads a value expressed in (fractional) seconds.
func getSeconds(v *viper.Viper, key string, defaultSeconds float64) time.Duration {
	return time.Duration(getFloat(v, key, defaultSeconds) * float64(time.Second))
}
