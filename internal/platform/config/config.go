package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultEnvFile        = ".env"
	defaultPort           = "8080"
	defaultReadTimeout    = 15 * time.Second
	defaultWriteTimeout   = 30 * time.Second
	defaultIdleTimeout    = 120 * time.Second
	defaultFetchTimeout   = 10 * time.Second
	defaultCommitTimeout  = 15 * time.Second
	defaultRefetchDelay   = 5 * time.Second
	defaultRemoteBaseURL  = "https://api.github.com"
	defaultProductsPath   = "src/data/products.json"
	defaultCategoriesPath = "src/data/categories.json"
	defaultLocalesDir     = "locales"
	defaultDefaultLocale  = "en"
	defaultTokenTTL       = 12 * time.Hour
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server  ServerConfig
	Catalog CatalogConfig
	Remote  RemoteConfig
	Geo     GeoConfig
	Storage StorageConfig
	Admin   AdminConfig
	I18n    I18nConfig
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// CatalogConfig points at the static JSON documents the storefront reads.
type CatalogConfig struct {
	ProductsURL   string
	CategoriesURL string
	FetchTimeout  time.Duration
}

// RemoteConfig describes the hosting-platform repository that receives
// catalog commits.
type RemoteConfig struct {
	BaseURL        string
	Owner          string
	Repo           string
	Branch         string
	Token          string
	ProductsPath   string
	CategoriesPath string
	CommitTimeout  time.Duration
	RefetchDelay   time.Duration
}

// GeoConfig configures the external geolocation lookup.
type GeoConfig struct {
	Endpoint string
	APIKey   string
	Timeout  time.Duration
}

// StorageConfig selects the local key-value backend. An empty DataDir keeps
// everything in memory.
type StorageConfig struct {
	DataDir string
}

// AdminConfig groups admin-console session settings.
type AdminConfig struct {
	SessionSecret string
	TokenTTL      time.Duration
}

// I18nConfig locates the translation tables.
type I18nConfig struct {
	LocalesDir    string
	DefaultLocale string
}

// ValidationError is returned when required configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Option customises the Load behaviour.
type Option func(*loadOptions)

type loadOptions struct {
	envFile string
	lookup  func(string) (string, bool)
}

// WithEnvFile overrides the .env file consulted before the process environment.
func WithEnvFile(path string) Option {
	return func(o *loadOptions) { o.envFile = path }
}

// WithLookup replaces the environment lookup, mainly for tests.
func WithLookup(lookup func(string) (string, bool)) Option {
	return func(o *loadOptions) { o.lookup = lookup }
}

// Load assembles the configuration from the environment, falling back to the
// .env file when present. Validation failures list every offending field.
func Load(opts ...Option) (Config, error) {
	options := loadOptions{envFile: defaultEnvFile, lookup: os.LookupEnv}
	for _, opt := range opts {
		opt(&options)
	}

	if options.envFile != "" {
		// Missing .env files are fine; the environment wins on conflicts.
		_ = godotenv.Load(options.envFile)
	}

	get := func(key string) string {
		if value, ok := options.lookup(key); ok {
			return strings.TrimSpace(value)
		}
		return ""
	}

	cfg := Config{
		Server: ServerConfig{
			Port:         valueOr(get("STORE_PORT"), defaultPort),
			ReadTimeout:  durationOr(get("STORE_READ_TIMEOUT"), defaultReadTimeout),
			WriteTimeout: durationOr(get("STORE_WRITE_TIMEOUT"), defaultWriteTimeout),
			IdleTimeout:  durationOr(get("STORE_IDLE_TIMEOUT"), defaultIdleTimeout),
		},
		Catalog: CatalogConfig{
			ProductsURL:   get("STORE_PRODUCTS_URL"),
			CategoriesURL: get("STORE_CATEGORIES_URL"),
			FetchTimeout:  durationOr(get("STORE_FETCH_TIMEOUT"), defaultFetchTimeout),
		},
		Remote: RemoteConfig{
			BaseURL:        valueOr(get("STORE_REMOTE_BASE_URL"), defaultRemoteBaseURL),
			Owner:          get("STORE_REMOTE_OWNER"),
			Repo:           get("STORE_REMOTE_REPO"),
			Branch:         get("STORE_REMOTE_BRANCH"),
			Token:          get("STORE_REMOTE_TOKEN"),
			ProductsPath:   valueOr(get("STORE_REMOTE_PRODUCTS_PATH"), defaultProductsPath),
			CategoriesPath: valueOr(get("STORE_REMOTE_CATEGORIES_PATH"), defaultCategoriesPath),
			CommitTimeout:  durationOr(get("STORE_REMOTE_COMMIT_TIMEOUT"), defaultCommitTimeout),
			RefetchDelay:   durationOr(get("STORE_REMOTE_REFETCH_DELAY"), defaultRefetchDelay),
		},
		Geo: GeoConfig{
			Endpoint: get("STORE_GEO_ENDPOINT"),
			APIKey:   get("STORE_GEO_API_KEY"),
			Timeout:  durationOr(get("STORE_GEO_TIMEOUT"), defaultFetchTimeout),
		},
		Storage: StorageConfig{
			DataDir: get("STORE_DATA_DIR"),
		},
		Admin: AdminConfig{
			SessionSecret: get("STORE_ADMIN_SESSION_SECRET"),
			TokenTTL:      durationOr(get("STORE_ADMIN_TOKEN_TTL"), defaultTokenTTL),
		},
		I18n: I18nConfig{
			LocalesDir:    valueOr(get("STORE_LOCALES_DIR"), defaultLocalesDir),
			DefaultLocale: valueOr(get("STORE_DEFAULT_LOCALE"), defaultDefaultLocale),
		},
	}

	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validate(cfg Config) error {
	var missing []string
	if cfg.Catalog.ProductsURL == "" {
		missing = append(missing, "Catalog.ProductsURL")
	}
	if cfg.Catalog.CategoriesURL == "" {
		missing = append(missing, "Catalog.CategoriesURL")
	}
	if cfg.Admin.SessionSecret == "" {
		missing = append(missing, "Admin.SessionSecret")
	}
	if cfg.Server.ReadTimeout <= 0 {
		missing = append(missing, "Server.ReadTimeout")
	}
	if cfg.Server.WriteTimeout <= 0 {
		missing = append(missing, "Server.WriteTimeout")
	}
	if len(missing) > 0 {
		return &ValidationError{fields: missing}
	}
	return nil
}

func valueOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func durationOr(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}
