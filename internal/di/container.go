package di

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/gothyxan/storefront/internal/admin"
	"github.com/gothyxan/storefront/internal/auth"
	"github.com/gothyxan/storefront/internal/cart"
	"github.com/gothyxan/storefront/internal/catalog"
	"github.com/gothyxan/storefront/internal/content"
	"github.com/gothyxan/storefront/internal/geo"
	"github.com/gothyxan/storefront/internal/i18n"
	"github.com/gothyxan/storefront/internal/platform/config"
	"github.com/gothyxan/storefront/internal/platform/kvstore"
	"github.com/gothyxan/storefront/internal/platform/observability"
	"github.com/gothyxan/storefront/internal/remote"
	"github.com/gothyxan/storefront/internal/settings"
	"github.com/gothyxan/storefront/internal/visitors"
)

// Components bundles the constructed services that handlers rely upon.
type Components struct {
	Store      kvstore.Store
	Catalog    *catalog.Service
	Cart       *cart.Engine
	Session    *admin.Session
	Tracker    *visitors.Tracker
	Settings   *settings.Service
	Auth       *auth.Service
	Translator *i18n.Translator
	Renderer   *content.Renderer
}

// Container wires configuration and components for runtime use.
type Container struct {
	Config     config.Config
	Components Components
}

// errRemoteNotConfigured makes every persist attempt fall back to the manual
// copy flow when no remote credentials are set.
var errRemoteNotConfigured = errors.New("remote persistence is not configured")

type disabledPublisher struct{}

func (disabledPublisher) Publish(context.Context, admin.PersistCommand) error {
	return errRemoteNotConfigured
}

// NewContainer constructs the runtime dependencies from configuration.
func NewContainer(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Container, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	eventLog := observability.EventLogger(logger)

	store, err := buildStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("build store: %w", err)
	}

	catalogSvc, err := catalog.NewService(catalog.ServiceDeps{
		ProductsURL:   cfg.Catalog.ProductsURL,
		CategoriesURL: cfg.Catalog.CategoriesURL,
		FetchTimeout:  cfg.Catalog.FetchTimeout,
		Logger:        eventLog,
	})
	if err != nil {
		return nil, fmt.Errorf("build catalog service: %w", err)
	}

	settingsSvc, err := settings.NewService(settings.ServiceDeps{
		Store:  store,
		Logger: eventLog,
	})
	if err != nil {
		return nil, fmt.Errorf("build settings service: %w", err)
	}

	authSvc, err := auth.NewService(auth.ServiceDeps{
		Secret:   cfg.Admin.SessionSecret,
		TokenTTL: cfg.Admin.TokenTTL,
		Password: func(ctx context.Context) string {
			return settingsSvc.Load(ctx).AdminPassword
		},
		Clock: time.Now,
	})
	if err != nil {
		return nil, fmt.Errorf("build auth service: %w", err)
	}

	translator, err := i18n.NewTranslator(i18n.TranslatorDeps{
		LocalesDir:    cfg.I18n.LocalesDir,
		DefaultLocale: cfg.I18n.DefaultLocale,
	})
	if err != nil {
		return nil, fmt.Errorf("build translator: %w", err)
	}

	cartEngine, err := cart.NewEngine(ctx, cart.EngineDeps{
		Store:    store,
		Products: catalogSvc,
		Logger:   eventLog,
		Notifier: func(ctx context.Context, message string) {
			eventLog(ctx, "cart.notification", map[string]any{"message": message})
		},
	})
	if err != nil {
		return nil, fmt.Errorf("build cart engine: %w", err)
	}

	publisher, err := buildPublisher(cfg, eventLog)
	if err != nil {
		return nil, fmt.Errorf("build publisher: %w", err)
	}

	session, err := admin.NewSession(ctx, admin.SessionDeps{
		Publisher:      publisher,
		Catalog:        catalogSvc,
		ProductsPath:   cfg.Remote.ProductsPath,
		CategoriesPath: cfg.Remote.CategoriesPath,
		RefetchDelay:   cfg.Remote.RefetchDelay,
		Clock:          time.Now,
		Logger:         eventLog,
	})
	if err != nil {
		return nil, fmt.Errorf("build edit session: %w", err)
	}

	tracker, err := visitors.NewTracker(visitors.TrackerDeps{
		Store:  store,
		Geo:    buildGeo(cfg),
		Clock:  time.Now,
		Logger: eventLog,
	})
	if err != nil {
		return nil, fmt.Errorf("build visitor tracker: %w", err)
	}

	return &Container{
		Config: cfg,
		Components: Components{
			Store:      store,
			Catalog:    catalogSvc,
			Cart:       cartEngine,
			Session:    session,
			Tracker:    tracker,
			Settings:   settingsSvc,
			Auth:       authSvc,
			Translator: translator,
			Renderer:   content.NewRenderer(),
		},
	}, nil
}

func buildStore(cfg config.Config) (kvstore.Store, error) {
	if cfg.Storage.DataDir == "" {
		return kvstore.NewMemoryStore(), nil
	}
	return kvstore.NewFileStore(cfg.Storage.DataDir)
}

func buildPublisher(cfg config.Config, eventLog func(context.Context, string, map[string]any)) (admin.Publisher, error) {
	if cfg.Remote.Token == "" || cfg.Remote.Owner == "" || cfg.Remote.Repo == "" {
		return disabledPublisher{}, nil
	}
	return remote.NewPublisher(remote.PublisherDeps{
		BaseURL: cfg.Remote.BaseURL,
		Owner:   cfg.Remote.Owner,
		Repo:    cfg.Remote.Repo,
		Branch:  cfg.Remote.Branch,
		Token:   cfg.Remote.Token,
		Timeout: cfg.Remote.CommitTimeout,
		Logger:  eventLog,
	})
}

// buildGeo returns nil when no endpoint is configured; the tracker then
// records visits without location data.
func buildGeo(cfg config.Config) visitors.GeoLookup {
	if cfg.Geo.Endpoint == "" {
		return nil
	}
	client, err := geo.NewClient(geo.ClientDeps{
		Endpoint: cfg.Geo.Endpoint,
		APIKey:   cfg.Geo.APIKey,
		Timeout:  cfg.Geo.Timeout,
	})
	if err != nil {
		return nil
	}
	return client
}
