package settings

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/gothyxan/storefront/internal/domain"
	"github.com/gothyxan/storefront/internal/platform/kvstore"
)

const settingsKey = "settings"

var errSettingsStoreRequired = errors.New("settings service: store is required")

// ErrSettingsInvalidInput indicates a save payload missing required fields.
var ErrSettingsInvalidInput = errors.New("settings service: invalid input")

// Defaults applied to any field the stored document leaves empty.
var defaults = domain.Settings{
	StoreName:  "GOTHYXAN STORE",
	StoreEmail: "contact@gothyxan.store",
	Currency:   "EUR",
}

// ServiceDeps bundles constructor inputs for the settings service.
type ServiceDeps struct {
	Store  kvstore.Store
	Logger func(context.Context, string, map[string]any)
}

// Service persists the store-wide settings document under a fixed key and
// fills defaults on load, so readers always see a complete record.
type Service struct {
	store  kvstore.Store
	logger func(context.Context, string, map[string]any)

	mu sync.Mutex
}

// NewService constructs the settings service.
func NewService(deps ServiceDeps) (*Service, error) {
	if deps.Store == nil {
		return nil, errSettingsStoreRequired
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &Service{store: deps.Store, logger: logger}, nil
}

// Load returns the stored settings with defaults applied. A missing or
// unreadable document yields the defaults.
func (s *Service) Load(ctx context.Context) domain.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stored domain.Settings
	if err := kvstore.GetJSON(ctx, s.store, settingsKey, &stored); err != nil {
		if !errors.Is(err, kvstore.ErrKeyNotFound) {
			s.logger(ctx, "settings.load_failed", map[string]any{"error": err.Error()})
		}
		return defaults
	}
	return applyDefaults(stored)
}

// Save overwrites the settings document.
func (s *Service) Save(ctx context.Context, settings domain.Settings) (domain.Settings, error) {
	if strings.TrimSpace(settings.StoreName) == "" {
		return domain.Settings{}, ErrSettingsInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	settings = applyDefaults(settings)
	if err := kvstore.SetJSON(ctx, s.store, settingsKey, settings); err != nil {
		s.logger(ctx, "settings.persist_failed", map[string]any{"error": err.Error()})
		return domain.Settings{}, err
	}
	return settings, nil
}

func applyDefaults(settings domain.Settings) domain.Settings {
	if strings.TrimSpace(settings.StoreName) == "" {
		settings.StoreName = defaults.StoreName
	}
	if strings.TrimSpace(settings.StoreEmail) == "" {
		settings.StoreEmail = defaults.StoreEmail
	}
	if strings.TrimSpace(settings.Currency) == "" {
		settings.Currency = defaults.Currency
	}
	return settings
}
