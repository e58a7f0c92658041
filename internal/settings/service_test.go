package settings

import (
	"context"
	"errors"
	"testing"

	"github.com/gothyxan/storefront/internal/domain"
	"github.com/gothyxan/storefront/internal/platform/kvstore"
)

func newTestService(t *testing.T, store kvstore.Store) *Service {
	t.Helper()
	if store == nil {
		store = kvstore.NewMemoryStore()
	}
	svc, err := NewService(ServiceDeps{Store: store})
	if err != nil {
		t.Fatalf("NewService returned error: %v", err)
	}
	return svc
}

func TestLoadReturnsDefaultsWhenUnset(t *testing.T) {
	svc := newTestService(t, nil)

	got := svc.Load(context.Background())
	if got.StoreName != "GOTHYXAN STORE" || got.Currency != "EUR" {
		t.Fatalf("expected defaults, got %+v", got)
	}
}

func TestSaveRoundTripsAndFillsGaps(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()
	svc := newTestService(t, store)

	saved, err := svc.Save(ctx, domain.Settings{
		StoreName:     "Night Market",
		StorePhone:    "+354 555 0100",
		AdminPassword: "hunter2",
	})
	if err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if saved.StoreEmail != "contact@gothyxan.store" || saved.Currency != "EUR" {
		t.Fatalf("expected gaps filled with defaults, got %+v", saved)
	}

	got := svc.Load(ctx)
	if got.StoreName != "Night Market" || got.StorePhone != "+354 555 0100" || got.AdminPassword != "hunter2" {
		t.Fatalf("unexpected reload: %+v", got)
	}
}

func TestSaveRejectsBlankStoreName(t *testing.T) {
	svc := newTestService(t, nil)

	_, err := svc.Save(context.Background(), domain.Settings{StoreName: "   "})
	if !errors.Is(err, ErrSettingsInvalidInput) {
		t.Fatalf("expected ErrSettingsInvalidInput, got %v", err)
	}
}
