package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/gothyxan/storefront/internal/domain"
	"github.com/gothyxan/storefront/internal/visitors"
)

type catalogStoreStub struct {
	catalog domain.Catalog
	loads   int
}

func (c *catalogStoreStub) Load(context.Context) domain.Catalog {
	c.loads++
	return c.catalog
}

func (c *catalogStoreStub) FindProduct(id int) (domain.Product, bool) {
	for _, p := range c.catalog.Products {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Product{}, false
}

type rendererStub struct{}

func (rendererStub) Render(description string) string {
	return "<p>" + description + "</p>"
}

type translatorStub struct{}

func (translatorStub) Resolve(string) string { return "en" }
func (translatorStub) Strings(string) map[string]string {
	return map[string]string{"nav.shop": "Shop"}
}
func (translatorStub) Locales() []string { return []string{"en"} }

type trackerStub struct {
	views []visitors.PageView
}

func (t *trackerStub) Track(_ context.Context, view visitors.PageView) domain.Visit {
	t.views = append(t.views, view)
	return domain.Visit{ID: "v1", Page: view.Page}
}

type settingsReaderStub struct{}

func (settingsReaderStub) Load(context.Context) domain.Settings {
	return domain.Settings{StoreName: "Night Market", StoreEmail: "hi@example.com", Currency: "EUR", AdminPassword: "secret"}
}

func newPublicRouter(catalog *catalogStoreStub, tracker *trackerStub) chi.Router {
	r := chi.NewRouter()
	NewPublicHandlers(catalog, rendererStub{}, translatorStub{}, tracker, settingsReaderStub{}).Routes(r)
	return r
}

func TestGetCatalogAlwaysReturnsArrays(t *testing.T) {
	catalog := &catalogStoreStub{}
	router := newPublicRouter(catalog, &trackerStub{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/catalog", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"products":[]`) || !strings.Contains(body, `"categories":[]`) {
		t.Fatalf("empty catalog must serialise as arrays: %s", body)
	}
	if catalog.loads != 1 {
		t.Fatalf("expected one load, got %d", catalog.loads)
	}
}

func TestGetProductRendersDescription(t *testing.T) {
	catalog := &catalogStoreStub{catalog: domain.Catalog{Products: []domain.Product{
		{ID: 3, Name: "Hoodie", Price: 80, Description: "Cozy"},
	}}}
	router := newPublicRouter(catalog, &trackerStub{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products/3", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decoding payload: %v", err)
	}
	if payload["descriptionHtml"] != "<p>Cozy</p>" {
		t.Fatalf("unexpected rendered description: %v", payload["descriptionHtml"])
	}
}

func TestGetProductUnknownIDReturns404(t *testing.T) {
	router := newPublicRouter(&catalogStoreStub{}, &trackerStub{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products/42", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unexpected status %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products/abc", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("non-integer id must 400, got %d", rec.Code)
	}
}

func TestPostVisitTracksUserAgent(t *testing.T) {
	tracker := &trackerStub{}
	router := newPublicRouter(&catalogStoreStub{}, tracker)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/visits", strings.NewReader(`{"page":"/products","referrer":"https://example.com"}`))
	req.Header.Set("User-Agent", "test-agent")
	req.RemoteAddr = "203.0.113.9:61004"
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if len(tracker.views) != 1 {
		t.Fatalf("expected one tracked view, got %d", len(tracker.views))
	}
	view := tracker.views[0]
	if view.Page != "/products" || view.UserAgent != "test-agent" || view.Referrer != "https://example.com" {
		t.Fatalf("unexpected view: %+v", view)
	}
	if view.IP != "203.0.113.9" {
		t.Fatalf("visitor address not threaded, got %q", view.IP)
	}
}

func TestPostVisitRecordsDistinctClientAddresses(t *testing.T) {
	tracker := &trackerStub{}
	router := newPublicRouter(&catalogStoreStub{}, tracker)

	for _, addr := range []string{"203.0.113.9:61004", "198.51.100.7:52110"} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/visits", strings.NewReader(`{"page":"/"}`))
		req.RemoteAddr = addr
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusAccepted {
			t.Fatalf("unexpected status %d", rec.Code)
		}
	}

	if len(tracker.views) != 2 {
		t.Fatalf("expected two tracked views, got %d", len(tracker.views))
	}
	if tracker.views[0].IP == tracker.views[1].IP {
		t.Fatalf("distinct clients recorded the same address %q", tracker.views[0].IP)
	}
	if tracker.views[0].IP != "203.0.113.9" || tracker.views[1].IP != "198.51.100.7" {
		t.Fatalf("unexpected addresses: %q, %q", tracker.views[0].IP, tracker.views[1].IP)
	}
}

func TestGetSettingsHidesSecrets(t *testing.T) {
	router := newPublicRouter(&catalogStoreStub{}, &trackerStub{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/settings", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	body := rec.Body.String()
	if strings.Contains(body, "secret") || strings.Contains(body, "adminPassword") {
		t.Fatalf("public settings must not leak the admin password: %s", body)
	}
	if !strings.Contains(body, "Night Market") {
		t.Fatalf("expected store name in payload: %s", body)
	}
}

func TestGetStringsResolvesLocale(t *testing.T) {
	router := newPublicRouter(&catalogStoreStub{}, &trackerStub{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/strings", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	var payload struct {
		Locale  string            `json:"locale"`
		Strings map[string]string `json:"strings"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decoding payload: %v", err)
	}
	if payload.Locale != "en" || payload.Strings["nav.shop"] != "Shop" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}
