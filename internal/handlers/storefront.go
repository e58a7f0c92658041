package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/gothyxan/storefront/internal/domain"
	"github.com/gothyxan/storefront/internal/platform/httpx"
	"github.com/gothyxan/storefront/internal/visitors"
)

// CatalogStore serves the storefront catalog reads.
type CatalogStore interface {
	Load(ctx context.Context) domain.Catalog
	FindProduct(id int) (domain.Product, bool)
}

// DescriptionRenderer renders product description markdown to safe HTML.
type DescriptionRenderer interface {
	Render(description string) string
}

// Translator serves the key to string lookup for a resolved locale.
type Translator interface {
	Resolve(acceptLanguage string) string
	Strings(locale string) map[string]string
	Locales() []string
}

// VisitorTracker records storefront page views.
type VisitorTracker interface {
	Track(ctx context.Context, view visitors.PageView) domain.Visit
}

// SettingsReader loads the store-wide settings.
type SettingsReader interface {
	Load(ctx context.Context) domain.Settings
}

// PublicHandlers exposes the unauthenticated storefront endpoints.
type PublicHandlers struct {
	catalog  CatalogStore
	renderer DescriptionRenderer
	i18n     Translator
	tracker  VisitorTracker
	settings SettingsReader
}

// NewPublicHandlers constructs the storefront handlers.
func NewPublicHandlers(catalog CatalogStore, renderer DescriptionRenderer, i18n Translator, tracker VisitorTracker, settings SettingsReader) *PublicHandlers {
	return &PublicHandlers{
		catalog:  catalog,
		renderer: renderer,
		i18n:     i18n,
		tracker:  tracker,
		settings: settings,
	}
}

// Routes wires the /public endpoints onto the provided router.
func (h *PublicHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/catalog", h.getCatalog)
	r.Get("/products/{productID}", h.getProduct)
	r.Get("/strings", h.getStrings)
	r.Post("/visits", h.postVisit)
	r.Get("/settings", h.getSettings)
}

type catalogResponse struct {
	Products   []domain.Product  `json:"products"`
	Categories []domain.Category `json:"categories"`
}

func (h *PublicHandlers) getCatalog(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_unavailable", "catalog is unavailable", http.StatusServiceUnavailable))
		return
	}

	catalog := h.catalog.Load(ctx)
	payload := catalogResponse{Products: catalog.Products, Categories: catalog.Categories}
	if payload.Products == nil {
		payload.Products = []domain.Product{}
	}
	if payload.Categories == nil {
		payload.Categories = []domain.Category{}
	}
	writeJSONResponse(w, http.StatusOK, payload)
}

type productResponse struct {
	domain.Product
	DescriptionHTML string `json:"descriptionHtml,omitempty"`
}

func (h *PublicHandlers) getProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_unavailable", "catalog is unavailable", http.StatusServiceUnavailable))
		return
	}

	id, err := strconv.Atoi(chi.URLParam(r, "productID"))
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "product id must be an integer", http.StatusBadRequest))
		return
	}

	h.catalog.Load(ctx)
	product, ok := h.catalog.FindProduct(id)
	if !ok {
		httpx.WriteError(ctx, w, httpx.NewError("product_not_found", "product not found", http.StatusNotFound))
		return
	}

	payload := productResponse{Product: product}
	if h.renderer != nil && product.Description != "" {
		payload.DescriptionHTML = h.renderer.Render(product.Description)
	}
	writeJSONResponse(w, http.StatusOK, payload)
}

func (h *PublicHandlers) getStrings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.i18n == nil {
		httpx.WriteError(ctx, w, httpx.NewError("i18n_unavailable", "translations are unavailable", http.StatusServiceUnavailable))
		return
	}

	locale := r.URL.Query().Get("locale")
	if locale == "" {
		locale = h.i18n.Resolve(r.Header.Get("Accept-Language"))
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{
		"locale":  locale,
		"locales": h.i18n.Locales(),
		"strings": h.i18n.Strings(locale),
	})
}

type visitRequest struct {
	Page     string `json:"page"`
	Referrer string `json:"referrer"`
}

func (h *PublicHandlers) postVisit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.tracker == nil {
		httpx.WriteError(ctx, w, httpx.NewError("tracking_unavailable", "visitor tracking is unavailable", http.StatusServiceUnavailable))
		return
	}

	var req visitRequest
	if body, err := readLimitedBody(r, defaultMaxBodySize); err == nil {
		_ = json.Unmarshal(body, &req)
	}
	if req.Page == "" {
		req.Page = r.Header.Get("Referer")
	}

	visit := h.tracker.Track(ctx, visitors.PageView{
		Page:      req.Page,
		IP:        clientAddress(r),
		UserAgent: r.UserAgent(),
		Referrer:  req.Referrer,
	})
	writeJSONResponse(w, http.StatusAccepted, map[string]any{"id": visit.ID})
}

type publicSettingsResponse struct {
	StoreName  string `json:"storeName"`
	StoreEmail string `json:"storeEmail"`
	StorePhone string `json:"storePhone,omitempty"`
	Currency   string `json:"currency"`
}

func (h *PublicHandlers) getSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.settings == nil {
		httpx.WriteError(ctx, w, httpx.NewError("settings_unavailable", "settings are unavailable", http.StatusServiceUnavailable))
		return
	}

	loaded := h.settings.Load(ctx)
	writeJSONResponse(w, http.StatusOK, publicSettingsResponse{
		StoreName:  loaded.StoreName,
		StoreEmail: loaded.StoreEmail,
		StorePhone: loaded.StorePhone,
		Currency:   loaded.Currency,
	})
}
