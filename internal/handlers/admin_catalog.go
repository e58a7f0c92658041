package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/gothyxan/storefront/internal/admin"
	"github.com/gothyxan/storefront/internal/auth"
	"github.com/gothyxan/storefront/internal/domain"
	"github.com/gothyxan/storefront/internal/platform/httpx"
	"github.com/gothyxan/storefront/internal/settings"
	"github.com/gothyxan/storefront/internal/visitors"
)

// EditSession exposes the admin catalog mutations to the HTTP layer.
type EditSession interface {
	AddProduct(ctx context.Context, input domain.Product) (domain.Product, admin.PersistResult)
	UpdateProduct(ctx context.Context, id int, input domain.Product) (domain.Product, admin.PersistResult, error)
	DeleteProduct(ctx context.Context, id int) admin.PersistResult
	AddCategory(ctx context.Context, category domain.Category) (domain.Category, admin.PersistResult)
	UpdateCategory(ctx context.Context, slug string, category domain.Category) (domain.Category, admin.PersistResult, error)
	DeleteCategory(ctx context.Context, slug string) admin.PersistResult
	Products() []domain.Product
	Categories() []domain.Category
	State() admin.State
	Fallback() *admin.Fallback
}

// AnalyticsSource serves the visitor log and counters for the analytics view.
type AnalyticsSource interface {
	Visits(ctx context.Context) []domain.Visit
	CountersFor(ctx context.Context) visitors.Counters
}

// SettingsService loads and saves the store-wide settings document.
type SettingsService interface {
	Load(ctx context.Context) domain.Settings
	Save(ctx context.Context, s domain.Settings) (domain.Settings, error)
}

// AdminHandlers exposes the console endpoints: login, catalog editing,
// analytics and settings.
type AdminHandlers struct {
	authn     AdminAuthenticator
	session   EditSession
	analytics AnalyticsSource
	settings  SettingsService
	validate  *validator.Validate
}

// NewAdminHandlers constructs the admin handlers.
func NewAdminHandlers(authn AdminAuthenticator, session EditSession, analytics AnalyticsSource, settingsSvc SettingsService) *AdminHandlers {
	return &AdminHandlers{
		authn:     authn,
		session:   session,
		analytics: analytics,
		settings:  settingsSvc,
		validate:  validator.New(),
	}
}

// Routes wires the /admin endpoints onto the provided router. Everything but
// login sits behind the session-token middleware.
func (h *AdminHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/login", h.login)

	r.Group(func(protected chi.Router) {
		protected.Use(RequireAdmin(h.authn))

		protected.Get("/state", h.getState)

		protected.Get("/products", h.listProducts)
		protected.Post("/products", h.addProduct)
		protected.Put("/products/{productID}", h.updateProduct)
		protected.Delete("/products/{productID}", h.deleteProduct)

		protected.Get("/categories", h.listCategories)
		protected.Post("/categories", h.addCategory)
		protected.Put("/categories/{slug}", h.updateCategory)
		protected.Delete("/categories/{slug}", h.deleteCategory)

		protected.Get("/analytics", h.getAnalytics)

		protected.Get("/settings", h.getSettings)
		protected.Put("/settings", h.putSettings)
	})
}

type loginRequest struct {
	Password string `json:"password" validate:"required"`
}

func (h *AdminHandlers) login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.authn == nil {
		httpx.WriteError(ctx, w, httpx.NewError("auth_unavailable", "authentication is unavailable", http.StatusServiceUnavailable))
		return
	}

	var req loginRequest
	if !h.decodeAndValidate(ctx, w, r, &req) {
		return
	}

	token, err := h.authn.Login(ctx, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_credentials", "invalid credentials", http.StatusUnauthorized))
			return
		}
		httpx.WriteError(ctx, w, httpx.NewError("internal", "login failed", http.StatusInternalServerError))
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]string{"token": token})
}

// persistView is the shared response shape for every catalog mutation: the
// session state plus, on failure, the copyable fallback artifact.
type persistView struct {
	State    admin.State     `json:"state"`
	Fallback *admin.Fallback `json:"fallback,omitempty"`
	Error    string          `json:"error,omitempty"`
}

func buildPersistView(result admin.PersistResult) persistView {
	view := persistView{State: result.State, Fallback: result.Fallback}
	if result.Err != nil {
		view.Error = result.Err.Error()
	}
	return view
}

func (h *AdminHandlers) getState(w http.ResponseWriter, r *http.Request) {
	if !h.requireSession(w, r) {
		return
	}
	writeJSONResponse(w, http.StatusOK, persistView{State: h.session.State(), Fallback: h.session.Fallback()})
}

type productPayload struct {
	Name        string   `json:"name" validate:"required"`
	Price       float64  `json:"price" validate:"gte=0"`
	Category    string   `json:"category"`
	Description string   `json:"description"`
	Image       string   `json:"image" validate:"omitempty,url"`
	Sizes       []string `json:"sizes"`
	Colors      []string `json:"colors"`
	Tags        []string `json:"tags"`
	InStock     bool     `json:"inStock"`
}

func (p productPayload) toDomain() domain.Product {
	return domain.Product{
		Name:        p.Name,
		Price:       p.Price,
		Category:    p.Category,
		Description: p.Description,
		Image:       p.Image,
		Sizes:       p.Sizes,
		Colors:      p.Colors,
		Tags:        p.Tags,
		InStock:     p.InStock,
	}
}

func (h *AdminHandlers) listProducts(w http.ResponseWriter, r *http.Request) {
	if !h.requireSession(w, r) {
		return
	}
	products := h.session.Products()
	if products == nil {
		products = []domain.Product{}
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"products": products, "total": len(products)})
}

func (h *AdminHandlers) addProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.requireSession(w, r) {
		return
	}

	var payload productPayload
	if !h.decodeAndValidate(ctx, w, r, &payload) {
		return
	}

	product, result := h.session.AddProduct(ctx, payload.toDomain())
	writeJSONResponse(w, http.StatusCreated, map[string]any{
		"product": product,
		"persist": buildPersistView(result),
	})
}

func (h *AdminHandlers) updateProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.requireSession(w, r) {
		return
	}

	id, err := strconv.Atoi(chi.URLParam(r, "productID"))
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "product id must be an integer", http.StatusBadRequest))
		return
	}

	var payload productPayload
	if !h.decodeAndValidate(ctx, w, r, &payload) {
		return
	}

	product, result, err := h.session.UpdateProduct(ctx, id, payload.toDomain())
	if err != nil {
		if errors.Is(err, admin.ErrProductNotFound) {
			httpx.WriteError(ctx, w, httpx.NewError("product_not_found", "product not found", http.StatusNotFound))
			return
		}
		httpx.WriteError(ctx, w, httpx.NewError("internal", "update failed", http.StatusInternalServerError))
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{
		"product": product,
		"persist": buildPersistView(result),
	})
}

func (h *AdminHandlers) deleteProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.requireSession(w, r) {
		return
	}

	id, err := strconv.Atoi(chi.URLParam(r, "productID"))
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "product id must be an integer", http.StatusBadRequest))
		return
	}

	result := h.session.DeleteProduct(ctx, id)
	writeJSONResponse(w, http.StatusOK, map[string]any{"persist": buildPersistView(result)})
}

type categoryPayload struct {
	ID   string `json:"id"`
	Name string `json:"name" validate:"required"`
	Slug string `json:"slug" validate:"required"`
}

func (h *AdminHandlers) listCategories(w http.ResponseWriter, r *http.Request) {
	if !h.requireSession(w, r) {
		return
	}
	categories := h.session.Categories()
	if categories == nil {
		categories = []domain.Category{}
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"categories": categories})
}

func (h *AdminHandlers) addCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.requireSession(w, r) {
		return
	}

	var payload categoryPayload
	if !h.decodeAndValidate(ctx, w, r, &payload) {
		return
	}

	category, result := h.session.AddCategory(ctx, domain.Category{ID: payload.ID, Name: payload.Name, Slug: payload.Slug})
	writeJSONResponse(w, http.StatusCreated, map[string]any{
		"category": category,
		"persist":  buildPersistView(result),
	})
}

func (h *AdminHandlers) updateCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.requireSession(w, r) {
		return
	}

	slug := chi.URLParam(r, "slug")

	var payload categoryPayload
	if !h.decodeAndValidate(ctx, w, r, &payload) {
		return
	}

	category, result, err := h.session.UpdateCategory(ctx, slug, domain.Category{ID: payload.ID, Name: payload.Name, Slug: payload.Slug})
	if err != nil {
		if errors.Is(err, admin.ErrCategoryNotFound) {
			httpx.WriteError(ctx, w, httpx.NewError("category_not_found", "category not found", http.StatusNotFound))
			return
		}
		httpx.WriteError(ctx, w, httpx.NewError("internal", "update failed", http.StatusInternalServerError))
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{
		"category": category,
		"persist":  buildPersistView(result),
	})
}

func (h *AdminHandlers) deleteCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.requireSession(w, r) {
		return
	}

	result := h.session.DeleteCategory(ctx, chi.URLParam(r, "slug"))
	writeJSONResponse(w, http.StatusOK, map[string]any{"persist": buildPersistView(result)})
}

func (h *AdminHandlers) getAnalytics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.analytics == nil {
		httpx.WriteError(ctx, w, httpx.NewError("analytics_unavailable", "analytics are unavailable", http.StatusServiceUnavailable))
		return
	}

	visits := h.analytics.Visits(ctx)
	if visits == nil {
		visits = []domain.Visit{}
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{
		"visits":   visits,
		"counters": h.analytics.CountersFor(ctx),
	})
}

func (h *AdminHandlers) getSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.settings == nil {
		httpx.WriteError(ctx, w, httpx.NewError("settings_unavailable", "settings are unavailable", http.StatusServiceUnavailable))
		return
	}
	writeJSONResponse(w, http.StatusOK, h.settings.Load(ctx))
}

func (h *AdminHandlers) putSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.settings == nil {
		httpx.WriteError(ctx, w, httpx.NewError("settings_unavailable", "settings are unavailable", http.StatusServiceUnavailable))
		return
	}

	var payload domain.Settings
	body, err := readLimitedBody(r, defaultMaxBodySize)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "body must be JSON", http.StatusBadRequest))
		return
	}

	saved, err := h.settings.Save(ctx, payload)
	if err != nil {
		if errors.Is(err, settings.ErrSettingsInvalidInput) {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
			return
		}
		httpx.WriteError(ctx, w, httpx.NewError("internal", "saving settings failed", http.StatusInternalServerError))
		return
	}
	writeJSONResponse(w, http.StatusOK, saved)
}

func (h *AdminHandlers) requireSession(w http.ResponseWriter, r *http.Request) bool {
	if h.session == nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("session_unavailable", "edit session is unavailable", http.StatusServiceUnavailable))
		return false
	}
	return true
}

func (h *AdminHandlers) decodeAndValidate(ctx context.Context, w http.ResponseWriter, r *http.Request, target any) bool {
	body, err := readLimitedBody(r, defaultMaxBodySize)
	if err != nil {
		switch {
		case errors.Is(err, errBodyTooLarge):
			httpx.WriteError(ctx, w, httpx.NewError("payload_too_large", "request body exceeds allowed size", http.StatusRequestEntityTooLarge))
		default:
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		}
		return false
	}
	if err := json.Unmarshal(body, target); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "body must be JSON", http.StatusBadRequest))
		return false
	}
	if err := h.validate.Struct(target); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return false
	}
	return true
}
