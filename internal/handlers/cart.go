package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/gothyxan/storefront/internal/domain"
	"github.com/gothyxan/storefront/internal/platform/httpx"
)

// CartEngine exposes the cart mutations to the HTTP layer. None of the
// mutations fail; edge cases degrade to no-ops inside the engine.
type CartEngine interface {
	AddToCart(ctx context.Context, productID, quantity int)
	RemoveFromCart(ctx context.Context, index int)
	UpdateQuantity(ctx context.Context, index, quantity int)
	Clear(ctx context.Context)
	Items() []domain.CartItem
	Total() decimal.Decimal
	Count() int
}

// CartHandlers exposes the cart endpoints.
type CartHandlers struct {
	cart CartEngine
}

// NewCartHandlers constructs the cart handlers.
func NewCartHandlers(cart CartEngine) *CartHandlers {
	return &CartHandlers{cart: cart}
}

// Routes wires the /cart endpoints onto the provided router.
func (h *CartHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.getCart)
	r.Delete("/", h.clearCart)
	r.Post("/items", h.addItem)
	r.Patch("/items/{index}", h.updateItem)
	r.Delete("/items/{index}", h.removeItem)
}

type cartView struct {
	Items []domain.CartItem `json:"items"`
	Total string            `json:"total"`
	Count int               `json:"count"`
}

func (h *CartHandlers) view() cartView {
	items := h.cart.Items()
	if items == nil {
		items = []domain.CartItem{}
	}
	// Rounding happens here at the display boundary, not in the running total.
	return cartView{
		Items: items,
		Total: h.cart.Total().StringFixed(2),
		Count: h.cart.Count(),
	}
}

func (h *CartHandlers) getCart(w http.ResponseWriter, r *http.Request) {
	if h.cart == nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("cart_unavailable", "cart is unavailable", http.StatusServiceUnavailable))
		return
	}
	writeJSONResponse(w, http.StatusOK, h.view())
}

type addItemRequest struct {
	ProductID int `json:"id"`
	Quantity  int `json:"quantity"`
}

func (h *CartHandlers) addItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.cart == nil {
		httpx.WriteError(ctx, w, httpx.NewError("cart_unavailable", "cart is unavailable", http.StatusServiceUnavailable))
		return
	}

	body, err := readLimitedBody(r, defaultMaxBodySize)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}
	var req addItemRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "body must be JSON", http.StatusBadRequest))
		return
	}

	h.cart.AddToCart(ctx, req.ProductID, req.Quantity)
	writeJSONResponse(w, http.StatusOK, h.view())
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

func (h *CartHandlers) updateItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.cart == nil {
		httpx.WriteError(ctx, w, httpx.NewError("cart_unavailable", "cart is unavailable", http.StatusServiceUnavailable))
		return
	}

	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "index must be an integer", http.StatusBadRequest))
		return
	}

	body, err := readLimitedBody(r, defaultMaxBodySize)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}
	var req updateItemRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "body must be JSON", http.StatusBadRequest))
		return
	}

	h.cart.UpdateQuantity(ctx, index, req.Quantity)
	writeJSONResponse(w, http.StatusOK, h.view())
}

func (h *CartHandlers) removeItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.cart == nil {
		httpx.WriteError(ctx, w, httpx.NewError("cart_unavailable", "cart is unavailable", http.StatusServiceUnavailable))
		return
	}

	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "index must be an integer", http.StatusBadRequest))
		return
	}

	h.cart.RemoveFromCart(ctx, index)
	writeJSONResponse(w, http.StatusOK, h.view())
}

func (h *CartHandlers) clearCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.cart == nil {
		httpx.WriteError(ctx, w, httpx.NewError("cart_unavailable", "cart is unavailable", http.StatusServiceUnavailable))
		return
	}

	h.cart.Clear(ctx)
	writeJSONResponse(w, http.StatusOK, h.view())
}
