package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/gothyxan/storefront/internal/domain"
)

type cartEngineStub struct {
	items []domain.CartItem
	calls []string
}

func (c *cartEngineStub) AddToCart(_ context.Context, productID, quantity int) {
	c.calls = append(c.calls, "add")
	c.items = append(c.items, domain.CartItem{ProductID: productID, Quantity: quantity, Price: 10})
}

func (c *cartEngineStub) RemoveFromCart(_ context.Context, index int) {
	c.calls = append(c.calls, "remove")
	if index >= 0 && index < len(c.items) {
		c.items = append(c.items[:index], c.items[index+1:]...)
	}
}

func (c *cartEngineStub) UpdateQuantity(_ context.Context, index, quantity int) {
	c.calls = append(c.calls, "update")
	if index >= 0 && index < len(c.items) {
		c.items[index].Quantity = quantity
	}
}

func (c *cartEngineStub) Clear(context.Context) {
	c.calls = append(c.calls, "clear")
	c.items = nil
}

func (c *cartEngineStub) Items() []domain.CartItem { return c.items }

func (c *cartEngineStub) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.items {
		total = total.Add(decimal.NewFromFloat(item.Price).Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

func (c *cartEngineStub) Count() int {
	count := 0
	for _, item := range c.items {
		count += item.Quantity
	}
	return count
}

func newCartRouter(stub *cartEngineStub) chi.Router {
	r := chi.NewRouter()
	NewCartHandlers(stub).Routes(r)
	return r
}

func decodeCartView(t *testing.T, rec *httptest.ResponseRecorder) cartView {
	t.Helper()
	var view cartView
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("decoding cart view: %v", err)
	}
	return view
}

func TestGetCartReturnsViewWithRoundedTotal(t *testing.T) {
	stub := &cartEngineStub{items: []domain.CartItem{{ProductID: 1, Price: 19.99, Quantity: 2}}}
	router := newCartRouter(stub)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	view := decodeCartView(t, rec)
	if view.Total != "39.98" || view.Count != 2 || len(view.Items) != 1 {
		t.Fatalf("unexpected view: %+v", view)
	}
}

func TestAddItemInvokesEngine(t *testing.T) {
	stub := &cartEngineStub{}
	router := newCartRouter(stub)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/items", strings.NewReader(`{"id":5,"quantity":2}`))
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	if len(stub.calls) != 1 || stub.calls[0] != "add" {
		t.Fatalf("unexpected calls: %v", stub.calls)
	}
	view := decodeCartView(t, rec)
	if view.Count != 2 {
		t.Fatalf("unexpected count: %d", view.Count)
	}
}

func TestAddItemRejectsMalformedBody(t *testing.T) {
	stub := &cartEngineStub{}
	router := newCartRouter(stub)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/items", strings.NewReader("not json")))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if len(stub.calls) != 0 {
		t.Fatalf("engine must not be invoked, got %v", stub.calls)
	}
}

func TestUpdateAndRemoveParseIndex(t *testing.T) {
	stub := &cartEngineStub{items: []domain.CartItem{{ProductID: 1, Price: 5, Quantity: 1}}}
	router := newCartRouter(stub)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/items/0", strings.NewReader(`{"quantity":4}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if stub.items[0].Quantity != 4 {
		t.Fatalf("quantity not updated: %+v", stub.items)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/items/abc", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("non-integer index must 400, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/items/0", nil))
	if rec.Code != http.StatusOK || len(stub.items) != 0 {
		t.Fatalf("expected removal, status %d items %+v", rec.Code, stub.items)
	}
}

func TestClearCart(t *testing.T) {
	stub := &cartEngineStub{items: []domain.CartItem{{ProductID: 1, Price: 5, Quantity: 3}}}
	router := newCartRouter(stub)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	view := decodeCartView(t, rec)
	if len(view.Items) != 0 || view.Count != 0 {
		t.Fatalf("expected empty view: %+v", view)
	}
}
