package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/gothyxan/storefront/internal/domain"
	"github.com/gothyxan/storefront/internal/platform/kvstore"
)

const cartKey = "cart"

var (
	errCartStoreRequired    = errors.New("cart engine: store is required")
	errCartProductsRequired = errors.New("cart engine: product finder is required")
)

// ProductFinder resolves product ids against the loaded catalog snapshot.
type ProductFinder interface {
	FindProduct(id int) (domain.Product, bool)
}

// EngineDeps wires the persistence and catalog dependencies for cart operations.
type EngineDeps struct {
	Store    kvstore.Store
	Products ProductFinder
	Logger   func(context.Context, string, map[string]any)
	Notifier func(ctx context.Context, message string)
}

// Engine owns the cart rows for one session. Mutations merge by product id,
// persist the full cart after every change and never return an error to the
// caller; every edge case degrades to a no-op or a safe equivalent operation.
type Engine struct {
	store    kvstore.Store
	products ProductFinder
	logger   func(context.Context, string, map[string]any)
	notify   func(ctx context.Context, message string)

	mu    sync.Mutex
	items []domain.CartItem
	count int
}

// NewEngine constructs the engine and reloads the persisted cart verbatim.
// A missing or unreadable stored cart starts the session empty.
func NewEngine(ctx context.Context, deps EngineDeps) (*Engine, error) {
	if deps.Store == nil {
		return nil, errCartStoreRequired
	}
	if deps.Products == nil {
		return nil, errCartProductsRequired
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	notify := deps.Notifier
	if notify == nil {
		notify = func(context.Context, string) {}
	}

	engine := &Engine{
		store:    deps.Store,
		products: deps.Products,
		logger:   logger,
		notify:   notify,
	}

	var items []domain.CartItem
	if err := kvstore.GetJSON(ctx, deps.Store, cartKey, &items); err != nil {
		if !errors.Is(err, kvstore.ErrKeyNotFound) {
			logger(ctx, "cart.restore_failed", map[string]any{"error": err.Error()})
		}
		items = nil
	}
	engine.items = items
	engine.count = sumQuantities(items)
	return engine, nil
}

// AddToCart resolves the product id and either increments the quantity of the
// existing row for that id or appends a new row with a denormalised snapshot
// of the product. Unknown ids emit a notification and leave the cart
// unchanged. Quantities below one default to one.
func (e *Engine) AddToCart(ctx context.Context, productID, quantity int) {
	if quantity < 1 {
		quantity = 1
	}

	product, ok := e.products.FindProduct(productID)
	if !ok {
		e.logger(ctx, "cart.product_not_found", map[string]any{"productId": productID})
		e.notify(ctx, fmt.Sprintf("Product %d not found", productID))
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	merged := false
	for i := range e.items {
		if e.items[i].ProductID == productID {
			e.items[i].Quantity += quantity
			merged = true
			break
		}
	}
	if !merged {
		e.items = append(e.items, domain.CartItem{
			ProductID: product.ID,
			Name:      product.Name,
			Price:     product.Price,
			Quantity:  quantity,
			Image:     product.Image,
		})
	}
	e.persistLocked(ctx)
}

// RemoveFromCart removes the row at the given position. Out-of-range indices
// are ignored.
func (e *Engine) RemoveFromCart(ctx context.Context, index int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.removeLocked(ctx, index)
}

// UpdateQuantity overwrites the quantity of the row at the given position.
// Quantities below one remove the row instead; a row cannot exist with a
// non-positive quantity.
func (e *Engine) UpdateQuantity(ctx context.Context, index, quantity int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if quantity < 1 {
		e.removeLocked(ctx, index)
		return
	}
	if index < 0 || index >= len(e.items) {
		return
	}
	e.items[index].Quantity = quantity
	e.persistLocked(ctx)
}

// Clear empties the cart and persists the empty state.
func (e *Engine) Clear(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.items = nil
	e.persistLocked(ctx)
}

// Items returns a copy of the current cart rows.
func (e *Engine) Items() []domain.CartItem {
	e.mu.Lock()
	defer e.mu.Unlock()
	items := make([]domain.CartItem, len(e.items))
	copy(items, e.items)
	return items
}

// Total returns the exact running total, sum of price times quantity over all
// rows. Rounding to two places is a display concern.
func (e *Engine) Total() decimal.Decimal {
	e.mu.Lock()
	defer e.mu.Unlock()

	total := decimal.Zero
	for _, item := range e.items {
		line := decimal.NewFromFloat(item.Price).Mul(decimal.NewFromInt(int64(item.Quantity)))
		total = total.Add(line)
	}
	return total
}

// Count returns the badge count, the sum of quantities. It is recomputed
// together with persistence inside every mutation, so it always matches the
// stored cart.
func (e *Engine) Count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.count
}

func (e *Engine) removeLocked(ctx context.Context, index int) {
	if index < 0 || index >= len(e.items) {
		return
	}
	e.items = append(e.items[:index], e.items[index+1:]...)
	e.persistLocked(ctx)
}

func (e *Engine) persistLocked(ctx context.Context) {
	items := e.items
	if items == nil {
		items = []domain.CartItem{}
	}
	if err := kvstore.SetJSON(ctx, e.store, cartKey, items); err != nil {
		e.logger(ctx, "cart.persist_failed", map[string]any{"error": err.Error()})
	}
	e.count = sumQuantities(e.items)
}

func sumQuantities(items []domain.CartItem) int {
	total := 0
	for _, item := range items {
		total += item.Quantity
	}
	return total
}
