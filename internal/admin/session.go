package admin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/gothyxan/storefront/internal/domain"
)

// State tracks where an edit cycle is in the persist flow.
type State string

const (
	StateIdle             State = "idle"
	StateSaving           State = "saving"
	StateSaved            State = "saved"
	StateFallbackRequired State = "fallback_required"
)

const defaultRefetchDelay = 5 * time.Second

var (
	errSessionPublisherRequired = errors.New("admin session: publisher is required")
	errSessionCatalogRequired   = errors.New("admin session: catalog loader is required")
	errSessionPathsRequired     = errors.New("admin session: remote file paths are required")

	// ErrProductNotFound indicates the targeted product id is not in the session.
	ErrProductNotFound = errors.New("admin session: product not found")
	// ErrCategoryNotFound indicates the targeted category is not in the session.
	ErrCategoryNotFound = errors.New("admin session: category not found")
)

// PersistCommand is the unit of work handed to the external pipeline: the
// target file path, the full document content, a human-readable message and an
// idempotency token.
type PersistCommand struct {
	Path           string
	Content        []byte
	Message        string
	IdempotencyKey string
}

// Publisher submits a persist command to the remote pipeline. A single
// bounded attempt; callers never retry a failed submission.
type Publisher interface {
	Publish(ctx context.Context, cmd PersistCommand) error
}

// CatalogLoader re-fetches the live catalog. Used once at session start and
// again by the delayed confirmation fetch after a successful persist.
type CatalogLoader interface {
	Load(ctx context.Context) domain.Catalog
}

// Fallback is the manual-copy artifact surfaced when a persist attempt fails:
// the exact document that would have been written plus the remote path to
// overwrite by hand. The edit is never lost, only the automation.
type Fallback struct {
	Path    string `json:"path"`
	Content string `json:"content"`
	Message string `json:"message"`
}

// PersistResult reports the outcome of one edit cycle.
type PersistResult struct {
	State    State
	Command  PersistCommand
	Fallback *Fallback
	Err      error
}

// SessionDeps bundles constructor inputs for an admin edit session.
type SessionDeps struct {
	Publisher      Publisher
	Catalog        CatalogLoader
	ProductsPath   string
	CategoriesPath string
	RefetchDelay   time.Duration
	Clock          func() time.Time
	IDGenerator    func() string
	Logger         func(context.Context, string, map[string]any)
}

// Session owns an in-memory mutable copy of the catalog. Every mutation
// recomputes the full envelope synchronously and issues one persist attempt;
// failure transitions to FallbackRequired instead of retrying. The in-memory
// arrays are the single source of truth for the session, divergent from any
// other open session. Id assignment is max(existing)+1, which is only safe
// for a single concurrent editor.
type Session struct {
	publisher      Publisher
	catalog        CatalogLoader
	productsPath   string
	categoriesPath string
	refetchDelay   time.Duration
	now            func() time.Time
	newID          func() string
	logger         func(context.Context, string, map[string]any)

	mu         sync.Mutex
	products   []domain.Product
	categories []domain.Category
	state      State
	fallback   *Fallback
}

// NewSession constructs a session and loads a fresh catalog copy.
func NewSession(ctx context.Context, deps SessionDeps) (*Session, error) {
	if deps.Publisher == nil {
		return nil, errSessionPublisherRequired
	}
	if deps.Catalog == nil {
		return nil, errSessionCatalogRequired
	}
	if deps.ProductsPath == "" || deps.CategoriesPath == "" {
		return nil, errSessionPathsRequired
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string { return ulid.Make().String() }
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	delay := deps.RefetchDelay
	if delay <= 0 {
		delay = defaultRefetchDelay
	}

	loaded := deps.Catalog.Load(ctx)
	return &Session{
		publisher:      deps.Publisher,
		catalog:        deps.Catalog,
		productsPath:   deps.ProductsPath,
		categoriesPath: deps.CategoriesPath,
		refetchDelay:   delay,
		now:            func() time.Time { return clock().UTC() },
		newID:          idGen,
		logger:         logger,
		products:       loaded.Products,
		categories:     loaded.Categories,
		state:          StateIdle,
	}, nil
}

// AddProduct appends a product with the next free id and persists the
// resulting envelope.
func (s *Session) AddProduct(ctx context.Context, input domain.Product) (domain.Product, PersistResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	input.ID = nextProductID(s.products)
	input.CreatedAt = now
	input.UpdatedAt = now
	s.products = append(s.products, input)

	result := s.persistProductsLocked(ctx, fmt.Sprintf("Add product %q", input.Name))
	return input, result
}

// UpdateProduct overwrites every field of the matching product. The id and
// creation timestamp are preserved; updatedAt is refreshed.
func (s *Session) UpdateProduct(ctx context.Context, id int, input domain.Product) (domain.Product, PersistResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.products {
		if s.products[i].ID != id {
			continue
		}
		input.ID = id
		input.CreatedAt = s.products[i].CreatedAt
		input.UpdatedAt = s.now()
		s.products[i] = input

		result := s.persistProductsLocked(ctx, fmt.Sprintf("Update product %q", input.Name))
		return input, result, nil
	}
	return domain.Product{}, PersistResult{State: s.state}, ErrProductNotFound
}

// DeleteProduct removes the matching product, leaving all others untouched,
// and persists. A miss still persists the current state.
func (s *Session) DeleteProduct(ctx context.Context, id int) PersistResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.products[:0]
	for _, product := range s.products {
		if product.ID != id {
			kept = append(kept, product)
		}
	}
	s.products = kept
	return s.persistProductsLocked(ctx, fmt.Sprintf("Delete product %d", id))
}

// AddCategory appends a category and persists the categories envelope.
func (s *Session) AddCategory(ctx context.Context, category domain.Category) (domain.Category, PersistResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.categories = append(s.categories, category)
	return category, s.persistCategoriesLocked(ctx, fmt.Sprintf("Add category %q", category.Name))
}

// UpdateCategory overwrites the category with the matching slug.
func (s *Session) UpdateCategory(ctx context.Context, slug string, category domain.Category) (domain.Category, PersistResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.categories {
		if s.categories[i].Slug != slug {
			continue
		}
		s.categories[i] = category
		result := s.persistCategoriesLocked(ctx, fmt.Sprintf("Update category %q", category.Name))
		return category, result, nil
	}
	return domain.Category{}, PersistResult{State: s.state}, ErrCategoryNotFound
}

// DeleteCategory removes the matching category and persists. Products
// referencing the slug keep their dangling reference.
func (s *Session) DeleteCategory(ctx context.Context, slug string) PersistResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.categories[:0]
	for _, category := range s.categories {
		if category.Slug != slug {
			kept = append(kept, category)
		}
	}
	s.categories = kept
	return s.persistCategoriesLocked(ctx, fmt.Sprintf("Delete category %q", slug))
}

// Products returns a copy of the session's product array.
func (s *Session) Products() []domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	products := make([]domain.Product, len(s.products))
	copy(products, s.products)
	return products
}

// Categories returns a copy of the session's category array.
func (s *Session) Categories() []domain.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	categories := make([]domain.Category, len(s.categories))
	copy(categories, s.categories)
	return categories
}

// State reports the current persist state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Fallback returns the manual-copy artifact from the last failed persist, or
// nil when none is pending.
func (s *Session) Fallback() *Fallback {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fallback
}

// ProductsEnvelope projects the current in-memory products into the document
// shape written to the remote file.
func (s *Session) ProductsEnvelope() domain.ProductsEnvelope {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.productsEnvelopeLocked()
}

func (s *Session) productsEnvelopeLocked() domain.ProductsEnvelope {
	products := s.products
	if products == nil {
		products = []domain.Product{}
	}
	return domain.ProductsEnvelope{
		Products:    products,
		LastUpdated: s.now().Format(time.RFC3339),
		Total:       len(products),
	}
}

func (s *Session) categoriesEnvelopeLocked() domain.CategoriesEnvelope {
	categories := s.categories
	if categories == nil {
		categories = []domain.Category{}
	}
	return domain.CategoriesEnvelope{
		Categories:  categories,
		LastUpdated: s.now().Format(time.RFC3339),
	}
}

func (s *Session) persistProductsLocked(ctx context.Context, message string) PersistResult {
	content, err := json.MarshalIndent(s.productsEnvelopeLocked(), "", "  ")
	if err != nil {
		return s.failLocked(ctx, PersistCommand{Path: s.productsPath, Message: message}, err)
	}
	return s.persistLocked(ctx, PersistCommand{
		Path:           s.productsPath,
		Content:        content,
		Message:        message,
		IdempotencyKey: s.newID(),
	})
}

func (s *Session) persistCategoriesLocked(ctx context.Context, message string) PersistResult {
	content, err := json.MarshalIndent(s.categoriesEnvelopeLocked(), "", "  ")
	if err != nil {
		return s.failLocked(ctx, PersistCommand{Path: s.categoriesPath, Message: message}, err)
	}
	return s.persistLocked(ctx, PersistCommand{
		Path:           s.categoriesPath,
		Content:        content,
		Message:        message,
		IdempotencyKey: s.newID(),
	})
}

func (s *Session) persistLocked(ctx context.Context, cmd PersistCommand) PersistResult {
	s.state = StateSaving
	s.logger(ctx, "admin.persist.start", map[string]any{
		"path":           cmd.Path,
		"idempotencyKey": cmd.IdempotencyKey,
	})

	if err := s.publisher.Publish(ctx, cmd); err != nil {
		return s.failLocked(ctx, cmd, err)
	}

	s.state = StateSaved
	s.fallback = nil
	s.logger(ctx, "admin.persist.saved", map[string]any{"path": cmd.Path})
	s.scheduleRefetchLocked()
	return PersistResult{State: StateSaved, Command: cmd}
}

func (s *Session) failLocked(ctx context.Context, cmd PersistCommand, err error) PersistResult {
	s.state = StateFallbackRequired
	s.fallback = &Fallback{
		Path:    cmd.Path,
		Content: string(cmd.Content),
		Message: cmd.Message,
	}
	s.logger(ctx, "admin.persist.fallback_required", map[string]any{
		"path":  cmd.Path,
		"error": err.Error(),
	})
	return PersistResult{State: StateFallbackRequired, Command: cmd, Fallback: s.fallback, Err: err}
}

// scheduleRefetchLocked arms the delayed confirmation fetch. The timer has no
// cancellation hook; a second edit inside the window arms a second timer.
// The fetched result is not reconciled against the in-memory state, only a
// divergence in product count is logged. A remote pipeline that rejects the
// change asynchronously therefore leaves the session showing stale success.
func (s *Session) scheduleRefetchLocked() {
	expected := len(s.products)
	time.AfterFunc(s.refetchDelay, func() {
		ctx := context.Background()
		loaded := s.catalog.Load(ctx)
		if len(loaded.Products) != expected {
			s.logger(ctx, "admin.refetch.divergence", map[string]any{
				"expectedProducts": expected,
				"remoteProducts":   len(loaded.Products),
			})
		}
	})
}

func nextProductID(products []domain.Product) int {
	max := 0
	for _, product := range products {
		if product.ID > max {
			max = product.ID
		}
	}
	return max + 1
}
