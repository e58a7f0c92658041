package admin

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/gothyxan/storefront/internal/domain"
)

type publisherStub struct {
	mu       sync.Mutex
	err      error
	commands []PersistCommand
}

func (p *publisherStub) Publish(_ context.Context, cmd PersistCommand) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.commands = append(p.commands, cmd)
	return p.err
}

func (p *publisherStub) published() []PersistCommand {
	p.mu.Lock()
	defer p.mu.Unlock()
	cmds := make([]PersistCommand, len(p.commands))
	copy(cmds, p.commands)
	return cmds
}

type loaderStub struct {
	mu      sync.Mutex
	catalog domain.Catalog
	loads   int
	loaded  chan struct{}
}

func (l *loaderStub) Load(context.Context) domain.Catalog {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.loads++
	if l.loaded != nil {
		select {
		case l.loaded <- struct{}{}:
		default:
		}
	}
	return l.catalog
}

func (l *loaderStub) loadCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loads
}

func newTestSession(t *testing.T, publisher *publisherStub, loader *loaderStub) *Session {
	t.Helper()
	if publisher == nil {
		publisher = &publisherStub{}
	}
	if loader == nil {
		loader = &loaderStub{}
	}
	session, err := NewSession(context.Background(), SessionDeps{
		Publisher:      publisher,
		Catalog:        loader,
		ProductsPath:   "src/data/products.json",
		CategoriesPath: "src/data/categories.json",
		RefetchDelay:   10 * time.Millisecond,
		Clock:          func() time.Time { return time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC) },
		IDGenerator:    func() string { return "key-1" },
	})
	if err != nil {
		t.Fatalf("NewSession returned error: %v", err)
	}
	return session
}

func TestAddProductAssignsSequentialIDs(t *testing.T) {
	ctx := context.Background()
	session := newTestSession(t, nil, nil)

	hoodie, result := session.AddProduct(ctx, domain.Product{Name: "Hoodie", Price: 80})
	if hoodie.ID != 1 {
		t.Fatalf("first product in an empty catalog must get id 1, got %d", hoodie.ID)
	}
	if result.State != StateSaved {
		t.Fatalf("expected Saved, got %s", result.State)
	}
	if hoodie.CreatedAt.IsZero() || !hoodie.CreatedAt.Equal(hoodie.UpdatedAt) {
		t.Fatalf("unexpected timestamps: %+v", hoodie)
	}

	tee, _ := session.AddProduct(ctx, domain.Product{Name: "Tee", Price: 30})
	if tee.ID != 2 {
		t.Fatalf("second product must get id 2, got %d", tee.ID)
	}
}

func TestAddProductUsesMaxPlusOne(t *testing.T) {
	ctx := context.Background()
	loader := &loaderStub{catalog: domain.Catalog{Products: []domain.Product{
		{ID: 3, Name: "A"},
		{ID: 7, Name: "B"},
		{ID: 5, Name: "C"},
	}}}
	session := newTestSession(t, nil, loader)

	product, _ := session.AddProduct(ctx, domain.Product{Name: "D"})
	if product.ID != 8 {
		t.Fatalf("expected id max+1 = 8, got %d", product.ID)
	}
}

func TestUpdateProductOverwritesAndRefreshesTimestamp(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	loader := &loaderStub{catalog: domain.Catalog{Products: []domain.Product{
		{ID: 1, Name: "Hoodie", Price: 80, CreatedAt: created, UpdatedAt: created},
	}}}
	session := newTestSession(t, nil, loader)

	updated, result, err := session.UpdateProduct(ctx, 1, domain.Product{Name: "Hoodie v2", Price: 90, InStock: true})
	if err != nil {
		t.Fatalf("UpdateProduct returned error: %v", err)
	}
	if result.State != StateSaved {
		t.Fatalf("expected Saved, got %s", result.State)
	}
	if updated.ID != 1 || updated.Name != "Hoodie v2" || updated.Price != 90 {
		t.Fatalf("unexpected product: %+v", updated)
	}
	if !updated.CreatedAt.Equal(created) {
		t.Fatalf("createdAt must be preserved, got %s", updated.CreatedAt)
	}
	if !updated.UpdatedAt.After(created) {
		t.Fatalf("updatedAt must be refreshed, got %s", updated.UpdatedAt)
	}

	if _, _, err := session.UpdateProduct(ctx, 42, domain.Product{Name: "X"}); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestDeleteProductRemovesExactlyMatchingID(t *testing.T) {
	ctx := context.Background()
	loader := &loaderStub{catalog: domain.Catalog{Products: []domain.Product{
		{ID: 1, Name: "A", Price: 5},
		{ID: 2, Name: "B", Price: 7},
		{ID: 3, Name: "C", Price: 9},
	}}}
	session := newTestSession(t, nil, loader)

	result := session.DeleteProduct(ctx, 2)
	if result.State != StateSaved {
		t.Fatalf("expected Saved, got %s", result.State)
	}
	want := []domain.Product{
		{ID: 1, Name: "A", Price: 5},
		{ID: 3, Name: "C", Price: 9},
	}
	if diff := cmp.Diff(want, session.Products()); diff != "" {
		t.Fatalf("other products must be untouched (-want +got):\n%s", diff)
	}

	// Deleting an absent id still persists the current state.
	session.DeleteProduct(ctx, 99)
	if len(session.Products()) != 2 {
		t.Fatalf("absent id must not change the catalog")
	}
}

func TestPersistFailureExposesFallbackEnvelope(t *testing.T) {
	ctx := context.Background()
	publisher := &publisherStub{err: errors.New("remote rejected")}
	session := newTestSession(t, publisher, nil)

	_, result := session.AddProduct(ctx, domain.Product{Name: "Hoodie", Price: 80})

	if result.State != StateFallbackRequired {
		t.Fatalf("expected FallbackRequired, got %s", result.State)
	}
	if session.State() != StateFallbackRequired {
		t.Fatalf("session state must be FallbackRequired, got %s", session.State())
	}
	fallback := session.Fallback()
	if fallback == nil {
		t.Fatal("expected a fallback artifact")
	}
	if fallback.Path != "src/data/products.json" {
		t.Fatalf("unexpected fallback path: %s", fallback.Path)
	}

	var envelope domain.ProductsEnvelope
	if err := json.Unmarshal([]byte(fallback.Content), &envelope); err != nil {
		t.Fatalf("fallback content must be the exact envelope: %v", err)
	}
	if envelope.Total != 1 || len(envelope.Products) != 1 || envelope.Products[0].Name != "Hoodie" {
		t.Fatalf("unexpected envelope: %+v", envelope)
	}
	if envelope.LastUpdated == "" {
		t.Fatal("envelope must carry the update timestamp")
	}

	if string(result.Command.Content) != fallback.Content {
		t.Fatal("fallback must surface exactly what would have been sent")
	}
}

func TestSuccessfulPersistClearsFallbackAndSchedulesRefetch(t *testing.T) {
	ctx := context.Background()
	publisher := &publisherStub{err: errors.New("down")}
	loader := &loaderStub{loaded: make(chan struct{}, 4)}
	session := newTestSession(t, publisher, loader)
	<-loader.loaded // initial session load

	session.AddProduct(ctx, domain.Product{Name: "A"})
	if session.Fallback() == nil {
		t.Fatal("expected fallback after failure")
	}

	publisher.err = nil
	session.AddProduct(ctx, domain.Product{Name: "B"})
	if session.State() != StateSaved {
		t.Fatalf("expected Saved, got %s", session.State())
	}
	if session.Fallback() != nil {
		t.Fatal("fallback must be cleared after a successful persist")
	}

	select {
	case <-loader.loaded:
	case <-time.After(time.Second):
		t.Fatal("expected the delayed confirmation fetch to run")
	}
}

func TestPersistIssuesSingleAttemptWithIdempotencyKey(t *testing.T) {
	ctx := context.Background()
	publisher := &publisherStub{err: errors.New("boom")}
	session := newTestSession(t, publisher, nil)

	session.AddProduct(ctx, domain.Product{Name: "A"})

	commands := publisher.published()
	if len(commands) != 1 {
		t.Fatalf("a failed persist must not retry, got %d attempts", len(commands))
	}
	if commands[0].IdempotencyKey == "" {
		t.Fatal("persist command must carry an idempotency token")
	}
	if commands[0].Message == "" {
		t.Fatal("persist command must carry a change message")
	}
}

func TestCategoryEnvelopeHasNoTotal(t *testing.T) {
	ctx := context.Background()
	publisher := &publisherStub{}
	session := newTestSession(t, publisher, nil)

	session.AddCategory(ctx, domain.Category{Name: "Tops", Slug: "tops"})

	commands := publisher.published()
	if len(commands) != 1 {
		t.Fatalf("expected one persist, got %d", len(commands))
	}
	if commands[0].Path != "src/data/categories.json" {
		t.Fatalf("unexpected path: %s", commands[0].Path)
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(commands[0].Content, &doc); err != nil {
		t.Fatalf("decoding categories envelope: %v", err)
	}
	if _, ok := doc["total"]; ok {
		t.Fatal("categories envelope must not carry a total")
	}
	if _, ok := doc["categories"]; !ok {
		t.Fatal("categories envelope must carry the category list")
	}
	if _, ok := doc["last_updated"]; !ok {
		t.Fatal("categories envelope must carry last_updated")
	}
}

func TestDeleteCategoryKeepsDanglingProductReferences(t *testing.T) {
	ctx := context.Background()
	loader := &loaderStub{catalog: domain.Catalog{
		Products:   []domain.Product{{ID: 1, Name: "A", Category: "tops"}},
		Categories: []domain.Category{{Name: "Tops", Slug: "tops"}},
	}}
	session := newTestSession(t, nil, loader)

	session.DeleteCategory(ctx, "tops")

	if len(session.Categories()) != 0 {
		t.Fatalf("expected category removed, got %+v", session.Categories())
	}
	products := session.Products()
	if len(products) != 1 || products[0].Category != "tops" {
		t.Fatalf("product references must stay dangling: %+v", products)
	}
}
