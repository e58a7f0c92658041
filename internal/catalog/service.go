package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/gothyxan/storefront/internal/domain"
)

const defaultFetchTimeout = 10 * time.Second

// ServiceDeps bundles constructor inputs for the catalog store.
type ServiceDeps struct {
	ProductsURL   string
	CategoriesURL string
	HTTPClient    *http.Client
	FetchTimeout  time.Duration
	Logger        func(ctx context.Context, event string, fields map[string]any)
}

// Service loads the product and category collections from their static JSON
// sources. Loads fail soft: a fetch or decode error degrades the affected
// collection to empty and is logged, never returned. The last successful
// snapshot is retained so the cart can resolve product ids between loads.
type Service struct {
	productsURL   string
	categoriesURL string
	client        *http.Client
	timeout       time.Duration
	logger        func(ctx context.Context, event string, fields map[string]any)

	group singleflight.Group

	mu       sync.RWMutex
	snapshot domain.Catalog
}

// NewService constructs the catalog store with the supplied dependencies.
func NewService(deps ServiceDeps) (*Service, error) {
	if deps.ProductsURL == "" {
		return nil, fmt.Errorf("catalog service: products url is required")
	}
	if deps.CategoriesURL == "" {
		return nil, fmt.Errorf("catalog service: categories url is required")
	}
	client := deps.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	timeout := deps.FetchTimeout
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &Service{
		productsURL:   deps.ProductsURL,
		categoriesURL: deps.CategoriesURL,
		client:        client,
		timeout:       timeout,
		logger:        logger,
	}, nil
}

// Load fetches both collections. Every call re-fetches; concurrent calls in
// flight at the same moment are collapsed onto a single request per source.
func (s *Service) Load(ctx context.Context) domain.Catalog {
	catalog := domain.Catalog{
		Products:   s.loadProducts(ctx),
		Categories: s.loadCategories(ctx),
	}

	s.mu.Lock()
	s.snapshot = catalog
	s.mu.Unlock()

	return catalog
}

// Snapshot returns the most recently loaded catalog without re-fetching.
func (s *Service) Snapshot() domain.Catalog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// FindProduct resolves a product id against the current snapshot.
func (s *Service) FindProduct(id int) (domain.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, product := range s.snapshot.Products {
		if product.ID == id {
			return product, true
		}
	}
	return domain.Product{}, false
}

func (s *Service) loadProducts(ctx context.Context) []domain.Product {
	body, err := s.fetch(ctx, "products", s.productsURL)
	if err != nil {
		s.logger(ctx, "catalog.products.load_failed", map[string]any{
			"url":   s.productsURL,
			"error": err.Error(),
		})
		return []domain.Product{}
	}
	products, err := decodeProducts(body)
	if err != nil {
		s.logger(ctx, "catalog.products.decode_failed", map[string]any{
			"url":   s.productsURL,
			"error": err.Error(),
		})
		return []domain.Product{}
	}
	return products
}

func (s *Service) loadCategories(ctx context.Context) []domain.Category {
	body, err := s.fetch(ctx, "categories", s.categoriesURL)
	if err != nil {
		s.logger(ctx, "catalog.categories.load_failed", map[string]any{
			"url":   s.categoriesURL,
			"error": err.Error(),
		})
		return []domain.Category{}
	}
	categories, err := decodeCategories(body)
	if err != nil {
		s.logger(ctx, "catalog.categories.decode_failed", map[string]any{
			"url":   s.categoriesURL,
			"error": err.Error(),
		})
		return []domain.Category{}
	}
	return categories
}

func (s *Service) fetch(ctx context.Context, key, url string) ([]byte, error) {
	result, err, _ := s.group.Do(key, func() (any, error) {
		reqCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		resp, err := s.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
		}
		return io.ReadAll(resp.Body)
	})
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}

// decodeProducts accepts either the wrapped {"products": [...]} document or a
// bare array.
func decodeProducts(body []byte) ([]domain.Product, error) {
	if isJSONArray(body) {
		var products []domain.Product
		if err := json.Unmarshal(body, &products); err != nil {
			return nil, err
		}
		return products, nil
	}
	var doc struct {
		Products []domain.Product `json:"products"`
	}
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, err
	}
	if doc.Products == nil {
		return []domain.Product{}, nil
	}
	return doc.Products, nil
}

func decodeCategories(body []byte) ([]domain.Category, error) {
	if isJSONArray(body) {
		var categories []domain.Category
		if err := json.Unmarshal(body, &categories); err != nil {
			return nil, err
		}
		return categories, nil
	}
	var doc struct {
		Categories []domain.Category `json:"categories"`
	}
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, err
	}
	if doc.Categories == nil {
		return []domain.Category{}, nil
	}
	return doc.Categories, nil
}

func isJSONArray(body []byte) bool {
	trimmed := bytes.TrimLeft(body, " \t\r\n")
	return len(trimmed) > 0 && trimmed[0] == '['
}
