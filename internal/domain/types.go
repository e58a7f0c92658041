package domain

import (
	"time"
)

// Product is a catalog entry shared between the storefront and the admin
// console. IDs are integers assigned by the editing session as max(existing)+1.
type Product struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Price       float64   `json:"price"`
	Category    string    `json:"category,omitempty"`
	Description string    `json:"description,omitempty"`
	Image       string    `json:"image,omitempty"`
	Sizes       []string  `json:"sizes,omitempty"`
	Colors      []string  `json:"colors,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	InStock     bool      `json:"inStock"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt,omitempty"`
}

// Category groups products. The slug doubles as the routing key and as the
// value of Product.Category; dangling references are tolerated.
type Category struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Catalog is the read-only snapshot served to the storefront.
type Catalog struct {
	Products   []Product
	Categories []Category
}

// CartItem is a cart row holding a denormalised snapshot of the product taken
// at add time. Size and Color exist in the stored shape but no mutation path
// populates them.
type CartItem struct {
	ProductID int     `json:"id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Image     string  `json:"image,omitempty"`
	Size      *string `json:"size"`
	Color     *string `json:"color"`
}

// Visit is one tracked page view. Geo fields stay empty when the lookup fails.
type Visit struct {
	ID        string    `json:"id"`
	IP        string    `json:"ip,omitempty"`
	Country   string    `json:"country,omitempty"`
	City      string    `json:"city,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Page      string    `json:"page"`
	UserAgent string    `json:"userAgent,omitempty"`
	Referrer  string    `json:"referrer,omitempty"`
}

// GeoRecord is the opaque result of the external geolocation service.
type GeoRecord struct {
	IP       string `json:"ip"`
	Country  string `json:"country"`
	City     string `json:"city"`
	Timezone string `json:"timezone"`
}

// Settings holds the store-wide configuration editable from the admin console.
type Settings struct {
	StoreName     string `json:"storeName"`
	StoreEmail    string `json:"storeEmail"`
	StorePhone    string `json:"storePhone"`
	AdminPassword string `json:"adminPassword"`
	Currency      string `json:"currency"`
	GeoAPIKey     string `json:"geoApiKey,omitempty"`
	RemoteToken   string `json:"remoteToken,omitempty"`
}

// ProductsEnvelope is the document written to the remote products file: the
// full product list wrapped with a timestamp and a count.
type ProductsEnvelope struct {
	Products    []Product `json:"products"`
	LastUpdated string    `json:"last_updated"`
	Total       int       `json:"total"`
}

// CategoriesEnvelope is the document written to the remote categories file.
type CategoriesEnvelope struct {
	Categories  []Category `json:"categories"`
	LastUpdated string     `json:"last_updated"`
}
