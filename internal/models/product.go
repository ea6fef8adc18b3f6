package models

import (
	"math"
	"time"
)

// Product represents an affiliate product listed in the storefront
type Product struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Price         float64   `json:"price"`
	OriginalPrice *float64  `json:"original_price,omitempty"`
	Rating        float64   `json:"rating"`
	ReviewCount   int       `json:"review_count"`
	Category      string    `json:"category"`
	Brand         string    `json:"brand"`
	Tags          []string  `json:"tags"`
	InStock       bool      `json:"in_stock"`
	Featured      bool      `json:"featured"`
	AffiliateURL  string    `json:"affiliate_url,omitempty"`
	ImageURL      string    `json:"image_url,omitempty"`
	Slug          string    `json:"slug"`
	CreatedAt     time.Time `json:"created_at"`
}

// Discount returns the fractional markdown from the original price, or 0
func (p Product) Discount() float64 {
	if p.OriginalPrice == nil || *p.OriginalPrice <= 0 || *p.OriginalPrice <= p.Price {
		return 0
	}
	return (*p.OriginalPrice - p.Price) / *p.OriginalPrice
}

// CreateProductRequest is the request body for creating a product
type CreateProductRequest struct {
	Name          string   `json:"name" yaml:"name"`
	Description   string   `json:"description" yaml:"description"`
	Price         float64  `json:"price" yaml:"price"`
	OriginalPrice *float64 `json:"original_price,omitempty" yaml:"original_price,omitempty"`
	Rating        float64  `json:"rating" yaml:"rating"`
	ReviewCount   int      `json:"review_count" yaml:"review_count"`
	Category      string   `json:"category" yaml:"category"`
	Brand         string   `json:"brand" yaml:"brand"`
	Tags          []string `json:"tags,omitempty" yaml:"tags,omitempty"`
	InStock       bool     `json:"in_stock" yaml:"in_stock"`
	Featured      bool     `json:"featured" yaml:"featured"`
	AffiliateURL  string   `json:"affiliate_url,omitempty" yaml:"affiliate_url,omitempty"`
	ImageURL      string   `json:"image_url,omitempty" yaml:"image_url,omitempty"`
}

// UpdatePriceRequest is the request body for changing a product's price
type UpdatePriceRequest struct {
	Price      float64    `json:"price"`
	ObservedAt *time.Time `json:"observed_at,omitempty"`
}

// SortKey selects the ordering of a catalog query
type SortKey string

const (
	SortName     SortKey = "name"
	SortPrice    SortKey = "price"
	SortRating   SortKey = "rating"
	SortNewest   SortKey = "newest"
	SortFeatured SortKey = "featured"
)

// SortDirection flips a sort key's natural order
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// DefaultPageSize is the page size used when the caller does not pick one
const DefaultPageSize = 12

// QueryState is the caller-owned filter, sort and page state of a catalog view
type QueryState struct {
	SearchText    string        `json:"search_text"`
	Category      string        `json:"category"`
	PriceMin      float64       `json:"price_min"`
	PriceMax      float64       `json:"price_max"`
	Brands        []string      `json:"brands"`
	SortKey       SortKey       `json:"sort_key"`
	SortDirection SortDirection `json:"sort_direction"`
	Page          int           `json:"page"`
	PageSize      int           `json:"page_size"`
}

// NewQueryState returns a state that matches the whole catalog
func NewQueryState() QueryState {
	return QueryState{
		PriceMin:      0,
		PriceMax:      math.Inf(1),
		SortKey:       SortFeatured,
		SortDirection: SortAsc,
		Page:          1,
		PageSize:      DefaultPageSize,
	}
}

// QueryResult is one page of a catalog query
type QueryResult struct {
	Items        []Product `json:"items"`
	TotalMatched int       `json:"total_matched"`
	Page         int       `json:"page"`
	PageSize     int       `json:"page_size"`
	TotalPages   int       `json:"total_pages"`
}

// CategorySummary is a category as shown in the storefront navigation
type CategorySummary struct {
	Slug         string `json:"slug"`
	Name         string `json:"name"`
	ProductCount int    `json:"product_count"`
}

// PriceRange is the cheapest and most expensive price in a collection
type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// CatalogFacets contains the filter options available for a collection
type CatalogFacets struct {
	Categories []CategorySummary `json:"categories"`
	Brands     []string          `json:"brands"`
	PriceRange PriceRange        `json:"price_range"`
	InStock    int               `json:"in_stock"`
	OutOfStock int               `json:"out_of_stock"`
}
