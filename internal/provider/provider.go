package provider

import (
	"context"
)

// Product is a normalized print-on-demand product as returned by a
// provider's catalog fetch.
type Product struct {
	ID          string    `json:"id"`
	Provider    string    `json:"provider"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	Variants    []Variant `json:"variants"`
}

// Variant is one orderable variant of a product.
type Variant struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	SKU      string `json:"sku,omitempty"`
	Price    int64  `json:"price"`
	Currency string `json:"currency"`
	InStock  bool   `json:"in_stock"`
}

// OrderInput holds the parameters for creating a provider-side order.
type OrderInput struct {
	ExternalID string
	Items      []OrderItem
	Recipient  Recipient
}

// OrderItem is one line of a provider-side order.
type OrderItem struct {
	VariantID string
	Quantity  int
}

// Recipient is the shipping destination for a provider-side order.
type Recipient struct {
	Name        string
	Email       string
	AddressLine string
	City        string
	PostalCode  string
	CountryCode string
}

// OrderResult holds the provider-side order handle.
type OrderResult struct {
	ProviderOrderID string
	Status          string
}

// Client defines the capability interface for fulfillment provider
// integrations.
type Client interface {
	// Name returns the provider name (e.g., "printful", "gelato", "manual").
	Name() string

	// ConfirmOrder confirms a previously created draft order for production.
	ConfirmOrder(ctx context.Context, draftOrderID string) error

	// CancelOrder cancels a draft order that will never be confirmed.
	CancelOrder(ctx context.Context, draftOrderID string) error

	// CreateOrder creates a draft order with the provider.
	CreateOrder(ctx context.Context, input *OrderInput) (*OrderResult, error)

	// GetProducts fetches the provider's synced product catalog.
	GetProducts(ctx context.Context) ([]Product, error)
}
