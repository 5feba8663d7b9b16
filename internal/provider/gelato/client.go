package gelato

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/NEARBuilders/near-merch-store-sub000/internal/provider"
	"github.com/NEARBuilders/near-merch-store-sub000/pkg/httpclient"
)

const defaultBaseURL = "https://order.gelatoapis.com/v4"

// Client talks to the Gelato REST API. Like the Printful client it is
// wrapped in a circuit breaker keyed by provider name.
type Client struct {
	http    *httpclient.CircuitBreakerClient
	baseURL string
	apiKey  string
}

// NewClient creates a Gelato client. baseURL is overridable for tests;
// pass "" for the production endpoint.
func NewClient(apiKey, baseURL string, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	cb := httpclient.NewCircuitBreakerClient(
		httpclient.New(httpclient.DefaultConfig()),
		httpclient.DefaultCircuitBreakerConfig("gelato"),
		logger,
	)
	return &Client{http: cb, baseURL: baseURL, apiKey: apiKey}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return "gelato"
}

func (c *Client) do(ctx context.Context, method, path string, payload any) (*http.Response, error) {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal gelato request: %w", err)
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create gelato request: %w", err)
	}
	req.Header.Set("X-API-KEY", c.apiKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, httpclient.ParseResponseError(resp, "gelato")
	}
	return resp, nil
}

// ConfirmOrder promotes a draft order to a production order.
func (c *Client) ConfirmOrder(ctx context.Context, draftOrderID string) error {
	resp, err := c.do(ctx, http.MethodPatch, "/orders/"+draftOrderID, map[string]string{
		"orderType": "order",
	})
	if err != nil {
		return fmt.Errorf("confirm gelato order %s: %w", draftOrderID, err)
	}
	_ = resp.Body.Close()
	return nil
}

// CancelOrder deletes a draft order. Gelato only allows DELETE while the
// order is still a draft, which is the only state the cleanup job touches.
func (c *Client) CancelOrder(ctx context.Context, draftOrderID string) error {
	resp, err := c.do(ctx, http.MethodDelete, "/orders/"+draftOrderID, nil)
	if err != nil {
		return fmt.Errorf("cancel gelato order %s: %w", draftOrderID, err)
	}
	_ = resp.Body.Close()
	return nil
}

type orderResponse struct {
	ID                string `json:"id"`
	OrderType         string `json:"orderType"`
	FulfillmentStatus string `json:"fulfillmentStatus"`
}

// CreateOrder creates a draft order with Gelato.
func (c *Client) CreateOrder(ctx context.Context, input *provider.OrderInput) (*provider.OrderResult, error) {
	items := make([]map[string]any, 0, len(input.Items))
	for _, it := range input.Items {
		items = append(items, map[string]any{
			"productUid": it.VariantID,
			"quantity":   it.Quantity,
		})
	}
	resp, err := c.do(ctx, http.MethodPost, "/orders", map[string]any{
		"orderType":        "draft",
		"orderReferenceId": input.ExternalID,
		"items":            items,
		"shippingAddress": map[string]any{
			"name":         input.Recipient.Name,
			"email":        input.Recipient.Email,
			"addressLine1": input.Recipient.AddressLine,
			"city":         input.Recipient.City,
			"postCode":     input.Recipient.PostalCode,
			"country":      input.Recipient.CountryCode,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create gelato order: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var decoded orderResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode gelato order response: %w", err)
	}
	return &provider.OrderResult{
		ProviderOrderID: decoded.ID,
		Status:          decoded.FulfillmentStatus,
	}, nil
}

type productsResponse struct {
	Products []struct {
		UID      string `json:"productUid"`
		Title    string `json:"title"`
		ImageURL string `json:"previewUrl"`
		Variants []struct {
			UID      string `json:"variantUid"`
			Title    string `json:"title"`
			Price    int64  `json:"price"`
			Currency string `json:"currency"`
			InStock  bool   `json:"inStock"`
		} `json:"variants"`
	} `json:"products"`
}

// GetProducts fetches the store catalog.
func (c *Client) GetProducts(ctx context.Context) ([]provider.Product, error) {
	resp, err := c.do(ctx, http.MethodGet, "/products", nil)
	if err != nil {
		return nil, fmt.Errorf("list gelato products: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var decoded productsResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode gelato products: %w", err)
	}

	products := make([]provider.Product, 0, len(decoded.Products))
	for _, p := range decoded.Products {
		product := provider.Product{
			ID:       p.UID,
			Provider: c.Name(),
			Name:     p.Title,
			ImageURL: p.ImageURL,
		}
		for _, v := range p.Variants {
			product.Variants = append(product.Variants, provider.Variant{
				ID:       v.UID,
				Name:     v.Title,
				Price:    v.Price,
				Currency: v.Currency,
				InStock:  v.InStock,
			})
		}
		products = append(products, product)
	}
	return products, nil
}
