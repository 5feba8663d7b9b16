package printful

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

const defaultBaseURL = "https://api.printful.com"

// Client talks to the Printful REST API. All requests go through a
// circuit breaker so a Printful outage cannot pile up retries during a
// sync or payment confirmation burst.
type Client struct {
	http    *httpclient.CircuitBreakerClient
	baseURL string
	apiKey  string
}

// NewClient creates a Printful client. baseURL is overridable for tests;
// pass "" for the production endpoint.
func NewClient(apiKey, baseURL string, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	cb := httpclient.NewCircuitBreakerClient(
		httpclient.New(httpclient.DefaultConfig()),
		httpclient.DefaultCircuitBreakerConfig("printful"),
		logger,
	)
	return &Client{http: cb, baseURL: baseURL, apiKey: apiKey}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return "printful"
}

func (c *Client) newRequest(ctx context.Context, method, path string, body []byte) (*http.Request, error) {
	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create printful request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// ConfirmOrder confirms a draft order for fulfillment.
func (c *Client) ConfirmOrder(ctx context.Context, draftOrderID string) error {
	req, err := c.newRequest(ctx, http.MethodPost, "/orders/"+draftOrderID+"/confirm", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("confirm printful order %s: %w", draftOrderID, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 400 {
		return httpclient.ParseResponseError(resp, "printful")
	}
	return nil
}

// CancelOrder cancels a draft order. Printful exposes cancellation as a
// DELETE on the order resource.
func (c *Client) CancelOrder(ctx context.Context, draftOrderID string) error {
	req, err := c.newRequest(ctx, http.MethodDelete, "/orders/"+draftOrderID, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("cancel printful order %s: %w", draftOrderID, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 400 {
		return httpclient.ParseResponseError(resp, "printful")
	}
	return nil
}

type orderResponse struct {
	Result struct {
		ID     int64  `json:"id"`
		Status string `json:"status"`
	} `json:"result"`
}

// CreateOrder creates a draft order (unconfirmed) with Printful.
func (c *Client) CreateOrder(ctx context.Context, input *provider.OrderInput) (*provider.OrderResult, error) {
	items := make([]map[string]any, 0, len(input.Items))
	for _, it := range input.Items {
		items = append(items, map[string]any{
			"sync_variant_id": it.VariantID,
			"quantity":        it.Quantity,
		})
	}
	payload, err := json.Marshal(map[string]any{
		"external_id": input.ExternalID,
		"recipient": map[string]any{
			"name":         input.Recipient.Name,
			"email":        input.Recipient.Email,
			"address1":     input.Recipient.AddressLine,
			"city":         input.Recipient.City,
			"zip":          input.Recipient.PostalCode,
			"country_code": input.Recipient.CountryCode,
		},
		"items": items,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal printful order: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/orders", payload)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create printful order: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 400 {
		return nil, httpclient.ParseResponseError(resp, "printful")
	}

	var decoded orderResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode printful order response: %w", err)
	}
	return &provider.OrderResult{
		ProviderOrderID: fmt.Sprintf("%d", decoded.Result.ID),
		Status:          decoded.Result.Status,
	}, nil
}

type productListResponse struct {
	Result []struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	} `json:"result"`
}

type productDetailResponse struct {
	Result struct {
		SyncProduct struct {
			ID           int64  `json:"id"`
			Name         string `json:"name"`
			ThumbnailURL string `json:"thumbnail_url"`
		} `json:"sync_product"`
		SyncVariants []struct {
			ID          int64  `json:"id"`
			Name        string `json:"name"`
			SKU         string `json:"sku"`
			RetailPrice string `json:"retail_price"`
			Currency    string `json:"currency"`
			Synced      bool   `json:"synced"`
		} `json:"sync_variants"`
	} `json:"result"`
}

// GetProducts fetches the synced store catalog. The list endpoint only
// returns product stubs, so every product needs a detail call for its
// variants; details are fetched sequentially to stay inside Printful's
// rate limits.
func (c *Client) GetProducts(ctx context.Context) ([]provider.Product, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/store/products", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("list printful products: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, httpclient.ParseResponseError(resp, "printful")
	}

	var list productListResponse
	err = json.NewDecoder(resp.Body).Decode(&list)
	_ = resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("decode printful product list: %w", err)
	}

	products := make([]provider.Product, 0, len(list.Result))
	for _, stub := range list.Result {
		p, err := c.getProduct(ctx, stub.ID)
		if err != nil {
			return nil, fmt.Errorf("fetch printful product %d: %w", stub.ID, err)
		}
		products = append(products, *p)
	}
	return products, nil
}

func (c *Client) getProduct(ctx context.Context, id int64) (*provider.Product, error) {
	req, err := c.newRequest(ctx, http.MethodGet, fmt.Sprintf("/store/products/%d", id), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 400 {
		return nil, httpclient.ParseResponseError(resp, "printful")
	}

	var detail productDetailResponse
	if err := json.NewDecoder(resp.Body).Decode(&detail); err != nil {
		return nil, fmt.Errorf("decode printful product detail: %w", err)
	}

	product := &provider.Product{
		ID:       fmt.Sprintf("%d", detail.Result.SyncProduct.ID),
		Provider: c.Name(),
		Name:     detail.Result.SyncProduct.Name,
		ImageURL: detail.Result.SyncProduct.ThumbnailURL,
	}
	for _, v := range detail.Result.SyncVariants {
		product.Variants = append(product.Variants, provider.Variant{
			ID:       fmt.Sprintf("%d", v.ID),
			Name:     v.Name,
			SKU:      v.SKU,
			Price:    parsePriceMinorUnits(v.RetailPrice),
			Currency: v.Currency,
			InStock:  v.Synced,
		})
	}
	return product, nil
}
