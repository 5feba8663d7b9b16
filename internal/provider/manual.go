package provider

import (
	"context"

	"github.com/google/uuid"
)

// ManualClient is the no-op implementation for items fulfilled by hand.
// Registering it (rather than special-casing nil) keeps all call sites
// uniform: confirming a manual draft order is simply instant success.
type ManualClient struct{}

// NewManualClient creates the manual fulfillment client.
func NewManualClient() *ManualClient {
	return &ManualClient{}
}

// Name returns the provider name.
func (c *ManualClient) Name() string {
	return "manual"
}

// ConfirmOrder is a no-op; manual orders need no remote confirmation.
func (c *ManualClient) ConfirmOrder(_ context.Context, _ string) error {
	return nil
}

// CancelOrder is a no-op; there is nothing remote to cancel.
func (c *ManualClient) CancelOrder(_ context.Context, _ string) error {
	return nil
}

// CreateOrder returns a locally generated draft id.
func (c *ManualClient) CreateOrder(_ context.Context, _ *OrderInput) (*OrderResult, error) {
	return &OrderResult{
		ProviderOrderID: "manual_" + uuid.New().String(),
		Status:          "draft",
	}, nil
}

// GetProducts returns nothing; manual items are not synced from a catalog.
func (c *ManualClient) GetProducts(_ context.Context) ([]Product, error) {
	return nil, nil
}
