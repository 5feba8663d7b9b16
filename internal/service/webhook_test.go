package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/NEARBuilders/near-merch-store-sub000/internal/domain"
	"github.com/NEARBuilders/near-merch-store-sub000/internal/provider"
	"github.com/NEARBuilders/near-merch-store-sub000/internal/repository"
	apperrors "github.com/NEARBuilders/near-merch-store-sub000/pkg/errors"
	"github.com/NEARBuilders/near-merch-store-sub000/pkg/retry"
)

// --- Mock Repositories ---

type mockOrderRepository struct {
	mock.Mock
}

func (m *mockOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *mockOrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderRepository) GetByExternalID(ctx context.Context, externalID string) (*domain.Order, error) {
	args := m.Called(ctx, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderRepository) GetByCheckoutSession(ctx context.Context, sessionID string) (*domain.Order, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderRepository) List(ctx context.Context, filter repository.OrderFilter) ([]domain.Order, int, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Order), args.Int(1), args.Error(2)
}

func (m *mockOrderRepository) ListStaleDrafts(ctx context.Context, cutoff time.Time) ([]domain.Order, error) {
	args := m.Called(ctx, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Order), args.Error(1)
}

func (m *mockOrderRepository) UpdateStatus(ctx context.Context, id string, status string) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *mockOrderRepository) UpdateTracking(ctx context.Context, id string, tracking []domain.TrackingRecord) error {
	args := m.Called(ctx, id, tracking)
	return args.Error(0)
}

// --- Mock Provider Client ---

type mockProviderClient struct {
	mock.Mock
	name string
}

func (m *mockProviderClient) Name() string {
	return m.name
}

func (m *mockProviderClient) ConfirmOrder(ctx context.Context, draftOrderID string) error {
	args := m.Called(ctx, draftOrderID)
	return args.Error(0)
}

func (m *mockProviderClient) CancelOrder(ctx context.Context, draftOrderID string) error {
	args := m.Called(ctx, draftOrderID)
	return args.Error(0)
}

func (m *mockProviderClient) CreateOrder(ctx context.Context, input *provider.OrderInput) (*provider.OrderResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.OrderResult), args.Error(1)
}

func (m *mockProviderClient) GetProducts(ctx context.Context) ([]provider.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]provider.Product), args.Error(1)
}

// --- Test Helpers ---

const testWebhookSecret = "00112233445566778899aabbccddeeff"

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func fastRetry() retry.Config {
	return retry.Config{MaxAttempts: 3, BaseDelay: time.Millisecond, Multiplier: 2.0}
}

func newWebhookService(repo *mockOrderRepository, clients ...provider.Client) *WebhookService {
	return NewWebhookService(
		repo,
		provider.NewRegistry(clients...),
		nil, // no event producer in unit tests
		WebhookSecrets{Printful: testWebhookSecret, Gelato: testWebhookSecret, PingPay: testWebhookSecret},
		fastRetry(),
		newTestLogger(),
	)
}

func sign(t *testing.T, body []byte) string {
	t.Helper()
	secret, err := hex.DecodeString(testWebhookSecret)
	require.NoError(t, err)
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func fulfillmentOrder(status string) *domain.Order {
	return &domain.Order{
		ID:                "order-001",
		ExternalID:        "ext-001",
		CheckoutSessionID: "cs-001",
		Status:            status,
	}
}

// --- Fulfillment Webhooks ---

func TestFulfillmentWebhook_ShipmentSent_PersistsStatusAndTracking(t *testing.T) {
	repo := new(mockOrderRepository)
	svc := newWebhookService(repo)
	ctx := context.Background()

	body := []byte(`{"type": "shipment_sent", "data": {"order": {"external_id": "ext-001"}, "shipment": {"tracking_number": "PF1", "tracking_url": "https://t/PF1", "carrier": "DHL"}}}`)

	repo.On("GetByExternalID", ctx, "ext-001").Return(fulfillmentOrder(domain.OrderStatusProcessing), nil)
	repo.On("UpdateStatus", ctx, "order-001", domain.OrderStatusShipped).Return(nil)
	repo.On("UpdateTracking", ctx, "order-001", []domain.TrackingRecord{
		{Code: "PF1", URL: "https://t/PF1", Carrier: "DHL"},
	}).Return(nil)

	err := svc.HandleFulfillmentWebhook(ctx, "printful", body, sign(t, body))
	assert.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestFulfillmentWebhook_RemoveHoldGuard_NoWrites(t *testing.T) {
	repo := new(mockOrderRepository)
	svc := newWebhookService(repo)
	ctx := context.Background()

	body := []byte(`{"type": "shipment_remove_hold", "data": {"order": {"external_id": "ext-001"}}}`)
	repo.On("GetByExternalID", ctx, "ext-001").Return(fulfillmentOrder(domain.OrderStatusShipped), nil)

	err := svc.HandleFulfillmentWebhook(ctx, "printful", body, sign(t, body))
	assert.NoError(t, err)
	repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "UpdateTracking", mock.Anything, mock.Anything, mock.Anything)
}

func TestFulfillmentWebhook_BadSignature_Unauthorized(t *testing.T) {
	repo := new(mockOrderRepository)
	svc := newWebhookService(repo)

	body := []byte(`{"type": "shipment_sent"}`)
	err := svc.HandleFulfillmentWebhook(context.Background(), "printful", body, "deadbeef")
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, apperrors.HTTPStatus(err))
	// Never reaches order resolution.
	repo.AssertNotCalled(t, "GetByExternalID", mock.Anything, mock.Anything)
}

func TestFulfillmentWebhook_MissingSignature_Unauthorized(t *testing.T) {
	repo := new(mockOrderRepository)
	svc := newWebhookService(repo)

	err := svc.HandleFulfillmentWebhook(context.Background(), "printful", []byte(`{}`), "")
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, apperrors.HTTPStatus(err))
}

func TestFulfillmentWebhook_UnresolvableOrder_AckNoWrites(t *testing.T) {
	repo := new(mockOrderRepository)
	svc := newWebhookService(repo)
	ctx := context.Background()

	body := []byte(`{"type": "shipment_delivered", "data": {"order": {"external_id": "ext-missing"}}}`)
	repo.On("GetByExternalID", ctx, "ext-missing").Return(nil, apperrors.ErrNotFound)

	err := svc.HandleFulfillmentWebhook(ctx, "printful", body, sign(t, body))
	assert.NoError(t, err)
	repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "UpdateTracking", mock.Anything, mock.Anything, mock.Anything)
}

func TestFulfillmentWebhook_MalformedBody_Acked(t *testing.T) {
	repo := new(mockOrderRepository)
	svc := newWebhookService(repo)

	body := []byte(`{"type": "ship`)
	err := svc.HandleFulfillmentWebhook(context.Background(), "printful", body, sign(t, body))
	assert.NoError(t, err)
	repo.AssertNotCalled(t, "GetByExternalID", mock.Anything, mock.Anything)
}

func TestFulfillmentWebhook_GelatoShipped(t *testing.T) {
	repo := new(mockOrderRepository)
	svc := newWebhookService(repo)
	ctx := context.Background()

	body := []byte(`{"event": "order_status_updated", "orderReferenceId": "ext-001", "fulfillmentStatus": "delivered"}`)
	repo.On("GetByExternalID", ctx, "ext-001").Return(fulfillmentOrder(domain.OrderStatusShipped), nil)
	repo.On("UpdateStatus", ctx, "order-001", domain.OrderStatusDelivered).Return(nil)

	err := svc.HandleFulfillmentWebhook(ctx, "gelato", body, sign(t, body))
	assert.NoError(t, err)
	repo.AssertExpectations(t)
}

// --- Payment Webhooks ---

func paymentOrder(status string, drafts map[string]string) *domain.Order {
	o := fulfillmentOrder(status)
	o.DraftOrderIDs = drafts
	return o
}

func successBody() []byte {
	return []byte(`{"event": "payment.success", "data": {"order_id": "order-001"}}`)
}

func TestPaymentWebhook_Success_AllProvidersConfirm(t *testing.T) {
	repo := new(mockOrderRepository)
	printful := &mockProviderClient{name: "printful"}
	svc := newWebhookService(repo, printful)
	ctx := context.Background()

	order := paymentOrder(domain.OrderStatusDraftCreated, map[string]string{
		"printful": "pf-42",
		"manual":   "manual-1",
	})
	repo.On("GetByID", ctx, "order-001").Return(order, nil)
	repo.On("UpdateStatus", ctx, "order-001", domain.OrderStatusPaid).Return(nil)
	printful.On("ConfirmOrder", mock.Anything, "pf-42").Return(nil)
	repo.On("UpdateStatus", ctx, "order-001", domain.OrderStatusProcessing).Return(nil)

	body := successBody()
	err := svc.HandlePaymentWebhook(ctx, body, sign(t, body))
	assert.NoError(t, err)
	repo.AssertExpectations(t)
	printful.AssertExpectations(t)
	// Manual drafts never hit a remote client.
	printful.AssertNumberOfCalls(t, "ConfirmOrder", 1)
}

func TestPaymentWebhook_ReplayOnProcessing_NoOp(t *testing.T) {
	repo := new(mockOrderRepository)
	printful := &mockProviderClient{name: "printful"}
	svc := newWebhookService(repo, printful)
	ctx := context.Background()

	order := paymentOrder(domain.OrderStatusProcessing, map[string]string{"printful": "pf-42"})
	repo.On("GetByID", ctx, "order-001").Return(order, nil)

	body := successBody()
	err := svc.HandlePaymentWebhook(ctx, body, sign(t, body))
	assert.NoError(t, err)
	repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	printful.AssertNotCalled(t, "ConfirmOrder", mock.Anything, mock.Anything)
}

func TestPaymentWebhook_PartialConfirmation_PaidPendingFulfillment(t *testing.T) {
	repo := new(mockOrderRepository)
	printful := &mockProviderClient{name: "printful"}
	gelato := &mockProviderClient{name: "gelato"}
	svc := newWebhookService(repo, printful, gelato)
	ctx := context.Background()

	order := paymentOrder(domain.OrderStatusPaymentPending, map[string]string{
		"printful": "pf-42",
		"gelato":   "gl-7",
	})
	repo.On("GetByID", ctx, "order-001").Return(order, nil)
	repo.On("UpdateStatus", ctx, "order-001", domain.OrderStatusPaid).Return(nil)
	printful.On("ConfirmOrder", mock.Anything, "pf-42").Return(nil)
	gelato.On("ConfirmOrder", mock.Anything, "gl-7").Return(errors.New("gelato returned status 500"))
	repo.On("UpdateStatus", ctx, "order-001", domain.OrderStatusPaidPendingFulfillment).Return(nil)

	body := successBody()
	err := svc.HandlePaymentWebhook(ctx, body, sign(t, body))
	assert.NoError(t, err)
	repo.AssertExpectations(t)
	// The failing provider is retried to exhaustion: 3 attempts.
	gelato.AssertNumberOfCalls(t, "ConfirmOrder", 3)
	// The healthy provider is still confirmed despite the other failing.
	printful.AssertNumberOfCalls(t, "ConfirmOrder", 1)
}

func TestPaymentWebhook_Failed_SetsPaymentFailed(t *testing.T) {
	repo := new(mockOrderRepository)
	svc := newWebhookService(repo)
	ctx := context.Background()

	order := paymentOrder(domain.OrderStatusPaymentPending, nil)
	repo.On("GetByCheckoutSession", ctx, "cs-001").Return(order, nil)
	repo.On("UpdateStatus", ctx, "order-001", domain.OrderStatusPaymentFailed).Return(nil)

	body := []byte(`{"event": "payment.failed", "data": {"session_id": "cs-001"}}`)
	err := svc.HandlePaymentWebhook(ctx, body, sign(t, body))
	assert.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestPaymentWebhook_SessionFallbackLookup(t *testing.T) {
	repo := new(mockOrderRepository)
	svc := newWebhookService(repo)
	ctx := context.Background()

	order := paymentOrder(domain.OrderStatusPending, nil)
	repo.On("GetByID", ctx, "order-001").Return(nil, apperrors.ErrNotFound)
	repo.On("GetByCheckoutSession", ctx, "cs-001").Return(order, nil)
	repo.On("UpdateStatus", ctx, "order-001", domain.OrderStatusPaid).Return(nil)
	repo.On("UpdateStatus", ctx, "order-001", domain.OrderStatusProcessing).Return(nil)

	body := []byte(`{"event": "checkout.session.completed", "data": {"order_id": "order-001", "session_id": "cs-001"}}`)
	err := svc.HandlePaymentWebhook(ctx, body, sign(t, body))
	assert.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestPaymentWebhook_UnresolvableOrder_AckNoWrites(t *testing.T) {
	repo := new(mockOrderRepository)
	svc := newWebhookService(repo)
	ctx := context.Background()

	repo.On("GetByCheckoutSession", ctx, "cs-missing").Return(nil, apperrors.ErrNotFound)

	body := []byte(`{"event": "payment.success", "data": {"session_id": "cs-missing"}}`)
	err := svc.HandlePaymentWebhook(ctx, body, sign(t, body))
	assert.NoError(t, err)
	repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestPaymentWebhook_UnknownProviderInDrafts_Partial(t *testing.T) {
	repo := new(mockOrderRepository)
	svc := newWebhookService(repo) // registry is empty
	ctx := context.Background()

	order := paymentOrder(domain.OrderStatusDraftCreated, map[string]string{"printful": "pf-42"})
	repo.On("GetByID", ctx, "order-001").Return(order, nil)
	repo.On("UpdateStatus", ctx, "order-001", domain.OrderStatusPaid).Return(nil)
	repo.On("UpdateStatus", ctx, "order-001", domain.OrderStatusPaidPendingFulfillment).Return(nil)

	body := successBody()
	err := svc.HandlePaymentWebhook(ctx, body, sign(t, body))
	assert.NoError(t, err)
	repo.AssertExpectations(t)
}
