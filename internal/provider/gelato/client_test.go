package gelato

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NEARBuilders/near-merch-store-sub000/internal/provider"
	"github.com/NEARBuilders/near-merch-store-sub000/pkg/logger"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient("test-key", srv.URL, logger.New("gelato-test", "error"))
}

func TestConfirmOrder_PatchesOrderType(t *testing.T) {
	var gotMethod, gotPath, gotKey string
	var body map[string]string
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotKey = r.Header.Get("X-API-KEY")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = w.Write([]byte(`{"id": "gl_1", "orderType": "order"}`))
	}))

	require.NoError(t, c.ConfirmOrder(context.Background(), "gl_1"))
	assert.Equal(t, http.MethodPatch, gotMethod)
	assert.Equal(t, "/orders/gl_1", gotPath)
	assert.Equal(t, "test-key", gotKey)
	assert.Equal(t, "order", body["orderType"])
}

func TestCancelOrder_DeletesDraft(t *testing.T) {
	var gotMethod, gotPath string
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))

	require.NoError(t, c.CancelOrder(context.Background(), "gl_1"))
	assert.Equal(t, http.MethodDelete, gotMethod)
	assert.Equal(t, "/orders/gl_1", gotPath)
}

func TestCreateOrder_Draft(t *testing.T) {
	var body map[string]any
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = w.Write([]byte(`{"id": "gl_9", "orderType": "draft", "fulfillmentStatus": "created"}`))
	}))

	res, err := c.CreateOrder(context.Background(), &provider.OrderInput{
		ExternalID: "ord_3",
		Items:      []provider.OrderItem{{VariantID: "uid-1", Quantity: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, "gl_9", res.ProviderOrderID)
	assert.Equal(t, "draft", body["orderType"])
	assert.Equal(t, "ord_3", body["orderReferenceId"])
}

func TestGetProducts(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"products": [{
			"productUid": "mug-11oz",
			"title": "Mug",
			"variants": [{"variantUid": "mug-11oz-white", "title": "White", "price": 1250, "currency": "EUR", "inStock": true}]
		}]}`))
	}))

	products, err := c.GetProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "gelato", products[0].Provider)
	require.Len(t, products[0].Variants, 1)
	assert.Equal(t, int64(1250), products[0].Variants[0].Price)
}

func TestCreateOrder_APIError(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message": "invalid productUid"}`))
	}))

	_, err := c.CreateOrder(context.Background(), &provider.OrderInput{ExternalID: "x"})
	assert.Error(t, err)
}
