package printful

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NEARBuilders/near-merch-store-sub000/internal/provider"
	"github.com/NEARBuilders/near-merch-store-sub000/pkg/httpclient"
	"github.com/NEARBuilders/near-merch-store-sub000/pkg/logger"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient("test-key", srv.URL, logger.New("printful-test", "error"))
}

func TestConfirmOrder_Success(t *testing.T) {
	var gotPath, gotAuth string
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"result": {"id": 42, "status": "pending"}}`))
	}))

	err := c.ConfirmOrder(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, "/orders/42/confirm", gotPath)
	assert.Equal(t, "Bearer test-key", gotAuth)
}

func TestConfirmOrder_APIError(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": {"message": "order already confirmed"}}`))
	}))

	err := c.ConfirmOrder(context.Background(), "42")
	require.Error(t, err)
	var statusErr *httpclient.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadRequest, statusErr.StatusCode)
}

func TestCancelOrder_DeletesDraft(t *testing.T) {
	var gotMethod, gotPath string
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))

	require.NoError(t, c.CancelOrder(context.Background(), "42"))
	assert.Equal(t, http.MethodDelete, gotMethod)
	assert.Equal(t, "/orders/42", gotPath)
}

func TestCreateOrder_SendsExternalID(t *testing.T) {
	var body map[string]any
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = w.Write([]byte(`{"result": {"id": 1001, "status": "draft"}}`))
	}))

	res, err := c.CreateOrder(context.Background(), &provider.OrderInput{
		ExternalID: "ord_9",
		Items:      []provider.OrderItem{{VariantID: "v1", Quantity: 2}},
		Recipient:  provider.Recipient{Name: "Alex", CountryCode: "US"},
	})
	require.NoError(t, err)
	assert.Equal(t, "1001", res.ProviderOrderID)
	assert.Equal(t, "ord_9", body["external_id"])
}

func TestGetProducts_ListAndDetail(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/store/products", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result": [{"id": 7, "name": "Tee"}]}`))
	})
	mux.HandleFunc("/store/products/7", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result": {
			"sync_product": {"id": 7, "name": "Tee", "thumbnail_url": "https://img.test/7.png"},
			"sync_variants": [
				{"id": 70, "name": "Tee / M", "sku": "TEE-M", "retail_price": "24.99", "currency": "USD", "synced": true}
			]
		}}`))
	})
	c := testClient(t, mux)

	products, err := c.GetProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "printful", products[0].Provider)
	require.Len(t, products[0].Variants, 1)
	assert.Equal(t, int64(2499), products[0].Variants[0].Price)
	assert.True(t, products[0].Variants[0].InStock)
}

func TestParsePriceMinorUnits(t *testing.T) {
	cases := map[string]int64{
		"24.99": 2499,
		"24.9":  2490,
		"24":    2400,
		"0.05":  5,
		"":      0,
		"abc":   0,
	}
	for in, want := range cases {
		assert.Equal(t, want, parsePriceMinorUnits(in), in)
	}
}
