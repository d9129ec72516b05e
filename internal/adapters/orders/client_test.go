package orders_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/crushpad/terminal-service/internal/adapters/orders"
	"github.com/crushpad/terminal-service/internal/domain"
)

func testDetails() domain.OrderDetails {
	customerID := "cust-1"
	return domain.OrderDetails{
		WineryID:      "winery-1",
		CustomerID:    &customerID,
		ReferenceID:   "REF001",
		InvoiceNumber: "INV-42",
		Channel:       domain.ChannelTastingRoom,
		AmountCents:   4217,
		SubtotalCents: 3915,
		TaxCents:      302,
		Items: []domain.LineItem{
			{SKU: "PINOT-19", Name: "2019 Estate Pinot Noir", Quantity: 1, PriceCents: 3915},
		},
	}
}

func TestCreateOrder_SendsFullPayload(t *testing.T) {
	var received map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/orders", r.URL.Path)
		assert.Equal(t, "Bearer key-123", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"order_id":"ord-777"}`))
	}))
	defer server.Close()

	client := orders.NewClient(&orders.Config{BaseURL: server.URL, APIKey: "key-123"}, zap.NewNop())

	orderID, err := client.CreateOrder(context.Background(), testDetails())
	require.NoError(t, err)
	assert.Equal(t, "ord-777", orderID)

	assert.Equal(t, "winery-1", received["winery_id"])
	assert.Equal(t, "REF001", received["reference_id"])
	assert.Equal(t, "tasting_room", received["channel"])
	assert.Equal(t, float64(4217), received["amount_cents"])

	items, ok := received["items"].([]interface{})
	require.True(t, ok)
	require.Len(t, items, 1)
	item := items[0].(map[string]interface{})
	assert.Equal(t, "PINOT-19", item["sku"])
	assert.Equal(t, "2019 Estate Pinot Noir", item["name"])
	assert.Equal(t, float64(3915), item["price_cents"])
}

func TestCreateOrder_NonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := orders.NewClient(&orders.Config{BaseURL: server.URL}, zap.NewNop())

	_, err := client.CreateOrder(context.Background(), testDetails())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestCreateOrder_EmptyOrderID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := orders.NewClient(&orders.Config{BaseURL: server.URL}, zap.NewNop())

	_, err := client.CreateOrder(context.Background(), testDetails())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty order id")
}

func TestCreateOrder_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"order_id":"ord-777"}`))
	}))
	defer server.Close()

	client := orders.NewClient(&orders.Config{BaseURL: server.URL}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.CreateOrder(ctx, testDetails())
	require.Error(t, err)
}
