package campesina

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWiresEverything(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]interface{}{})
	}))
	t.Cleanup(server.Close)

	client, err := New(
		WithBaseURL(server.URL),
		WithStorageProvider("memory"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close(context.Background()) })

	require.NotNil(t, client.Cart)
	require.NotNil(t, client.Orders)
	require.NotNil(t, client.Checkout)
	require.NotNil(t, client.Notify)
	require.NotNil(t, client.Stream)
	require.NotNil(t, client.Inventory)
	require.NotNil(t, client.Catalog)
	require.NotNil(t, client.Auth)
	require.NotNil(t, client.API())
	require.NotNil(t, client.Tokens())

	assert.Equal(t, server.URL, client.Config().BaseURL)
}

func TestNewRequiresBaseURL(t *testing.T) {
	t.Setenv("CAMPESINA_API_URL", "")

	_, err := New(WithStorageProvider("memory"))
	require.Error(t, err)
}

func TestCartAndCheckoutShareState(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":     "order-1",
			"status": "PENDING",
			"paymentSession": map[string]string{
				"id":  "sess-1",
				"url": "https://pay.example.com/sess-1",
			},
		})
	}))
	t.Cleanup(server.Close)

	client, err := New(WithBaseURL(server.URL), WithStorageProvider("memory"))
	require.NoError(t, err)
	t.Cleanup(func() { client.Close(context.Background()) })

	ctx := context.Background()
	require.NoError(t, client.Cart.AddItem(ctx, ProductSnapshot{ID: "offer-1", Name: "Cafe", Price: 12}, 2))

	result, err := client.Checkout.Submit(ctx, "Vereda El Carmen")
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example.com/sess-1", result.RedirectURL)
	assert.Equal(t, 0, client.Cart.Len())
}

func TestCloseIsIdempotentOnStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	t.Cleanup(server.Close)

	client, err := New(WithBaseURL(server.URL), WithStorageProvider("memory"))
	require.NoError(t, err)

	// Close without ever starting the stream.
	require.NoError(t, client.Close(context.Background()))
}
