package orders

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dani-agudelo/conexion-campesina-go/cart"
	"github.com/dani-agudelo/conexion-campesina-go/core"
)

func newCheckoutFixture(t *testing.T, handler http.Handler) (*Checkout, *cart.Store, *int64) {
	t.Helper()

	var requests int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&requests, 1)
		handler.ServeHTTP(w, r)
	}))
	t.Cleanup(server.Close)

	cartStore, err := cart.NewStore(context.Background(), core.NewMemoryStorage(), nil)
	require.NoError(t, err)

	cfg, err := core.NewConfig(core.WithBaseURL(server.URL))
	require.NoError(t, err)

	checkout := NewCheckout(cartStore, NewClient(core.NewAPIClient(cfg)))
	return checkout, cartStore, &requests
}

func fillCart(t *testing.T, store *cart.Store) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.AddItem(ctx, cart.ProductSnapshot{ID: "offer-1", Name: "Cafe", Price: 12.0}, 2))
	require.NoError(t, store.AddItem(ctx, cart.ProductSnapshot{ID: "offer-2", Name: "Panela", Price: 3.5}, 4))
}

func TestCheckoutSuccessClearsCart(t *testing.T) {
	var received CreateRequest
	checkout, cartStore, _ := newCheckoutFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":     "order-1",
			"status": "PENDING",
			"paymentSession": map[string]string{
				"id":  "sess-1",
				"url": "https://pay.example.com/sess-1",
			},
		})
	}))
	fillCart(t, cartStore)

	result, err := checkout.Submit(context.Background(), "  Finca La Esperanza  ")
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example.com/sess-1", result.RedirectURL)
	assert.Equal(t, "order-1", result.Order.ID)

	// Address is trimmed and totals derive from the cart lines.
	assert.Equal(t, "Finca La Esperanza", received.Address)
	assert.Equal(t, StatusPending, received.Status)
	assert.InDelta(t, 38.0, received.TotalAmount, 1e-9)
	assert.Equal(t, 6, received.TotalItems)
	require.Len(t, received.OrderDetails, 2)
	assert.InDelta(t, 24.0, received.OrderDetails[0].Subtotal, 1e-9)

	assert.Equal(t, 0, cartStore.Len(), "cart should be empty after a successful checkout")
}

func TestCheckoutEmptyAddressMakesNoRequest(t *testing.T) {
	checkout, cartStore, requests := newCheckoutFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request should reach the server")
	}))
	fillCart(t, cartStore)

	for _, address := range []string{"", "   ", "\t\n"} {
		_, err := checkout.Submit(context.Background(), address)
		require.ErrorIs(t, err, core.ErrEmptyAddress)
	}

	assert.Equal(t, int64(0), atomic.LoadInt64(requests))
	assert.Equal(t, 2, cartStore.Len(), "cart must be untouched after a validation failure")
}

func TestCheckoutEmptyCartMakesNoRequest(t *testing.T) {
	checkout, _, requests := newCheckoutFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request should reach the server")
	}))

	_, err := checkout.Submit(context.Background(), "Finca La Esperanza")
	require.ErrorIs(t, err, core.ErrEmptyCart)
	assert.Equal(t, int64(0), atomic.LoadInt64(requests))
}

func TestCheckoutMissingPaymentSessionKeepsCart(t *testing.T) {
	checkout, cartStore, _ := newCheckoutFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":     "order-1",
			"status": "PENDING",
		})
	}))
	fillCart(t, cartStore)

	_, err := checkout.Submit(context.Background(), "Finca La Esperanza")
	require.ErrorIs(t, err, core.ErrNoPaymentSession)
	assert.False(t, core.IsRetryable(err), "missing payment session must not be presented as retryable")
	assert.Equal(t, 2, cartStore.Len(), "cart must survive a semantic failure")
}

func TestCheckoutEmptyPaymentURLKeepsCart(t *testing.T) {
	checkout, cartStore, _ := newCheckoutFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":             "order-1",
			"status":         "PENDING",
			"paymentSession": map[string]string{"id": "sess-1", "url": ""},
		})
	}))
	fillCart(t, cartStore)

	_, err := checkout.Submit(context.Background(), "Finca La Esperanza")
	require.ErrorIs(t, err, core.ErrNoPaymentSession)
	assert.Equal(t, 2, cartStore.Len())
}

func TestCheckoutServerErrorKeepsCart(t *testing.T) {
	checkout, cartStore, _ := newCheckoutFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "insufficient stock for offer-1", http.StatusConflict)
	}))
	fillCart(t, cartStore)

	_, err := checkout.Submit(context.Background(), "Finca La Esperanza")
	require.Error(t, err)

	var httpErr *core.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Contains(t, err.Error(), "insufficient stock")
	assert.Equal(t, 2, cartStore.Len())
}

func TestBuildDraftMergedLines(t *testing.T) {
	checkout, cartStore, _ := newCheckoutFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	ctx := context.Background()
	require.NoError(t, cartStore.AddItem(ctx, cart.ProductSnapshot{ID: "offer-1", Price: 10}, 1))
	require.NoError(t, cartStore.AddItem(ctx, cart.ProductSnapshot{ID: "offer-1", Price: 10}, 2))

	draft := checkout.BuildDraft("Plaza de mercado")
	require.Len(t, draft.OrderDetails, 1, "repeated offers merge into one line")
	assert.Equal(t, 3, draft.OrderDetails[0].Quantity)
	assert.InDelta(t, 30.0, draft.TotalAmount, 1e-9)
	assert.Equal(t, 3, draft.TotalItems)
}
