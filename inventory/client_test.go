package inventory

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dani-agudelo/conexion-campesina-go/core"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *int64) {
	t.Helper()

	var requests int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&requests, 1)
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	cfg, err := core.NewConfig(core.WithBaseURL(server.URL))
	require.NoError(t, err)

	return NewClient(core.NewAPIClient(cfg)), &requests
}

func TestListForProducerTranslatesWireFields(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/inventory/producer", r.URL.Path)
		json.NewEncoder(w).Encode([]map[string]interface{}{
			{
				"id":                 "inv-1",
				"name":               "Cafe de origen",
				"available_quantity": 35.456,
				"minimum_threshold":  10,
				"maximum_capacity":   100,
				"unit":               "KILOGRAMO",
			},
			{
				"id":                 "inv-2",
				"available_quantity": 3,
				"minimum_threshold":  1,
				"maximum_capacity":   12,
				"unit":               "DOCENA",
			},
		})
	})

	items, err := client.ListForProducer(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)

	first := items[0]
	assert.Equal(t, "inv-1", first.ID)
	assert.Equal(t, "Cafe de origen", first.Name)
	assert.InDelta(t, 35.46, first.Available, 1e-9, "quantity rounds to two decimals")
	assert.Equal(t, 10.0, first.MinThreshold)
	assert.Equal(t, 100.0, first.MaxCapacity)
	assert.Equal(t, "kg", first.Unit)
	assert.Equal(t, StatusMedium, first.Gauge().Status)

	second := items[1]
	assert.Equal(t, "Producto sin nombre", second.Name, "missing name gets the placeholder")
	assert.Equal(t, "docena", second.Unit)
}

func TestCreateSendsWireFields(t *testing.T) {
	var received map[string]interface{}
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/inventory", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":                 "inv-9",
			"name":               "Panela",
			"available_quantity": 20,
			"minimum_threshold":  5,
			"maximum_capacity":   50,
			"unit":               "LIBRA",
		})
	})

	item, err := client.Create(context.Background(), UpsertRequest{
		ProductID:    "prod-1",
		Quantity:     20,
		Unit:         "LIBRA",
		MinThreshold: 5,
		MaxCapacity:  50,
	})
	require.NoError(t, err)
	assert.Equal(t, "inv-9", item.ID)
	assert.Equal(t, "libra", item.Unit)

	assert.Equal(t, "prod-1", received["product_id"])
	assert.Equal(t, 20.0, received["available_quantity"])
	assert.Equal(t, 5.0, received["minimum_threshold"])
	assert.Equal(t, 50.0, received["maximum_capacity"])
	assert.Equal(t, "LIBRA", received["unit"])
}

func TestCreateValidationMakesNoRequest(t *testing.T) {
	client, requests := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request should reach the server")
	})

	invalid := []UpsertRequest{
		{Quantity: 0, Unit: "LIBRA", MinThreshold: 1, MaxCapacity: 10},
		{Quantity: 5, Unit: "", MinThreshold: 1, MaxCapacity: 10},
		{Quantity: 5, Unit: "LIBRA", MinThreshold: -1, MaxCapacity: 10},
		{Quantity: 5, Unit: "LIBRA", MinThreshold: 1, MaxCapacity: 0},
		{Quantity: 5, Unit: "LIBRA", MinThreshold: 10, MaxCapacity: 10},
		{Quantity: 50, Unit: "LIBRA", MinThreshold: 1, MaxCapacity: 10},
	}
	for _, req := range invalid {
		_, err := client.Create(context.Background(), req)
		require.ErrorIs(t, err, ErrInvalidItem)
	}

	assert.Equal(t, int64(0), atomic.LoadInt64(requests))
}

func TestUpdate(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/inventory/inv-3", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":                 "inv-3",
			"available_quantity": 8,
			"minimum_threshold":  2,
			"maximum_capacity":   10,
			"unit":               "SACO",
		})
	})

	item, err := client.Update(context.Background(), "inv-3", UpsertRequest{
		Quantity:     8,
		Unit:         "SACO",
		MinThreshold: 2,
		MaxCapacity:  10,
	})
	require.NoError(t, err)
	assert.Equal(t, StatusHigh, item.Gauge().Status)
}

func TestDelete(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		require.Equal(t, "/inventory/inv-4", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, client.Delete(context.Background(), "inv-4"))
}

func TestListServerError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "inventario no disponible", http.StatusInternalServerError)
	})

	_, err := client.ListForProducer(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "inventario no disponible")
}
