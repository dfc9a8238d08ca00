package notify

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dani-agudelo/conexion-campesina-go/core"
)

func signedToken(t *testing.T, role string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":  "user-1",
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func newStreamFixture(t *testing.T, role string, handler http.HandlerFunc) (*Consumer, *Store) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg, err := core.NewConfig(core.WithBaseURL(server.URL))
	require.NoError(t, err)

	tokens, err := core.NewTokenStore(context.Background(), core.NewMemoryStorage(), nil)
	require.NoError(t, err)
	if role != "" {
		require.NoError(t, tokens.SetToken(context.Background(), signedToken(t, role)))
	}

	api := core.NewAPIClient(cfg, core.WithTokenStore(tokens))
	store := NewStore()
	consumer := NewConsumer(api, store, WithReconnectDelay(10*time.Millisecond))
	t.Cleanup(consumer.Stop)

	return consumer, store
}

func sseHandler(t *testing.T, frames []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))
		assert.Contains(t, r.Header.Get("Authorization"), "Bearer ")

		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		flusher := w.(http.Flusher)
		flusher.Flush()
		for _, frame := range frames {
			fmt.Fprintf(w, "%s\n\n", frame)
			flusher.Flush()
		}
		// Hold the stream open so the test controls shutdown.
		<-r.Context().Done()
	}
}

func TestConsumerRequiresToken(t *testing.T) {
	consumer, _ := newStreamFixture(t, "", func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no connection should be attempted")
	})

	err := consumer.Start(context.Background())
	require.ErrorIs(t, err, core.ErrTokenMissing)
	assert.Equal(t, StateDisconnected, consumer.State())
}

func TestConsumerRequiresProducerRole(t *testing.T) {
	consumer, _ := newStreamFixture(t, "CLIENT", func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no connection should be attempted")
	})

	err := consumer.Start(context.Background())
	require.ErrorIs(t, err, core.ErrNotAuthenticated)
}

func TestConsumerReceivesNotifications(t *testing.T) {
	consumer, store := newStreamFixture(t, "PRODUCER", sseHandler(t, []string{
		`data: {"type":"ping"}`,
		`data: {"id":"n1","type":"NEW_ORDER","orderId":"order-1"}`,
		`data: {"id":"n2","type":"LOW_STOCK","productOfferId":"offer-1"}`,
		`data: not-json-at-all`,
		`data: {"type":"UNKNOWN_KIND"}`,
	}))

	require.NoError(t, consumer.Start(context.Background()))

	require.Eventually(t, func() bool {
		return len(store.Notifications()) == 2
	}, 2*time.Second, 10*time.Millisecond)

	list := store.Notifications()
	assert.Equal(t, TypeLowStock, list[0].Type, "newest first")
	assert.Equal(t, "n2", list[0].ID)
	assert.Equal(t, TypeNewOrder, list[1].Type)
	assert.JSONEq(t, `{"id":"n1","type":"NEW_ORDER","orderId":"order-1"}`, string(list[1].Payload))
	assert.Equal(t, 2, store.UnreadCount())

	assert.Equal(t, StateConnected, consumer.State())
	assert.True(t, store.Connected())
}

func TestConsumerReconnectsAfterDrop(t *testing.T) {
	var connections int64
	handler := func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt64(&connections, 1)
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "data: {\"id\":\"n%d\",\"type\":\"NEW_ORDER\"}\n\n", n)
		w.(http.Flusher).Flush()
		// Returning closes the stream and forces a reconnect.
	}

	consumer, store := newStreamFixture(t, "PRODUCER", handler)
	require.NoError(t, consumer.Start(context.Background()))

	require.Eventually(t, func() bool {
		return atomic.LoadInt64(&connections) >= 2 && len(store.Notifications()) >= 2
	}, 5*time.Second, 10*time.Millisecond)
}

func TestConsumerStop(t *testing.T) {
	consumer, store := newStreamFixture(t, "PRODUCER", sseHandler(t, []string{
		`data: {"id":"n1","type":"NEW_ORDER"}`,
	}))

	require.NoError(t, consumer.Start(context.Background()))
	require.Eventually(t, func() bool {
		return consumer.State() == StateConnected
	}, 2*time.Second, 10*time.Millisecond)

	consumer.Stop()
	assert.Equal(t, StateDisconnected, consumer.State())
	assert.False(t, store.Connected())

	// A second Stop is harmless.
	consumer.Stop()
}

func TestConsumerStartTwice(t *testing.T) {
	consumer, _ := newStreamFixture(t, "PRODUCER", sseHandler(t, nil))

	require.NoError(t, consumer.Start(context.Background()))
	err := consumer.Start(context.Background())
	require.ErrorIs(t, err, core.ErrAlreadyStarted)
}

func TestConsumerStateTransitions(t *testing.T) {
	consumer, _ := newStreamFixture(t, "PRODUCER", sseHandler(t, nil))

	var seen atomic.Value
	seen.Store([]State{})
	consumer.OnStateChange(func(s State) {
		states, _ := seen.Load().([]State)
		seen.Store(append(states, s))
	})

	require.NoError(t, consumer.Start(context.Background()))
	require.Eventually(t, func() bool {
		return consumer.State() == StateConnected
	}, 2*time.Second, 10*time.Millisecond)
	consumer.Stop()

	states, _ := seen.Load().([]State)
	require.NotEmpty(t, states)
	assert.Equal(t, StateConnecting, states[0])
	assert.Contains(t, states, StateConnected)
	assert.Equal(t, StateDisconnected, states[len(states)-1])
}

func TestConsumerRetriesFailedConnect(t *testing.T) {
	var attempts int64
	handler := func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt64(&attempts, 1) == 1 {
			http.Error(w, "service warming up", http.StatusServiceUnavailable)
			return
		}
		sseHandler(t, []string{`data: {"id":"n1","type":"NEW_ORDER"}`})(w, r)
	}

	consumer, store := newStreamFixture(t, "PRODUCER", handler)
	require.NoError(t, consumer.Start(context.Background()))

	require.Eventually(t, func() bool {
		return len(store.Notifications()) == 1
	}, 5*time.Second, 10*time.Millisecond)
	assert.GreaterOrEqual(t, atomic.LoadInt64(&attempts), int64(2))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "disconnected", StateDisconnected.String())
	assert.Equal(t, "connecting", StateConnecting.String())
	assert.Equal(t, "connected", StateConnected.String())
	assert.Equal(t, "reconnecting", StateReconnecting.String())
	assert.Equal(t, "unknown", State(99).String())
}
