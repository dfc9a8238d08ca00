// Package cart implements the client-side shopping cart: an in-memory
// list of line items keyed by product offer, persisted through the
// core Storage port on every mutation so the cart survives restarts.
// The store never performs network IO; stock and pricing authority
// stay server-side.
package cart

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/dani-agudelo/conexion-campesina-go/core"
)

// cartStorageKey is the fixed key the cart persists under.
const cartStorageKey = "cart"

// ProductSnapshot is the denormalized product data captured when an
// offer is added. It is never re-fetched; the cart renders from the
// snapshot even if the catalog changes afterwards.
type ProductSnapshot struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	ImageURL string  `json:"imageUrl"`
	Unit     string  `json:"unit"`
}

// LineItem is one cart line. There is at most one line per product
// offer; adding the same offer again increments Quantity instead of
// appending a duplicate. Price is the unit price captured at add
// time.
type LineItem struct {
	ProductOfferID string          `json:"productOfferId"`
	Product        ProductSnapshot `json:"product"`
	Quantity       int             `json:"quantity"`
	Price          float64         `json:"price"`
}

// Subtotal returns price times quantity for this line
func (l LineItem) Subtotal() float64 {
	return l.Price * float64(l.Quantity)
}

// cartState is the persisted document shape.
type cartState struct {
	Items []LineItem `json:"items"`
}

// Subscriber receives the full item list after every mutation.
type Subscriber func(items []LineItem)

// Store is the cart store. All mutations are synchronous: they apply
// in-memory under one lock, persist, then notify subscribers, in the
// order user actions arrive.
type Store struct {
	mu          sync.Mutex
	items       []LineItem
	storage     core.Storage
	logger      core.Logger
	subscribers []Subscriber
}

// NewStore creates a cart store backed by the given storage and loads
// any previously persisted cart. A corrupt persisted document yields
// an empty cart, not an error: there is no migration scheme for
// persisted state.
func NewStore(ctx context.Context, storage core.Storage, logger core.Logger) (*Store, error) {
	if logger == nil {
		logger = &core.NoOpLogger{}
	}
	s := &Store{
		storage: storage,
		logger:  logger,
	}

	raw, err := storage.Load(ctx, cartStorageKey)
	if err != nil {
		return nil, core.NewError("cart.Load", "cart", err)
	}
	if raw != "" {
		var state cartState
		if err := json.Unmarshal([]byte(raw), &state); err != nil {
			logger.Warn("Discarding corrupt persisted cart", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			s.items = state.Items
		}
	}

	return s, nil
}

// Subscribe registers a callback invoked synchronously after every
// mutation with a copy of the item list.
func (s *Store) Subscribe(fn Subscriber) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	s.subscribers = append(s.subscribers, fn)
	s.mu.Unlock()
}

// AddItem adds quantity of a product offer. An existing line for the
// same offer gets its quantity incremented; otherwise a new line is
// appended with a snapshot of the product and its current unit price.
// Quantity positivity is the caller's responsibility, matching the
// quantity-selection flow that feeds this store.
func (s *Store) AddItem(ctx context.Context, product ProductSnapshot, quantity int) error {
	s.mu.Lock()

	found := false
	for i := range s.items {
		if s.items[i].ProductOfferID == product.ID {
			s.items[i].Quantity += quantity
			found = true
			break
		}
	}
	if !found {
		s.items = append(s.items, LineItem{
			ProductOfferID: product.ID,
			Product:        product,
			Quantity:       quantity,
			Price:          product.Price,
		})
	}

	s.logger.Debug("Cart item added", map[string]interface{}{
		"product_offer_id": product.ID,
		"quantity":         quantity,
		"merged":           found,
	})

	return s.persistAndNotifyLocked(ctx)
}

// UpdateQuantity sets the quantity for a line, clamped to a minimum
// of 1. Unknown offer ids are a no-op.
func (s *Store) UpdateQuantity(ctx context.Context, productOfferID string, quantity int) error {
	s.mu.Lock()

	changed := false
	for i := range s.items {
		if s.items[i].ProductOfferID == productOfferID {
			if quantity < 1 {
				quantity = 1
			}
			s.items[i].Quantity = quantity
			changed = true
			break
		}
	}

	if !changed {
		s.mu.Unlock()
		return nil
	}

	return s.persistAndNotifyLocked(ctx)
}

// RemoveItem removes the line for a product offer, if present
func (s *Store) RemoveItem(ctx context.Context, productOfferID string) error {
	s.mu.Lock()

	filtered := s.items[:0]
	for _, item := range s.items {
		if item.ProductOfferID != productOfferID {
			filtered = append(filtered, item)
		}
	}
	s.items = filtered

	return s.persistAndNotifyLocked(ctx)
}

// Clear empties the cart
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.items = nil
	return s.persistAndNotifyLocked(ctx)
}

// Items returns a copy of the current line items
func (s *Store) Items() []LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyItemsLocked()
}

// Len returns the number of lines in the cart
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// TotalAmount returns the sum of price times quantity over all lines
func (s *Store) TotalAmount() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	var total float64
	for _, item := range s.items {
		total += item.Subtotal()
	}
	return total
}

// TotalItems returns the sum of quantities over all lines
func (s *Store) TotalItems() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	var total int
	for _, item := range s.items {
		total += item.Quantity
	}
	return total
}

func (s *Store) copyItemsLocked() []LineItem {
	items := make([]LineItem, len(s.items))
	copy(items, s.items)
	return items
}

// persistAndNotifyLocked persists the current state and notifies
// subscribers. It enters holding s.mu and keeps it through the
// storage write so persisted state can never lag behind a later
// mutation, then releases it before callbacks run so subscribers can
// read the store.
func (s *Store) persistAndNotifyLocked(ctx context.Context) error {
	items := s.copyItemsLocked()
	subscribers := make([]Subscriber, len(s.subscribers))
	copy(subscribers, s.subscribers)

	data, err := json.Marshal(cartState{Items: items})
	if err != nil {
		s.mu.Unlock()
		return core.NewError("cart.persist", "cart", err)
	}
	if err := s.storage.Save(ctx, cartStorageKey, string(data)); err != nil {
		s.mu.Unlock()
		return core.NewError("cart.persist", "cart", err)
	}
	s.mu.Unlock()

	for _, fn := range subscribers {
		fn(items)
	}
	return nil
}
