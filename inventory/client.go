package inventory

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/dani-agudelo/conexion-campesina-go/core"
)

// ErrInvalidItem is returned when an inventory payload fails local
// validation. The wrapped message names the offending field.
var ErrInvalidItem = errors.New("invalid inventory item")

// Item is an inventory entry in the client's vocabulary. The backend
// speaks snake_case; translation happens at the wire boundary so the
// rest of the code never sees backend field names.
type Item struct {
	ID           string  `json:"id"`
	ProductID    string  `json:"productId,omitempty"`
	Name         string  `json:"name"`
	Available    float64 `json:"available"`
	MinThreshold float64 `json:"minThreshold"`
	MaxCapacity  float64 `json:"maxCapacity"`
	Unit         string  `json:"unit"`
}

// Gauge derives the display state for this entry.
func (i Item) Gauge() Gauge {
	return DeriveGauge(i.Available, i.MinThreshold, i.MaxCapacity)
}

// itemWire is the backend's shape for an inventory entry.
type itemWire struct {
	ID                string  `json:"id"`
	ProductID         string  `json:"product_id,omitempty"`
	Name              string  `json:"name"`
	AvailableQuantity float64 `json:"available_quantity"`
	MinimumThreshold  float64 `json:"minimum_threshold"`
	MaximumCapacity   float64 `json:"maximum_capacity"`
	Unit              string  `json:"unit"`
}

const unnamedProduct = "Producto sin nombre"

func fromWire(w itemWire) Item {
	name := w.Name
	if name == "" {
		name = unnamedProduct
	}
	return Item{
		ID:           w.ID,
		ProductID:    w.ProductID,
		Name:         name,
		Available:    math.Round(w.AvailableQuantity*100) / 100,
		MinThreshold: w.MinimumThreshold,
		MaxCapacity:  w.MaximumCapacity,
		Unit:         normalizeUnit(w.Unit),
	}
}

// normalizeUnit lowercases the backend's unit enum and shortens
// kilogramo to kg for display.
func normalizeUnit(unit string) string {
	return strings.ReplaceAll(strings.ToLower(unit), "kilogramo", "kg")
}

// UpsertRequest creates or updates an inventory entry.
type UpsertRequest struct {
	ProductID    string
	Quantity     float64
	Unit         string
	MinThreshold float64
	MaxCapacity  float64
}

// Validate applies the same rules the producer-facing form enforces.
func (r UpsertRequest) Validate() error {
	if r.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be greater than zero", ErrInvalidItem)
	}
	if strings.TrimSpace(r.Unit) == "" {
		return fmt.Errorf("%w: unit is required", ErrInvalidItem)
	}
	if r.MinThreshold < 0 {
		return fmt.Errorf("%w: minimum threshold cannot be negative", ErrInvalidItem)
	}
	if r.MaxCapacity <= 0 {
		return fmt.Errorf("%w: maximum capacity must be greater than zero", ErrInvalidItem)
	}
	if r.MinThreshold >= r.MaxCapacity {
		return fmt.Errorf("%w: minimum threshold must be below maximum capacity", ErrInvalidItem)
	}
	if r.Quantity > r.MaxCapacity {
		return fmt.Errorf("%w: quantity exceeds maximum capacity", ErrInvalidItem)
	}
	return nil
}

func (r UpsertRequest) wire() itemWire {
	return itemWire{
		ProductID:         r.ProductID,
		AvailableQuantity: r.Quantity,
		MinimumThreshold:  r.MinThreshold,
		MaximumCapacity:   r.MaxCapacity,
		Unit:              r.Unit,
	}
}

// Client calls the inventory endpoints.
type Client struct {
	api *core.APIClient
}

// NewClient creates an inventory client over the shared API client.
func NewClient(api *core.APIClient) *Client {
	return &Client{api: api}
}

// ListForProducer returns the authenticated producer's inventory with
// wire fields translated and units normalized.
func (c *Client) ListForProducer(ctx context.Context) ([]Item, error) {
	var wires []itemWire
	if err := c.api.Get(ctx, "inventory/producer", &wires); err != nil {
		return nil, err
	}
	items := make([]Item, 0, len(wires))
	for _, w := range wires {
		items = append(items, fromWire(w))
	}
	return items, nil
}

// Create adds a new inventory entry. Validation failures are local
// and make no request.
func (c *Client) Create(ctx context.Context, req UpsertRequest) (Item, error) {
	if err := req.Validate(); err != nil {
		return Item{}, err
	}
	var w itemWire
	if err := c.api.Post(ctx, "inventory", req.wire(), &w); err != nil {
		return Item{}, err
	}
	return fromWire(w), nil
}

// Update replaces an existing inventory entry.
func (c *Client) Update(ctx context.Context, id string, req UpsertRequest) (Item, error) {
	if err := req.Validate(); err != nil {
		return Item{}, err
	}
	var w itemWire
	if err := c.api.Put(ctx, "inventory/"+id, req.wire(), &w); err != nil {
		return Item{}, err
	}
	return fromWire(w), nil
}

// Delete removes an inventory entry.
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.api.Delete(ctx, "inventory/"+id, nil)
}
