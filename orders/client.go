// Package orders contains the order API client and the checkout flow
// that composes an order from the cart, submits it, and hands back the
// payment redirect URL.
package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/dani-agudelo/conexion-campesina-go/core"
)

// Status is an order's lifecycle state as the backend reports it.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusPaid      Status = "PAID"
	StatusShipped   Status = "SHIPPED"
	StatusDelivered Status = "DELIVERED"
	StatusCancelled Status = "CANCELLED"
)

// Detail is one order line as submitted and as returned. Price and
// subtotal are included in the payload for display, but the server
// recomputes the authoritative values.
type Detail struct {
	ProductOfferID string  `json:"productOfferId"`
	Quantity       int     `json:"quantity"`
	Price          float64 `json:"price"`
	Subtotal       float64 `json:"subtotal"`
}

// Order is an order as the backend returns it.
type Order struct {
	ID           string    `json:"id"`
	ClientID     string    `json:"clientId"`
	Status       Status    `json:"status"`
	TotalAmount  float64   `json:"totalAmount"`
	TotalItems   int       `json:"totalItems"`
	Address      string    `json:"address"`
	OrderDetails []Detail  `json:"orderDetails"`
	CreatedAt    time.Time `json:"createdAt"`
}

// PaymentSession is the payment gateway session returned on creation.
type PaymentSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// CreateRequest is the order-creation payload.
type CreateRequest struct {
	Status       Status   `json:"status"`
	TotalAmount  float64  `json:"totalAmount"`
	TotalItems   int      `json:"totalItems"`
	Address      string   `json:"address"`
	OrderDetails []Detail `json:"orderDetails"`
}

// CreateResponse is the order-creation response: the created order
// with the payment session nested alongside. PaymentSession may be
// absent even on a 2xx; callers must treat that as a failure.
type CreateResponse struct {
	Order
	PaymentSession *PaymentSession `json:"paymentSession"`
}

// Client talks to the order endpoints.
type Client struct {
	api *core.APIClient
}

// NewClient creates an order client over the shared request helper
func NewClient(api *core.APIClient) *Client {
	return &Client{api: api}
}

// Create submits a new order
func (c *Client) Create(ctx context.Context, req CreateRequest) (*CreateResponse, error) {
	var resp CreateResponse
	if err := c.api.Post(ctx, "orders", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// List returns all orders (admin only)
func (c *Client) List(ctx context.Context) ([]Order, error) {
	var orders []Order
	if err := c.api.Get(ctx, "orders", &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// Get returns one order by id
func (c *Client) Get(ctx context.Context, orderID string) (*Order, error) {
	var order Order
	if err := c.api.Get(ctx, "orders/"+orderID, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// ByClient returns the orders placed by a client
func (c *Client) ByClient(ctx context.Context, clientID string) ([]Order, error) {
	var orders []Order
	if err := c.api.Get(ctx, "orders/client/"+clientID, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// ByProducer returns the orders containing the producer's offers
func (c *Client) ByProducer(ctx context.Context) ([]Order, error) {
	var orders []Order
	if err := c.api.Get(ctx, "orders/producer", &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateStatus patches the status of an order
func (c *Client) UpdateStatus(ctx context.Context, orderID string, status Status) (*Order, error) {
	var order Order
	body := map[string]Status{"status": status}
	if err := c.api.Patch(ctx, "orders/"+orderID, body, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// Cancel marks an order cancelled
func (c *Client) Cancel(ctx context.Context, orderID string) (*Order, error) {
	order, err := c.UpdateStatus(ctx, orderID, StatusCancelled)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel order %s: %w", orderID, err)
	}
	return order, nil
}

// Delete removes an order (admin only)
func (c *Client) Delete(ctx context.Context, orderID string) error {
	return c.api.Delete(ctx, "orders/"+orderID, nil)
}
