package orders

import (
	"context"
	"strings"

	"github.com/dani-agudelo/conexion-campesina-go/cart"
	"github.com/dani-agudelo/conexion-campesina-go/core"
)

// Checkout composes an order from the current cart and submits it.
//
// The flow validates locally first (non-empty trimmed address,
// non-empty cart) and makes no network call on a violation. On
// success the backend must return a nested payment session URL; a 2xx
// response without one is a semantic failure distinct from transport
// errors - the order may already exist server-side, so the caller
// must not offer a blind retry. The cart is cleared only after a
// fully successful submission; on any failure it is left untouched so
// the user can retry explicitly.
//
// Stock is never decremented client-side: placing the order triggers
// the authoritative stock change on the backend.
type Checkout struct {
	cart   *cart.Store
	orders *Client
	logger core.Logger
}

// CheckoutOption configures the Checkout flow.
type CheckoutOption func(*Checkout)

// WithCheckoutLogger sets the logger for the checkout flow
func WithCheckoutLogger(logger core.Logger) CheckoutOption {
	return func(c *Checkout) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewCheckout creates the checkout flow over a cart store and an
// order client.
func NewCheckout(cartStore *cart.Store, orderClient *Client, opts ...CheckoutOption) *Checkout {
	c := &Checkout{
		cart:   cartStore,
		orders: orderClient,
		logger: &core.NoOpLogger{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Result is the outcome of a successful checkout. RedirectURL is the
// external payment session the caller must navigate to.
type Result struct {
	Order       Order
	RedirectURL string
}

// BuildDraft constructs the order-creation payload from the current
// cart lines and the given address. It does not validate; Submit
// does.
func (c *Checkout) BuildDraft(address string) CreateRequest {
	items := c.cart.Items()

	details := make([]Detail, 0, len(items))
	var totalAmount float64
	var totalItems int
	for _, item := range items {
		details = append(details, Detail{
			ProductOfferID: item.ProductOfferID,
			Quantity:       item.Quantity,
			Price:          item.Price,
			Subtotal:       item.Subtotal(),
		})
		totalAmount += item.Subtotal()
		totalItems += item.Quantity
	}

	return CreateRequest{
		Status:       StatusPending,
		TotalAmount:  totalAmount,
		TotalItems:   totalItems,
		Address:      strings.TrimSpace(address),
		OrderDetails: details,
	}
}

// Submit validates, builds the payload, and posts the order.
//
// Error taxonomy, matching what callers present to the user:
//   - core.ErrEmptyAddress / core.ErrEmptyCart: local validation, no
//     request was made
//   - *core.HTTPError or core.ErrConnectionFailed: the submission
//     failed outright; safe to retry
//   - core.ErrNoPaymentSession: the order call succeeded but no
//     payment session came back; advise the user to check their
//     orders page instead of retrying
func (c *Checkout) Submit(ctx context.Context, address string) (*Result, error) {
	if strings.TrimSpace(address) == "" {
		return nil, core.NewError("orders.Checkout", "orders", core.ErrEmptyAddress)
	}
	if c.cart.Len() == 0 {
		return nil, core.NewError("orders.Checkout", "orders", core.ErrEmptyCart)
	}

	draft := c.BuildDraft(address)

	c.logger.Info("Submitting order", map[string]interface{}{
		"total_amount": draft.TotalAmount,
		"total_items":  draft.TotalItems,
		"lines":        len(draft.OrderDetails),
	})

	resp, err := c.orders.Create(ctx, draft)
	if err != nil {
		c.logger.Error("Order submission failed", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, err
	}

	if resp.PaymentSession == nil || resp.PaymentSession.URL == "" {
		c.logger.Error("Order accepted but payment session missing", map[string]interface{}{
			"order_id": resp.ID,
		})
		return nil, core.NewError("orders.Checkout", "orders", core.ErrNoPaymentSession)
	}

	// Only now is the flow complete: clear the cart and hand the
	// payment URL to the caller.
	if err := c.cart.Clear(ctx); err != nil {
		// The order exists and payment can proceed; a persistence
		// hiccup on clearing must not look like a failed checkout.
		c.logger.Warn("Failed to clear cart after checkout", map[string]interface{}{
			"error": err.Error(),
		})
	}

	c.logger.Info("Order created", map[string]interface{}{
		"order_id":     resp.ID,
		"redirect_url": resp.PaymentSession.URL,
	})

	return &Result{
		Order:       resp.Order,
		RedirectURL: resp.PaymentSession.URL,
	}, nil
}
