package catalog

import (
	"context"
	"time"
)

// Shipping is a shipping receipt for a paid order.
type Shipping struct {
	ID        string    `json:"id"`
	OrderID   string    `json:"orderId"`
	Address   string    `json:"address,omitempty"`
	Status    string    `json:"status,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// ShippingReceipt is the downloadable document for a shipment.
type ShippingReceipt struct {
	Content  []byte
	Filename string
}

// Shipping looks up a shipping receipt by its own ID.
func (c *Client) Shipping(ctx context.Context, id string) (Shipping, error) {
	var shipping Shipping
	if err := c.api.Get(ctx, "shipping/"+id, &shipping); err != nil {
		return Shipping{}, err
	}
	return shipping, nil
}

// ShippingByOrder looks up the shipping receipt of an order.
func (c *Client) ShippingByOrder(ctx context.Context, orderID string) (Shipping, error) {
	var shipping Shipping
	if err := c.api.Get(ctx, "shipping/order/"+orderID, &shipping); err != nil {
		return Shipping{}, err
	}
	return shipping, nil
}

// CreateShipping opens a shipping receipt for an order.
func (c *Client) CreateShipping(ctx context.Context, orderID string) (Shipping, error) {
	var shipping Shipping
	if err := c.api.Post(ctx, "shipping/"+orderID, nil, &shipping); err != nil {
		return Shipping{}, err
	}
	return shipping, nil
}

// ShippingDocument downloads the printable receipt. The filename
// comes from the Content-Disposition header when present, with a
// conventional fallback otherwise.
func (c *Client) ShippingDocument(ctx context.Context, orderID string) (ShippingReceipt, error) {
	content, filename, err := c.api.Download(ctx, "shipping/document/"+orderID, "shipping-receipt-"+orderID+".pdf")
	if err != nil {
		return ShippingReceipt{}, err
	}
	return ShippingReceipt{Content: content, Filename: filename}, nil
}
