// Package catalog covers the marketplace's public and producer-side
// catalog: product offers, reviews, and shipping receipts.
package catalog

import (
	"context"

	"github.com/dani-agudelo/conexion-campesina-go/core"
)

// Product is a catalog entry. Offers reference it through
// ProductOfferID on cart lines and order details.
type Product struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
	Unit        string  `json:"unit,omitempty"`
	ImageURL    string  `json:"imageUrl,omitempty"`
	ProducerID  string  `json:"producerId,omitempty"`
}

// ProductRequest creates or updates a producer's product.
type ProductRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
	Unit        string  `json:"unit,omitempty"`
	ImageURL    string  `json:"imageUrl,omitempty"`
}

// Client calls the catalog endpoints.
type Client struct {
	api *core.APIClient
}

// NewClient creates a catalog client over the shared API client.
func NewClient(api *core.APIClient) *Client {
	return &Client{api: api}
}

// Products returns the public catalog. The endpoint needs no
// authentication.
func (c *Client) Products(ctx context.Context) ([]Product, error) {
	var products []Product
	if err := c.api.Get(ctx, "products", &products); err != nil {
		return nil, err
	}
	return products, nil
}

// ProducerProducts returns the products published by one producer.
func (c *Client) ProducerProducts(ctx context.Context, producerID string) ([]Product, error) {
	var products []Product
	if err := c.api.Get(ctx, "producer/"+producerID+"/products", &products); err != nil {
		return nil, err
	}
	return products, nil
}

// CreateProduct publishes a product for the authenticated producer.
func (c *Client) CreateProduct(ctx context.Context, req ProductRequest) (Product, error) {
	var product Product
	if err := c.api.Post(ctx, "producer/products", req, &product); err != nil {
		return Product{}, err
	}
	return product, nil
}

// UpdateProduct replaces one of the producer's products.
func (c *Client) UpdateProduct(ctx context.Context, productID string, req ProductRequest) (Product, error) {
	var product Product
	if err := c.api.Put(ctx, "producer/products/"+productID, req, &product); err != nil {
		return Product{}, err
	}
	return product, nil
}

// DeleteProduct removes one of the producer's products.
func (c *Client) DeleteProduct(ctx context.Context, productID string) error {
	return c.api.Delete(ctx, "producer/products/"+productID, nil)
}
