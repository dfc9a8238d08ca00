package catalog

import (
	"context"
	"time"
)

// Review is a client's rating of a product offer.
type Review struct {
	ID             string    `json:"id"`
	ProductOfferID string    `json:"productOfferId"`
	ClientID       string    `json:"clientId,omitempty"`
	Rating         int       `json:"rating"`
	Comment        string    `json:"comment,omitempty"`
	CreatedAt      time.Time `json:"createdAt,omitempty"`
}

// ReviewSummary aggregates the ratings of one offer.
type ReviewSummary struct {
	ProductOfferID string  `json:"productOfferId"`
	AverageRating  float64 `json:"averageRating"`
	ReviewCount    int     `json:"reviewCount"`
}

// ReviewRequest creates or updates a review.
type ReviewRequest struct {
	ProductOfferID string `json:"productOfferId,omitempty"`
	Rating         int    `json:"rating"`
	Comment        string `json:"comment,omitempty"`
}

// Reviews returns the reviews posted on one offer.
func (c *Client) Reviews(ctx context.Context, productOfferID string) ([]Review, error) {
	var reviews []Review
	if err := c.api.Get(ctx, "review/product-offer/"+productOfferID, &reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}

// ReviewSummary returns the rating aggregate for one offer.
func (c *Client) ReviewSummary(ctx context.Context, productOfferID string) (ReviewSummary, error) {
	var summary ReviewSummary
	if err := c.api.Get(ctx, "review/summary/"+productOfferID, &summary); err != nil {
		return ReviewSummary{}, err
	}
	return summary, nil
}

// CreateReview posts a review as the authenticated client.
func (c *Client) CreateReview(ctx context.Context, req ReviewRequest) (Review, error) {
	var review Review
	if err := c.api.Post(ctx, "review", req, &review); err != nil {
		return Review{}, err
	}
	return review, nil
}

// UpdateReview edits an existing review.
func (c *Client) UpdateReview(ctx context.Context, reviewID string, req ReviewRequest) (Review, error) {
	var review Review
	if err := c.api.Patch(ctx, "review/"+reviewID, req, &review); err != nil {
		return Review{}, err
	}
	return review, nil
}

// DeleteReview removes the authenticated client's review.
func (c *Client) DeleteReview(ctx context.Context, reviewID string) error {
	return c.api.Delete(ctx, "review/client/"+reviewID, nil)
}

// HasReviewed reports whether the authenticated client already
// reviewed the offer.
func (c *Client) HasReviewed(ctx context.Context, productOfferID string) (bool, error) {
	var reviewed bool
	if err := c.api.Get(ctx, "review/has-reviewed/"+productOfferID, &reviewed); err != nil {
		return false, err
	}
	return reviewed, nil
}
