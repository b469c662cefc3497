package marketplace

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const reviewsPath = "/reviews"

type Review struct {
	ID        string  `json:"_id,omitempty"`
	Booking   string  `json:"booking,omitempty"`
	Worker    string  `json:"worker,omitempty"`
	User      *Person `json:"user,omitempty"`
	Rating    float64 `json:"rating,omitempty"`
	Comment   string  `json:"comment,omitempty"`
	CreatedAt string  `json:"createdAt,omitempty"`
}

type Reviews struct {
	Items []Review
}

// ReviewRequest is the payload of POST /reviews.
type ReviewRequest struct {
	Booking string `json:"booking"`
	Worker  string `json:"worker"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// NewReviewRequest checks that booking can be reviewed with rating.
func NewReviewRequest(booking *Booking, rating int, comment string) (*ReviewRequest, error) {
	if booking == nil {
		return nil, fmt.Errorf("booking not found")
	}
	if booking.ReviewID != "" {
		return nil, ErrAlreadyReviewed
	}
	if booking.Status != StatusCompleted {
		return nil, ErrBookingNotComplete
	}
	if rating < 1 || rating > 5 {
		return nil, fmt.Errorf("rating must be between 1 and 5, got %d", rating)
	}

	req := &ReviewRequest{
		Booking: booking.ID,
		Rating:  rating,
		Comment: strings.TrimSpace(comment),
	}
	if booking.Worker != nil {
		req.Worker = booking.Worker.ID
	}

	return req, nil
}

func (c *Client) CreateReview(ctx context.Context, req *ReviewRequest) (*Review, error) {
	if !c.HasToken() {
		return nil, ErrNotAuthenticated
	}

	var review Review
	if err := c.sendJSON(ctx, http.MethodPost, reviewsPath, req, &review); err != nil {
		return nil, err
	}

	return &review, nil
}

// GetWorkerReviews returns the reviews left for a worker.
func (c *Client) GetWorkerReviews(ctx context.Context, workerID string) (*Reviews, error) {
	items, err := c.getItems(ctx, fmt.Sprintf("%s/worker/%s", reviewsPath, url.PathEscape(workerID)), nil)
	if err != nil {
		return nil, err
	}

	var reviews []Review
	if err := decode(items, &reviews); err != nil {
		return nil, fmt.Errorf("decode reviews: %w", err)
	}

	return &Reviews{Items: reviews}, nil
}

func (r *Reviews) Len() int {
	return len(r.Items)
}

// AverageRating returns the mean rating, 0 without reviews.
func (r *Reviews) AverageRating() float64 {
	if r.Len() == 0 {
		return 0
	}

	var sum float64
	for _, review := range r.Items {
		sum += review.Rating
	}
	return sum / float64(r.Len())
}

// Author returns the reviewer name or "Anonymous".
func (r Review) Author() string {
	if r.User == nil || r.User.Name == "" {
		return "Anonymous"
	}
	return r.User.Name
}
