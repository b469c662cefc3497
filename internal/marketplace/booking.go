package marketplace

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const bookingsPath = "/bookings"

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// transitions lists the status changes a client may request.
var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted},
}

type Bookings struct {
	Items []Booking
}

// Booking is a read-only history entry. Worker is nil when the backend did not
// embed a worker snapshot, and may be partial (id only) when it was not populated.
type Booking struct {
	ID          string  `json:"_id,omitempty"`
	Worker      *Worker `json:"worker,omitempty"`
	User        *Person `json:"user,omitempty"`
	Service     string  `json:"service,omitempty"`
	Date        string  `json:"date,omitempty"`
	Time        string  `json:"time,omitempty"`
	Address     string  `json:"address,omitempty"`
	TotalAmount float64 `json:"totalAmount,omitempty"`
	Status      Status  `json:"status,omitempty"`
	ReviewID    string  `json:"reviewId,omitempty"`
	CreatedAt   string  `json:"createdAt,omitempty"`
}

type Person struct {
	ID    string `json:"_id,omitempty"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// BookingDetails is what a customer fills in when booking a worker.
type BookingDetails struct {
	Service string
	Date    string
	Time    string
	Address string
}

// BookingRequest is the payload of POST /bookings.
type BookingRequest struct {
	Worker      string  `json:"worker"`
	Service     string  `json:"service"`
	Date        string  `json:"date"`
	Time        string  `json:"time"`
	Address     string  `json:"address"`
	TotalAmount float64 `json:"totalAmount"`
}

// Stats summarises a user's bookings the way the profile page shows them.
type Stats struct {
	TotalBookings int
	CompletedJobs int
	Reviews       int
	// Earnings is only set for worker accounts.
	Earnings float64
	// Favorites is only set for customer accounts.
	Favorites int
}

// ParseStatus validates a status name.
func ParseStatus(s string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(s)))
	switch status {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return status, nil
	default:
		return "", fmt.Errorf("unknown booking status %q", s)
	}
}

// CanTransition reports whether a booking in from may be moved to to.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// NewBookingRequest validates a booking before it is sent. Worker accounts cannot book.
func NewBookingRequest(role string, worker *Worker, details BookingDetails) (*BookingRequest, error) {
	if role == RoleWorker {
		return nil, ErrWorkerCannotBook
	}
	if worker == nil || strings.TrimSpace(worker.ID) == "" {
		return nil, fmt.Errorf("worker is required")
	}

	fields := map[string]string{
		"service": details.Service,
		"date":    details.Date,
		"time":    details.Time,
		"address": details.Address,
	}
	for _, name := range []string{"service", "date", "time", "address"} {
		if strings.TrimSpace(fields[name]) == "" {
			return nil, fmt.Errorf("%s is required", name)
		}
	}

	amount := worker.Charges
	if amount <= 0 {
		amount = defaultCharges
	}

	return &BookingRequest{
		Worker:      worker.ID,
		Service:     strings.TrimSpace(details.Service),
		Date:        strings.TrimSpace(details.Date),
		Time:        strings.TrimSpace(details.Time),
		Address:     strings.TrimSpace(details.Address),
		TotalAmount: amount,
	}, nil
}

// GetBookings returns the bookings of the signed in user.
func (c *Client) GetBookings(ctx context.Context) (*Bookings, error) {
	if !c.HasToken() {
		return nil, ErrNotAuthenticated
	}

	items, err := c.getItems(ctx, bookingsPath, nil)
	if err != nil {
		return nil, err
	}

	var bookings []Booking
	if err := decode(items, &bookings); err != nil {
		return nil, fmt.Errorf("decode bookings: %w", err)
	}

	return &Bookings{Items: bookings}, nil
}

func (c *Client) CreateBooking(ctx context.Context, req *BookingRequest) (*Booking, error) {
	if !c.HasToken() {
		return nil, ErrNotAuthenticated
	}

	var booking Booking
	if err := c.sendJSON(ctx, http.MethodPost, bookingsPath, req, &booking); err != nil {
		return nil, err
	}

	return &booking, nil
}

// UpdateStatus moves a booking to status. The backend stays the source of truth.
func (c *Client) UpdateStatus(ctx context.Context, id string, status Status) (*Booking, error) {
	if !c.HasToken() {
		return nil, ErrNotAuthenticated
	}

	path := fmt.Sprintf("%s/%s/status", bookingsPath, url.PathEscape(id))
	body := map[string]string{"status": string(status)}

	var booking Booking
	if err := c.sendJSON(ctx, http.MethodPut, path, body, &booking); err != nil {
		return nil, err
	}

	return &booking, nil
}

func (c *Client) CancelBooking(ctx context.Context, id string) (*Booking, error) {
	return c.UpdateStatus(ctx, id, StatusCancelled)
}

func (b *Bookings) Len() int {
	return len(b.Items)
}

func (b *Bookings) FindByID(id string) *Booking {
	for i := range b.Items {
		if b.Items[i].ID == id {
			return &b.Items[i]
		}
	}
	return nil
}

// Reviewable reports whether a review can still be left for the booking.
func (b Booking) Reviewable() bool {
	return b.Status == StatusCompleted && b.ReviewID == ""
}

// WorkerName returns the embedded worker name or a placeholder.
func (b Booking) WorkerName() string {
	if b.Worker == nil || b.Worker.Name == "" {
		return "Unknown worker"
	}
	return b.Worker.Name
}

// CustomerStats counts bookings made by a customer.
func (b *Bookings) CustomerStats(favorites int) Stats {
	stats := Stats{TotalBookings: b.Len(), Favorites: favorites}
	for _, booking := range b.Items {
		if booking.Status == StatusCompleted {
			stats.CompletedJobs++
		}
		if booking.ReviewID != "" {
			stats.Reviews++
		}
	}
	return stats
}

// WorkerStats counts bookings assigned to the worker called name.
func (b *Bookings) WorkerStats(name string) Stats {
	var stats Stats
	for _, booking := range b.Items {
		if booking.Worker == nil || booking.Worker.Name != name {
			continue
		}
		stats.TotalBookings++
		if booking.ReviewID != "" {
			stats.Reviews++
		}
		if booking.Status == StatusCompleted {
			stats.CompletedJobs++
			stats.Earnings += booking.TotalAmount
		}
	}
	return stats
}
