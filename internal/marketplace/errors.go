package marketplace

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrWorkerCannotBook   = errors.New("workers cannot book other workers, only regular users can book services")
	ErrNotAuthenticated   = errors.New("login required")
	ErrInvalidTransition  = errors.New("invalid booking status transition")
	ErrAlreadyReviewed    = errors.New("you have already submitted a review for this booking")
	ErrBookingNotComplete = errors.New("only completed bookings can be reviewed")
)

// APIError is returned for any non-2xx backend response.
type APIError struct {
	StatusCode int
	Status     string
	// Message is the backend supplied `message`, if any.
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("bad status: %s: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("bad status: %s", e.Status)
}

// IsUnauthorized reports whether err is a 401/403 from the backend.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden
}
