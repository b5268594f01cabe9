package acuity

import (
	"errors"
	"fmt"
	"net"
)

// ErrInvalidIntakeFields marks a rejected booking whose intake form values
// Acuity refused. Booking retries once without the fields when it sees this.
var ErrInvalidIntakeFields = errors.New("acuity: invalid intake form fields")

// APIError is a non-2xx response from Acuity.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("acuity: status=%d code=%s message=%s", e.StatusCode, e.Code, e.Message)
}

// IsTransient reports whether err is worth retrying later: network timeouts
// and 5xx responses. Sync treats these as "skip, retry later" rather than
// failing the request.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= 500
	}

	return false
}
