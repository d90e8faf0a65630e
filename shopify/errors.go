package shopify

import (
	"errors"
	"fmt"
)

// APIError is a non-retryable response from the Admin API.
type APIError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s failed: %d %s", e.Method, e.Path, e.Status, e.Body)
}

// QuotaError means the store hit its daily variant creation limit. Nothing
// more can be created until the quota resets.
type QuotaError struct {
	Body string
}

func (e *QuotaError) Error() string {
	return "daily variant creation limit reached: use the bulk CSV import or retry tomorrow"
}

// RetriesExhaustedError wraps the last failure of a call that kept being
// rate limited or failing transiently.
type RetriesExhaustedError struct {
	Method   string
	Path     string
	Attempts int
	Err      error
}

func (e *RetriesExhaustedError) Error() string {
	return fmt.Sprintf("%s %s exhausted %d attempts: %v", e.Method, e.Path, e.Attempts, e.Err)
}

func (e *RetriesExhaustedError) Unwrap() error {
	return e.Err
}

// NoVariantsError is returned when a product group has nothing left to send
// after sanitizing.
type NoVariantsError struct {
	Handle string
}

func (e *NoVariantsError) Error() string {
	return fmt.Sprintf("no valid variants to send for handle %s (check the size and colour values)", e.Handle)
}

// IsQuota reports whether err carries a QuotaError.
func IsQuota(err error) bool {
	var q *QuotaError
	return errors.As(err, &q)
}
