package rankings

import "fmt"

// MissingFieldError means a row did not contain one of the expected regions.
// The page layout no longer matches the selectors, or the row is not a
// ranking row.
type MissingFieldError struct {
	Field    string
	Selector string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing field %q (selector %q)", e.Field, e.Selector)
}

// NavigationTimeoutError means the page did not reach a usable state in time.
// Stage is one of "goto", "ready", "select" or "settle".
type NavigationTimeoutError struct {
	URL   string
	Stage string
	Err   error
}

func (e *NavigationTimeoutError) Error() string {
	return fmt.Sprintf("%s timed out for %s: %v", e.Stage, e.URL, e.Err)
}

func (e *NavigationTimeoutError) Unwrap() error { return e.Err }

// ControlNotFoundError means the "results per page" select is absent.
// Transient and permanent layout problems look the same here.
type ControlNotFoundError struct {
	URL      string
	Selector string
}

func (e *ControlNotFoundError) Error() string {
	return fmt.Sprintf("control %q not found on %s", e.Selector, e.URL)
}
