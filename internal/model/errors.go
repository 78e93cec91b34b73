package model

import (
	"fmt"
	"strings"
)

// ErrorKind classifies a fetch-level failure for display and retry policy.
type ErrorKind string

// Fetch-level error kinds.
const (
	ErrNetworkUnavailable ErrorKind = "network_unavailable"
	ErrTimeout            ErrorKind = "timeout"
	ErrHTTP               ErrorKind = "http_error"
	ErrSchemaMismatch     ErrorKind = "schema_mismatch"
	ErrNoDataForSelection ErrorKind = "no_data_for_selection"
)

// FetchError is the aggregate error a fetch surfaces to the scheduler.
// Stores lists the store numbers the failure affected, so retry policy can
// be decided per store set. Status is set only for ErrHTTP.
type FetchError struct {
	Kind   ErrorKind `json:"kind"`
	Status int       `json:"status,omitempty"`
	Stores []string  `json:"stores,omitempty"`
	Err    error     `json:"-"`
}

func (e *FetchError) Error() string {
	msg := e.Message()
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if len(e.Stores) > 0 {
		return fmt.Sprintf("%s (stores: %s)", msg, strings.Join(e.Stores, ", "))
	}
	return msg
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Message returns the human-readable category for the error kind,
// suitable for a status line.
func (e *FetchError) Message() string {
	switch e.Kind {
	case ErrNetworkUnavailable:
		return "network unavailable"
	case ErrTimeout:
		return "request timed out"
	case ErrHTTP:
		return fmt.Sprintf("server returned HTTP %d", e.Status)
	case ErrSchemaMismatch:
		return "unexpected response format"
	case ErrNoDataForSelection:
		return "no catalog or store data for the selected country and product line"
	default:
		return string(e.Kind)
	}
}

// NewFetchError builds a FetchError wrapping err.
func NewFetchError(kind ErrorKind, err error, stores ...string) *FetchError {
	return &FetchError{Kind: kind, Err: err, Stores: stores}
}

// NewHTTPError builds an ErrHTTP FetchError for the given status code.
func NewHTTPError(status int, stores ...string) *FetchError {
	return &FetchError{Kind: ErrHTTP, Status: status, Stores: stores}
}
