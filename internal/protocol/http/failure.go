package http

import (
	"errors"
	"fmt"
)

// FailureKind classifies a FetchFailure.
type FailureKind int

const (
	// KindTransport covers network errors, timeouts and cancellation.
	KindTransport FailureKind = iota
	// KindStatus is a non-2xx HTTP status.
	KindStatus
	// KindDecode is a 2xx response whose body could not be parsed.
	KindDecode
)

// String returns the kind name.
func (k FailureKind) String() string {
	switch k {
	case KindStatus:
		return "status"
	case KindDecode:
		return "decode"
	default:
		return "transport"
	}
}

// FetchFailure is the only error a list fetch returns. Reason is
// suitable for showing to the user.
type FetchFailure struct {
	Kind   FailureKind
	Status int
	URL    string
	Reason string
	Err    error
}

func newFailure(kind FailureKind, status int, url, reason string, err error) *FetchFailure {
	return &FetchFailure{Kind: kind, Status: status, URL: url, Reason: reason, Err: err}
}

// Error implements error.
func (f *FetchFailure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %v", f.Reason, f.Err)
	}
	return f.Reason
}

// Unwrap returns the underlying cause.
func (f *FetchFailure) Unwrap() error {
	return f.Err
}

// AsFetchFailure extracts a *FetchFailure from err.
func AsFetchFailure(err error) (*FetchFailure, bool) {
	var failure *FetchFailure
	if errors.As(err, &failure) {
		return failure, true
	}
	return nil, false
}
