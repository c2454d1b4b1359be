package resolver

import (
	"errors"
	"fmt"
)

// Kind classifies a failure for callers that map errors onto responses.
type Kind int

// Error kinds.
const (
	KindUpstreamFailure Kind = iota
	KindNotFound
	KindInvalidInput
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindInvalidInput:
		return "invalid_input"
	default:
		return "upstream_failure"
	}
}

// Public messages. Boundary code that still classifies by substring relies on these prefixes.
const (
	decodeFailedMessage = "Failed to decode VIN"
	notFoundPrefix      = "Could not find"
)

// Error is the tagged error returned by every resolver operation.
type Error struct {
	Kind Kind
	// Message is safe to show to callers; it never contains upstream URLs.
	Message string
	// URL is the upstream location involved, if any.
	URL string
	Err error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// NewFetchError reports a failed directory listing fetch.
func NewFetchError(url string, err error) *Error {
	return &Error{
		Kind:    KindUpstreamFailure,
		Message: "Failed to scrape directory listing",
		URL:     url,
		Err:     err,
	}
}

// NewDecodeError reports a VIN the decoder could not turn into a complete VehicleInfo.
func NewDecodeError(err error) *Error {
	return &Error{
		Kind:    KindInvalidInput,
		Message: decodeFailedMessage,
		Err:     err,
	}
}

// NewResolutionError reports a stage whose listing produced no match for target.
func NewResolutionError(stage Stage, target string) *Error {
	return &Error{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("%s %s match for %s", notFoundPrefix, stage, target),
	}
}

// KindOf returns the kind of err, defaulting to KindUpstreamFailure for foreign errors.
func KindOf(err error) Kind {
	var rerr *Error
	if errors.As(err, &rerr) {
		return rerr.Kind
	}
	return KindUpstreamFailure
}

// PublicMessage returns the caller-safe message for err, or fallback for foreign errors.
func PublicMessage(err error, fallback string) string {
	var rerr *Error
	if errors.As(err, &rerr) && rerr.Message != "" {
		return rerr.Message
	}
	return fallback
}
