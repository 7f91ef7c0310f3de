package models

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientData marks a signal or category that needs more history than the series has.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrEmptySeries is returned when a source yields no bars for a symbol.
	ErrEmptySeries = errors.New("no bars returned")
	// ErrUnknownSymbol is returned by sources that do not list the requested symbol.
	ErrUnknownSymbol = errors.New("unknown symbol")
	// ErrRateLimited is returned when the upstream exchange throttles requests.
	ErrRateLimited = errors.New("rate limited")
	// ErrExchangeUnavailable covers transport failures and upstream 5xx responses.
	ErrExchangeUnavailable = errors.New("exchange unavailable")
)

// FetchError wraps a per-symbol failure to obtain bars.
type FetchError struct {
	Symbol string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Symbol, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// MalformedBarError reports the first bar field that failed validation.
type MalformedBarError struct {
	Symbol string
	Index  int
	Field  string
	Value  float64
}

func (e *MalformedBarError) Error() string {
	return fmt.Sprintf("malformed bar %s[%d]: invalid %s %v", e.Symbol, e.Index, e.Field, e.Value)
}
