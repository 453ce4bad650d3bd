package facts

import (
	"errors"
	"fmt"
)

var (
	// ErrSourceUnavailable means the underlying read or call could not be completed
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrParseAnomaly means data was read but did not have the expected shape
	ErrParseAnomaly = errors.New("parse anomaly")

	// ErrNotSupported means the platform has no source for the family.
	// The collector treats it as absent, not as a failure.
	ErrNotSupported = errors.New("not supported on this platform")
)

// FactError is a failure of one fact family or one drive entry
type FactError struct {
	Family Family
	Kind   error // one of the sentinels above
	Err    error // underlying cause, may be nil
}

func (e *FactError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Family, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Family, e.Kind, e.Err)
}

// Unwrap lets errors.Is match both the kind and the cause
func (e *FactError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func unavailable(family Family, err error) error {
	return &FactError{Family: family, Kind: ErrSourceUnavailable, Err: err}
}

func anomaly(family Family, format string, args ...interface{}) error {
	return &FactError{Family: family, Kind: ErrParseAnomaly, Err: fmt.Errorf(format, args...)}
}

func notSupported(family Family) error {
	return &FactError{Family: family, Kind: ErrNotSupported}
}
