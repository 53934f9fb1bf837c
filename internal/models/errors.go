package models

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrQuotaExceeded = errors.New("quota exceeded")
	ErrNotAvailable  = errors.New("video not available")
)

type UnrecognizedSourceError struct {
	Input string
}

func (e *UnrecognizedSourceError) Error() string {
	return fmt.Sprintf("unrecognized source '%s': expected a video, playlist or channel url, a channel handle or a batch file", e.Input)
}

type NestedBatchFileError struct {
	Path  string
	Line  int
	Entry string
}

func (e *NestedBatchFileError) Error() string {
	return fmt.Sprintf("batch file '%s' line %d: '%s' is a batch file, nested batch files are not supported", e.Path, e.Line, e.Entry)
}

type MalformedDurationError struct {
	Raw string
}

func (e *MalformedDurationError) Error() string {
	return fmt.Sprintf("malformed duration '%s'", e.Raw)
}

type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s %s", e.Field, e.Reason)
}

type FetchErrorKind int

const (
	FetchNotAvailable FetchErrorKind = iota
	FetchTransientNetwork
	FetchQuotaExceeded
)

func (k FetchErrorKind) String() string {
	switch k {
	case FetchNotAvailable:
		return "not available"
	case FetchTransientNetwork:
		return "transient network"
	case FetchQuotaExceeded:
		return "quota exceeded"
	}

	return "unknown"
}

// FetchError describes why metadata of a single video could not be obtained.
// VideoID is empty when the failure belongs to a whole source listing.
type FetchError struct {
	Kind    FetchErrorKind
	VideoID string
	Err     error
}

func (e *FetchError) Error() string {
	if e.VideoID == "" {
		return fmt.Sprintf("fetch failed (%s): %v", e.Kind, e.Err)
	}

	return fmt.Sprintf("fetch '%s' failed (%s): %v", e.VideoID, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// IsFatal reports whether err must abort the remaining run.
func IsFatal(err error) bool {
	return errors.Is(err, ErrQuotaExceeded)
}
