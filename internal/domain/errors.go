package domain

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// ConfigError is fatal and reported before any network call.
type ConfigError struct {
	Problems []string
}

func (e *ConfigError) Error() string {
	return "invalid configuration: " + strings.Join(e.Problems, "; ")
}

// SourceFetchError marks a source that could not be scanned. Non-fatal.
type SourceFetchError struct {
	Source string
	Err    error
}

func (e *SourceFetchError) Error() string {
	return fmt.Sprintf("source %s: %v", e.Source, e.Err)
}

func (e *SourceFetchError) Unwrap() error { return e.Err }

// ExtractionReason distinguishes why an article produced no usable text.
type ExtractionReason string

const (
	ExtractionNetwork     ExtractionReason = "network"
	ExtractionUnparseable ExtractionReason = "unparseable"
	ExtractionEmpty       ExtractionReason = "empty"
)

// ExtractionError is a per-article failure of the extractor.
type ExtractionError struct {
	URL    string
	Reason ExtractionReason
	Err    error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s (%s): %v", e.URL, e.Reason, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// FailureKind splits model failures into retryable and final ones.
type FailureKind string

const (
	Transient FailureKind = "transient"
	Permanent FailureKind = "permanent"
)

// ModelError wraps any failure of a hosted model call.
type ModelError struct {
	Stage      Stage
	Kind       FailureKind
	StatusCode int
	Err        error
}

func (e *ModelError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s failure (status %d): %v", e.Stage, e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s failure: %v", e.Stage, e.Kind, e.Err)
}

func (e *ModelError) Unwrap() error { return e.Err }

// NewTransient wraps err as a retryable model failure.
func NewTransient(stage Stage, err error) *ModelError {
	return &ModelError{Stage: stage, Kind: Transient, Err: err}
}

// NewPermanent wraps err as a final model failure.
func NewPermanent(stage Stage, err error) *ModelError {
	return &ModelError{Stage: stage, Kind: Permanent, Err: err}
}

// ClassifyHTTPStatus maps an API status code to a model failure.
// 408, 429 and 5xx are transient, everything else is permanent.
func ClassifyHTTPStatus(stage Stage, status int, err error) *ModelError {
	kind := Permanent
	if status == http.StatusRequestTimeout || status == http.StatusTooManyRequests || status >= http.StatusInternalServerError {
		kind = Transient
	}
	return &ModelError{Stage: stage, Kind: kind, StatusCode: status, Err: err}
}

// ClassifyCallError converts a transport-level error into a model failure.
// Timeouts and network errors are transient; a cancelled parent context is
// returned unchanged so the caller stops instead of retrying.
func ClassifyCallError(stage Stage, err error) error {
	if err == nil {
		return nil
	}
	var me *ModelError
	if errors.As(err, &me) {
		return err
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewTransient(stage, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return NewTransient(stage, err)
	}
	return NewPermanent(stage, err)
}

// IsTransient reports whether err should be retried.
func IsTransient(err error) bool {
	var me *ModelError
	if errors.As(err, &me) {
		return me.Kind == Transient
	}
	return false
}

// OutputWriteError is fatal: the newsletter file could not be written.
type OutputWriteError struct {
	Path string
	Err  error
}

func (e *OutputWriteError) Error() string {
	return fmt.Sprintf("write newsletter %s: %v", e.Path, e.Err)
}

func (e *OutputWriteError) Unwrap() error { return e.Err }
