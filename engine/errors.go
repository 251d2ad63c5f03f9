// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrNotPlaying indicates the channel is no longer playing.
	ErrNotPlaying = errors.New("channel is not playing")

	// ErrInvalidHandle indicates a handle the engine does not know about.
	ErrInvalidHandle = errors.New("invalid handle")

	// ErrUnsupported indicates the backend cannot provide the requested feature.
	ErrUnsupported = errors.New("unsupported by backend")

	// ErrNotReady indicates a stream that has not finished opening.
	ErrNotReady = errors.New("stream not ready")
)

// Status codes shared by backends for the common failure classes.
const (
	CodeOK = iota
	CodeInvalidHandle
	CodeNotPlaying
	CodeUnsupported
	CodeInvalidParam
	CodeNotReady
	CodeFormat
	CodeInternal
)

// BackendError reports a failed engine call.
type BackendError struct {
	Op   string
	Code int
	Err  error
}

func (e *BackendError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("engine: %s failed (code %d)", e.Op, e.Code)
	}
	return fmt.Sprintf("engine: %s failed (code %d): %v", e.Op, e.Code, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

// Fail builds a BackendError for op.
func Fail(op string, code int, err error) error {
	return &BackendError{Op: op, Code: code, Err: err}
}

// Code returns the backend status code carried by err, or CodeOK when err is
// nil and CodeInternal when err is not a BackendError.
func Code(err error) int {
	if err == nil {
		return CodeOK
	}
	var be *BackendError
	if errors.As(err, &be) {
		return be.Code
	}
	return CodeInternal
}
