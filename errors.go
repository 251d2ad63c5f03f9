// SPDX-License-Identifier: EPL-2.0

package sndrender

import "errors"

var (
	// ErrClosed is returned by a Renderer after Close.
	ErrClosed = errors.New("renderer closed")

	// ErrNoOutput is returned by New for an engine without an output rate.
	ErrNoOutput = errors.New("engine has no output")

	// ErrUnsupportedSample is returned by DecodeSample for data that is not
	// mono.
	ErrUnsupportedSample = errors.New("unsupported coded sample")
)
