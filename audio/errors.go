// SPDX-License-Identifier: EPL-2.0

package audio

import "errors"

var (
	ErrInvalidDstSize = errors.New("dst size must be multiple of channels")

	// ErrUnknownFormat is returned by Registry.Decode for unregistered formats.
	ErrUnknownFormat = errors.New("unknown audio format")

	// ErrNotSeekable is returned by sources that cannot reposition.
	ErrNotSeekable = errors.New("source is not seekable")

	// ErrNoProgress is returned by ReadAll when a source returns no data and no error.
	ErrNoProgress = errors.New("source returned no samples")
)
