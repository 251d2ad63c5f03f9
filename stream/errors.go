// SPDX-License-Identifier: EPL-2.0

package stream

import "errors"

var (
	// ErrNoChannel indicates an operation that needs a playing channel.
	ErrNoChannel = errors.New("stream has no channel")

	// ErrEnded indicates the stream can no longer be played.
	ErrEnded = errors.New("stream ended")
)
