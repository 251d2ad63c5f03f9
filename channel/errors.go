// SPDX-License-Identifier: EPL-2.0

package channel

import "errors"

// ErrSeekFailed indicates a restarted channel could not be moved to its
// resume position. The channel is stopped and the start fails.
var ErrSeekFailed = errors.New("resume seek failed")
