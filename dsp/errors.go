// SPDX-License-Identifier: EPL-2.0

package dsp

import "errors"

// ErrGraphDegraded marks an optional node that could not be built. Build
// records these in Graph.Degraded and never returns them.
var ErrGraphDegraded = errors.New("dsp graph degraded")
