// SPDX-License-Identifier: EPL-2.0

package asset

import "errors"

var (
	// ErrAssetInvalid indicates empty data or an unsupported sample layout.
	ErrAssetInvalid = errors.New("invalid sound asset")

	// ErrBadTimeTag indicates a loop tag that is neither a sample count nor
	// a time.
	ErrBadTimeTag = errors.New("invalid time tag")
)
