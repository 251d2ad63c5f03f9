// SPDX-License-Identifier: EPL-2.0

package asset

import (
	"strconv"
	"strings"
)

// ParseTimeTag parses a loop tag value. A plain integer is a sample count;
// anything containing ':' or '.' is [[hh:]mm:]ss[.fff] and is returned in
// milliseconds.
func ParseTimeTag(s string) (value uint64, samples bool, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false, false
	}

	if !strings.ContainsAny(s, ":.") {
		v, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return 0, false, false
		}
		return v, true, true
	}

	clock, frac, _ := strings.Cut(s, ".")

	var ms uint64
	if frac != "" {
		if len(frac) > 3 {
			frac = frac[:3]
		}
		f, err := strconv.ParseUint(frac, 10, 64)
		if err != nil {
			return 0, false, false
		}
		for i := len(frac); i < 3; i++ {
			f *= 10
		}
		ms = f
	}

	parts := strings.Split(clock, ":")
	if len(parts) > 3 {
		return 0, false, false
	}

	var secs uint64
	for i, p := range parts {
		if p == "" {
			if i == 0 && len(parts) == 1 {
				continue // ".5"
			}
			return 0, false, false
		}
		v, err := strconv.ParseUint(p, 10, 64)
		if err != nil {
			return 0, false, false
		}
		// Minutes and seconds after the leading field stay below 60.
		if i > 0 && v >= 60 {
			return 0, false, false
		}
		secs = secs*60 + v
	}

	return secs*1000 + ms, false, true
}
