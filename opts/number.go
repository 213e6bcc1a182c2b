// Copyright 2021 the System Transparency Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package opts

import (
	"strconv"
	"strings"
)

// parseUint parses an unsigned integer literal: decimal, 0x hexadecimal
// or 0 octal. Digit separators are rejected.
func parseUint(s string, bitSize int) (uint64, error) {
	if strings.Contains(s, "_") {
		return 0, strconv.ErrSyntax
	}

	return strconv.ParseUint(s, 0, bitSize)
}
