// Package sizing converts human-readable byte sizes ("2.5GB") into byte
// counts and derives how many chunks a transfer is split into.
package sizing

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Unit multipliers are binary: 1KB = 1024B.
var units = map[string]int64{
	"B":  1,
	"KB": 1 << 10,
	"MB": 1 << 20,
	"GB": 1 << 30,
	"TB": 1 << 40,
}

var sizeRegex = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*([A-Za-z]+)$`)

// ParseSize converts a size string such as "1MB" or "2.5 gb" to bytes.
// The fractional part of value*multiplier is truncated.
func ParseSize(s string) (int64, error) {
	matches := sizeRegex.FindStringSubmatch(strings.TrimSpace(s))
	if matches == nil {
		return 0, fmt.Errorf("%w: %q (expected e.g. 512KB, 1MB, 2.5GB)", ErrInvalidSizeFormat, s)
	}

	unit := strings.ToUpper(matches[2])
	multiplier, ok := units[unit]
	if !ok {
		return 0, fmt.Errorf("%w: %q (expected one of B, KB, MB, GB, TB)", ErrUnknownUnit, matches[2])
	}

	value, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrInvalidSizeFormat, s, err)
	}

	bytes := value * float64(multiplier)
	if bytes >= math.MaxInt64 {
		return 0, fmt.Errorf("%w: %q", ErrSizeOutOfRange, s)
	}
	return int64(bytes), nil
}
