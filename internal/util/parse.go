package util

import (
	"strconv"
	"strings"
)

// SafeAtoi parses s as an int, returning 0 for anything unparsable.
func SafeAtoi(s string) int {
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return i
}
