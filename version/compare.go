package version

import (
	"fmt"
	"strconv"
	"strings"
)

// Compare orders two major.minor.patch versions, with or without a leading "v".
// It returns 1 if a is newer, -1 if b is newer and 0 if they are equal.
func Compare(a, b string) (int, error) {
	av, err := parseTriple(a)
	if err != nil {
		return 0, err
	}
	bv, err := parseTriple(b)
	if err != nil {
		return 0, err
	}

	for i := range av {
		switch {
		case av[i] > bv[i]:
			return 1, nil
		case av[i] < bv[i]:
			return -1, nil
		}
	}
	return 0, nil
}

// parseTriple ignores pre-release and build suffixes of the patch number.
func parseTriple(s string) ([3]int, error) {
	var out [3]int

	parts := strings.SplitN(strings.TrimPrefix(s, "v"), ".", 3)
	if len(parts) != 3 {
		return out, fmt.Errorf("version %q: want major.minor.patch", s)
	}
	parts[2], _, _ = strings.Cut(strings.SplitN(parts[2], "+", 2)[0], "-")

	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return out, fmt.Errorf("version %q: %w", s, err)
		}
		out[i] = n
	}
	return out, nil
}
