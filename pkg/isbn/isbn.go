// Package isbn validates ISBNs and looks up bibliographic records by ISBN.
package isbn

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalid = errors.New("invalid isbn")

// Normalize strips hyphens and spaces from s and validates its check digit.
//
// Both ISBN-10 and ISBN-13 are accepted. A trailing "x" of ISBN-10 is upper-cased.
//
// # Returns
//
// - string: normalized ISBN, digits with an optional trailing "X".
//
// - error: ErrInvalid when s is not a valid ISBN.
func Normalize(s string) (string, error) {
	n := strings.ToUpper(strings.NewReplacer("-", "", " ", "").Replace(strings.TrimSpace(s)))

	switch len(n) {
	case 10:
		if !valid10(n) {
			return "", fmt.Errorf("%w: %s", ErrInvalid, s)
		}
	case 13:
		if !valid13(n) {
			return "", fmt.Errorf("%w: %s", ErrInvalid, s)
		}
	default:
		return "", fmt.Errorf("%w: %s has %d digits", ErrInvalid, s, len(n))
	}
	return n, nil
}

func digit(r byte) (int, bool) {
	if '0' <= r && r <= '9' {
		return int(r - '0'), true
	}
	return 0, false
}

func valid10(n string) bool {
	sum := 0
	for i := 0; i < 10; i++ {
		d, ok := digit(n[i])
		if !ok {
			if i == 9 && n[i] == 'X' {
				d = 10
			} else {
				return false
			}
		}
		sum += (10 - i) * d
	}
	return sum%11 == 0
}

func valid13(n string) bool {
	sum := 0
	for i := 0; i < 13; i++ {
		d, ok := digit(n[i])
		if !ok {
			return false
		}
		if i%2 == 0 {
			sum += d
		} else {
			sum += 3 * d
		}
	}
	return sum%10 == 0
}
