// Package isbn cleans, validates and converts ISBN-10 and ISBN-13 identifiers.
//
// The canonical form used across bookshelf is the 13-digit ISBN-13; Normalize
// produces it from anything a user can type or a barcode scanner can emit.
package isbn

import (
	"errors"
	"strings"
)

// ErrInvalid is returned by Normalize when the input is neither a valid
// ISBN-10 nor a valid ISBN-13 after cleaning.
var ErrInvalid = errors.New("invalid isbn")

// BooklandPrefix is the only ISBN-13 prefix that has an ISBN-10 equivalent.
const BooklandPrefix = "978"

// Clean drops every character except digits and X, and uppercases the result.
func Clean(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == 'x' || r == 'X':
			b.WriteByte('X')
		}
	}
	return b.String()
}

// IsValid10 reports whether s is a valid ISBN-10 after cleaning.
func IsValid10(s string) bool {
	x := Clean(s)
	if len(x) != 10 {
		return false
	}
	sum := 0
	for i := 0; i < 9; i++ {
		if !isDigit(x[i]) {
			return false
		}
		sum += (i + 1) * digit(x[i])
	}
	last := x[9]
	switch {
	case last == 'X':
		sum += 10 * 10
	case isDigit(last):
		sum += 10 * digit(last)
	default:
		return false
	}
	return sum%11 == 0
}

// IsValid13 reports whether s is a valid ISBN-13 after cleaning.
func IsValid13(s string) bool {
	x := Clean(s)
	if len(x) != 13 {
		return false
	}
	for i := 0; i < 13; i++ {
		if !isDigit(x[i]) {
			return false
		}
	}
	return check13(x[:12]) == x[12]
}

// To13 converts an ISBN-10 into its 978-prefixed ISBN-13 form.
// The caller must pass something that cleans to at least ten characters.
func To13(s string) string {
	body := BooklandPrefix + Clean(s)[:9]
	return body + string(check13(body))
}

// To10 converts a 978-prefixed ISBN-13 into ISBN-10. ok is false for any
// other prefix, since those have no ISBN-10 form.
func To10(s string) (isbn10 string, ok bool) {
	x := Clean(s)
	if len(x) != 13 || !strings.HasPrefix(x, BooklandPrefix) {
		return "", false
	}
	body := x[3:12]
	sum := 0
	for i := 0; i < 9; i++ {
		sum += (10 - i) * digit(body[i])
	}
	check := (11 - sum%11) % 11
	if check == 10 {
		return body + "X", true
	}
	return body + string(rune('0'+check)), true
}

// Normalize returns the canonical ISBN-13 for raw, converting ISBN-10 input.
// Normalizing a canonical ISBN-13 returns it unchanged.
func Normalize(raw string) (string, error) {
	x := Clean(raw)
	switch {
	case len(x) == 10 && IsValid10(x):
		return To13(x), nil
	case len(x) == 13 && IsValid13(x):
		return x, nil
	default:
		return "", ErrInvalid
	}
}

// check13 computes the ISBN-13 check digit over the first twelve digits.
func check13(body string) byte {
	sum := 0
	for i := 0; i < 12; i++ {
		w := 1
		if i%2 == 1 {
			w = 3
		}
		sum += w * digit(body[i])
	}
	return byte('0' + (10-sum%10)%10)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func digit(c byte) int { return int(c - '0') }
