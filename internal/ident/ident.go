// Package ident allocates decision identifiers of the form K-NNN.
package ident

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Prefix is the literal that precedes every identifier number.
const Prefix = "K-"

var idRe = regexp.MustCompile(`K-(\d+)`)

// Format renders n as an identifier, zero-padded to three digits.
func Format(n int) string {
	return fmt.Sprintf("%s%03d", Prefix, n)
}

// Parse returns the numeric part of an identifier such as "K-007".
func Parse(id string) (int, error) {
	if !strings.HasPrefix(id, Prefix) {
		return 0, fmt.Errorf("ident: %q has no %s prefix", id, Prefix)
	}
	n, err := strconv.Atoi(id[len(Prefix):])
	if err != nil || n < 0 {
		return 0, fmt.Errorf("ident: %q is not a valid identifier", id)
	}
	return n, nil
}

// Max scans text for identifiers and returns the largest number found.
// ok is false when text contains none.
func Max(text string) (max int, ok bool) {
	for _, m := range idRe.FindAllStringSubmatch(text, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			// Digit runs too long for int cannot be allocated anyway.
			continue
		}
		if !ok || n > max {
			max, ok = n, true
		}
	}
	return max, ok
}

// Next returns the identifier that follows the largest one in text,
// or K-001 when text has none.
func Next(text string) string {
	max, ok := Max(text)
	if !ok {
		return Format(1)
	}
	return Format(max + 1)
}

// Last returns the largest identifier present in text.
func Last(text string) (string, bool) {
	max, ok := Max(text)
	if !ok {
		return "", false
	}
	return Format(max), true
}

// Canonical accepts "K-7", "k-007" or a bare "7" and returns "K-007".
func Canonical(s string) (string, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if !strings.HasPrefix(s, Prefix) {
		s = Prefix + s
	}
	n, err := Parse(s)
	if err != nil {
		return "", err
	}
	return Format(n), nil
}
