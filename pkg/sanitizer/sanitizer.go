// Package sanitizer normalizes user supplied text before it is validated or stored.
package sanitizer

import (
	"strings"
	"unicode"
)

type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

func trimAndLower(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// dropControl removes non-printable runes such as NUL or zero-width joiners.
func dropControl(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) || unicode.Is(unicode.Cf, r) {
			return -1
		}
		return r
	}, s)
}

// NormalizeUsername makes usernames case-insensitive for registration and login.
func NormalizeUsername(username string) string {
	return Pipeline{dropControl, trimAndLower}.Apply(username)
}

// NormalizeRoomName keeps the name's case and collapses whitespace runs.
func NormalizeRoomName(name string) string {
	return Pipeline{dropControl, TrimAndNormalize}.Apply(name)
}
