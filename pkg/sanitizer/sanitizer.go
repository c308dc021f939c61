package sanitizer

import (
	"strings"
	"unicode"
)

// MaxReasonLength bounds reasons and cancellation notes, in runes.
const MaxReasonLength = 500

type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

// TrimAndNormalize trims s and collapses every whitespace run into one space.
func TrimAndNormalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && !unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

func truncateRunes(limit int) Strategy {
	return func(s string) string {
		runes := []rune(s)
		if len(runes) <= limit {
			return s
		}
		return strings.TrimSpace(string(runes[:limit]))
	}
}

// SanitizeIdentifier trims ids coming from paths, headers and bodies.
func SanitizeIdentifier(id string) string {
	return strings.TrimSpace(stripControl(id))
}

// SanitizeReason collapses whitespace, drops control characters and caps the length.
func SanitizeReason(reason string) string {
	p := Pipeline{
		stripControl,
		TrimAndNormalize,
		truncateRunes(MaxReasonLength),
	}
	return p.Apply(reason)
}

// SanitizeOptionalReason is SanitizeReason for optional fields; blank becomes nil.
func SanitizeOptionalReason(reason *string) *string {
	if reason == nil {
		return nil
	}
	s := SanitizeReason(*reason)
	if s == "" {
		return nil
	}
	return &s
}
