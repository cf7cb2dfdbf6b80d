// Package normalize canonicalizes user-supplied tag names.
package normalize

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
)

var (
	// Matches spaces, underscores, and slashes (for replacement with dashes).
	wordSeparatorRe = regexp.MustCompile(`[\s_/]+`)
	// Matches non-alphanumeric characters (except dashes).
	nonAlphanumericRe = regexp.MustCompile(`[^a-z0-9-]`)
	// Matches multiple consecutive dashes.
	multipleDashRe = regexp.MustCompile(`-+`)
)

// TagName converts raw user input to a canonical tag name. Canonicalization
// happens once, at write time; the stored name is the source of truth for
// tag identity, so "Slow Burn", "slow_burn" and "SLOW BURN" collide onto
// the same tag document.
//
// Rules:
//  1. Unicode case folding (so "STRASSE" and "straße" agree)
//  2. Replace spaces, underscores, and slashes with dashes
//  3. Strip everything outside [a-z0-9-]
//  4. Collapse runs of dashes, trim leading/trailing dashes
//
// The result contains no colons, which keeps it safe to embed in store
// index keys. Returns "" for input with no usable content.
func TagName(input string) string {
	name := cases.Fold().String(strings.TrimSpace(input))
	name = wordSeparatorRe.ReplaceAllString(name, "-")
	name = nonAlphanumericRe.ReplaceAllString(name, "")
	name = multipleDashRe.ReplaceAllString(name, "-")
	return strings.Trim(name, "-")
}
