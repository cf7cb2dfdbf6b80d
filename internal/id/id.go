// Package id provides typed, prefix-validated resource identifiers.
//
// Every identifier carries its resource kind as a mandatory prefix
// (e.g. "usr-", "trk-"). IDs are validated at construction: a malformed
// prefix or empty body is an error, never a silent pass-through.
package id

import (
	"fmt"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/crowdtune/crowdtune-server/internal/errors"
)

// Kind identifies the resource type an identifier refers to.
type Kind string

// Resource kinds and their identifier prefixes.
const (
	KindUser     Kind = "usr"
	KindTrack    Kind = "trk"
	KindPlaylist Kind = "plt"
	KindTag      Kind = "tag"
	KindVote     Kind = "tvt"
	KindToken    Kind = "tok"
)

// Generate creates a prefixed unique ID using NanoID.
// Format: prefix-nanoid (e.g. "tag-V1StGXR8_Z5jdHi6B-myT").
//
// NanoIDs are URL-friendly, compact (21 characters vs UUID's 36),
// and use a larger alphabet for better entropy per character.
//
// Returns an error if the system has insufficient entropy for secure random generation.
func Generate(kind Kind) (string, error) {
	body, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return string(kind) + "-" + body, nil
}

// MustGenerate is like Generate but panics if ID generation fails.
// Use this only when you're certain the system entropy is available,
// or when failure should crash the program (e.g. during initialization).
func MustGenerate(kind Kind) string {
	id, err := Generate(kind)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}

// Validate checks that id is a well-formed identifier of the given kind.
// Returns an INVALID_IDENTIFIER error describing the first violation.
func Validate(kind Kind, id string) error {
	prefix := string(kind) + "-"
	if !strings.HasPrefix(id, prefix) {
		return errors.InvalidIdentifierf("%q is not a valid %s id: missing %q prefix", id, kind, prefix)
	}
	if len(id) <= len(prefix) {
		return errors.InvalidIdentifierf("%q is not a valid %s id: empty body", id, kind)
	}
	return nil
}

// KindOf reports the kind encoded in an identifier's prefix.
// Returns an INVALID_IDENTIFIER error if the prefix matches no known kind.
func KindOf(id string) (Kind, error) {
	for _, k := range []Kind{KindUser, KindTrack, KindPlaylist, KindTag, KindVote, KindToken} {
		if Validate(k, id) == nil {
			return k, nil
		}
	}
	return "", errors.InvalidIdentifierf("%q carries no known resource prefix", id)
}
