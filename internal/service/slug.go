package service

import (
	"math/rand"
	"strconv"
	"strings"
	"unicode"
)

// slugSuffixLen is the length of the random base36 suffix appended to every
// slug. 36^6 ≈ 2.2 billion values, which keeps duplicate-title collisions
// rare; the UNIQUE constraint on the slug column is the actual guarantee,
// and the create/update paths retry on a conflict.
const slugSuffixLen = 6

// newSlug derives a URL-safe slug from a title: lowercase-kebab of the
// title plus "-" plus a random suffix. The kebab prefix is deterministic,
// so two articles titled "Hello World" share the prefix and differ only in
// the suffix.
func newSlug(title string) string {
	return slugify(title) + "-" + randomSlugSuffix()
}

// slugify lowercases the title and collapses every run of non-alphanumeric
// characters into a single hyphen.
func slugify(title string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
		} else {
			pendingDash = true
		}
	}
	return b.String()
}

// randomSlugSuffix returns a random base36 string of slugSuffixLen
// characters, zero-padded. Not cryptographically meaningful — it only has
// to make duplicate titles unlikely to collide.
func randomSlugSuffix() string {
	const max = 36 * 36 * 36 * 36 * 36 * 36
	s := strconv.FormatInt(rand.Int63n(max), 36)
	if len(s) < slugSuffixLen {
		s = strings.Repeat("0", slugSuffixLen-len(s)) + s
	}
	return s
}
