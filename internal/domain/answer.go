package domain

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Slugify lowercases the title, strips Unicode diacritics (NFD decomposition,
// combining marks removed) and joins words with hyphens. "Letra Ã" -> "letra-a".
func Slugify(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	return strings.Join(strings.Fields(strings.ToLower(stripped)), "-")
}

// CanonicalAnswer derives the correct option value for the question. Image
// questions are answered with the word itself; letter questions with the asset
// path of the matching image under the challenge's slug directory.
func (q Question) CanonicalAnswer(challengeTitle string) string {
	if q.Image != "" {
		return q.Word
	}
	return "/" + Slugify(challengeTitle) + "/" + strings.ToLower(q.Word) + ".png"
}
