package conversation

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldDiacritics strips combining marks after NFD decomposition, so
// "Šibenik" normalizes to "sibenik" and "München" to "munchen".
var foldDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// strippedPunctuation is the fixed punctuation set removed during
// normalization. Dots stay: they carry date information (12.7.2026).
const strippedPunctuation = ",!?;:\"'()[]{}"

// Normalize lower-cases, folds diacritics to base Latin letters, strips the
// fixed punctuation set and collapses whitespace runs. Idempotent; empty
// input yields an empty string.
func Normalize(raw string) string {
	folded, _, err := transform.String(foldDiacritics, raw)
	if err != nil {
		folded = raw
	}
	lowered := strings.ToLower(folded)

	var b strings.Builder
	b.Grow(len(lowered))
	for _, r := range lowered {
		if strings.ContainsRune(strippedPunctuation, r) {
			continue
		}
		if unicode.IsSpace(r) {
			b.WriteRune(' ')
			continue
		}
		b.WriteRune(r)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// CollapseRepeats removes immediately repeated tokens beyond maxRepeat
// occurrences. Capture providers frequently echo a word several times on
// noisy input ("hotel hotel hotel in split"), which would otherwise poison
// extraction. Comparison happens on normalized tokens; the original token
// text is preserved.
func CollapseRepeats(text string, maxRepeat int) string {
	if maxRepeat < 1 {
		maxRepeat = 1
	}
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return ""
	}

	out := make([]string, 0, len(tokens))
	prev := ""
	run := 0
	for _, tok := range tokens {
		key := Normalize(tok)
		if key == prev {
			run++
		} else {
			prev = key
			run = 1
		}
		if run <= maxRepeat {
			out = append(out, tok)
		}
	}
	return strings.Join(out, " ")
}
