package conversation

import (
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"concierge/models"
)

const (
	maxPlaceTokens = 4
	minPartySize   = 1
	maxPartySize   = 30
)

var (
	bareNumberRe = regexp.MustCompile(`\b([0-9]{1,2})\b`)
	pureNumberRe = regexp.MustCompile(`^[0-9]+$`)
	titleCaser   = cases.Title(language.Und)
)

// Extractor pulls structured slots out of free-form normalized text using a
// prioritized list of pure heuristic rules. It never invents defaults: a slot
// that is not confidently found is simply absent from the result.
type Extractor struct {
	loc *Locale
	now func() time.Time
}

func NewExtractor(loc *Locale) *Extractor {
	return &Extractor{loc: loc, now: time.Now}
}

// Extract returns the slots found in text. previous is consulted only as a
// hint (a pending location question relaxes the bare-place rule); it is never
// copied into the result, so absent slots stay absent.
func (e *Extractor) Extract(text string, previous models.ConversationContext) models.PartialSlots {
	normalized := CollapseRepeats(Normalize(text), 1)
	tokens := strings.Fields(normalized)
	if len(tokens) == 0 {
		return models.PartialSlots{}
	}

	slots := models.PartialSlots{
		LodgingIntent: e.hasLodgingIntent(tokens),
	}

	if r := parseDateRange(normalized, e.loc, e.now()); r != nil {
		slots.Dates = r
	}

	// Date tokens are stripped unconditionally: even a lone "12.7." that
	// never became a range must not leak its digits into the party size.
	residual := stripDateTokens(normalized)
	if n, ok := e.partySize(residual); ok {
		slots.PartySize = n
	}

	// Date phrases are stripped too, so "new year" can never be
	// title-cased into a place.
	locTokens := strings.Fields(stripPhrases(residual, e.loc.NewYearPhrases))
	if place, ok := e.location(locTokens, previous); ok {
		slots.Location = place
	}

	return slots
}

func (e *Extractor) hasLodgingIntent(tokens []string) bool {
	for _, tok := range tokens {
		if isOneOf(tok, e.loc.LodgingNouns) || isOneOf(tok, e.loc.BookingVerbs) {
			return true
		}
	}
	return false
}

// partySize checks the locale word-number map first, then a bounded bare
// number. Date tokens must already be stripped from text.
func (e *Extractor) partySize(text string) (int, bool) {
	for _, tok := range strings.Fields(text) {
		if n, ok := e.loc.WordNumbers[tok]; ok {
			return n, true
		}
	}
	for _, m := range bareNumberRe.FindAllString(text, -1) {
		n := atoi(m)
		if n >= minPartySize && n <= maxPartySize {
			return n, true
		}
	}
	return 0, false
}

// location runs the prioritized rule list over normalized tokens. Each rule
// yields a candidate span or nothing; the first candidate that survives
// acceptPlace wins.
func (e *Extractor) location(tokens []string, previous models.ConversationContext) (string, bool) {
	if place, ok := e.placeAfterPreposition(tokens); ok {
		return place, true
	}
	if place, ok := e.placeFromResidue(tokens); ok {
		return place, true
	}
	if place, ok := e.placeFromBareUtterance(tokens, previous); ok {
		return place, true
	}
	return "", false
}

// placeAfterPreposition handles "in/at/to <place>" shapes. The captured span
// is cut at the first stop word so "in split for 2 people" yields "split".
func (e *Extractor) placeAfterPreposition(tokens []string) (string, bool) {
	for i, tok := range tokens {
		if !isOneOf(tok, e.loc.Prepositions) || i+1 >= len(tokens) {
			continue
		}
		span := make([]string, 0, maxPlaceTokens)
		for _, cand := range tokens[i+1:] {
			if e.isStopWord(cand) || len(span) == maxPlaceTokens {
				break
			}
			span = append(span, cand)
		}
		if e.acceptPlace(span) {
			return titlePlace(span), true
		}
	}
	return "", false
}

// placeFromResidue strips every known intent keyword, preposition and filler
// from the utterance and tries the leading tokens of what remains.
func (e *Extractor) placeFromResidue(tokens []string) (string, bool) {
	residue := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if e.loc.IsNotAPlace(tok) || pureNumberRe.MatchString(tok) || dateTokenRe.MatchString(tok) {
			continue
		}
		residue = append(residue, tok)
	}
	if len(residue) == 0 {
		return "", false
	}
	if len(residue) > maxPlaceTokens {
		residue = residue[:maxPlaceTokens]
	}
	if e.acceptPlace(residue) {
		return titlePlace(residue), true
	}
	return "", false
}

// placeFromBareUtterance treats a short utterance as a bare place name:
// the user was just asked "where?" and answered "Tokyo".
func (e *Extractor) placeFromBareUtterance(tokens []string, previous models.ConversationContext) (string, bool) {
	if len(tokens) > maxPlaceTokens {
		return "", false
	}
	if previous.Pending != models.PendingLocation {
		for _, tok := range tokens {
			if isOneOf(tok, e.loc.Greetings) || isOneOf(tok, e.loc.BookingVerbs) {
				return "", false
			}
		}
	}
	if e.acceptPlace(tokens) {
		return titlePlace(tokens), true
	}
	return "", false
}

// acceptPlace is the shared rejection filter: closed not-a-place vocabulary,
// too-short tokens, pure numbers and recognizer glitches (all tokens
// identical) all disqualify a candidate.
func (e *Extractor) acceptPlace(span []string) bool {
	if len(span) == 0 || len(span) > maxPlaceTokens {
		return false
	}
	allSame := true
	for _, tok := range span {
		if e.loc.IsNotAPlace(tok) {
			return false
		}
		if len([]rune(tok)) <= 2 {
			return false
		}
		if pureNumberRe.MatchString(tok) || dateTokenRe.MatchString(tok) {
			return false
		}
		if tok != span[0] {
			allSame = false
		}
	}
	if len(span) > 1 && allSame {
		return false
	}
	return true
}

func (e *Extractor) isStopWord(tok string) bool {
	return e.loc.IsNotAPlace(tok) || pureNumberRe.MatchString(tok) || dateTokenRe.MatchString(tok)
}

func titlePlace(span []string) string {
	return titleCaser.String(strings.Join(span, " "))
}

// stripPhrases removes whole-phrase occurrences from normalized text.
func stripPhrases(text string, phrases []string) string {
	padded := " " + text + " "
	for _, p := range phrases {
		padded = strings.ReplaceAll(padded, " "+p+" ", " ")
	}
	return strings.Join(strings.Fields(padded), " ")
}
