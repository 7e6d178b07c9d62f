package conversation

import "strings"

// SupportedLocales is the locked language list. Unknown codes fall back to
// DefaultLocale.
var SupportedLocales = []string{"en", "hr"}

const DefaultLocale = "en"

// Templates holds the prompt strings the composer renders. %s / %d verbs are
// filled by the composer.
type Templates struct {
	Help             string
	HelpWithLocation string // %s = location
	AckLocation      string // %s = location
	AckPartySize     string // %d = party size
	AckDates         string // %s, %s = check-in, check-out
	AskLocation      string
	AskPartySize     string
	AskDates         string
	Confirm          string // %s = location
	ConfirmAlt       string // %s = location
	AskAgain         string
}

// Locale bundles the keyword vocabulary and prompt templates for one
// language. All keyword lists hold normalized (lower-case, diacritic-folded)
// tokens.
type Locale struct {
	Code           string
	LodgingNouns   []string
	BookingVerbs   []string
	Prepositions   []string
	QuantityWords  []string
	FromWords      []string
	ToWords        []string
	WeekendWords   []string
	NewYearPhrases []string
	Weekdays       []string
	Months         []string
	Greetings      []string
	WordNumbers    map[string]int
	T              Templates

	notAPlace map[string]struct{}
}

var locales = map[string]*Locale{
	"en": {
		Code:           "en",
		LodgingNouns:   []string{"hotel", "hotels", "apartment", "apartments", "accommodation", "room", "rooms", "resort", "hostel", "lodging", "stay", "booking"},
		BookingVerbs:   []string{"book", "reserve", "find", "search", "need", "want", "looking"},
		Prepositions:   []string{"in", "at", "to", "for", "near", "around"},
		QuantityWords:  []string{"people", "person", "persons", "guests", "guest", "adults", "adult", "nights", "night"},
		FromWords:      []string{"from"},
		ToWords:        []string{"to", "until", "till"},
		WeekendWords:   []string{"weekend"},
		NewYearPhrases: []string{"new year"},
		Weekdays:       []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"},
		Months:         []string{"january", "february", "march", "april", "may", "june", "july", "august", "september", "october", "november", "december"},
		Greetings:      []string{"hello", "hi", "hey", "please", "thanks", "thank", "okay", "ok", "yes", "no", "actually", "the"},
		WordNumbers: map[string]int{
			"one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
			"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
			"couple": 2, "pair": 2,
		},
		T: Templates{
			Help:             "I can find you a place to stay. Say something like: accommodation in Paris.",
			HelpWithLocation: "I can find you a place to stay in %s. Just say what you need.",
			AckLocation:      "Got it, %s.",
			AckPartySize:     "Noted, %d guests.",
			AckDates:         "Noted, %s to %s.",
			AskLocation:      "Which city or place should I search?",
			AskPartySize:     "For how many people?",
			AskDates:         "Which dates? You can say a range like 12.7. to 19.7.",
			Confirm:          "All set. I'm opening accommodation results for %s.",
			ConfirmAlt:       "Opening the search for %s now. Anything else?",
			AskAgain:         "Just to check.",
		},
	},
	"hr": {
		Code:           "hr",
		LodgingNouns:   []string{"hotel", "hoteli", "apartman", "apartmani", "smjestaj", "soba", "sobe", "resort", "hostel", "nocenje", "booking"},
		BookingVerbs:   []string{"rezerviraj", "rezervirati", "trazim", "trebam", "zelim", "nadji", "pronadji"},
		Prepositions:   []string{"u", "na", "za", "kod", "blizu", "do"},
		QuantityWords:  []string{"osoba", "osobe", "osobu", "ljudi", "gosta", "gostiju", "odraslih", "noci", "nocenja"},
		FromWords:      []string{"od"},
		ToWords:        []string{"do"},
		WeekendWords:   []string{"vikend"},
		NewYearPhrases: []string{"nova godina", "novu godinu"},
		Weekdays:       []string{"ponedjeljak", "utorak", "srijeda", "cetvrtak", "petak", "subota", "nedjelja"},
		Months:         []string{"sijecanj", "veljaca", "ozujak", "travanj", "svibanj", "lipanj", "srpanj", "kolovoz", "rujan", "listopad", "studeni", "prosinac"},
		Greetings:      []string{"bok", "hej", "pozdrav", "molim", "hvala", "moze", "da", "ne", "zapravo"},
		WordNumbers: map[string]int{
			"jedna": 1, "jedan": 1, "dvoje": 2, "dvije": 2, "dva": 2,
			"troje": 3, "tri": 3, "cetvero": 4, "cetiri": 4, "petero": 5, "pet": 5,
			"sest": 6, "sedam": 7, "osam": 8, "devet": 9, "deset": 10,
		},
		T: Templates{
			Help:             "Mogu pronaci smjestaj. Recite na primjer: smjestaj u Splitu.",
			HelpWithLocation: "Mogu pronaci smjestaj u mjestu %s. Samo recite sto trebate.",
			AckLocation:      "U redu, %s.",
			AckPartySize:     "Zapisano, %d osoba.",
			AckDates:         "Zapisano, od %s do %s.",
			AskLocation:      "Za koji grad ili mjesto da trazim?",
			AskPartySize:     "Za koliko osoba?",
			AskDates:         "Koji datumi? Mozete reci raspon, npr. 12.7. do 19.7.",
			Confirm:          "Sve je spremno. Otvaram rezultate smjestaja za %s.",
			ConfirmAlt:       "Otvaram pretragu za %s. Trebate li jos nesto?",
			AskAgain:         "Samo provjera.",
		},
	},
}

// LocaleFor resolves a locale code ("hr", "hr-HR", "en-US"...) to a Locale,
// falling back to the default for anything outside the locked list.
func LocaleFor(code string) *Locale {
	base := strings.ToLower(code)
	if i := strings.IndexAny(base, "-_"); i > 0 {
		base = base[:i]
	}
	if loc, ok := locales[base]; ok {
		return loc
	}
	return locales[DefaultLocale]
}

func init() {
	for _, l := range locales {
		l.notAPlace = make(map[string]struct{})
		for _, group := range [][]string{
			l.LodgingNouns, l.BookingVerbs, l.Prepositions,
			l.QuantityWords, l.FromWords, l.ToWords,
			l.WeekendWords, l.Weekdays, l.Months, l.Greetings,
		} {
			for _, w := range group {
				l.notAPlace[w] = struct{}{}
			}
		}
		for w := range l.WordNumbers {
			l.notAPlace[w] = struct{}{}
		}
	}
}

// IsNotAPlace reports whether a normalized token belongs to the closed
// vocabulary that disqualifies a location candidate: lodging nouns,
// prepositions, verbs, quantity words, weekday and month names.
func (l *Locale) IsNotAPlace(token string) bool {
	_, ok := l.notAPlace[token]
	return ok
}

func containsAny(haystack string, words []string) bool {
	for _, w := range words {
		if strings.Contains(haystack, w) {
			return true
		}
	}
	return false
}

func isOneOf(token string, words []string) bool {
	for _, w := range words {
		if token == w {
			return true
		}
	}
	return false
}
