package conversation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercase", "Hotel In PARIS", "hotel in paris"},
		{"diacritics folded", "Šibenik über sve", "sibenik uber sve"},
		{"punctuation stripped", "hello, world! (really?)", "hello world really"},
		{"dots kept for dates", "od 12.7. do 19.7.", "od 12.7. do 19.7."},
		{"whitespace collapsed", "  a \t b \n c  ", "a b c"},
		{"empty", "", ""},
		{"only punctuation", ",!?;:", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"Hotel u Šibeniku, molim!",
		"ACCOMMODATION in München for 2 people",
		"od 12.7. do 19.7.",
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once))
	}
}

func TestCollapseRepeats(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"triple echo", "hotel hotel hotel in split", 1, "hotel in split"},
		{"noisy intent word", "lodging lodging lodging in Paris", 1, "lodging in Paris"},
		{"case-insensitive run", "Hotel hotel HOTEL in split", 1, "Hotel in split"},
		{"no repeats untouched", "hotel in split", 1, "hotel in split"},
		{"allow two", "very very nice", 2, "very very nice"},
		{"separated tokens survive", "hotel in hotel", 1, "hotel in hotel"},
		{"empty", "", 1, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CollapseRepeats(tt.in, tt.max))
		})
	}
}
