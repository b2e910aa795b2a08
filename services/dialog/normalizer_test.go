package dialog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCorrectsTravelTerms(t *testing.T) {
	cases := map[string]string{
		"I want a round chip to Denver":  "I want a round trip to Denver",
		"book a phone trip for me":       "book a round trip for me",
		"make it won way":                "make it one way",
		"fist class if possible":         "first class if possible",
		"I'd like biz class":             "I'd like business class",
		"a round trip to Denver":         "a round trip to Denver",
		"just a regular sentence please": "just a regular sentence please",
	}
	for in, want := range cases {
		assert.Equal(t, want, Normalize(in), "input: %q", in)
	}
}

func TestNormalizeExpandsCityAliases(t *testing.T) {
	assert.Equal(t, "fly from New York to San Francisco", Normalize("fly from nyc to sf"))
	assert.Equal(t, "going to Las Vegas", Normalize("going to vegas"))
	assert.Equal(t, "Philadelphia to Washington please", Normalize("philly to dc please"))
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"I want a round chip from nyc to la",
		"won way to vegas in fist class",
		"hello, I'd like to book a flight",
		"",
		"   ",
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input: %q", in)
	}
}

func TestNormalizeExpandedAliasStaysPut(t *testing.T) {
	once := Normalize("won way to vegas in fist class")
	assert.Equal(t, "one way to Las Vegas in first class", once)
	assert.Equal(t, once, Normalize(once))

	// A name that already carries its full form is never re-expanded.
	assert.Equal(t, "flying to Las Vegas", Normalize("flying to Las Vegas"))
	assert.Equal(t, "las vegas baby", Normalize("las vegas baby"))
}

func TestNormalizeFuzzyNearMiss(t *testing.T) {
	// One character off a known mis-transcription still gets corrected.
	assert.Equal(t, "a round trip ticket", Normalize("a round chap ticket"))
}
