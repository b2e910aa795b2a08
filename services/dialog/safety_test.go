package dialog

import (
	"testing"

	"aerovoice/models"

	"github.com/stretchr/testify/assert"
)

func TestCheckContentBlocksPayloads(t *testing.T) {
	cases := []string{
		"<script>alert(1)</script>",
		"javascript:alert(document.cookie)",
		"'; DROP TABLE bookings; --",
		"1 UNION SELECT * FROM users",
		"eval(atob('payload'))",
	}
	for _, in := range cases {
		res := CheckContent(in)
		assert.False(t, res.Allowed, "input: %q", in)
		assert.Equal(t, models.SafetyMaliciousPayload, res.Reason, "input: %q", in)
	}
}

func TestCheckContentBlocksPII(t *testing.T) {
	res := CheckContent("my social is 123-45-6789")
	assert.False(t, res.Allowed)
	assert.Equal(t, models.SafetyPIILeak, res.Reason)

	// Luhn-valid card number.
	res = CheckContent("charge it to 4111 1111 1111 1111")
	assert.False(t, res.Allowed)
	assert.Equal(t, models.SafetyPIILeak, res.Reason)

	// A random digit run that fails Luhn is not treated as a card.
	res = CheckContent("my confirmation code is 1234 5678 9012 3456")
	assert.True(t, res.Allowed)
}

func TestCheckContentBlocksProfanityAsWholeWords(t *testing.T) {
	res := CheckContent("this is such a shit airline")
	assert.False(t, res.Allowed)
	assert.Equal(t, models.SafetyProfanity, res.Reason)

	// Substring inside a legitimate word is not profanity.
	assert.True(t, CheckContent("flights to Scunthorpe please").Allowed)
}

func TestCheckContentBlocksSpam(t *testing.T) {
	res := CheckContent("buy buy buy buy buy buy now")
	assert.False(t, res.Allowed)
	assert.Equal(t, models.SafetySpamPattern, res.Reason)

	res = CheckContent("visit https://a.example and https://b.example")
	assert.False(t, res.Allowed)
	assert.Equal(t, models.SafetySpamPattern, res.Reason)
}

func TestCheckContentAllowsNormalUtterances(t *testing.T) {
	inputs := []string{
		"I want a round trip from Boston to Denver",
		"leaving on October 12th and returning the 19th",
		"my name is Jane O'Brien-Smith",
	}
	for _, in := range inputs {
		assert.True(t, CheckContent(in).Allowed, "input: %q", in)
	}
}

func TestCheckName(t *testing.T) {
	assert.True(t, CheckName("Jane Doe").Allowed)
	assert.True(t, CheckName("Mary-Anne O'Neil").Allowed)

	for _, bad := range []string{"", "J", "R2D2", "Jane<script>", "bcdfg hklm", "   "} {
		res := CheckName(bad)
		assert.False(t, res.Allowed, "name: %q", bad)
		assert.Equal(t, models.SafetyInvalidName, res.Reason, "name: %q", bad)
	}
}
