// File: services/dialog/safety.go
package dialog

import (
	"regexp"
	"strings"

	"aerovoice/models"
)

// SafetyResult is the outcome of the content gate. When Allowed is false the
// state machine must not advance stage or touch the booking record for the
// turn; only the Reason category is surfaced, never the matched text.
type SafetyResult struct {
	Allowed bool
	Reason  models.SafetyCategory
}

var (
	ssnPattern  = regexp.MustCompile(`\b\d{3}[- ]?\d{2}[- ]?\d{4}\b`)
	cardPattern = regexp.MustCompile(`\b(?:\d[ -]?){13,19}\b`)
	urlPattern  = regexp.MustCompile(`(?i)\bhttps?://\S+`)

	payloadPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)<\s*script\b`),
		regexp.MustCompile(`(?i)\bjavascript\s*:`),
		regexp.MustCompile(`(?i)\bon(error|load|click)\s*=`),
		regexp.MustCompile(`(?i)\bunion\s+select\b`),
		regexp.MustCompile(`(?i)\bdrop\s+table\b`),
		regexp.MustCompile(`(?i);\s*--`),
		regexp.MustCompile(`(?i)\beval\s*\(`),
	}

	profanityTerms = []string{
		"fuck", "shit", "bitch", "asshole", "bastard", "dickhead", "motherfucker",
	}

	namePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z' -]{1,58}$`)
)

// CheckContent gates an utterance before it reaches classification. Order
// matters: payload signatures first (they may also contain digits), then PII,
// then profanity, then spam shape.
func CheckContent(text string) SafetyResult {
	for _, p := range payloadPatterns {
		if p.MatchString(text) {
			return SafetyResult{Reason: models.SafetyMaliciousPayload}
		}
	}

	if ssnPattern.MatchString(text) {
		return SafetyResult{Reason: models.SafetyPIILeak}
	}
	for _, m := range cardPattern.FindAllString(text, -1) {
		if luhnValid(m) {
			return SafetyResult{Reason: models.SafetyPIILeak}
		}
	}

	lower := strings.ToLower(text)
	for _, term := range profanityTerms {
		if containsWord(lower, term) {
			return SafetyResult{Reason: models.SafetyProfanity}
		}
	}

	if isSpam(lower) {
		return SafetyResult{Reason: models.SafetySpamPattern}
	}

	return SafetyResult{Allowed: true}
}

// CheckName validates a passenger name at the point of capture. Names are
// letters, spaces, hyphens, and apostrophes only, 2-59 characters.
func CheckName(name string) SafetyResult {
	trimmed := strings.TrimSpace(name)
	if !namePattern.MatchString(trimmed) {
		return SafetyResult{Reason: models.SafetyInvalidName}
	}
	if !strings.ContainsAny(strings.ToLower(trimmed), "aeiouy") {
		return SafetyResult{Reason: models.SafetyInvalidName}
	}
	return SafetyResult{Allowed: true}
}

// luhnValid runs the Luhn checksum over the digits of s. Separators are
// stripped first; 13-19 digits qualify as a plausible card number.
func luhnValid(s string) bool {
	var digits []int
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits = append(digits, int(r-'0'))
		}
	}
	if len(digits) < 13 || len(digits) > 19 {
		return false
	}
	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := digits[i]
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

// isSpam flags runs of the same token and link-stuffed utterances. Spoken
// input should contain neither.
func isSpam(lower string) bool {
	if len(urlPattern.FindAllString(lower, -1)) >= 2 {
		return true
	}
	tokens := strings.Fields(lower)
	run := 1
	for i := 1; i < len(tokens); i++ {
		if tokens[i] == tokens[i-1] {
			run++
			if run >= 6 {
				return true
			}
		} else {
			run = 1
		}
	}
	return false
}

func containsWord(text, word string) bool {
	idx := 0
	for {
		i := strings.Index(text[idx:], word)
		if i < 0 {
			return false
		}
		i += idx
		before := i == 0 || !isLetter(text[i-1])
		afterIdx := i + len(word)
		after := afterIdx >= len(text) || !isLetter(text[afterIdx])
		if before && after {
			return true
		}
		idx = i + len(word)
	}
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
