// File: services/dialog/normalizer.go
package dialog

import "strings"

// travelCorrections maps common mis-transcriptions of travel terms to their
// intended phrase. Keys are matched fuzzily (see correctionSimilarity) so
// near-misses from the speech recognizer are caught too.
var travelCorrections = map[string]string{
	"phone trip":    "round trip",
	"round chip":    "round trip",
	"brown trip":    "round trip",
	"won way":       "one way",
	"one weigh":     "one way",
	"mulch city":    "multi city",
	"fist class":    "first class",
	"biz class":     "business class",
	"economy glass": "economy class",
	"departing on":  "leaving on",
	"return in":     "returning",
}

// cityAliases expands short or informal city references to the canonical
// city name. Matched on exact (case-insensitive) tokens only.
var cityAliases = map[string]string{
	"nyc":    "New York",
	"ny":     "New York",
	"sf":     "San Francisco",
	"sfo":    "San Francisco",
	"la":     "Los Angeles",
	"lax":    "Los Angeles",
	"chi":    "Chicago",
	"philly": "Philadelphia",
	"vegas":  "Las Vegas",
	"dc":     "Washington",
	"atl":    "Atlanta",
	"sea":    "Seattle",
}

// correctionSimilarity is the minimum Levenshtein similarity for a phrase to
// be rewritten by the correction table.
const correctionSimilarity = 0.8

// Normalize cleans a raw transcribed utterance: fuzzy travel-term correction
// followed by city-alias expansion. It is deterministic, has no failure mode
// beyond returning its input, and is idempotent.
func Normalize(raw string) string {
	tokens := strings.Fields(raw)
	if len(tokens) == 0 {
		return strings.TrimSpace(raw)
	}

	tokens = applyCorrections(tokens)

	for i, tok := range tokens {
		key := strings.ToLower(strings.Trim(tok, ".,!?;:"))
		canonical, ok := cityAliases[key]
		if !ok || partOfExpansion(tokens, i, canonical) {
			continue
		}
		tokens[i] = canonical
	}

	return strings.Join(tokens, " ")
}

// partOfExpansion reports whether the token at i already sits inside the
// canonical multi-word city name ("Vegas" preceded by "Las"), so an already
// expanded name is left alone and Normalize stays idempotent.
func partOfExpansion(tokens []string, i int, canonical string) bool {
	words := strings.Fields(canonical)
	if len(words) < 2 {
		return false
	}
	for w, word := range words {
		if !strings.EqualFold(strings.Trim(tokens[i], ".,!?;:"), word) {
			continue
		}
		start := i - w
		if start < 0 || start+len(words) > len(tokens) {
			continue
		}
		match := true
		for k, cw := range words {
			if !strings.EqualFold(strings.Trim(tokens[start+k], ".,!?;:"), cw) {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

// applyCorrections slides a window over the token stream, rewriting any phrase
// sufficiently similar to a known mis-transcription. Windows already equal to
// a canonical replacement are skipped, which keeps Normalize idempotent.
func applyCorrections(tokens []string) []string {
	lowered := make([]string, len(tokens))
	for i, t := range tokens {
		lowered[i] = strings.ToLower(strings.Trim(t, ".,!?;:"))
	}

	canonical := make(map[string]bool, len(travelCorrections))
	for _, v := range travelCorrections {
		canonical[v] = true
	}

	out := make([]string, 0, len(tokens))
	i := 0
	for i < len(tokens) {
		replaced := false
		for phrase, fix := range travelCorrections {
			n := len(strings.Fields(phrase))
			if i+n > len(tokens) {
				continue
			}
			window := strings.Join(lowered[i:i+n], " ")
			if canonical[window] {
				continue
			}
			if similarity(window, phrase) >= correctionSimilarity {
				out = append(out, strings.Fields(fix)...)
				i += n
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, tokens[i])
			i++
		}
	}
	return out
}

// similarity is 1 - levenshtein(a,b)/max(len(a),len(b)).
func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	la, lb := len(a), len(b)
	if la == 0 || lb == 0 {
		return 0
	}
	max := la
	if lb > max {
		max = lb
	}
	return 1 - float64(levenshtein(a, b))/float64(max)
}

func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min3(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
