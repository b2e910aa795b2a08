// File: services/dialog/rules.go
package dialog

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"aerovoice/models"
)

// Fixed per-rule confidences. These are constants, not learned scores, and
// sit deliberately below typical LLM confidences.
const (
	confCancel         = 0.9
	confGreeting       = 0.9
	confChangeTripType = 0.85
	confConfirm        = 0.85
	confCorrect        = 0.8
	confDeny           = 0.8
	confSelectOption   = 0.8
	confProvideInfo    = 0.7
	confAskQuestion    = 0.65
	confOutOfScope     = 0.4
)

// RuleClassifier is the deterministic keyword/pattern fallback. It is local
// logic with no failure mode, which is what makes ClassificationUnavailable
// effectively unreachable.
type RuleClassifier struct{}

func NewRuleClassifier() *RuleClassifier { return &RuleClassifier{} }

var (
	cancelPhrases  = []string{"cancel", "never mind", "nevermind", "forget it", "stop the booking", "abort"}
	correctionCues = []string{"actually", "i meant", "instead", "no wait", "change that", "make that", "scratch that", "not "}
	confirmPhrases = []string{"yes", "yeah", "yep", "correct", "that's right", "thats right", "confirm", "book it", "sounds good", "sure", "perfect", "go ahead"}
	denyPhrases    = []string{"no", "nope", "not that one", "none of those", "neither"}
	greetPhrases   = []string{"hello", "hi", "hey", "good morning", "good afternoon", "good evening"}
	questionLeads  = []string{"what", "how", "when", "where", "which", "why", "can you", "could you", "do you", "is there"}
)

func (rc *RuleClassifier) Classify(_ context.Context, text string, record *models.BookingRecord, at time.Time) (models.ClassificationResult, error) {
	lower := strings.ToLower(strings.TrimSpace(text))
	entities := ExtractEntities(text, record, at)

	result := func(intent models.Intent, conf float64) (models.ClassificationResult, error) {
		return models.ClassificationResult{
			Intent:     intent,
			Confidence: conf,
			Entities:   entities,
			Source:     models.SourceRuleFallback,
		}, nil
	}

	switch {
	case matchesAny(lower, cancelPhrases):
		return result(models.IntentCancel, confCancel)

	case isTripTypeChange(record, entities):
		return result(models.IntentChangeTripType, confChangeTripType)

	case hasCorrectionCue(lower):
		return result(models.IntentCorrect, confCorrect)

	case hasOptionSelection(entities):
		return result(models.IntentSelectOption, confSelectOption)

	case isConfirmation(lower) && len(entities) == 0:
		return result(models.IntentConfirm, confConfirm)

	case isDenial(lower) && len(entities) == 0:
		return result(models.IntentDeny, confDeny)

	case isGreeting(lower) && len(entities) == 0:
		return result(models.IntentGreeting, confGreeting)

	case len(entities) > 0:
		return result(models.IntentProvideInfo, confProvideInfo)

	case isQuestion(lower):
		return result(models.IntentAskQuestion, confAskQuestion)

	default:
		return result(models.IntentOutOfScope, confOutOfScope)
	}
}

func matchesAny(lower string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

func hasCorrectionCue(lower string) bool {
	for _, cue := range correctionCues {
		if strings.Contains(lower, cue) {
			return true
		}
	}
	return false
}

// isTripTypeChange holds when the utterance names a trip type different from
// an already-recorded one.
func isTripTypeChange(record *models.BookingRecord, entities map[string]models.Entity) bool {
	if record == nil || !record.Trip.TripType.Filled() {
		return false
	}
	e, ok := entities[models.SlotTripType]
	return ok && e.Value != record.Trip.TripType.Value
}

func hasOptionSelection(entities map[string]models.Entity) bool {
	_, ok := entities["option_index"]
	return ok
}

func isConfirmation(lower string) bool {
	for _, p := range confirmPhrases {
		if lower == p || strings.HasPrefix(lower, p+" ") || strings.HasPrefix(lower, p+",") {
			return true
		}
	}
	return false
}

func isDenial(lower string) bool {
	for _, p := range denyPhrases {
		if lower == p || strings.HasPrefix(lower, p+" ") || strings.HasPrefix(lower, p+",") {
			return true
		}
	}
	return false
}

func isGreeting(lower string) bool {
	for _, p := range greetPhrases {
		if lower == p || strings.HasPrefix(lower, p+" ") || strings.HasPrefix(lower, p+",") || strings.HasPrefix(lower, p+"!") {
			return true
		}
	}
	return false
}

func isQuestion(lower string) bool {
	if strings.HasSuffix(lower, "?") {
		return true
	}
	for _, lead := range questionLeads {
		if strings.HasPrefix(lower, lead+" ") {
			return true
		}
	}
	return false
}

// ---- entity extraction ----

// knownCities is the dictionary used for bare city mentions. Alias expansion
// in the normalizer feeds into these canonical names.
var knownCities = []string{
	"New York", "San Francisco", "Los Angeles", "Chicago", "Boston", "Seattle",
	"Miami", "Denver", "Austin", "Atlanta", "Dallas", "Houston", "Philadelphia",
	"Las Vegas", "Washington", "Portland", "San Diego", "Phoenix", "Orlando",
	"Minneapolis", "Detroit", "Nashville", "New Orleans", "Salt Lake City",
	"London", "Paris", "Tokyo", "Toronto", "Mexico City",
}

var passengerNamePattern = regexp.MustCompile(`\b(?:[Mm]y name is|I am|I'm|[Tt]his is|[Nn]ame's)\s+([A-Z][a-z']+(?:[ -][A-Z][a-z']+){0,2})`)

var optionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:option|number|flight number)\s+(\d)\b`),
	regexp.MustCompile(`(?i)\bthe\s+(first|second|third|fourth|fifth)\s+(?:one|option|flight)\b`),
	regexp.MustCompile(`(?i)^(?:the\s+)?(first|second|third|fourth|fifth)\s+(?:one|option|flight)\b`),
}

var ordinalIndex = map[string]string{
	"first": "1", "second": "2", "third": "3", "fourth": "4", "fifth": "5",
}

// ExtractEntities pulls slot values out of an utterance: cities (with
// from/to roles), trip type, dates normalized against at, cabin class,
// passenger name, and option selections.
func ExtractEntities(text string, record *models.BookingRecord, at time.Time) map[string]models.Entity {
	entities := make(map[string]models.Entity)
	lower := strings.ToLower(text)

	extractTripType(lower, entities)
	extractCabinClass(lower, entities)
	extractCities(text, lower, record, entities)
	extractDates(lower, record, at, entities)
	extractPassengerName(text, entities)
	extractOptionSelection(text, entities)

	return entities
}

func extractTripType(lower string, entities map[string]models.Entity) {
	switch {
	case strings.Contains(lower, "round trip") || strings.Contains(lower, "roundtrip") || strings.Contains(lower, "return ticket"):
		entities[models.SlotTripType] = models.Entity{Value: string(models.TripRoundTrip), Confidence: 0.9}
	case strings.Contains(lower, "one way") || strings.Contains(lower, "oneway") || strings.Contains(lower, "single ticket"):
		entities[models.SlotTripType] = models.Entity{Value: string(models.TripOneWay), Confidence: 0.9}
	case strings.Contains(lower, "multi city") || strings.Contains(lower, "multiple cities") || strings.Contains(lower, "several stops"):
		entities[models.SlotTripType] = models.Entity{Value: string(models.TripMultiCity), Confidence: 0.85}
	}
}

func extractCabinClass(lower string, entities map[string]models.Entity) {
	switch {
	case strings.Contains(lower, "premium economy"):
		entities[models.SlotCabinClass] = models.Entity{Value: string(models.CabinPremiumEconomy), Confidence: 0.85}
	case strings.Contains(lower, "first class"):
		entities[models.SlotCabinClass] = models.Entity{Value: string(models.CabinFirst), Confidence: 0.85}
	case strings.Contains(lower, "business"):
		entities[models.SlotCabinClass] = models.Entity{Value: string(models.CabinBusiness), Confidence: 0.85}
	case strings.Contains(lower, "economy") || strings.Contains(lower, "coach"):
		entities[models.SlotCabinClass] = models.Entity{Value: string(models.CabinEconomy), Confidence: 0.8}
	}
}

// extractCities finds known city names and assigns origin/destination roles
// from the preposition in front of them. A bare mention with no preposition
// falls to whichever slot the record still needs, at reduced confidence.
func extractCities(text, lower string, record *models.BookingRecord, entities map[string]models.Entity) {
	type mention struct {
		city string
		pos  int
		role string // "origin", "destination", or ""
		conf float64
	}
	var mentions []mention

	for _, city := range knownCities {
		cl := strings.ToLower(city)
		idx := 0
		for {
			i := strings.Index(lower[idx:], cl)
			if i < 0 {
				break
			}
			i += idx
			role, conf := cityRole(lower[:i])
			mentions = append(mentions, mention{city: city, pos: i, role: role, conf: conf})
			idx = i + len(cl)
		}
	}

	for _, m := range mentions {
		switch m.role {
		case "origin":
			entities[models.SlotOrigin] = models.Entity{Value: m.city, Confidence: m.conf}
		case "destination":
			entities[models.SlotDestination] = models.Entity{Value: m.city, Confidence: m.conf}
		}
	}

	// Bare mentions: fill whichever role is still open this turn.
	for _, m := range mentions {
		if m.role != "" {
			continue
		}
		if _, ok := entities[models.SlotOrigin]; !ok && record != nil && !record.Trip.Origin.Filled() {
			entities[models.SlotOrigin] = models.Entity{Value: m.city, Confidence: m.conf}
			continue
		}
		if _, ok := entities[models.SlotDestination]; !ok {
			entities[models.SlotDestination] = models.Entity{Value: m.city, Confidence: m.conf}
		}
	}
}

// cityRole inspects the words immediately before a city mention.
func cityRole(prefix string) (string, float64) {
	prefix = strings.TrimRight(prefix, " ")
	words := strings.Fields(prefix)
	if len(words) == 0 {
		return "", 0.6
	}
	switch words[len(words)-1] {
	case "from", "leaving", "departing":
		return "origin", 0.85
	case "to", "into", "toward", "towards", "visit", "visiting":
		return "destination", 0.85
	}
	if len(words) >= 2 {
		two := words[len(words)-2] + " " + words[len(words)-1]
		switch two {
		case "out of", "flying from", "leave from", "depart from":
			return "origin", 0.85
		case "going to", "flying to", "fly to", "travel to", "back to":
			return "destination", 0.85
		}
	}
	return "", 0.6
}

var (
	isoDatePattern     = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	monthDayPattern    = regexp.MustCompile(`\b(january|february|march|april|may|june|july|august|september|october|november|december)\s+(\d{1,2})(?:st|nd|rd|th)?(?:,?\s*(\d{4}))?\b`)
	dayMonthPattern    = regexp.MustCompile(`\b(\d{1,2})(?:st|nd|rd|th)?\s+(?:of\s+)?(january|february|march|april|may|june|july|august|september|october|november|december)(?:,?\s*(\d{4}))?\b`)
	bareDayPattern     = regexp.MustCompile(`\bthe\s+(\d{1,2})(?:st|nd|rd|th)\b`)
	weekdayPattern     = regexp.MustCompile(`\b(next|this)\s+(monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`)
	returnCuePattern   = regexp.MustCompile(`(?:return(?:ing)?|coming back|back on|come back)[^.]{0,20}$`)
)

var monthIndex = map[string]time.Month{
	"january": time.January, "february": time.February, "march": time.March,
	"april": time.April, "may": time.May, "june": time.June, "july": time.July,
	"august": time.August, "september": time.September, "october": time.October,
	"november": time.November, "december": time.December,
}

var weekdayIndex = map[string]time.Weekday{
	"monday": time.Monday, "tuesday": time.Tuesday, "wednesday": time.Wednesday,
	"thursday": time.Thursday, "friday": time.Friday, "saturday": time.Saturday,
	"sunday": time.Sunday,
}

type dateMatch struct {
	iso  string
	pos  int
	conf float64
}

// extractDates normalizes every date mention to an ISO calendar date using at
// as the reference. Day-only mentions ("the 15th") resolve to the next
// occurrence of that day-of-month and carry reduced confidence.
func extractDates(lower string, record *models.BookingRecord, at time.Time, entities map[string]models.Entity) {
	matches := findDates(lower, at)
	if len(matches) == 0 {
		return
	}

	roundTrip := record != nil && record.Trip.TripType.Value == string(models.TripRoundTrip)
	if _, ok := entities[models.SlotTripType]; ok {
		roundTrip = entities[models.SlotTripType].Value == string(models.TripRoundTrip)
	}

	assigned := 0
	for _, m := range matches {
		slot := models.SlotDepartureDate
		if returnCuePattern.MatchString(lower[:m.pos]) {
			slot = models.SlotReturnDate
		} else if assigned > 0 && roundTrip {
			slot = models.SlotReturnDate
		}
		if _, taken := entities[slot]; taken {
			if slot == models.SlotDepartureDate && roundTrip {
				slot = models.SlotReturnDate
			} else {
				continue
			}
		}
		entities[slot] = models.Entity{Value: m.iso, Confidence: m.conf}
		assigned++
	}
}

func findDates(lower string, at time.Time) []dateMatch {
	ref := time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, time.UTC)
	var matches []dateMatch
	claimed := make([]bool, len(lower))

	claim := func(start, end int) bool {
		for i := start; i < end && i < len(claimed); i++ {
			if claimed[i] {
				return false
			}
		}
		for i := start; i < end && i < len(claimed); i++ {
			claimed[i] = true
		}
		return true
	}

	for _, loc := range isoDatePattern.FindAllStringSubmatchIndex(lower, -1) {
		if !claim(loc[0], loc[1]) {
			continue
		}
		matches = append(matches, dateMatch{iso: lower[loc[0]:loc[1]], pos: loc[0], conf: 0.95})
	}

	for _, loc := range monthDayPattern.FindAllStringSubmatchIndex(lower, -1) {
		if !claim(loc[0], loc[1]) {
			continue
		}
		month := monthIndex[lower[loc[2]:loc[3]]]
		day, _ := strconv.Atoi(lower[loc[4]:loc[5]])
		year := yearOrNextOccurrence(loc, lower, month, day, ref)
		if d, ok := calendarDate(year, month, day); ok {
			matches = append(matches, dateMatch{iso: d, pos: loc[0], conf: 0.85})
		}
	}

	for _, loc := range dayMonthPattern.FindAllStringSubmatchIndex(lower, -1) {
		if !claim(loc[0], loc[1]) {
			continue
		}
		day, _ := strconv.Atoi(lower[loc[2]:loc[3]])
		month := monthIndex[lower[loc[4]:loc[5]]]
		year := yearOrNextOccurrence(loc, lower, month, day, ref)
		if d, ok := calendarDate(year, month, day); ok {
			matches = append(matches, dateMatch{iso: d, pos: loc[0], conf: 0.85})
		}
	}

	switch {
	case strings.Contains(lower, "day after tomorrow"):
		if i := strings.Index(lower, "day after tomorrow"); claim(i, i+len("day after tomorrow")) {
			matches = append(matches, dateMatch{iso: ref.AddDate(0, 0, 2).Format("2006-01-02"), pos: i, conf: 0.9})
		}
	case strings.Contains(lower, "tomorrow"):
		if i := strings.Index(lower, "tomorrow"); claim(i, i+len("tomorrow")) {
			matches = append(matches, dateMatch{iso: ref.AddDate(0, 0, 1).Format("2006-01-02"), pos: i, conf: 0.9})
		}
	case strings.Contains(lower, "today"):
		if i := strings.Index(lower, "today"); claim(i, i+len("today")) {
			matches = append(matches, dateMatch{iso: ref.Format("2006-01-02"), pos: i, conf: 0.9})
		}
	}

	for _, loc := range weekdayPattern.FindAllStringSubmatchIndex(lower, -1) {
		if !claim(loc[0], loc[1]) {
			continue
		}
		wd := weekdayIndex[lower[loc[4]:loc[5]]]
		next := lower[loc[2]:loc[3]] == "next"
		d := nextWeekday(ref, wd, next)
		matches = append(matches, dateMatch{iso: d.Format("2006-01-02"), pos: loc[0], conf: 0.75})
	}

	for _, loc := range bareDayPattern.FindAllStringSubmatchIndex(lower, -1) {
		if !claim(loc[0], loc[1]) {
			continue
		}
		day, _ := strconv.Atoi(lower[loc[2]:loc[3]])
		if day < 1 || day > 31 {
			continue
		}
		d := nextDayOfMonth(ref, day)
		matches = append(matches, dateMatch{iso: d.Format("2006-01-02"), pos: loc[0], conf: 0.6})
	}

	// Order by position so departure-before-return assignment holds.
	for i := 1; i < len(matches); i++ {
		for j := i; j > 0 && matches[j].pos < matches[j-1].pos; j-- {
			matches[j], matches[j-1] = matches[j-1], matches[j]
		}
	}
	return matches
}

func yearOrNextOccurrence(loc []int, lower string, month time.Month, day int, ref time.Time) int {
	if loc[6] >= 0 {
		if y, err := strconv.Atoi(lower[loc[6]:loc[7]]); err == nil {
			return y
		}
	}
	year := ref.Year()
	candidate := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if candidate.Before(ref) {
		year++
	}
	return year
}

func calendarDate(year int, month time.Month, day int) (string, bool) {
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if d.Day() != day || d.Month() != month {
		return "", false
	}
	return d.Format("2006-01-02"), true
}

func nextWeekday(ref time.Time, wd time.Weekday, skipThisWeek bool) time.Time {
	days := (int(wd) - int(ref.Weekday()) + 7) % 7
	if days == 0 {
		days = 7
	}
	if skipThisWeek && days < 7 {
		days += 7
	}
	return ref.AddDate(0, 0, days)
}

func nextDayOfMonth(ref time.Time, day int) time.Time {
	d := time.Date(ref.Year(), ref.Month(), day, 0, 0, 0, 0, time.UTC)
	if d.Day() != day || d.Before(ref) {
		d = time.Date(ref.Year(), ref.Month()+1, day, 0, 0, 0, 0, time.UTC)
	}
	return d
}

func extractPassengerName(text string, entities map[string]models.Entity) {
	m := passengerNamePattern.FindStringSubmatch(text)
	if m == nil {
		return
	}
	entities[models.SlotPassengerName] = models.Entity{Value: strings.TrimSpace(m[1]), Confidence: 0.8}
}

func extractOptionSelection(text string, entities map[string]models.Entity) {
	for _, p := range optionPatterns {
		m := p.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		val := strings.ToLower(m[1])
		if idx, ok := ordinalIndex[val]; ok {
			val = idx
		}
		if _, err := strconv.Atoi(val); err != nil {
			continue
		}
		entities["option_index"] = models.Entity{Value: val, Confidence: 0.8}
		return
	}
}
