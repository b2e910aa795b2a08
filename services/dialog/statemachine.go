// File: services/dialog/statemachine.go
package dialog

import (
	"strings"
	"time"

	"aerovoice/models"

	"go.uber.org/zap"
)

// StateMachine advances a dialog session through the booking stages. It
// performs no I/O: flight search, payment, and archival are driven by the
// engine between Apply calls, and every recoverable failure is an explicit
// response path.
type StateMachine struct {
	logger *zap.Logger
}

func NewStateMachine(logger *zap.Logger) *StateMachine {
	return &StateMachine{logger: logger}
}

// collectOrder defines the required slots per collecting stage, in flow
// order. The return date is required only for round trips.
var collectOrder = []struct {
	stage models.Stage
	slots func(*models.BookingRecord) []string
}{
	{models.StageCollectingTripType, func(*models.BookingRecord) []string {
		return []string{models.SlotTripType}
	}},
	{models.StageCollectingOrigin, func(*models.BookingRecord) []string {
		return []string{models.SlotOrigin}
	}},
	{models.StageCollectingDestination, func(*models.BookingRecord) []string {
		return []string{models.SlotDestination}
	}},
	{models.StageCollectingDates, func(r *models.BookingRecord) []string {
		if r.Trip.TripType.Value == string(models.TripRoundTrip) {
			return []string{models.SlotDepartureDate, models.SlotReturnDate}
		}
		return []string{models.SlotDepartureDate}
	}},
	{models.StageCollectingPassengerName, func(*models.BookingRecord) []string {
		return []string{models.SlotPassengerName}
	}},
}

// nextUnmetStage recomputes the earliest collecting stage whose required
// slots are not yet filled. With everything met the flow moves to search.
// Recomputing after every mutation is what lets a multi-slot turn skip
// several collecting stages at once.
func nextUnmetStage(rec *models.BookingRecord) models.Stage {
	for _, req := range collectOrder {
		for _, slot := range req.slots(rec) {
			if !rec.Slot(slot).Filled() {
				return req.stage
			}
		}
	}
	return models.StageSearchingFlights
}

// outstandingSlots lists every required slot still unfilled.
func outstandingSlots(rec *models.BookingRecord) []string {
	var out []string
	for _, req := range collectOrder {
		for _, slot := range req.slots(rec) {
			if !rec.Slot(slot).Filled() {
				out = append(out, slot)
			}
		}
	}
	return out
}

// mutationResult accumulates what applyEntities did to the record.
type mutationResult struct {
	newlyFilled []string
	corrected   []models.FieldCorrection
	repeated    []string
	invalidName bool
	tripChanged bool
}

// Apply consumes one classified turn: it decides the next stage, mutates the
// booking record, and returns the response context. Terminal stages,
// cancellation, and low confidence are resolved before the transition table.
func (m *StateMachine) Apply(sess *models.DialogSession, res models.ClassificationResult, text string, at time.Time) models.ResponseContext {
	if sess.Stage.Terminal() {
		return models.ResponseContext{Stage: sess.Stage, Prompt: models.PromptSessionClosed}
	}

	band := BandFor(res.Confidence)

	if res.Intent == models.IntentCancel && band != models.BandLow {
		sess.Stage = models.StageAborted
		sess.Pending = nil
		return models.ResponseContext{Stage: sess.Stage, Prompt: models.PromptSessionAborted}
	}

	if band == models.BandLow {
		slot := dominantSlot(res)
		pending := &models.Clarification{Intent: res.Intent, Slot: slot}
		if e, ok := res.Entities[slot]; ok {
			pending.Value = e.Value
		}
		sess.Pending = pending
		return models.ResponseContext{
			Stage:       sess.Stage,
			Prompt:      models.PromptClarify,
			ClarifySlot: slot,
			Outstanding: outstandingSlots(&sess.Record),
		}
	}
	pending := sess.Pending
	sess.Pending = nil

	// Answering the clarifying question from the previous turn: a confirm
	// commits the tentative value, a deny discards it and asks again.
	if pending != nil && pending.Slot != "" && pending.Value != "" {
		switch res.Intent {
		case models.IntentConfirm:
			return m.confirmPending(sess, pending, res, at)
		case models.IntentDeny:
			return models.ResponseContext{
				Stage:       sess.Stage,
				Prompt:      models.PromptClarify,
				ClarifySlot: pending.Slot,
				Outstanding: outstandingSlots(&sess.Record),
			}
		}
	}

	if res.Intent == models.IntentOutOfScope {
		return models.ResponseContext{Stage: sess.Stage, Prompt: models.PromptRedirect, Outstanding: outstandingSlots(&sess.Record)}
	}

	switch res.Intent {
	case models.IntentGreeting:
		return m.handleGreeting(sess, res, at)
	case models.IntentAskQuestion:
		return models.ResponseContext{
			Stage:       sess.Stage,
			Prompt:      models.PromptAnswerQuestion,
			Question:    text,
			Outstanding: outstandingSlots(&sess.Record),
		}
	case models.IntentChangeTripType:
		return m.handleTripTypeChange(sess, res, at)
	case models.IntentCorrect:
		return m.handleCorrection(sess, res, at)
	case models.IntentProvideInfo:
		return m.handleProvideInfo(sess, res, at)
	case models.IntentSelectOption:
		return m.handleSelectOption(sess, res, at)
	case models.IntentConfirm:
		return m.handleConfirm(sess, res, at)
	case models.IntentDeny:
		return m.handleDeny(sess, res, at)
	default:
		m.logger.Warn("unhandled intent, redirecting",
			zap.String("intent", string(res.Intent)), zap.String("stage", string(sess.Stage)))
		return models.ResponseContext{Stage: sess.Stage, Prompt: models.PromptRedirect}
	}
}

// ApplySearchResults consumes the flight-search collaborator's answer for a
// session sitting at searching_flights.
func (m *StateMachine) ApplySearchResults(sess *models.DialogSession, flights []models.FlightOption, searchErr error) models.ResponseContext {
	if sess.Stage != models.StageSearchingFlights {
		m.invalidTransition(sess, "", "search results applied outside searching_flights")
		return models.ResponseContext{Stage: sess.Stage, Prompt: models.PromptRetry}
	}
	if searchErr != nil {
		return models.ResponseContext{Stage: sess.Stage, Prompt: models.PromptSearchUnavailable}
	}
	if len(flights) == 0 {
		return models.ResponseContext{Stage: sess.Stage, Prompt: models.PromptNoFlightsFound}
	}
	sess.Options = flights
	sess.Stage = models.StagePresentingOptions
	return models.ResponseContext{Stage: sess.Stage, Prompt: models.PromptPresentOptions, Flights: flights}
}

func (m *StateMachine) handleGreeting(sess *models.DialogSession, res models.ClassificationResult, at time.Time) models.ResponseContext {
	mut := m.applyEntities(sess, res, at)
	if mut.invalidName {
		return m.invalidNameResponse(sess)
	}
	if sess.Stage == models.StageGreeting || sess.Stage.Collecting() {
		sess.Stage = nextUnmetStage(&sess.Record)
	}
	prompt := models.PromptGreet
	if len(mut.newlyFilled) > 0 {
		prompt = models.PromptAskSlot
	}
	return m.collectingResponse(sess, prompt, mut)
}

// confirmPending commits the value a clarifying question was asked about.
// The confirmation upgrades the tentative extraction to a user-stated slot at
// the confirming turn's confidence, under the usual slot rules.
func (m *StateMachine) confirmPending(sess *models.DialogSession, pending *models.Clarification, res models.ClassificationResult, at time.Time) models.ResponseContext {
	return m.handleProvideInfo(sess, models.ClassificationResult{
		Intent:     models.IntentProvideInfo,
		Confidence: res.Confidence,
		Entities: map[string]models.Entity{
			pending.Slot: {Value: pending.Value, Confidence: res.Confidence},
		},
		Source: res.Source,
	}, at)
}

func (m *StateMachine) handleProvideInfo(sess *models.DialogSession, res models.ClassificationResult, at time.Time) models.ResponseContext {
	mut := m.applyEntities(sess, res, at)
	if mut.invalidName {
		return m.invalidNameResponse(sess)
	}

	if len(mut.newlyFilled) == 0 && len(mut.corrected) == 0 && len(mut.repeated) == 0 {
		// Classified as informative but nothing usable was extracted.
		return models.ResponseContext{
			Stage:       sess.Stage,
			Prompt:      models.PromptClarify,
			Outstanding: outstandingSlots(&sess.Record),
		}
	}

	m.recomputeStage(sess, mut)

	prompt := models.PromptAskSlot
	switch {
	case len(mut.corrected) > 0:
		prompt = models.PromptAcknowledgeCorrection
	case len(mut.newlyFilled) == 0 && len(mut.repeated) > 0:
		prompt = models.PromptAcknowledgeRepetition
	case sess.Stage == models.StageSearchingFlights:
		prompt = models.PromptSearching
	}
	return m.collectingResponse(sess, prompt, mut)
}

// handleCorrection overwrites already-filled slots with the corrected values.
// Correction takes precedence over stage advancement within the same turn;
// leftover entities still fill empty slots.
func (m *StateMachine) handleCorrection(sess *models.DialogSession, res models.ClassificationResult, at time.Time) models.ResponseContext {
	mut := m.applyEntities(sess, res, at)
	if mut.invalidName {
		return m.invalidNameResponse(sess)
	}

	if len(mut.corrected) == 0 && len(mut.newlyFilled) == 0 && len(mut.repeated) == 0 {
		return models.ResponseContext{
			Stage:       sess.Stage,
			Prompt:      models.PromptClarify,
			Outstanding: outstandingSlots(&sess.Record),
		}
	}

	m.recomputeStage(sess, mut)

	prompt := models.PromptAcknowledgeCorrection
	if len(mut.corrected) == 0 && len(mut.repeated) > 0 && len(mut.newlyFilled) == 0 {
		prompt = models.PromptAcknowledgeRepetition
	}
	return m.collectingResponse(sess, prompt, mut)
}

func (m *StateMachine) handleTripTypeChange(sess *models.DialogSession, res models.ClassificationResult, at time.Time) models.ResponseContext {
	e, ok := res.Entities[models.SlotTripType]
	if !ok {
		return models.ResponseContext{
			Stage:       sess.Stage,
			Prompt:      models.PromptClarify,
			ClarifySlot: models.SlotTripType,
		}
	}
	value, valid := canonicalizeEntity(models.SlotTripType, e.Value)
	if !valid {
		return models.ResponseContext{
			Stage:       sess.Stage,
			Prompt:      models.PromptClarify,
			ClarifySlot: models.SlotTripType,
		}
	}

	prev := sess.Record.Trip.TripType.Value
	if prev == value {
		return models.ResponseContext{
			Stage:    sess.Stage,
			Prompt:   models.PromptAcknowledgeRepetition,
			Repeated: []string{models.SlotTripType},
		}
	}

	mut := mutationResult{tripChanged: true}
	m.setSlot(&sess.Record, models.SlotTripType, value, e.Confidence, models.SourceUserStated, at)
	mut.corrected = append(mut.corrected, models.FieldCorrection{
		Slot: models.SlotTripType, Previous: prev, Current: value,
	})

	m.resetTripDependents(sess, value, at)

	// Apply any other entities carried in the same turn.
	rest := res
	rest.Entities = make(map[string]models.Entity, len(res.Entities))
	for k, v := range res.Entities {
		if k != models.SlotTripType {
			rest.Entities[k] = v
		}
	}
	extra := m.applyEntities(sess, rest, at)
	mut.newlyFilled = append(mut.newlyFilled, extra.newlyFilled...)
	mut.corrected = append(mut.corrected, extra.corrected...)
	mut.repeated = append(mut.repeated, extra.repeated...)

	sess.Stage = nextUnmetStage(&sess.Record)
	return m.collectingResponse(sess, models.PromptAcknowledgeCorrection, mut)
}

// resetTripDependents clears fields invalidated by a trip-type switch and
// discards any search products built on the old itinerary.
func (m *StateMachine) resetTripDependents(sess *models.DialogSession, newType string, at time.Time) {
	rec := &sess.Record
	if newType == string(models.TripOneWay) && rec.Trip.ReturnDate.Filled() {
		rec.Trip.ReturnDate = models.SlotValue{}
		rec.UpdatedAt = at
	}
	sess.Options = nil
	sess.PaymentIntentID = ""
	rec.SelectedFlight = nil
}

func (m *StateMachine) handleSelectOption(sess *models.DialogSession, res models.ClassificationResult, at time.Time) models.ResponseContext {
	if len(sess.Options) == 0 {
		m.invalidTransition(sess, res.Intent, "option selected with no options presented")
		return models.ResponseContext{Stage: sess.Stage, Prompt: models.PromptRetry}
	}

	idx := optionIndex(res)
	if idx < 1 || idx > len(sess.Options) {
		return models.ResponseContext{
			Stage:       sess.Stage,
			Prompt:      models.PromptClarify,
			ClarifySlot: "option_index",
			Flights:     sess.Options,
		}
	}

	chosen := sess.Options[idx-1]
	sess.Record.SelectedFlight = &chosen
	sess.Record.UpdatedAt = at
	sess.Stage = models.StageConfirmingSelection
	return models.ResponseContext{Stage: sess.Stage, Prompt: models.PromptConfirmSelection, Selected: &chosen}
}

func (m *StateMachine) handleConfirm(sess *models.DialogSession, res models.ClassificationResult, at time.Time) models.ResponseContext {
	switch sess.Stage {
	case models.StageConfirmingSelection:
		if sess.Record.SelectedFlight == nil {
			m.invalidTransition(sess, res.Intent, "confirming with no selected flight")
			return models.ResponseContext{Stage: sess.Stage, Prompt: models.PromptRetry}
		}
		sess.Stage = models.StageCollectingPaymentIntent
		return models.ResponseContext{Stage: sess.Stage, Prompt: models.PromptRequestPayment, Selected: sess.Record.SelectedFlight}

	case models.StageCollectingPaymentIntent:
		if sess.PaymentIntentID == "" {
			// Intent creation failed on a previous turn; hold here so the
			// engine retries it.
			return models.ResponseContext{Stage: sess.Stage, Prompt: models.PromptRequestPayment, Selected: sess.Record.SelectedFlight}
		}
		sess.Stage = models.StageBookingComplete
		return models.ResponseContext{Stage: sess.Stage, Prompt: models.PromptBookingComplete, Selected: sess.Record.SelectedFlight}

	case models.StagePresentingOptions:
		// "Yes" without naming an option: ask which one.
		return models.ResponseContext{
			Stage:       sess.Stage,
			Prompt:      models.PromptClarify,
			ClarifySlot: "option_index",
			Flights:     sess.Options,
		}

	default:
		// Confirming recorded info mid-collection: acknowledge and continue.
		return models.ResponseContext{
			Stage:       sess.Stage,
			Prompt:      models.PromptAskSlot,
			Outstanding: outstandingSlots(&sess.Record),
		}
	}
}

func (m *StateMachine) handleDeny(sess *models.DialogSession, res models.ClassificationResult, at time.Time) models.ResponseContext {
	switch sess.Stage {
	case models.StageConfirmingSelection:
		sess.Record.SelectedFlight = nil
		sess.Record.UpdatedAt = at
		sess.Stage = models.StagePresentingOptions
		return models.ResponseContext{Stage: sess.Stage, Prompt: models.PromptPresentOptions, Flights: sess.Options}

	case models.StageCollectingPaymentIntent:
		sess.Stage = models.StageConfirmingSelection
		return models.ResponseContext{Stage: sess.Stage, Prompt: models.PromptConfirmSelection, Selected: sess.Record.SelectedFlight}

	case models.StagePresentingOptions:
		return models.ResponseContext{
			Stage:       sess.Stage,
			Prompt:      models.PromptClarify,
			ClarifySlot: "flight_preference",
			Flights:     sess.Options,
		}

	default:
		return models.ResponseContext{
			Stage:       sess.Stage,
			Prompt:      models.PromptClarify,
			Outstanding: outstandingSlots(&sess.Record),
		}
	}
}

// recomputeStage moves the session to the earliest unmet-requirement stage
// after a mutation. Any itinerary change made once a search has run, whether
// a correction or a newly supplied slot, invalidates the options built on the
// old itinerary.
func (m *StateMachine) recomputeStage(sess *models.DialogSession, mut mutationResult) {
	if sess.Stage.Collecting() || sess.Stage == models.StageGreeting {
		sess.Stage = nextUnmetStage(&sess.Record)
		return
	}
	if sess.Stage == models.StageBookingComplete {
		return
	}

	touched := mut.tripChanged
	for _, c := range mut.corrected {
		if itinerarySlot(c.Slot) {
			touched = true
		}
	}
	for _, name := range mut.newlyFilled {
		if itinerarySlot(name) {
			touched = true
		}
	}
	if touched {
		sess.Options = nil
		sess.Record.SelectedFlight = nil
		sess.PaymentIntentID = ""
		sess.Stage = nextUnmetStage(&sess.Record)
	}
}

// itinerarySlot reports whether a slot feeds the flight search.
func itinerarySlot(name string) bool {
	switch name {
	case models.SlotPassengerName, models.SlotCabinClass:
		return false
	}
	return true
}

// applyEntities writes extracted entities into the record under the
// correction, repetition, and provenance rules. Entities are applied in a
// fixed order so multi-slot turns behave deterministically.
var slotApplyOrder = []string{
	models.SlotTripType, models.SlotOrigin, models.SlotDestination,
	models.SlotDepartureDate, models.SlotReturnDate,
	models.SlotCabinClass, models.SlotPassengerName,
}

func (m *StateMachine) applyEntities(sess *models.DialogSession, res models.ClassificationResult, at time.Time) mutationResult {
	var mut mutationResult
	rec := &sess.Record

	for _, name := range slotApplyOrder {
		e, ok := res.Entities[name]
		if !ok {
			continue
		}
		value, valid := canonicalizeEntity(name, e.Value)
		if !valid {
			continue
		}

		if name == models.SlotPassengerName {
			if check := CheckName(value); !check.Allowed {
				mut.invalidName = true
				continue
			}
		}

		slot := rec.Slot(name)
		if slot.Filled() {
			if sameValue(slot.Value, value) {
				// Restatement: never decreases confidence, never duplicates.
				if e.Confidence > slot.Confidence {
					slot.Confidence = e.Confidence
					slot.LowConfident = e.Confidence < ActThreshold
				}
				mut.repeated = append(mut.repeated, name)
				continue
			}
			prev := slot.Value
			m.setSlot(rec, name, value, e.Confidence, models.SourceUserStated, at)
			mut.corrected = append(mut.corrected, models.FieldCorrection{Slot: name, Previous: prev, Current: value})
			if name == models.SlotTripType {
				mut.tripChanged = true
				m.resetTripDependents(sess, value, at)
			}
			continue
		}

		if m.setSlot(rec, name, value, e.Confidence, models.SourceUserStated, at) {
			mut.newlyFilled = append(mut.newlyFilled, name)
		}
	}

	m.inferTripType(rec, at, &mut)
	return mut
}

// inferTripType fills trip type from circumstantial evidence: a return date
// implies a round trip. Inferred values never overwrite user-stated ones.
func (m *StateMachine) inferTripType(rec *models.BookingRecord, at time.Time, mut *mutationResult) {
	if rec.Trip.TripType.Filled() || !rec.Trip.ReturnDate.Filled() {
		return
	}
	if m.setSlot(rec, models.SlotTripType, string(models.TripRoundTrip), 0.6, models.SourceInferred, at) {
		mut.newlyFilled = append(mut.newlyFilled, models.SlotTripType)
	}
}

// setSlot writes a slot value, enforcing the provenance invariant: an
// inferred value never overwrites a user-stated one.
func (m *StateMachine) setSlot(rec *models.BookingRecord, name, value string, conf float64, source models.FieldSource, at time.Time) bool {
	slot := rec.Slot(name)
	if slot == nil {
		return false
	}
	if source == models.SourceInferred && slot.Filled() && slot.Source == models.SourceUserStated {
		return false
	}
	*slot = models.SlotValue{
		Value:        value,
		Confidence:   conf,
		Source:       source,
		LowConfident: conf < ActThreshold,
		UpdatedAt:    at,
	}
	if name == models.SlotPassengerName {
		splitPassengerName(rec, *slot)
	}
	rec.UpdatedAt = at
	return true
}

// splitPassengerName derives given/family fields from the full name with the
// same confidence and provenance.
func splitPassengerName(rec *models.BookingRecord, full models.SlotValue) {
	parts := strings.Fields(full.Value)
	given := full
	family := models.SlotValue{}
	if len(parts) > 1 {
		given.Value = parts[0]
		family = full
		family.Value = strings.Join(parts[1:], " ")
	}
	rec.Passenger.GivenName = given
	rec.Passenger.FamilyName = family
}

func (m *StateMachine) collectingResponse(sess *models.DialogSession, prompt models.PromptKind, mut mutationResult) models.ResponseContext {
	resp := models.ResponseContext{
		Stage:       sess.Stage,
		Prompt:      prompt,
		NewlyFilled: mut.newlyFilled,
		Corrected:   mut.corrected,
		Repeated:    mut.repeated,
		Outstanding: outstandingSlots(&sess.Record),
	}
	// Corrections keep their acknowledgment even when all slots are met
	// again; the engine still runs the search for this turn.
	if sess.Stage == models.StageSearchingFlights && prompt != models.PromptAcknowledgeCorrection {
		resp.Prompt = models.PromptSearching
	}
	return resp
}

func (m *StateMachine) invalidNameResponse(sess *models.DialogSession) models.ResponseContext {
	return models.ResponseContext{
		Stage:        sess.Stage,
		Prompt:       models.PromptRephrase,
		SafetyReason: models.SafetyInvalidName,
		Outstanding:  outstandingSlots(&sess.Record),
	}
}

func (m *StateMachine) invalidTransition(sess *models.DialogSession, intent models.Intent, reason string) {
	err := &InvalidTransitionError{Stage: sess.Stage, Intent: intent, Reason: reason}
	m.logger.Error("rejected state mutation", zap.Error(err), zap.String("sessionId", sess.SessionID))
}

// dominantSlot picks the entity most worth clarifying on a low-confidence
// turn.
func dominantSlot(res models.ClassificationResult) string {
	best := ""
	bestConf := -1.0
	for _, name := range slotApplyOrder {
		if e, ok := res.Entities[name]; ok && e.Confidence > bestConf {
			best, bestConf = name, e.Confidence
		}
	}
	return best
}

func optionIndex(res models.ClassificationResult) int {
	e, ok := res.Entities["option_index"]
	if !ok {
		return 0
	}
	idx := 0
	for _, r := range e.Value {
		if r < '0' || r > '9' {
			return 0
		}
		idx = idx*10 + int(r-'0')
	}
	return idx
}

// sameValue compares slot values ignoring case, so a restated city is
// recognized as a repetition rather than a correction.
func sameValue(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// canonicalizeEntity normalizes classifier entity values to the record's
// vocabulary and rejects unusable ones.
func canonicalizeEntity(name, value string) (string, bool) {
	v := strings.TrimSpace(value)
	if v == "" {
		return "", false
	}
	switch name {
	case models.SlotTripType:
		switch strings.ReplaceAll(strings.ToLower(v), " ", "_") {
		case "one_way", "oneway":
			return string(models.TripOneWay), true
		case "round_trip", "roundtrip", "return":
			return string(models.TripRoundTrip), true
		case "multi_city", "multicity":
			return string(models.TripMultiCity), true
		}
		return "", false
	case models.SlotCabinClass:
		switch strings.ReplaceAll(strings.ToLower(v), " ", "_") {
		case "economy", "coach":
			return string(models.CabinEconomy), true
		case "premium_economy":
			return string(models.CabinPremiumEconomy), true
		case "business", "business_class":
			return string(models.CabinBusiness), true
		case "first", "first_class":
			return string(models.CabinFirst), true
		}
		return "", false
	case models.SlotDepartureDate, models.SlotReturnDate:
		if _, err := time.Parse("2006-01-02", v); err != nil {
			return "", false
		}
		return v, true
	default:
		return v, true
	}
}
