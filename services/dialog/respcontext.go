// File: services/dialog/respcontext.go
package dialog

import "aerovoice/models"

// BuildResponseContext finalizes the fact set handed to the external
// response-generation collaborator. Pure function of its inputs: it fills in
// whatever the transition handler left implicit (outstanding slots, the
// options on the table while presenting) and never produces natural language.
func BuildResponseContext(sess *models.DialogSession, draft models.ResponseContext) models.ResponseContext {
	draft.Stage = sess.Stage
	if draft.Outstanding == nil && !sess.Stage.Terminal() {
		draft.Outstanding = outstandingSlots(&sess.Record)
	}
	if sess.Stage == models.StagePresentingOptions && draft.Flights == nil {
		draft.Flights = sess.Options
	}
	if sess.Stage == models.StageConfirmingSelection && draft.Selected == nil {
		draft.Selected = sess.Record.SelectedFlight
	}
	return draft
}

// Summarize builds the caller-facing record summary returned with each turn.
func Summarize(rec *models.BookingRecord) models.RecordSummary {
	filled := make(map[string]models.SlotValue)
	for _, name := range slotApplyOrder {
		if slot := rec.Slot(name); slot != nil && slot.Filled() {
			filled[name] = *slot
		}
	}
	return models.RecordSummary{
		Filled:         filled,
		Outstanding:    outstandingSlots(rec),
		SelectedFlight: rec.SelectedFlight,
		Turns:          len(rec.History),
	}
}
