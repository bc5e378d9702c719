package workflow

import "apflow/internal/domain"

// transitions is the static (state, event) -> state table. Any pair not
// present is rejected. ERROR is reachable from every non-terminal state via
// EventFail (added in Next rather than enumerated here).
var transitions = map[domain.ProcessingState]map[domain.Event]domain.ProcessingState{
	domain.StatePending: {
		domain.EventStart: domain.StateProcessing,
	},
	domain.StateProcessing: {
		domain.EventExtractOK: domain.StateExtracted,
		domain.EventReset:     domain.StatePending,
	},
	domain.StateExtracted: {
		domain.EventValidateOK: domain.StateValidated,
		domain.EventReviewEdit: domain.StateExtracted,
	},
	domain.StateValidated: {
		domain.EventApproveSec34: domain.StateSec34Approved,
		domain.EventReviewEdit:   domain.StateValidated,
	},
	domain.StateSec34Approved: {
		domain.EventApproveSec33: domain.StateSec33Approved,
	},
	domain.StateSec33Approved: {
		domain.EventStage: domain.StateStaged,
	},
	// StateStaged and StateError are terminal: no outgoing events.
}

// Next returns the state reached by applying event from state, or an
// *domain.InvalidTransitionError when the pair is not in the table.
func Next(state domain.ProcessingState, event domain.Event) (domain.ProcessingState, error) {
	if event == domain.EventFail && !state.IsTerminal() {
		return domain.StateError, nil
	}
	if to, ok := transitions[state][event]; ok {
		return to, nil
	}
	return "", &domain.InvalidTransitionError{From: state, Event: event}
}

// Events returns the events legal from a given state, useful for
// surfacing allowed actions to the review layer.
func Events(state domain.ProcessingState) []domain.Event {
	var out []domain.Event
	for ev := range transitions[state] {
		out = append(out, ev)
	}
	if !state.IsTerminal() {
		out = append(out, domain.EventFail)
	}
	return out
}
