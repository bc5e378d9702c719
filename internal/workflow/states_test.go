package workflow_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"apflow/internal/domain"
	"apflow/internal/workflow"
)

func TestNext_HappyPath(t *testing.T) {
	steps := []struct {
		event domain.Event
		want  domain.ProcessingState
	}{
		{domain.EventStart, domain.StateProcessing},
		{domain.EventExtractOK, domain.StateExtracted},
		{domain.EventValidateOK, domain.StateValidated},
		{domain.EventApproveSec34, domain.StateSec34Approved},
		{domain.EventApproveSec33, domain.StateSec33Approved},
		{domain.EventStage, domain.StateStaged},
	}

	state := domain.StatePending
	for _, step := range steps {
		next, err := workflow.Next(state, step.event)
		require.NoError(t, err)
		assert.Equal(t, step.want, next)
		state = next
	}
	assert.True(t, state.IsTerminal())
}

func TestNext_RejectsSkippedApproval(t *testing.T) {
	_, err := workflow.Next(domain.StateValidated, domain.EventApproveSec33)

	require.Error(t, err)
	var invalid *domain.InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, domain.StateValidated, invalid.From)
	assert.Equal(t, domain.EventApproveSec33, invalid.Event)
}

func TestNext_RejectsFromTerminal(t *testing.T) {
	for _, state := range []domain.ProcessingState{domain.StateStaged, domain.StateError} {
		for _, event := range []domain.Event{
			domain.EventStart, domain.EventExtractOK, domain.EventValidateOK,
			domain.EventApproveSec34, domain.EventApproveSec33, domain.EventStage,
			domain.EventReviewEdit, domain.EventReset, domain.EventFail,
		} {
			_, err := workflow.Next(state, event)
			assert.Error(t, err, "state %s should reject %s", state, event)
		}
	}
}

func TestNext_FailFromAnyNonTerminal(t *testing.T) {
	for _, state := range []domain.ProcessingState{
		domain.StatePending, domain.StateProcessing, domain.StateExtracted,
		domain.StateValidated, domain.StateSec34Approved, domain.StateSec33Approved,
	} {
		next, err := workflow.Next(state, domain.EventFail)
		require.NoError(t, err, "state %s", state)
		assert.Equal(t, domain.StateError, next)
	}
}

func TestNext_ReviewEditSelfLoops(t *testing.T) {
	for _, state := range []domain.ProcessingState{domain.StateExtracted, domain.StateValidated} {
		next, err := workflow.Next(state, domain.EventReviewEdit)
		require.NoError(t, err)
		assert.Equal(t, state, next)
	}

	_, err := workflow.Next(domain.StateSec34Approved, domain.EventReviewEdit)
	assert.Error(t, err)
}

func TestNext_ResetReturnsToQueue(t *testing.T) {
	next, err := workflow.Next(domain.StateProcessing, domain.EventReset)
	require.NoError(t, err)
	assert.Equal(t, domain.StatePending, next)

	_, err = workflow.Next(domain.StateExtracted, domain.EventReset)
	assert.Error(t, err)
}

func TestEvents_IncludesFail(t *testing.T) {
	events := workflow.Events(domain.StateExtracted)
	assert.ElementsMatch(t, []domain.Event{
		domain.EventValidateOK, domain.EventReviewEdit, domain.EventFail,
	}, events)

	assert.Empty(t, workflow.Events(domain.StateStaged))
}
