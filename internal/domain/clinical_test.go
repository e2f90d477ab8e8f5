package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransition(t *testing.T) {
	tests := []struct {
		from    ClinicalStage
		event   ClinicalEvent
		want    ClinicalStage
		wantErr bool
	}{
		{StageInitial, EventEnoughQuestions, StageGatheringInfo, false},
		{StageInitial, EventReadyForDiagnosis, StageInitial, true},
		{StageInitial, EventCaseClosed, StageComplete, false},
		{StageGatheringInfo, EventReadyForDiagnosis, StageDiagnosis, false},
		{StageGatheringInfo, EventCaseClosed, StageComplete, false},
		{StageDiagnosis, EventEnoughQuestions, StageDiagnosis, true},
		{StageDiagnosis, EventCaseClosed, StageComplete, false},
		{StageComplete, EventCaseClosed, StageComplete, true},
		{StageComplete, EventEnoughQuestions, StageComplete, true},
		{StageInitial, ClinicalEvent("jump"), StageInitial, true},
	}
	for _, tt := range tests {
		got, err := Transition(tt.from, tt.event)
		if tt.wantErr {
			assert.Error(t, err, "%s + %s", tt.from, tt.event)
		} else {
			require.NoError(t, err, "%s + %s", tt.from, tt.event)
		}
		assert.Equal(t, tt.want, got, "%s + %s", tt.from, tt.event)
	}
}

func TestTransition_NeverMovesBackwards(t *testing.T) {
	stages := []ClinicalStage{StageInitial, StageGatheringInfo, StageDiagnosis, StageComplete}
	events := []ClinicalEvent{EventEnoughQuestions, EventReadyForDiagnosis, EventCaseClosed}
	for _, s := range stages {
		for _, ev := range events {
			next, _ := Transition(s, ev)
			assert.GreaterOrEqual(t, next.rank(), s.rank())
		}
	}
}

func TestClinicalSession_HintsRemaining(t *testing.T) {
	s := &ClinicalSession{MaxHints: 3}
	assert.Equal(t, 3, s.HintsRemaining())
	s.HintsUsed = 3
	assert.Equal(t, 0, s.HintsRemaining())
	s.HintsUsed = 5
	assert.Equal(t, 0, s.HintsRemaining())
}

func TestClinicalSession_CloneIsIndependent(t *testing.T) {
	orig := &ClinicalSession{
		ID:                  "cs-1",
		Stage:               StageGatheringInfo,
		History:             []ConversationTurn{{Role: "student", Message: "vitals?"}},
		InformationGathered: []string{"bp 150/90"},
		CorrectDecisions:    []string{"asked onset"},
		IncorrectDecisions:  []string{},
		HintsUsed:           1,
		Report:              &CompletionReport{LearningPoints: []string{"time is brain"}},
	}

	c := orig.Clone()
	require.Equal(t, orig, c)

	c.History = append(c.History, ConversationTurn{Role: "patient", Message: "stable"})
	c.History[0].Message = "changed"
	c.InformationGathered[0] = "changed"
	c.CorrectDecisions = append(c.CorrectDecisions, "ordered CT")
	c.IncorrectDecisions = append(c.IncorrectDecisions, "skipped exam")
	c.HintsUsed++
	c.Report.LearningPoints[0] = "changed"
	require.NoError(t, c.Apply(EventReadyForDiagnosis))

	assert.Len(t, orig.History, 1)
	assert.Equal(t, "vitals?", orig.History[0].Message)
	assert.Equal(t, []string{"bp 150/90"}, orig.InformationGathered)
	assert.Equal(t, []string{"asked onset"}, orig.CorrectDecisions)
	assert.Empty(t, orig.IncorrectDecisions)
	assert.Equal(t, 1, orig.HintsUsed)
	assert.Equal(t, "time is brain", orig.Report.LearningPoints[0])
	assert.Equal(t, StageGatheringInfo, orig.Stage)

	var empty ClinicalSession
	assert.Nil(t, empty.Clone().Report)
}
