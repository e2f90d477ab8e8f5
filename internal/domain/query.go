package domain

import "strings"

// Intent is the classified purpose of a learner query.
type Intent string

const (
	IntentFactualExplanation      Intent = "factual_explanation"
	IntentConceptClarification    Intent = "concept_clarification"
	IntentQuizRequest             Intent = "quiz_request"
	IntentFollowUpQuestion        Intent = "follow_up_question"
	IntentMisconceptionCorrection Intent = "misconception_correction"
)

var intents = []Intent{
	IntentFactualExplanation, IntentConceptClarification, IntentQuizRequest,
	IntentFollowUpQuestion, IntentMisconceptionCorrection,
}

// ParseIntent maps model output to a known intent. Anything unrecognised is
// a factual explanation.
func ParseIntent(raw string) Intent {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.Trim(s, "\"'`.")
	for _, in := range intents {
		if s == string(in) {
			return in
		}
	}
	for _, in := range intents {
		if strings.Contains(s, string(in)) {
			return in
		}
	}
	return IntentFactualExplanation
}
