package domain

import "context"

// Generation temperatures per workflow.
const (
	TemperatureClassify  = 0.0
	TemperatureRetrieval = 0.1
	TemperatureTutor     = 0.3
	TemperatureQuiz      = 0.5
	TemperatureStudy     = 0.7
)

// Prompt is a single system + user exchange sent to the language model.
type Prompt struct {
	System      string
	User        string
	Temperature float64
}

// TextGenerator is the port to the chat model.
type TextGenerator interface {
	Generate(ctx context.Context, p Prompt) (string, error)
}
