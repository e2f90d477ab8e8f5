package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"neurabuddy/internal/config"
	"neurabuddy/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"
)

type fakeModel struct {
	messages []llms.MessageContent
	opts     llms.CallOptions
	resp     *llms.ContentResponse
	err      error
	delay    time.Duration
}

func (f *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.messages = messages
	for _, o := range options {
		o(&f.opts)
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.resp, f.err
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}

func TestGenerator_Generate(t *testing.T) {
	m := &fakeModel{resp: &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: "factual_explanation"}}}}
	g := NewGenerator(m, time.Second)

	out, err := g.Generate(context.Background(), domain.Prompt{System: "classify", User: "what is the pons?", Temperature: 0.1})
	require.NoError(t, err)
	assert.Equal(t, "factual_explanation", out)
	require.Len(t, m.messages, 2)
	assert.Equal(t, schema.ChatMessageTypeSystem, m.messages[0].Role)
	assert.Equal(t, schema.ChatMessageTypeHuman, m.messages[1].Role)
	assert.Equal(t, 0.1, m.opts.Temperature)
}

func TestGenerator_OmitsEmptySystem(t *testing.T) {
	m := &fakeModel{resp: &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: "ok"}}}}
	_, err := NewGenerator(m, time.Second).Generate(context.Background(), domain.Prompt{User: "hi"})
	require.NoError(t, err)
	assert.Len(t, m.messages, 1)
}

func TestGenerator_Errors(t *testing.T) {
	_, err := NewGenerator(&fakeModel{err: errors.New("boom")}, time.Second).Generate(context.Background(), domain.Prompt{User: "x"})
	assert.ErrorContains(t, err, "boom")

	_, err = NewGenerator(&fakeModel{resp: &llms.ContentResponse{}}, time.Second).Generate(context.Background(), domain.Prompt{User: "x"})
	assert.Error(t, err)

	_, err = NewGenerator(&fakeModel{delay: time.Second}, 10*time.Millisecond).Generate(context.Background(), domain.Prompt{User: "x"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewModel_Validation(t *testing.T) {
	_, err := NewModel(config.LLMConfig{Provider: "openai"})
	assert.Error(t, err)
	_, err = NewModel(config.LLMConfig{Provider: "bard"})
	assert.Error(t, err)
}
