package chunker

import (
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// TokenCounter measures text length in model tokens.
type TokenCounter func(text string) int

// WordCounter approximates tokens by whitespace-separated words.
func WordCounter(text string) int {
	return len(strings.Fields(text))
}

// NewTiktokenCounter returns a counter using the encoding of the given model.
// When the encoding cannot be loaded (e.g. offline) it falls back to
// WordCounter and reports the error.
func NewTiktokenCounter(model string) (TokenCounter, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		return WordCounter, err
	}
	return func(text string) int {
		return len(enc.Encode(text, nil, nil))
	}, nil
}
