// Package llmjson extracts structured values from free-form model output.
//
// Models wrap JSON in reasoning blocks, markdown fences or prose. The parser
// strips <think> blocks and fences, then decodes the outermost object or
// array. Callers pair every parse with their own fallback.
package llmjson

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNoJSON is returned when no delimited JSON value is present.
var ErrNoJSON = errors.New("llmjson: no JSON value found")

// Clean removes reasoning blocks and markdown code fences.
func Clean(raw string) string {
	s := strings.TrimSpace(raw)
	for {
		start := strings.Index(s, "<think>")
		if start == -1 {
			break
		}
		end := strings.Index(s[start:], "</think>")
		if end == -1 {
			s = s[:start]
			break
		}
		s = s[:start] + s[start+end+len("</think>"):]
	}
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if nl := strings.Index(s, "\n"); nl != -1 {
			s = s[nl+1:]
		} else {
			s = strings.TrimPrefix(s, "```")
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}

func extract(raw string, open, close byte) (string, error) {
	s := Clean(raw)
	start := strings.IndexByte(s, open)
	end := strings.LastIndexByte(s, close)
	if start == -1 || end == -1 || end <= start {
		return "", ErrNoJSON
	}
	return s[start : end+1], nil
}

// Object decodes the outermost {...} in raw into T.
func Object[T any](raw string) (T, error) {
	var out T
	body, err := extract(raw, '{', '}')
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal([]byte(body), &out); err != nil {
		return out, fmt.Errorf("llmjson: decode object: %w", err)
	}
	return out, nil
}

// Array decodes the outermost [...] in raw into a slice of T.
func Array[T any](raw string) ([]T, error) {
	body, err := extract(raw, '[', ']')
	if err != nil {
		return nil, err
	}
	var out []T
	if err := json.Unmarshal([]byte(body), &out); err != nil {
		return nil, fmt.Errorf("llmjson: decode array: %w", err)
	}
	return out, nil
}

// Text returns the cleaned model text, or the fallback when nothing is left.
func Text(raw, fallback string) string {
	if s := Clean(raw); s != "" {
		return s
	}
	return fallback
}

// StringList decodes a JSON array of strings, a single string, or null.
// Models use all three shapes for list fields.
type StringList []string

func (l *StringList) UnmarshalJSON(b []byte) error {
	var many []string
	if err := json.Unmarshal(b, &many); err == nil {
		*l = many
		return nil
	}
	var one string
	if err := json.Unmarshal(b, &one); err != nil {
		return fmt.Errorf("llmjson: expected string or string array: %w", err)
	}
	if strings.TrimSpace(one) == "" {
		*l = nil
		return nil
	}
	*l = StringList{one}
	return nil
}
