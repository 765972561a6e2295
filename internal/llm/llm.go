// Package llm talks to the hosted generation model and normalizes what it
// returns into plain code text.
package llm

import (
	"context"
	"errors"
	"strings"
)

// ErrUnexpectedResponse is returned when the model answers with something
// that is neither text nor a mapping holding a "text" string.
var ErrUnexpectedResponse = errors.New("unexpected response format from the generative model")

// Model is a text-generation backend. Invoke returns either a string, a
// map[string]any carrying a "text" string, or anything else on a malformed
// answer.
type Model interface {
	Invoke(ctx context.Context, prompt string) (any, error)
}

// ModelFunc adapts a plain function to Model.
type ModelFunc func(ctx context.Context, prompt string) (any, error)

// Invoke calls f.
func (f ModelFunc) Invoke(ctx context.Context, prompt string) (any, error) {
	return f(ctx, prompt)
}

// ExtractText unwraps a model response into trimmed text.
func ExtractText(resp any) (string, error) {
	switch v := resp.(type) {
	case string:
		return strings.TrimSpace(v), nil
	case map[string]any:
		if text, ok := v["text"].(string); ok {
			return strings.TrimSpace(text), nil
		}
	case map[string]string:
		if text, ok := v["text"]; ok {
			return strings.TrimSpace(text), nil
		}
	}
	return "", ErrUnexpectedResponse
}

// StripCodeFence removes a leading ```java line and a trailing ``` line,
// each at most once. Interior lines are left alone.
func StripCodeFence(code string) string {
	lines := strings.Split(strings.TrimSpace(code), "\n")
	if len(lines) > 0 && strings.HasPrefix(lines[0], "```java") {
		lines = lines[1:]
	}
	if len(lines) > 0 && lines[len(lines)-1] == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}
