package llmprovider

import (
	"context"
	"errors"
)

// ErrNoProvider is returned by None's Judge call so GRM's judgeOne always
// falls back to the five-feature heuristic without attempting an HTTP call.
var ErrNoProvider = errors.New("no llm provider configured")

// None is a no-op engine.LLMProvider: every judgement falls back to the
// heuristic grader. Useful for local development and for runs whose config
// deliberately disables LLM judging.
type None struct{}

func (None) Judge(ctx context.Context, prompt string) (string, error) {
	return "", ErrNoProvider
}
