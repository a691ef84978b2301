package agent

import "context"

// Options are per-call generation options passed across the remote
// boundary.
type Options struct {
	Temperature float64
	MaxTokens   int
}

// Generator is the text-generation boundary used by the pipeline stages.
type Generator interface {
	Complete(ctx context.Context, prompt string, opts Options) (string, error)
	CompleteStructured(ctx context.Context, prompt string, opts Options, target any) error
}
