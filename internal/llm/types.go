package llm

import (
	"context"
	"errors"
)

var (
	// ErrUnknownProvider is returned for a provider name the factory cannot build.
	ErrUnknownProvider = errors.New("unknown provider")
	// ErrMissingAPIKey is returned when a hosted provider has no credential.
	ErrMissingAPIKey = errors.New("missing API key")
)

// Provider streams model output as raw text fragments.
type Provider interface {
	Name() string
	Stream(ctx context.Context, req Request) (Stream, error)
}

// Stream yields events until io.EOF.
type Stream interface {
	Recv() (Event, error)
	Close() error
}

// Request represents a single prompt.
type Request struct {
	Model     string
	System    string
	Prompt    string
	MaxTokens int
}

// EventType describes streaming events.
type EventType string

const (
	EventTextDelta EventType = "text_delta"
	EventUsage     EventType = "usage"
	EventRetry     EventType = "retry" // Emitted when retrying after a transient failure
	EventError     EventType = "error"
	EventDone      EventType = "done"
)

// Event represents a streamed output update.
type Event struct {
	Type EventType
	Text string
	Use  *Usage
	Err  error

	// Retry fields (for EventRetry)
	RetryAttempt     int
	RetryMaxAttempts int
	RetryWaitSecs    float64
}

// Usage captures token usage if available.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

func chooseModel(requested, fallback string) string {
	if requested != "" {
		return requested
	}
	return fallback
}

func maxTokens(requested, fallback int) int64 {
	if requested > 0 {
		return int64(requested)
	}
	return int64(fallback)
}
