// Package capture records the raw fragment sequence of a provider stream so
// it can be replayed through the parser later with the exact same splits.
package capture

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no capture matches an ID.
var ErrNotFound = errors.New("capture not found")

// Capture describes one recorded stream.
type Capture struct {
	ID        string    `json:"id" yaml:"id"`
	Provider  string    `json:"provider" yaml:"provider"`
	Model     string    `json:"model" yaml:"model"`
	Prompt    string    `json:"prompt" yaml:"prompt"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	Fragments int       `json:"fragments" yaml:"fragments"`
	Bytes     int64     `json:"bytes" yaml:"bytes"`
}

// NewID generates a new capture ID.
func NewID() string {
	return uuid.NewString()
}

// ShortID returns the first 8 characters of an ID for display.
func ShortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// Recorder accumulates fragments while a stream is consumed.
type Recorder struct {
	Capture
	fragments []string
}

// NewRecorder starts a recording for the given request metadata.
func NewRecorder(provider, model, prompt string) *Recorder {
	return &Recorder{Capture: Capture{
		ID:        NewID(),
		Provider:  provider,
		Model:     model,
		Prompt:    prompt,
		CreatedAt: time.Now(),
	}}
}

// Add appends a fragment. Empty fragments are kept so replay reproduces the
// original call sequence.
func (r *Recorder) Add(fragment string) {
	r.fragments = append(r.fragments, fragment)
	r.Capture.Fragments++
	r.Capture.Bytes += int64(len(fragment))
}

// Fragments returns the recorded sequence.
func (r *Recorder) Fragments() []string {
	return r.fragments
}

// Text returns the concatenated fragments.
func (r *Recorder) Text() string {
	return strings.Join(r.fragments, "")
}
