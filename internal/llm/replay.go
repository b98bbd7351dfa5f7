package llm

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/samsaffron/fencestream/internal/chunker"
)

// ReplayProvider streams a fixed fragment sequence, optionally paced. It
// stands in for a live model when replaying captures or local files.
type ReplayProvider struct {
	name      string
	fragments []string
	perSecond float64
}

// NewReplayProvider replays fragments as-is. perSecond <= 0 disables pacing.
func NewReplayProvider(name string, fragments []string, perSecond float64) *ReplayProvider {
	return &ReplayProvider{name: name, fragments: fragments, perSecond: perSecond}
}

// NewReplayFromText cuts text with split and replays the result.
func NewReplayFromText(name, text string, split chunker.Splitter, perSecond float64) *ReplayProvider {
	if split == nil {
		split = chunker.None
	}
	return NewReplayProvider(name, split(text), perSecond)
}

func (p *ReplayProvider) Name() string {
	return fmt.Sprintf("Replay (%s)", p.name)
}

// Fragments returns the sequence that Stream will emit.
func (p *ReplayProvider) Fragments() []string {
	return p.fragments
}

func (p *ReplayProvider) Stream(ctx context.Context, req Request) (Stream, error) {
	var limiter *rate.Limiter
	if p.perSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(p.perSecond), 1)
	}
	return newEventStream(ctx, func(ctx context.Context, events chan<- Event) error {
		for _, frag := range p.fragments {
			if limiter != nil {
				if err := limiter.Wait(ctx); err != nil {
					return err
				}
			}
			if err := send(ctx, events, Event{Type: EventTextDelta, Text: frag}); err != nil {
				return err
			}
		}
		return send(ctx, events, Event{Type: EventDone})
	}), nil
}
