// Package stream connects a provider stream to the markdown classifier and
// whatever consumes its elements: a renderer, a trace and a recorder.
package stream

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/samsaffron/fencestream/internal/capture"
	"github.com/samsaffron/fencestream/internal/debuglog"
	"github.com/samsaffron/fencestream/internal/llm"
	"github.com/samsaffron/fencestream/internal/mdstream"
)

// Sink receives classified elements in order. *render.Renderer is a Sink.
type Sink interface {
	Render(elems []mdstream.Element) error
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(elems []mdstream.Element) error

func (f SinkFunc) Render(elems []mdstream.Element) error { return f(elems) }

// Pipeline feeds text fragments from an llm.Stream through a parser.
type Pipeline struct {
	parser   *mdstream.Parser
	sink     Sink
	trace    *debuglog.Logger
	recorder *capture.Recorder
	logger   *log.Logger
	onRetry  func(llm.Event)

	stats Stats
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithTrace logs every fragment and element to a JSONL trace.
func WithTrace(trace *debuglog.Logger) Option {
	return func(p *Pipeline) { p.trace = trace }
}

// WithRecorder records the raw fragment sequence for later replay.
func WithRecorder(r *capture.Recorder) Option {
	return func(p *Pipeline) { p.recorder = r }
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger *log.Logger) Option {
	return func(p *Pipeline) { p.logger = logger }
}

// WithRetryNotice is called for every retry event the stream reports.
func WithRetryNotice(fn func(llm.Event)) Option {
	return func(p *Pipeline) { p.onRetry = fn }
}

// New creates a pipeline. A nil parser gets the default configuration.
func New(parser *mdstream.Parser, sink Sink, opts ...Option) *Pipeline {
	if parser == nil {
		parser = mdstream.NewParser()
	}
	p := &Pipeline{
		parser: parser,
		sink:   sink,
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Stats returns the counters collected so far.
func (p *Pipeline) Stats() Stats {
	return p.stats
}

// Run consumes stream until it ends, flushing the parser at the end. On a
// stream error the parser is still flushed so partial output is kept, and
// the error is returned. Cancellation of ctx ends the run without error.
func (p *Pipeline) Run(ctx context.Context, s llm.Stream) error {
	defer s.Close()
	p.stats.StartTime = time.Now()
	defer func() { p.stats.Duration = time.Since(p.stats.StartTime) }()

	for {
		event, err := s.Recv()
		if errors.Is(err, io.EOF) {
			return p.Flush()
		}
		if err != nil {
			if ctx.Err() != nil {
				p.logger.Debug("stream cancelled", "err", ctx.Err())
				return p.Flush()
			}
			return p.fail(err)
		}

		switch event.Type {
		case llm.EventError:
			if event.Err != nil {
				return p.fail(event.Err)
			}

		case llm.EventTextDelta:
			if err := p.Feed(event.Text); err != nil {
				return err
			}

		case llm.EventRetry:
			p.stats.Retries++
			if p.onRetry != nil {
				p.onRetry(event)
			}

		case llm.EventUsage:
			if event.Use != nil {
				p.stats.AddUsage(event.Use.InputTokens, event.Use.OutputTokens)
				p.trace.LogUsage(event.Use.InputTokens, event.Use.OutputTokens)
			}

		case llm.EventDone:
			return p.Flush()
		}
	}
}

// Feed processes one fragment directly, without a stream.
func (p *Pipeline) Feed(fragment string) error {
	p.stats.Fragments++
	p.stats.Bytes += len(fragment)
	if p.recorder != nil {
		p.recorder.Add(fragment)
	}
	p.trace.LogFragment(fragment, false)
	return p.emit(p.parser.ProcessChunk(fragment, false))
}

// Flush emits whatever the parser still holds and resets it.
func (p *Pipeline) Flush() error {
	elems := p.parser.Flush()
	p.trace.LogFlush()
	return p.emit(elems)
}

func (p *Pipeline) fail(err error) error {
	p.trace.LogError(err)
	if ferr := p.Flush(); ferr != nil {
		p.logger.Debug("flush after stream error failed", "err", ferr)
	}
	return err
}

func (p *Pipeline) emit(elems []mdstream.Element) error {
	if len(elems) == 0 {
		return nil
	}
	for _, e := range elems {
		if e.Kind == mdstream.KindCodeBlock && e.Block > p.stats.Blocks {
			p.stats.Blocks = e.Block
		}
	}
	p.stats.Elements += len(elems)
	p.trace.LogElements(elems)
	if p.sink == nil {
		return nil
	}
	return p.sink.Render(elems)
}
