package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// sseServer serves the given data payloads as a text/event-stream.
func sseServer(t *testing.T, check func(r *http.Request), lines ...string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			check(r)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		flusher, _ := w.(http.Flusher)
		for _, line := range lines {
			fmt.Fprint(w, line+"\n\n")
			if flusher != nil {
				flusher.Flush()
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func drain(t *testing.T, s Stream) ([]Event, error) {
	t.Helper()
	defer s.Close()
	var out []Event
	for {
		ev, err := s.Recv()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, ev)
	}
}

func textOf(events []Event) string {
	var b strings.Builder
	for _, ev := range events {
		if ev.Type == EventTextDelta {
			b.WriteString(ev.Text)
		}
	}
	return b.String()
}

// scriptedProvider returns one scripted outcome per Stream call.
type scriptedProvider struct {
	calls   int
	results []scriptedResult
}

type scriptedResult struct {
	openErr error
	texts   []string
	err     error
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) Stream(ctx context.Context, req Request) (Stream, error) {
	r := p.results[p.calls]
	if p.calls < len(p.results)-1 {
		p.calls++
	}
	if r.openErr != nil {
		return nil, r.openErr
	}
	return newEventStream(ctx, func(ctx context.Context, events chan<- Event) error {
		for _, text := range r.texts {
			if err := send(ctx, events, Event{Type: EventTextDelta, Text: text}); err != nil {
				return err
			}
		}
		if r.err != nil {
			return r.err
		}
		return send(ctx, events, Event{Type: EventDone})
	}), nil
}
