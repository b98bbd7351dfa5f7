package llm

import (
	"context"
	"io"
	"sync"
)

// eventStream adapts a producer goroutine to the Stream interface.
type eventStream struct {
	events chan Event
	cancel context.CancelFunc
	done   chan struct{}

	mu  sync.Mutex
	err error
}

// newEventStream runs produce in a goroutine. Events it sends are returned by
// Recv in order; its return value becomes the terminal error (nil means
// io.EOF). Sends block until Recv is called or the stream is closed.
func newEventStream(ctx context.Context, produce func(ctx context.Context, events chan<- Event) error) *eventStream {
	ctx, cancel := context.WithCancel(ctx)
	s := &eventStream{
		events: make(chan Event),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go func() {
		defer close(s.done)
		defer close(s.events)
		err := produce(ctx, s.events)
		s.mu.Lock()
		s.err = err
		s.mu.Unlock()
	}()
	return s
}

func (s *eventStream) Recv() (Event, error) {
	ev, ok := <-s.events
	if ok {
		return ev, nil
	}
	s.mu.Lock()
	err := s.err
	s.mu.Unlock()
	if err != nil {
		return Event{}, err
	}
	return Event{}, io.EOF
}

// Close cancels the producer and waits for it to exit.
func (s *eventStream) Close() error {
	s.cancel()
	for range s.events {
	}
	<-s.done
	return nil
}

// send delivers ev unless ctx is cancelled first.
func send(ctx context.Context, events chan<- Event, ev Event) error {
	select {
	case events <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
