// Package stream multiplexes a job's free-form log lines and structured
// progress events onto one ordered channel and fans it out to any number of
// listeners.
//
// The producer is the single job worker. Publishing never blocks: a listener
// that stops draining its buffer loses events rather than stalling the job.
// Listeners attaching mid-run see only subsequent events; the job snapshot
// carries the running totals for late joiners
package stream

import "sync"

// EventType discriminates the payload of an Event
type EventType int

// Event types
const (
	// EventLog is a free-form diagnostic line
	EventLog EventType = iota
	// EventTotal announces the number of messages accepted for processing
	EventTotal
	// EventCurrent reports the index of the message being processed
	EventCurrent
)

// Event is the tagged union carried over the channel.
// Line is set for EventLog; Index/Total for the progress variants
type Event struct {
	Type  EventType
	Line  string
	Index int
	Total int
}

// Log builds a log event
func Log(line string) Event { return Event{Type: EventLog, Line: line} }

// Total builds a total-count progress event
func Total(n int) Event { return Event{Type: EventTotal, Total: n} }

// Current builds a current-index progress event
func Current(i, n int) Event { return Event{Type: EventCurrent, Index: i, Total: n} }

// Progress reports whether e is a progress variant
func (e Event) Progress() bool { return e.Type == EventTotal || e.Type == EventCurrent }

// subBuffer is the per-listener channel depth. A listener further behind
// than this loses events
const subBuffer = 256

// Stream is a single-producer broadcast channel for one job
type Stream struct {
	mu     sync.Mutex
	subs   map[int]chan Event
	nextID int
	closed bool
}

// New returns an open stream
func New() *Stream {
	return &Stream{subs: make(map[int]chan Event)}
}

// Publish fans the event out to every subscriber without blocking.
// Publishing on a closed stream is a no-op
func (s *Stream) Publish(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	for _, ch := range s.subs {
		select {
		case ch <- e:
		default:
			// listener is stalled; drop rather than block the worker
		}
	}
}

// Subscribe attaches a listener starting from now. The returned cancel is
// idempotent and must be called when the listener goes away.
// Subscribing to a closed stream returns an already-closed channel
func (s *Stream) Subscribe() (<-chan Event, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan Event, subBuffer)
	if s.closed {
		close(ch)
		return ch, func() {}
	}

	id := s.nextID
	s.nextID++
	s.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if _, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(ch)
			}
		})
	}
	return ch, cancel
}

// Close ends the stream, closing every subscriber channel. Idempotent
func (s *Stream) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}
