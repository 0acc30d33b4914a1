package domain

// MessageStore is the passive per-job container for fetched messages.
// It is populated exactly once by the worker and read-only afterwards
type MessageStore struct {
	msgs   []RawMessage
	loaded bool
}

// NewMessageStore returns an empty store
func NewMessageStore() *MessageStore { return &MessageStore{} }

// Load populates the store. A second Load is a programming error
func (s *MessageStore) Load(msgs []RawMessage) {
	if s.loaded {
		panic("message store loaded twice")
	}
	s.msgs = msgs
	s.loaded = true
}

// All returns the read view in load order
func (s *MessageStore) All() []RawMessage { return s.msgs }

// Len returns the number of loaded messages
func (s *MessageStore) Len() int { return len(s.msgs) }
