// Package pairing reconstructs request/response conversation pairs from an
// unordered batch of mailbox messages
//
// Resolution order per response
// 1 In-Reply-To header against the message id index
// 2 first token of the References header (fallback only; In-Reply-To wins)
//
// A response whose reference resolves to nothing is dropped, never guessed.
// Subject-line proximity matching was considered and rejected: a silent
// mismatch corrupts every row derived from the pair downstream
package pairing

import (
	"strings"

	"consultmail/internal/services/reports/domain"
)

// Result carries the emitted pairs plus the count of responses whose
// reference could not be resolved against the batch
type Result struct {
	Pairs   []domain.ConversationPair
	Dropped int
}

// Engine pairs responses from the mailbox owner with their request messages
type Engine struct {
	owner string
}

// New constructs an Engine for the given mailbox owner address
func New(owner string) *Engine { return &Engine{owner: owner} }

// ProgressFunc is invoked once per swept message with the 1-based message
// index and the total message count
type ProgressFunc func(index, total int)

// Pair builds request/response pairs from msgs, invoking onMessage as each
// message is swept.
// Pairs are emitted in the order responses appear in msgs, and at most one
// pair is emitted per response. The same (request, response) id combination
// is never emitted twice
func (e *Engine) Pair(msgs []domain.RawMessage, onMessage ProgressFunc) Result {
	byID := make(map[string]int, len(msgs))
	for i, m := range msgs {
		if m.ID != "" {
			byID[m.ID] = i
		}
	}

	seen := make(map[[2]string]bool)
	var out Result
	for i, m := range msgs {
		if onMessage != nil {
			onMessage(i+1, len(msgs))
		}
		if !e.isOwnerResponse(m) {
			continue
		}
		ref := e.resolveRef(m)
		idx, ok := byID[ref]
		if ref == "" || !ok {
			out.Dropped++
			continue
		}
		key := [2]string{msgs[idx].ID, m.ID}
		if seen[key] {
			continue
		}
		seen[key] = true
		out.Pairs = append(out.Pairs, domain.ConversationPair{
			Request:  msgs[idx],
			Response: m,
		})
	}
	return out
}

// isOwnerResponse reports whether m is a reply sent by the mailbox owner.
// Owner match is substring containment on the From header so that both bare
// addresses and display-name forms ("Kim <owner@uni.edu>") qualify
func (e *Engine) isOwnerResponse(m domain.RawMessage) bool {
	if m.InReplyTo == "" && len(m.References) == 0 {
		return false
	}
	return e.owner != "" && strings.Contains(m.From, e.owner)
}

// resolveRef returns the message id the response claims to answer
func (e *Engine) resolveRef(m domain.RawMessage) string {
	if m.InReplyTo != "" {
		return m.InReplyTo
	}
	if len(m.References) > 0 {
		return m.References[0]
	}
	return ""
}
