// Package mailbox holds the message parsing shared by the mailbox fetchers
package mailbox

import (
	"io"
	"strings"

	_ "github.com/emersion/go-message/charset" // registers EUC-KR and friends
	"github.com/emersion/go-message/mail"

	"consultmail/internal/services/reports/domain"
)

// Parse reads one RFC 822 message into the domain shape. Threading ids come
// back normalized (no angle brackets), so Message-ID and In-Reply-To compare
// byte for byte. Attachments are skipped; the first text/plain part wins and
// text/html is kept only when no plain part exists
func Parse(r io.Reader) (domain.RawMessage, error) {
	mr, err := mail.CreateReader(r)
	if err != nil {
		return domain.RawMessage{}, err
	}

	h := mr.Header
	var m domain.RawMessage

	m.ID, _ = h.MessageID()
	if ids, err := h.MsgIDList("In-Reply-To"); err == nil && len(ids) > 0 {
		m.InReplyTo = ids[0]
	}
	if refs, err := h.MsgIDList("References"); err == nil {
		m.References = refs
	}
	m.Subject, _ = h.Subject()
	m.Date, _ = h.Date()
	m.From = addressText(h, "From")
	m.To = addressText(h, "To")
	m.Body = bodyText(mr)

	return m, nil
}

// addressText renders an address header for display and matching, falling
// back to the raw header when it does not parse
func addressText(h mail.Header, key string) string {
	addrs, err := h.AddressList(key)
	if err != nil || len(addrs) == 0 {
		return h.Get(key)
	}
	parts := make([]string, 0, len(addrs))
	for _, a := range addrs {
		parts = append(parts, a.String())
	}
	return strings.Join(parts, ", ")
}

func bodyText(mr *mail.Reader) string {
	var htmlFallback string
	for {
		p, err := mr.NextPart()
		if err != nil {
			break
		}
		ih, ok := p.Header.(*mail.InlineHeader)
		if !ok {
			continue // attachment
		}
		ct, _, _ := ih.ContentType()
		switch ct {
		case "text/plain":
			b, _ := io.ReadAll(p.Body)
			return string(b)
		case "text/html":
			if htmlFallback == "" {
				b, _ := io.ReadAll(p.Body)
				htmlFallback = string(b)
			}
		}
	}
	return htmlFallback
}
