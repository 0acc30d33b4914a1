// Package mbox fetches messages from a local mbox file, mainly for offline
// runs and fixtures
package mbox

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	mboxlib "github.com/emersion/go-mbox"

	"consultmail/internal/adapters/mailbox"
	"consultmail/internal/platform/logger"
	"consultmail/internal/services/reports/domain"
)

// Options configures the mbox fetcher
type Options struct {
	Path string
}

// Fetcher implements domain.Fetcher against an mbox file. Credentials are
// ignored; the date range is applied client-side on the Date header
type Fetcher struct {
	opts Options
}

// New constructs the fetcher
func New(opts Options) (*Fetcher, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("mbox path is empty")
	}
	return &Fetcher{opts: opts}, nil
}

// Ping reports whether the mbox file is readable
func (f *Fetcher) Ping(context.Context) error {
	file, err := os.Open(f.opts.Path)
	if err != nil {
		return err
	}
	return file.Close()
}

// Fetch implements domain.Fetcher
func (f *Fetcher) Fetch(ctx context.Context, _ domain.Credentials, rng domain.DateRange) ([]domain.RawMessage, error) {
	file, err := os.Open(f.opts.Path)
	if err != nil {
		return nil, fmt.Errorf("open mbox: %w", err)
	}
	defer file.Close()

	var msgs []domain.RawMessage
	reader := mboxlib.NewReader(file)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		mr, err := reader.NextMessage()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read mbox: %w", err)
		}
		m, err := mailbox.Parse(mr)
		if err != nil {
			logger.C(ctx).Warn().Err(err).Msg("mbox: unparseable message skipped")
			continue
		}
		if !inRange(m, rng) {
			continue
		}
		msgs = append(msgs, m)
	}

	logger.C(ctx).Debug().Int("messages", len(msgs)).Str("path", f.opts.Path).Msg("mbox: fetch done")
	return msgs, nil
}

// inRange keeps messages whose Date falls inside the inclusive day range.
// A missing Date header keeps the message: dropping silently on a malformed
// header would hide whole conversations
func inRange(m domain.RawMessage, rng domain.DateRange) bool {
	if m.Date.IsZero() {
		return true
	}
	end := rng.End.AddDate(0, 0, 1)
	return !m.Date.Before(rng.Start) && m.Date.Before(end)
}
