// Package imap fetches mailbox messages over IMAP
package imap

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"time"

	imapv2 "github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"

	"consultmail/internal/adapters/mailbox"
	"consultmail/internal/platform/logger"
	"consultmail/internal/services/reports/domain"
)

// Options configures the IMAP fetcher
type Options struct {
	// Addr is host:port of the IMAPS endpoint
	Addr string
	// Mailbox to select; "" -> INBOX
	Mailbox string
	// InsecureSkipVerify disables certificate verification (test servers)
	InsecureSkipVerify bool
}

// Fetcher implements domain.Fetcher over an IMAPS connection. A fresh
// connection is dialed per fetch; jobs are too infrequent to keep one warm
type Fetcher struct {
	opts Options
}

// New constructs the fetcher
func New(opts Options) (*Fetcher, error) {
	if opts.Addr == "" {
		return nil, fmt.Errorf("imap addr is empty")
	}
	if opts.Mailbox == "" {
		opts.Mailbox = "INBOX"
	}
	return &Fetcher{opts: opts}, nil
}

// Ping reports whether the IMAPS endpoint is reachable. It dials and closes
// without logging in, so it needs no credentials
func (f *Fetcher) Ping(ctx context.Context) error {
	d := net.Dialer{Timeout: 5 * time.Second}
	if dl, ok := ctx.Deadline(); ok {
		d.Deadline = dl
	}
	conn, err := tls.DialWithDialer(&d, "tcp", f.opts.Addr, &tls.Config{
		InsecureSkipVerify: f.opts.InsecureSkipVerify,
	})
	if err != nil {
		return fmt.Errorf("dial imap %s: %w", f.opts.Addr, err)
	}
	return conn.Close()
}

// Fetch implements domain.Fetcher. The SEARCH window is SINCE rng.Start and
// BEFORE the day after rng.End, so the inclusive day range maps onto IMAP's
// date-only semantics
func (f *Fetcher) Fetch(ctx context.Context, creds domain.Credentials, rng domain.DateRange) ([]domain.RawMessage, error) {
	client, err := imapclient.DialTLS(f.opts.Addr, &imapclient.Options{
		TLSConfig: &tls.Config{InsecureSkipVerify: f.opts.InsecureSkipVerify},
	})
	if err != nil {
		return nil, fmt.Errorf("dial imap %s: %w", f.opts.Addr, err)
	}

	stopClose := context.AfterFunc(ctx, func() { _ = client.Close() })
	defer func() {
		stopClose()
		if ctx.Err() == nil {
			if err := client.Logout().Wait(); err != nil {
				logger.C(ctx).Debug().Err(err).Msg("imap: logout failed")
			}
		}
		_ = client.Close()
	}()

	if err := client.Login(creds.Address, creds.Password).Wait(); err != nil {
		return nil, fmt.Errorf("imap login: %w", err)
	}
	if _, err := client.Select(f.opts.Mailbox, &imapv2.SelectOptions{ReadOnly: true}).Wait(); err != nil {
		return nil, fmt.Errorf("imap select %s: %w", f.opts.Mailbox, err)
	}

	criteria := &imapv2.SearchCriteria{
		Since:  rng.Start,
		Before: rng.End.AddDate(0, 0, 1),
	}
	sdata, err := client.UIDSearch(criteria, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("imap search: %w", err)
	}
	uids := sdata.AllUIDs()
	if len(uids) == 0 {
		return nil, nil
	}

	section := &imapv2.FetchItemBodySection{}
	cmd := client.Fetch(imapv2.UIDSetNum(uids...), &imapv2.FetchOptions{
		UID:         true,
		BodySection: []*imapv2.FetchItemBodySection{section},
	})
	bufs, err := cmd.Collect()
	if err != nil {
		return nil, fmt.Errorf("imap fetch: %w", err)
	}

	msgs := make([]domain.RawMessage, 0, len(bufs))
	for _, buf := range bufs {
		raw := buf.FindBodySection(section)
		if len(raw) == 0 {
			continue
		}
		m, err := mailbox.Parse(bytes.NewReader(raw))
		if err != nil {
			logger.C(ctx).Warn().Err(err).Uint32("uid", uint32(buf.UID)).Msg("imap: unparseable message skipped")
			continue
		}
		msgs = append(msgs, m)
	}

	logger.C(ctx).Debug().
		Int("uids", len(uids)).
		Int("parsed", len(msgs)).
		Time("since", rng.Start).
		Time("until", rng.End.Add(24*time.Hour)).
		Msg("imap: fetch done")
	return msgs, nil
}
