package module

import (
	"time"

	"consultmail/internal/platform/config"
)

// Options controls the job pool and the mail adapters
type Options struct {
	// Orchestration
	MaxWorkers   int           // concurrent jobs; <=0 -> 4
	FetchTimeout time.Duration // per-job mailbox fetch deadline

	// Message source: "imap" or "mbox"
	Source string

	// IMAP source
	IMAPAddr     string // host:port, IMAPS
	IMAPMailbox  string
	IMAPInsecure bool // skip TLS verification (test servers only)

	// mbox source
	MboxPath string

	// SMTP notices; empty Addr disables them
	SMTPAddr string
	SMTPFrom string
	SMTPUser string
	SMTPPass string
}

// FromConfig reads REPORTS_* values from process config/env
func FromConfig(cfg config.Conf) Options {
	rc := cfg.Prefix("REPORTS_")
	return Options{
		MaxWorkers:   rc.MayInt("MAX_WORKERS", 4),
		FetchTimeout: rc.MayDuration("FETCH_TIMEOUT", 2*time.Minute),

		Source:       rc.MayEnum("SOURCE", "imap", "imap", "mbox"),
		IMAPAddr:     rc.MayString("IMAP_ADDR", "imap.gmail.com:993"),
		IMAPMailbox:  rc.MayString("IMAP_MAILBOX", "INBOX"),
		IMAPInsecure: rc.MayBool("IMAP_INSECURE", false),
		MboxPath:     rc.MayString("MBOX_PATH", ""),

		SMTPAddr: rc.MayString("SMTP_ADDR", ""),
		SMTPFrom: rc.MayString("SMTP_FROM", ""),
		SMTPUser: rc.MayString("SMTP_USER", ""),
		SMTPPass: rc.MayString("SMTP_PASS", ""),
	}
}
