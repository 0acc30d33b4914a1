// Package smtp delivers job start and completion notices by mail
package smtp

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/emersion/go-sasl"
	gosmtp "github.com/emersion/go-smtp"

	"consultmail/internal/services/reports/domain"
)

// Options configures the SMTP notifier
type Options struct {
	// Addr is host:port of the submission endpoint (STARTTLS)
	Addr string
	// From is the envelope and header sender
	From string
	// Username/Password authenticate via SASL PLAIN; both empty -> no auth
	Username string
	Password string
}

// Notifier implements domain.Notifier over SMTP. Notices go to the mailbox
// owner who submitted the job
type Notifier struct {
	opts Options
}

// New constructs the notifier
func New(opts Options) (*Notifier, error) {
	if opts.Addr == "" {
		return nil, fmt.Errorf("smtp addr is empty")
	}
	if opts.From == "" {
		return nil, fmt.Errorf("smtp from is empty")
	}
	return &Notifier{opts: opts}, nil
}

// Send implements domain.Notifier
func (n *Notifier) Send(ctx context.Context, note domain.Notification) error {
	subject, body := compose(note)
	msg, err := render(n.opts.From, note.Address, subject, body)
	if err != nil {
		return err
	}

	var auth sasl.Client
	if n.opts.Username != "" || n.opts.Password != "" {
		auth = sasl.NewPlainClient("", n.opts.Username, n.opts.Password)
	}
	if err := gosmtp.SendMail(n.opts.Addr, auth, n.opts.From, []string{note.Address}, bytes.NewReader(msg)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func compose(note domain.Notification) (subject, body string) {
	switch {
	case note.Kind == domain.NotifyStart:
		return "[상담 보고서] 생성을 시작했습니다",
			fmt.Sprintf("작업 %s 의 메일함 분석을 시작했습니다.", note.JobID)
	case note.Err != "":
		return "[상담 보고서] 생성에 실패했습니다",
			fmt.Sprintf("작업 %s 이(가) 실패했습니다: %s", note.JobID, note.Err)
	default:
		return "[상담 보고서] 생성이 완료되었습니다",
			fmt.Sprintf("작업 %s 이(가) 완료되었습니다. 상담 기록 %d건이 포함되었습니다.", note.JobID, note.RowCount)
	}
}

// render builds the notice as a single-part text message. The mail writer
// encodes the Korean subject into RFC 2047 words, so the header section
// stays pure ASCII for servers without SMTPUTF8
func render(from, to, subject, body string) ([]byte, error) {
	var h mail.Header
	h.SetDate(time.Now())
	h.SetAddressList("From", []*mail.Address{{Address: from}})
	h.SetAddressList("To", []*mail.Address{{Address: to}})
	h.SetSubject(subject)

	var b bytes.Buffer
	w, err := mail.CreateSingleInlineWriter(&b, h)
	if err != nil {
		return nil, fmt.Errorf("create notice: %w", err)
	}
	if _, err := io.WriteString(w, body); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("write notice body: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close notice: %w", err)
	}
	return b.Bytes(), nil
}
