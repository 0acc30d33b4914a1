package errors

// Upstream-specific helpers for mapping mailbox/SMTP failures to project ErrorCode and retry semantics

import (
	"context"
	stderrs "errors"
	"fmt"
	"net"
	"strings"
)

// Server reply fragments that signal rejected credentials. IMAP has no
// structured code for this pre-IMAP4rev2, so matching is textual
var authFragments = []string{
	"authentication failed",
	"authenticationfailed",
	"invalid credentials",
	"login failed",
	"username and password not accepted",
	"lookup failed",
	"[authenticationfailed]",
	"535 ", // SMTP auth rejection reply code
}

// IsAuthRejection reports whether the root cause looks like the upstream
// server rejecting the supplied credentials
func IsAuthRejection(err error) bool {
	if err == nil {
		return false
	}
	s := strings.ToLower(Root(err).Error())
	for _, f := range authFragments {
		if strings.Contains(s, f) {
			return true
		}
	}
	return false
}

// IsConnectionFailure reports whether the root cause is a network-level
// failure (dial, reset, timeout) rather than a protocol-level rejection
func IsConnectionFailure(err error) bool {
	if err == nil {
		return false
	}
	root := Root(err)
	var nerr net.Error
	if stderrs.As(root, &nerr) {
		return true
	}
	var operr *net.OpError
	if stderrs.As(root, &operr) {
		return true
	}
	s := strings.ToLower(root.Error())
	switch {
	case strings.Contains(s, "connection refused"),
		strings.Contains(s, "connection reset"),
		strings.Contains(s, "broken pipe"),
		strings.Contains(s, "no such host"),
		strings.Contains(s, "i/o timeout"),
		strings.Contains(s, "unexpected eof"):
		return true
	default:
		return false
	}
}

// MailboxErrorCode maps an upstream mailbox error to an ErrorCode with an ok
// flag. !ok means the error carried no recognizable upstream signature;
// caller may fall back to generic handling
func MailboxErrorCode(err error) (ErrorCode, bool) {
	switch {
	case err == nil:
		return ErrorCodeUnknown, false
	case IsAuthRejection(err):
		return ErrorCodeAuthFailed, true
	case IsConnectionFailure(err):
		return ErrorCodeTransport, true
	default:
		return ErrorCodeUnknown, false
	}
}

// FromMailbox wraps an upstream error with a mapped ErrorCode and message.
// Unrecognized errors are classified as transport failures: everything the
// fetch path surfaces came over the wire. If err is nil, returns nil
func FromMailbox(err error, msg string) error {
	if err == nil {
		return nil
	}
	if code, ok := MailboxErrorCode(err); ok {
		return Wrap(err, code, msg)
	}
	return Wrap(err, ErrorCodeTransport, msg)
}

// FromMailboxf is the formatted variant of FromMailbox
func FromMailboxf(err error, format string, a ...any) error {
	return FromMailbox(err, fmt.Sprintf(format, a...))
}

// IsRetryable reports whether an upstream error represents a transient
// condition worth retrying. Credential rejections never are; network-level
// failures usually are
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	// Do not retry local cancellations/timeouts; let the caller decide higher-level retries
	if stderrs.Is(err, context.Canceled) || stderrs.Is(err, context.DeadlineExceeded) {
		return false
	}

	if IsAuthRejection(err) {
		return false
	}
	return IsConnectionFailure(err)
}
