package mbox

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"consultmail/internal/services/reports/domain"
)

const fixture = "From student@uni.ac.kr Tue Mar 10 02:00:00 2026\n" +
	"From: student@uni.ac.kr\n" +
	"Subject: request\n" +
	"Date: Tue, 10 Mar 2026 11:00:00 +0900\n" +
	"Message-ID: <q1@uni.ac.kr>\n" +
	"Content-Type: text/plain\n" +
	"\n" +
	"hello\n" +
	"\n" +
	"From prof@uni.ac.kr Tue Mar 10 05:30:00 2026\n" +
	"From: prof@uni.ac.kr\n" +
	"Subject: Re: request\n" +
	"Date: Tue, 10 Mar 2026 14:30:00 +0900\n" +
	"Message-ID: <a1@uni.ac.kr>\n" +
	"In-Reply-To: <q1@uni.ac.kr>\n" +
	"Content-Type: text/plain\n" +
	"\n" +
	"reply\n" +
	"\n" +
	"From old@uni.ac.kr Mon Jan 05 02:00:00 2026\n" +
	"From: old@uni.ac.kr\n" +
	"Subject: out of range\n" +
	"Date: Mon, 5 Jan 2026 11:00:00 +0900\n" +
	"Message-ID: <z9@uni.ac.kr>\n" +
	"Content-Type: text/plain\n" +
	"\n" +
	"ancient\n"

func writeFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "inbox.mbox")
	if err := os.WriteFile(path, []byte(fixture), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestFetchFiltersDateRange(t *testing.T) {
	f, err := New(Options{Path: writeFixture(t)})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	rng := domain.DateRange{
		Start: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
	}
	msgs, err := f.Fetch(context.Background(), domain.Credentials{}, rng)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}

	if len(msgs) != 2 {
		t.Fatalf("messages: got %d want 2", len(msgs))
	}
	if msgs[0].ID != "q1@uni.ac.kr" || msgs[1].ID != "a1@uni.ac.kr" {
		t.Fatalf("ids: %q %q", msgs[0].ID, msgs[1].ID)
	}
	if msgs[1].InReplyTo != "q1@uni.ac.kr" {
		t.Fatalf("threading: %q", msgs[1].InReplyTo)
	}
}

func TestFetchMissingFile(t *testing.T) {
	f, err := New(Options{Path: filepath.Join(t.TempDir(), "missing.mbox")})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := f.Fetch(context.Background(), domain.Credentials{}, domain.DateRange{}); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestNewRequiresPath(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Fatalf("expected error for empty path")
	}
}
