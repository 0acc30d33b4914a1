package domain

import (
	"context"

	"consultmail/internal/services/reports/stream"
)

// Fetcher pulls the raw messages for a date range from a mailbox.
// The returned order is the mailbox's natural order and is preserved all the
// way through the pipeline
type Fetcher interface {
	Fetch(ctx context.Context, creds Credentials, rng DateRange) ([]RawMessage, error)
}

// Notifier delivers start/completion notices. Delivery failure is logged by
// the caller, never fatal to the job
type Notifier interface {
	Send(ctx context.Context, n Notification) error
}

// Serializer materializes finished rows into an artifact (an XLSX workbook).
// The returned name is the suggested download filename
type Serializer interface {
	Serialize(ctx context.Context, rows []ReportRow) (name string, data []byte, err error)
}

// ServicePort is the orchestrator contract exposed to transports
type ServicePort interface {
	// Submit schedules a job and returns its id without waiting for any
	// per-message work
	Submit(ctx context.Context, in SubmitInput) (string, error)
	// Status returns an immutable snapshot or a not found error
	Status(ctx context.Context, id string) (JobSnapshot, error)
	// List returns snapshots of all known jobs, newest first
	List(ctx context.Context) []JobSnapshot
	// Subscribe attaches to a job's event stream from now on (no replay).
	// The channel closes when the job reaches a terminal state
	Subscribe(ctx context.Context, id string) (<-chan stream.Event, func(), error)
	// Report returns the serialized artifact of a completed job
	Report(ctx context.Context, id string) (name string, data []byte, err error)
}
