// Package domain holds the types and ports shared by the reports service,
// its transports, and its collaborators
package domain

import "time"

// RawMessage is one fetched mailbox message, immutable once loaded.
// References carries the raw References header tokens in order
type RawMessage struct {
	ID         string
	From       string
	To         string
	Subject    string
	Date       time.Time
	Body       string
	InReplyTo  string
	References []string
}

// ConversationPair is one matched request plus the owner's response to it
type ConversationPair struct {
	Request  RawMessage
	Response RawMessage
}

// Verdict is the outcome of one filter stage for one pair.
// Extracted metadata accumulates across stages and is consumed by the
// transformer; it is never persisted
type Verdict struct {
	Pass      bool
	Stage     string
	StudentID string
	Name      string
}

// ReportRow is one finished consultation record. Optional fields degrade to
// empty strings so spreadsheet consumers render blank cells
type ReportRow struct {
	Date         string `json:"date"`
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
	Place        string `json:"place"`
	StudentID    string `json:"student_id"`
	StudentName  string `json:"student_name"`
	RequestText  string `json:"request_text"`
	ResponseText string `json:"response_text"`
}

// JobState is the lifecycle state of a report job
type JobState string

// Job states. Terminal states are never left once entered
const (
	JobPending    JobState = "pending"
	JobProcessing JobState = "processing"
	JobCompleted  JobState = "completed"
	JobFailed     JobState = "failed"
)

// Terminal reports whether s is a terminal state
func (s JobState) Terminal() bool { return s == JobCompleted || s == JobFailed }

// JobSnapshot is an immutable view of a job's progress, safe to hand to any
// number of concurrent readers
type JobSnapshot struct {
	ID           string     `json:"id"`
	State        JobState   `json:"state"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	TotalCount   int        `json:"total_count"`
	CurrentIndex int        `json:"current_index"`
	DroppedCount int        `json:"dropped_count"`
	ResultCount  int        `json:"result_count"`
	Error        string     `json:"error,omitempty"`
}

// Credentials identifies the mailbox to ingest
type Credentials struct {
	Address  string
	Password string
}

// DateRange is an inclusive day range; End is widened to end-of-day by the
// fetch collaborators
type DateRange struct {
	Start time.Time
	End   time.Time
}

// FilterConfig tunes the filter pipeline for one job
type FilterConfig struct {
	Keywords      []string
	PatternLength int // <=0 skips the student-id stage
	Strict        bool
}

// DefaultKeywords are the greeting/closing tokens a consultation request must
// contain, matching the mailbox's counseling conventions
func DefaultKeywords() []string { return []string{"교수님", "안녕하세요", "입니다"} }

// DefaultPatternLength is the student id digit count
const DefaultPatternLength = 8

// SubmitInput is the job submission payload.
// PatternLength nil takes the default digit count; an explicit 0 disables
// the student-id stage entirely
type SubmitInput struct {
	Address       string   `json:"address" validate:"required,email"`
	Password      string   `json:"password" validate:"required"`
	StartDate     string   `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate       string   `json:"end_date" validate:"required,datetime=2006-01-02"`
	Keywords      []string `json:"keywords,omitempty" validate:"omitempty,max=16,dive,min=1"`
	PatternLength *int     `json:"pattern_length,omitempty" validate:"omitempty,min=0,max=32"`
	Lax           bool     `json:"lax,omitempty"`
}

// NotificationKind distinguishes start and completion notices
type NotificationKind string

// Notification kinds
const (
	NotifyStart      NotificationKind = "start"
	NotifyCompletion NotificationKind = "completion"
)

// Notification describes an outbound job notice
type Notification struct {
	Kind     NotificationKind
	JobID    string
	Address  string
	RowCount int
	Err      string
}
