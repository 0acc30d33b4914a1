package domain

// SubmitOutput acknowledges a scheduled job
type SubmitOutput struct {
	ID string `json:"id"`
}

// ListOutput wraps the job listing
type ListOutput struct {
	Jobs []JobSnapshot `json:"jobs"`
}
