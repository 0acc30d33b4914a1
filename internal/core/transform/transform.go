// Package transform derives report rows from accepted conversation pairs.
// Everything here is pure and total: absent optional fields degrade to empty
// strings, never to errors
package transform

import (
	"time"

	"consultmail/internal/core/filters"
	"consultmail/internal/services/reports/domain"
)

// consultation slots open at 09:00; anything earlier lands on the first slot
const (
	slotMinutes    = 5
	sessionMinutes = 30
	floorHour      = 9
)

// defaultPlace is the fixed consultation location column value
const defaultPlace = "연구실"

// Row builds the report row for one surviving pair
func Row(o filters.Outcome) domain.ReportRow {
	start := StartTime(o.Pair.Response.Date)
	return domain.ReportRow{
		Date:         o.Pair.Response.Date.Format("2006-01-02"),
		StartTime:    start.Format("15:04"),
		EndTime:      start.Add(sessionMinutes * time.Minute).Format("15:04"),
		Place:        defaultPlace,
		StudentID:    o.Verdict.StudentID,
		StudentName:  o.Verdict.Name,
		RequestText:  Sanitize(o.Pair.Request.Body),
		ResponseText: Sanitize(o.Pair.Response.Body),
	}
}

// Rows transforms every outcome, preserving order
func Rows(outs []filters.Outcome) []domain.ReportRow {
	rows := make([]domain.ReportRow, 0, len(outs))
	for _, o := range outs {
		rows = append(rows, Row(o))
	}
	return rows
}

// StartTime normalizes the response timestamp into a slot start: the minute
// is floored to the nearest 5-minute boundary, and anything before 09:00 is
// forced to 09:05. End-of-session rollover past midnight is handled by plain
// time arithmetic on the returned value
func StartTime(t time.Time) time.Time {
	if t.Hour() < floorHour {
		return time.Date(t.Year(), t.Month(), t.Day(), floorHour, slotMinutes, 0, 0, t.Location())
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute()-t.Minute()%slotMinutes, 0, 0, t.Location())
}
