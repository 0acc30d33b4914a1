package stream

import (
	"fmt"
	"strconv"
	"strings"
)

// Plain-text wire encoding, for transports that carry the stream as bare
// lines. A progress event becomes a log line opening with ProgressMark and a
// TOTAL or CURRENT discriminator with pipe-delimited fields. Any line that
// contains ProgressMark is additionally re-emitted under AnnotateMark so a
// consumer can spot progress updates without parsing every line.
// Structured transports (the SSE endpoint) skip this encoding entirely
const (
	// ProgressMark opens an encoded progress event line
	ProgressMark = "##PROGRESS##"
	// AnnotateMark prefixes the duplicate emission of a progress line
	AnnotateMark = "##EVENT##"
)

// EncodeLine renders e as a single wire line without the annotation pass
func EncodeLine(e Event) string {
	switch e.Type {
	case EventTotal:
		return fmt.Sprintf("%sTOTAL|%d", ProgressMark, e.Total)
	case EventCurrent:
		return fmt.Sprintf("%sCURRENT|%d|%d", ProgressMark, e.Index, e.Total)
	default:
		return e.Line
	}
}

// EncodeWire renders e as its transport lines: the plain line, plus the
// annotated duplicate when the line carries the progress marker
func EncodeWire(e Event) []string {
	line := EncodeLine(e)
	if strings.Contains(line, ProgressMark) {
		return []string{line, AnnotateMark + line}
	}
	return []string{line}
}

// DecodeLine parses one wire line back into an Event. Annotated duplicates
// decode to the same event as their plain form. Lines that merely resemble a
// progress encoding but do not parse are treated as log text
func DecodeLine(line string) Event {
	s := strings.TrimPrefix(line, AnnotateMark)
	if !strings.HasPrefix(s, ProgressMark) {
		return Log(line)
	}
	fields := strings.Split(strings.TrimPrefix(s, ProgressMark), "|")
	switch {
	case len(fields) == 2 && fields[0] == "TOTAL":
		if n, err := strconv.Atoi(fields[1]); err == nil {
			return Total(n)
		}
	case len(fields) == 3 && fields[0] == "CURRENT":
		i, err1 := strconv.Atoi(fields[1])
		n, err2 := strconv.Atoi(fields[2])
		if err1 == nil && err2 == nil {
			return Current(i, n)
		}
	}
	return Log(line)
}
