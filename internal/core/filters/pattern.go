package filters

import (
	"fmt"
	"regexp"

	"consultmail/internal/services/reports/domain"
)

// PatternStage looks for a fixed-length digit run (the student id). Strict
// mode searches the request subject and body; lax mode searches the body
// only. The first match is retained on the verdict for the transformer
type PatternStage struct {
	re     *regexp.Regexp
	strict bool
}

// NewPatternStage builds the stage for an id of length digits
func NewPatternStage(length int, strict bool) *PatternStage {
	return &PatternStage{
		re:     regexp.MustCompile(fmt.Sprintf(`\d{%d}`, length)),
		strict: strict,
	}
}

// Name implements Stage
func (s *PatternStage) Name() string { return "pattern" }

// Apply implements Stage
func (s *PatternStage) Apply(pair domain.ConversationPair, v *domain.Verdict) {
	if s.strict {
		if m := s.re.FindString(pair.Request.Subject); m != "" {
			v.StudentID = m
			return
		}
	}
	if m := s.re.FindString(pair.Request.Body); m != "" {
		v.StudentID = m
		return
	}
	v.Pass = false
}
