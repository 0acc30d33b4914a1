package filters

import (
	"regexp"

	"consultmail/internal/services/reports/domain"
)

// NameStage extracts the student's name from the request body. It is
// informational only: it never rejects a pair, and a miss leaves the field
// empty.
//
// Patterns are tried in order and the first acceptable capture wins:
// 1 first-person self-identification "저는 <name>입니다"
// 2 identifier-adjacent form "학번 <name>"
// 3 bare self-identification "<name>입니다"
type NameStage struct {
	patterns []*regexp.Regexp
	stoplist map[string]bool
}

// nameStoplist holds domain words that a capture group can latch onto but
// are never a person's name
var nameStoplist = []string{
	"교수님", "안녕하세요", "학번", "학생", "상담", "질문", "문의",
	"입니다", "감사합니다", "드립니다", "부탁드립니다",
}

// NewNameStage builds the stage with the standard patterns and stoplist
func NewNameStage() *NameStage {
	stop := make(map[string]bool, len(nameStoplist))
	for _, w := range nameStoplist {
		stop[w] = true
	}
	return &NameStage{
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`저는\s*([가-힣]{2,4})\s*입니다`),
			regexp.MustCompile(`학번\s*([가-힣]{2,4})`),
			regexp.MustCompile(`([가-힣]{2,4})\s*입니다`),
		},
		stoplist: stop,
	}
}

// Name implements Stage
func (s *NameStage) Name() string { return "name" }

// Apply implements Stage
func (s *NameStage) Apply(pair domain.ConversationPair, v *domain.Verdict) {
	body := pair.Request.Body
	for _, re := range s.patterns {
		for _, m := range re.FindAllStringSubmatch(body, -1) {
			if len(m) > 1 && !s.stoplist[m[1]] {
				v.Name = m[1]
				return
			}
		}
	}
}
