package filters

import (
	"strings"

	"consultmail/internal/services/reports/domain"
)

// KeywordStage requires every configured token to appear in the request
// body. Matching is case-sensitive substring containment and fails closed:
// one missing token rejects the pair
type KeywordStage struct {
	keywords []string
}

// NewKeywordStage builds the stage with the given required tokens
func NewKeywordStage(keywords []string) *KeywordStage {
	return &KeywordStage{keywords: keywords}
}

// Name implements Stage
func (s *KeywordStage) Name() string { return "keyword" }

// Apply implements Stage
func (s *KeywordStage) Apply(pair domain.ConversationPair, v *domain.Verdict) {
	body := pair.Request.Body
	for _, kw := range s.keywords {
		if !strings.Contains(body, kw) {
			v.Pass = false
			return
		}
	}
}
