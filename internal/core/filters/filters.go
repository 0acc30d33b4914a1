// Package filters narrows conversation pairs through an ordered chain of
// content stages. Stages run cheapest-first and a rejection short-circuits
// the rest of the chain for that pair
package filters

import (
	str "consultmail/internal/platform/strings"
	"consultmail/internal/services/reports/domain"
)

// Stage is one predicate/extraction step. Apply must be pure: stages are
// shared across pairs and across jobs
type Stage interface {
	Name() string
	Apply(pair domain.ConversationPair, v *domain.Verdict)
}

// Outcome is the pipeline's result for one pair
type Outcome struct {
	Pair    domain.ConversationPair
	Verdict domain.Verdict
}

// ProgressFunc is invoked once per pair processed with the 1-based pair
// index and the total pair count
type ProgressFunc func(index, total int)

// Pipeline is an ordered stage chain. It holds no per-pair state and is safe
// for concurrent use
type Pipeline struct {
	stages []Stage
}

// New builds a pipeline from stages in execution order
func New(stages ...Stage) *Pipeline { return &Pipeline{stages: stages} }

// FromConfig assembles the standard chain for a job: keyword narrowing,
// student id pattern, then informational name extraction
func FromConfig(cfg domain.FilterConfig) *Pipeline {
	keywords := str.IfEmpty(cfg.Keywords, domain.DefaultKeywords())
	stages := []Stage{NewKeywordStage(keywords)}
	if cfg.PatternLength > 0 {
		stages = append(stages, NewPatternStage(cfg.PatternLength, cfg.Strict))
	}
	stages = append(stages, NewNameStage())
	return New(stages...)
}

// Run applies the chain to every pair, invoking onPair once per pair and
// returning the outcomes of the survivors in input order
func (p *Pipeline) Run(pairs []domain.ConversationPair, onPair ProgressFunc) []Outcome {
	out := make([]Outcome, 0, len(pairs))
	for i, pair := range pairs {
		if onPair != nil {
			onPair(i+1, len(pairs))
		}
		if o, ok := p.Apply(pair); ok {
			out = append(out, o)
		}
	}
	return out
}

// Apply runs one pair through the chain. ok is false when any gating stage
// rejected it; the verdict records the rejecting stage
func (p *Pipeline) Apply(pair domain.ConversationPair) (Outcome, bool) {
	v := domain.Verdict{Pass: true}
	for _, st := range p.stages {
		st.Apply(pair, &v)
		if !v.Pass {
			v.Stage = st.Name()
			return Outcome{Pair: pair, Verdict: v}, false
		}
	}
	return Outcome{Pair: pair, Verdict: v}, true
}
