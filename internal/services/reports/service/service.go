// Package service provides the report job orchestrator
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"consultmail/internal/core/filters"
	"consultmail/internal/core/pairing"
	"consultmail/internal/core/transform"
	perr "consultmail/internal/platform/errors"
	"consultmail/internal/platform/logger"
	ptime "consultmail/internal/platform/time"
	"consultmail/internal/services/reports/domain"
	"consultmail/internal/services/reports/stream"
)

// Config holds configuration options for the reports service
type Config struct {
	// MaxWorkers bounds the number of jobs processed concurrently; <=0 -> 4.
	// Submissions beyond the bound stay pending until a slot frees up
	MaxWorkers int

	// FetchTimeout bounds one mailbox fetch; 0 -> no deadline
	FetchTimeout time.Duration
}

// job is the orchestrator's mutable record for one submission. All fields
// are guarded by Service.mu; snapshots are taken under the lock and handed
// out by value
type job struct {
	snap   domain.JobSnapshot
	creds  domain.Credentials
	rng    domain.DateRange
	filter domain.FilterConfig
	events *stream.Stream

	artifactName string
	artifactData []byte
}

// Service implements domain.ServicePort
type Service struct {
	Fetch     domain.Fetcher
	Notify    domain.Notifier // optional; nil disables notices
	Serialize domain.Serializer
	Cfg       Config

	mu    sync.RWMutex
	jobs  map[string]*job
	order []string // insertion order, oldest first

	sem chan struct{}
}

// New constructs the reports service
func New(f domain.Fetcher, n domain.Notifier, ser domain.Serializer, cfg Config) *Service {
	if f == nil {
		panic("reports.Service requires a non nil Fetcher")
	}
	if ser == nil {
		panic("reports.Service requires a non nil Serializer")
	}
	w := cfg.MaxWorkers
	if w <= 0 {
		w = 4
	}
	return &Service{
		Fetch:     f,
		Notify:    n,
		Serialize: ser,
		Cfg:       cfg,
		jobs:      make(map[string]*job),
		sem:       make(chan struct{}, w),
	}
}

// Submit schedules a job and returns its id. The per-message work happens on
// a worker goroutine; Submit itself never waits for a pool slot
func (s *Service) Submit(ctx context.Context, in domain.SubmitInput) (string, error) {
	rng, err := parseRange(in.StartDate, in.EndDate)
	if err != nil {
		return "", err
	}

	length := domain.DefaultPatternLength
	if in.PatternLength != nil {
		length = *in.PatternLength
	}

	j := &job{
		snap: domain.JobSnapshot{
			ID:        uuid.NewString(),
			State:     domain.JobPending,
			CreatedAt: time.Now().UTC(),
		},
		creds: domain.Credentials{Address: in.Address, Password: in.Password},
		rng:   rng,
		filter: domain.FilterConfig{
			Keywords:      in.Keywords,
			PatternLength: length,
			Strict:        !in.Lax,
		},
		events: stream.New(),
	}
	j.snap.UpdatedAt = j.snap.CreatedAt

	s.mu.Lock()
	s.jobs[j.snap.ID] = j
	s.order = append(s.order, j.snap.ID)
	s.mu.Unlock()

	go s.run(j)

	logger.C(ctx).Info().Str("job_id", j.snap.ID).Msg("reports: job submitted")
	return j.snap.ID, nil
}

// Status returns an immutable snapshot of the job
func (s *Service) Status(ctx context.Context, id string) (domain.JobSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[id]
	if !ok {
		return domain.JobSnapshot{}, perr.NotFoundf("job %s not found", id)
	}
	return j.snap, nil
}

// List returns snapshots of every known job, newest first
func (s *Service) List(ctx context.Context) []domain.JobSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.JobSnapshot, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		out = append(out, s.jobs[s.order[i]].snap)
	}
	return out
}

// Subscribe attaches to the job's event stream. Events published before the
// subscription are not replayed; a terminal job yields a closed channel
func (s *Service) Subscribe(ctx context.Context, id string) (<-chan stream.Event, func(), error) {
	s.mu.RLock()
	j, ok := s.jobs[id]
	s.mu.RUnlock()
	if !ok {
		return nil, nil, perr.NotFoundf("job %s not found", id)
	}
	ch, cancel := j.events.Subscribe()
	return ch, cancel, nil
}

// Report returns the artifact of a completed job
func (s *Service) Report(ctx context.Context, id string) (string, []byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[id]
	if !ok {
		return "", nil, perr.NotFoundf("job %s not found", id)
	}
	if j.snap.State != domain.JobCompleted {
		return "", nil, perr.Conflictf("job %s is %s, report requires completed", id, j.snap.State)
	}
	return j.artifactName, j.artifactData, nil
}

// update mutates the job under the lock and stamps UpdatedAt. Terminal jobs
// are immutable and further updates are discarded
func (s *Service) update(j *job, fn func(*job)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if j.snap.State.Terminal() {
		return
	}
	fn(j)
	j.snap.UpdatedAt = time.Now().UTC()
	if j.snap.State.Terminal() {
		j.snap.CompletedAt = ptime.Ptr(j.snap.UpdatedAt)
	}
}

// run executes one job end to end. It blocks on the pool semaphore, so a
// burst of submissions queues in pending state
func (s *Service) run(j *job) {
	s.sem <- struct{}{}
	defer func() { <-s.sem }()

	ctx := logger.WithRequest(context.Background(), "", j.snap.ID)
	log := logger.C(ctx)

	s.update(j, func(j *job) { j.snap.State = domain.JobProcessing })
	j.events.Publish(stream.Log("processing started"))
	s.notify(ctx, log, domain.Notification{
		Kind:    domain.NotifyStart,
		JobID:   j.snap.ID,
		Address: j.creds.Address,
	})

	rows, err := s.process(ctx, j, log)
	if err != nil {
		s.fail(ctx, j, log, err)
		return
	}

	name, data, err := s.Serialize.Serialize(ctx, rows)
	if err != nil {
		s.fail(ctx, j, log, perr.Wrap(err, perr.ErrorCodeUnknown, "serialize report"))
		return
	}

	s.update(j, func(j *job) {
		j.snap.State = domain.JobCompleted
		j.snap.ResultCount = len(rows)
		j.artifactName = name
		j.artifactData = data
	})
	j.events.Publish(stream.Log("report ready: " + name))
	s.notify(ctx, log, domain.Notification{
		Kind:     domain.NotifyCompletion,
		JobID:    j.snap.ID,
		Address:  j.creds.Address,
		RowCount: len(rows),
	})
	j.events.Close()
	log.Info().Int("rows", len(rows)).Msg("reports: job completed")
}

// process runs fetch, pairing, filtering and transformation for one job
func (s *Service) process(ctx context.Context, j *job, log *logger.Logger) ([]domain.ReportRow, error) {
	fctx := ctx
	if s.Cfg.FetchTimeout > 0 {
		var cancel context.CancelFunc
		fctx, cancel = context.WithTimeout(ctx, s.Cfg.FetchTimeout)
		defer cancel()
	}

	j.events.Publish(stream.Log("fetching mailbox " + j.creds.Address))
	msgs, err := s.Fetch.Fetch(fctx, j.creds, j.rng)
	if err != nil {
		return nil, perr.FromMailbox(err, "fetch mailbox")
	}

	store := domain.NewMessageStore()
	store.Load(msgs)

	total := store.Len()
	s.update(j, func(j *job) { j.snap.TotalCount = total })
	j.events.Publish(stream.Total(total))

	engine := pairing.New(j.creds.Address)
	res := engine.Pair(store.All(), func(i, n int) {
		s.update(j, func(j *job) { j.snap.CurrentIndex = i })
		j.events.Publish(stream.Current(i, n))
	})
	s.update(j, func(j *job) { j.snap.DroppedCount = res.Dropped })
	log.Debug().
		Int("messages", total).
		Int("pairs", len(res.Pairs)).
		Int("dropped", res.Dropped).
		Msg("reports: pairing done")

	pipe := filters.FromConfig(j.filter)
	outs := pipe.Run(res.Pairs, func(i, n int) {
		j.events.Publish(stream.Log(progressLine("filtering pair", i, n)))
	})
	j.events.Publish(stream.Log(progressLine("pairs accepted", len(outs), len(res.Pairs))))

	return transform.Rows(outs), nil
}

// fail moves the job to its failed terminal state
func (s *Service) fail(ctx context.Context, j *job, log *logger.Logger, err error) {
	s.update(j, func(j *job) {
		j.snap.State = domain.JobFailed
		j.snap.Error = err.Error()
	})
	j.events.Publish(stream.Log("job failed: " + err.Error()))
	s.notify(ctx, log, domain.Notification{
		Kind:    domain.NotifyCompletion,
		JobID:   j.snap.ID,
		Address: j.creds.Address,
		Err:     err.Error(),
	})
	j.events.Close()
	log.Error().Err(err).Msg("reports: job failed")
}

// notify delivers a notice when a notifier is wired. Delivery failures are
// logged and never fail the job
func (s *Service) notify(ctx context.Context, log *logger.Logger, n domain.Notification) {
	if s.Notify == nil {
		return
	}
	if err := s.Notify.Send(ctx, n); err != nil {
		log.Warn().Err(perr.Wrap(err, perr.ErrorCodeDelivery, "send notice")).
			Str("kind", string(n.Kind)).
			Msg("reports: notification delivery failed")
	}
}

func progressLine(what string, i, n int) string {
	return fmt.Sprintf("%s: %d/%d", what, i, n)
}

// parseRange validates and widens the submitted day range. End is inclusive:
// the fetch collaborators extend it to end-of-day
func parseRange(start, end string) (domain.DateRange, error) {
	const layout = "2006-01-02"
	st, err := time.Parse(layout, start)
	if err != nil {
		return domain.DateRange{}, perr.InvalidArgf("start_date %q is not YYYY-MM-DD", start)
	}
	en, err := time.Parse(layout, end)
	if err != nil {
		return domain.DateRange{}, perr.InvalidArgf("end_date %q is not YYYY-MM-DD", end)
	}
	if en.Before(st) {
		return domain.DateRange{}, perr.InvalidArgf("end_date precedes start_date")
	}
	return domain.DateRange{Start: st, End: en}, nil
}
