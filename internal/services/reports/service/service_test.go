package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	perr "consultmail/internal/platform/errors"
	"consultmail/internal/services/reports/domain"
	"consultmail/internal/services/reports/stream"
)

type fakeFetcher struct {
	gate chan struct{} // when set, Fetch blocks until the gate closes
	msgs []domain.RawMessage
	err  error
}

func (f *fakeFetcher) Fetch(ctx context.Context, _ domain.Credentials, _ domain.DateRange) ([]domain.RawMessage, error) {
	if f.gate != nil {
		<-f.gate
	}
	return f.msgs, f.err
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []domain.Notification
	err  error
}

func (n *fakeNotifier) Send(_ context.Context, note domain.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, note)
	return n.err
}

func (n *fakeNotifier) all() []domain.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]domain.Notification(nil), n.sent...)
}

type fakeSerializer struct {
	rows []domain.ReportRow
	err  error
}

func (s *fakeSerializer) Serialize(_ context.Context, rows []domain.ReportRow) (string, []byte, error) {
	s.rows = rows
	if s.err != nil {
		return "", nil, s.err
	}
	return "consultation_report_test.xlsx", []byte("workbook"), nil
}

func submitInput() domain.SubmitInput {
	return domain.SubmitInput{
		Address:   "prof@uni.ac.kr",
		Password:  "secret",
		StartDate: "2026-03-01",
		EndDate:   "2026-03-31",
	}
}

func conversation() []domain.RawMessage {
	return []domain.RawMessage{
		{
			ID:      "<q1@uni.ac.kr>",
			From:    "student@uni.ac.kr",
			Subject: "상담 요청",
			Date:    time.Date(2026, 3, 10, 11, 0, 0, 0, time.UTC),
			Body:    "교수님 안녕하세요 저는 김민준입니다 학번은 20231234 입니다",
		},
		{
			ID:        "<a1@uni.ac.kr>",
			From:      "Kim Prof <prof@uni.ac.kr>",
			Date:      time.Date(2026, 3, 10, 14, 23, 0, 0, time.UTC),
			Body:      "네 금요일에 연구실로 오세요",
			InReplyTo: "<q1@uni.ac.kr>",
		},
	}
}

// waitState polls until the job reaches want or the deadline passes
func waitState(t *testing.T, s *Service, id string, want domain.JobState) domain.JobSnapshot {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		snap, err := s.Status(context.Background(), id)
		if err != nil {
			t.Fatalf("status: %v", err)
		}
		if snap.State == want {
			return snap
		}
		if snap.State.Terminal() {
			t.Fatalf("job ended in %s (error %q), want %s", snap.State, snap.Error, want)
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job never reached %s", want)
	return domain.JobSnapshot{}
}

func TestJobRunsToCompletion(t *testing.T) {
	notif := &fakeNotifier{}
	ser := &fakeSerializer{}
	s := New(&fakeFetcher{msgs: conversation()}, notif, ser, Config{})

	id, err := s.Submit(context.Background(), submitInput())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if id == "" {
		t.Fatalf("submit returned empty id")
	}

	snap := waitState(t, s, id, domain.JobCompleted)
	if snap.TotalCount != 2 || snap.CurrentIndex != 2 {
		t.Fatalf("progress counters: %+v", snap)
	}
	if snap.DroppedCount != 0 || snap.ResultCount != 1 {
		t.Fatalf("counts: %+v", snap)
	}
	if snap.CompletedAt == nil {
		t.Fatalf("completed job missing completion timestamp")
	}

	if len(ser.rows) != 1 {
		t.Fatalf("serialized rows: got %d want 1", len(ser.rows))
	}
	row := ser.rows[0]
	if row.StudentID != "20231234" || row.StudentName != "김민준" {
		t.Fatalf("row identity: %+v", row)
	}
	if row.StartTime != "14:20" || row.EndTime != "14:50" {
		t.Fatalf("row slot: %+v", row)
	}

	name, data, err := s.Report(context.Background(), id)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if name != "consultation_report_test.xlsx" || string(data) != "workbook" {
		t.Fatalf("artifact: %q %q", name, data)
	}

	sent := notif.all()
	if len(sent) != 2 || sent[0].Kind != domain.NotifyStart || sent[1].Kind != domain.NotifyCompletion {
		t.Fatalf("notifications: %+v", sent)
	}
	if sent[1].RowCount != 1 || sent[1].Err != "" {
		t.Fatalf("completion notice: %+v", sent[1])
	}
}

func TestPatternLengthZeroDisablesStudentIDStage(t *testing.T) {
	// keyword-passing conversation with no digit run anywhere
	msgs := []domain.RawMessage{
		{
			ID:      "<q2@uni.ac.kr>",
			From:    "student@uni.ac.kr",
			Subject: "상담 요청",
			Date:    time.Date(2026, 3, 12, 10, 0, 0, 0, time.UTC),
			Body:    "교수님 안녕하세요 저는 박서연입니다 학번이 기억나지 않습니다",
		},
		{
			ID:        "<a2@uni.ac.kr>",
			From:      "prof@uni.ac.kr",
			Date:      time.Date(2026, 3, 12, 15, 11, 0, 0, time.UTC),
			Body:      "괜찮습니다 수요일에 오세요",
			InReplyTo: "<q2@uni.ac.kr>",
		},
	}
	ser := &fakeSerializer{}
	s := New(&fakeFetcher{msgs: msgs}, nil, ser, Config{})

	in := submitInput()
	zero := 0
	in.PatternLength = &zero

	id, err := s.Submit(context.Background(), in)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	snap := waitState(t, s, id, domain.JobCompleted)
	if snap.ResultCount != 1 {
		t.Fatalf("rows: got %d want 1 with the student-id stage disabled", snap.ResultCount)
	}
	if len(ser.rows) != 1 || ser.rows[0].StudentID != "" {
		t.Fatalf("rows: %+v", ser.rows)
	}
	if ser.rows[0].StudentName != "박서연" {
		t.Fatalf("name: %+v", ser.rows[0])
	}
}

func TestSubmitRejectsBadRange(t *testing.T) {
	s := New(&fakeFetcher{}, nil, &fakeSerializer{}, Config{})

	in := submitInput()
	in.StartDate = "03/01/2026"
	if _, err := s.Submit(context.Background(), in); !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("malformed start date: got %v", err)
	}

	in = submitInput()
	in.EndDate = "2026-02-01"
	if _, err := s.Submit(context.Background(), in); !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("inverted range: got %v", err)
	}
}

func TestJobFailsOnAuthRejection(t *testing.T) {
	notif := &fakeNotifier{}
	s := New(&fakeFetcher{err: errors.New("NO [AUTHENTICATIONFAILED] invalid credentials")}, notif, &fakeSerializer{}, Config{})

	id, err := s.Submit(context.Background(), submitInput())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	var snap domain.JobSnapshot
	for time.Now().Before(deadline) {
		snap, _ = s.Status(context.Background(), id)
		if snap.State.Terminal() {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if snap.State != domain.JobFailed || snap.Error == "" {
		t.Fatalf("snapshot: %+v", snap)
	}

	if _, _, err := s.Report(context.Background(), id); !perr.IsCode(err, perr.ErrorCodeConflict) {
		t.Fatalf("report on failed job: got %v", err)
	}

	sent := notif.all()
	if len(sent) != 2 || sent[1].Err == "" {
		t.Fatalf("failure notice: %+v", sent)
	}
}

func TestUnknownJobIsNotFound(t *testing.T) {
	s := New(&fakeFetcher{}, nil, &fakeSerializer{}, Config{})

	if _, err := s.Status(context.Background(), "nope"); !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("status: got %v", err)
	}
	if _, _, err := s.Subscribe(context.Background(), "nope"); !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("subscribe: got %v", err)
	}
	if _, _, err := s.Report(context.Background(), "nope"); !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("report: got %v", err)
	}
}

func TestListNewestFirst(t *testing.T) {
	gate := make(chan struct{})
	s := New(&fakeFetcher{gate: gate, msgs: conversation()}, nil, &fakeSerializer{}, Config{})

	first, _ := s.Submit(context.Background(), submitInput())
	second, _ := s.Submit(context.Background(), submitInput())

	got := s.List(context.Background())
	if len(got) != 2 {
		t.Fatalf("list: got %d jobs", len(got))
	}
	if got[0].ID != second || got[1].ID != first {
		t.Fatalf("order: got %s then %s", got[0].ID, got[1].ID)
	}

	close(gate)
	waitState(t, s, first, domain.JobCompleted)
	waitState(t, s, second, domain.JobCompleted)
}

func TestSubscribeStreamsProgressThenCloses(t *testing.T) {
	gate := make(chan struct{})
	s := New(&fakeFetcher{gate: gate, msgs: conversation()}, nil, &fakeSerializer{}, Config{})

	id, err := s.Submit(context.Background(), submitInput())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	ch, cancel, err := s.Subscribe(context.Background(), id)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()
	close(gate)

	var progress []stream.Event
	deadline := time.After(3 * time.Second)
	for {
		select {
		case e, ok := <-ch:
			if !ok {
				goto done
			}
			if e.Progress() {
				progress = append(progress, e)
			}
		case <-deadline:
			t.Fatalf("stream never closed")
		}
	}
done:
	if len(progress) != 3 {
		t.Fatalf("progress events: got %+v", progress)
	}
	if progress[0] != stream.Total(2) || progress[1] != stream.Current(1, 2) || progress[2] != stream.Current(2, 2) {
		t.Fatalf("sequence: %+v", progress)
	}

	// terminal job: a fresh subscription is already closed
	ch2, cancel2, err := s.Subscribe(context.Background(), id)
	if err != nil {
		t.Fatalf("subscribe after close: %v", err)
	}
	defer cancel2()
	if _, ok := <-ch2; ok {
		t.Fatalf("subscription on terminal job must be closed")
	}
}

func TestPoolBoundQueuesSubmissions(t *testing.T) {
	gate := make(chan struct{})
	s := New(&fakeFetcher{gate: gate, msgs: conversation()}, nil, &fakeSerializer{}, Config{MaxWorkers: 1})

	first, _ := s.Submit(context.Background(), submitInput())
	waitState(t, s, first, domain.JobProcessing)

	second, _ := s.Submit(context.Background(), submitInput())
	time.Sleep(20 * time.Millisecond)
	if snap, _ := s.Status(context.Background(), second); snap.State != domain.JobPending {
		t.Fatalf("second job should queue as pending, got %s", snap.State)
	}

	close(gate)
	waitState(t, s, first, domain.JobCompleted)
	waitState(t, s, second, domain.JobCompleted)
}

func TestTerminalSnapshotIsImmutable(t *testing.T) {
	s := New(&fakeFetcher{msgs: conversation()}, nil, &fakeSerializer{}, Config{})

	id, _ := s.Submit(context.Background(), submitInput())
	snap := waitState(t, s, id, domain.JobCompleted)

	s.mu.RLock()
	j := s.jobs[id]
	s.mu.RUnlock()
	s.update(j, func(j *job) { j.snap.State = domain.JobFailed })

	after, _ := s.Status(context.Background(), id)
	if after != snap {
		t.Fatalf("terminal snapshot changed: %+v -> %+v", snap, after)
	}
}
