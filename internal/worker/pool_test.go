package worker

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"disaster-bot/internal/models"
)

type stubReports struct {
	report *models.Report
	err    error
}

func (s *stubReports) GetByID(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	return s.report, s.err
}

type stubDisasters struct {
	disasters []*models.Disaster
}

func (s *stubDisasters) ListActive(ctx context.Context) ([]*models.Disaster, error) {
	return s.disasters, nil
}

type stubAlerts struct {
	created []*models.Alert
}

func (s *stubAlerts) Create(ctx context.Context, a *models.Alert) error {
	s.created = append(s.created, a)
	return nil
}

type stubPublisher struct {
	published []*models.Alert
	err       error
}

func (s *stubPublisher) Publish(ctx context.Context, a *models.Alert) error {
	s.published = append(s.published, a)
	return s.err
}

var triageNow = time.Date(2026, 10, 15, 8, 0, 0, 0, time.UTC)

func sosReport() *models.Report {
	return &models.Report{
		ID:           uuid.New(),
		ReporterName: "Anita",
		Type:         models.ReportTypeSOS,
		Description:  "Family of four stranded on roof",
		Location:     models.NewPoint(91.7362, 26.1445),
		Status:       models.ReportStatusPending,
	}
}

func disasterAt(lng, lat, radius float64, status string) *models.Disaster {
	return &models.Disaster{
		ID:             uuid.New(),
		Type:           "Flood",
		Location:       models.NewPoint(lng, lat),
		AffectedRadius: radius,
		Status:         status,
	}
}

func TestBuildSOSAlert_LinksNearestCoveringDisaster(t *testing.T) {
	far := disasterAt(91.7362, 26.1645, 5000, models.DisasterStatusActive)   // ~2.2km
	near := disasterAt(91.7362, 26.1545, 5000, models.DisasterStatusActive)  // ~1.1km
	resolved := disasterAt(91.7362, 26.1445, 5000, models.DisasterStatusResolved)
	small := disasterAt(91.7362, 26.1455, 50, models.DisasterStatusActive) // ~110m, radius too small

	alert := BuildSOSAlert(sosReport(), []*models.Disaster{far, resolved, small, near}, triageNow)
	if alert == nil {
		t.Fatal("expected alert for SOS report")
	}
	if alert.DisasterID == nil || *alert.DisasterID != near.ID {
		t.Fatalf("expected link to nearest covering disaster %s, got %v", near.ID, alert.DisasterID)
	}
	if alert.Type != models.AlertTypeCritical {
		t.Errorf("expected critical alert, got %s", alert.Type)
	}
	if alert.Source != "Crowdsourced SOS" {
		t.Errorf("unexpected source %q", alert.Source)
	}
	if !alert.ExpiresAt.Equal(triageNow.Add(6 * time.Hour)) {
		t.Errorf("expected 6h expiry, got %s", alert.ExpiresAt)
	}
	if alert.Message != "SOS from Anita: Family of four stranded on roof" {
		t.Errorf("unexpected message %q", alert.Message)
	}
}

func TestBuildSOSAlert_NoCoveringDisaster(t *testing.T) {
	remote := disasterAt(72.8777, 19.076, 10000, models.DisasterStatusActive)

	alert := BuildSOSAlert(sosReport(), []*models.Disaster{remote}, triageNow)
	if alert == nil {
		t.Fatal("expected alert for SOS report")
	}
	if alert.DisasterID != nil {
		t.Fatalf("expected unlinked alert, got %s", *alert.DisasterID)
	}
}

func TestBuildSOSAlert_TruncatesMessage(t *testing.T) {
	r := sosReport()
	r.Description = strings.Repeat("é", 600)

	alert := BuildSOSAlert(r, nil, triageNow)
	if n := utf8.RuneCountInString(alert.Message); n != 500 {
		t.Fatalf("expected 500 runes, got %d", n)
	}
	if !strings.HasSuffix(alert.Message, "...") {
		t.Errorf("expected ellipsis, got %q", alert.Message[len(alert.Message)-5:])
	}
}

func TestBuildSOSAlert_IgnoresOtherTypes(t *testing.T) {
	r := sosReport()
	r.Type = models.ReportTypeDamage
	if alert := BuildSOSAlert(r, nil, triageNow); alert != nil {
		t.Fatalf("expected nil alert for damage report, got %+v", alert)
	}
}

func newTestPool(reports *stubReports, alerts *stubAlerts, pub *stubPublisher) *Pool {
	p := NewPool(nil, reports, &stubDisasters{}, alerts, pub, 1)
	p.now = func() time.Time { return triageNow }
	return p
}

func TestProcess_EscalatesSOS(t *testing.T) {
	alerts := &stubAlerts{}
	pub := &stubPublisher{}
	p := newTestPool(&stubReports{report: sosReport()}, alerts, pub)

	if err := p.Process(context.Background(), uuid.New()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(alerts.created) != 1 || len(pub.published) != 1 {
		t.Fatalf("expected one stored and published alert, got %d/%d", len(alerts.created), len(pub.published))
	}
	if alerts.created[0] != pub.published[0] {
		t.Error("expected the stored alert to be published")
	}
}

func TestProcess_PublishFailureIsNotFatal(t *testing.T) {
	alerts := &stubAlerts{}
	p := newTestPool(&stubReports{report: sosReport()}, alerts, &stubPublisher{err: errors.New("redis down")})

	if err := p.Process(context.Background(), uuid.New()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(alerts.created) != 1 {
		t.Fatalf("expected alert to be stored, got %d", len(alerts.created))
	}
}

func TestProcess_SkipsNonSOS(t *testing.T) {
	r := sosReport()
	r.Type = models.ReportTypeResourceRequest
	alerts := &stubAlerts{}
	p := newTestPool(&stubReports{report: r}, alerts, &stubPublisher{})

	if err := p.Process(context.Background(), uuid.New()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(alerts.created) != 0 {
		t.Fatalf("expected no alerts, got %d", len(alerts.created))
	}
}

func TestProcess_ReportLookupError(t *testing.T) {
	p := newTestPool(&stubReports{err: errors.New("not found")}, &stubAlerts{}, &stubPublisher{})

	if err := p.Process(context.Background(), uuid.New()); err == nil {
		t.Fatal("expected error when report lookup fails")
	}
}

func captureRequeue(p *Pool) chan TriageJob {
	requeued := make(chan TriageJob, 4)
	p.requeue = func(ctx context.Context, data []byte) error {
		var job TriageJob
		if err := json.Unmarshal(data, &job); err != nil {
			return err
		}
		requeued <- job
		return nil
	}
	return requeued
}

func TestHandleFailure_RequeuesWithRetryCount(t *testing.T) {
	p := newTestPool(&stubReports{}, &stubAlerts{}, &stubPublisher{})
	p.ctx = context.Background()
	p.retryDelay = func(int) time.Duration { return 0 }
	requeued := captureRequeue(p)

	id := uuid.New()
	p.handleFailure(TriageJob{ReportID: id}, errors.New("db down"))

	select {
	case job := <-requeued:
		if job.ReportID != id || job.RetryCount != 1 {
			t.Fatalf("unexpected retry job %+v", job)
		}
	case <-time.After(time.Second):
		t.Fatal("expected job to be requeued")
	}
}

func TestHandleFailure_GivesUpAfterMaxRetries(t *testing.T) {
	p := newTestPool(&stubReports{}, &stubAlerts{}, &stubPublisher{})
	p.ctx = context.Background()
	p.retryDelay = func(int) time.Duration { return 0 }
	requeued := captureRequeue(p)

	p.handleFailure(TriageJob{ReportID: uuid.New(), RetryCount: maxRetries - 1}, errors.New("db down"))

	select {
	case job := <-requeued:
		t.Fatalf("job should not be requeued after %d attempts: %+v", maxRetries, job)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestHandleFailure_DropsRetryAfterStop(t *testing.T) {
	p := newTestPool(&stubReports{}, &stubAlerts{}, &stubPublisher{})
	ctx, cancel := context.WithCancel(context.Background())
	p.ctx = ctx
	p.retryDelay = func(int) time.Duration { return 50 * time.Millisecond }
	requeued := captureRequeue(p)

	p.handleFailure(TriageJob{ReportID: uuid.New()}, errors.New("db down"))
	cancel()

	select {
	case job := <-requeued:
		t.Fatalf("job requeued after shutdown: %+v", job)
	case <-time.After(200 * time.Millisecond):
	}
}

type countingHook struct {
	calls atomic.Int32
}

func (h *countingHook) DialHook(next redis.DialHook) redis.DialHook { return next }

func (h *countingHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		h.calls.Add(1)
		return next(ctx, cmd)
	}
}

func (h *countingHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func TestWorker_PausesWhenQueueUnavailable(t *testing.T) {
	// Every dial fails, so each BLPOP returns an error immediately.
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		MaxRetries:  -1,
		DialTimeout: 100 * time.Millisecond,
		Dialer: func(ctx context.Context, network, addr string) (net.Conn, error) {
			return nil, errors.New("connection refused")
		},
	})
	defer client.Close()
	hook := &countingHook{}
	client.AddHook(hook)

	p := NewPool(client, &stubReports{}, &stubDisasters{}, &stubAlerts{}, &stubPublisher{}, 1)
	p.errorPause = time.Hour
	p.Start()

	deadline := time.Now().Add(2 * time.Second)
	for hook.calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	time.Sleep(200 * time.Millisecond)

	if got := hook.calls.Load(); got != 1 {
		t.Errorf("expected a single BLPOP before pausing, got %d", got)
	}

	stopped := make(chan struct{})
	go func() {
		p.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not interrupt the error pause")
	}
}
