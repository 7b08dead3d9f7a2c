package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"disaster-bot/internal/geo"
	"disaster-bot/internal/metrics"
	"disaster-bot/internal/models"
)

const (
	ReportTriageQueue = "queue:report-triage"

	sosAlertSource   = "Crowdsourced SOS"
	sosAlertLifetime = 6 * time.Hour
	maxAlertMessage  = 500
	maxRetries       = 3
	redisErrorPause  = 2 * time.Second
)

// TriageJob is the queue payload for one submitted report.
type TriageJob struct {
	ReportID   uuid.UUID `json:"report_id"`
	RetryCount int       `json:"retry_count"`
}

type reportGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Report, error)
}

type activeDisasterLister interface {
	ListActive(ctx context.Context) ([]*models.Disaster, error)
}

type alertCreator interface {
	Create(ctx context.Context, a *models.Alert) error
}

type alertPublisher interface {
	Publish(ctx context.Context, alert *models.Alert) error
}

// Queue enqueues reports for triage.
type Queue struct {
	redis *redis.Client
}

func NewQueue(redisClient *redis.Client) *Queue {
	return &Queue{redis: redisClient}
}

func (q *Queue) EnqueueReport(ctx context.Context, reportID uuid.UUID) error {
	data, err := json.Marshal(TriageJob{ReportID: reportID})
	if err != nil {
		return err
	}
	return q.redis.RPush(ctx, ReportTriageQueue, data).Err()
}

type Pool struct {
	redis       *redis.Client
	reports     reportGetter
	disasters   activeDisasterLister
	alerts      alertCreator
	publisher   alertPublisher
	workerCount int
	now         func() time.Time
	retryDelay  func(attempt int) time.Duration
	errorPause  time.Duration
	requeue     func(ctx context.Context, data []byte) error

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewPool(
	redisClient *redis.Client,
	reports reportGetter,
	disasters activeDisasterLister,
	alerts alertCreator,
	publisher alertPublisher,
	workerCount int,
) *Pool {
	if workerCount < 1 {
		workerCount = 1
	}
	p := &Pool{
		redis:       redisClient,
		reports:     reports,
		disasters:   disasters,
		alerts:      alerts,
		publisher:   publisher,
		workerCount: workerCount,
		now:         time.Now,
		retryDelay:  exponentialBackoff,
		errorPause:  redisErrorPause,
	}
	p.requeue = func(ctx context.Context, data []byte) error {
		return p.redis.RPush(ctx, ReportTriageQueue, data).Err()
	}
	return p
}

func exponentialBackoff(attempt int) time.Duration {
	return time.Duration(1<<uint(attempt)) * time.Second
}

func (p *Pool) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	p.ctx = ctx
	p.cancel = cancel

	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}

	log.Printf("[Worker] Started %d triage workers", p.workerCount)
}

// Stop cancels pending BLPOPs and waits for in-flight jobs.
func (p *Pool) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
}

func (p *Pool) worker(ctx context.Context, id int) {
	defer p.wg.Done()

	for {
		if ctx.Err() != nil {
			log.Printf("[Worker] %d shutting down", id)
			return
		}

		// BLPOP with 5s timeout so shutdown is noticed promptly
		result, err := p.redis.BLPop(ctx, 5*time.Second, ReportTriageQueue).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || ctx.Err() != nil {
				continue
			}
			log.Printf("[Worker] %d: queue read failed: %v", id, err)
			select {
			case <-ctx.Done():
			case <-time.After(p.errorPause):
			}
			continue
		}
		if len(result) < 2 {
			continue
		}

		var job TriageJob
		if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
			log.Printf("[Worker] %d: failed to parse job: %v", id, err)
			continue
		}

		jobCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := p.Process(jobCtx, job.ReportID); err != nil {
			p.handleFailure(job, err)
		}
		cancel()
	}
}

// Process triages one report. Non-SOS reports are acknowledged without action.
func (p *Pool) Process(ctx context.Context, reportID uuid.UUID) error {
	report, err := p.reports.GetByID(ctx, reportID)
	if err != nil {
		return fmt.Errorf("failed to get report: %w", err)
	}
	if report.Type != models.ReportTypeSOS {
		metrics.ReportsTriaged.WithLabelValues("skipped").Inc()
		return nil
	}

	disasters, err := p.disasters.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to list active disasters: %w", err)
	}

	alert := BuildSOSAlert(report, disasters, p.now())
	if err := p.alerts.Create(ctx, alert); err != nil {
		return fmt.Errorf("failed to create SOS alert: %w", err)
	}

	if err := p.publisher.Publish(ctx, alert); err != nil {
		// The alert is stored; REST clients still see it.
		log.Printf("[Worker] failed to publish SOS alert %s: %v", alert.ID, err)
	}

	metrics.ReportsTriaged.WithLabelValues("escalated").Inc()
	log.Printf("[Worker] Escalated SOS report %s to alert %s", report.ID, alert.ID)
	return nil
}

func (p *Pool) handleFailure(job TriageJob, err error) {
	job.RetryCount++
	if job.RetryCount >= maxRetries {
		metrics.ReportsTriaged.WithLabelValues("failed").Inc()
		log.Printf("[Worker] Report %s failed permanently: %v", job.ReportID, err)
		return
	}

	log.Printf("[Worker] Report %s failed (attempt %d): %v, retrying", job.ReportID, job.RetryCount, err)
	data, err := json.Marshal(job)
	if err != nil {
		log.Printf("[Worker] Report %s: failed to encode retry: %v", job.ReportID, err)
		return
	}
	poolCtx := p.ctx
	if poolCtx == nil {
		poolCtx = context.Background()
	}
	time.AfterFunc(p.retryDelay(job.RetryCount), func() {
		if poolCtx.Err() != nil {
			log.Printf("[Worker] Report %s: pool stopped, dropping retry", job.ReportID)
			return
		}
		if err := p.requeue(poolCtx, data); err != nil {
			log.Printf("[Worker] Report %s: failed to requeue: %v", job.ReportID, err)
		}
	})
}

// BuildSOSAlert turns an SOS report into a critical alert linked to the
// nearest active disaster whose affected area covers the report. It returns
// nil for any other report type.
func BuildSOSAlert(report *models.Report, disasters []*models.Disaster, now time.Time) *models.Alert {
	if report.Type != models.ReportTypeSOS {
		return nil
	}

	lat, lng := report.Location.Lat(), report.Location.Lng()

	var linked *uuid.UUID
	best := -1.0
	for _, d := range disasters {
		if d.Status != models.DisasterStatusActive {
			continue
		}
		dist := geo.Distance(lat, lng, d.Location.Lat(), d.Location.Lng())
		if dist > d.AffectedRadius {
			continue
		}
		if best < 0 || dist < best {
			id := d.ID
			linked = &id
			best = dist
		}
	}

	msg := fmt.Sprintf("SOS from %s: %s", report.ReporterName, report.Description)
	if r := []rune(msg); len(r) > maxAlertMessage {
		msg = string(r[:maxAlertMessage-3]) + "..."
	}

	return &models.Alert{
		ID:         uuid.New(),
		Type:       models.AlertTypeCritical,
		Message:    msg,
		Source:     sosAlertSource,
		DisasterID: linked,
		ExpiresAt:  now.Add(sosAlertLifetime),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}
