package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"disaster-bot/internal/metrics"
)

type expiredAlertDeleter interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// AlertSweeper periodically deletes expired alerts.
type AlertSweeper struct {
	alerts   expiredAlertDeleter
	cron     *cron.Cron
	schedule string
	now      func() time.Time
}

func NewAlertSweeper(alerts expiredAlertDeleter, schedule string) *AlertSweeper {
	return &AlertSweeper{
		alerts:   alerts,
		cron:     cron.New(),
		schedule: schedule,
		now:      time.Now,
	}
}

func (s *AlertSweeper) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, func() { s.Sweep(context.Background()) }); err != nil {
		return fmt.Errorf("invalid alert sweep schedule %q: %w", s.schedule, err)
	}
	s.cron.Start()
	log.Printf("[Sweeper] Alert sweeper scheduled (%s)", s.schedule)
	return nil
}

// Stop waits for a running sweep to finish.
func (s *AlertSweeper) Stop() {
	<-s.cron.Stop().Done()
}

func (s *AlertSweeper) Sweep(ctx context.Context) int64 {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	n, err := s.alerts.DeleteExpired(ctx, s.now())
	if err != nil {
		log.Printf("[Sweeper] failed to delete expired alerts: %v", err)
		return 0
	}
	if n > 0 {
		metrics.AlertsExpired.Add(float64(n))
		log.Printf("[Sweeper] Removed %d expired alerts", n)
	}
	return n
}
