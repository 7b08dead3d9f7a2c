package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"disaster-bot/internal/metrics"
	"disaster-bot/internal/models"
)

// LiveAlertsChannel is the Redis pub/sub channel carrying new alerts.
const LiveAlertsChannel = "alerts:live"

// AlertPublisher pushes alerts to every live feed subscriber via Redis.
type AlertPublisher struct {
	redis *redis.Client
}

func NewAlertPublisher(redisClient *redis.Client) *AlertPublisher {
	return &AlertPublisher{redis: redisClient}
}

func EncodeLiveAlert(alert *models.Alert) ([]byte, error) {
	return json.Marshal(models.LiveEvent{Type: "alert", Payload: alert})
}

func (p *AlertPublisher) Publish(ctx context.Context, alert *models.Alert) error {
	data, err := EncodeLiveAlert(alert)
	if err != nil {
		return fmt.Errorf("encode alert: %w", err)
	}
	if err := p.redis.Publish(ctx, LiveAlertsChannel, data).Err(); err != nil {
		return fmt.Errorf("publish alert: %w", err)
	}
	metrics.AlertsPublished.Inc()
	return nil
}
