package handlers

import (
	"context"
	"fmt"
	"log"
	"math"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"disaster-bot/internal/models"
)

type activeDisasterCounter interface {
	CountActive(ctx context.Context) (int, error)
}

type shelterStatser interface {
	ShelterStats(ctx context.Context) (models.ShelterStats, error)
}

type activeAlertCounter interface {
	CountActive(ctx context.Context, now time.Time) (int, error)
}

type StatsHandler struct {
	disasters activeDisasterCounter
	shelters  shelterStatser
	alerts    activeAlertCounter
	now       func() time.Time
}

func NewStatsHandler(disasters activeDisasterCounter, shelters shelterStatser, alerts activeAlertCounter) *StatsHandler {
	return &StatsHandler{
		disasters: disasters,
		shelters:  shelters,
		alerts:    alerts,
		now:       time.Now,
	}
}

// Summary handles GET /api/v1/stats/summary. The three aggregates run
// concurrently.
func (h *StatsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	g, gctx := errgroup.WithContext(r.Context())

	var (
		hazards, alerts int
		shelter         models.ShelterStats
	)

	g.Go(func() (err error) {
		hazards, err = h.disasters.CountActive(gctx)
		return err
	})
	g.Go(func() (err error) {
		shelter, err = h.shelters.ShelterStats(gctx)
		return err
	})
	g.Go(func() (err error) {
		alerts, err = h.alerts.CountActive(gctx, now)
		return err
	})

	if err := g.Wait(); err != nil {
		log.Printf("[Stats] Summary error: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to retrieve stats.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"stats": models.StatsSummary{
			ActiveHazards:    hazards,
			SheltersOpen:     shelter.TotalShelters,
			ShelterOccupancy: occupancyPercent(shelter),
			PeopleAssisted:   shelter.CurrentOccupancy,
			ActiveAlerts:     alerts,
			SystemStatus:     "online",
		},
	})
}

func occupancyPercent(s models.ShelterStats) string {
	pct := 0
	if s.TotalCapacity > 0 {
		pct = int(math.Round(float64(s.CurrentOccupancy) / float64(s.TotalCapacity) * 100))
	}
	return fmt.Sprintf("%d%%", pct)
}
