package metrics

import (
	"context"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/logger"
)

// StatsSource provides the current values of the gauges. Nil functions are
// skipped.
type StatsSource struct {
	DatabaseConnected func() bool
	PendingWrites     func() int
	SetupSessions     func() int
	Guilds            func() int
}

// StartCollector refreshes the gauges every interval until ctx is cancelled
func StartCollector(ctx context.Context, src StatsSource, interval time.Duration) {
	collect(src)

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				collect(src)
			}
		}
	}()

	logger.Debug("Recolector de métricas iniciado cada "+interval.String(), "Metrics")
}

func collect(src StatsSource) {
	if src.DatabaseConnected != nil {
		if src.DatabaseConnected() {
			DatabaseConnected.Set(1)
		} else {
			DatabaseConnected.Set(0)
		}
	}
	if src.PendingWrites != nil {
		PendingWrites.Set(float64(src.PendingWrites()))
	}
	if src.SetupSessions != nil {
		SetupSessions.Set(float64(src.SetupSessions()))
	}
	if src.Guilds != nil {
		Guilds.Set(float64(src.Guilds()))
	}
}
