package metrics

import (
	"context"
	"testing"

	"github.com/PancyStudios/PancyModGo/pkg/moderation"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func warnSamples(t *testing.T) uint64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, WarningPoints.Write(&m))
	return m.GetHistogram().GetSampleCount()
}

func TestRecorderCountsActions(t *testing.T) {
	manual := ActionsTotal.WithLabelValues("kick", "false")
	auto := ActionsTotal.WithLabelValues("kick", "true")
	beforeManual := testutil.ToFloat64(manual)
	beforeAuto := testutil.ToFloat64(auto)

	var r Recorder
	r.Record(context.Background(), moderation.Entry{Action: moderation.ActionKick})
	r.Record(context.Background(), moderation.Entry{Action: moderation.ActionKick, Auto: true})
	r.Record(context.Background(), moderation.Entry{Action: moderation.ActionKick, Auto: true})

	assert.Equal(t, beforeManual+1, testutil.ToFloat64(manual))
	assert.Equal(t, beforeAuto+2, testutil.ToFloat64(auto))
}

func TestRecorderObservesWarnPoints(t *testing.T) {
	before := warnSamples(t)
	points := 4

	var r Recorder
	r.Record(context.Background(), moderation.Entry{Action: moderation.ActionWarn, Points: &points})
	r.Record(context.Background(), moderation.Entry{Action: moderation.ActionWarn, Points: &points, Auto: true})
	r.Record(context.Background(), moderation.Entry{Action: moderation.ActionWarn})

	assert.Equal(t, before+1, warnSamples(t))
}

func TestCollect(t *testing.T) {
	collect(StatsSource{
		DatabaseConnected: func() bool { return true },
		PendingWrites:     func() int { return 3 },
		SetupSessions:     func() int { return 2 },
	})

	assert.Equal(t, float64(1), testutil.ToFloat64(DatabaseConnected))
	assert.Equal(t, float64(3), testutil.ToFloat64(PendingWrites))
	assert.Equal(t, float64(2), testutil.ToFloat64(SetupSessions))

	collect(StatsSource{DatabaseConnected: func() bool { return false }})
	assert.Equal(t, float64(0), testutil.ToFloat64(DatabaseConnected))
	assert.Equal(t, float64(3), testutil.ToFloat64(PendingWrites))
}
