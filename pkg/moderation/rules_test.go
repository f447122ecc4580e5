package moderation

import (
	"errors"
	"testing"

	"github.com/PancyStudios/PancyModGo/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRules() *RuleSet {
	return NewRuleSet([]models.PunishmentRule{
		{Threshold: 20, Action: models.ActionBan},
		{Threshold: 5, Action: models.ActionMute, Duration: 3600},
		{Threshold: 10, Action: models.ActionKick},
	})
}

func TestRuleSetEvaluate(t *testing.T) {
	rs := sampleRules()

	tests := []struct {
		points int
		want   int
		found  bool
	}{
		{0, 0, false},
		{4, 0, false},
		{5, 5, true},
		{9, 5, true},
		{10, 10, true},
		{12, 10, true},
		{20, 20, true},
		{1000, 20, true},
	}

	for _, tt := range tests {
		rule, ok := rs.Evaluate(tt.points)
		if ok != tt.found {
			t.Fatalf("Evaluate(%d) found = %v, want %v", tt.points, ok, tt.found)
		}
		if ok && rule.Threshold != tt.want {
			t.Errorf("Evaluate(%d) threshold = %d, want %d", tt.points, rule.Threshold, tt.want)
		}
	}
}

func TestRuleSetEvaluateReturnsKickAtTwelve(t *testing.T) {
	rule, ok := sampleRules().Evaluate(12)
	require.True(t, ok)
	assert.Equal(t, models.ActionKick, rule.Action)
}

func TestRuleSetUpsertReplacesByThreshold(t *testing.T) {
	rs := sampleRules()
	rs.Upsert(models.PunishmentRule{Threshold: 10, Action: models.ActionBan})

	assert.Equal(t, 3, rs.Len())
	rule, ok := rs.Get(10)
	require.True(t, ok)
	assert.Equal(t, models.ActionBan, rule.Action)
}

func TestRuleSetRemove(t *testing.T) {
	rs := sampleRules()

	assert.True(t, rs.Remove(10))
	assert.False(t, rs.Remove(10))
	assert.Equal(t, 2, rs.Len())

	rule, ok := rs.Evaluate(12)
	require.True(t, ok)
	assert.Equal(t, 5, rule.Threshold)
}

func TestRuleSetAllAscendingAndRestartable(t *testing.T) {
	rs := sampleRules()

	for range 2 {
		var got []int
		for r := range rs.All() {
			got = append(got, r.Threshold)
		}
		assert.Equal(t, []int{5, 10, 20}, got)
	}

	var first []int
	for r := range rs.All() {
		first = append(first, r.Threshold)
		break
	}
	assert.Equal(t, []int{5}, first)
}

func TestRuleSetEmpty(t *testing.T) {
	rs := NewRuleSet(nil)
	_, ok := rs.Evaluate(100)
	assert.False(t, ok)
	assert.Empty(t, rs.Rules())
}

func TestParseAction(t *testing.T) {
	for _, name := range []string{"mute", "KICK", " ban ", "Warn"} {
		_, err := ParseAction(name)
		assert.NoError(t, err, name)
	}

	_, err := ParseAction("timeout")
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "action", verr.Field)
}
