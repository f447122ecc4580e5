package moderation

import (
	"context"
	"errors"
	"testing"

	"github.com/PancyStudios/PancyModGo/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetReason(t *testing.T) {
	tests := []struct {
		name      string
		duration  string
		permanent bool
		wantPerm  bool
		wantSecs  int64
	}{
		{"timed", "1h30m", false, false, 5400},
		{"no duration is permanent", "", false, true, 0},
		{"junk duration is permanent", "soon", false, true, 0},
		{"flag wins over duration", "2d", true, true, 172800},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			r, err := h.engine.SetReason(context.Background(), testGuild, "spam", 3, tt.duration, tt.permanent)
			require.NoError(t, err)
			assert.Equal(t, tt.wantPerm, r.Permanent)
			assert.Equal(t, tt.wantSecs, r.Duration)
			assert.Equal(t, 3, r.Points)
		})
	}
}

func TestSetReasonValidation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.engine.SetReason(ctx, testGuild, "  ", 1, "", false)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "name", ve.Field)

	_, err = h.engine.SetReason(ctx, testGuild, "spam", -1, "", false)
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "points", ve.Field)

	reasons, err := h.engine.Reasons(ctx, testGuild)
	require.NoError(t, err)
	assert.Empty(t, reasons)
}

func TestReasonsSortedAndRemovable(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	for _, name := range []string{"toxic", "ads", "spam"} {
		_, err := h.engine.SetReason(ctx, testGuild, name, 1, "", false)
		require.NoError(t, err)
	}

	reasons, err := h.engine.Reasons(ctx, testGuild)
	require.NoError(t, err)
	names := make([]string, 0, len(reasons))
	for _, r := range reasons {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"ads", "spam", "toxic"}, names)

	require.NoError(t, h.engine.RemoveReason(ctx, testGuild, "spam"))
	err = h.engine.RemoveReason(ctx, testGuild, "spam")
	assert.ErrorIs(t, err, ErrReasonNotFound)
	assert.ErrorIs(t, err, ErrExpiredOrNotFound)
}

func TestSetPunishmentReplacesByThreshold(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.engine.SetPunishment(ctx, testGuild, 10, "ban", "")
	require.NoError(t, err)
	_, err = h.engine.SetPunishment(ctx, testGuild, 3, "MUTE", "1h")
	require.NoError(t, err)
	_, err = h.engine.SetPunishment(ctx, testGuild, 10, "kick", "")
	require.NoError(t, err)

	rs, err := h.engine.Punishments(ctx, testGuild)
	require.NoError(t, err)
	assert.Equal(t, []models.PunishmentRule{
		{Threshold: 3, Action: models.ActionMute, Duration: 3600},
		{Threshold: 10, Action: models.ActionKick},
	}, rs.Rules())
}

func TestSetPunishmentRejectsUnknownAction(t *testing.T) {
	h := newHarness(t)

	_, err := h.engine.SetPunishment(context.Background(), testGuild, 5, "explode", "")
	var ve *ValidationError
	require.True(t, errors.As(err, &ve), "error = %v", err)

	_, err = h.engine.SetPunishment(context.Background(), testGuild, -1, "ban", "")
	require.ErrorAs(t, err, &ve)
}

func TestRemovePunishment(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.engine.SetPunishment(ctx, testGuild, 5, "kick", "")
	require.NoError(t, err)

	require.NoError(t, h.engine.RemovePunishment(ctx, testGuild, 5))
	assert.ErrorIs(t, h.engine.RemovePunishment(ctx, testGuild, 5), ErrRuleNotFound)

	rs, err := h.engine.Punishments(ctx, testGuild)
	require.NoError(t, err)
	assert.Equal(t, 0, rs.Len())
}

func TestSettingsDefaultsAreNotPersisted(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	s, err := h.engine.Settings(ctx, testGuild)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultDMTemplate, s.DMTemplate)
	assert.False(t, s.DMNotify)

	stored, err := h.store.GetGuild(ctx, testGuild)
	require.NoError(t, err)
	assert.Nil(t, stored)

	require.NoError(t, h.engine.EnsureGuild(ctx, testGuild))
	stored, err = h.store.GetGuild(ctx, testGuild)
	require.NoError(t, err)
	assert.NotNil(t, stored)
}

func TestUpdateSettingsAbortsOnError(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	boom := errors.New("boom")

	_, err := h.engine.UpdateSettings(ctx, testGuild, func(s *models.GuildSettings) error {
		s.ModLogChannel = "c"
		return boom
	})
	assert.ErrorIs(t, err, boom)

	s, err := h.engine.Settings(ctx, testGuild)
	require.NoError(t, err)
	assert.Empty(t, s.ModLogChannel)
}
