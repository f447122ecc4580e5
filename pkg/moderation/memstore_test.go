package moderation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemoryStoreCopies(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	warns := WarningList{permanent("a", 1)}
	assert.NoError(t, s.SetWarnings(ctx, "g", "u", warns))
	warns[0].Points = 99

	got, err := s.GetWarnings(ctx, "g", "u")
	assert.NoError(t, err)
	assert.Equal(t, 1, got[0].Points)

	g, err := s.GetGuild(ctx, "missing")
	assert.NoError(t, err)
	assert.Nil(t, g)
}
