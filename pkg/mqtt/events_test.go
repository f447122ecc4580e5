package mqtt

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/moderation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	topic   string
	payload interface{}
}

type fakePublisher struct {
	sent []published
	err  error
}

func (f *fakePublisher) Publish(topic string, payload interface{}) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, published{topic: topic, payload: payload})
	return nil
}

type noopExecutor struct{}

func (noopExecutor) Mute(context.Context, moderation.MuteAction) error     { return nil }
func (noopExecutor) Unmute(context.Context, moderation.UnmuteAction) error { return nil }
func (noopExecutor) Kick(context.Context, string, string, string) error    { return nil }
func (noopExecutor) Ban(context.Context, string, string, string) error     { return nil }
func (noopExecutor) Unban(context.Context, string, string, string) error   { return nil }

func TestEventTopic(t *testing.T) {
	assert.Equal(t, "pancy/moderation/123/warn", EventTopic("123", moderation.ActionWarn))
}

func TestEventPublisherRecord(t *testing.T) {
	pub := &fakePublisher{}
	p := NewEventPublisher(pub)
	p.ids = func() string { return "evt-1" }

	p.Record(context.Background(), moderation.Entry{GuildID: "g", Action: moderation.ActionBan, UserID: "u"})

	require.Len(t, pub.sent, 1)
	assert.Equal(t, "pancy/moderation/g/ban", pub.sent[0].topic)
	evt, ok := pub.sent[0].payload.(Event)
	require.True(t, ok)
	assert.Equal(t, "evt-1", evt.ID)
	assert.Equal(t, "u", evt.UserID)
}

func TestEventPublisherSwallowsErrors(t *testing.T) {
	p := NewEventPublisher(&fakePublisher{err: errors.New("offline")})
	assert.NotPanics(t, func() {
		p.Record(context.Background(), moderation.Entry{GuildID: "g", Action: moderation.ActionWarn})
	})
}

func TestEngineFeedsPublisher(t *testing.T) {
	pub := &fakePublisher{}
	engine := moderation.NewEngine(moderation.NewMemoryStore(), noopExecutor{},
		moderation.WithRecorder(NewEventPublisher(pub)))

	_, err := engine.Warn(context.Background(), moderation.WarnRequest{GuildID: "g", UserID: "u", ModeratorID: "m", Reason: "spam"})
	require.NoError(t, err)

	require.Len(t, pub.sent, 1)
	assert.Equal(t, "pancy/moderation/g/warn", pub.sent[0].topic)
}

func TestModerationHandlersWithEngine(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)
	engine := moderation.NewEngine(moderation.NewMemoryStore(), noopExecutor{}, moderation.WithClock(func() time.Time { return now }))

	three := 3
	_, err := engine.Warn(ctx, moderation.WarnRequest{GuildID: "g", UserID: "u", Reason: "spam", Points: &three})
	require.NoError(t, err)
	_, err = engine.SetPunishment(ctx, "g", 5, "mute", "1h")
	require.NoError(t, err)

	handlers := moderationHandlers(engine)

	points, err := handlers[TopicPoints](map[string]interface{}{"guildId": "g", "userId": "u"})
	require.NoError(t, err)
	assert.Equal(t, PointsReply{GuildID: "g", UserID: "u", Points: 3}, points)

	warnings, err := handlers[TopicWarnings](map[string]interface{}{"guildId": "g", "userId": "u"})
	require.NoError(t, err)
	reply := warnings.(WarningsReply)
	assert.Len(t, reply.Active, 1)
	assert.Empty(t, reply.Expired)

	rules, err := handlers[TopicRules](map[string]interface{}{"guildId": "g"})
	require.NoError(t, err)
	assert.Len(t, rules, 1)

	_, err = handlers[TopicPoints](map[string]interface{}{"guildId": "g"})
	var verr *moderation.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "userId", verr.Field)
}
