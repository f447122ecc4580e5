package mqtt

import (
	"context"
	"errors"
	"testing"

	"github.com/PancyStudios/PancyModGo/pkg/models"
	"github.com/PancyStudios/PancyModGo/pkg/moderation"
)

type fakeQueries struct {
	points int
	active moderation.WarningList
	rules  []models.PunishmentRule
	err    error
}

func (f *fakeQueries) Points(context.Context, string, string) (int, error) {
	return f.points, f.err
}

func (f *fakeQueries) Warnings(context.Context, string, string) (moderation.WarningList, moderation.WarningList, error) {
	return f.active, nil, f.err
}

func (f *fakeQueries) Punishments(context.Context, string) (*moderation.RuleSet, error) {
	return moderation.NewRuleSet(f.rules), f.err
}

func TestModerationHandlers(t *testing.T) {
	q := &fakeQueries{
		points: 7,
		active: moderation.WarningList{{ID: "w1", Points: 7}},
		rules:  []models.PunishmentRule{{Threshold: 5, Action: models.ActionKick}},
	}
	handlers := moderationHandlers(q)
	member := map[string]interface{}{"guildId": "g", "userId": "u"}

	got, err := handlers[TopicPoints](member)
	if err != nil {
		t.Fatalf("points error = %v", err)
	}
	if reply := got.(PointsReply); reply.Points != 7 || reply.UserID != "u" {
		t.Errorf("points reply = %+v", reply)
	}

	got, err = handlers[TopicWarnings](member)
	if err != nil {
		t.Fatalf("warnings error = %v", err)
	}
	warnings := got.(WarningsReply)
	if len(warnings.Active) != 1 || warnings.Expired == nil {
		t.Errorf("warnings reply = %+v, want one active and empty expired", warnings)
	}

	got, err = handlers[TopicRules](map[string]interface{}{"guildId": "g"})
	if err != nil {
		t.Fatalf("punishments error = %v", err)
	}
	if rules := got.([]models.PunishmentRule); len(rules) != 1 || rules[0].Threshold != 5 {
		t.Errorf("punishments reply = %+v", rules)
	}
}

func TestModerationHandlersValidateArgs(t *testing.T) {
	handlers := moderationHandlers(&fakeQueries{})

	tests := []struct {
		name    string
		topic   string
		payload map[string]interface{}
	}{
		{"missing user", TopicPoints, map[string]interface{}{"guildId": "g"}},
		{"missing guild", TopicWarnings, map[string]interface{}{"userId": "u"}},
		{"wrong type", TopicRules, map[string]interface{}{"guildId": 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := handlers[tt.topic](tt.payload)
			var ve *moderation.ValidationError
			if !errors.As(err, &ve) {
				t.Errorf("error = %v, want ValidationError", err)
			}
		})
	}
}

func TestModerationHandlersPropagateErrors(t *testing.T) {
	boom := errors.New("boom")
	handlers := moderationHandlers(&fakeQueries{err: boom})

	if _, err := handlers[TopicPoints](map[string]interface{}{"guildId": "g", "userId": "u"}); !errors.Is(err, boom) {
		t.Errorf("error = %v, want boom", err)
	}
}
