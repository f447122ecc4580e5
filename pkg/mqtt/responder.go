package mqtt

import (
	"context"
	"fmt"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/moderation"
	"github.com/PancyStudios/PancyModGo/pkg/models"
)

// Request topics answered by the bot
const (
	TopicPoints   = "moderation/points"
	TopicWarnings = "moderation/warnings"
	TopicRules    = "moderation/punishments"
)

const queryTimeout = 5 * time.Second

// ModerationQueries is the read side of the engine exposed on the bus
type ModerationQueries interface {
	Points(ctx context.Context, guildID, userID string) (int, error)
	Warnings(ctx context.Context, guildID, userID string) (active, expired moderation.WarningList, err error)
	Punishments(ctx context.Context, guildID string) (*moderation.RuleSet, error)
}

// PointsReply answers TopicPoints
type PointsReply struct {
	GuildID string `json:"guildId"`
	UserID  string `json:"userId"`
	Points  int    `json:"points"`
}

// WarningsReply answers TopicWarnings
type WarningsReply struct {
	GuildID string        `json:"guildId"`
	UserID  string        `json:"userId"`
	Active  []models.Warn `json:"active"`
	Expired []models.Warn `json:"expired"`
}

// RegisterModerationHandlers answers points, warnings and punishment queries
func RegisterModerationHandlers(mc *MqttCommunicator, q ModerationQueries) error {
	for topic, h := range moderationHandlers(q) {
		if err := mc.On(topic, h); err != nil {
			return fmt.Errorf("subscribe %s: %w", topic, err)
		}
	}
	return nil
}

func moderationHandlers(q ModerationQueries) map[string]RequestHandler {
	return map[string]RequestHandler{
		TopicPoints: func(payload map[string]interface{}) (interface{}, error) {
			guildID, userID, err := memberArgs(payload)
			if err != nil {
				return nil, err
			}
			ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
			defer cancel()

			points, err := q.Points(ctx, guildID, userID)
			if err != nil {
				return nil, err
			}
			return PointsReply{GuildID: guildID, UserID: userID, Points: points}, nil
		},
		TopicWarnings: func(payload map[string]interface{}) (interface{}, error) {
			guildID, userID, err := memberArgs(payload)
			if err != nil {
				return nil, err
			}
			ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
			defer cancel()

			active, expired, err := q.Warnings(ctx, guildID, userID)
			if err != nil {
				return nil, err
			}
			return WarningsReply{
				GuildID: guildID,
				UserID:  userID,
				Active:  append([]models.Warn{}, active...),
				Expired: append([]models.Warn{}, expired...),
			}, nil
		},
		TopicRules: func(payload map[string]interface{}) (interface{}, error) {
			guildID, err := stringArg(payload, "guildId")
			if err != nil {
				return nil, err
			}
			ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
			defer cancel()

			rules, err := q.Punishments(ctx, guildID)
			if err != nil {
				return nil, err
			}
			return rules.Rules(), nil
		},
	}
}

func memberArgs(payload map[string]interface{}) (guildID, userID string, err error) {
	if guildID, err = stringArg(payload, "guildId"); err != nil {
		return "", "", err
	}
	if userID, err = stringArg(payload, "userId"); err != nil {
		return "", "", err
	}
	return guildID, userID, nil
}

func stringArg(payload map[string]interface{}, key string) (string, error) {
	v, ok := payload[key].(string)
	if !ok || v == "" {
		return "", &moderation.ValidationError{Field: key, Message: "required string"}
	}
	return v, nil
}
