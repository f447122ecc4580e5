package moderation

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/models"
)

// Settings returns the guild settings, or the defaults when the guild has
// never been configured. The result is a copy.
func (e *Engine) Settings(ctx context.Context, guildID string) (*models.GuildSettings, error) {
	settings, err := e.store.GetGuild(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("load guild settings: %w", err)
	}
	if settings == nil {
		return models.NewGuildSettings(guildID), nil
	}
	settings = settings.Clone()
	settings.GuildID = guildID
	return settings, nil
}

// EnsureGuild persists the defaults for a guild seen for the first time
func (e *Engine) EnsureGuild(ctx context.Context, guildID string) error {
	unlock := e.locks.Lock(guildKey(guildID))
	defer unlock()

	existing, err := e.store.GetGuild(ctx, guildID)
	if err != nil {
		return fmt.Errorf("load guild settings: %w", err)
	}
	if existing != nil {
		return nil
	}
	return e.store.SetGuild(ctx, models.NewGuildSettings(guildID))
}

// UpdateSettings applies fn to the guild settings under the guild lock and
// persists the result. Returning an error from fn aborts without writing.
func (e *Engine) UpdateSettings(ctx context.Context, guildID string, fn func(*models.GuildSettings) error) (*models.GuildSettings, error) {
	unlock := e.locks.Lock(guildKey(guildID))
	defer unlock()

	settings, err := e.Settings(ctx, guildID)
	if err != nil {
		return nil, err
	}
	if err := fn(settings); err != nil {
		return nil, err
	}
	if err := e.store.SetGuild(ctx, settings); err != nil {
		return nil, fmt.Errorf("save guild settings: %w", err)
	}
	return settings.Clone(), nil
}

// SetReason adds or replaces a warn reason. The reason is permanent when
// permanent is set or durationText holds no duration.
func (e *Engine) SetReason(ctx context.Context, guildID, name string, points int, durationText string, permanent bool) (models.WarnReason, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.WarnReason{}, &ValidationError{Field: "name", Message: "must not be empty"}
	}
	if points < 0 {
		return models.WarnReason{}, &ValidationError{Field: "points", Message: "must not be negative"}
	}

	duration, ok := ParseDuration(durationText)
	reason := models.WarnReason{
		Name:      name,
		Points:    points,
		Permanent: permanent || !ok,
	}
	if ok {
		reason.Duration = int64(duration / time.Second)
	}

	_, err := e.UpdateSettings(ctx, guildID, func(s *models.GuildSettings) error {
		s.WarnReasons[name] = reason
		return nil
	})
	return reason, err
}

// RemoveReason deletes a warn reason
func (e *Engine) RemoveReason(ctx context.Context, guildID, name string) error {
	_, err := e.UpdateSettings(ctx, guildID, func(s *models.GuildSettings) error {
		if _, ok := s.WarnReasons[name]; !ok {
			return fmt.Errorf("%q: %w", name, ErrReasonNotFound)
		}
		delete(s.WarnReasons, name)
		return nil
	})
	return err
}

// Reasons lists the configured warn reasons sorted by name
func (e *Engine) Reasons(ctx context.Context, guildID string) ([]models.WarnReason, error) {
	settings, err := e.Settings(ctx, guildID)
	if err != nil {
		return nil, err
	}
	out := make([]models.WarnReason, 0, len(settings.WarnReasons))
	for name, r := range settings.WarnReasons {
		r.Name = name
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// SetPunishment adds or replaces the rule for threshold
func (e *Engine) SetPunishment(ctx context.Context, guildID string, threshold int, actionText, durationText string) (models.PunishmentRule, error) {
	rule, err := NewRule(threshold, actionText, durationText)
	if err != nil {
		return rule, err
	}
	_, err = e.UpdateSettings(ctx, guildID, func(s *models.GuildSettings) error {
		rs := NewRuleSet(s.Punishments)
		rs.Upsert(rule)
		s.Punishments = rs.Rules()
		return nil
	})
	return rule, err
}

// NewRule validates the parts of a punishment rule
func NewRule(threshold int, actionText, durationText string) (models.PunishmentRule, error) {
	if threshold < 0 {
		return models.PunishmentRule{}, &ValidationError{Field: "points", Message: "must not be negative"}
	}
	action, err := ParseAction(actionText)
	if err != nil {
		return models.PunishmentRule{}, err
	}
	rule := models.PunishmentRule{Threshold: threshold, Action: action}
	if d, ok := ParseDuration(durationText); ok {
		rule.Duration = int64(d / time.Second)
	}
	return rule, nil
}

// RemovePunishment deletes the rule for threshold
func (e *Engine) RemovePunishment(ctx context.Context, guildID string, threshold int) error {
	_, err := e.UpdateSettings(ctx, guildID, func(s *models.GuildSettings) error {
		rs := NewRuleSet(s.Punishments)
		if !rs.Remove(threshold) {
			return fmt.Errorf("%d points: %w", threshold, ErrRuleNotFound)
		}
		s.Punishments = rs.Rules()
		return nil
	})
	return err
}

// Punishments returns the guild rule set
func (e *Engine) Punishments(ctx context.Context, guildID string) (*RuleSet, error) {
	settings, err := e.Settings(ctx, guildID)
	if err != nil {
		return nil, err
	}
	return NewRuleSet(settings.Punishments), nil
}
