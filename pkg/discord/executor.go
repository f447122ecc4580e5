package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/moderation"
	"github.com/bwmarrin/discordgo"
)

// maxTimeout is the longest timeout Discord accepts
const maxTimeout = 28 * 24 * time.Hour

// guildAPI is the part of *discordgo.Session the executor needs
type guildAPI interface {
	GuildMemberRoleAdd(guildID, userID, roleID string, options ...discordgo.RequestOption) error
	GuildMemberRoleRemove(guildID, userID, roleID string, options ...discordgo.RequestOption) error
	GuildMemberTimeout(guildID string, userID string, until *time.Time, options ...discordgo.RequestOption) error
	GuildMemberDeleteWithReason(guildID, userID, reason string, options ...discordgo.RequestOption) error
	GuildBanCreateWithReason(guildID, userID, reason string, days int, options ...discordgo.RequestOption) error
	GuildBanDelete(guildID, userID string, options ...discordgo.RequestOption) error
	GuildBans(guildID string, limit int, beforeID, afterID string, options ...discordgo.RequestOption) ([]*discordgo.GuildBan, error)
}

// Executor applies moderation actions through the Discord REST API
type Executor struct {
	api guildAPI
	now func() time.Time
}

// NewExecutor creates an executor over a discordgo session
func NewExecutor(s *discordgo.Session) *Executor {
	return newExecutor(s)
}

func newExecutor(api guildAPI) *Executor {
	return &Executor{api: api, now: time.Now}
}

// Mute adds the mute role when one is given and sets a timeout when a
// duration is given. Timeouts longer than Discord allows are capped.
func (e *Executor) Mute(ctx context.Context, a moderation.MuteAction) error {
	opts := requestOptions(ctx, a.Reason)

	if a.RoleID != "" {
		if err := e.api.GuildMemberRoleAdd(a.GuildID, a.UserID, a.RoleID, opts...); err != nil {
			return classify(err)
		}
	}

	if a.Duration > 0 {
		d := a.Duration
		if d > maxTimeout {
			logger.Warn(fmt.Sprintf("Timeout de %s recortado a 28 días para %s", d, a.UserID), "Executor")
			d = maxTimeout
		}
		until := e.now().Add(d)
		if err := e.api.GuildMemberTimeout(a.GuildID, a.UserID, &until, opts...); err != nil {
			return classify(err)
		}
	}
	return nil
}

// Unmute removes the mute role (if any) and clears the timeout
func (e *Executor) Unmute(ctx context.Context, a moderation.UnmuteAction) error {
	opts := requestOptions(ctx, a.Reason)

	if a.RoleID != "" {
		if err := e.api.GuildMemberRoleRemove(a.GuildID, a.UserID, a.RoleID, opts...); err != nil {
			return classify(err)
		}
	}
	if err := e.api.GuildMemberTimeout(a.GuildID, a.UserID, nil, opts...); err != nil {
		return classify(err)
	}
	return nil
}

func (e *Executor) Kick(ctx context.Context, guildID, userID, reason string) error {
	return classify(e.api.GuildMemberDeleteWithReason(guildID, userID, reason, discordgo.WithContext(ctx)))
}

func (e *Executor) Ban(ctx context.Context, guildID, userID, reason string) error {
	return classify(e.api.GuildBanCreateWithReason(guildID, userID, reason, 0, discordgo.WithContext(ctx)))
}

// Unban accepts a user id or a "name#discriminator" / username of a banned user
func (e *Executor) Unban(ctx context.Context, guildID, userRef, reason string) error {
	userID := userRef
	if !isSnowflake(userRef) {
		id, err := e.findBanned(ctx, guildID, userRef)
		if err != nil {
			return err
		}
		userID = id
	}
	return classify(e.api.GuildBanDelete(guildID, userID, requestOptions(ctx, reason)...))
}

func (e *Executor) findBanned(ctx context.Context, guildID, ref string) (string, error) {
	after := ""
	for {
		bans, err := e.api.GuildBans(guildID, 1000, "", after, discordgo.WithContext(ctx))
		if err != nil {
			return "", classify(err)
		}
		for _, ban := range bans {
			if ban.User == nil {
				continue
			}
			if ban.User.String() == ref || strings.EqualFold(ban.User.Username, ref) {
				return ban.User.ID, nil
			}
		}
		if len(bans) < 1000 {
			return "", fmt.Errorf("%q is not banned: %w", ref, moderation.ErrNotFound)
		}
		after = bans[len(bans)-1].User.ID
	}
}

func requestOptions(ctx context.Context, reason string) []discordgo.RequestOption {
	opts := []discordgo.RequestOption{discordgo.WithContext(ctx)}
	if reason != "" {
		opts = append(opts, discordgo.WithAuditLogReason(reason))
	}
	return opts
}

func isSnowflake(s string) bool {
	if s == "" || len(s) > 20 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// classify maps Discord API failures onto the moderation error taxonomy
func classify(err error) error {
	if err == nil {
		return nil
	}

	var rest *discordgo.RESTError
	if !errors.As(err, &rest) {
		return err
	}

	if rest.Message != nil {
		switch rest.Message.Code {
		case discordgo.ErrCodeMissingPermissions, discordgo.ErrCodeMissingAccess:
			return fmt.Errorf("%s: %w", rest.Message.Message, moderation.ErrPermissionDenied)
		case discordgo.ErrCodeUnknownMember, discordgo.ErrCodeUnknownUser, discordgo.ErrCodeUnknownBan:
			return fmt.Errorf("%s: %w", rest.Message.Message, moderation.ErrNotFound)
		}
	}

	if rest.Response != nil {
		switch rest.Response.StatusCode {
		case http.StatusForbidden:
			return fmt.Errorf("%v: %w", err, moderation.ErrPermissionDenied)
		case http.StatusNotFound:
			return fmt.Errorf("%v: %w", err, moderation.ErrNotFound)
		}
	}
	return err
}
