package moderation

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/models"
)

// Action names a moderation action as it appears in logs and notifications
type Action string

const (
	ActionWarn       Action = "warn"
	ActionMute       Action = "mute"
	ActionUnmute     Action = "unmute"
	ActionKick       Action = "kick"
	ActionBan        Action = "ban"
	ActionUnban      Action = "unban"
	ActionClearWarns Action = "clearwarns"
	ActionRemoveWarn Action = "removewarn"
	ActionPurge      Action = "purge"
)

// MuteAction asks the executor to silence a member. RoleID and Duration are
// both optional; at least one is set when the engine calls Mute.
type MuteAction struct {
	GuildID  string
	UserID   string
	RoleID   string
	Duration time.Duration
	Reason   string
}

// UnmuteAction lifts the mute role (if any) and the timed suspension
type UnmuteAction struct {
	GuildID string
	UserID  string
	RoleID  string
	Reason  string
}

// Executor applies moderation actions on the platform. Implementations
// return errors wrapping ErrPermissionDenied or ErrNotFound.
type Executor interface {
	Mute(ctx context.Context, a MuteAction) error
	Unmute(ctx context.Context, a UnmuteAction) error
	Kick(ctx context.Context, guildID, userID, reason string) error
	Ban(ctx context.Context, guildID, userID, reason string) error
	Unban(ctx context.Context, guildID, userID, reason string) error
}

// Notification is a best-effort message to the punished member.
type Notification struct {
	GuildID  string
	UserID   string
	Action   string
	Reason   string
	Points   int
	Duration string
	Template string
}

// Render fills the notification template placeholders
func (n Notification) Render(guildName, userName string) string {
	tmpl := n.Template
	if tmpl == "" {
		tmpl = models.DefaultDMTemplate
	}
	return strings.NewReplacer(
		"{user}", userName,
		"{action}", n.Action,
		"{reason}", n.Reason,
		"{points}", strconv.Itoa(n.Points),
		"{duration}", n.Duration,
		"{guild}", guildName,
	).Replace(tmpl)
}

// Notifier delivers notifications. It must not block the caller on failure.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// Entry is one record of the moderation log
type Entry struct {
	GuildID     string    `json:"guildId"`
	Action      Action    `json:"action"`
	UserID      string    `json:"userId"`
	ModeratorID string    `json:"moderatorId"`
	Reason      string    `json:"reason"`
	Points      *int      `json:"points,omitempty"`
	Duration    string    `json:"duration,omitempty"`
	Auto        bool      `json:"auto"`
	Channel     string    `json:"-"`
	Timestamp   time.Time `json:"timestamp"`
}

// Recorder receives every moderation action once it has been applied.
// Implementations are best effort.
type Recorder interface {
	Record(ctx context.Context, e Entry)
}

// MultiRecorder fans an entry out to several recorders
type MultiRecorder []Recorder

func (m MultiRecorder) Record(ctx context.Context, e Entry) {
	for _, r := range m {
		if r != nil {
			r.Record(ctx, e)
		}
	}
}

// Store persists guild settings and member warnings. Missing documents read
// as nil without error. Implementations must be safe for concurrent use;
// read-modify-write sequences are serialized by the engine.
type Store interface {
	GetGuild(ctx context.Context, guildID string) (*models.GuildSettings, error)
	SetGuild(ctx context.Context, settings *models.GuildSettings) error
	ClearGuild(ctx context.Context, guildID string) error

	GetWarnings(ctx context.Context, guildID, userID string) ([]models.Warn, error)
	SetWarnings(ctx context.Context, guildID, userID string, warns []models.Warn) error
	ClearWarnings(ctx context.Context, guildID, userID string) error
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, Notification) {}

type logRecorder struct{}

func (logRecorder) Record(_ context.Context, e Entry) {
	logger.Info("["+e.GuildID+"] "+string(e.Action)+" "+e.UserID+" por "+e.ModeratorID+": "+e.Reason, "ModLog")
}
