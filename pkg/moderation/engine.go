package moderation

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/models"
	"github.com/google/uuid"
)

// DefaultPoints is used for ad-hoc warnings that don't name a configured reason
const DefaultPoints = 1

// DefaultReason is used when a moderator gives no reason
const DefaultReason = "No reason provided"

// Engine runs every moderation action: it keeps the warning bookkeeping,
// evaluates automatic punishments and drives the executor, notifier and
// recorder. Authorization is the caller's job.
type Engine struct {
	store    Store
	executor Executor
	notifier Notifier
	recorder Recorder

	locks         *KeyedMutex
	now           func() time.Time
	newID         func() string
	autoModerator atomic.Pointer[string]
}

// Option configures an Engine
type Option func(*Engine)

// WithNotifier sets the notifier used for member notifications
func WithNotifier(n Notifier) Option {
	return func(e *Engine) { e.notifier = n }
}

// WithRecorder sets the moderation log recorder
func WithRecorder(r Recorder) Option {
	return func(e *Engine) { e.recorder = r }
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDGenerator overrides how warning ids are generated
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) { e.newID = fn }
}

// WithAutoModerator sets the moderator id used for automatic punishments,
// normally the bot's own user id.
func WithAutoModerator(id string) Option {
	return func(e *Engine) { e.SetAutoModerator(id) }
}

// NewEngine creates an engine over store and executor
func NewEngine(store Store, executor Executor, opts ...Option) *Engine {
	e := &Engine{
		store:    store,
		executor: executor,
		notifier: nopNotifier{},
		recorder: logRecorder{},
		locks:    NewKeyedMutex(),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetAutoModerator changes the automatic moderator id once the bot user is
// known. Safe to call while actions are running.
func (e *Engine) SetAutoModerator(id string) {
	e.autoModerator.Store(&id)
}

func (e *Engine) automaticModerator() string {
	if id := e.autoModerator.Load(); id != nil {
		return *id
	}
	return ""
}

// WarnRequest describes a warning. When Reason names a configured warn
// reason its points, duration and permanence win over the explicit fields.
type WarnRequest struct {
	GuildID     string
	UserID      string
	ModeratorID string
	Reason      string
	Points      *int
	Duration    time.Duration
	Permanent   *bool
}

// AutoPunishment is the rule that fired after a warning
type AutoPunishment struct {
	Rule   models.PunishmentRule
	Reason string
	Err    error
}

// WarnResult is returned by Warn even when the automatic punishment failed
type WarnResult struct {
	Warning        models.Warn
	TotalPoints    int
	AutoPunishment *AutoPunishment
}

// Warn records a warning, recomputes the member's points and applies the
// single highest punishment rule they now meet.
func (e *Engine) Warn(ctx context.Context, req WarnRequest) (*WarnResult, error) {
	if req.GuildID == "" || req.UserID == "" {
		return nil, &ValidationError{Field: "target", Message: "guild and user are required"}
	}
	if req.Points != nil && *req.Points < 0 {
		return nil, &ValidationError{Field: "points", Message: "must not be negative"}
	}

	settings, err := e.Settings(ctx, req.GuildID)
	if err != nil {
		return nil, err
	}

	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = DefaultReason
	}

	points, duration, permanent := DefaultPoints, req.Duration, true
	if req.Points != nil {
		points = *req.Points
	}
	if req.Permanent != nil {
		permanent = *req.Permanent
	} else if duration > 0 {
		permanent = false
	}
	if def, ok := settings.WarnReasons[reason]; ok {
		points = def.Points
		permanent = def.Permanent
		duration = time.Duration(def.Duration) * time.Second
	}
	if duration <= 0 {
		permanent = true
	}

	now := e.now()
	warning := models.Warn{
		ID:        e.newID(),
		Reason:    reason,
		Points:    points,
		Permanent: permanent,
		Moderator: req.ModeratorID,
		Timestamp: now.Unix(),
	}
	if !permanent {
		warning.ExpiresAt = models.ExpiryUnix(now.Add(duration))
	}

	var total int
	err = e.updateWarnings(ctx, req.GuildID, req.UserID, func(list WarningList) (WarningList, error) {
		list = list.Prune(now).Add(warning)
		total = list.ActivePoints(now)
		return list, nil
	})
	if err != nil {
		return nil, err
	}

	label := "Permanent"
	if !permanent {
		label = FormatDuration(duration)
	}

	e.notify(ctx, settings, req.UserID, "warning", reason, total, label)
	e.record(ctx, settings, Entry{
		Action:      ActionWarn,
		UserID:      req.UserID,
		ModeratorID: req.ModeratorID,
		Reason:      reason,
		Points:      &total,
		Duration:    label,
	})

	result := &WarnResult{Warning: warning, TotalPoints: total}

	rule, ok := NewRuleSet(settings.Punishments).Evaluate(total)
	if !ok {
		return result, nil
	}

	auto := &AutoPunishment{Rule: rule, Reason: fmt.Sprintf("Auto-punishment for reaching %d points.", total)}
	result.AutoPunishment = auto
	auto.Err = e.applyRule(ctx, settings, req.UserID, rule, auto.Reason, total)
	if auto.Err != nil {
		return result, auto.Err
	}
	return result, nil
}

func (e *Engine) applyRule(ctx context.Context, settings *models.GuildSettings, userID string, rule models.PunishmentRule, reason string, total int) error {
	moderator := e.automaticModerator()
	duration := time.Duration(rule.Duration) * time.Second

	switch rule.Action {
	case models.ActionMute:
		return e.mute(ctx, settings, MuteRequest{
			GuildID:     settings.GuildID,
			UserID:      userID,
			ModeratorID: moderator,
			Duration:    duration,
			Reason:      reason,
		}, total, true)
	case models.ActionKick:
		return e.remove(ctx, settings, ActionKick, userID, moderator, reason, total, true)
	case models.ActionBan:
		return e.remove(ctx, settings, ActionBan, userID, moderator, reason, total, true)
	case models.ActionWarn:
		// Records the escalation without adding another warning, so a warn
		// rule can never feed back into itself.
		e.notify(ctx, settings, userID, "warning", reason, total, "Permanent")
		e.record(ctx, settings, Entry{
			Action:      ActionWarn,
			UserID:      userID,
			ModeratorID: moderator,
			Reason:      reason,
			Points:      &total,
			Auto:        true,
		})
		return nil
	}
	logger.Warn(fmt.Sprintf("Acción desconocida %q en el umbral %d del servidor %s", rule.Action, rule.Threshold, settings.GuildID), "Moderation")
	return nil
}

// MuteRequest silences a member with the configured mute role and, when
// Duration is set, a timed suspension.
type MuteRequest struct {
	GuildID     string
	UserID      string
	ModeratorID string
	Duration    time.Duration
	Reason      string
}

// Mute applies the guild's mute role and/or a timeout. A guild without mute
// role muted without duration is logged and recorded but nothing is applied.
func (e *Engine) Mute(ctx context.Context, req MuteRequest) error {
	settings, err := e.Settings(ctx, req.GuildID)
	if err != nil {
		return err
	}
	total, err := e.Points(ctx, req.GuildID, req.UserID)
	if err != nil {
		return err
	}
	return e.mute(ctx, settings, req, total, false)
}

func (e *Engine) mute(ctx context.Context, settings *models.GuildSettings, req MuteRequest, total int, auto bool) error {
	reason := orDefault(req.Reason)
	label := FormatDuration(req.Duration)

	if settings.MuteRole == "" && req.Duration <= 0 {
		logger.Warn(fmt.Sprintf("Mute sin rol ni duración en %s: %v", settings.GuildID, ErrNotConfigured), "Moderation")
	} else {
		err := e.executor.Mute(ctx, MuteAction{
			GuildID:  settings.GuildID,
			UserID:   req.UserID,
			RoleID:   settings.MuteRole,
			Duration: req.Duration,
			Reason:   reason,
		})
		if err != nil {
			return denied(ActionMute, req.UserID, err)
		}
	}

	e.notify(ctx, settings, req.UserID, string(ActionMute), reason, total, label)
	e.record(ctx, settings, Entry{
		Action:      ActionMute,
		UserID:      req.UserID,
		ModeratorID: req.ModeratorID,
		Reason:      reason,
		Duration:    label,
		Auto:        auto,
	})
	return nil
}

// Unmute removes the mute role and any running timeout
func (e *Engine) Unmute(ctx context.Context, guildID, userID, moderatorID, reason string) error {
	settings, err := e.Settings(ctx, guildID)
	if err != nil {
		return err
	}
	if reason == "" {
		reason = "Unmuted by moderator."
	}
	err = e.executor.Unmute(ctx, UnmuteAction{
		GuildID: guildID,
		UserID:  userID,
		RoleID:  settings.MuteRole,
		Reason:  reason,
	})
	if err != nil {
		return denied(ActionUnmute, userID, err)
	}
	e.record(ctx, settings, Entry{Action: ActionUnmute, UserID: userID, ModeratorID: moderatorID, Reason: reason})
	return nil
}

// Kick notifies the member and removes them from the guild
func (e *Engine) Kick(ctx context.Context, guildID, userID, moderatorID, reason string) error {
	return e.removeMember(ctx, ActionKick, guildID, userID, moderatorID, reason)
}

// Ban notifies the member and bans them
func (e *Engine) Ban(ctx context.Context, guildID, userID, moderatorID, reason string) error {
	return e.removeMember(ctx, ActionBan, guildID, userID, moderatorID, reason)
}

func (e *Engine) removeMember(ctx context.Context, action Action, guildID, userID, moderatorID, reason string) error {
	settings, err := e.Settings(ctx, guildID)
	if err != nil {
		return err
	}
	total, err := e.Points(ctx, guildID, userID)
	if err != nil {
		return err
	}
	return e.remove(ctx, settings, action, userID, moderatorID, orDefault(reason), total, false)
}

// remove notifies first: once the member is gone the DM may not be deliverable.
func (e *Engine) remove(ctx context.Context, settings *models.GuildSettings, action Action, userID, moderatorID, reason string, total int, auto bool) error {
	e.notify(ctx, settings, userID, string(action), reason, total, "Permanent")

	var err error
	if action == ActionBan {
		err = e.executor.Ban(ctx, settings.GuildID, userID, reason)
	} else {
		err = e.executor.Kick(ctx, settings.GuildID, userID, reason)
	}
	if err != nil {
		return denied(action, userID, err)
	}

	e.record(ctx, settings, Entry{
		Action:      action,
		UserID:      userID,
		ModeratorID: moderatorID,
		Reason:      reason,
		Auto:        auto,
	})
	return nil
}

// Unban lifts a ban. userRef is a user id or a name the executor can resolve.
func (e *Engine) Unban(ctx context.Context, guildID, userRef, moderatorID, reason string) error {
	settings, err := e.Settings(ctx, guildID)
	if err != nil {
		return err
	}
	if reason == "" {
		reason = "Unbanned"
	}
	if err := e.executor.Unban(ctx, guildID, userRef, reason); err != nil {
		return denied(ActionUnban, userRef, err)
	}
	e.record(ctx, settings, Entry{Action: ActionUnban, UserID: userRef, ModeratorID: moderatorID, Reason: reason})
	return nil
}

// Points returns the member's active points, pruning expired warnings first.
func (e *Engine) Points(ctx context.Context, guildID, userID string) (int, error) {
	var total int
	now := e.now()
	err := e.updateWarnings(ctx, guildID, userID, func(list WarningList) (WarningList, error) {
		list = list.Prune(now)
		total = list.ActivePoints(now)
		return list, nil
	})
	return total, err
}

// Warnings returns the member's warnings split into active and expired as
// of now, then prunes the expired ones from the store.
func (e *Engine) Warnings(ctx context.Context, guildID, userID string) (active, expired WarningList, err error) {
	now := e.now()
	var snapshot WarningList
	err = e.updateWarnings(ctx, guildID, userID, func(list WarningList) (WarningList, error) {
		snapshot = list
		return list.Prune(now), nil
	})
	if err != nil {
		return nil, nil, err
	}
	active, expired = snapshot.Partition(now)
	return active, expired, nil
}

// PeekWarnings splits the member's warnings like Warnings but leaves the
// store untouched, for read-only callers.
func (e *Engine) PeekWarnings(ctx context.Context, guildID, userID string) (active, expired WarningList, err error) {
	list, err := e.store.GetWarnings(ctx, guildID, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("load warnings: %w", err)
	}
	active, expired = WarningList(list).Partition(e.now())
	return active, expired, nil
}

// ClearWarnings drops every warning of the member
func (e *Engine) ClearWarnings(ctx context.Context, guildID, userID, moderatorID string) error {
	settings, err := e.Settings(ctx, guildID)
	if err != nil {
		return err
	}

	unlock := e.locks.Lock(memberKey(guildID, userID))
	err = e.store.ClearWarnings(ctx, guildID, userID)
	unlock()
	if err != nil {
		return err
	}

	e.record(ctx, settings, Entry{
		Action:      ActionClearWarns,
		UserID:      userID,
		ModeratorID: moderatorID,
		Reason:      "All warnings cleared",
	})
	return nil
}

// RemoveWarning deletes one warning by id
func (e *Engine) RemoveWarning(ctx context.Context, guildID, userID, warnID, moderatorID string) (models.Warn, error) {
	settings, err := e.Settings(ctx, guildID)
	if err != nil {
		return models.Warn{}, err
	}

	var removed models.Warn
	err = e.updateWarnings(ctx, guildID, userID, func(list WarningList) (WarningList, error) {
		out, w, ok := list.Remove(warnID)
		if !ok {
			return nil, ErrWarningNotFound
		}
		removed = w
		return out, nil
	})
	if err != nil {
		return models.Warn{}, err
	}

	total, err := e.Points(ctx, guildID, userID)
	if err != nil {
		return removed, err
	}
	e.record(ctx, settings, Entry{
		Action:      ActionRemoveWarn,
		UserID:      userID,
		ModeratorID: moderatorID,
		Reason:      "Removed warning: " + removed.Reason,
		Points:      &total,
	})
	return removed, nil
}

// Record logs an action performed outside the engine, e.g. a purge
func (e *Engine) Record(ctx context.Context, guildID string, entry Entry) {
	settings, err := e.Settings(ctx, guildID)
	if err != nil {
		logger.Error(fmt.Sprintf("No se pudo cargar la configuración de %s: %v", guildID, err), "Moderation")
		settings = models.NewGuildSettings(guildID)
	}
	e.record(ctx, settings, entry)
}

// updateWarnings runs fn on the member's list under the member lock and
// persists the result.
func (e *Engine) updateWarnings(ctx context.Context, guildID, userID string, fn func(WarningList) (WarningList, error)) error {
	unlock := e.locks.Lock(memberKey(guildID, userID))
	defer unlock()

	current, err := e.store.GetWarnings(ctx, guildID, userID)
	if err != nil {
		return fmt.Errorf("load warnings: %w", err)
	}
	list := WarningList(current)
	next, err := fn(list)
	if err != nil {
		return err
	}
	if sameWarnings(list, next) {
		return nil
	}
	if err := e.store.SetWarnings(ctx, guildID, userID, next); err != nil {
		return fmt.Errorf("save warnings: %w", err)
	}
	return nil
}

func sameWarnings(a, b WarningList) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (e *Engine) notify(ctx context.Context, settings *models.GuildSettings, userID, action, reason string, points int, duration string) {
	if !settings.DMNotify {
		return
	}
	e.notifier.Notify(ctx, Notification{
		GuildID:  settings.GuildID,
		UserID:   userID,
		Action:   action,
		Reason:   reason,
		Points:   points,
		Duration: duration,
		Template: settings.DMTemplate,
	})
}

func (e *Engine) record(ctx context.Context, settings *models.GuildSettings, entry Entry) {
	entry.GuildID = settings.GuildID
	entry.Channel = settings.ModLogChannel
	if entry.Timestamp.IsZero() {
		entry.Timestamp = e.now()
	}
	e.recorder.Record(ctx, entry)
}

func orDefault(reason string) string {
	if strings.TrimSpace(reason) == "" {
		return DefaultReason
	}
	return reason
}
