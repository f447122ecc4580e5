package moderation

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/models"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// DefaultSetupIdle is how long a punishment setup session survives without input
const DefaultSetupIdle = 60 * time.Second

const maxSessions = 1024

// ErrNoSession is returned when a setup session expired or was never opened
var ErrNoSession = errors.New("setup session expired or not found")

type stagedOp struct {
	rule   models.PunishmentRule
	remove bool
}

// SetupSession stages punishment rule edits of one moderator. Nothing is
// written until the session is committed.
type SetupSession struct {
	GuildID     string
	ModeratorID string

	mu     sync.Mutex
	base   []models.PunishmentRule
	ops    []stagedOp
	closed atomic.Bool
}

// Rules returns the staged view: the rules the guild had when the session
// opened with every staged edit applied.
func (s *SetupSession) Rules() *RuleSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	rs := NewRuleSet(s.base)
	applyOps(rs, s.ops)
	return rs
}

// Pending reports how many edits are staged
func (s *SetupSession) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ops)
}

func applyOps(rs *RuleSet, ops []stagedOp) {
	for _, op := range ops {
		if op.remove {
			rs.Remove(op.rule.Threshold)
		} else {
			rs.Upsert(op.rule)
		}
	}
}

// Sessions keeps at most one setup session per guild and moderator. Idle
// sessions are dropped without touching the stored rules.
type Sessions struct {
	engine *Engine
	cache  *expirable.LRU[string, *SetupSession]
}

// NewSessions creates the session manager. onExpire, when not nil, is called
// for sessions dropped by the idle timeout; it must not call back into
// Sessions.
func NewSessions(engine *Engine, idle time.Duration, onExpire func(*SetupSession)) *Sessions {
	if idle <= 0 {
		idle = DefaultSetupIdle
	}
	evict := func(_ string, s *SetupSession) {
		if s.closed.CompareAndSwap(false, true) && onExpire != nil {
			onExpire(s)
		}
	}
	return &Sessions{
		engine: engine,
		cache:  expirable.NewLRU[string, *SetupSession](maxSessions, evict, idle),
	}
}

func sessionKey(guildID, moderatorID string) string {
	return guildID + ":" + moderatorID
}

// Open starts a session from the current guild rules, replacing any session
// the moderator already had open.
func (m *Sessions) Open(ctx context.Context, guildID, moderatorID string) (*SetupSession, error) {
	settings, err := m.engine.Settings(ctx, guildID)
	if err != nil {
		return nil, err
	}
	m.Cancel(guildID, moderatorID)

	s := &SetupSession{
		GuildID:     guildID,
		ModeratorID: moderatorID,
		base:        NewRuleSet(settings.Punishments).Rules(),
	}
	m.cache.Add(sessionKey(guildID, moderatorID), s)
	return s, nil
}

// Get returns the open session without touching its idle clock
func (m *Sessions) Get(guildID, moderatorID string) (*SetupSession, bool) {
	s, ok := m.cache.Get(sessionKey(guildID, moderatorID))
	if !ok || s.closed.Load() {
		return nil, false
	}
	return s, true
}

// Upsert stages a rule
func (m *Sessions) Upsert(guildID, moderatorID string, rule models.PunishmentRule) (*SetupSession, error) {
	return m.stage(guildID, moderatorID, stagedOp{rule: rule})
}

// Remove stages the removal of the rule at threshold. Removing a threshold
// the staged view doesn't have is reported as ErrRuleNotFound.
func (m *Sessions) Remove(guildID, moderatorID string, threshold int) (*SetupSession, error) {
	s, ok := m.Get(guildID, moderatorID)
	if !ok {
		return nil, ErrNoSession
	}
	if _, exists := s.Rules().Get(threshold); !exists {
		return s, ErrRuleNotFound
	}
	return m.stage(guildID, moderatorID, stagedOp{rule: models.PunishmentRule{Threshold: threshold}, remove: true})
}

func (m *Sessions) stage(guildID, moderatorID string, op stagedOp) (*SetupSession, error) {
	key := sessionKey(guildID, moderatorID)
	s, ok := m.Get(guildID, moderatorID)
	if !ok {
		return nil, ErrNoSession
	}
	s.mu.Lock()
	s.ops = append(s.ops, op)
	s.mu.Unlock()

	// Re-adding resets the idle deadline
	m.cache.Add(key, s)
	return s, nil
}

// Commit replays the staged edits on the current guild rules in a single
// settings update and closes the session.
func (m *Sessions) Commit(ctx context.Context, guildID, moderatorID string) (*RuleSet, error) {
	s, ok := m.Get(guildID, moderatorID)
	if !ok || !s.closed.CompareAndSwap(false, true) {
		return nil, ErrNoSession
	}
	m.cache.Remove(sessionKey(guildID, moderatorID))

	s.mu.Lock()
	ops := append([]stagedOp(nil), s.ops...)
	s.mu.Unlock()

	settings, err := m.engine.UpdateSettings(ctx, guildID, func(gs *models.GuildSettings) error {
		rs := NewRuleSet(gs.Punishments)
		applyOps(rs, ops)
		gs.Punishments = rs.Rules()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return NewRuleSet(settings.Punishments), nil
}

// Cancel discards the session and reports whether one was open
func (m *Sessions) Cancel(guildID, moderatorID string) bool {
	s, ok := m.Get(guildID, moderatorID)
	if !ok {
		return false
	}
	s.closed.Store(true)
	return m.cache.Remove(sessionKey(guildID, moderatorID))
}

// Len returns the number of open sessions
func (m *Sessions) Len() int {
	return m.cache.Len()
}
