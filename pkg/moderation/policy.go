package moderation

import (
	"slices"

	"github.com/PancyStudios/PancyModGo/pkg/models"
)

// Level is the privilege a command requires
type Level int

const (
	LevelModerator Level = iota + 1
	LevelAdmin
)

func (l Level) String() string {
	switch l {
	case LevelModerator:
		return "moderator"
	case LevelAdmin:
		return "admin"
	}
	return "unknown"
}

// Actor is the member issuing a command, reduced to what authorization needs.
type Actor struct {
	UserID          string
	RoleIDs         []string
	TopRolePosition int
	Owner           bool
	Administrator   bool
	ManageMessages  bool
	ManageGuild     bool
}

// Policy decides whether an actor holds a privilege level in one guild
type Policy interface {
	Allow(actor Actor, level Level) bool
}

// RolePolicy grants levels from the administrator permission, the synced
// platform permissions and the configured role sets, in that order.
type RolePolicy struct {
	modRoles   []string
	adminRoles []string
	sync       bool
}

// NewRolePolicy builds the policy for one guild
func NewRolePolicy(settings *models.GuildSettings) *RolePolicy {
	return &RolePolicy{
		modRoles:   settings.ModRoles,
		adminRoles: settings.AdminRoles,
		sync:       settings.SyncPermissions,
	}
}

func (p *RolePolicy) Allow(actor Actor, level Level) bool {
	if actor.Owner || actor.Administrator {
		return true
	}

	if p.sync {
		switch level {
		case LevelModerator:
			if actor.ManageMessages || actor.ManageGuild {
				return true
			}
		case LevelAdmin:
			if actor.ManageGuild {
				return true
			}
		}
	}

	if p.hasAny(actor.RoleIDs, p.adminRoles) {
		return true
	}
	return level == LevelModerator && p.hasAny(actor.RoleIDs, p.modRoles)
}

func (p *RolePolicy) hasAny(held, configured []string) bool {
	for _, id := range held {
		if slices.Contains(configured, id) {
			return true
		}
	}
	return false
}

// Target rejections
var (
	ErrSelfTarget   = &ValidationError{Field: "member", Message: "you cannot target yourself"}
	ErrHigherTarget = &ValidationError{Field: "member", Message: "target has an equal or higher role"}
)

// CanTarget reports whether actor may act on target. Guild owners may act
// on anyone but themselves.
func CanTarget(actor, target Actor) error {
	if actor.UserID == target.UserID {
		return ErrSelfTarget
	}
	if target.Owner {
		return ErrHigherTarget
	}
	if !actor.Owner && target.TopRolePosition >= actor.TopRolePosition {
		return ErrHigherTarget
	}
	return nil
}
