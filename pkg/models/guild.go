package models

// PunishmentAction is the action applied when a points threshold is reached
type PunishmentAction string

const (
	ActionMute PunishmentAction = "mute"
	ActionKick PunishmentAction = "kick"
	ActionBan  PunishmentAction = "ban"
	ActionWarn PunishmentAction = "warn"
)

// WarnReason is a preconfigured reason moderators can warn with by name.
// Duration is in seconds; zero means the reason has no expiry.
type WarnReason struct {
	Name      string `bson:"name" json:"name"`
	Points    int    `bson:"points" json:"points"`
	Permanent bool   `bson:"permanent" json:"permanent"`
	Duration  int64  `bson:"duration,omitempty" json:"duration,omitempty"`
}

// PunishmentRule fires Action once a member reaches Threshold points.
// Duration (seconds) only matters for mutes.
type PunishmentRule struct {
	Threshold int              `bson:"points" json:"points"`
	Action    PunishmentAction `bson:"action" json:"action"`
	Duration  int64            `bson:"duration,omitempty" json:"duration,omitempty"`
}

// DefaultDMTemplate is used until a guild sets its own notification template
const DefaultDMTemplate = "You have received a {action} in {guild}.\nReason: {reason}\nDuration: {duration}\nTotal Points: {points}"

// GuildSettings holds every moderation setting of a guild, including its
// warn reasons and punishment rules. Stored in the "guild_settings" collection.
// Fields that can be cleared must not be omitempty in bson: updates use $set
// and an omitted field keeps its stored value.
type GuildSettings struct {
	GuildID         string                `bson:"guildId" json:"guildId"`
	ModRoles        []string              `bson:"mod_roles" json:"mod_roles"`
	AdminRoles      []string              `bson:"admin_roles" json:"admin_roles"`
	ModLogChannel   string                `bson:"modlog_channel" json:"modlog_channel,omitempty"`
	DMNotify        bool                  `bson:"dm_notify" json:"dm_notify"`
	DMTemplate      string                `bson:"dm_message_template" json:"dm_message_template"`
	MuteRole        string                `bson:"mute_role" json:"mute_role,omitempty"`
	SyncPermissions bool                  `bson:"sync_perms" json:"sync_perms"`
	WarnReasons     map[string]WarnReason `bson:"warn_reasons" json:"warn_reasons"`
	Punishments     []PunishmentRule      `bson:"punishments" json:"punishments"`
}

// NewGuildSettings returns the defaults a guild starts with
func NewGuildSettings(guildID string) *GuildSettings {
	return &GuildSettings{
		GuildID:     guildID,
		ModRoles:    []string{},
		AdminRoles:  []string{},
		DMTemplate:  DefaultDMTemplate,
		WarnReasons: make(map[string]WarnReason),
		Punishments: []PunishmentRule{},
	}
}

// Clone returns a deep copy so callers can mutate without touching cached values
func (g *GuildSettings) Clone() *GuildSettings {
	if g == nil {
		return nil
	}
	c := *g
	c.ModRoles = append([]string{}, g.ModRoles...)
	c.AdminRoles = append([]string{}, g.AdminRoles...)
	c.Punishments = append([]PunishmentRule{}, g.Punishments...)
	c.WarnReasons = make(map[string]WarnReason, len(g.WarnReasons))
	for k, v := range g.WarnReasons {
		c.WarnReasons[k] = v
	}
	if c.DMTemplate == "" {
		c.DMTemplate = DefaultDMTemplate
	}
	return &c
}
