package mod

import (
	"errors"

	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/moderation"
	"github.com/bwmarrin/discordgo"
)

var errLevel = errors.New("missing moderation level")

// authorize checks the caller against the guild's role policy
func (m *Module) authorize(ctx *discord.CommandContext, level moderation.Level) error {
	settings, err := m.Engine.Settings(ctx.Context(), ctx.Interaction.GuildID)
	if err != nil {
		return err
	}
	actor := actorOf(ctx.Guild(), ctx.Interaction.Member)
	if !moderation.NewRolePolicy(settings).Allow(actor, level) {
		return errLevel
	}
	return nil
}

// actorOf reduces a guild member to what authorization needs. guild may be
// nil, in which case role positions are unknown.
func actorOf(guild *discordgo.Guild, member *discordgo.Member) moderation.Actor {
	if member == nil || member.User == nil {
		return moderation.Actor{}
	}

	actor := moderation.Actor{
		UserID:         member.User.ID,
		RoleIDs:        member.Roles,
		Administrator:  member.Permissions&discordgo.PermissionAdministrator != 0,
		ManageMessages: member.Permissions&discordgo.PermissionManageMessages != 0,
		ManageGuild:    member.Permissions&discordgo.PermissionManageGuild != 0,
	}
	if guild == nil {
		return actor
	}

	actor.Owner = guild.OwnerID == member.User.ID
	for _, role := range guild.Roles {
		for _, id := range member.Roles {
			if role.ID == id && role.Position > actor.TopRolePosition {
				actor.TopRolePosition = role.Position
			}
		}
	}
	return actor
}

// canModerate checks that the caller may act on target. Users that are not
// members of the guild can always be targeted.
func canModerate(ctx *discord.CommandContext, target *discordgo.User) error {
	guild := ctx.Guild()
	actor := actorOf(guild, ctx.Interaction.Member)

	member, err := ctx.Session.State.Member(ctx.Interaction.GuildID, target.ID)
	if err != nil {
		member, err = ctx.Session.GuildMember(ctx.Interaction.GuildID, target.ID)
	}
	if err != nil || member == nil {
		if target.ID == actor.UserID {
			return moderation.ErrSelfTarget
		}
		return nil
	}
	return moderation.CanTarget(actor, targetActor(guild, member, target))
}

// targetActor is actorOf for a looked-up member, which may come from the
// shared state cache without its user set. member is never modified.
func targetActor(guild *discordgo.Guild, member *discordgo.Member, target *discordgo.User) moderation.Actor {
	if member.User == nil {
		m := *member
		m.User = target
		member = &m
	}
	return actorOf(guild, member)
}
