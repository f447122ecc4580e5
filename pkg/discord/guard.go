package discord

import (
	"errors"
	"fmt"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/moderation"
	"github.com/bwmarrin/discordgo"
)

// AuthorizeFunc reports whether the interaction caller holds level.
type AuthorizeFunc func(ctx *CommandContext, level moderation.Level) error

var (
	errGuildOnly = errors.New("command used outside a guild")
	errDenied    = errors.New("insufficient moderation level")
)

// GuardMiddleware rejects leveled interactions used outside a guild or by
// members below the required level, replying with an ephemeral embed.
func (c *ExtendedClient) GuardMiddleware(ctx *CommandContext, level moderation.Level) error {
	if level == 0 {
		return nil
	}

	if ctx.Interaction.GuildID == "" || ctx.Interaction.Member == nil {
		_ = ctx.ReplyEphemeral("❌ Este comando solo puede usarse dentro de un servidor.")
		return errGuildOnly
	}

	err := c.authorize(ctx, level)
	if err == nil {
		return nil
	}

	embed := &discordgo.MessageEmbed{
		Title:       "🚫 Acceso Denegado",
		Description: fmt.Sprintf("Necesitas el nivel **%s** para usar esto.", level),
		Color:       0xFF0000,
		Timestamp:   time.Now().Format(time.RFC3339),
	}
	_ = ctx.ReplyEphemeralEmbed(embed)

	logger.Warn(fmt.Sprintf("%s intentó una acción de nivel %s en %s: %v", ctx.User().ID, level, ctx.Interaction.GuildID, err), "Guard")
	return err
}

func (c *ExtendedClient) authorize(ctx *CommandContext, level moderation.Level) error {
	if c.Authorize != nil {
		return c.Authorize(ctx, level)
	}
	if ctx.Interaction.Member.Permissions&discordgo.PermissionAdministrator != 0 {
		return nil
	}
	return errDenied
}
