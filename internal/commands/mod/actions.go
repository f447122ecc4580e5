package mod

import (
	"fmt"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/errors"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/moderation"
	"github.com/bwmarrin/discordgo"
	"github.com/samber/lo"
)

func userOption(description string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionUser,
		Name:        "usuario",
		Description: description,
		Required:    true,
	}
}

func reasonOption(description string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "razon",
		Description: description,
	}
}

// memberAction runs one engine action against the user option after the
// hierarchy check, answering with a public embed.
func (m *Module) memberAction(ctx *discord.CommandContext, prefix, title string, color int, run func(target *discordgo.User, reason string) error) {
	defer errors.RecoverMiddleware()()

	target := ctx.GetUserOption("usuario")
	if target == nil {
		_ = ctx.ReplyEphemeral("❌ Debes especificar un usuario.")
		return
	}
	if err := canModerate(ctx, target); err != nil {
		fail(ctx, prefix, err, ctx.ReplyEphemeral)
		return
	}
	reason := ctx.GetStringOption("razon")

	if err := ctx.Defer(); err != nil {
		logger.Error(fmt.Sprintf("Error enviando defer de %s: %v", prefix, err), "CMD-"+prefix)
		return
	}
	if err := run(target, reason); err != nil {
		fail(ctx, prefix, err, ctx.EditReply)
		return
	}

	if reason == "" {
		reason = moderation.DefaultReason
	}
	embed := resultEmbed(title, fmt.Sprintf("**%s** (%s)", target.String(), target.ID), color, ctx.User())
	embed.Fields = []*discordgo.MessageEmbedField{{Name: "Razón", Value: reason}}
	_ = ctx.EditReplyEmbed(embed)
}

func (m *Module) muteCommand() *discord.Command {
	return discord.NewCommand(
		"mute",
		"Silencia a un usuario",
		"mod",
		func(ctx *discord.CommandContext) error {
			text := ctx.GetStringOption("duracion")
			var duration time.Duration
			if text != "" {
				d, ok := moderation.ParseDuration(text)
				if !ok {
					return ctx.ReplyEphemeral(invalidDuration)
				}
				duration = d
			}
			go m.memberAction(ctx, "Mute", "🔇 Usuario silenciado", colorWarning, func(target *discordgo.User, reason string) error {
				if duration <= 0 {
					settings, err := m.Engine.Settings(ctx.Context(), ctx.Interaction.GuildID)
					if err != nil {
						return err
					}
					if settings.MuteRole == "" {
						return &moderation.ValidationError{Field: "duracion", Message: "indica una duración o configura un rol de silencio con `/modconfig settings muterole`"}
					}
				}
				return m.Engine.Mute(ctx.Context(), moderation.MuteRequest{
					GuildID:     ctx.Interaction.GuildID,
					UserID:      target.ID,
					ModeratorID: ctx.User().ID,
					Duration:    duration,
					Reason:      reason,
				})
			})
			return nil
		},
	).WithOptions(
		userOption("Usuario a silenciar"),
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "duracion",
			Description: "Duración del silencio, ej. 10m o 1d (sin duración usa el rol de silencio)",
		},
		reasonOption("Razón del silencio"),
	).WithLevel(moderation.LevelModerator)
}

func (m *Module) unmuteCommand() *discord.Command {
	return discord.NewCommand(
		"unmute",
		"Quita el silencio a un usuario",
		"mod",
		func(ctx *discord.CommandContext) error {
			go m.memberAction(ctx, "Unmute", "🔊 Silencio retirado", colorSuccess, func(target *discordgo.User, reason string) error {
				return m.Engine.Unmute(ctx.Context(), ctx.Interaction.GuildID, target.ID, ctx.User().ID, reason)
			})
			return nil
		},
	).WithOptions(
		userOption("Usuario a quitar el silencio"),
		reasonOption("Razón"),
	).WithLevel(moderation.LevelModerator)
}

func (m *Module) kickCommand() *discord.Command {
	return discord.NewCommand(
		"kick",
		"Expulsa a un usuario del servidor",
		"mod",
		func(ctx *discord.CommandContext) error {
			go m.memberAction(ctx, "Kick", "👢 Usuario expulsado", colorError, func(target *discordgo.User, reason string) error {
				return m.Engine.Kick(ctx.Context(), ctx.Interaction.GuildID, target.ID, ctx.User().ID, reason)
			})
			return nil
		},
	).WithOptions(
		userOption("Usuario a expulsar"),
		reasonOption("Razón de la expulsión"),
	).WithLevel(moderation.LevelModerator)
}

func (m *Module) banCommand() *discord.Command {
	return discord.NewCommand(
		"ban",
		"Banea a un usuario del servidor",
		"mod",
		func(ctx *discord.CommandContext) error {
			go m.memberAction(ctx, "Ban", "🔨 Usuario baneado", colorError, func(target *discordgo.User, reason string) error {
				return m.Engine.Ban(ctx.Context(), ctx.Interaction.GuildID, target.ID, ctx.User().ID, reason)
			})
			return nil
		},
	).WithOptions(
		userOption("Usuario a banear"),
		reasonOption("Razón del baneo"),
	).WithLevel(moderation.LevelModerator)
}

func (m *Module) unbanCommand() *discord.Command {
	return discord.NewCommand(
		"unban",
		"Retira el baneo de un usuario",
		"mod",
		m.unbanHandler,
	).WithOptions(
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "usuario",
			Description: "ID o nombre del usuario baneado",
			Required:    true,
		},
		reasonOption("Razón"),
	).WithLevel(moderation.LevelModerator)
}

func (m *Module) unbanHandler(ctx *discord.CommandContext) error {
	go func() {
		defer errors.RecoverMiddleware()()

		ref := ctx.GetStringOption("usuario")
		if ref == "" {
			_ = ctx.ReplyEphemeral("❌ Debes especificar un usuario.")
			return
		}
		if err := ctx.Defer(); err != nil {
			logger.Error(fmt.Sprintf("Error enviando defer de unban: %v", err), "CMD-Unban")
			return
		}

		reason := ctx.GetStringOption("razon")
		if err := m.Engine.Unban(ctx.Context(), ctx.Interaction.GuildID, ref, ctx.User().ID, reason); err != nil {
			fail(ctx, "Unban", err, ctx.EditReply)
			return
		}
		_ = ctx.EditReplyEmbed(resultEmbed("🔓 Baneo retirado", fmt.Sprintf("**%s** puede volver a unirse al servidor.", ref), colorSuccess, ctx.User()))
	}()
	return nil
}

// bulkDeleteMaxAge is the oldest message age Discord bulk-deletes
const bulkDeleteMaxAge = 14 * 24 * time.Hour

var (
	minPurge = 1.0
	maxPurge = 100.0
)

func (m *Module) purgeCommand() *discord.Command {
	return discord.NewCommand(
		"purge",
		"Elimina mensajes recientes del canal",
		"mod",
		m.purgeHandler,
	).WithOptions(
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        "cantidad",
			Description: "Número de mensajes a revisar (1-100)",
			Required:    true,
			MinValue:    &minPurge,
			MaxValue:    maxPurge,
		},
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionUser,
			Name:        "usuario",
			Description: "Eliminar solo los mensajes de este usuario",
		},
	).WithLevel(moderation.LevelModerator)
}

func (m *Module) purgeHandler(ctx *discord.CommandContext) error {
	go func() {
		defer errors.RecoverMiddleware()()

		amount := int(ctx.GetIntOption("cantidad"))
		if amount < 1 || amount > 100 {
			_ = ctx.ReplyEphemeral("❌ La cantidad debe estar entre 1 y 100.")
			return
		}
		if err := ctx.DeferEphemeral(); err != nil {
			logger.Error(fmt.Sprintf("Error enviando defer de purge: %v", err), "CMD-Purge")
			return
		}

		channelID := ctx.Interaction.ChannelID
		messages, err := ctx.Session.ChannelMessages(channelID, amount, "", "", "")
		if err != nil {
			logger.Error(fmt.Sprintf("Error leyendo mensajes de %s: %v", channelID, err), "CMD-Purge")
			_ = ctx.EditReply("❌ No se pudieron leer los mensajes del canal.")
			return
		}

		var authorID string
		if u := ctx.GetUserOption("usuario"); u != nil {
			authorID = u.ID
		}
		ids := purgeable(messages, authorID, time.Now())
		if len(ids) == 0 {
			_ = ctx.EditReply("ℹ️ No hay mensajes que se puedan eliminar (los mensajes de más de 14 días no se pueden borrar en bloque).")
			return
		}

		if len(ids) == 1 {
			err = ctx.Session.ChannelMessageDelete(channelID, ids[0])
		} else {
			err = ctx.Session.ChannelMessagesBulkDelete(channelID, ids)
		}
		if err != nil {
			logger.Error(fmt.Sprintf("Error eliminando mensajes en %s: %v", channelID, err), "CMD-Purge")
			_ = ctx.EditReply("❌ No se pudieron eliminar los mensajes. ¿Tengo el permiso de gestionar mensajes?")
			return
		}

		m.Engine.Record(ctx.Context(), ctx.Interaction.GuildID, moderation.Entry{
			Action:      moderation.ActionPurge,
			UserID:      authorID,
			ModeratorID: ctx.User().ID,
			Reason:      fmt.Sprintf("%d mensajes eliminados en <#%s>", len(ids), channelID),
		})
		_ = ctx.EditReply(fmt.Sprintf("🧹 Se eliminaron **%d** mensajes.", len(ids)))
	}()
	return nil
}

// purgeable returns the ids of messages younger than the bulk delete limit,
// optionally only those written by authorID.
func purgeable(messages []*discordgo.Message, authorID string, now time.Time) []string {
	kept := lo.Filter(messages, func(msg *discordgo.Message, _ int) bool {
		if now.Sub(msg.Timestamp) >= bulkDeleteMaxAge {
			return false
		}
		return authorID == "" || (msg.Author != nil && msg.Author.ID == authorID)
	})
	return lo.Map(kept, func(msg *discordgo.Message, _ int) string { return msg.ID })
}
