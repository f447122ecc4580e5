package mod

import (
	"fmt"
	"strings"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/errors"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/moderation"
	"github.com/bwmarrin/discordgo"
)

// maxListed keeps the warnings embed under the description limit
const maxListed = 15

func (m *Module) warningsCommand() *discord.Command {
	return discord.NewCommand(
		"warnings",
		"Lista las advertencias de un usuario",
		"mod",
		m.warningsHandler,
	).WithOptions(
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionUser,
			Name:        "usuario",
			Description: "[STAFF] Usuario a consultar (por defecto tú)",
		},
	)
}

// warningsHandler lets anyone see their own warnings. Looking at someone
// else's requires the moderator level.
func (m *Module) warningsHandler(ctx *discord.CommandContext) error {
	go func() {
		defer errors.RecoverMiddleware()()

		if ctx.Interaction.GuildID == "" {
			_ = ctx.ReplyEphemeral("❌ Este comando solo puede usarse dentro de un servidor.")
			return
		}

		target := ctx.GetUserOption("usuario")
		isModerator := m.authorize(ctx, moderation.LevelModerator) == nil
		if target == nil {
			target = ctx.User()
		}
		if target.ID != ctx.User().ID && !isModerator {
			_ = ctx.ReplyEphemeral("❌ No tienes permisos para ver la lista de advertencias de otro usuario.")
			return
		}

		if err := ctx.DeferEphemeral(); err != nil {
			logger.Error(fmt.Sprintf("Error enviando defer de warnings: %v", err), "CMD-Warnings")
			return
		}

		active, expired, err := m.Engine.Warnings(ctx.Context(), ctx.Interaction.GuildID, target.ID)
		if err != nil {
			fail(ctx, "Warnings", err, ctx.EditReply)
			return
		}
		_ = ctx.EditReplyEmbed(warningsEmbed(target, active, expired, isModerator, time.Now()))
	}()
	return nil
}

// warningsEmbed lists active warnings first. Moderator ids are only shown
// to moderators.
func warningsEmbed(target *discordgo.User, active, expired moderation.WarningList, showModerator bool, now time.Time) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:  fmt.Sprintf("🔖 - Advertencias de %s", target.Username),
		Color:  colorSuccess,
		Footer: &discordgo.MessageEmbedFooter{Text: footerText},
	}

	if len(active) == 0 && len(expired) == 0 {
		embed.Description = fmt.Sprintf("No se han encontrado advertencias del usuario en este servidor\n\n> 💫 - **Puntos activos:** 0\n> 🕒 - **Fecha de consulta:** <t:%d>", now.Unix())
		return embed
	}

	embed.Color = colorWarning
	var sb strings.Builder
	listed := 0
	write := func(list moderation.WarningList, state string) {
		for _, w := range list {
			if listed == maxListed {
				return
			}
			listed++
			fmt.Fprintf(&sb, "> **%s** %s\n", w.Reason, state)
			fmt.Fprintf(&sb, "> **Puntos:** %d | **ID:** `%s`\n", w.Points, w.ID)
			if showModerator {
				moderator := "Sistema"
				if w.Moderator != "" {
					moderator = "<@" + w.Moderator + ">"
				}
				fmt.Fprintf(&sb, "> **Moderador:** %s\n", moderator)
			}
			switch {
			case w.Permanent:
				sb.WriteString("> **Expira:** Nunca\n\n")
			case state == "":
				fmt.Fprintf(&sb, "> **Expira:** <t:%d:R>\n\n", w.ExpiresAt)
			default:
				fmt.Fprintf(&sb, "> **Expiró:** <t:%d:R>\n\n", w.ExpiresAt)
			}
		}
	}
	write(active, "")
	write(expired, "(expirada)")

	if hidden := len(active) + len(expired) - listed; hidden > 0 {
		fmt.Fprintf(&sb, "*... y %d más*\n\n", hidden)
	}
	fmt.Fprintf(&sb, "> 💫 - **Puntos activos:** %d\n> 🔖 - **Advertencias activas:** %d\n> 🕒 - **Fecha de consulta:** <t:%d>",
		active.ActivePoints(now), len(active), now.Unix())

	embed.Description = sb.String()
	return embed
}

func (m *Module) clearWarnsCommand() *discord.Command {
	return discord.NewCommand(
		"clearwarns",
		"Elimina todas las advertencias de un usuario",
		"mod",
		m.clearWarnsHandler,
	).WithOptions(
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionUser,
			Name:        "usuario",
			Description: "Usuario a limpiar",
			Required:    true,
		},
	).WithLevel(moderation.LevelModerator)
}

// clearWarnsHandler asks for confirmation. Only the moderator who ran the
// command can press the buttons.
func (m *Module) clearWarnsHandler(ctx *discord.CommandContext) error {
	target := ctx.GetUserOption("usuario")
	if target == nil {
		return ctx.ReplyEphemeral("❌ Debes especificar un usuario.")
	}

	embed := resultEmbed("🗑️ Confirmar limpieza",
		fmt.Sprintf("¿Seguro que quieres eliminar **todas** las advertencias de **%s**?\nEsta acción no se puede deshacer.", target.String()),
		colorWarning, ctx.User())

	row := discordgo.ActionsRow{Components: []discordgo.MessageComponent{
		discordgo.Button{
			Label:    "Confirmar",
			Style:    discordgo.DangerButton,
			CustomID: discord.CustomID(prefixClearWarns, "confirm", target.ID, ctx.User().ID),
		},
		discordgo.Button{
			Label:    "Cancelar",
			Style:    discordgo.SecondaryButton,
			CustomID: discord.CustomID(prefixClearWarns, "cancel", target.ID, ctx.User().ID),
		},
	}}
	return ctx.ReplyComponents(embed, row)
}

func (m *Module) handleClearWarnsButton(ctx *discord.CommandContext) error {
	if len(ctx.Args) != 3 {
		return fmt.Errorf("custom id inválido: %v", ctx.Args)
	}
	action, userID, moderatorID := ctx.Args[0], ctx.Args[1], ctx.Args[2]
	if ctx.User().ID != moderatorID {
		return ctx.ReplyEphemeral("❌ Solo quien ejecutó el comando puede confirmar.")
	}

	if action != "confirm" {
		return ctx.UpdateMessage(resultEmbed("❎ Cancelado", "No se eliminó ninguna advertencia.", colorInfo, ctx.User()))
	}

	if err := m.Engine.ClearWarnings(ctx.Context(), ctx.Interaction.GuildID, userID, moderatorID); err != nil {
		logger.Error(fmt.Sprintf("Error limpiando advertencias de %s: %v", userID, err), "CMD-ClearWarns")
		return ctx.UpdateMessage(resultEmbed("❌ Error", errorText(err), colorError, ctx.User()))
	}
	return ctx.UpdateMessage(resultEmbed("✅ Advertencias eliminadas",
		fmt.Sprintf("Se eliminaron todas las advertencias de <@%s>.", userID), colorSuccess, ctx.User()))
}

func (m *Module) removeWarnCommand() *discord.Command {
	return discord.NewCommand(
		"removewarn",
		"Elimina una advertencia específica de un usuario",
		"mod",
		m.removeWarnHandler,
	).WithOptions(
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionUser,
			Name:        "usuario",
			Description: "Usuario del cual eliminar la advertencia",
			Required:    true,
		},
		&discordgo.ApplicationCommandOption{
			Type:         discordgo.ApplicationCommandOptionString,
			Name:         "id",
			Description:  "ID de la advertencia a eliminar",
			Required:     true,
			Autocomplete: true,
		},
	).WithLevel(moderation.LevelModerator).WithAutoComplete(m.removeWarnAutoComplete)
}

func (m *Module) removeWarnHandler(ctx *discord.CommandContext) error {
	go func() {
		defer errors.RecoverMiddleware()()

		target := ctx.GetUserOption("usuario")
		warnID := strings.TrimSpace(ctx.GetStringOption("id"))
		if target == nil || warnID == "" {
			_ = ctx.ReplyEphemeral("❌ Debes especificar un usuario y el ID de la advertencia.")
			return
		}

		if err := ctx.DeferEphemeral(); err != nil {
			logger.Error(fmt.Sprintf("Error enviando defer de removewarn: %v", err), "CMD-RemoveWarn")
			return
		}

		removed, err := m.Engine.RemoveWarning(ctx.Context(), ctx.Interaction.GuildID, target.ID, warnID, ctx.User().ID)
		if err != nil {
			fail(ctx, "RemoveWarn", err, ctx.EditReply)
			return
		}

		_ = ctx.EditReplyEmbed(resultEmbed("✅ Advertencia eliminada con éxito",
			fmt.Sprintf("La advertencia de **%s** ha sido eliminada.\n\n**Razón original:** %s\n**Puntos:** %d\n**ID:** `%s`",
				target.String(), removed.Reason, removed.Points, warnID),
			colorSuccess, ctx.User()))
	}()
	return nil
}

func (m *Module) removeWarnAutoComplete(ctx *discord.CommandContext) {
	go func() {
		defer errors.RecoverMiddleware()()

		opt := ctx.GetOption("usuario")
		if opt == nil {
			_ = ctx.SendAutoCompleteChoices(nil)
			return
		}
		userID, _ := opt.Value.(string)

		active, _, err := m.Engine.Warnings(ctx.Context(), ctx.Interaction.GuildID, userID)
		if err != nil {
			logger.Warn(fmt.Sprintf("Autocompletado de advertencias falló: %v", err), "CMD-RemoveWarn")
			return
		}

		choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, 25)
		for _, w := range active {
			if len(choices) == 25 {
				break
			}
			choices = append(choices, &discordgo.ApplicationCommandOptionChoice{
				Name:  truncate(fmt.Sprintf("%s - %s (%d pts)", w.ID[:min(8, len(w.ID))], w.Reason, w.Points), 100),
				Value: w.ID,
			})
		}
		_ = ctx.SendAutoCompleteChoices(choices)
	}()
}
