package mod

import (
	"fmt"
	"strings"

	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/errors"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/models"
	"github.com/PancyStudios/PancyModGo/pkg/moderation"
	"github.com/bwmarrin/discordgo"
)

var (
	minPoints    = 0.0
	maxPoints    = 100.0
	minThreshold = 1.0
)

const invalidDuration = "❌ Duración inválida. Usa formatos como `30m`, `2h`, `7d` o `1d12h`."

func (m *Module) warnCommand() *discord.Command {
	return discord.NewCommand(
		"warn",
		"Advierte a un usuario y suma puntos",
		"mod",
		m.warnHandler,
	).WithOptions(
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionUser,
			Name:        "usuario",
			Description: "Usuario a advertir",
			Required:    true,
		},
		&discordgo.ApplicationCommandOption{
			Type:         discordgo.ApplicationCommandOptionString,
			Name:         "razon",
			Description:  "Razón de la advertencia (las razones configuradas fijan puntos y duración)",
			Required:     true,
			Autocomplete: true,
		},
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        "puntos",
			Description: "Puntos de la advertencia (por defecto 1)",
			MinValue:    &minPoints,
			MaxValue:    maxPoints,
		},
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "duracion",
			Description: "Tiempo hasta que expire, ej. 7d o 12h",
		},
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionBoolean,
			Name:        "permanente",
			Description: "La advertencia nunca expira",
		},
	).WithLevel(moderation.LevelModerator).WithAutoComplete(m.reasonAutoComplete)
}

func (m *Module) warnHandler(ctx *discord.CommandContext) error {
	go func() {
		defer errors.RecoverMiddleware()()

		target := ctx.GetUserOption("usuario")
		if target == nil {
			_ = ctx.ReplyEphemeral("❌ Debes especificar un usuario.")
			return
		}
		if target.Bot {
			_ = ctx.ReplyEphemeral("❌ No puedes advertir a un bot.")
			return
		}
		if err := canModerate(ctx, target); err != nil {
			fail(ctx, "Warn", err, ctx.ReplyEphemeral)
			return
		}

		req := moderation.WarnRequest{
			GuildID:     ctx.Interaction.GuildID,
			UserID:      target.ID,
			ModeratorID: ctx.User().ID,
			Reason:      ctx.GetStringOption("razon"),
		}
		if ctx.HasOption("puntos") {
			points := int(ctx.GetIntOption("puntos"))
			req.Points = &points
		}
		if text := ctx.GetStringOption("duracion"); text != "" {
			d, ok := moderation.ParseDuration(text)
			if !ok {
				_ = ctx.ReplyEphemeral(invalidDuration)
				return
			}
			req.Duration = d
		}
		if ctx.HasOption("permanente") {
			permanent := ctx.GetBoolOption("permanente")
			req.Permanent = &permanent
		}

		if err := ctx.Defer(); err != nil {
			logger.Error(fmt.Sprintf("Error enviando defer de warn: %v", err), "CMD-Warn")
			return
		}

		result, err := m.Engine.Warn(ctx.Context(), req)
		if result == nil {
			fail(ctx, "Warn", err, ctx.EditReply)
			return
		}

		_ = ctx.EditReplyEmbed(warnEmbed(target, result, ctx.User()))
		if err != nil {
			fail(ctx, "Castigo automático", err, ctx.Followup)
		}
	}()
	return nil
}

func warnEmbed(target *discordgo.User, result *moderation.WarnResult, by *discordgo.User) *discordgo.MessageEmbed {
	w := result.Warning
	expiry := "Permanente"
	if !w.Permanent {
		expiry = fmt.Sprintf("<t:%d:R>", w.ExpiresAt)
	}

	embed := resultEmbed("⚠️ Usuario advertido", fmt.Sprintf("**%s** ha sido advertido.", target.String()), colorWarning, by)
	embed.Fields = []*discordgo.MessageEmbedField{
		{Name: "Razón", Value: w.Reason},
		{Name: "Puntos", Value: fmt.Sprintf("+%d (total %d)", w.Points, result.TotalPoints), Inline: true},
		{Name: "Expira", Value: expiry, Inline: true},
		{Name: "ID", Value: fmt.Sprintf("`%s`", w.ID), Inline: true},
	}

	if auto := result.AutoPunishment; auto != nil {
		value := string(auto.Rule.Action)
		if auto.Rule.Duration > 0 {
			value += " (" + moderation.FormatSeconds(auto.Rule.Duration) + ")"
		}
		if auto.Err != nil {
			value += " - falló"
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  fmt.Sprintf("🔨 Castigo automático (%d puntos)", auto.Rule.Threshold),
			Value: value,
		})
	}
	return embed
}

// reasonAutoComplete suggests the configured warn reasons
func (m *Module) reasonAutoComplete(ctx *discord.CommandContext) {
	go func() {
		defer errors.RecoverMiddleware()()

		reasons, err := m.Engine.Reasons(ctx.Context(), ctx.Interaction.GuildID)
		if err != nil {
			logger.Warn(fmt.Sprintf("Autocompletado de razones falló: %v", err), "CMD-Warn")
			return
		}
		_ = ctx.SendAutoCompleteChoices(reasonChoices(reasons, ctx.GetStringOption("razon")))
	}()
}

func reasonChoices(reasons []models.WarnReason, typed string) []*discordgo.ApplicationCommandOptionChoice {
	typed = strings.ToLower(strings.TrimSpace(typed))
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, 25)
	for _, r := range reasons {
		if len(choices) == 25 {
			break
		}
		if typed != "" && !strings.Contains(strings.ToLower(r.Name), typed) {
			continue
		}
		label := fmt.Sprintf("%s (%d pts, %s)", r.Name, r.Points, reasonExpiry(r))
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{
			Name:  truncate(label, 100),
			Value: r.Name,
		})
	}
	return choices
}

func reasonExpiry(r models.WarnReason) string {
	if r.Permanent || r.Duration <= 0 {
		return "permanente"
	}
	return moderation.FormatSeconds(r.Duration)
}
