package mod

import (
	"fmt"
	"strings"

	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/models"
	"github.com/PancyStudios/PancyModGo/pkg/moderation"
	"github.com/bwmarrin/discordgo"
)

var actionChoices = []*discordgo.ApplicationCommandOptionChoice{
	{Name: "Silenciar", Value: string(models.ActionMute)},
	{Name: "Expulsar", Value: string(models.ActionKick)},
	{Name: "Banear", Value: string(models.ActionBan)},
	{Name: "Advertir", Value: string(models.ActionWarn)},
}

func (m *Module) reasonAddCommand() *discord.Command {
	return discord.NewCommand(
		"add",
		"Crea o reemplaza una razón de advertencia",
		"modconfig",
		func(ctx *discord.CommandContext) error {
			reason, err := m.Engine.SetReason(ctx.Context(), ctx.Interaction.GuildID,
				ctx.GetStringOption("nombre"),
				int(ctx.GetIntOption("puntos")),
				ctx.GetStringOption("duracion"),
				ctx.GetBoolOption("permanente"),
			)
			if err != nil {
				fail(ctx, "ReasonAdd", err, ctx.ReplyEphemeral)
				return nil
			}
			return ctx.ReplyEphemeralEmbed(resultEmbed("✅ Razón guardada",
				fmt.Sprintf("**%s**: %d puntos, %s", reason.Name, reason.Points, reasonExpiry(reason)),
				colorSuccess, ctx.User()))
		},
	).WithOptions(
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "nombre",
			Description: "Nombre de la razón",
			Required:    true,
			MaxLength:   100,
		},
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        "puntos",
			Description: "Puntos que suma",
			Required:    true,
			MinValue:    &minPoints,
			MaxValue:    maxPoints,
		},
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "duracion",
			Description: "Tiempo hasta que expire, ej. 30d (sin duración es permanente)",
		},
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionBoolean,
			Name:        "permanente",
			Description: "La advertencia nunca expira",
		},
	).WithLevel(moderation.LevelAdmin)
}

func (m *Module) reasonRemoveCommand() *discord.Command {
	return discord.NewCommand(
		"remove",
		"Elimina una razón de advertencia",
		"modconfig",
		func(ctx *discord.CommandContext) error {
			name := ctx.GetStringOption("nombre")
			if err := m.Engine.RemoveReason(ctx.Context(), ctx.Interaction.GuildID, name); err != nil {
				fail(ctx, "ReasonRemove", err, ctx.ReplyEphemeral)
				return nil
			}
			return ctx.ReplyEphemeral(fmt.Sprintf("✅ La razón **%s** fue eliminada.", name))
		},
	).WithOptions(
		&discordgo.ApplicationCommandOption{
			Type:         discordgo.ApplicationCommandOptionString,
			Name:         "nombre",
			Description:  "Nombre de la razón",
			Required:     true,
			Autocomplete: true,
		},
	).WithLevel(moderation.LevelAdmin).WithAutoComplete(m.reasonNameAutoComplete)
}

func (m *Module) reasonNameAutoComplete(ctx *discord.CommandContext) {
	reasons, err := m.Engine.Reasons(ctx.Context(), ctx.Interaction.GuildID)
	if err != nil {
		return
	}
	_ = ctx.SendAutoCompleteChoices(reasonChoices(reasons, ctx.GetStringOption("nombre")))
}

func (m *Module) reasonListCommand() *discord.Command {
	return discord.NewCommand(
		"list",
		"Muestra las razones de advertencia",
		"modconfig",
		func(ctx *discord.CommandContext) error {
			reasons, err := m.Engine.Reasons(ctx.Context(), ctx.Interaction.GuildID)
			if err != nil {
				fail(ctx, "ReasonList", err, ctx.ReplyEphemeral)
				return nil
			}
			return ctx.ReplyEphemeralEmbed(reasonsEmbed(reasons))
		},
	).WithLevel(moderation.LevelAdmin)
}

func reasonsEmbed(reasons []models.WarnReason) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:  "📋 Razones de advertencia",
		Color:  colorInfo,
		Footer: &discordgo.MessageEmbedFooter{Text: footerText},
	}
	if len(reasons) == 0 {
		embed.Description = "No hay razones configuradas. Usa `/modconfig reason add`."
		return embed
	}
	var sb strings.Builder
	for _, r := range reasons {
		fmt.Fprintf(&sb, "> **%s**: %d puntos, %s\n", r.Name, r.Points, reasonExpiry(r))
	}
	embed.Description = sb.String()
	return embed
}

func (m *Module) punishmentAddCommand() *discord.Command {
	return discord.NewCommand(
		"add",
		"Crea o reemplaza el castigo de un umbral de puntos",
		"modconfig",
		func(ctx *discord.CommandContext) error {
			rule, err := m.Engine.SetPunishment(ctx.Context(), ctx.Interaction.GuildID,
				int(ctx.GetIntOption("puntos")),
				ctx.GetStringOption("accion"),
				ctx.GetStringOption("duracion"),
			)
			if err != nil {
				fail(ctx, "PunishmentAdd", err, ctx.ReplyEphemeral)
				return nil
			}
			return ctx.ReplyEphemeral(fmt.Sprintf("✅ Castigo guardado: %s", ruleLine(rule)))
		},
	).WithOptions(
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        "puntos",
			Description: "Puntos necesarios",
			Required:    true,
			MinValue:    &minThreshold,
		},
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "accion",
			Description: "Acción a aplicar",
			Required:    true,
			Choices:     actionChoices,
		},
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "duracion",
			Description: "Duración del silencio, ej. 1h (solo para silenciar)",
		},
	).WithLevel(moderation.LevelAdmin)
}

func (m *Module) punishmentRemoveCommand() *discord.Command {
	return discord.NewCommand(
		"remove",
		"Elimina el castigo de un umbral de puntos",
		"modconfig",
		func(ctx *discord.CommandContext) error {
			threshold := int(ctx.GetIntOption("puntos"))
			if err := m.Engine.RemovePunishment(ctx.Context(), ctx.Interaction.GuildID, threshold); err != nil {
				fail(ctx, "PunishmentRemove", err, ctx.ReplyEphemeral)
				return nil
			}
			return ctx.ReplyEphemeral(fmt.Sprintf("✅ Se eliminó el castigo de **%d** puntos.", threshold))
		},
	).WithOptions(
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        "puntos",
			Description: "Umbral del castigo",
			Required:    true,
		},
	).WithLevel(moderation.LevelAdmin)
}

func (m *Module) punishmentListCommand() *discord.Command {
	return discord.NewCommand(
		"list",
		"Muestra los castigos automáticos",
		"modconfig",
		func(ctx *discord.CommandContext) error {
			rules, err := m.Engine.Punishments(ctx.Context(), ctx.Interaction.GuildID)
			if err != nil {
				fail(ctx, "PunishmentList", err, ctx.ReplyEphemeral)
				return nil
			}
			return ctx.ReplyEphemeralEmbed(rulesEmbed("⚖️ Castigos automáticos", rules))
		},
	).WithLevel(moderation.LevelAdmin)
}

func ruleLine(rule models.PunishmentRule) string {
	line := fmt.Sprintf("**%d puntos** → %s", rule.Threshold, rule.Action)
	if rule.Action == models.ActionMute {
		if rule.Duration > 0 {
			line += " (" + moderation.FormatSeconds(rule.Duration) + ")"
		} else {
			line += " (rol de silencio)"
		}
	}
	return line
}

func rulesEmbed(title string, rules *moderation.RuleSet) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:  title,
		Color:  colorInfo,
		Footer: &discordgo.MessageEmbedFooter{Text: footerText},
	}
	if rules.Len() == 0 {
		embed.Description = "No hay castigos configurados."
		return embed
	}
	var sb strings.Builder
	for rule := range rules.All() {
		sb.WriteString("> " + ruleLine(rule) + "\n")
	}
	embed.Description = sb.String()
	return embed
}
