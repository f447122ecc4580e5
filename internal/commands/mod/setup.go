package mod

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/moderation"
	"github.com/bwmarrin/discordgo"
)

// Setup component steps, the first custom id argument
const (
	setupAdd         = "add"
	setupRemove      = "remove"
	setupSave        = "save"
	setupCancel      = "cancel"
	setupAddModal    = "addmodal"
	setupRemoveModal = "removemodal"

	fieldThreshold = "threshold"
	fieldAction    = "action"
	fieldDuration  = "duration"
)

func (m *Module) punishmentSetupCommand() *discord.Command {
	return discord.NewCommand(
		"setup",
		"Editor interactivo de castigos. Los cambios se guardan al pulsar Guardar",
		"modconfig",
		func(ctx *discord.CommandContext) error {
			session, err := m.Sessions.Open(ctx.Context(), ctx.Interaction.GuildID, ctx.User().ID)
			if err != nil {
				fail(ctx, "Setup", err, ctx.ReplyEphemeral)
				return nil
			}
			return ctx.ReplyComponents(setupEmbed(session), setupButtons(false)...)
		},
	).WithLevel(moderation.LevelAdmin)
}

func setupEmbed(session *moderation.SetupSession) *discordgo.MessageEmbed {
	embed := rulesEmbed("🛠️ Configuración de castigos", session.Rules())
	embed.Color = colorWarning
	embed.Fields = []*discordgo.MessageEmbedField{{
		Name:  "Cambios sin guardar",
		Value: strconv.Itoa(session.Pending()),
	}}
	embed.Footer = &discordgo.MessageEmbedFooter{Text: "La sesión se descarta tras un minuto sin actividad."}
	return embed
}

func setupButtons(disabled bool) []discordgo.MessageComponent {
	button := func(label, step string, style discordgo.ButtonStyle) discordgo.MessageComponent {
		return discordgo.Button{
			Label:    label,
			Style:    style,
			CustomID: discord.CustomID(prefixSetup, step),
			Disabled: disabled,
		}
	}
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			button("Agregar / editar", setupAdd, discordgo.PrimaryButton),
			button("Quitar", setupRemove, discordgo.SecondaryButton),
			button("Guardar", setupSave, discordgo.SuccessButton),
			button("Cancelar", setupCancel, discordgo.DangerButton),
		}},
	}
}

func (m *Module) handleSetupComponent(ctx *discord.CommandContext) error {
	if len(ctx.Args) == 0 {
		return errors.New("custom id de setup sin paso")
	}
	guildID, moderatorID := ctx.Interaction.GuildID, ctx.User().ID

	switch ctx.Args[0] {
	case setupAdd:
		if _, ok := m.Sessions.Get(guildID, moderatorID); !ok {
			return m.expired(ctx)
		}
		return ctx.ShowModal(discord.CustomID(prefixSetup, setupAddModal), "Agregar o editar castigo",
			discordgo.TextInput{CustomID: fieldThreshold, Label: "Puntos", Style: discordgo.TextInputShort, Placeholder: "5", Required: true, MaxLength: 6},
			discordgo.TextInput{CustomID: fieldAction, Label: "Acción (mute, kick, ban, warn)", Style: discordgo.TextInputShort, Placeholder: "mute", Required: true, MaxLength: 10},
			discordgo.TextInput{CustomID: fieldDuration, Label: "Duración (solo mute)", Style: discordgo.TextInputShort, Placeholder: "1h", MaxLength: 20},
		)

	case setupRemove:
		if _, ok := m.Sessions.Get(guildID, moderatorID); !ok {
			return m.expired(ctx)
		}
		return ctx.ShowModal(discord.CustomID(prefixSetup, setupRemoveModal), "Quitar castigo",
			discordgo.TextInput{CustomID: fieldThreshold, Label: "Puntos del castigo a quitar", Style: discordgo.TextInputShort, Required: true, MaxLength: 6},
		)

	case setupAddModal:
		threshold, err := parseThreshold(ctx.ModalValue(fieldThreshold))
		if err != nil {
			return ctx.ReplyEphemeral(errorText(err))
		}
		rule, err := moderation.NewRule(threshold, ctx.ModalValue(fieldAction), ctx.ModalValue(fieldDuration))
		if err != nil {
			return ctx.ReplyEphemeral(errorText(err))
		}
		session, err := m.Sessions.Upsert(guildID, moderatorID, rule)
		if err != nil {
			return m.expired(ctx)
		}
		return ctx.UpdateMessage(setupEmbed(session), setupButtons(false)...)

	case setupRemoveModal:
		threshold, err := parseThreshold(ctx.ModalValue(fieldThreshold))
		if err != nil {
			return ctx.ReplyEphemeral(errorText(err))
		}
		session, err := m.Sessions.Remove(guildID, moderatorID, threshold)
		switch {
		case session == nil:
			return m.expired(ctx)
		case err != nil:
			return ctx.ReplyEphemeral(errorText(err))
		}
		return ctx.UpdateMessage(setupEmbed(session), setupButtons(false)...)

	case setupSave:
		rules, err := m.Sessions.Commit(ctx.Context(), guildID, moderatorID)
		if err != nil {
			if errors.Is(err, moderation.ErrNoSession) {
				return m.expired(ctx)
			}
			logger.Error(fmt.Sprintf("Error guardando castigos de %s: %v", guildID, err), "CMD-Setup")
			return ctx.UpdateMessage(resultEmbed("❌ Error", errorText(err), colorError, ctx.User()))
		}
		embed := rulesEmbed("✅ Castigos guardados", rules)
		embed.Color = colorSuccess
		return ctx.UpdateMessage(embed)

	case setupCancel:
		m.Sessions.Cancel(guildID, moderatorID)
		return ctx.UpdateMessage(resultEmbed("❎ Configuración cancelada", "No se guardó ningún cambio.", colorInfo, ctx.User()))
	}
	return fmt.Errorf("paso de setup desconocido %q", ctx.Args[0])
}

// expired replaces the setup message once the session is gone
func (m *Module) expired(ctx *discord.CommandContext) error {
	return ctx.UpdateMessage(resultEmbed("⌛ Sesión expirada", errorText(moderation.ErrNoSession), colorError, ctx.User()))
}

func parseThreshold(text string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || n < 1 {
		return 0, &moderation.ValidationError{Field: "puntos", Message: "debe ser un número entero positivo"}
	}
	return n, nil
}
