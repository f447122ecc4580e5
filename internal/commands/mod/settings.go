package mod

import (
	"fmt"
	"slices"
	"strings"

	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/errors"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/models"
	"github.com/PancyStudios/PancyModGo/pkg/moderation"
	"github.com/bwmarrin/discordgo"
)

const (
	muteRoleName  = "Muted"
	muteRoleDeny  = discordgo.PermissionSendMessages | discordgo.PermissionSendMessagesInThreads | discordgo.PermissionAddReactions | discordgo.PermissionVoiceSpeak
	fieldTemplate = "template"
)

func (m *Module) settingsViewCommand() *discord.Command {
	return discord.NewCommand(
		"view",
		"Muestra la configuración de moderación",
		"modconfig",
		func(ctx *discord.CommandContext) error {
			settings, err := m.Engine.Settings(ctx.Context(), ctx.Interaction.GuildID)
			if err != nil {
				fail(ctx, "Settings", err, ctx.ReplyEphemeral)
				return nil
			}
			return ctx.ReplyEphemeralEmbed(settingsEmbed(settings))
		},
	).WithLevel(moderation.LevelAdmin)
}

func mentionAll(ids []string, format string) string {
	if len(ids) == 0 {
		return "Ninguno"
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = fmt.Sprintf(format, id)
	}
	return strings.Join(out, ", ")
}

func onOff(v bool) string {
	if v {
		return "✅ Activado"
	}
	return "❌ Desactivado"
}

func settingsEmbed(s *models.GuildSettings) *discordgo.MessageEmbed {
	logChannel, muteRole := "No configurado", "No configurado"
	if s.ModLogChannel != "" {
		logChannel = "<#" + s.ModLogChannel + ">"
	}
	if s.MuteRole != "" {
		muteRole = "<@&" + s.MuteRole + ">"
	}
	return &discordgo.MessageEmbed{
		Title: "⚙️ Configuración de moderación",
		Color: colorInfo,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Roles de moderador", Value: mentionAll(s.ModRoles, "<@&%s>")},
			{Name: "Roles de administrador", Value: mentionAll(s.AdminRoles, "<@&%s>")},
			{Name: "Canal de registros", Value: logChannel, Inline: true},
			{Name: "Rol de silencio", Value: muteRole, Inline: true},
			{Name: "Mensajes directos", Value: onOff(s.DMNotify), Inline: true},
			{Name: "Sincronizar permisos", Value: onOff(s.SyncPermissions), Inline: true},
			{Name: "Castigos", Value: fmt.Sprintf("%d", len(s.Punishments)), Inline: true},
			{Name: "Razones", Value: fmt.Sprintf("%d", len(s.WarnReasons)), Inline: true},
			{Name: "Plantilla de MD", Value: "```" + truncate(s.DMTemplate, 1000) + "```"},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: footerText},
	}
}

var roleActionOption = &discordgo.ApplicationCommandOption{
	Type:        discordgo.ApplicationCommandOptionString,
	Name:        "accion",
	Description: "Agregar o quitar el rol",
	Required:    true,
	Choices: []*discordgo.ApplicationCommandOptionChoice{
		{Name: "Agregar", Value: "add"},
		{Name: "Quitar", Value: "remove"},
	},
}

// toggleRole adds or removes id from the role set selected by pick
func toggleRole(add bool, id string, pick func(*models.GuildSettings) *[]string) func(*models.GuildSettings) error {
	return func(s *models.GuildSettings) error {
		roles := pick(s)
		has := slices.Contains(*roles, id)
		switch {
		case add && has:
			return &moderation.ValidationError{Field: "rol", Message: "el rol ya está en la lista"}
		case !add && !has:
			return &moderation.ValidationError{Field: "rol", Message: "el rol no está en la lista"}
		case add:
			*roles = append(*roles, id)
		default:
			*roles = slices.DeleteFunc(*roles, func(r string) bool { return r == id })
		}
		return nil
	}
}

func (m *Module) roleSetCommand(name, description, label string, pick func(*models.GuildSettings) *[]string) *discord.Command {
	return discord.NewCommand(
		name,
		description,
		"modconfig",
		func(ctx *discord.CommandContext) error {
			role := ctx.GetRoleOption("rol")
			if role == nil {
				return ctx.ReplyEphemeral("❌ Debes especificar un rol.")
			}
			add := ctx.GetStringOption("accion") == "add"
			settings, err := m.Engine.UpdateSettings(ctx.Context(), ctx.Interaction.GuildID, toggleRole(add, role.ID, pick))
			if err != nil {
				fail(ctx, "RoleSet", err, ctx.ReplyEphemeral)
				return nil
			}
			return ctx.ReplyEphemeral(fmt.Sprintf("✅ %s: %s", label, mentionAll(*pick(settings), "<@&%s>")))
		},
	).WithOptions(
		roleActionOption,
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionRole,
			Name:        "rol",
			Description: "Rol",
			Required:    true,
		},
	).WithLevel(moderation.LevelAdmin)
}

func (m *Module) modRoleCommand() *discord.Command {
	return m.roleSetCommand("modrole", "Roles con nivel de moderador", "Roles de moderador",
		func(s *models.GuildSettings) *[]string { return &s.ModRoles })
}

func (m *Module) adminRoleCommand() *discord.Command {
	return m.roleSetCommand("adminrole", "Roles con nivel de administrador", "Roles de administrador",
		func(s *models.GuildSettings) *[]string { return &s.AdminRoles })
}

func (m *Module) logChannelCommand() *discord.Command {
	return discord.NewCommand(
		"logchannel",
		"Canal donde se registran las acciones (vacío para desactivar)",
		"modconfig",
		func(ctx *discord.CommandContext) error {
			var channelID string
			if ch := ctx.GetChannelOption("canal"); ch != nil {
				channelID = ch.ID
			}
			_, err := m.Engine.UpdateSettings(ctx.Context(), ctx.Interaction.GuildID, func(s *models.GuildSettings) error {
				s.ModLogChannel = channelID
				return nil
			})
			if err != nil {
				fail(ctx, "LogChannel", err, ctx.ReplyEphemeral)
				return nil
			}
			if channelID == "" {
				return ctx.ReplyEphemeral("✅ Registro de moderación desactivado.")
			}
			return ctx.ReplyEphemeral(fmt.Sprintf("✅ Las acciones se registrarán en <#%s>.", channelID))
		},
	).WithOptions(
		&discordgo.ApplicationCommandOption{
			Type:         discordgo.ApplicationCommandOptionChannel,
			Name:         "canal",
			Description:  "Canal de registros",
			ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
		},
	).WithLevel(moderation.LevelAdmin)
}

func (m *Module) boolSettingCommand(name, description, label string, set func(*models.GuildSettings, bool)) *discord.Command {
	return discord.NewCommand(
		name,
		description,
		"modconfig",
		func(ctx *discord.CommandContext) error {
			enabled := ctx.GetBoolOption("activado")
			_, err := m.Engine.UpdateSettings(ctx.Context(), ctx.Interaction.GuildID, func(s *models.GuildSettings) error {
				set(s, enabled)
				return nil
			})
			if err != nil {
				fail(ctx, name, err, ctx.ReplyEphemeral)
				return nil
			}
			return ctx.ReplyEphemeral(fmt.Sprintf("%s: %s", label, onOff(enabled)))
		},
	).WithOptions(
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionBoolean,
			Name:        "activado",
			Description: "Activar o desactivar",
			Required:    true,
		},
	).WithLevel(moderation.LevelAdmin)
}

func (m *Module) toggleDMCommand() *discord.Command {
	return m.boolSettingCommand("toggledm", "Avisar por mensaje directo a los usuarios sancionados", "Mensajes directos",
		func(s *models.GuildSettings, v bool) { s.DMNotify = v })
}

func (m *Module) syncPermsCommand() *discord.Command {
	return m.boolSettingCommand("syncperms", "Usar los permisos de Discord (gestionar mensajes/servidor) como niveles", "Sincronizar permisos",
		func(s *models.GuildSettings, v bool) { s.SyncPermissions = v })
}

func (m *Module) dmTemplateCommand() *discord.Command {
	return discord.NewCommand(
		"dmtemplate",
		"Edita la plantilla del mensaje directo",
		"modconfig",
		func(ctx *discord.CommandContext) error {
			settings, err := m.Engine.Settings(ctx.Context(), ctx.Interaction.GuildID)
			if err != nil {
				fail(ctx, "DMTemplate", err, ctx.ReplyEphemeral)
				return nil
			}
			return ctx.ShowModal(discord.CustomID(prefixDMTemplate), "Plantilla de mensaje directo",
				discordgo.TextInput{
					CustomID:    fieldTemplate,
					Label:       "Plantilla del mensaje",
					Style:       discordgo.TextInputParagraph,
					Value:       settings.DMTemplate,
					Placeholder: "Variables: {user} {action} {reason} {points} {duration} {guild}",
					MaxLength:   1500,
				},
			)
		},
	).WithLevel(moderation.LevelAdmin)
}

// handleDMTemplateModal saves the template. An empty template restores the default.
func (m *Module) handleDMTemplateModal(ctx *discord.CommandContext) error {
	template := ctx.ModalValue(fieldTemplate)
	if template == "" {
		template = models.DefaultDMTemplate
	}
	_, err := m.Engine.UpdateSettings(ctx.Context(), ctx.Interaction.GuildID, func(s *models.GuildSettings) error {
		s.DMTemplate = template
		return nil
	})
	if err != nil {
		fail(ctx, "DMTemplate", err, ctx.ReplyEphemeral)
		return nil
	}

	guildName := ctx.Interaction.GuildID
	if guild := ctx.Guild(); guild != nil {
		guildName = guild.Name
	}
	preview := moderation.Notification{
		Action:   "warning",
		Reason:   "Spam",
		Points:   3,
		Duration: "7 days",
		Template: template,
	}.Render(guildName, ctx.User().Username)
	return ctx.ReplyEphemeral("✅ Plantilla guardada. Vista previa:\n>>> " + preview)
}

func (m *Module) muteRoleCommand() *discord.Command {
	return discord.NewCommand(
		"muterole",
		"Rol aplicado al silenciar (vacío para usar solo aislamiento temporal)",
		"modconfig",
		m.muteRoleHandler,
	).WithOptions(
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionRole,
			Name:        "rol",
			Description: "Rol de silencio existente",
		},
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionBoolean,
			Name:        "crear",
			Description: "Crear un rol \"Muted\" y bloquearlo en todos los canales",
		},
	).WithLevel(moderation.LevelAdmin)
}

func (m *Module) muteRoleHandler(ctx *discord.CommandContext) error {
	go func() {
		defer errors.RecoverMiddleware()()

		if err := ctx.DeferEphemeral(); err != nil {
			logger.Error(fmt.Sprintf("Error enviando defer de muterole: %v", err), "CMD-MuteRole")
			return
		}

		guildID := ctx.Interaction.GuildID
		var roleID string
		if role := ctx.GetRoleOption("rol"); role != nil {
			roleID = role.ID
		}

		if roleID == "" && ctx.GetBoolOption("crear") {
			created, failed, err := createMuteRole(ctx.Session, guildID)
			if err != nil {
				logger.Error(fmt.Sprintf("Error creando el rol de silencio en %s: %v", guildID, err), "CMD-MuteRole")
				_ = ctx.EditReply("❌ No se pudo crear el rol. ¿Tengo el permiso de gestionar roles?")
				return
			}
			if failed > 0 {
				logger.Warn(fmt.Sprintf("No se pudo bloquear el rol de silencio en %d canales de %s", failed, guildID), "CMD-MuteRole")
			}
			roleID = created
		}

		_, err := m.Engine.UpdateSettings(ctx.Context(), guildID, func(s *models.GuildSettings) error {
			s.MuteRole = roleID
			return nil
		})
		if err != nil {
			fail(ctx, "MuteRole", err, ctx.EditReply)
			return
		}
		if roleID == "" {
			_ = ctx.EditReply("✅ Rol de silencio desactivado. Los silencios usarán solo el aislamiento temporal.")
			return
		}
		_ = ctx.EditReply(fmt.Sprintf("✅ Rol de silencio: <@&%s>", roleID))
	}()
	return nil
}

// createMuteRole creates the mute role and denies it speaking in every
// channel. It returns how many channels could not be updated.
func createMuteRole(s *discordgo.Session, guildID string) (string, int, error) {
	perms := int64(0)
	role, err := s.GuildRoleCreate(guildID, &discordgo.RoleParams{Name: muteRoleName, Permissions: &perms})
	if err != nil {
		return "", 0, err
	}

	channels, err := s.GuildChannels(guildID)
	if err != nil {
		return role.ID, 0, nil
	}
	failed := 0
	for _, ch := range channels {
		if ch.IsThread() {
			continue
		}
		if err := s.ChannelPermissionSet(ch.ID, role.ID, discordgo.PermissionOverwriteTypeRole, 0, muteRoleDeny); err != nil {
			failed++
		}
	}
	return role.ID, failed, nil
}
