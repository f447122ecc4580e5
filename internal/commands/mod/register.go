// Package mod provides the moderation commands: /mod for moderators and
// /modconfig for guild administrators.
package mod

import (
	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/moderation"
)

// Module holds what the moderation commands act on
type Module struct {
	Engine   *moderation.Engine
	Sessions *moderation.Sessions
}

// Custom id prefixes of the components owned by this package
const (
	prefixClearWarns = "clearwarns"
	prefixSetup      = "setup"
	prefixDMTemplate = "dmtemplate"
)

// Register adds /mod and /modconfig to the client, routes their buttons and
// modals, and installs the role-based authorization of the guild settings.
func Register(client *discord.ExtendedClient, m *Module) {
	client.Authorize = m.authorize

	modGroup := client.CommandHandler.BuildCommandGroup(
		"mod",
		"Comandos de moderación",
		0,
		[]*discord.Command{
			m.warnCommand(),
			m.warningsCommand(),
			m.clearWarnsCommand(),
			m.removeWarnCommand(),
			m.muteCommand(),
			m.unmuteCommand(),
			m.kickCommand(),
			m.banCommand(),
			m.unbanCommand(),
			m.purgeCommand(),
		},
	)
	client.CommandHandler.AddGlobalCommand(modGroup)

	h := client.CommandHandler
	configGroup := h.BuildCommandGroup(
		"modconfig",
		"Configuración de la moderación del servidor",
		0,
		nil,
		h.BuildSubcommandGroup("modconfig", "reason", "Razones de advertencia predefinidas",
			m.reasonAddCommand(),
			m.reasonRemoveCommand(),
			m.reasonListCommand(),
		),
		h.BuildSubcommandGroup("modconfig", "punishment", "Castigos automáticos por puntos",
			m.punishmentAddCommand(),
			m.punishmentRemoveCommand(),
			m.punishmentListCommand(),
			m.punishmentSetupCommand(),
		),
		h.BuildSubcommandGroup("modconfig", "settings", "Ajustes generales de moderación",
			m.settingsViewCommand(),
			m.modRoleCommand(),
			m.adminRoleCommand(),
			m.logChannelCommand(),
			m.toggleDMCommand(),
			m.dmTemplateCommand(),
			m.muteRoleCommand(),
			m.syncPermsCommand(),
		),
	)
	client.CommandHandler.AddGlobalCommand(configGroup)

	client.Components.Handle(prefixClearWarns, moderation.LevelModerator, m.handleClearWarnsButton)
	client.Components.Handle(prefixSetup, moderation.LevelAdmin, m.handleSetupComponent)
	client.Components.Handle(prefixDMTemplate, moderation.LevelAdmin, m.handleDMTemplateModal)
}
