package discord

import (
	"fmt"

	"github.com/PancyStudios/PancyModGo/pkg/config"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/bwmarrin/discordgo"
)

// CommandHandler manages command registration
type CommandHandler struct {
	client           *ExtendedClient
	slashCommands    []*discordgo.ApplicationCommand
	slashCommandsDev []*discordgo.ApplicationCommand
}

// NewCommandHandler creates a new CommandHandler
func NewCommandHandler(client *ExtendedClient) *CommandHandler {
	return &CommandHandler{
		client:           client,
		slashCommands:    make([]*discordgo.ApplicationCommand, 0),
		slashCommandsDev: make([]*discordgo.ApplicationCommand, 0),
	}
}

// RegisterCommand adds a top-level command to the handler
func (ch *CommandHandler) RegisterCommand(cmd *Command) {
	ch.client.Commands.Set(cmd.Name, cmd)

	if cmd.IsDev {
		ch.slashCommandsDev = append(ch.slashCommandsDev, cmd.ToApplicationCommand())
	} else {
		ch.slashCommands = append(ch.slashCommands, cmd.ToApplicationCommand())
	}

	logger.Debug("Comando registrado: "+cmd.Name, "CommandHandler")
}

func subcommandOption(cmd *Command) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionSubCommand,
		Name:        cmd.Name,
		Description: cmd.Description,
		Options:     cmd.Options,
	}
}

// BuildCommandGroup creates a command with subcommands and subcommand groups.
// Each subcommand is dispatched as "name.sub". perms becomes the default
// member permission of the whole command.
func (ch *CommandHandler) BuildCommandGroup(name, description string, perms int64, subcommands []*Command, groups ...*discordgo.ApplicationCommandOption) *discordgo.ApplicationCommand {
	options := make([]*discordgo.ApplicationCommandOption, 0, len(subcommands)+len(groups))

	for _, cmd := range subcommands {
		ch.client.Commands.Set(name+"."+cmd.Name, cmd)
		options = append(options, subcommandOption(cmd))
	}
	options = append(options, groups...)

	appCmd := &discordgo.ApplicationCommand{
		Name:        name,
		Description: description,
		Options:     options,
	}
	if perms != 0 {
		appCmd.DefaultMemberPermissions = &perms
	}
	return appCmd
}

// BuildSubcommandGroup creates a subcommand group dispatched as
// "parent.name.sub".
func (ch *CommandHandler) BuildSubcommandGroup(parent, name, description string, subcommands ...*Command) *discordgo.ApplicationCommandOption {
	options := make([]*discordgo.ApplicationCommandOption, 0, len(subcommands))

	for _, cmd := range subcommands {
		ch.client.Commands.Set(parent+"."+name+"."+cmd.Name, cmd)
		options = append(options, subcommandOption(cmd))
	}

	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionSubCommandGroup,
		Name:        name,
		Description: description,
		Options:     options,
	}
}

// AddGlobalCommand adds a command to the global command list
func (ch *CommandHandler) AddGlobalCommand(cmd *discordgo.ApplicationCommand) {
	ch.slashCommands = append(ch.slashCommands, cmd)
}

// AddDevCommand adds a command to the dev command list
func (ch *CommandHandler) AddDevCommand(cmd *discordgo.ApplicationCommand) {
	ch.slashCommandsDev = append(ch.slashCommandsDev, cmd)
}

// GlobalCommands returns the commands pushed to every guild
func (ch *CommandHandler) GlobalCommands() []*discordgo.ApplicationCommand {
	return ch.slashCommands
}

// RegisterCommands overwrites the application commands on Discord with the
// registered set. Dev commands go to the dev guild only.
func (ch *CommandHandler) RegisterCommands() error {
	appID := ch.client.Session.State.User.ID

	logger.Info("🔄 Registrando comandos globales...", "CommandHandler")
	created, err := ch.client.Session.ApplicationCommandBulkOverwrite(appID, "", ch.slashCommands)
	if err != nil {
		return err
	}
	logger.Success(fmt.Sprintf("✅ %d comandos globales registrados.", len(created)), "CommandHandler")

	devGuild := config.Get().DevGuildID
	if devGuild == "" || len(ch.slashCommandsDev) == 0 {
		return nil
	}

	logger.Info("🔄 Registrando comandos de desarrollo en el servidor "+devGuild+"...", "CommandHandler")
	if _, err := ch.client.Session.ApplicationCommandBulkOverwrite(appID, devGuild, ch.slashCommandsDev); err != nil {
		return err
	}
	logger.Success("✅ Comandos de desarrollo registrados.", "CommandHandler")
	return nil
}

// UnregisterCommands removes every global command from Discord
func (ch *CommandHandler) UnregisterCommands() error {
	return ch.ClearCommands("")
}

// ListCommands returns the commands Discord has for the application, global
// ones when guildID is empty.
func (ch *CommandHandler) ListCommands(guildID string) ([]*discordgo.ApplicationCommand, error) {
	return ch.client.Session.ApplicationCommands(ch.client.Session.State.User.ID, guildID)
}

// ClearCommands removes every command of guildID, or the global ones when
// guildID is empty.
func (ch *CommandHandler) ClearCommands(guildID string) error {
	_, err := ch.client.Session.ApplicationCommandBulkOverwrite(ch.client.Session.State.User.ID, guildID, []*discordgo.ApplicationCommand{})
	if err != nil {
		return err
	}
	if guildID == "" {
		logger.Success("Comandos globales eliminados.", "CommandHandler")
	} else {
		logger.Success("Comandos del servidor "+guildID+" eliminados.", "CommandHandler")
	}
	return nil
}
