// Package utils provides the /utils commands: latency, status, statistics
// and help.
package utils

import (
	"context"

	"github.com/PancyStudios/PancyModGo/pkg/discord"
)

// StatusFunc reports the store state as a display label and whether it is online
type StatusFunc func(ctx context.Context) (string, bool)

// RegisterUtilsCommands registers /utils. status reports the store state and
// sessions counts the open setup sessions; both may be nil.
func RegisterUtilsCommands(client *discord.ExtendedClient, status StatusFunc, sessions func() int) {
	group := client.CommandHandler.BuildCommandGroup(
		"utils",
		"Comandos de utilidad",
		0,
		[]*discord.Command{
			createPingCommand(),
			createStatusCommand(status),
			createHelpCommand(),
			createStatsCommand(sessions),
		},
	)
	client.CommandHandler.AddGlobalCommand(group)
}
