// Package commands registers every command category with the Discord client.
package commands

import (
	"github.com/PancyStudios/PancyModGo/internal/commands/mod"
	"github.com/PancyStudios/PancyModGo/internal/commands/utils"
	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/moderation"
)

// Deps are the services the commands act on
type Deps struct {
	Engine      *moderation.Engine
	Sessions    *moderation.Sessions
	StoreStatus utils.StatusFunc
}

// RegisterAll registers all commands with the Discord client
func RegisterAll(client *discord.ExtendedClient, deps Deps) {
	utils.RegisterUtilsCommands(client, deps.StoreStatus, deps.Sessions.Len)

	// /mod and /modconfig
	mod.Register(client, &mod.Module{Engine: deps.Engine, Sessions: deps.Sessions})
}
