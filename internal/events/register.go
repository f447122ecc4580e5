// Package events wires the Discord gateway events the moderation bot reacts to.
package events

import (
	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/moderation"
)

// Handlers holds the services the event handlers act on
type Handlers struct {
	Engine *moderation.Engine
}

// RegisterAll registers all events with the Discord client
func RegisterAll(client *discord.ExtendedClient, engine *moderation.Engine) {
	logger.System("📋 Registrando eventos del bot...", "Events")

	h := &Handlers{Engine: engine}

	// Ready event (bot startup)
	client.EventHandler.OnReady(h.onReady)

	// Guild events (server join/leave)
	client.EventHandler.OnGuildCreate(h.onGuildCreate)
	client.EventHandler.OnGuildDelete(h.onGuildDelete)

	// Settings cleanup when configured roles or channels disappear
	client.EventHandler.OnGuildRoleDelete(h.onGuildRoleDelete)
	client.EventHandler.OnChannelDelete(h.onChannelDelete)

	logger.Success("✅ Todos los eventos registrados correctamente", "Events")
}
