package discord

import (
	"sync"

	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/bwmarrin/discordgo"
)

// EventHandler registers gateway event handlers on the session
type EventHandler struct {
	client *ExtendedClient
	events []interface{}
	mu     sync.RWMutex
}

// NewEventHandler creates a new EventHandler
func NewEventHandler(client *ExtendedClient) *EventHandler {
	return &EventHandler{
		client: client,
		events: make([]interface{}, 0),
	}
}

// RegisterEvent adds an event handler to the Discord session. discordgo
// only recognizes unnamed func types, so named handler types are converted
// by the On* helpers.
func (eh *EventHandler) RegisterEvent(handler interface{}) {
	eh.client.Session.AddHandler(handler)
	eh.mu.Lock()
	eh.events = append(eh.events, handler)
	eh.mu.Unlock()
}

// Count returns the number of registered handlers
func (eh *EventHandler) Count() int {
	eh.mu.RLock()
	defer eh.mu.RUnlock()
	return len(eh.events)
}

// ReadyHandler is called when the bot is ready
type ReadyHandler func(s *discordgo.Session, r *discordgo.Ready)

// GuildCreateHandler is called when the bot joins or reconnects to a guild
type GuildCreateHandler func(s *discordgo.Session, g *discordgo.GuildCreate)

// GuildDeleteHandler is called when the bot leaves a guild
type GuildDeleteHandler func(s *discordgo.Session, g *discordgo.GuildDelete)

// GuildRoleDeleteHandler is called when a role is deleted
type GuildRoleDeleteHandler func(s *discordgo.Session, r *discordgo.GuildRoleDelete)

// ChannelDeleteHandler is called when a channel is deleted
type ChannelDeleteHandler func(s *discordgo.Session, c *discordgo.ChannelDelete)

// OnReady registers a ready event handler
func (eh *EventHandler) OnReady(handler ReadyHandler) {
	eh.RegisterEvent((func(*discordgo.Session, *discordgo.Ready))(handler))
	logger.Debug("Evento 'Ready' registrado", "EventHandler")
}

// OnGuildCreate registers a guild create event handler
func (eh *EventHandler) OnGuildCreate(handler GuildCreateHandler) {
	eh.RegisterEvent((func(*discordgo.Session, *discordgo.GuildCreate))(handler))
	logger.Debug("Evento 'GuildCreate' registrado", "EventHandler")
}

// OnGuildDelete registers a guild delete event handler
func (eh *EventHandler) OnGuildDelete(handler GuildDeleteHandler) {
	eh.RegisterEvent((func(*discordgo.Session, *discordgo.GuildDelete))(handler))
	logger.Debug("Evento 'GuildDelete' registrado", "EventHandler")
}

// OnGuildRoleDelete registers a role delete event handler
func (eh *EventHandler) OnGuildRoleDelete(handler GuildRoleDeleteHandler) {
	eh.RegisterEvent((func(*discordgo.Session, *discordgo.GuildRoleDelete))(handler))
	logger.Debug("Evento 'GuildRoleDelete' registrado", "EventHandler")
}

// OnChannelDelete registers a channel delete event handler
func (eh *EventHandler) OnChannelDelete(handler ChannelDeleteHandler) {
	eh.RegisterEvent((func(*discordgo.Session, *discordgo.ChannelDelete))(handler))
	logger.Debug("Evento 'ChannelDelete' registrado", "EventHandler")
}
