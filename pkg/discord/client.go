// Package discord provides the Discord bot client and the discordgo-backed
// implementations of the moderation collaborators.
package discord

import (
	"fmt"
	"sync"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/config"
	"github.com/PancyStudios/PancyModGo/pkg/errors"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/bwmarrin/discordgo"
)

// discordgo.Logger is a function, not an interface
func init() {
	discordgo.Logger = func(msgL int, caller int, format string, a ...interface{}) {
		msg := fmt.Sprintf(format, a...)
		switch msgL {
		case discordgo.LogError:
			logger.Error(msg, "DiscordGo")
		case discordgo.LogWarning:
			logger.Warn(msg, "DiscordGo")
		case discordgo.LogDebug:
			logger.Debug(msg, "DiscordGo")
		default:
			logger.Info(msg, "DiscordGo")
		}
	}
}

// ExtendedClient wraps discordgo.Session with command, component and event
// dispatch.
type ExtendedClient struct {
	Session        *discordgo.Session
	Commands       *CommandCollection
	Components     *ComponentRouter
	CommandHandler *CommandHandler
	EventHandler   *EventHandler
	// Authorize decides whether the caller holds a moderation level. When
	// nil only guild administrators pass leveled commands.
	Authorize AuthorizeFunc
	StartTime time.Time
	mu        sync.RWMutex
	isReady   bool
}

// CommandCollection holds registered commands
type CommandCollection struct {
	commands map[string]*Command
	mu       sync.RWMutex
}

// NewCommandCollection creates a new CommandCollection
func NewCommandCollection() *CommandCollection {
	return &CommandCollection{
		commands: make(map[string]*Command),
	}
}

// Set adds or updates a command
func (cc *CommandCollection) Set(name string, cmd *Command) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.commands[name] = cmd
}

// Get retrieves a command by name
func (cc *CommandCollection) Get(name string) (*Command, bool) {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	cmd, ok := cc.commands[name]
	return cmd, ok
}

// Size returns the number of commands
func (cc *CommandCollection) Size() int {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	return len(cc.commands)
}

// All returns all commands
func (cc *CommandCollection) All() map[string]*Command {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	result := make(map[string]*Command, len(cc.commands))
	for k, v := range cc.commands {
		result[k] = v
	}
	return result
}

var (
	client *ExtendedClient
	once   sync.Once
)

// Init initializes the global Discord client
func Init(token string) (*ExtendedClient, error) {
	var err error
	once.Do(func() {
		client, err = NewClient(token)
	})
	return client, err
}

// Get returns the global Discord client
func Get() *ExtendedClient {
	return client
}

// NewClient creates a new ExtendedClient
func NewClient(token string) (*ExtendedClient, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildBans

	session.ShardCount = 1
	session.SyncEvents = false
	session.StateEnabled = true
	session.LogLevel = discordgo.LogWarning

	c := &ExtendedClient{
		Session:    session,
		Commands:   NewCommandCollection(),
		Components: NewComponentRouter(),
	}

	c.CommandHandler = NewCommandHandler(c)
	c.EventHandler = NewEventHandler(c)

	return c, nil
}

// Start opens the gateway. Commands are pushed to Discord once ready.
func (c *ExtendedClient) Start() error {
	c.Session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		c.mu.Lock()
		c.isReady = true
		c.mu.Unlock()

		logger.Success("Bot conectado como: "+r.User.Username, "Client")

		if err := c.CommandHandler.RegisterCommands(); err != nil {
			logger.Error("Error registrando comandos: "+err.Error(), "Client")
		}
	})

	c.Session.AddHandler(c.handleInteraction)

	c.StartTime = time.Now()
	return c.Session.Open()
}

// commandName builds the registry key: "name", "name.sub" or "name.group.sub"
func commandName(data discordgo.ApplicationCommandInteractionData) string {
	name := data.Name
	if len(data.Options) == 0 {
		return name
	}
	opt := data.Options[0]
	switch opt.Type {
	case discordgo.ApplicationCommandOptionSubCommandGroup:
		if len(opt.Options) > 0 {
			return name + "." + opt.Name + "." + opt.Options[0].Name
		}
	case discordgo.ApplicationCommandOptionSubCommand:
		return name + "." + opt.Name
	}
	return name
}

func (c *ExtendedClient) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	defer errors.RecoverMiddleware()()

	ctx := &CommandContext{
		Session:     s,
		Interaction: i,
		Client:      c,
	}

	switch i.Type {
	case discordgo.InteractionApplicationCommandAutocomplete:
		cmd, ok := c.Commands.Get(commandName(i.ApplicationCommandData()))
		if ok && cmd.AutoComplete != nil {
			cmd.AutoComplete(ctx)
		}

	case discordgo.InteractionApplicationCommand:
		name := commandName(i.ApplicationCommandData())
		cmd, ok := c.Commands.Get(name)
		if !ok {
			logger.Warn("Comando no encontrado: "+name, "Client")
			return
		}
		if err := c.GuardMiddleware(ctx, cmd.Level); err != nil {
			return
		}
		if err := cmd.Run(ctx); err != nil {
			logger.Error("Error ejecutando el comando "+name+": "+err.Error(), "Client")
		}

	case discordgo.InteractionMessageComponent:
		c.dispatchComponent(ctx, i.MessageComponentData().CustomID)

	case discordgo.InteractionModalSubmit:
		c.dispatchComponent(ctx, i.ModalSubmitData().CustomID)
	}
}

func (c *ExtendedClient) dispatchComponent(ctx *CommandContext, customID string) {
	route, args, ok := c.Components.Lookup(customID)
	if !ok {
		logger.Debug("Componente sin manejador: "+customID, "Client")
		return
	}
	if err := c.GuardMiddleware(ctx, route.Level); err != nil {
		return
	}
	ctx.Args = args
	if err := route.Handle(ctx); err != nil {
		logger.Error("Error en el componente "+customID+": "+err.Error(), "Client")
	}
}

// Stop stops the bot and closes the session
func (c *ExtendedClient) Stop() error {
	c.mu.Lock()
	c.isReady = false
	c.mu.Unlock()

	if c.Session != nil {
		return c.Session.Close()
	}
	return nil
}

// IsReady returns true if the bot is ready
func (c *ExtendedClient) IsReady() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isReady
}

// GuildCount returns the number of guilds the bot is in
func (c *ExtendedClient) GuildCount() int {
	if c.Session == nil || c.Session.State == nil {
		return 0
	}
	c.Session.State.RLock()
	defer c.Session.State.RUnlock()
	return len(c.Session.State.Guilds)
}

// GetConfig returns the bot configuration
func (c *ExtendedClient) GetConfig() *config.Config {
	return config.Get()
}
