package discord

import (
	"context"
	"strings"

	"github.com/PancyStudios/PancyModGo/pkg/moderation"
	"github.com/bwmarrin/discordgo"
)

// CommandContext provides context for command, component and modal handlers
type CommandContext struct {
	Session     *discordgo.Session
	Interaction *discordgo.InteractionCreate
	Client      *ExtendedClient
	// Args holds the custom id arguments of a component or modal interaction
	Args []string
}

// Command represents a Discord slash command
type Command struct {
	Name            string
	Description     string
	Category        string
	Options         []*discordgo.ApplicationCommandOption
	UserPermissions int64
	Level           moderation.Level
	IsDev           bool
	Run             CommandRunFunc
	AutoComplete    AutoCompleteFunc
}

// CommandRunFunc is the function type for command execution
type CommandRunFunc func(ctx *CommandContext) error

// AutoCompleteFunc is the function type for autocomplete handling
type AutoCompleteFunc func(ctx *CommandContext)

// NewCommand creates a new Command with required fields
func NewCommand(name, description, category string, run CommandRunFunc) *Command {
	return &Command{
		Name:        name,
		Description: description,
		Category:    category,
		Run:         run,
	}
}

// WithOptions sets the command options
func (c *Command) WithOptions(opts ...*discordgo.ApplicationCommandOption) *Command {
	c.Options = opts
	return c
}

// WithUserPermissions sets the default member permissions shown by Discord
func (c *Command) WithUserPermissions(perms int64) *Command {
	c.UserPermissions = perms
	return c
}

// WithLevel requires the caller to hold a moderation level in the guild
func (c *Command) WithLevel(level moderation.Level) *Command {
	c.Level = level
	return c
}

// AsDev marks the command as a dev-only command
func (c *Command) AsDev() *Command {
	c.IsDev = true
	return c
}

// WithAutoComplete sets the autocomplete handler
func (c *Command) WithAutoComplete(fn AutoCompleteFunc) *Command {
	c.AutoComplete = fn
	return c
}

// ToApplicationCommand converts the command to a Discord application command
func (c *Command) ToApplicationCommand() *discordgo.ApplicationCommand {
	cmd := &discordgo.ApplicationCommand{
		Name:        c.Name,
		Description: c.Description,
		Options:     c.Options,
	}
	if c.UserPermissions != 0 {
		perms := c.UserPermissions
		cmd.DefaultMemberPermissions = &perms
	}
	return cmd
}

// Context returns a context for calls made on behalf of this interaction
func (ctx *CommandContext) Context() context.Context {
	return context.Background()
}

func (ctx *CommandContext) respond(resp *discordgo.InteractionResponse) error {
	return ctx.Session.InteractionRespond(ctx.Interaction.Interaction, resp)
}

// Reply sends a reply to the interaction
func (ctx *CommandContext) Reply(content string) error {
	return ctx.respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
		},
	})
}

// ReplyEmbed sends an embed reply to the interaction
func (ctx *CommandContext) ReplyEmbed(embed *discordgo.MessageEmbed) error {
	return ctx.respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
		},
	})
}

// ReplyEphemeral sends an ephemeral reply visible only to the user
func (ctx *CommandContext) ReplyEphemeral(content string) error {
	return ctx.respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}

// ReplyEphemeralEmbed sends an ephemeral embed reply visible only to the user
func (ctx *CommandContext) ReplyEphemeralEmbed(embed *discordgo.MessageEmbed) error {
	return ctx.respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
			Flags:  discordgo.MessageFlagsEphemeral,
		},
	})
}

// ReplyComponents sends an ephemeral embed with message components
func (ctx *CommandContext) ReplyComponents(embed *discordgo.MessageEmbed, components ...discordgo.MessageComponent) error {
	return ctx.respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{embed},
			Components: components,
			Flags:      discordgo.MessageFlagsEphemeral,
		},
	})
}

// UpdateMessage replaces the message a component belongs to. A nil
// components slice removes every component.
func (ctx *CommandContext) UpdateMessage(embed *discordgo.MessageEmbed, components ...discordgo.MessageComponent) error {
	if components == nil {
		components = []discordgo.MessageComponent{}
	}
	return ctx.respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{embed},
			Components: components,
		},
	})
}

// ShowModal opens a modal with the given text inputs
func (ctx *CommandContext) ShowModal(customID, title string, inputs ...discordgo.TextInput) error {
	rows := make([]discordgo.MessageComponent, 0, len(inputs))
	for _, in := range inputs {
		rows = append(rows, discordgo.ActionsRow{Components: []discordgo.MessageComponent{in}})
	}
	return ctx.respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID:   customID,
			Title:      title,
			Components: rows,
		},
	})
}

// Defer defers the interaction response
func (ctx *CommandContext) Defer() error {
	return ctx.respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
}

// DeferEphemeral defers the interaction response as an ephemeral message
func (ctx *CommandContext) DeferEphemeral() error {
	return ctx.respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	})
}

// EditReply edits the original interaction response
func (ctx *CommandContext) EditReply(content string) error {
	_, err := ctx.Session.InteractionResponseEdit(ctx.Interaction.Interaction, &discordgo.WebhookEdit{
		Content: &content,
	})
	return err
}

// EditReplyEmbed edits the original interaction response with an embed
func (ctx *CommandContext) EditReplyEmbed(embed *discordgo.MessageEmbed) error {
	_, err := ctx.Session.InteractionResponseEdit(ctx.Interaction.Interaction, &discordgo.WebhookEdit{
		Embeds: &[]*discordgo.MessageEmbed{embed},
	})
	return err
}

// Followup sends an ephemeral followup message
func (ctx *CommandContext) Followup(content string) error {
	_, err := ctx.Session.FollowupMessageCreate(ctx.Interaction.Interaction, false, &discordgo.WebhookParams{
		Content: content,
		Flags:   discordgo.MessageFlagsEphemeral,
	})
	return err
}

// SendAutoCompleteChoices answers an autocomplete interaction
func (ctx *CommandContext) SendAutoCompleteChoices(choices []*discordgo.ApplicationCommandOptionChoice) error {
	return ctx.respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionApplicationCommandAutocompleteResult,
		Data: &discordgo.InteractionResponseData{
			Choices: choices,
		},
	})
}

// GetOption retrieves an option value by name
func (ctx *CommandContext) GetOption(name string) *discordgo.ApplicationCommandInteractionDataOption {
	if ctx.Interaction.Type != discordgo.InteractionApplicationCommand &&
		ctx.Interaction.Type != discordgo.InteractionApplicationCommandAutocomplete {
		return nil
	}
	return findOption(ctx.Interaction.ApplicationCommandData().Options, name)
}

// findOption recursively finds an option by name
func findOption(options []*discordgo.ApplicationCommandInteractionDataOption, name string) *discordgo.ApplicationCommandInteractionDataOption {
	for _, opt := range options {
		if opt.Name == name {
			return opt
		}
		if len(opt.Options) > 0 {
			if found := findOption(opt.Options, name); found != nil {
				return found
			}
		}
	}
	return nil
}

// HasOption reports whether the option was given
func (ctx *CommandContext) HasOption(name string) bool {
	return ctx.GetOption(name) != nil
}

// GetStringOption retrieves a string option value
func (ctx *CommandContext) GetStringOption(name string) string {
	opt := ctx.GetOption(name)
	if opt == nil {
		return ""
	}
	return opt.StringValue()
}

// GetIntOption retrieves an integer option value
func (ctx *CommandContext) GetIntOption(name string) int64 {
	opt := ctx.GetOption(name)
	if opt == nil {
		return 0
	}
	return opt.IntValue()
}

// GetBoolOption retrieves a boolean option value
func (ctx *CommandContext) GetBoolOption(name string) bool {
	opt := ctx.GetOption(name)
	if opt == nil {
		return false
	}
	return opt.BoolValue()
}

// GetUserOption retrieves a user option value
func (ctx *CommandContext) GetUserOption(name string) *discordgo.User {
	opt := ctx.GetOption(name)
	if opt == nil {
		return nil
	}
	return opt.UserValue(ctx.Session)
}

// GetChannelOption retrieves a channel option value
func (ctx *CommandContext) GetChannelOption(name string) *discordgo.Channel {
	opt := ctx.GetOption(name)
	if opt == nil {
		return nil
	}
	return opt.ChannelValue(ctx.Session)
}

// GetRoleOption retrieves a role option value
func (ctx *CommandContext) GetRoleOption(name string) *discordgo.Role {
	opt := ctx.GetOption(name)
	if opt == nil {
		return nil
	}
	return opt.RoleValue(ctx.Session, ctx.Interaction.GuildID)
}

// ModalValue returns the value of a text input in a submitted modal
func (ctx *CommandContext) ModalValue(customID string) string {
	if ctx.Interaction.Type != discordgo.InteractionModalSubmit {
		return ""
	}
	return modalValue(ctx.Interaction.ModalSubmitData().Components, customID)
}

func modalValue(components []discordgo.MessageComponent, customID string) string {
	for _, c := range components {
		switch v := c.(type) {
		case *discordgo.ActionsRow:
			if found := modalValue(v.Components, customID); found != "" {
				return found
			}
		case *discordgo.TextInput:
			if v.CustomID == customID {
				return strings.TrimSpace(v.Value)
			}
		}
	}
	return ""
}

// Guild returns the guild where the interaction occurred
func (ctx *CommandContext) Guild() *discordgo.Guild {
	if ctx.Interaction.GuildID == "" {
		return nil
	}
	guild, err := ctx.Session.State.Guild(ctx.Interaction.GuildID)
	if err != nil {
		guild, _ = ctx.Session.Guild(ctx.Interaction.GuildID)
	}
	return guild
}

// Channel returns the channel where the interaction occurred
func (ctx *CommandContext) Channel() *discordgo.Channel {
	channel, _ := ctx.Session.State.Channel(ctx.Interaction.ChannelID)
	return channel
}

// User returns the user who triggered the interaction
func (ctx *CommandContext) User() *discordgo.User {
	if ctx.Interaction.Member != nil {
		return ctx.Interaction.Member.User
	}
	return ctx.Interaction.User
}

// Member returns the guild member who triggered the interaction
func (ctx *CommandContext) Member() *discordgo.Member {
	return ctx.Interaction.Member
}
