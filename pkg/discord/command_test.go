package discord

import (
	"testing"

	"github.com/PancyStudios/PancyModGo/pkg/moderation"
	"github.com/bwmarrin/discordgo"
)

func TestCommandCreation(t *testing.T) {
	handler := func(ctx *CommandContext) error {
		return nil
	}

	cmd := NewCommand("test", "Test command", "test", handler)

	if cmd == nil {
		t.Fatal("NewCommand returned nil")
	}
	if cmd.Name != "test" {
		t.Errorf("Name = %v, want %v", cmd.Name, "test")
	}
	if cmd.Description != "Test command" {
		t.Errorf("Description = %v, want %v", cmd.Description, "Test command")
	}
	if cmd.Category != "test" {
		t.Errorf("Category = %v, want %v", cmd.Category, "test")
	}
	if cmd.Run == nil {
		t.Error("Run function is nil")
	}
	if cmd.Level != 0 {
		t.Errorf("Level = %v, want 0", cmd.Level)
	}
}

func TestCommandWithOptions(t *testing.T) {
	option := &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "test-option",
		Description: "Test option",
		Required:    true,
	}

	cmd := NewCommand("test", "Test command", "test", nil).
		WithOptions(option).
		WithLevel(moderation.LevelAdmin)

	if len(cmd.Options) != 1 {
		t.Fatalf("Options length = %v, want %v", len(cmd.Options), 1)
	}
	if cmd.Options[0].Name != "test-option" {
		t.Errorf("Option name = %v, want %v", cmd.Options[0].Name, "test-option")
	}
	if cmd.Level != moderation.LevelAdmin {
		t.Errorf("Level = %v, want %v", cmd.Level, moderation.LevelAdmin)
	}
}

func TestToApplicationCommandPermissions(t *testing.T) {
	plain := NewCommand("ping", "Ping", "utils", nil).ToApplicationCommand()
	if plain.DefaultMemberPermissions != nil {
		t.Errorf("DefaultMemberPermissions = %v, want nil", *plain.DefaultMemberPermissions)
	}

	gated := NewCommand("ban", "Ban", "mod", nil).
		WithUserPermissions(discordgo.PermissionBanMembers).
		ToApplicationCommand()
	if gated.DefaultMemberPermissions == nil || *gated.DefaultMemberPermissions != discordgo.PermissionBanMembers {
		t.Errorf("DefaultMemberPermissions = %v, want %v", gated.DefaultMemberPermissions, discordgo.PermissionBanMembers)
	}
}

func TestCommandName(t *testing.T) {
	tests := []struct {
		name string
		data discordgo.ApplicationCommandInteractionData
		want string
	}{
		{
			name: "top level",
			data: discordgo.ApplicationCommandInteractionData{Name: "ping"},
			want: "ping",
		},
		{
			name: "subcommand",
			data: discordgo.ApplicationCommandInteractionData{
				Name: "mod",
				Options: []*discordgo.ApplicationCommandInteractionDataOption{
					{Name: "warn", Type: discordgo.ApplicationCommandOptionSubCommand},
				},
			},
			want: "mod.warn",
		},
		{
			name: "subcommand group",
			data: discordgo.ApplicationCommandInteractionData{
				Name: "modconfig",
				Options: []*discordgo.ApplicationCommandInteractionDataOption{
					{
						Name: "reason",
						Type: discordgo.ApplicationCommandOptionSubCommandGroup,
						Options: []*discordgo.ApplicationCommandInteractionDataOption{
							{Name: "add", Type: discordgo.ApplicationCommandOptionSubCommand},
						},
					},
				},
			},
			want: "modconfig.reason.add",
		},
		{
			name: "plain option",
			data: discordgo.ApplicationCommandInteractionData{
				Name: "help",
				Options: []*discordgo.ApplicationCommandInteractionDataOption{
					{Name: "topic", Type: discordgo.ApplicationCommandOptionString},
				},
			},
			want: "help",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := commandName(tt.data); got != tt.want {
				t.Errorf("commandName() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFindOptionNested(t *testing.T) {
	options := []*discordgo.ApplicationCommandInteractionDataOption{
		{
			Name: "warn",
			Type: discordgo.ApplicationCommandOptionSubCommand,
			Options: []*discordgo.ApplicationCommandInteractionDataOption{
				{Name: "usuario", Type: discordgo.ApplicationCommandOptionUser, Value: "123"},
				{Name: "razon", Type: discordgo.ApplicationCommandOptionString, Value: "spam"},
			},
		},
	}

	opt := findOption(options, "razon")
	if opt == nil {
		t.Fatal("findOption() returned nil")
	}
	if opt.StringValue() != "spam" {
		t.Errorf("value = %v, want spam", opt.StringValue())
	}
	if findOption(options, "missing") != nil {
		t.Error("findOption() should return nil for a missing option")
	}
}

func TestModalValue(t *testing.T) {
	components := []discordgo.MessageComponent{
		&discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			&discordgo.TextInput{CustomID: "threshold", Value: " 10 "},
		}},
		&discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			&discordgo.TextInput{CustomID: "action", Value: "mute"},
		}},
	}

	if got := modalValue(components, "threshold"); got != "10" {
		t.Errorf("modalValue(threshold) = %q, want %q", got, "10")
	}
	if got := modalValue(components, "action"); got != "mute" {
		t.Errorf("modalValue(action) = %q, want %q", got, "mute")
	}
	if got := modalValue(components, "duration"); got != "" {
		t.Errorf("modalValue(duration) = %q, want empty", got)
	}
}

func TestCustomIDRoundTrip(t *testing.T) {
	id := CustomID("clearwarns", "confirm", "123")
	if id != "clearwarns:confirm:123" {
		t.Errorf("CustomID() = %v", id)
	}

	prefix, args := ParseCustomID(id)
	if prefix != "clearwarns" || len(args) != 2 || args[0] != "confirm" || args[1] != "123" {
		t.Errorf("ParseCustomID() = %v %v", prefix, args)
	}

	prefix, args = ParseCustomID("close")
	if prefix != "close" || len(args) != 0 {
		t.Errorf("ParseCustomID(close) = %v %v", prefix, args)
	}
}

func TestComponentRouter(t *testing.T) {
	r := NewComponentRouter()
	r.Handle("setup", moderation.LevelAdmin, func(ctx *CommandContext) error { return nil })

	route, args, ok := r.Lookup("setup:save")
	if !ok {
		t.Fatal("Lookup() did not find the route")
	}
	if route.Level != moderation.LevelAdmin {
		t.Errorf("Level = %v, want %v", route.Level, moderation.LevelAdmin)
	}
	if len(args) != 1 || args[0] != "save" {
		t.Errorf("args = %v, want [save]", args)
	}

	if _, _, ok := r.Lookup("unknown:x"); ok {
		t.Error("Lookup() should fail for an unknown prefix")
	}
	if r.Size() != 1 {
		t.Errorf("Size() = %v, want 1", r.Size())
	}
}

func TestCommandCollection(t *testing.T) {
	cc := NewCommandCollection()
	cc.Set("mod.warn", NewCommand("warn", "Warn", "mod", nil))

	if _, ok := cc.Get("mod.warn"); !ok {
		t.Error("Get() did not find mod.warn")
	}
	if cc.Size() != 1 {
		t.Errorf("Size() = %v, want 1", cc.Size())
	}

	all := cc.All()
	delete(all, "mod.warn")
	if cc.Size() != 1 {
		t.Error("All() should return a copy")
	}
}
