package utils

import (
	"fmt"
	"sort"
	"strings"

	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/errors"
	"github.com/bwmarrin/discordgo"
)

func createPingCommand() *discord.Command {
	return discord.NewCommand(
		"ping",
		"Comprueba la latencia del bot",
		"utils",
		func(ctx *discord.CommandContext) error {
			latency := ctx.Client.Session.HeartbeatLatency().Milliseconds()
			return ctx.Reply(fmt.Sprintf("🏓 Pong! Latencia: %dms", latency))
		},
	)
}

func createStatusCommand(status StatusFunc) *discord.Command {
	return discord.NewCommand(
		"status",
		"Muestra el estado del bot",
		"utils",
		func(ctx *discord.CommandContext) error {
			go func() {
				defer errors.RecoverMiddleware()()

				storeStatus := "🟢 | En memoria"
				if status != nil {
					storeStatus, _ = status(ctx.Context())
				}
				_ = ctx.Reply(fmt.Sprintf(
					"📊 **Estado del Bot**\n"+
						"• Bot: 🟢 Online\n"+
						"• Base de datos: %s\n"+
						"• Servidores: %d",
					storeStatus,
					ctx.Client.GuildCount(),
				))
			}()
			return nil
		},
	)
}

func createHelpCommand() *discord.Command {
	return discord.NewCommand(
		"help",
		"Muestra información de ayuda",
		"utils",
		func(ctx *discord.CommandContext) error {
			return ctx.ReplyEphemeralEmbed(helpEmbed(ctx.Client.Commands.All()))
		},
	)
}

var categoryTitles = map[string]string{
	"mod":       "🛡️ Moderación",
	"modconfig": "⚙️ Configuración",
	"utils":     "🧰 Utilidades",
}

// helpEmbed lists the registered commands grouped by category
func helpEmbed(commands map[string]*discord.Command) *discordgo.MessageEmbed {
	byCategory := map[string][]string{}
	for name, cmd := range commands {
		if cmd.IsDev {
			continue
		}
		line := fmt.Sprintf("• `/%s` - %s", strings.ReplaceAll(name, ".", " "), cmd.Description)
		byCategory[cmd.Category] = append(byCategory[cmd.Category], line)
	}

	categories := make([]string, 0, len(byCategory))
	for c := range byCategory {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	embed := &discordgo.MessageEmbed{
		Title: "📖 Ayuda de PancyMod Go",
		Color: 0x5865F2,
		Footer: &discordgo.MessageEmbedFooter{
			Text: "💫 - Developed by PancyStudios",
		},
	}
	for _, c := range categories {
		lines := byCategory[c]
		sort.Strings(lines)
		title := categoryTitles[c]
		if title == "" {
			title = c
		}
		value := strings.Join(lines, "\n")
		if len(value) > 1024 {
			value = value[:1021] + "..."
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: title, Value: value})
	}
	return embed
}
