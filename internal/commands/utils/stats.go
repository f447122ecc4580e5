package utils

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/config"
	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/errors"
	"github.com/bwmarrin/discordgo"
)

// createStatsCommand creates the /utils stats subcommand. sessions, when
// set, returns the number of open punishment setup sessions.
func createStatsCommand(sessions func() int) *discord.Command {
	return discord.NewCommand(
		"stats",
		"Muestra estadísticas del bot",
		"utils",
		func(ctx *discord.CommandContext) error {
			return statsHandler(ctx, sessions)
		},
	)
}

func statsHandler(ctx *discord.CommandContext, sessions func() int) error {
	go func() {
		defer errors.RecoverMiddleware()()

		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		numGoroutines := runtime.NumGoroutine()
		numCPU := runtime.NumCPU()
		goVersion := strings.TrimPrefix(runtime.Version(), "go")

		guildCount := ctx.Client.GuildCount()
		memberCount := 0
		for _, guild := range ctx.Session.State.Guilds {
			memberCount += guild.MemberCount
		}

		uptime := time.Since(ctx.Client.StartTime)
		setupSessions := 0
		if sessions != nil {
			setupSessions = sessions()
		}

		embed := &discordgo.MessageEmbed{
			Title: "📊 Estadísticas del Bot",
			Color: 0x5865F2,
			Fields: []*discordgo.MessageEmbedField{
				{
					Name:   "🤖 Versión del Bot",
					Value:  config.Version,
					Inline: true,
				},
				{
					Name:   "🐹 Versión de Go",
					Value:  goVersion,
					Inline: true,
				},
				{
					Name:   "📚 Versión de DiscordGo",
					Value:  discordgo.VERSION,
					Inline: true,
				},
				{
					Name:   "🖥 Uso de RAM",
					Value:  fmt.Sprintf("%.2f MB", float64(m.Alloc)/1024/1024),
					Inline: true,
				},
				{
					Name:   "⚙ ️Uso de CPU",
					Value:  fmt.Sprintf("%d Goroutines / %d CPUs", numGoroutines, numCPU),
					Inline: true,
				},
				{
					Name:   "⏱ Uptime",
					Value:  formatDuration(uptime),
					Inline: true,
				},
				{
					Name:   "🏠 Guilds",
					Value:  fmt.Sprintf("%d", guildCount),
					Inline: true,
				},
				{
					Name:   "👥 Miembros",
					Value:  fmt.Sprintf("%d", memberCount),
					Inline: true,
				},
				{
					Name:   "🛠️ Sesiones de configuración",
					Value:  fmt.Sprintf("%d", setupSessions),
					Inline: true,
				},
			},
			Footer: &discordgo.MessageEmbedFooter{
				Text:    "💫 - Developed by PancyStudios",
				IconURL: ctx.Client.Session.State.User.AvatarURL(""),
			},
			Timestamp: time.Now().Format(time.RFC3339),
		}

		_ = ctx.ReplyEmbed(embed)
	}()
	return nil
}

// formatDuration formats a time.Duration into a human-readable string
func formatDuration(dur time.Duration) string {
	days := int(dur.Hours() / 24)
	hours := int(dur.Hours()) % 24
	minutes := int(dur.Minutes()) % 60
	seconds := int(dur.Seconds()) % 60

	var parts []string
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%d días", days))
	}
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%d horas", hours))
	}
	if minutes > 0 {
		parts = append(parts, fmt.Sprintf("%d minutos", minutes))
	}
	if seconds > 0 || len(parts) == 0 {
		parts = append(parts, fmt.Sprintf("%d segundos", seconds))
	}

	return strings.Join(parts, ", ")
}
