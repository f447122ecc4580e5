package events

import (
	"context"
	"fmt"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/bwmarrin/discordgo"
)

// onGuildCreate stores default settings for guilds seen for the first time
// and greets guilds that just added the bot.
func (h *Handlers) onGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	if err := h.Engine.EnsureGuild(context.Background(), g.ID); err != nil {
		logger.Error(fmt.Sprintf("No se pudo inicializar la configuración de %s: %v", g.ID, err), "Guild")
	}

	if g.JoinedAt.Before(time.Now().Add(-10 * time.Second)) {
		return
	}

	logger.Info(fmt.Sprintf("➕ Bot agregado a servidor: %s (ID: %s)", g.Name, g.ID), "Guild")
	logger.Debug(fmt.Sprintf("   Miembros: %d | Canales: %d", g.MemberCount, len(g.Channels)), "Guild")

	if g.SystemChannelID == "" || s == nil {
		return
	}

	welcomeEmbed := &discordgo.MessageEmbed{
		Title:       "¡Gracias por agregarme! 🎉",
		Description: "Hola, soy **PancyMod**. Sumo puntos por cada advertencia y aplico castigos automáticos al llegar a los umbrales que configures.",
		Color:       0x00ff00,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:   "⚙️ Configuración",
				Value:  "Define roles con `/modconfig settings` y castigos con `/modconfig punishment setup`",
				Inline: true,
			},
			{
				Name:   "🔧 Moderación",
				Value:  "Usa `/mod` para moderar",
				Inline: true,
			},
			{
				Name:   "❓ Ayuda",
				Value:  "Usa `/utils help` para más información",
				Inline: true,
			},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: "💫 - Developed by PancyStudios",
		},
		Timestamp: time.Now().Format(time.RFC3339),
	}

	if _, err := s.ChannelMessageSendEmbed(g.SystemChannelID, welcomeEmbed); err != nil {
		logger.Error(fmt.Sprintf("Error enviando mensaje de bienvenida: %v", err), "Guild")
	}
}

// onGuildDelete is called when the bot is removed from a server or the
// server becomes unavailable. Settings are kept in both cases.
func (h *Handlers) onGuildDelete(_ *discordgo.Session, g *discordgo.GuildDelete) {
	if g.Unavailable {
		logger.Warn(fmt.Sprintf("Servidor no disponible: %s", g.ID), "Guild")
		return
	}
	logger.Info(fmt.Sprintf("➖ Bot removido del servidor ID: %s", g.ID), "Guild")
}
