package events

import (
	"fmt"

	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/bwmarrin/discordgo"
)

// onReady is called when the bot successfully connects to Discord. The bot
// account becomes the moderator of automatic punishments.
func (h *Handlers) onReady(s *discordgo.Session, r *discordgo.Ready) {
	logger.Success(fmt.Sprintf("✅ Bot conectado: %s", r.User.String()), "Ready")
	logger.Info(fmt.Sprintf("📊 Conectado a %d servidores", len(r.Guilds)), "Ready")

	h.Engine.SetAutoModerator(r.User.ID)

	if s == nil {
		return
	}
	if err := s.UpdateGameStatus(0, "🛡️ Moderando con /mod"); err != nil {
		logger.Error(fmt.Sprintf("Error estableciendo estado: %v", err), "Ready")
		return
	}
	logger.Debug("Estado del bot establecido correctamente", "Ready")
}
