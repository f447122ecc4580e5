package events

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/models"
	"github.com/bwmarrin/discordgo"
)

// errUnchanged aborts a settings update that has nothing to write
var errUnchanged = errors.New("settings unchanged")

// forgetRole drops a deleted role from the role sets and the mute role
func forgetRole(s *models.GuildSettings, roleID string) bool {
	before := len(s.ModRoles) + len(s.AdminRoles)
	s.ModRoles = slices.DeleteFunc(s.ModRoles, func(id string) bool { return id == roleID })
	s.AdminRoles = slices.DeleteFunc(s.AdminRoles, func(id string) bool { return id == roleID })
	changed := before != len(s.ModRoles)+len(s.AdminRoles)

	if s.MuteRole == roleID {
		s.MuteRole = ""
		changed = true
	}
	return changed
}

// forgetChannel disables the moderation log when its channel is deleted
func forgetChannel(s *models.GuildSettings, channelID string) bool {
	if s.ModLogChannel != channelID {
		return false
	}
	s.ModLogChannel = ""
	return true
}

func (h *Handlers) forget(guildID, what string, fn func(*models.GuildSettings) bool) {
	_, err := h.Engine.UpdateSettings(context.Background(), guildID, func(s *models.GuildSettings) error {
		if !fn(s) {
			return errUnchanged
		}
		return nil
	})
	switch {
	case err == nil:
		logger.Info(fmt.Sprintf("Se eliminó %s de la configuración de %s", what, guildID), "Cleanup")
	case !errors.Is(err, errUnchanged):
		logger.Error(fmt.Sprintf("No se pudo limpiar %s en %s: %v", what, guildID, err), "Cleanup")
	}
}

func (h *Handlers) onGuildRoleDelete(_ *discordgo.Session, r *discordgo.GuildRoleDelete) {
	h.forget(r.GuildID, "el rol "+r.RoleID, func(s *models.GuildSettings) bool {
		return forgetRole(s, r.RoleID)
	})
}

func (h *Handlers) onChannelDelete(_ *discordgo.Session, c *discordgo.ChannelDelete) {
	if c.Channel == nil || c.GuildID == "" {
		return
	}
	h.forget(c.GuildID, "el canal "+c.ID, func(s *models.GuildSettings) bool {
		return forgetChannel(s, c.ID)
	})
}
