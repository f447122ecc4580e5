package discord

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/moderation"
	"github.com/bwmarrin/discordgo"
)

// Embed colors per action
var actionColors = map[moderation.Action]int{
	moderation.ActionWarn:       0xF1C40F,
	moderation.ActionMute:       0xE67E22,
	moderation.ActionKick:       0xE74C3C,
	moderation.ActionBan:        0x992D22,
	moderation.ActionUnmute:     0x2ECC71,
	moderation.ActionUnban:      0x2ECC71,
	moderation.ActionPurge:      0x3498DB,
	moderation.ActionClearWarns: 0x95A5A6,
	moderation.ActionRemoveWarn: 0x95A5A6,
}

const defaultColor = 0x5865F2

var actionTitles = map[moderation.Action]string{
	moderation.ActionWarn:       "Warned",
	moderation.ActionMute:       "Muted",
	moderation.ActionUnmute:     "Unmuted",
	moderation.ActionKick:       "Kicked",
	moderation.ActionBan:        "Banned",
	moderation.ActionUnban:      "Unbanned",
	moderation.ActionPurge:      "Purged",
	moderation.ActionClearWarns: "Warnings cleared",
	moderation.ActionRemoveWarn: "Warning removed",
}

type channelAPI interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// ModLog posts every moderation entry to the guild's log channel. Guilds
// without a log channel are skipped.
type ModLog struct {
	api channelAPI
}

// NewModLog creates the recorder over a discordgo session
func NewModLog(s *discordgo.Session) *ModLog {
	return &ModLog{api: s}
}

func (m *ModLog) Record(ctx context.Context, e moderation.Entry) {
	if e.Channel == "" {
		logger.Debug(fmt.Sprintf("Registro de %s omitido en %s: %v", e.Action, e.GuildID, moderation.ErrNotConfigured), "ModLog")
		return
	}

	_, err := m.api.ChannelMessageSendEmbed(e.Channel, EntryEmbed(e), discordgo.WithContext(ctx))
	if err != nil {
		logger.Warn(fmt.Sprintf("No se pudo enviar el registro al canal %s: %v", e.Channel, err), "ModLog")
	}
}

// EntryEmbed renders a moderation entry
func EntryEmbed(e moderation.Entry) *discordgo.MessageEmbed {
	title, ok := actionTitles[e.Action]
	if !ok && e.Action != "" {
		title = strings.ToUpper(string(e.Action[:1])) + string(e.Action[1:])
	}
	if e.Auto {
		title += " (auto)"
	}
	color, ok := actionColors[e.Action]
	if !ok {
		color = defaultColor
	}

	moderator := "Sistema"
	if e.ModeratorID != "" {
		moderator = "<@" + e.ModeratorID + ">"
	}

	fields := []*discordgo.MessageEmbedField{
		{Name: "User", Value: "<@" + e.UserID + ">"},
		{Name: "Moderator", Value: moderator},
		{Name: "Reason", Value: e.Reason},
	}
	if e.Points != nil {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Points", Value: strconv.Itoa(*e.Points)})
	}
	if e.Duration != "" {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Duration", Value: e.Duration})
	}

	ts := e.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	return &discordgo.MessageEmbed{
		Title:     "🔨 " + title,
		Color:     color,
		Fields:    fields,
		Timestamp: ts.Format(time.RFC3339),
		Footer:    &discordgo.MessageEmbedFooter{Text: "User ID: " + e.UserID},
	}
}
