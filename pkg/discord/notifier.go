package discord

import (
	"context"
	"errors"
	"fmt"

	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/moderation"
	"github.com/bwmarrin/discordgo"
)

type dmAPI interface {
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	Guild(guildID string, options ...discordgo.RequestOption) (*discordgo.Guild, error)
	User(userID string, options ...discordgo.RequestOption) (*discordgo.User, error)
}

// DMNotifier sends moderation notifications as direct messages. Closed DMs
// and other failures are logged and otherwise ignored.
type DMNotifier struct {
	api dmAPI
}

// NewDMNotifier creates a notifier over a discordgo session
func NewDMNotifier(s *discordgo.Session) *DMNotifier {
	return &DMNotifier{api: s}
}

func (n *DMNotifier) Notify(ctx context.Context, note moderation.Notification) {
	opt := discordgo.WithContext(ctx)

	guildName := note.GuildID
	if g, err := n.api.Guild(note.GuildID, opt); err == nil && g != nil {
		guildName = g.Name
	}
	userName := note.UserID
	if u, err := n.api.User(note.UserID, opt); err == nil && u != nil {
		userName = u.Username
	}

	channel, err := n.api.UserChannelCreate(note.UserID, opt)
	if err != nil {
		logger.Warn(fmt.Sprintf("No se pudo abrir DM con %s: %v", note.UserID, err), "Notifier")
		return
	}

	if _, err := n.api.ChannelMessageSend(channel.ID, note.Render(guildName, userName), opt); err != nil {
		var rest *discordgo.RESTError
		if errors.As(err, &rest) && rest.Message != nil && rest.Message.Code == discordgo.ErrCodeCannotSendMessagesToThisUser {
			logger.Debug(fmt.Sprintf("El usuario %s tiene los DMs cerrados", note.UserID), "Notifier")
			return
		}
		logger.Error(fmt.Sprintf("Fallo al enviar DM a %s: %v", note.UserID, err), "Notifier")
	}
}
