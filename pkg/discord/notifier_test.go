package discord

import (
	"context"
	"errors"
	"testing"

	"github.com/PancyStudios/PancyModGo/pkg/moderation"
	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDM struct {
	channelErr error
	sendErr    error
	sent       map[string]string
}

func (f *fakeDM) UserChannelCreate(recipientID string, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	if f.channelErr != nil {
		return nil, f.channelErr
	}
	return &discordgo.Channel{ID: "dm-" + recipientID}, nil
}

func (f *fakeDM) ChannelMessageSend(channelID, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	if f.sent == nil {
		f.sent = make(map[string]string)
	}
	f.sent[channelID] = content
	return &discordgo.Message{ChannelID: channelID, Content: content}, nil
}

func (f *fakeDM) Guild(guildID string, _ ...discordgo.RequestOption) (*discordgo.Guild, error) {
	return &discordgo.Guild{ID: guildID, Name: "Pancy"}, nil
}

func (f *fakeDM) User(userID string, _ ...discordgo.RequestOption) (*discordgo.User, error) {
	return &discordgo.User{ID: userID, Username: "spinner"}, nil
}

func TestDMNotifierRendersTemplate(t *testing.T) {
	api := &fakeDM{}
	n := &DMNotifier{api: api}

	n.Notify(context.Background(), moderation.Notification{
		GuildID:  "g",
		UserID:   "u",
		Action:   "warning",
		Reason:   "spam",
		Points:   3,
		Template: "{user}: {action} en {guild} por {reason} ({points})",
	})

	require.Contains(t, api.sent, "dm-u")
	assert.Equal(t, "spinner: warning en Pancy por spam (3)", api.sent["dm-u"])
}

func TestDMNotifierSwallowsFailures(t *testing.T) {
	closed := restError(403, discordgo.ErrCodeCannotSendMessagesToThisUser)

	tests := []struct {
		name string
		api  *fakeDM
	}{
		{name: "closed dms", api: &fakeDM{sendErr: closed}},
		{name: "send failure", api: &fakeDM{sendErr: errors.New("boom")}},
		{name: "channel failure", api: &fakeDM{channelErr: errors.New("boom")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := &DMNotifier{api: tt.api}
			assert.NotPanics(t, func() {
				n.Notify(context.Background(), moderation.Notification{GuildID: "g", UserID: "u"})
			})
			assert.Empty(t, tt.api.sent)
		})
	}
}
