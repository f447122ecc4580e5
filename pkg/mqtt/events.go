package mqtt

import (
	"context"
	"fmt"
	"strings"

	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/moderation"
	"github.com/google/uuid"
)

// EventTopicPrefix is the root of every moderation event topic
const EventTopicPrefix = "pancy/moderation"

// Publisher sends a JSON payload to a topic
type Publisher interface {
	Publish(topic string, payload interface{}) error
}

// Event is the payload published for each moderation entry
type Event struct {
	ID string `json:"id"`
	moderation.Entry
}

// EventPublisher records moderation entries on the bus, one topic per guild
// and action: pancy/moderation/<guild>/<action>.
type EventPublisher struct {
	pub Publisher
	ids func() string
}

// NewEventPublisher creates a recorder publishing through pub
func NewEventPublisher(pub Publisher) *EventPublisher {
	return &EventPublisher{pub: pub, ids: uuid.NewString}
}

// EventTopic returns the topic an entry is published on
func EventTopic(guildID string, action moderation.Action) string {
	return strings.Join([]string{EventTopicPrefix, guildID, string(action)}, "/")
}

func (p *EventPublisher) Record(_ context.Context, e moderation.Entry) {
	if p.pub == nil {
		return
	}
	err := p.pub.Publish(EventTopic(e.GuildID, e.Action), Event{ID: p.ids(), Entry: e})
	if err != nil {
		logger.Debug(fmt.Sprintf("Evento %s de %s no publicado: %v", e.Action, e.GuildID, err), "MQTT")
	}
}
