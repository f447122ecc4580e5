package database

import (
	"context"

	"github.com/PancyStudios/PancyModGo/pkg/models"
	"go.mongodb.org/mongo-driver/bson"
)

// Collection names
const (
	GuildSettingsCollection = "guild_settings"
	WarnsCollection         = "warns"
)

// Shared DataManagers, set by InitGlobalDataManagers
var (
	GlobalGuildDM *DataManager[models.GuildSettings]
	GlobalWarnDM  *DataManager[models.WarnsDocument]
)

// InitGlobalDataManagers creates the shared DataManagers over db
func InitGlobalDataManagers(db *Database, opts ...DataManagerOptions) {
	GlobalGuildDM = NewDataManager[models.GuildSettings](GuildSettingsCollection, db, opts...)
	GlobalWarnDM = NewDataManager[models.WarnsDocument](WarnsCollection, db, opts...)
}

// ModerationStore persists guild settings and member warnings in MongoDB.
// Documents handed out are copies, cached values are never exposed.
type ModerationStore struct {
	guilds *DataManager[models.GuildSettings]
	warns  *DataManager[models.WarnsDocument]
}

// NewModerationStore creates a store over the given DataManagers
func NewModerationStore(guilds *DataManager[models.GuildSettings], warns *DataManager[models.WarnsDocument]) *ModerationStore {
	return &ModerationStore{guilds: guilds, warns: warns}
}

func guildQuery(guildID string) bson.M {
	return bson.M{"guildId": guildID}
}

func memberQuery(guildID, userID string) bson.M {
	return bson.M{"guildId": guildID, "userId": userID}
}

func (s *ModerationStore) GetGuild(ctx context.Context, guildID string) (*models.GuildSettings, error) {
	doc, err := s.guilds.Get(ctx, guildQuery(guildID))
	if err != nil || doc == nil {
		return nil, err
	}
	return doc.Clone(), nil
}

func (s *ModerationStore) SetGuild(ctx context.Context, settings *models.GuildSettings) error {
	return s.guilds.Set(ctx, guildQuery(settings.GuildID), settings.Clone())
}

func (s *ModerationStore) ClearGuild(ctx context.Context, guildID string) error {
	return s.guilds.Delete(ctx, guildQuery(guildID))
}

func (s *ModerationStore) GetWarnings(ctx context.Context, guildID, userID string) ([]models.Warn, error) {
	doc, err := s.warns.Get(ctx, memberQuery(guildID, userID))
	if err != nil || doc == nil {
		return nil, err
	}
	return append([]models.Warn(nil), doc.Warns...), nil
}

func (s *ModerationStore) SetWarnings(ctx context.Context, guildID, userID string, warns []models.Warn) error {
	if len(warns) == 0 {
		return s.warns.Delete(ctx, memberQuery(guildID, userID))
	}
	return s.warns.Set(ctx, memberQuery(guildID, userID), &models.WarnsDocument{
		GuildID: guildID,
		UserID:  userID,
		Warns:   append([]models.Warn(nil), warns...),
	})
}

func (s *ModerationStore) ClearWarnings(ctx context.Context, guildID, userID string) error {
	return s.warns.Delete(ctx, memberQuery(guildID, userID))
}

// GuildWarnings returns every member document of a guild, for the HTTP API
func (s *ModerationStore) GuildWarnings(ctx context.Context, guildID string) ([]*models.WarnsDocument, error) {
	return s.warns.GetAll(ctx, guildQuery(guildID))
}
