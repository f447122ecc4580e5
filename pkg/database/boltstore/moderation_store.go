package boltstore

import (
	"bytes"
	"context"
	"fmt"

	"github.com/PancyStudios/PancyModGo/pkg/models"
	"github.com/goccy/go-json"
	bolt "go.etcd.io/bbolt"
)

// ModerationStore persists guild settings and member warnings
type ModerationStore struct {
	db *bolt.DB
}

func memberKey(guildID, userID string) []byte {
	return []byte(guildID + ":" + userID)
}

func (s *ModerationStore) GetGuild(_ context.Context, guildID string) (*models.GuildSettings, error) {
	var settings *models.GuildSettings
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(BucketGuildSettings).Get([]byte(guildID))
		if data == nil {
			return nil
		}
		settings = &models.GuildSettings{}
		return json.Unmarshal(data, settings)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read guild settings: %w", err)
	}
	return settings, nil
}

func (s *ModerationStore) SetGuild(_ context.Context, settings *models.GuildSettings) error {
	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal guild settings: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(BucketGuildSettings).Put([]byte(settings.GuildID), data)
	})
}

func (s *ModerationStore) ClearGuild(_ context.Context, guildID string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(BucketGuildSettings).Delete([]byte(guildID))
	})
}

func (s *ModerationStore) GetWarnings(_ context.Context, guildID, userID string) ([]models.Warn, error) {
	var doc models.WarnsDocument
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(BucketWarnings).Get(memberKey(guildID, userID))
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &doc)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read warnings: %w", err)
	}
	return doc.Warns, nil
}

func (s *ModerationStore) SetWarnings(_ context.Context, guildID, userID string, warns []models.Warn) error {
	if len(warns) == 0 {
		return s.deleteWarnings(guildID, userID)
	}
	data, err := json.Marshal(models.WarnsDocument{GuildID: guildID, UserID: userID, Warns: warns})
	if err != nil {
		return fmt.Errorf("failed to marshal warnings: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(BucketWarnings).Put(memberKey(guildID, userID), data)
	})
}

func (s *ModerationStore) ClearWarnings(_ context.Context, guildID, userID string) error {
	return s.deleteWarnings(guildID, userID)
}

func (s *ModerationStore) deleteWarnings(guildID, userID string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(BucketWarnings).Delete(memberKey(guildID, userID))
	})
}

// GuildWarnings returns every member document of a guild
func (s *ModerationStore) GuildWarnings(_ context.Context, guildID string) ([]*models.WarnsDocument, error) {
	var docs []*models.WarnsDocument
	prefix := []byte(guildID + ":")
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(BucketWarnings).Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			doc := &models.WarnsDocument{}
			if err := json.Unmarshal(v, doc); err != nil {
				return err
			}
			docs = append(docs, doc)
		}
		return nil
	})
	return docs, err
}
