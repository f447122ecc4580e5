package moderation

import (
	"context"
	"sync"

	"github.com/PancyStudios/PancyModGo/pkg/models"
)

// MemoryStore keeps everything in process memory. Used for tests and when
// STORE_BACKEND=memory.
type MemoryStore struct {
	mu       sync.RWMutex
	guilds   map[string]*models.GuildSettings
	warnings map[string][]models.Warn
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		guilds:   make(map[string]*models.GuildSettings),
		warnings: make(map[string][]models.Warn),
	}
}

func (s *MemoryStore) GetGuild(_ context.Context, guildID string) (*models.GuildSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.guilds[guildID].Clone(), nil
}

func (s *MemoryStore) SetGuild(_ context.Context, settings *models.GuildSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.guilds[settings.GuildID] = settings.Clone()
	return nil
}

func (s *MemoryStore) ClearGuild(_ context.Context, guildID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.guilds, guildID)
	return nil
}

func (s *MemoryStore) GetWarnings(_ context.Context, guildID, userID string) ([]models.Warn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.warnings[memberKey(guildID, userID)]
	if !ok {
		return nil, nil
	}
	return append([]models.Warn(nil), w...), nil
}

func (s *MemoryStore) SetWarnings(_ context.Context, guildID, userID string, warns []models.Warn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(warns) == 0 {
		delete(s.warnings, memberKey(guildID, userID))
		return nil
	}
	s.warnings[memberKey(guildID, userID)] = append([]models.Warn(nil), warns...)
	return nil
}

func (s *MemoryStore) ClearWarnings(_ context.Context, guildID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.warnings, memberKey(guildID, userID))
	return nil
}
