package main

import (
	"context"
	"fmt"

	"github.com/PancyStudios/PancyModGo/pkg/config"
	"github.com/PancyStudios/PancyModGo/pkg/database"
	"github.com/PancyStudios/PancyModGo/pkg/database/boltstore"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/moderation"
)

// storage is the backend selected by STORE_BACKEND
type storage struct {
	moderation moderation.Store
	audit      *boltstore.AuditLog

	mongo *database.Database
	bolt  *boltstore.Store
}

func openStorage(ctx context.Context, cfg *config.Config) (*storage, error) {
	switch cfg.StoreBackend {
	case config.BackendMongo:
		db, err := database.Init(ctx, cfg.MongoDBURL, cfg.DBName)
		if err != nil {
			// Continue offline, it will attempt to reconnect
			logger.Error(fmt.Sprintf("Error connecting to database: %v", err), "Main")
		}
		database.InitGlobalDataManagers(db, database.DataManagerOptions{MaxCacheSize: cfg.CacheSize})
		return &storage{
			moderation: database.NewModerationStore(database.GlobalGuildDM, database.GlobalWarnDM),
			mongo:      db,
		}, nil

	case config.BackendBolt:
		st, err := boltstore.Open(boltstore.Options{Path: cfg.BoltPath})
		if err != nil {
			return nil, err
		}
		logger.Success("Base de datos local abierta en "+cfg.BoltPath, "Main")
		return &storage{
			moderation: st.ModerationStore(),
			audit:      st.AuditLog(),
			bolt:       st,
		}, nil
	}

	logger.Warn("Usando almacenamiento en memoria: los datos se pierden al reiniciar", "Main")
	return &storage{moderation: moderation.NewMemoryStore()}, nil
}

// Status is shown by /utils status and the web API
func (s *storage) Status(ctx context.Context) (string, bool) {
	switch {
	case s.mongo != nil:
		return s.mongo.Status(ctx)
	case s.bolt != nil:
		return "🟢 | Local (bbolt)", true
	}
	return "🟡 | En memoria", true
}

func (s *storage) Connected() bool {
	if s.mongo != nil {
		return s.mongo.Connected()
	}
	return true
}

func (s *storage) PendingWrites() int {
	if s.mongo != nil {
		return s.mongo.PendingWrites()
	}
	return 0
}

func (s *storage) Close() {
	if s.mongo != nil {
		if err := s.mongo.Disconnect(context.Background()); err != nil {
			logger.Error(fmt.Sprintf("Error desconectando la base de datos: %v", err), "Main")
		}
	}
	if s.bolt != nil {
		if err := s.bolt.Close(); err != nil {
			logger.Error(fmt.Sprintf("Error cerrando la base de datos local: %v", err), "Main")
		}
	}
}
