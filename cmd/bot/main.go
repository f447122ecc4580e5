// Package main is the entry point for PancyMod Go.
// It initializes all systems and starts the Discord bot.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/PancyStudios/PancyModGo/internal/commands"
	"github.com/PancyStudios/PancyModGo/internal/events"
	"github.com/PancyStudios/PancyModGo/pkg/config"
	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/errors"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/metrics"
	"github.com/PancyStudios/PancyModGo/pkg/moderation"
	"github.com/PancyStudios/PancyModGo/pkg/mqtt"
	"github.com/PancyStudios/PancyModGo/pkg/web"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.InitWithOptions(logger.Options{
		Dir:             "logs",
		Level:           cfg.LogLevel,
		ErrorWebhookURL: cfg.ErrorWebhook,
		LogsWebhookURL:  cfg.LogsWebhook,
	})
	defer log.Close()

	logger.System(fmt.Sprintf("Iniciando PancyMod Go %s (%s)...", config.Version, config.BuildTime), "Main")
	logger.Info(fmt.Sprintf("Directorio de trabajo: %s", getCurrentDir()), "Main")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize error handler. Too many errors in a row shut the bot down.
	var discordClient *discord.ExtendedClient
	errors.Init(cfg.ErrorWebhook, func() {
		if discordClient != nil {
			_ = discordClient.Stop()
		}
		stop()
	})

	// Initialize storage
	store, err := openStorage(ctx, cfg)
	if err != nil {
		logger.Critical(fmt.Sprintf("Error abriendo el almacenamiento: %v", err), "Main")
		os.Exit(1)
	}
	defer store.Close()

	// Initialize MQTT
	mqttClientID := "pancymod"
	if !cfg.IsProd() {
		mqttClientID = "pancymod_canary"
	}
	mqttClient := mqtt.Init(
		cfg.MQTTHost,
		cfg.MQTTPort,
		cfg.MQTTUser,
		cfg.MQTTPassword,
		mqttClientID,
	)
	defer mqttClient.Destroy()

	// Initialize Discord client
	discordClient, err = discord.Init(cfg.BotToken)
	if err != nil {
		logger.Critical(fmt.Sprintf("Error creating Discord client: %v", err), "Main")
		os.Exit(1)
	}

	// Moderation engine and its collaborators
	recorders := moderation.MultiRecorder{
		discord.NewModLog(discordClient.Session),
		mqtt.NewEventPublisher(mqttClient),
		metrics.Recorder{},
	}
	if store.audit != nil {
		recorders = append(recorders, store.audit)
	}

	engine := moderation.NewEngine(
		store.moderation,
		discord.NewExecutor(discordClient.Session),
		moderation.WithNotifier(discord.NewDMNotifier(discordClient.Session)),
		moderation.WithRecorder(recorders),
	)
	sessions := moderation.NewSessions(engine, cfg.SetupIdleTimeout, func(s *moderation.SetupSession) {
		logger.Debug(fmt.Sprintf("Sesión de configuración de %s en %s expirada con %d cambios sin guardar", s.ModeratorID, s.GuildID, s.Pending()), "Setup")
	})

	// Register commands and events
	commands.RegisterAll(discordClient, commands.Deps{
		Engine:      engine,
		Sessions:    sessions,
		StoreStatus: store.Status,
	})
	events.RegisterAll(discordClient, engine)

	if err := mqtt.RegisterModerationHandlers(mqttClient, engine); err != nil {
		logger.Warn(fmt.Sprintf("No se pudieron registrar las consultas MQTT: %v", err), "Main")
	}

	// Initialize web server
	webDeps := web.Deps{
		Moderation:     engine,
		DatabaseStatus: store.Status,
		Bot:            botInfo(discordClient),
	}
	if store.audit != nil {
		webDeps.AuditLog = store.audit
	}
	webServer := web.Init(web.Options{
		AllowedHosts: cfg.AllowedHosts,
		APIToken:     cfg.APIToken,
	}, webDeps)
	webServer.StartAsync(cfg.Port)

	metrics.StartCollector(ctx, metrics.StatsSource{
		DatabaseConnected: store.Connected,
		PendingWrites:     store.PendingWrites,
		SetupSessions:     sessions.Len,
		Guilds:            discordClient.GuildCount,
	}, 30*time.Second)

	// Start the bot
	if err := discordClient.Start(); err != nil {
		logger.Critical(fmt.Sprintf("Error starting Discord client: %v", err), "Main")
		os.Exit(1)
	}
	defer func() {
		if err := discordClient.Stop(); err != nil {
			logger.Error(fmt.Sprintf("Error cerrando la sesión de Discord: %v", err), "Main")
		}
	}()

	logger.Success("PancyMod Go iniciado correctamente!", "Main")

	// Wait for interrupt signal
	<-ctx.Done()

	logger.System("Apagando PancyMod Go...", "Main")
}

// botInfo reports the bot user for the web API, nil until connected
func botInfo(client *discord.ExtendedClient) func() *web.BotInfo {
	return func() *web.BotInfo {
		if !client.IsReady() || client.Session.State == nil || client.Session.State.User == nil {
			return nil
		}
		user := client.Session.State.User
		return &web.BotInfo{
			ID:       user.ID,
			Username: user.Username,
			Avatar:   user.AvatarURL(""),
			Guilds:   client.GuildCount(),
			IsReady:  true,
		}
	}
}

// getCurrentDir returns the current working directory
func getCurrentDir() string {
	dir, err := os.Getwd()
	if err != nil {
		return "unknown"
	}
	return dir
}
