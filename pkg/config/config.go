// Package config provides configuration management for the bot.
// It loads environment variables and makes them available throughout the application.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// Storage backends
const (
	BackendMongo  = "mongo"
	BackendBolt   = "bolt"
	BackendMemory = "memory"
)

// Config holds all configuration values for the bot
type Config struct {
	// Discord
	BotToken   string
	DevGuildID string

	// Storage
	StoreBackend string
	MongoDBURL   string
	DBName       string
	BoltPath     string
	CacheSize    int

	// MQTT
	MQTTHost     string
	MQTTPort     string
	MQTTUser     string
	MQTTPassword string

	// Web Server
	Port         string
	AllowedHosts []string
	APIToken     string

	// Environment
	Environment string
	LogLevel    string

	// Webhooks
	ErrorWebhook string
	LogsWebhook  string

	// Moderation
	SetupIdleTimeout time.Duration
}

var (
	Version   = "Dev-Local"
	BuildTime = "Hoy"
)

var (
	cfg     *Config
	cfgOnce sync.Once
)

// resetForTesting resets the configuration for testing purposes.
// This function should only be called from test code.
func resetForTesting() {
	cfg = nil
	cfgOnce = sync.Once{}
}

func loadConfig() {
	// Load .env file if it exists (ignoring error if it doesn't)
	_ = godotenv.Load()

	cfg = &Config{
		BotToken:   getEnv("botToken", ""),
		DevGuildID: getEnv("devGuildId", ""),

		StoreBackend: strings.ToLower(getEnv("STORE_BACKEND", BackendMongo)),
		MongoDBURL:   getEnv("mongodbUrl", "mongodb://localhost:27017"),
		DBName:       getEnv("dbName", "PancyMod"),
		BoltPath:     getEnv("BOLT_PATH", "data/pancymod.db"),
		CacheSize:    getEnvInt("CACHE_SIZE", 1000),

		MQTTHost:     getEnv("MQTT_Host", "localhost"),
		MQTTPort:     getEnv("MQTT_Port", "1883"),
		MQTTUser:     getEnv("MQTT_User", ""),
		MQTTPassword: getEnv("MQTT_Password", ""),

		Port:         getEnv("PORT", "3000"),
		AllowedHosts: getEnvList("WEB_ALLOWED_HOSTS"),
		APIToken:     getEnv("API_TOKEN", ""),

		Environment: getEnv("enviroment", "dev"),
		LogLevel:    getEnv("LOG_LEVEL", "debug"),

		ErrorWebhook: getEnv("errorWebhook", ""),
		LogsWebhook:  getEnv("logsWebhook", ""),

		SetupIdleTimeout: getEnvDuration("SETUP_IDLE_TIMEOUT", 60*time.Second),
	}
}

// Load initializes the configuration from environment variables
func Load() (*Config, error) {
	cfgOnce.Do(loadConfig)
	return cfg, cfg.Validate()
}

// Get returns the current configuration
func Get() *Config {
	cfgOnce.Do(loadConfig)
	return cfg
}

// Validate reports settings the bot cannot start with
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendMongo, BackendBolt, BackendMemory:
	default:
		return fmt.Errorf("STORE_BACKEND %q no es válido (mongo, bolt o memory)", c.StoreBackend)
	}
	if c.SetupIdleTimeout <= 0 {
		return fmt.Errorf("SETUP_IDLE_TIMEOUT debe ser positivo")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

// getEnvDuration accepts Go durations ("90s") or plain seconds ("90")
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if n, err := strconv.Atoi(value); err == nil {
		return time.Duration(n) * time.Second
	}
	return defaultValue
}

func getEnvList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// IsProd returns true if the environment is production
func (c *Config) IsProd() bool {
	return c.Environment == "prod"
}
