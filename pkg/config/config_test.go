package config

import (
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	t.Setenv("botToken", "test-token")
	t.Setenv("PORT", "3001")
	t.Setenv("enviroment", "test")
	t.Setenv("STORE_BACKEND", "Bolt")
	t.Setenv("SETUP_IDLE_TIMEOUT", "2m")

	resetForTesting()

	config, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if config.BotToken != "test-token" {
		t.Errorf("BotToken = %v, want %v", config.BotToken, "test-token")
	}
	if config.Port != "3001" {
		t.Errorf("Port = %v, want %v", config.Port, "3001")
	}
	if config.Environment != "test" {
		t.Errorf("Environment = %v, want %v", config.Environment, "test")
	}
	if config.StoreBackend != BackendBolt {
		t.Errorf("StoreBackend = %v, want %v", config.StoreBackend, BackendBolt)
	}
	if config.SetupIdleTimeout != 2*time.Minute {
		t.Errorf("SetupIdleTimeout = %v, want %v", config.SetupIdleTimeout, 2*time.Minute)
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Setenv("STORE_BACKEND", "redis")
	resetForTesting()

	if _, err := Load(); err == nil {
		t.Error("Load() should fail for an unknown backend")
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("TEST_VAR", "test-value")

	if got := getEnv("TEST_VAR", "default"); got != "test-value" {
		t.Errorf("getEnv() = %v, want %v", got, "test-value")
	}
	if got := getEnv("NON_EXISTENT_VAR", "default"); got != "default" {
		t.Errorf("getEnv() = %v, want %v", got, "default")
	}
}

func TestGetEnvInt(t *testing.T) {
	tests := []struct {
		value string
		want  int
	}{
		{"", 7},
		{"42", 42},
		{"nope", 7},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("TEST_INT", tt.value)
			if got := getEnvInt("TEST_INT", 7); got != tt.want {
				t.Errorf("getEnvInt(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestGetEnvDuration(t *testing.T) {
	tests := []struct {
		value string
		want  time.Duration
	}{
		{"", time.Minute},
		{"90s", 90 * time.Second},
		{"30", 30 * time.Second},
		{"soon", time.Minute},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("TEST_DURATION", tt.value)
			if got := getEnvDuration("TEST_DURATION", time.Minute); got != tt.want {
				t.Errorf("getEnvDuration(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestGetEnvList(t *testing.T) {
	t.Setenv("TEST_LIST", " a.example, ,b.example ")
	got := getEnvList("TEST_LIST")
	if len(got) != 2 || got[0] != "a.example" || got[1] != "b.example" {
		t.Errorf("getEnvList() = %v, want [a.example b.example]", got)
	}
}

func TestIsProd(t *testing.T) {
	resetForTesting()
	t.Setenv("enviroment", "prod")
	config, _ := Load()
	if !config.IsProd() {
		t.Error("IsProd() should return true when environment is 'prod'")
	}

	resetForTesting()
	t.Setenv("enviroment", "dev")
	config, _ = Load()
	if config.IsProd() {
		t.Error("IsProd() should return false when environment is not 'prod'")
	}
}

func TestGet(t *testing.T) {
	resetForTesting()

	config := Get()
	if config == nil {
		t.Fatal("Get() returned nil")
	}
	if config2 := Get(); config != config2 {
		t.Error("Get() should return the same config on subsequent calls")
	}
}

func TestDefaultValues(t *testing.T) {
	for _, key := range []string{"botToken", "devGuildId", "mongodbUrl", "dbName", "MQTT_Host", "MQTT_Port", "PORT", "enviroment", "STORE_BACKEND", "SETUP_IDLE_TIMEOUT"} {
		t.Setenv(key, "")
	}

	resetForTesting()
	config, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if config.MongoDBURL != "mongodb://localhost:27017" {
		t.Errorf("MongoDBURL default = %v, want %v", config.MongoDBURL, "mongodb://localhost:27017")
	}
	if config.DBName != "PancyMod" {
		t.Errorf("DBName default = %v, want %v", config.DBName, "PancyMod")
	}
	if config.StoreBackend != BackendMongo {
		t.Errorf("StoreBackend default = %v, want %v", config.StoreBackend, BackendMongo)
	}
	if config.MQTTPort != "1883" {
		t.Errorf("MQTTPort default = %v, want %v", config.MQTTPort, "1883")
	}
	if config.Port != "3000" {
		t.Errorf("Port default = %v, want %v", config.Port, "3000")
	}
	if config.SetupIdleTimeout != 60*time.Second {
		t.Errorf("SetupIdleTimeout default = %v, want %v", config.SetupIdleTimeout, 60*time.Second)
	}
}
