package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "VIBESYNC"

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	DeviceTimeout   time.Duration `mapstructure:"device_timeout"`
}

type LogConfig struct {
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
}

// BrokerConfig picks the pub/sub primitive both endpoints share.
type BrokerConfig struct {
	Kind        string `mapstructure:"kind"` // memory | redis | postgres
	Channel     string `mapstructure:"channel"`
	OutboxBytes int    `mapstructure:"outbox_bytes"`
}

type RedisConfig struct {
	Addr string `mapstructure:"addr"`
	Pass string `mapstructure:"pass"`
	DB   int    `mapstructure:"db"`
}

type PostgresConfig struct {
	DSN string `mapstructure:"dsn"`
}

// PlaybackConfig tunes the local state machine. Headless endpoints log
// actuations instead of driving WebSocket devices.
type PlaybackConfig struct {
	HoldCeilingMs int  `mapstructure:"hold_ceiling_ms"`
	PresetPulseMs int  `mapstructure:"preset_pulse_ms"`
	QueueSize     int  `mapstructure:"queue_size"`
	Headless      bool `mapstructure:"headless"`
}

func (p PlaybackConfig) HoldCeiling() time.Duration {
	return time.Duration(p.HoldCeilingMs) * time.Millisecond
}

func (p PlaybackConfig) PresetPulse() time.Duration {
	return time.Duration(p.PresetPulseMs) * time.Millisecond
}

type GeneratorConfig struct {
	Kind    string        `mapstructure:"kind"` // gemini | ollama | openai | static
	Timeout time.Duration `mapstructure:"timeout"`
}

type GeminiConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type OllamaConfig struct {
	URLs  []string `mapstructure:"urls"`
	Model string   `mapstructure:"model"`
}

type OpenAIConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type Settings struct {
	Env          string          `mapstructure:"env"`
	Debug        bool            `mapstructure:"debug"`
	EndpointName string          `mapstructure:"endpoint_name"`
	Server       ServerConfig    `mapstructure:"server"`
	Log          LogConfig       `mapstructure:"log"`
	Broker       BrokerConfig    `mapstructure:"broker"`
	Redis        RedisConfig     `mapstructure:"redis"`
	Postgres     PostgresConfig  `mapstructure:"postgres"`
	Playback     PlaybackConfig  `mapstructure:"playback"`
	Generator    GeneratorConfig `mapstructure:"generator"`
	Gemini       GeminiConfig    `mapstructure:"gemini"`
	Ollama       OllamaConfig    `mapstructure:"ollama"`
	OpenAI       OpenAIConfig    `mapstructure:"openai"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "dev")
	v.SetDefault("debug", false)
	v.SetDefault("endpoint_name", "")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.shutdown_timeout", 5*time.Second)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.device_timeout", 30*time.Minute)
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 50)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("broker.kind", "memory")
	v.SetDefault("broker.channel", "vibesync_demo_channel")
	v.SetDefault("broker.outbox_bytes", 64*1024)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.pass", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("postgres.dsn", "")
	v.SetDefault("playback.hold_ceiling_ms", 30000)
	v.SetDefault("playback.preset_pulse_ms", 10000)
	v.SetDefault("playback.queue_size", 64)
	v.SetDefault("playback.headless", false)
	v.SetDefault("generator.kind", "static")
	v.SetDefault("generator.timeout", 15*time.Second)
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model", "gemini-2.0-flash")
	v.SetDefault("ollama.urls", []string{"http://localhost:11434"})
	v.SetDefault("ollama.model", "llama3.1:8b-instruct")
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.model", "gpt-4o-mini")
}

// Load reads config_<env>.yaml (optional), then VIBESYNC_* env overrides.
// A .env file in the working directory is applied first when present.
func Load() (*Settings, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}
	return LoadFrom(viper.New(), ".", "./config")
}

// LoadFrom is Load against a caller-supplied viper instance and search paths.
func LoadFrom(v *viper.Viper, paths ...string) (*Settings, error) {
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config_" + genEnv(v))
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	return &settings, nil
}

func (s *Settings) Validate() error {
	switch s.Broker.Kind {
	case "memory", "redis", "postgres":
	default:
		return fmt.Errorf("unknown broker kind %q", s.Broker.Kind)
	}
	if s.Broker.Channel == "" {
		return errors.New("broker channel must be set")
	}
	if s.Broker.Kind == "postgres" && s.Postgres.DSN == "" {
		return errors.New("postgres broker needs postgres.dsn")
	}
	switch s.Generator.Kind {
	case "gemini", "ollama", "openai", "static":
	default:
		return fmt.Errorf("unknown generator kind %q", s.Generator.Kind)
	}
	if s.Playback.HoldCeilingMs <= 0 || s.Playback.PresetPulseMs <= 0 {
		return errors.New("playback durations must be positive")
	}
	if s.Playback.QueueSize <= 0 {
		return errors.New("playback queue size must be positive")
	}
	if s.Generator.Timeout <= 0 {
		return errors.New("generator timeout must be positive")
	}
	return nil
}

func genEnv(v *viper.Viper) string {
	env := v.GetString("env")
	if env == "" {
		return "dev"
	}
	return env
}
