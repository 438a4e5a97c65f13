package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	"RelayGate/logger"
)

// Config is the full startup configuration for the relay. Values come from
// an optional YAML file plus RELAYGATE_* environment overrides.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Backend  BackendConfig  `mapstructure:"backend"`
	Relay    RelayConfig    `mapstructure:"relay"`
	Log      LogConfig      `mapstructure:"log"`
	Presence PresenceConfig `mapstructure:"presence"`
}

type ServerConfig struct {
	Addr           string   `mapstructure:"addr"`
	AllowedOrigins []string `mapstructure:"allowedOrigins"` // empty = allow all
	EmitJWTSecret  string   `mapstructure:"emitJwtSecret"`  // empty disables /emit auth
}

type BackendConfig struct {
	BaseURL         string        `mapstructure:"baseUrl"`
	AuthTimeout     time.Duration `mapstructure:"authTimeout"`    // per auth call
	RequestTimeout  time.Duration `mapstructure:"requestTimeout"` // whole-client cap
	BreakerFailures int           `mapstructure:"breakerFailures"`
	BreakerCooldown time.Duration `mapstructure:"breakerCooldown"`
}

type RelayConfig struct {
	SessionTTL    time.Duration `mapstructure:"sessionTtl"`
	SweepEvery    time.Duration `mapstructure:"sweepEvery"`
	MaxPerUser    int           `mapstructure:"maxPerUser"` // <=0 unlimited
	FanoutWorkers int           `mapstructure:"fanoutWorkers"`
	FanoutQueue   int           `mapstructure:"fanoutQueue"`
	SendQueue     int           `mapstructure:"sendQueue"` // per-connection outbound buffer

	RateLimitEvents int           `mapstructure:"rateLimitEvents"` // <=0 disables
	RateLimitBurst  int           `mapstructure:"rateLimitBurst"`
	RateLimitWindow time.Duration `mapstructure:"rateLimitWindow"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

type PresenceConfig struct {
	TypingTimeout time.Duration `mapstructure:"typingTimeout"`
}

// Load reads configuration from fileName (without extension, searched in the
// working directory) and the environment. A missing file is not an error.
func Load(fileName string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.addr", ":8081")
	v.SetDefault("server.allowedOrigins", []string{})
	v.SetDefault("server.emitJwtSecret", "")
	v.SetDefault("backend.baseUrl", "http://localhost:8080")
	v.SetDefault("backend.authTimeout", "5s")
	v.SetDefault("backend.requestTimeout", "30s")
	v.SetDefault("backend.breakerFailures", 5)
	v.SetDefault("backend.breakerCooldown", "30s")
	v.SetDefault("relay.sessionTtl", "120s")
	v.SetDefault("relay.sweepEvery", "30s")
	v.SetDefault("relay.maxPerUser", 0)
	v.SetDefault("relay.fanoutWorkers", 8)
	v.SetDefault("relay.fanoutQueue", 1024)
	v.SetDefault("relay.sendQueue", 256)
	v.SetDefault("relay.rateLimitEvents", 100)
	v.SetDefault("relay.rateLimitBurst", 20)
	v.SetDefault("relay.rateLimitWindow", "60s")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("presence.typingTimeout", "5s")

	v.SetConfigName(fileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("RELAYGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		logger.Warnf("[config] no %s.yaml found, using defaults and env", fileName)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
