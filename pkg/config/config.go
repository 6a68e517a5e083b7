package config

import "time"

type Config struct {
	LogLevel  string          `mapstructure:"logLevel"`
	Server    ServerConfig    `mapstructure:"server"`
	Transport TransportConfig `mapstructure:"transport"`
	Shutdown  ShutdownConfig  `mapstructure:"shutdown"`
}

type ServerConfig struct {
	Address string     `mapstructure:"address"`
	Auth    AuthConfig `mapstructure:"auth"`
}

// AuthConfig controls the optional handshake token check. Off by default:
// the deployed topology decides whether instances authenticate to the relay.
type AuthConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	JWTSecret string `mapstructure:"jwtSecret"`
}

type TransportConfig struct {
	ReadTimeout  time.Duration `mapstructure:"readTimeout"`
	WriteTimeout time.Duration `mapstructure:"writeTimeout"`
}

type ShutdownConfig struct {
	// GracePeriod bounds how long shutdown waits for connection goroutines
	// to drain before force-exiting the wait.
	GracePeriod time.Duration `mapstructure:"gracePeriod"`
	Message     string        `mapstructure:"message"`
}
