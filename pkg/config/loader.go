package config

import (
	"log/slog"
	"strings"

	"github.com/spf13/viper"
)

// Load reads relay configuration from a yaml file and environment
// variables. Precedence: env (COLLABRELAY_*) over file over defaults. A
// missing config file is not an error; defaults and env carry a relay fine.
func Load(logger *slog.Logger, fileName string) (*Config, error) {
	v := viper.New()

	v.SetDefault("logLevel", "info")
	v.SetDefault("server.address", ":9000")
	v.SetDefault("server.auth.enabled", false)
	v.SetDefault("server.auth.jwtSecret", "")
	v.SetDefault("transport.readTimeout", "90s")
	v.SetDefault("transport.writeTimeout", "10s")
	v.SetDefault("shutdown.gracePeriod", "10s")
	v.SetDefault("shutdown.message", "collaboration relay shutting down")

	v.SetConfigName(fileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("COLLABRELAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		logger.Warn("config file not found, relying on defaults and env vars")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
