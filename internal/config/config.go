package config

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Mode             string `mapstructure:"mode"`
	Port             int    `mapstructure:"port"`
	StaticPath       string `mapstructure:"static_path"`
	UploadPath       string `mapstructure:"upload_path"`
	ReadLimit        int64  `mapstructure:"read_limit"`
	SendBuffer       int    `mapstructure:"send_buffer"`
	CodeAttempts     int    `mapstructure:"code_attempts"`
	StrictMembership bool   `mapstructure:"strict_membership"`
	Secret           string `mapstructure:"secret"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("static_path", "./web")
	v.SetDefault("upload_path", "./uploads")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("send_buffer", 64)
	v.SetDefault("code_attempts", 16)
	v.SetDefault("strict_membership", false)
	v.SetDefault("secret", "huddle-dev-secret")

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	log.Info().Str("mode", cfg.Mode).Int("port", cfg.Port).Str("static", cfg.StaticPath).Msg("config ready")
	return &cfg, nil
}
