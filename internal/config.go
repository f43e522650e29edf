package internal

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/viper"
)

type AvroFrameConfig struct {
	AppName string `mapstructure:"app_name"`

	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`

	Codec struct {
		Name        string `mapstructure:"name"`
		BlockLength int    `mapstructure:"block_length"`
	} `mapstructure:"codec"`

	Decode struct {
		// 0 decodes whole files at once
		ChunkSize int `mapstructure:"chunk_size"`
	} `mapstructure:"decode"`
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("app_name", "avroframe")
	v.SetDefault("log.level", "info")
	v.SetDefault("codec.name", "null")
	v.SetDefault("codec.block_length", 100)
	v.SetDefault("decode.chunk_size", 0)
	return v
}

// DefaultConfig is the configuration used when no file is given.
func DefaultConfig() *AvroFrameConfig {
	var cfg AvroFrameConfig
	if err := newViper().Unmarshal(&cfg); err != nil {
		panic(err)
	}
	return &cfg
}

func LoadConfig(path string) (*AvroFrameConfig, error) {
	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg AvroFrameConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if cfg.Decode.ChunkSize < 0 {
		return nil, fmt.Errorf("decode.chunk_size must not be negative, got %d", cfg.Decode.ChunkSize)
	}

	return &cfg, nil
}

// LogLevel maps log.level to a slog level, defaulting to info.
func (c *AvroFrameConfig) LogLevel() slog.Level {
	switch strings.ToLower(c.Log.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
