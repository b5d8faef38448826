package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// maxSocketPath is the usable length of sockaddr_un.sun_path, which also holds a NUL.
const maxSocketPath = 107

// Config holds server configuration values.
type Config struct {
	SocketPath      string        `mapstructure:"socket_path" yaml:"socket_path" validate:"required"`
	MaxClients      int           `mapstructure:"max_clients" yaml:"max_clients" validate:"min=1,max=4096"`
	BufferSize      int           `mapstructure:"buffer_size" yaml:"buffer_size" validate:"min=2,max=1048576"`
	NicknameMax     int           `mapstructure:"nickname_max" yaml:"nickname_max" validate:"min=2,max=256"`
	SendPolicy      string        `mapstructure:"send_policy" yaml:"send_policy" validate:"oneof=fail-fast drop-recipient"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" yaml:"write_timeout" validate:"min=0"`
	LineRateLimit   int           `mapstructure:"line_rate_limit" yaml:"line_rate_limit" validate:"min=0"`
	LogLevel        string        `mapstructure:"log_level" yaml:"log_level" validate:"oneof=debug info warn warning error"`
	LogFormat       string        `mapstructure:"log_format" yaml:"log_format" validate:"oneof=console json"`
	DatabasePath    string        `mapstructure:"database_path" yaml:"database_path"`
	AdminAddr       string        `mapstructure:"admin_addr" yaml:"admin_addr" validate:"omitempty,tcp_addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" validate:"min=0"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		SocketPath:      "/tmp/wirechat.sock",
		MaxClients:      10,
		BufferSize:      1024,
		NicknameMax:     32,
		SendPolicy:      "fail-fast",
		LogLevel:        "info",
		LogFormat:       "console",
		ShutdownTimeout: 5 * time.Second,
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.SocketPath != "" {
		c.SocketPath = other.SocketPath
	}
	if other.MaxClients != 0 {
		c.MaxClients = other.MaxClients
	}
	if other.BufferSize != 0 {
		c.BufferSize = other.BufferSize
	}
	if other.NicknameMax != 0 {
		c.NicknameMax = other.NicknameMax
	}
	if other.SendPolicy != "" {
		c.SendPolicy = other.SendPolicy
	}
	if other.WriteTimeout != 0 {
		c.WriteTimeout = other.WriteTimeout
	}
	if other.LineRateLimit != 0 {
		c.LineRateLimit = other.LineRateLimit
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.LogFormat != "" {
		c.LogFormat = other.LogFormat
	}
	if other.DatabasePath != "" {
		c.DatabasePath = other.DatabasePath
	}
	if other.AdminAddr != "" {
		c.AdminAddr = other.AdminAddr
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
}

var validate = validator.New()

// Validate rejects configurations the server cannot start with.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if len(c.SocketPath) > maxSocketPath {
		return fmt.Errorf("invalid config: socket path is %d bytes, limit is %d", len(c.SocketPath), maxSocketPath)
	}
	return nil
}
