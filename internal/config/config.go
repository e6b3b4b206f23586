// Package config holds the chat server configuration: YAML file, then
// environment overrides, then defaults for whatever is left unset.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Config - full server configuration.
type Config struct {
	Listen  ListenConfig  `yaml:"listen"`
	Gateway GatewayConfig `yaml:"gateway"`
	History HistoryConfig `yaml:"history"`
	Logging LoggingConfig `yaml:"logging"`
}

// ListenConfig - TCP listener binding.
type ListenConfig struct {
	IP   string `yaml:"ip"`
	Port uint16 `yaml:"port"`
}

// GatewayConfig - optional websocket front door.
type GatewayConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// HistoryConfig - recent-message replay for newly joined members.
type HistoryConfig struct {
	// Greets - number of history lines pushed to a new member; 0 disables.
	Greets int `yaml:"greets"`
}

// LoggingConfig - logging verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// ZapLevel - the zap level for the configured name; info when unset.
func (c *LoggingConfig) ZapLevel() zapcore.Level {
	lvl, err := zapcore.ParseLevel(c.Level)
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

// Default - configuration used when no file and no overrides are present.
func Default() Config {
	return Config{
		Listen:  ListenConfig{IP: "", Port: 12345},
		Gateway: GatewayConfig{Enabled: false, Addr: ":8080"},
		History: HistoryConfig{Greets: 10},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load - reads the optional YAML file at path (empty path skips the file),
// applies environment overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v, ok := os.LookupEnv("LINECHAT_IP"); ok {
		c.Listen.IP = v
	}
	if v, ok := os.LookupEnv("LINECHAT_PORT"); ok {
		if port, err := strconv.ParseUint(v, 10, 16); err == nil {
			c.Listen.Port = uint16(port)
		}
	}
	if v, ok := os.LookupEnv("LINECHAT_WS_ADDR"); ok {
		c.Gateway.Enabled = true
		c.Gateway.Addr = v
	}
	if v, ok := os.LookupEnv("LINECHAT_LOG_LEVEL"); ok {
		c.Logging.Level = v
	}
}

// Validate - rejects values the server cannot start with.
func (c *Config) Validate() error {
	if c.Listen.Port == 0 {
		return fmt.Errorf("config: listen port must not be 0")
	}
	if c.History.Greets < 0 {
		return fmt.Errorf("config: history greets (%d) must not be negative", c.History.Greets)
	}
	if c.Gateway.Enabled && c.Gateway.Addr == "" {
		return fmt.Errorf("config: gateway enabled without an address")
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown log level %q", c.Logging.Level)
	}
	return nil
}

// Addr - the TCP listen address in host:port form.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Listen.IP, strconv.Itoa(int(c.Listen.Port)))
}
