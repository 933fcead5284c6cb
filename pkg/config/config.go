// Package config loads cadmcp settings from defaults, an optional YAML
// file and CADMCP_ environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Host     HostConfig
	Server   ServerConfig
	Document DocumentConfig
	Log      LogConfig
	Script   ScriptConfig
}

// HostConfig addresses the geometry host.
type HostConfig struct {
	Address string
	Timeout time.Duration
	// Listen is the TCP address `cadmcp host` binds; WS the WebSocket one.
	Listen string
	WS     string
}

// ServerConfig holds MCP server settings.
type ServerConfig struct {
	Name string
}

// DocumentConfig holds simulated host settings.
type DocumentConfig struct {
	Tolerance      float64
	AngleTolerance float64 `mapstructure:"angle_tolerance"`
	MeshCells      int     `mapstructure:"mesh_cells"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string
}

// ScriptConfig holds script engine settings.
type ScriptConfig struct {
	Timeout time.Duration
}

// Load reads configuration. path names a config file; empty means
// cadmcp.yaml in the working directory or $HOME/.config/cadmcp, if present.
// Env var overrides use prefix CADMCP_, e.g. CADMCP_HOST_ADDRESS.
func Load(path string) (Config, error) {
	v := viper.New()

	v.SetDefault("host.address", "tcp://127.0.0.1:1999")
	v.SetDefault("host.timeout", 30*time.Second)
	v.SetDefault("host.listen", "127.0.0.1:1999")
	v.SetDefault("host.ws", "")
	v.SetDefault("server.name", "cadmcp")
	v.SetDefault("document.tolerance", 0.001)
	v.SetDefault("document.angle_tolerance", 1.0)
	v.SetDefault("document.mesh_cells", 48)
	v.SetDefault("log.level", "info")
	v.SetDefault("script.timeout", 5*time.Second)

	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("cadmcp")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "cadmcp"))
		}
	}

	v.SetEnvPrefix("CADMCP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing default file is fine; a named file must exist.
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.Document.Tolerance <= 0 {
		return fmt.Errorf("document.tolerance must be positive, got %v", c.Document.Tolerance)
	}
	if c.Document.AngleTolerance <= 0 {
		return fmt.Errorf("document.angle_tolerance must be positive, got %v", c.Document.AngleTolerance)
	}
	if c.Document.MeshCells < 8 {
		return fmt.Errorf("document.mesh_cells must be at least 8, got %d", c.Document.MeshCells)
	}
	if c.Host.Timeout <= 0 {
		return fmt.Errorf("host.timeout must be positive, got %s", c.Host.Timeout)
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	return nil
}

// LogLevel parses Log.Level.
func (c Config) LogLevel() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return l, nil
}
