// Package config loads the optional settings file that overrides this
// client's compiled-in defaults: broker connection details, the gateway
// RPC timeout, and log level.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds this client's ambient tunables: broker defaults, the
// gateway RPC timeout, and the default log level. The settings file is
// entirely optional. The CLI reads RPCTimeout and LogLevel; it does not
// read BrokerURL or APITopic, since its commands take the broker URL and
// API topic as required positional arguments.
type Config struct {
	BrokerURL  string        `yaml:"brokerUrl"`
	APITopic   string        `yaml:"apiTopic"`
	RPCTimeout time.Duration `yaml:"rpcTimeout"`
	LogLevel   string        `yaml:"logLevel"`
}

// Default returns the compiled-in configuration: the base that Load
// overlays a settings file onto, and its result when no file is found.
func Default() Config {
	return Config{
		RPCTimeout: 10 * time.Second,
		LogLevel:   "info",
	}
}

// searchLocations is a candidate-path search list: current directory
// first, then a couple of conventional install locations.
var searchLocations = []string{
	"fwupdate.yaml",
	"./config/fwupdate.yaml",
	"/etc/fwupdate/fwupdate.yaml",
}

// Load returns Default() overlaid with whatever the first readable
// settings file (explicitPath, if non-empty, otherwise the first hit in
// searchLocations) contains. No candidate file in searchLocations being
// present is not an error; an explicitPath that cannot be opened is, and
// Default() is returned alongside that error.
func Load(explicitPath string) (Config, error) {
	cfg := Default()

	locations := searchLocations
	if explicitPath != "" {
		locations = []string{explicitPath}
	}

	var fp *os.File
	for _, path := range locations {
		f, err := os.Open(path)
		if err == nil {
			fp = f
			break
		}
	}
	if fp == nil {
		if explicitPath != "" {
			return cfg, fmt.Errorf("config: could not open %s", explicitPath)
		}
		return cfg, nil
	}
	defer fp.Close()

	data, err := io.ReadAll(fp)
	if err != nil {
		return cfg, fmt.Errorf("config: reading %s: %w", fp.Name(), err)
	}

	var overlay Config
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return cfg, fmt.Errorf("config: parsing %s: %w", fp.Name(), err)
	}
	cfg.applyOverlay(overlay)
	return cfg, nil
}

func (c *Config) applyOverlay(o Config) {
	if o.BrokerURL != "" {
		c.BrokerURL = o.BrokerURL
	}
	if o.APITopic != "" {
		c.APITopic = o.APITopic
	}
	if o.RPCTimeout != 0 {
		c.RPCTimeout = o.RPCTimeout
	}
	if o.LogLevel != "" {
		c.LogLevel = o.LogLevel
	}
}

// SlogLevel parses LogLevel into a slog.Level, defaulting to Info on an
// unrecognized value.
func (c Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
