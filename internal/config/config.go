package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Detector DetectorConfig `yaml:"detector"`
}

type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	WSPath          string        `yaml:"ws_path"`
	MaxConnections  int           `yaml:"max_connections"` // 0 = unlimited
	AllowedOrigins  []string      `yaml:"allowed_origins"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type DetectorConfig struct {
	PollInterval time.Duration `yaml:"poll_interval"`
	WatchDevices bool          `yaml:"watch_devices"`
	DeviceDir    string        `yaml:"device_dir"`
}

// minPollInterval guards against configs that would turn the poll loop
// into a busy loop. Production deployments poll on the order of seconds.
const minPollInterval = 100 * time.Millisecond

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8980,
			WSPath:          "/ws",
			ShutdownTimeout: 5 * time.Second,
		},
		Detector: DetectorConfig{
			PollInterval: 2 * time.Second,
			WatchDevices: true,
			DeviceDir:    "/dev",
		},
	}
}

// Load reads the YAML config at path, layered over defaults. A missing
// file is not an error: the daemon runs fine on defaults alone.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if !strings.HasPrefix(c.Server.WSPath, "/") {
		return fmt.Errorf("server.ws_path %q must start with /", c.Server.WSPath)
	}
	if c.Detector.PollInterval < minPollInterval {
		return fmt.Errorf("detector.poll_interval %s below minimum %s", c.Detector.PollInterval, minPollInterval)
	}
	return nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
