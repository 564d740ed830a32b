package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// Config represents the courier CLI configuration.
type Config struct {
	ReadTimeout     int               `json:"readTimeout,omitempty"`    // milliseconds
	ConnectTimeout  int               `json:"connectTimeout,omitempty"` // milliseconds
	FollowRedirects *bool             `json:"followRedirects,omitempty"`
	MaxRedirects    int               `json:"maxRedirects,omitempty"`
	CACertFiles     []string          `json:"caCertFiles,omitempty"`
	Proxy           string            `json:"proxy,omitempty"`
	Headers         map[string]string `json:"headers,omitempty"` // default headers for all requests
	HistoryPath     string            `json:"historyPath,omitempty"`
	NoColor         *bool             `json:"noColor,omitempty"`
}

// BoolPtr returns a pointer to a bool value.
func BoolPtr(b bool) *bool {
	return &b
}

// getBool returns the value of a bool pointer, or the default if nil.
func getBool(b *bool, defaultVal bool) bool {
	if b == nil {
		return defaultVal
	}
	return *b
}

// GetFollowRedirects returns the follow redirects setting, defaulting to true.
func (c *Config) GetFollowRedirects() bool {
	return getBool(c.FollowRedirects, true)
}

// GetNoColor returns the no color setting, defaulting to false.
func (c *Config) GetNoColor() bool {
	return getBool(c.NoColor, false)
}

// GetReadTimeout returns the read timeout as a duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeout) * time.Millisecond
}

// GetConnectTimeout returns the connect timeout as a duration.
func (c *Config) GetConnectTimeout() time.Duration {
	return time.Duration(c.ConnectTimeout) * time.Millisecond
}

// GetHistoryPath returns the history database path, defaulting to
// ~/.courier/history.db.
func (c *Config) GetHistoryPath() string {
	if c.HistoryPath != "" {
		return c.HistoryPath
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".courier", "history.db")
	}
	return filepath.Join(home, ".courier", "history.db")
}

// ConfigFilenames contains the possible config file names.
var ConfigFilenames = []string{
	".courier.config.json",
	"courier.config.json",
	".courierrc",
	".courierrc.json",
}

// LoadConfig loads configuration from the specified path, or searches the
// working directory and then the home directory when path is empty.
func LoadConfig(path string) (*Config, error) {
	if path != "" {
		return loadConfigFromFile(path)
	}

	dirs := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, home)
	}
	return FindAndLoadConfig(dirs...)
}

// FindAndLoadConfig searches the given directories in order for a config
// file and loads the first one found. Defaults are returned when none is.
func FindAndLoadConfig(dirs ...string) (*Config, error) {
	for _, dir := range dirs {
		for _, filename := range ConfigFilenames {
			configPath := filepath.Join(dir, filename)
			if _, err := os.Stat(configPath); err == nil {
				return loadConfigFromFile(configPath)
			}
		}
	}
	return DefaultConfig(), nil
}

func loadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, err
	}

	return config, nil
}

// Merge returns a new config with other's set fields layered over c, other
// taking precedence. Neither config is modified.
func (c *Config) Merge(other *Config) *Config {
	if other == nil {
		return c
	}

	result := *c

	if other.ReadTimeout > 0 {
		result.ReadTimeout = other.ReadTimeout
	}
	if other.ConnectTimeout > 0 {
		result.ConnectTimeout = other.ConnectTimeout
	}
	if other.MaxRedirects > 0 {
		result.MaxRedirects = other.MaxRedirects
	}
	if other.Proxy != "" {
		result.Proxy = other.Proxy
	}
	if other.HistoryPath != "" {
		result.HistoryPath = other.HistoryPath
	}

	// Boolean flags only override when explicitly set.
	if other.FollowRedirects != nil {
		result.FollowRedirects = other.FollowRedirects
	}
	if other.NoColor != nil {
		result.NoColor = other.NoColor
	}

	if len(other.CACertFiles) > 0 {
		result.CACertFiles = append([]string(nil), other.CACertFiles...)
	}

	// The shallow copy above shares c's map, so build a fresh one before
	// writing overlay entries into it.
	if len(other.Headers) > 0 {
		result.Headers = make(map[string]string, len(c.Headers)+len(other.Headers))
		for k, v := range c.Headers {
			result.Headers[k] = v
		}
		for k, v := range other.Headers {
			result.Headers[k] = v
		}
	}

	return &result
}

// SaveConfig saves the configuration to a file.
func (c *Config) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
