package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// Load reads the TOML settings file at path, applies defaults, and
// validates the result, mirroring the teacher's config.Load: decode,
// collect a warning per undecoded key rather than failing on it, then
// validate.
func Load(path string) (*Config, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot read engine settings: %s: %w", path, err)
	}
	return LoadBytes(data, path)
}

// LoadBytes parses TOML from raw bytes; path is used only in error
// messages.
func LoadBytes(data []byte, path string) (*Config, []string, error) {
	var cfg Config
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("engine settings parse error in %s: %w", path, err)
	}

	var warnings []string
	for _, key := range md.Undecoded() {
		warnings = append(warnings, fmt.Sprintf("unknown engine setting: %s", strings.Join(key, ".")))
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, warnings, fmt.Errorf("engine settings invalid in %s: %w", path, err)
	}

	return &cfg, warnings, nil
}

// ApplyDefaults fills zero-value fields with their defaults.
func ApplyDefaults(cfg *Config) {
	if cfg.Server == "" {
		cfg.Server = DefaultServer
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.SleepSockWait == 0 {
		cfg.SleepSockWait = DefaultSleepSockWait
	}
}

// Validate checks the settings for semantic errors.
func Validate(cfg *Config) error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", cfg.Port)
	}
	if cfg.SleepSockWait < 0 {
		return fmt.Errorf("sleep_sock_wait must be >= 0, got %v", cfg.SleepSockWait)
	}
	return nil
}
