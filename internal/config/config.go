package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Output formats accepted by picker.output.
const (
	OutputPlain = "plain"
	OutputJSON  = "json"
	OutputText  = "text"
)

// Config represents the smartpick configuration.
type Config struct {
	Picker   PickerConfig   `yaml:"picker"`
	Servers  []ServerConfig `yaml:"servers"`
	Provider ProviderConfig `yaml:"provider"`
	Log      LogConfig      `yaml:"log"`
}

// PickerConfig holds settings for the interactive list.
type PickerConfig struct {
	Placeholder       string `yaml:"placeholder"`
	Output            string `yaml:"output"`
	PreviewLines      int    `yaml:"preview_lines"`
	AutoActivateFirst bool   `yaml:"auto_activate_first"`
	SingleFlight      bool   `yaml:"single_flight"`
	TTY               string `yaml:"tty"`
}

// ServerConfig describes one language server that can answer
// textDocument/selectionRange.
type ServerConfig struct {
	Language    string   `yaml:"language"`
	Extensions  []string `yaml:"extensions"`
	Command     string   `yaml:"command"`
	RootMarkers []string `yaml:"root_markers"`
}

// ProviderConfig holds selection-range provider settings.
type ProviderConfig struct {
	TimeoutMs int `yaml:"timeout_ms"`
}

// LogConfig holds logging settings. File "-" means stderr; empty means the
// default log file under the data directory.
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Picker: PickerConfig{
			Placeholder:       "Selection",
			Output:            OutputPlain,
			PreviewLines:      6,
			AutoActivateFirst: true,
			SingleFlight:      true,
			TTY:               "/dev/tty",
		},
		Servers: []ServerConfig{
			{
				Language:    "go",
				Extensions:  []string{".go"},
				Command:     "gopls",
				RootMarkers: []string{"go.work", "go.mod", ".git"},
			},
			{
				Language:    "rust",
				Extensions:  []string{".rs"},
				Command:     "rust-analyzer",
				RootMarkers: []string{"Cargo.toml", ".git"},
			},
			{
				Language:    "python",
				Extensions:  []string{".py"},
				Command:     "pyright-langserver --stdio",
				RootMarkers: []string{"pyproject.toml", "setup.py", ".git"},
			},
			{
				Language:    "typescript",
				Extensions:  []string{".ts", ".tsx", ".js", ".jsx"},
				Command:     "typescript-language-server --stdio",
				RootMarkers: []string{"tsconfig.json", "package.json", ".git"},
			},
			{
				Language:    "c",
				Extensions:  []string{".c", ".h", ".cc", ".cpp", ".hpp"},
				Command:     "clangd",
				RootMarkers: []string{"compile_commands.json", ".git"},
			},
		},
		Provider: ProviderConfig{
			TimeoutMs: 5000,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from the default path.
func Load() (*Config, error) {
	paths := DefaultPaths()
	return LoadFromFile(paths.ConfigFile())
}

// LoadFromFile loads configuration from the specified file.
// If the file doesn't exist, returns default configuration.
// Environment variable overrides are applied after file loading.
func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.ApplyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ApplyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Save saves the configuration to the default path.
func (c *Config) Save() error {
	paths := DefaultPaths()
	return c.SaveToFile(paths.ConfigFile())
}

// SaveToFile saves the configuration to the specified file.
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ServerFor returns the server configured for path's extension.
func (c *Config) ServerFor(path string) (ServerConfig, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return ServerConfig{}, false
	}
	for _, s := range c.Servers {
		for _, e := range s.Extensions {
			if strings.ToLower(e) == ext {
				return s, true
			}
		}
	}
	return ServerConfig{}, false
}

// Get retrieves a configuration value by dot-separated key.
// For example: "picker.output" or "servers.go".
func (c *Config) Get(key string) (string, error) {
	parts := strings.Split(key, ".")
	if len(parts) != 2 {
		return "", errors.New("key must be in format 'section.key'")
	}

	section, field := parts[0], parts[1]

	switch section {
	case "picker":
		return c.getPickerField(field)
	case "servers":
		return c.getServerCommand(field)
	case "provider":
		return c.getProviderField(field)
	case "log":
		return c.getLogField(field)
	default:
		return "", fmt.Errorf("unknown section: %s", section)
	}
}

// Set sets a configuration value by dot-separated key.
func (c *Config) Set(key, value string) error {
	parts := strings.Split(key, ".")
	if len(parts) != 2 {
		return errors.New("key must be in format 'section.key'")
	}

	section, field := parts[0], parts[1]

	switch section {
	case "picker":
		return c.setPickerField(field, value)
	case "servers":
		return c.setServerCommand(field, value)
	case "provider":
		return c.setProviderField(field, value)
	case "log":
		return c.setLogField(field, value)
	default:
		return fmt.Errorf("unknown section: %s", section)
	}
}

func (c *Config) getPickerField(field string) (string, error) {
	switch field {
	case "placeholder":
		return c.Picker.Placeholder, nil
	case "output":
		return c.Picker.Output, nil
	case "preview_lines":
		return strconv.Itoa(c.Picker.PreviewLines), nil
	case "auto_activate_first":
		return strconv.FormatBool(c.Picker.AutoActivateFirst), nil
	case "single_flight":
		return strconv.FormatBool(c.Picker.SingleFlight), nil
	case "tty":
		return c.Picker.TTY, nil
	default:
		return "", fmt.Errorf("unknown field: picker.%s", field)
	}
}

func (c *Config) setPickerField(field, value string) error {
	switch field {
	case "placeholder":
		c.Picker.Placeholder = value
	case "output":
		if !isValidOutput(value) {
			return fmt.Errorf("invalid output format: %s (must be plain, json, or text)", value)
		}
		c.Picker.Output = value
	case "preview_lines":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer value: %s", value)
		}
		if v < 0 {
			return fmt.Errorf("preview_lines must be >= 0, got %d", v)
		}
		c.Picker.PreviewLines = v
	case "auto_activate_first":
		v, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean value: %s", value)
		}
		c.Picker.AutoActivateFirst = v
	case "single_flight":
		v, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean value: %s", value)
		}
		c.Picker.SingleFlight = v
	case "tty":
		c.Picker.TTY = value
	default:
		return fmt.Errorf("unknown field: picker.%s", field)
	}
	return nil
}

// getServerCommand treats the field as a language name.
func (c *Config) getServerCommand(language string) (string, error) {
	for _, s := range c.Servers {
		if s.Language == language {
			return s.Command, nil
		}
	}
	return "", fmt.Errorf("unknown server: %s", language)
}

// setServerCommand replaces the command of an existing server entry. New
// languages need extensions, so they are only added through the config file.
func (c *Config) setServerCommand(language, value string) error {
	for i := range c.Servers {
		if c.Servers[i].Language == language {
			c.Servers[i].Command = value
			return nil
		}
	}
	return fmt.Errorf("unknown server: %s", language)
}

func (c *Config) getProviderField(field string) (string, error) {
	switch field {
	case "timeout_ms":
		return strconv.Itoa(c.Provider.TimeoutMs), nil
	default:
		return "", fmt.Errorf("unknown field: provider.%s", field)
	}
}

func (c *Config) setProviderField(field, value string) error {
	switch field {
	case "timeout_ms":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer value: %s", value)
		}
		if v <= 0 {
			return fmt.Errorf("timeout_ms must be > 0, got %d", v)
		}
		c.Provider.TimeoutMs = v
	default:
		return fmt.Errorf("unknown field: provider.%s", field)
	}
	return nil
}

func (c *Config) getLogField(field string) (string, error) {
	switch field {
	case "level":
		return c.Log.Level, nil
	case "file":
		return c.Log.File, nil
	default:
		return "", fmt.Errorf("unknown field: log.%s", field)
	}
}

func (c *Config) setLogField(field, value string) error {
	switch field {
	case "level":
		if !isValidLogLevel(value) {
			return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", value)
		}
		c.Log.Level = value
	case "file":
		c.Log.File = value
	default:
		return fmt.Errorf("unknown field: log.%s", field)
	}
	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if !isValidOutput(c.Picker.Output) {
		return fmt.Errorf("picker.output must be plain, json, or text, got %q", c.Picker.Output)
	}
	if c.Picker.PreviewLines < 0 {
		return fmt.Errorf("picker.preview_lines must be >= 0, got %d", c.Picker.PreviewLines)
	}
	if c.Provider.TimeoutMs <= 0 {
		return fmt.Errorf("provider.timeout_ms must be > 0, got %d", c.Provider.TimeoutMs)
	}
	if !isValidLogLevel(c.Log.Level) {
		return fmt.Errorf("log.level must be debug, info, warn, or error, got %q", c.Log.Level)
	}

	seen := make(map[string]bool, len(c.Servers))
	for i, s := range c.Servers {
		if s.Language == "" {
			return fmt.Errorf("servers[%d]: language is required", i)
		}
		if seen[s.Language] {
			return fmt.Errorf("servers[%d]: duplicate language %q", i, s.Language)
		}
		seen[s.Language] = true
		if strings.TrimSpace(s.Command) == "" {
			return fmt.Errorf("servers[%d] (%s): command is required", i, s.Language)
		}
		if len(s.Extensions) == 0 {
			return fmt.Errorf("servers[%d] (%s): at least one extension is required", i, s.Language)
		}
		for _, e := range s.Extensions {
			if !strings.HasPrefix(e, ".") {
				return fmt.Errorf("servers[%d] (%s): extension %q must start with '.'", i, s.Language, e)
			}
		}
	}

	return nil
}

func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}

func isValidOutput(format string) bool {
	switch format {
	case OutputPlain, OutputJSON, OutputText:
		return true
	}
	return false
}

// ApplyEnvOverrides applies environment variable overrides to the config.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("SMARTPICK_DEBUG"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil && b {
			c.Log.Level = "debug"
		}
	}
	if v := os.Getenv("SMARTPICK_LOG_LEVEL"); v != "" {
		if isValidLogLevel(v) {
			c.Log.Level = v
		}
	}
	if v := os.Getenv("SMARTPICK_TTY"); v != "" {
		c.Picker.TTY = v
	}
}

// ListKeys returns the scalar configuration keys. Server commands are
// addressed as servers.<language>.
func ListKeys() []string {
	return []string{
		"picker.placeholder",
		"picker.output",
		"picker.preview_lines",
		"picker.auto_activate_first",
		"picker.single_flight",
		"picker.tty",
		"provider.timeout_ms",
		"log.level",
		"log.file",
	}
}
