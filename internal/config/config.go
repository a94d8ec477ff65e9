// Package config reads the two configuration surfaces the tool touches: the
// Codex CLI's config.toml (only for the usage base URL) and the tool's own
// settings.yaml, plus the display configuration derived from both.
package config

import (
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// DefaultBaseURL is the usage API base when config.toml does not override it.
const DefaultBaseURL = "https://chatgpt.com/backend-api"

// ReadBaseURL extracts chatgpt_base_url from the Codex config.toml at
// configPath and normalizes it. Any read or parse failure falls back to the
// default; a broken config.toml must never block read-only commands.
func ReadBaseURL(configPath string) string {
	contents, err := os.ReadFile(configPath)
	if err != nil {
		return DefaultBaseURL
	}
	var cfg struct {
		ChatGPTBaseURL string `toml:"chatgpt_base_url"`
	}
	if err := toml.Unmarshal(contents, &cfg); err != nil || cfg.ChatGPTBaseURL == "" {
		return DefaultBaseURL
	}
	return NormalizeBaseURL(cfg.ChatGPTBaseURL)
}

// NormalizeBaseURL trims trailing slashes and appends /backend-api to bare
// chatgpt.com hosts, matching what the Codex CLI itself expects.
func NormalizeBaseURL(value string) string {
	base := strings.TrimRight(strings.TrimSpace(value), "/")
	if (strings.HasPrefix(base, "https://chatgpt.com") || strings.HasPrefix(base, "https://chat.openai.com")) &&
		!strings.Contains(base, "/backend-api") {
		base += "/backend-api"
	}
	return base
}

// Settings are the tool's own persisted preferences.
type Settings struct {
	// Color is "auto", "always", or "never".
	Color string `yaml:"color"`
	// Plain strips decoration for script-friendly output.
	Plain bool `yaml:"plain"`
	// ShowUsageErrors makes `status --all` include profiles whose usage
	// fetch failed, without passing --show-errors each time.
	ShowUsageErrors bool `yaml:"show_usage_errors"`
}

// DefaultSettings are the values used when settings.yaml is absent.
func DefaultSettings() Settings {
	return Settings{Color: "auto"}
}

// LoadSettings reads settings.yaml at path. A missing file yields defaults;
// a malformed one is an error so typos do not silently revert preferences.
func LoadSettings(path string) (Settings, error) {
	settings := DefaultSettings()
	contents, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return settings, nil
		}
		return settings, err
	}
	if err := yaml.Unmarshal(contents, &settings); err != nil {
		return DefaultSettings(), err
	}
	if settings.Color == "" {
		settings.Color = "auto"
	}
	return settings, nil
}

// Display is the resolved output configuration, passed explicitly through
// every formatting call instead of living in process-global state.
type Display struct {
	Color bool
	Plain bool
}

// ResolveDisplay combines settings, the NO_COLOR convention, and whether
// stdout is a terminal.
func ResolveDisplay(settings Settings, stdoutIsTTY bool) Display {
	color := false
	switch settings.Color {
	case "always":
		color = true
	case "never":
		color = false
	default:
		color = stdoutIsTTY && os.Getenv("NO_COLOR") == ""
	}
	return Display{Color: color, Plain: settings.Plain}
}
