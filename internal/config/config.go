package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Gemini   Gemini   `yaml:"gemini"`
	News     News     `yaml:"news"`
	Pipeline Pipeline `yaml:"pipeline"`
	Share    Share    `yaml:"share"`
	LinkedIn LinkedIn `yaml:"linkedin"`
	Server   Server   `yaml:"server"`
	Output   Output   `yaml:"output"`
}

type Gemini struct {
	APIKeyEnv      string `yaml:"api_key_env"`
	NewsModel      string `yaml:"news_model"`
	CaptionModel   string `yaml:"caption_model"`
	ThinkingModel  string `yaml:"thinking_model"`
	ImageModel     string `yaml:"image_model"`
	ThinkingBudget int    `yaml:"thinking_budget"`
}

type News struct {
	Source    string `yaml:"source"`
	BatchSize int    `yaml:"batch_size"`
	Feeds     []Feed `yaml:"feeds"`
}

type Feed struct {
	URL  string `yaml:"url"`
	Name string `yaml:"name"`
}

type Pipeline struct {
	PaceMS int `yaml:"pace_ms"`
}

type Share struct {
	DownloadDir string `yaml:"download_dir"`
	FireDelayMS int    `yaml:"fire_delay_ms"`
}

type LinkedIn struct {
	RedirectURI string `yaml:"redirect_uri"`
	Scope       string `yaml:"scope"`
}

type Server struct {
	Port int `yaml:"port"`
}

type Output struct {
	DataDir string `yaml:"data_dir"`
}

// ConfigDir returns the XDG config directory for linkedin-post.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "linkedin-post")
}

// DataDir returns the XDG data directory for linkedin-post.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "linkedin-post")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/linkedin-post/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'linkedin-post init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Gemini: Gemini{
			APIKeyEnv:      "GEMINI_API_KEY",
			NewsModel:      "gemini-2.5-pro",
			CaptionModel:   "gemini-2.5-flash",
			ThinkingModel:  "gemini-2.5-pro",
			ImageModel:     "imagen-4.0-generate-001",
			ThinkingBudget: 32768,
		},
		News: News{
			Source:    "gemini",
			BatchSize: 5,
		},
		Pipeline: Pipeline{PaceMS: 1000},
		Share:    Share{FireDelayMS: 150},
		LinkedIn: LinkedIn{
			RedirectURI: "http://localhost:8000/auth/callback",
			Scope:       "w_member_social",
		},
		Server: Server{Port: 8000},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

// GetDownloadDir returns the directory where shared images are saved.
func (c *Config) GetDownloadDir() string {
	if c.Share.DownloadDir != "" {
		return c.Share.DownloadDir
	}
	return filepath.Join(homeDir(), "Downloads")
}

// APIKey reads the Gemini API key from the configured environment variable.
func (c *Config) APIKey() string {
	return os.Getenv(c.Gemini.APIKeyEnv)
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
