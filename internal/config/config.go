package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	API      APIConfig      `yaml:"api" validate:"required"`
	Crafting CraftingConfig `yaml:"crafting"`
	Limits   Limits         `yaml:"limits"`
}

type APIConfig struct {
	APIKey  string `yaml:"api_key" validate:"required,min=20"`
	Model   string `yaml:"model" validate:"required"`
	BaseURL string `yaml:"base_url" validate:"required,url"`
	Timeout int    `yaml:"timeout" validate:"min=10,max=3600"`
}

// CraftingConfig holds the scene pipeline knobs.
type CraftingConfig struct {
	ExtractedPerDoc int     `yaml:"extracted_per_doc" validate:"min=0,max=50"`
	GeneratedPerDoc int     `yaml:"generated_per_doc" validate:"min=0,max=50"`
	StyleFraction   float64 `yaml:"style_fraction" validate:"min=0,max=1"`
	RefineRetries   int     `yaml:"refine_retries" validate:"min=0,max=10"`
	MinPassageChars int     `yaml:"min_passage_chars" validate:"min=0"`
	MaxPassageChars int     `yaml:"max_passage_chars" validate:"min=0"`
	Temperature     float64 `yaml:"temperature" validate:"min=0,max=2"`
	MaxTokens       int     `yaml:"max_tokens" validate:"min=0"`
	// Seed fixes the style-selection generator; 0 means derive one
	// from the clock (no cross-run determinism).
	Seed int64 `yaml:"seed"`
}

type Limits struct {
	MaxRetries int             `yaml:"max_retries" validate:"min=0,max=10"`
	Workers    int             `yaml:"workers" validate:"min=1,max=32"`
	RateLimit  RateLimitConfig `yaml:"rate_limit"`
}

type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" validate:"min=1,max=1000"`
	BurstSize         int `yaml:"burst_size" validate:"min=1,max=100"`
}

func DefaultCrafting() CraftingConfig {
	return CraftingConfig{
		ExtractedPerDoc: 3,
		GeneratedPerDoc: 1,
		StyleFraction:   0.3,
		RefineRetries:   2,
		MinPassageChars: 600,
		MaxPassageChars: 6000,
		Temperature:     0.8,
		MaxTokens:       4096,
	}
}

func DefaultLimits() Limits {
	return Limits{
		MaxRetries: 3,
		Workers:    1,
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 30,
			BurstSize:         5,
		},
	}
}

// Load reads the config file, fills the API key from the environment
// when the file carries a placeholder, applies defaults and validates.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	if path == "" {
		path = getConfigPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if cfg.API.APIKey == "" || cfg.API.APIKey == "${SCENESMITH_API_KEY}" {
		if apiKey := os.Getenv("SCENESMITH_API_KEY"); apiKey != "" {
			cfg.API.APIKey = apiKey
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

func getConfigPath() string {
	if path := os.Getenv("SCENESMITH_CONFIG"); path != "" {
		return path
	}
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "scenesmith", "config.yaml")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "scenesmith", "config.yaml")
}

func (c *Config) validate() error {
	if c.API.Timeout == 0 {
		c.API.Timeout = 120
	}
	if c.Crafting == (CraftingConfig{}) {
		c.Crafting = DefaultCrafting()
	}
	if c.Limits.Workers == 0 {
		c.Limits = DefaultLimits()
	}
	if c.Crafting.MinPassageChars == 0 {
		c.Crafting.MinPassageChars = DefaultCrafting().MinPassageChars
	}
	if c.Crafting.MaxPassageChars == 0 {
		c.Crafting.MaxPassageChars = DefaultCrafting().MaxPassageChars
	}
	if c.Crafting.MaxPassageChars <= c.Crafting.MinPassageChars {
		return fmt.Errorf("max_passage_chars (%d) must exceed min_passage_chars (%d)",
			c.Crafting.MaxPassageChars, c.Crafting.MinPassageChars)
	}

	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	return nil
}
