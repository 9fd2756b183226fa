package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents runtime configuration for the service.
type Config struct {
	BasicConfig BasicConfig  `json:"basic_config"`
	Gate        GateConfig   `json:"gate"`
	AWS         AWSConfig    `json:"aws"`
	OpenAI      OpenAIConfig `json:"openai"`
	Redis       RedisConfig  `json:"redis"`
}

type BasicConfig struct {
	ServerAddress        string       `json:"server_address"`
	SessionTTL           int          `json:"session_ttl_minutes"`
	SessionCleanInterval int          `json:"session_clean_interval_minutes"`
	TickRetryDelayMS     int          `json:"tick_retry_delay_ms"`
	PollInterval         int          `json:"poll_interval_seconds"`
	MaxExtractionPolls   int          `json:"max_extraction_polls"`
	MaxRunPolls          int          `json:"max_run_polls"`
	SlotTextLimit        int          `json:"slot_text_limit"`
	RoleDescription      string       `json:"role_description"`
	Slots                []SlotConfig `json:"slots"`
}

// SlotConfig names one upload position, e.g. {"id":"term_sheet","label":"Term Sheet"}.
type SlotConfig struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

type GateConfig struct {
	AccessCode    string `json:"access_code"`
	TokenTTLHours int    `json:"token_ttl_hours"`
}

type AWSConfig struct {
	Region string `json:"region"`
	Bucket string `json:"bucket"`
}

type OpenAIConfig struct {
	BaseURL      string `json:"base_url"`
	APIKey       string `json:"api_key"`
	AssistantID  string `json:"assistant_id"`
	ThreadID     string `json:"thread_id"`
	Instructions string `json:"instructions"`
}

type RedisConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

// Load reads configuration from the provided path (defaults to config.json).
// Secrets may also arrive through the environment and take precedence over
// the file so deployments can keep the file free of credentials.
func Load(path string) (*Config, error) {
	if path == "" {
		path = "config.json"
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	file, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("open config %s: %w", absPath, err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if v := os.Getenv("MEMOWRITER_OPENAI_API_KEY"); v != "" {
		cfg.OpenAI.APIKey = v
	}
	if v := os.Getenv("MEMOWRITER_ACCESS_CODE"); v != "" {
		cfg.Gate.AccessCode = v
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.AWS.Bucket == "" {
		return fmt.Errorf("aws.bucket must be configured")
	}
	if c.OpenAI.AssistantID == "" || c.OpenAI.ThreadID == "" {
		return fmt.Errorf("openai.assistant_id and openai.thread_id must be configured")
	}
	if len(c.BasicConfig.Slots) == 0 {
		return fmt.Errorf("at least one upload slot must be configured")
	}
	seen := make(map[string]struct{}, len(c.BasicConfig.Slots))
	for _, slot := range c.BasicConfig.Slots {
		if slot.ID == "" {
			return fmt.Errorf("slot id cannot be empty")
		}
		if _, ok := seen[slot.ID]; ok {
			return fmt.Errorf("duplicate slot id %q", slot.ID)
		}
		seen[slot.ID] = struct{}{}
	}
	return nil
}
