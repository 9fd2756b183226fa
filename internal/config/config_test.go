package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const validConfig = `{
	"basic_config": {
		"server_address": ":8090",
		"slot_text_limit": 4000,
		"slots": [
			{"id": "term_sheet", "label": "Term Sheet"},
			{"id": "appraisal", "label": "Appraisal"}
		]
	},
	"gate": {"access_code": "open-sesame", "token_ttl_hours": 6},
	"aws": {"region": "us-east-1", "bucket": "loan-docs"},
	"openai": {"assistant_id": "asst-1", "thread_id": "thread-1"}
}`

func TestLoadParsesConfig(t *testing.T) {
	path := writeConfig(t, validConfig)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.BasicConfig.ServerAddress != ":8090" || cfg.BasicConfig.SlotTextLimit != 4000 {
		t.Fatalf("basic config mismatch: %+v", cfg.BasicConfig)
	}
	if len(cfg.BasicConfig.Slots) != 2 || cfg.BasicConfig.Slots[0].ID != "term_sheet" {
		t.Fatalf("slots mismatch: %+v", cfg.BasicConfig.Slots)
	}
	if cfg.Gate.AccessCode != "open-sesame" || cfg.Gate.TokenTTLHours != 6 {
		t.Fatalf("gate config mismatch: %+v", cfg.Gate)
	}
	if cfg.AWS.Bucket != "loan-docs" {
		t.Fatalf("aws config mismatch: %+v", cfg.AWS)
	}
}

func TestLoadEnvOverridesSecrets(t *testing.T) {
	path := writeConfig(t, validConfig)
	t.Setenv("MEMOWRITER_OPENAI_API_KEY", "sk-from-env")
	t.Setenv("MEMOWRITER_ACCESS_CODE", "env-code")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.OpenAI.APIKey != "sk-from-env" {
		t.Fatalf("api key not overridden: %q", cfg.OpenAI.APIKey)
	}
	if cfg.Gate.AccessCode != "env-code" {
		t.Fatalf("access code not overridden: %q", cfg.Gate.AccessCode)
	}
}

func TestLoadValidation(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"missing bucket", `{
			"basic_config": {"slots": [{"id": "a"}]},
			"openai": {"assistant_id": "asst-1", "thread_id": "thread-1"}
		}`},
		{"missing thread", `{
			"basic_config": {"slots": [{"id": "a"}]},
			"aws": {"bucket": "b"},
			"openai": {"assistant_id": "asst-1"}
		}`},
		{"no slots", `{
			"basic_config": {"slots": []},
			"aws": {"bucket": "b"},
			"openai": {"assistant_id": "asst-1", "thread_id": "thread-1"}
		}`},
		{"duplicate slot ids", `{
			"basic_config": {"slots": [{"id": "a"}, {"id": "a"}]},
			"aws": {"bucket": "b"},
			"openai": {"assistant_id": "asst-1", "thread_id": "thread-1"}
		}`},
	}
	for _, tc := range cases {
		path := writeConfig(t, tc.body)
		if _, err := Load(path); err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
