package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pakcart/storesync/upload"
)

const testYAML = `
source:
  base_url: https://source.example
  websocket_url: wss://source.example/watch
upload:
  endpoint: https://media.example/upload
  preset: noorbazaar_unsigned
  daily_ceiling: 25
form_relay:
  endpoint: https://relay.example/submit
  access_key: key-123
shipping:
  free_threshold: 5000
  flat_fee: 250
admin_emails:
  - owner@noorbazaar.pk
site_base_url: https://noorbazaar.pk
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "storesync.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_FromFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, testYAML))
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Source.BaseURL != "https://source.example" {
		t.Errorf("Source.BaseURL = %q", cfg.Source.BaseURL)
	}
	if cfg.Upload.Preset != "noorbazaar_unsigned" || cfg.Upload.DailyCeiling != 25 {
		t.Errorf("Upload = %+v", cfg.Upload)
	}
	if cfg.FormRelay.AccessKey != "key-123" {
		t.Errorf("FormRelay = %+v", cfg.FormRelay)
	}
	if cfg.Shipping.FreeThreshold != 5000 || cfg.Shipping.FlatFee != 250 {
		t.Errorf("Shipping = %+v", cfg.Shipping)
	}
	if len(cfg.AdminEmails) != 1 || cfg.AdminEmails[0] != "owner@noorbazaar.pk" {
		t.Errorf("AdminEmails = %v", cfg.AdminEmails)
	}
}

func TestLoad_AppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, testYAML))
	if err != nil {
		t.Fatal(err)
	}

	// Cache settings are not in the file, so defaults apply.
	if cfg.Cache.Capacity <= 0 || cfg.Cache.NumShards <= 0 || cfg.Cache.TTL <= 0 {
		t.Errorf("cache defaults missing: %+v", cfg.Cache)
	}

	// Absent limits fall back to the stock per-category policy.
	if len(cfg.Upload.Limits) == 0 {
		t.Fatal("expected default upload limits")
	}
	if _, ok := cfg.Upload.Limits[upload.CategoryImage]; !ok {
		t.Errorf("default limits missing image category: %v", cfg.Upload.Limits)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("STORESYNC_UPLOAD_DAILY_CEILING", "5")
	t.Setenv("STORESYNC_UPLOAD_PRESET", "staging_unsigned")

	cfg, err := Load(writeConfig(t, testYAML))
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Upload.DailyCeiling != 5 {
		t.Errorf("DailyCeiling = %d, want env override 5", cfg.Upload.DailyCeiling)
	}
	if cfg.Upload.Preset != "staging_unsigned" {
		t.Errorf("Preset = %q, want env override", cfg.Upload.Preset)
	}
}

func TestLoad_MissingExplicitFileFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("explicit missing file must fail")
	}
}

func TestLoad_RejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"missing upload endpoint", `
upload:
  preset: noorbazaar_unsigned
`},
		{"bad upload endpoint", `
upload:
  endpoint: "not a url"
  preset: noorbazaar_unsigned
`},
		{"bad admin email", `
upload:
  endpoint: https://media.example/upload
  preset: noorbazaar_unsigned
admin_emails:
  - not-an-email
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.yaml)); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
