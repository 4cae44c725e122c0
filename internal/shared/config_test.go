package shared

import (
	"os"
	"path/filepath"
	"testing"

	testutil "github.com/desertthunder/tcx/internal/testing"
)

func TestLoadConfig(t *testing.T) {
	t.Run("valid file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		content := `
[credentials]
username = "user@example.com"
password = "hunter2"

[defaults]
household = "abc"
locale = "en"

[database]
path = "test.db"
max_open_conns = 3
`
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}

		config, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("LoadConfig() error = %v", err)
		}
		if config.Credentials.Username != "user@example.com" {
			t.Errorf("Username = %q, want %q", config.Credentials.Username, "user@example.com")
		}
		if config.Defaults.Locale != "en" {
			t.Errorf("Locale = %q, want %q", config.Defaults.Locale, "en")
		}
		if config.Database.MaxOpenConns != 3 {
			t.Errorf("MaxOpenConns = %d, want 3", config.Database.MaxOpenConns)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("invalid toml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(path, []byte("not [valid"), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadConfig(path); err == nil {
			t.Error("expected error for invalid toml")
		}
	})
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()
	if config.Defaults.Locale != "de" {
		t.Errorf("default locale = %q, want %q", config.Defaults.Locale, "de")
	}
	if config.Database.Path == "" {
		t.Error("default database path is empty")
	}
}

func TestCreateConfigFile(t *testing.T) {
	t.Run("creates file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		if err := CreateConfigFile(path); err != nil {
			t.Fatalf("CreateConfigFile() error = %v", err)
		}
		testutil.AssertFileExists(t, path)
		if _, err := LoadConfig(path); err != nil {
			t.Errorf("created file does not parse: %v", err)
		}
	})

	t.Run("refuses to overwrite", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(path, []byte(""), 0644); err != nil {
			t.Fatal(err)
		}
		if err := CreateConfigFile(path); err == nil {
			t.Error("expected error when file exists")
		}
	})
}
