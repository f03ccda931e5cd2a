// cliparse/cliparse_test.go
package cliparse

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// isolate points the dotenv lookup at an empty dir and clears the env vars ParseFlags reads
func isolate(t *testing.T) []string {
	t.Helper()
	for _, k := range []string{"PORT", "DATABASE_URL", "DATABASE_TYPE", "SESSION_SECRET", "BASE_URL",
		"STORE_TIMEOUT", "CORS_ORIGINS", "LOG_LEVEL", "LOG_FORMAT"} {
		t.Setenv(k, "")
	}
	return []string{"-env", filepath.Join(t.TempDir(), "missing.env")}
}

func TestParseFlags_Defaults(t *testing.T) {
	args := isolate(t)
	t.Setenv("SESSION_SECRET", "s3cret")

	cfg, err := ParseFlags(args)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 3318 {
		t.Errorf("expected default port 3318, got %d", cfg.Port)
	}
	if cfg.DatabaseType != "sqlite" || cfg.DatabaseURL != "scanvote.db" {
		t.Errorf("expected sqlite at scanvote.db, got %s at %s", cfg.DatabaseType, cfg.DatabaseURL)
	}
	if cfg.StoreTimeout != 5*time.Second {
		t.Errorf("expected 5s store timeout, got %v", cfg.StoreTimeout)
	}
	if cfg.SlogLevel() != slog.LevelInfo {
		t.Errorf("expected info level, got %v", cfg.SlogLevel())
	}
}

func TestParseFlags_EnvVars(t *testing.T) {
	args := isolate(t)
	t.Setenv("PORT", "9000")
	t.Setenv("DATABASE_URL", "postgres://test")
	t.Setenv("DATABASE_TYPE", "postgres")
	t.Setenv("SESSION_SECRET", "test-secret")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("BASE_URL", "https://vote.example/")

	cfg, err := ParseFlags(args)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Port)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
		t.Errorf("unexpected CORS origins %v", cfg.CORSOrigins)
	}
	if cfg.BaseURL != "https://vote.example" {
		t.Errorf("expected trailing slash trimmed, got %q", cfg.BaseURL)
	}
}

func TestParseFlags_CLIOverridesEnv(t *testing.T) {
	args := isolate(t)
	t.Setenv("PORT", "9000")

	cfg, err := ParseFlags(append(args, "-p", "8080", "-d", "file:test.db", "-session-secret", "s1", "-log-level", "debug"))
	if err != nil {
		t.Fatal(err)
	}

	// CLI should override env
	if cfg.Port != 8080 {
		t.Errorf("CLI should override env: expected 8080, got %d", cfg.Port)
	}
	if cfg.SlogLevel() != slog.LevelDebug {
		t.Errorf("expected debug level, got %v", cfg.SlogLevel())
	}
}

func TestParseFlags_Precedence(t *testing.T) {
	args := isolate(t)
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "scanvote.yaml")
	err := os.WriteFile(yamlPath, []byte(`
port: 7000
session_secret: from-yaml
store_timeout: 2s
log_format: json
cors_origins:
  - https://yaml.example
`), 0o600)
	if err != nil {
		t.Fatal(err)
	}

	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("SESSION_SECRET=from-dotenv\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	// godotenv sets variables in the process env; clear them when the test ends
	t.Setenv("SESSION_SECRET", "")
	os.Unsetenv("SESSION_SECRET")

	t.Setenv("PORT", "7100")

	cfg, err := ParseFlags(append(args, "-c", yamlPath, "-env", envPath, "-log-format", "text"))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"env beats yaml", cfg.Port, 7100},
		{"dotenv beats yaml", cfg.SessionSecret, "from-dotenv"},
		{"yaml beats default", cfg.StoreTimeout, 2 * time.Second},
		{"flag beats yaml", cfg.LogFormat, "text"},
		{"yaml list", len(cfg.CORSOrigins), 1},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestParseFlags_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		env  map[string]string
	}{
		{"missing secret", nil, nil},
		{"postgres without url", []string{"-t", "postgres"}, map[string]string{"SESSION_SECRET": "s"}},
		{"unknown database", []string{"-t", "mysql"}, map[string]string{"SESSION_SECRET": "s"}},
		{"bad port env", nil, map[string]string{"SESSION_SECRET": "s", "PORT": "abc"}},
		{"bad log format", []string{"-log-format", "xml"}, map[string]string{"SESSION_SECRET": "s"}},
		{"bad log level", []string{"-log-level", "loud"}, map[string]string{"SESSION_SECRET": "s"}},
		{"missing yaml", []string{"-c", "/nonexistent/scanvote.yaml"}, map[string]string{"SESSION_SECRET": "s"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := isolate(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := ParseFlags(append(args, tt.args...)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}
