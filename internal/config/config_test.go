package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", p, err)
	}
	return p
}

// chdir moves into a directory without a .env file for the test.
func chdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoadLayers(t *testing.T) {
	dir := chdir(t)
	path := writeFile(t, dir, "cassini.yaml", `
data_dir: /srv/bank
log_level: debug
admin_ids: [1, 2]
store_timeout: 2s
quiz:
  unlock_threshold: 85
  survival_count: 50
`)
	writeFile(t, dir, ".env", "CASSINI_HTTP_ADDR=:9000\n")
	t.Setenv("CASSINI_ADMIN_IDS", "7, 8,")
	t.Setenv("CASSINI_REDIS_DB", "3")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	// godotenv sets process env; drop it so other tests are unaffected.
	t.Cleanup(func() { os.Unsetenv("CASSINI_HTTP_ADDR") })

	if cfg.DataDir != "/srv/bank" || cfg.LogLevel != "debug" {
		t.Errorf("yaml not applied: %+v", cfg)
	}
	if cfg.StoreTimeout != 2*time.Second {
		t.Errorf("StoreTimeout = %v, want 2s", cfg.StoreTimeout)
	}
	if cfg.Quiz.UnlockThreshold != 85 || cfg.Quiz.SurvivalCount != 50 {
		t.Errorf("quiz section = %+v", cfg.Quiz)
	}
	if cfg.Quiz.ChallengeCount != 10 {
		t.Errorf("unset quiz field lost its default: %d", cfg.Quiz.ChallengeCount)
	}
	if cfg.HTTPAddr != ":9000" {
		t.Errorf("HTTPAddr = %q, want .env value", cfg.HTTPAddr)
	}
	if len(cfg.AdminIDs) != 2 || cfg.AdminIDs[0] != 7 || cfg.AdminIDs[1] != 8 {
		t.Errorf("AdminIDs = %v, env overrides yaml", cfg.AdminIDs)
	}
	if cfg.Redis.DB != 3 {
		t.Errorf("Redis.DB = %d", cfg.Redis.DB)
	}
	if got := cfg.EngineConfig().SurvivalCount; got != 50 {
		t.Errorf("EngineConfig().SurvivalCount = %d", got)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	dir := chdir(t)
	tests := map[string]string{
		"threshold": "quiz:\n  unlock_threshold: 120\n",
		"level":     "log_level: loud\n",
		"stack":     "nav_stack_limit: 0\n",
		"yaml":      "data_dir: [\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			path := writeFile(t, dir, name+".yaml", body)
			if _, err := Load(path); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoadBadEnv(t *testing.T) {
	chdir(t)
	t.Setenv("CASSINI_ADMIN_IDS", "1,x")
	if _, err := Load(""); err == nil {
		t.Fatal("expected error for bad admin ids")
	}
}

func TestParseIDs(t *testing.T) {
	ids, err := ParseIDs(" 5,,6 ")
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 || ids[0] != 5 || ids[1] != 6 {
		t.Fatalf("ParseIDs = %v", ids)
	}
}
