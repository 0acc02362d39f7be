package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// isolate points XDG_CONFIG_HOME and the working directory at a temp dir
// and clears RUNWIZ_ env vars for the duration of the test.
func isolate(t *testing.T) string {
	t.Helper()

	tmpDir := t.TempDir()
	origWd, _ := os.Getwd()
	t.Cleanup(func() { _ = os.Chdir(origWd) })
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("Failed to change to temp dir: %v", err)
	}

	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "config"))
	for _, k := range keys {
		env := "RUNWIZ_" + strings.ToUpper(k.name)
		if orig, ok := os.LookupEnv(env); ok {
			t.Cleanup(func() { _ = os.Setenv(env, orig) })
			_ = os.Unsetenv(env)
		}
	}
	return tmpDir
}

func TestGlobalPath(t *testing.T) {
	tests := []struct {
		name        string
		xdgConfig   string
		wantContain string
	}{
		{
			name:        "with XDG_CONFIG_HOME set",
			xdgConfig:   "/custom/config",
			wantContain: "/custom/config/runwiz/runwiz.yml",
		},
		{
			name:        "without XDG_CONFIG_HOME",
			xdgConfig:   "",
			wantContain: ".config/runwiz/runwiz.yml",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("XDG_CONFIG_HOME", tt.xdgConfig)

			got := GlobalPath()
			if tt.xdgConfig != "" {
				if got != tt.wantContain {
					t.Errorf("GlobalPath() = %v, want %v", got, tt.wantContain)
				}
				return
			}
			if !filepath.IsAbs(got) {
				t.Errorf("GlobalPath() should return absolute path, got %v", got)
			}
			if !strings.HasSuffix(got, tt.wantContain) {
				t.Errorf("GlobalPath() = %v, want suffix %v", got, tt.wantContain)
			}
		})
	}
}

func TestProjectPath(t *testing.T) {
	if got := ProjectPath(); got != "runwiz.yml" {
		t.Errorf("ProjectPath() = %v, want runwiz.yml", got)
	}
}

func TestExists(t *testing.T) {
	isolate(t)

	if Exists() {
		t.Fatal("Exists() = true, want false when no config files exist")
	}

	if err := os.WriteFile(ProjectPath(), []byte("log_level: debug\n"), 0644); err != nil {
		t.Fatalf("Failed to write project config: %v", err)
	}
	if !Exists() {
		t.Error("Exists() = false, want true when project config exists")
	}
}

func TestLoad_NoConfig(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want := Default()
	if *cfg != *want {
		t.Errorf("Load() with no config = %+v, want defaults %+v", *cfg, *want)
	}
}

func TestLoad_WithGlobalConfig(t *testing.T) {
	isolate(t)

	globalCfg := Default()
	globalCfg.DataDir = ".global"
	globalCfg.LogLevel = "warn"
	globalCfg.DraftBackend = BackendSQLite
	globalCfg.PersistDelay = 250 * time.Millisecond
	if err := WriteGlobal(globalCfg); err != nil {
		t.Fatalf("WriteGlobal() error = %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.DataDir != ".global" {
		t.Errorf("Load() DataDir = %v, want .global", cfg.DataDir)
	}
	if cfg.DraftBackend != BackendSQLite {
		t.Errorf("Load() DraftBackend = %v, want sqlite", cfg.DraftBackend)
	}
	if cfg.PersistDelay != 250*time.Millisecond {
		t.Errorf("Load() PersistDelay = %v, want 250ms", cfg.PersistDelay)
	}
}

func TestLoad_ProjectOverridesGlobal(t *testing.T) {
	isolate(t)

	globalCfg := Default()
	globalCfg.LogLevel = "warn"
	globalCfg.APIURL = "http://global/api"
	if err := WriteGlobal(globalCfg); err != nil {
		t.Fatalf("WriteGlobal() error = %v", err)
	}

	if err := os.WriteFile(ProjectPath(), []byte("api_url: http://project/api\nvalidate_delay: 1s\n"), 0644); err != nil {
		t.Fatalf("Failed to write project config: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.APIURL != "http://project/api" {
		t.Errorf("Load() APIURL = %v, want project value", cfg.APIURL)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("Load() LogLevel = %v, want global value warn", cfg.LogLevel)
	}
	if cfg.ValidateDelay != time.Second {
		t.Errorf("Load() ValidateDelay = %v, want 1s", cfg.ValidateDelay)
	}
}

func TestLoad_EnvOverridesFiles(t *testing.T) {
	isolate(t)

	if err := os.WriteFile(ProjectPath(), []byte("draft_backend: sqlite\n"), 0644); err != nil {
		t.Fatalf("Failed to write project config: %v", err)
	}
	t.Setenv("RUNWIZ_DRAFT_BACKEND", "nats")
	t.Setenv("RUNWIZ_CLASSIFICATION_CUTOFF", "7.5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.DraftBackend != BackendNATS {
		t.Errorf("Load() DraftBackend = %v, want nats from env", cfg.DraftBackend)
	}
	if cfg.ClassificationCutoff != 7.5 {
		t.Errorf("Load() ClassificationCutoff = %v, want 7.5", cfg.ClassificationCutoff)
	}
}

func TestLoad_InvalidBackend(t *testing.T) {
	isolate(t)
	t.Setenv("RUNWIZ_DRAFT_BACKEND", "redis")

	if _, err := Load(); err == nil {
		t.Error("Load() expected error for unknown draft backend")
	}
}

func TestWriteProject(t *testing.T) {
	isolate(t)

	cfg := Default()
	cfg.DataDir = ".project"
	cfg.PersistDelay = 2 * time.Second

	if err := WriteProject(cfg); err != nil {
		t.Fatalf("WriteProject() error = %v", err)
	}

	data, err := os.ReadFile(ProjectPath())
	if err != nil {
		t.Fatalf("Failed to read config file: %v", err)
	}

	content := string(data)
	for _, field := range []string{
		"data_dir: .project",
		"persist_delay: 2s",
		"draft_backend: file",
		"draft_key: run-wizard",
	} {
		if !strings.Contains(content, field) {
			t.Errorf("Config file missing expected field: %s\nContent:\n%s", field, content)
		}
	}
}
