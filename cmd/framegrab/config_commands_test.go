package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfigInitAndValidate(t *testing.T) {
	tmp := t.TempDir()
	target := filepath.Join(tmp, "config.toml")

	out, err := runCLI(t, []string{"config", "init", "--path", target})
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")

	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	out, err = runCLI(t, []string{"config", "validate", "--path", target})
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "is valid")
}

func TestConfigShowPrintsActiveConfig(t *testing.T) {
	configPath := writeTestConfig(t, t.TempDir())

	out, err := runCLI(t, []string{"--config", configPath, "config", "show"})
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "work_dir")
	requireContains(t, out, "[capture]")

	out, err = runCLI(t, []string{"--config", configPath, "config", "show", "--json"})
	if err != nil {
		t.Fatalf("config show --json: %v", err)
	}
	requireContains(t, out, `"Screens"`)
}

func TestConfigInitRefusesOverwrite(t *testing.T) {
	tmp := t.TempDir()
	target := filepath.Join(tmp, "config.toml")
	if err := os.WriteFile(target, []byte("# existing\n"), 0o644); err != nil {
		t.Fatalf("seed config: %v", err)
	}

	if _, err := runCLI(t, []string{"config", "init", "--path", target}); err == nil {
		t.Fatal("expected overwrite refusal")
	}

	if _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}
