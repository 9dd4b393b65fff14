package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTestConfig(t *testing.T, base string) string {
	t.Helper()
	configPath := filepath.Join(base, "config.toml")
	content := fmt.Sprintf("[paths]\nwork_dir = %q\nlog_dir = %q\n",
		filepath.Join(base, "work"), filepath.Join(base, "logs"))
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return configPath
}

func runCLI(t *testing.T, args []string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("output %q does not contain %q", haystack, needle)
	}
}

func TestHostsCommandListsPolicies(t *testing.T) {
	out, err := runCLI(t, []string{"hosts"})
	if err != nil {
		t.Fatalf("hosts: %v", err)
	}
	requireContains(t, out, "ptpimg")
	requireContains(t, out, "ImgBB")
}

func TestHostsCommandApprovalColumn(t *testing.T) {
	out, err := runCLI(t, []string{"hosts", "--approved-host", "ptpimg"})
	if err != nil {
		t.Fatalf("hosts: %v", err)
	}
	requireContains(t, out, "Approved")
	requireContains(t, out, "yes")
	requireContains(t, out, "no")
}

func TestHostsCommandJSON(t *testing.T) {
	out, err := runCLI(t, []string{"hosts", "--json"})
	if err != nil {
		t.Fatalf("hosts --json: %v", err)
	}
	requireContains(t, out, `"host": "imgbox"`)
	requireContains(t, out, `"max_bytes": 10000000`)
}

func TestCacheShowEmpty(t *testing.T) {
	configPath := writeTestConfig(t, t.TempDir())

	out, err := runCLI(t, []string{"--config", configPath, "cache", "show", "--run-id", "unit1"})
	if err != nil {
		t.Fatalf("cache show: %v", err)
	}
	requireContains(t, out, "No cached records")
}

func TestCacheShowAndClear(t *testing.T) {
	base := t.TempDir()
	configPath := writeTestConfig(t, base)

	workDir := filepath.Join(base, "work", "unit1")
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	cachePath := filepath.Join(workDir, "reuploaded_images.json")
	seed := `[{"raw_url":"https://ptpimg.me/abc.png","img_url":"https://ptpimg.me/abc.png","web_url":"https://ptpimg.me/abc.png"}]`
	if err := os.WriteFile(cachePath, []byte(seed), 0o644); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	out, err := runCLI(t, []string{"--config", configPath, "cache", "show", "--run-id", "unit1"})
	if err != nil {
		t.Fatalf("cache show: %v", err)
	}
	requireContains(t, out, "ptpimg.me/abc.png")

	out, err = runCLI(t, []string{"--config", configPath, "cache", "clear", "--run-id", "unit1"})
	if err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	requireContains(t, out, "Cleared")

	if _, err := os.Stat(cachePath); !os.IsNotExist(err) {
		t.Fatalf("cache file still present after clear: %v", err)
	}
}

func TestCacheShowRequiresRunID(t *testing.T) {
	configPath := writeTestConfig(t, t.TempDir())

	_, err := runCLI(t, []string{"--config", configPath, "cache", "show"})
	if err == nil {
		t.Fatal("expected an error without --run-id")
	}
}

func TestRunRejectsUnknownCategory(t *testing.T) {
	configPath := writeTestConfig(t, t.TempDir())

	_, err := runCLI(t, []string{"--config", configPath, "run", "/nonexistent.mkv", "--category", "anime"})
	if err == nil || !strings.Contains(err.Error(), "unknown category") {
		t.Fatalf("err = %v, want unknown category", err)
	}
}
