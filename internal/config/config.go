package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	// WorkDir is the base directory holding one subdirectory per unit of work.
	WorkDir string `toml:"work_dir"`
	LogDir  string `toml:"log_dir"`
	// FFmpegBinDir optionally points at bundled ffmpeg binaries laid out as
	// <dir>/{amd,arm}/ffmpeg. When empty, the system binaries are used.
	FFmpegBinDir string `toml:"ffmpeg_bin_dir"`
}

// Capture contains screenshot capture settings.
type Capture struct {
	// Screens is the number of screenshots requested per unit of work.
	Screens int `toml:"screens"`
	// ProcessLimit bounds concurrent ffmpeg invocations.
	ProcessLimit int `toml:"process_limit"`
	// Cutoff is the minimum count of already-hosted images that skips
	// regeneration entirely.
	Cutoff int `toml:"cutoff"`
	// CompressionLevel is passed to the PNG encoder (ffmpeg -compression_level).
	CompressionLevel int  `toml:"compression_level"`
	FrameOverlay     bool `toml:"frame_overlay"`
	OverlayTextSize  int  `toml:"overlay_text_size"`
	// SingleThread forces -threads 1 on capture invocations.
	SingleThread bool `toml:"single_thread"`
	// DropSmallestExtra removes the smallest of the N+1 disc captures as a
	// proxy for a degenerate frame.
	DropSmallestExtra bool `toml:"drop_smallest_extra"`
	// CaptureTimeoutSeconds bounds a single extraction; the one hardware
	// retry before downgrading runs with a longer deadline.
	CaptureTimeoutSeconds      int `toml:"capture_timeout_seconds"`
	CaptureRetryTimeoutSeconds int `toml:"capture_retry_timeout_seconds"`
}

// Tonemap contains HDR-to-SDR conversion settings.
type Tonemap struct {
	Enabled bool `toml:"enabled"`
	// Hardware selects the GPU-accelerated chain when the probe succeeds.
	Hardware bool `toml:"hardware"`
	// AssumeCompatible skips the hardware probe and trusts the chain.
	AssumeCompatible bool `toml:"assume_compatible"`
	// Warmup runs a discarded 0.1s extraction before the first real capture
	// to absorb shader-compile latency.
	Warmup    bool    `toml:"warmup"`
	Algorithm string  `toml:"algorithm"`
	Desat     float64 `toml:"desat"`
}

// Upload contains image-host upload settings.
type Upload struct {
	// Hosts is the prioritized host fallback list.
	Hosts                 []string `toml:"hosts"`
	RequestTimeoutSeconds int      `toml:"request_timeout_seconds"`
	PTPImgAPIKey          string   `toml:"ptpimg_api_key"`
	ImgBBAPIKey           string   `toml:"imgbb_api_key"`
	// Parallel bounds concurrent uploads within one batch.
	Parallel int `toml:"parallel"`
}

// Logging contains log output configuration.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for framegrab.
//
// There is no package-level mutable state: a *Config is constructed once and
// passed into every component so tests can build isolated configurations.
type Config struct {
	Paths   Paths   `toml:"paths"`
	Capture Capture `toml:"capture"`
	Tonemap Tonemap `toml:"tonemap"`
	Upload  Upload  `toml:"upload"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/framegrab/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("framegrab.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// WorkDirFor returns the exclusive working directory for one unit of work.
func (c *Config) WorkDirFor(id string) string {
	return filepath.Join(c.Paths.WorkDir, strings.TrimSpace(id))
}

// EnsureDirectories creates the directories required for a run.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.WorkDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// FFprobeBinary returns the ffprobe executable name used for media probing.
func (c *Config) FFprobeBinary() string {
	return "ffprobe"
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
