package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeCapture()
	c.normalizeTonemap()
	c.normalizeUpload()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		c.Paths.WorkDir = defaultWorkDir
	}
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.FFmpegBinDir) != "" {
		if c.Paths.FFmpegBinDir, err = expandPath(c.Paths.FFmpegBinDir); err != nil {
			return fmt.Errorf("paths.ffmpeg_bin_dir: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeCapture() {
	if c.Capture.Screens <= 0 {
		c.Capture.Screens = defaultScreens
	}
	if c.Capture.ProcessLimit <= 0 {
		c.Capture.ProcessLimit = defaultProcessLimit
	}
	if c.Capture.Cutoff <= 0 {
		c.Capture.Cutoff = defaultCutoff
	}
	if c.Capture.CompressionLevel < 0 || c.Capture.CompressionLevel > 100 {
		c.Capture.CompressionLevel = defaultCompressionLevel
	}
	if c.Capture.OverlayTextSize <= 0 {
		c.Capture.OverlayTextSize = defaultOverlayTextSize
	}
	if c.Capture.CaptureTimeoutSeconds <= 0 {
		c.Capture.CaptureTimeoutSeconds = defaultCaptureTimeoutSeconds
	}
	if c.Capture.CaptureRetryTimeoutSeconds <= c.Capture.CaptureTimeoutSeconds {
		c.Capture.CaptureRetryTimeoutSeconds = c.Capture.CaptureTimeoutSeconds + 20
	}
}

func (c *Config) normalizeTonemap() {
	c.Tonemap.Algorithm = strings.TrimSpace(c.Tonemap.Algorithm)
	if c.Tonemap.Algorithm == "" {
		c.Tonemap.Algorithm = defaultTonemapAlgorithm
	}
	if c.Tonemap.Desat < 0 {
		c.Tonemap.Desat = defaultTonemapDesat
	}
}

func (c *Config) normalizeUpload() {
	hosts := make([]string, 0, len(c.Upload.Hosts))
	seen := map[string]struct{}{}
	for _, host := range c.Upload.Hosts {
		host = strings.ToLower(strings.TrimSpace(host))
		if host == "" {
			continue
		}
		if _, ok := seen[host]; ok {
			continue
		}
		seen[host] = struct{}{}
		hosts = append(hosts, host)
	}
	c.Upload.Hosts = hosts
	if c.Upload.RequestTimeoutSeconds <= 0 {
		c.Upload.RequestTimeoutSeconds = defaultUploadTimeoutSeconds
	}
	if c.Upload.Parallel <= 0 {
		c.Upload.Parallel = defaultUploadParallel
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
