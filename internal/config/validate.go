package config

import (
	"fmt"
	"strings"
)

var validTonemapAlgorithms = map[string]struct{}{
	"mobius":   {},
	"hable":    {},
	"reinhard": {},
	"bt2390":   {},
	"clip":     {},
	"gamma":    {},
	"linear":   {},
}

var validLogFormats = map[string]struct{}{
	"console": {},
	"json":    {},
}

var validLogLevels = map[string]struct{}{
	"debug": {},
	"info":  {},
	"warn":  {},
	"error": {},
}

// Validate checks the configuration for invalid values. It assumes
// normalize() has already run.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		return fmt.Errorf("paths.work_dir is required")
	}
	if err := c.Capture.validate(); err != nil {
		return err
	}
	if err := c.Tonemap.validate(); err != nil {
		return err
	}
	if err := c.Upload.validate(); err != nil {
		return err
	}
	return c.Logging.validate()
}

func (c *Capture) validate() error {
	if c.Screens <= 0 {
		return fmt.Errorf("capture.screens must be positive, got %d", c.Screens)
	}
	if c.ProcessLimit <= 0 {
		return fmt.Errorf("capture.process_limit must be positive, got %d", c.ProcessLimit)
	}
	if c.Cutoff <= 0 {
		return fmt.Errorf("capture.cutoff must be positive, got %d", c.Cutoff)
	}
	if c.CaptureTimeoutSeconds <= 0 {
		return fmt.Errorf("capture.capture_timeout_seconds must be positive, got %d", c.CaptureTimeoutSeconds)
	}
	return nil
}

func (c *Tonemap) validate() error {
	if _, ok := validTonemapAlgorithms[c.Algorithm]; !ok {
		return fmt.Errorf("tonemap.algorithm %q is not a recognized tone-mapping operator", c.Algorithm)
	}
	return nil
}

func (c *Upload) validate() error {
	if len(c.Hosts) == 0 {
		return fmt.Errorf("upload.hosts must list at least one host")
	}
	if c.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf("upload.request_timeout_seconds must be positive, got %d", c.RequestTimeoutSeconds)
	}
	return nil
}

func (c *Logging) validate() error {
	if _, ok := validLogFormats[c.Format]; !ok {
		return fmt.Errorf("logging.format %q must be one of console, json", c.Format)
	}
	if _, ok := validLogLevels[c.Level]; !ok {
		return fmt.Errorf("logging.level %q must be one of debug, info, warn, error", c.Level)
	}
	return nil
}
