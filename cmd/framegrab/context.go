package main

import (
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"framegrab/internal/config"
	"framegrab/internal/imghost"
	"framegrab/internal/logging"
	"framegrab/internal/media/ffprobe"
	"framegrab/internal/pipeline"
)

type commandContext struct {
	configFlag *string
	jsonFlag   *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string, jsonFlag *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		jsonFlag:   jsonFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) jsonOutput() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	c.loggerOnce.Do(func() {
		outputs := []string{"stderr"}
		if strings.TrimSpace(cfg.Paths.LogDir) != "" {
			outputs = append(outputs, filepath.Join(cfg.Paths.LogDir, "framegrab.log"))
		}
		c.logger, c.loggerErr = logging.New(logging.Options{
			Level:       cfg.Logging.Level,
			Format:      cfg.Logging.Format,
			OutputPaths: outputs,
		})
	})
	return c.logger, c.loggerErr
}

func newProbeClient(cfg *config.Config) *ffprobe.Client {
	return ffprobe.NewClient(cfg.FFprobeBinary())
}

// buildPipeline assembles the production pipeline: a real HTTP uploader and
// an ffprobe-backed media prober.
func (c *commandContext) buildPipeline() (*pipeline.Pipeline, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	uploader := imghost.NewClient(cfg.Upload, nil, logger)
	prober := ffprobe.NewClient(cfg.FFprobeBinary())
	return pipeline.New(cfg, uploader, prober, nil, logger), nil
}
