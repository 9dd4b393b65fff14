package config

const (
	defaultWorkDir                    = "~/.local/share/framegrab/work"
	defaultLogDir                     = "~/.local/share/framegrab/logs"
	defaultLogFormat                  = "console"
	defaultLogLevel                   = "info"
	defaultScreens                    = 6
	defaultProcessLimit               = 1
	defaultCutoff                     = 1
	defaultCompressionLevel           = 6
	defaultOverlayTextSize            = 18
	defaultCaptureTimeoutSeconds      = 140
	defaultCaptureRetryTimeoutSeconds = 160
	defaultTonemapAlgorithm           = "mobius"
	defaultTonemapDesat               = 10.0
	defaultUploadTimeoutSeconds       = 60
	defaultUploadParallel             = 4
)

// Default returns a configuration populated with defaults. Paths are left in
// unexpanded form; normalize() resolves them during Load.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir: defaultWorkDir,
			LogDir:  defaultLogDir,
		},
		Capture: Capture{
			Screens:                    defaultScreens,
			ProcessLimit:               defaultProcessLimit,
			Cutoff:                     defaultCutoff,
			CompressionLevel:           defaultCompressionLevel,
			OverlayTextSize:            defaultOverlayTextSize,
			DropSmallestExtra:          true,
			CaptureTimeoutSeconds:      defaultCaptureTimeoutSeconds,
			CaptureRetryTimeoutSeconds: defaultCaptureRetryTimeoutSeconds,
		},
		Tonemap: Tonemap{
			Enabled:   true,
			Hardware:  true,
			Algorithm: defaultTonemapAlgorithm,
			Desat:     defaultTonemapDesat,
		},
		Upload: Upload{
			Hosts:                 []string{"ptpimg", "pixhost", "imgbb"},
			RequestTimeoutSeconds: defaultUploadTimeoutSeconds,
			Parallel:              defaultUploadParallel,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
