package config

const (
	defaultHost           = "localhost:8080"
	defaultManifest       = "src/assets.json"
	defaultOutputDir      = "assets/thumbnails"
	defaultModelsDir      = "assets/models"
	defaultPagePath       = "/?thumbnail"
	defaultResultID       = "thumbnail-result"
	defaultHook           = "renderThumbnail"
	defaultPollAttempts   = 5
	defaultPollDelayMS    = 1000
	defaultQuality        = 95
	defaultViewportWidth  = 1280
	defaultViewportHeight = 720
	defaultLogLevel       = "info"
	defaultLogFormat      = "console"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Host: defaultHost,
		Paths: Paths{
			Manifest:  defaultManifest,
			OutputDir: defaultOutputDir,
			ModelsDir: defaultModelsDir,
		},
		Render: Render{
			PagePath: defaultPagePath,
			ResultID: defaultResultID,
			Hook:     defaultHook,
		},
		Poll: Poll{
			Attempts: defaultPollAttempts,
			DelayMS:  defaultPollDelayMS,
		},
		Screenshot: Screenshot{Quality: defaultQuality},
		Browser: Browser{
			Install:        true,
			ViewportWidth:  defaultViewportWidth,
			ViewportHeight: defaultViewportHeight,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}
