package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if c.Host == "" {
		return errors.New("host must be set")
	}
	if c.Paths.Manifest == "" {
		return errors.New("paths.manifest must be set")
	}
	if c.Paths.OutputDir == "" {
		return errors.New("paths.output_dir must be set")
	}
	if c.Paths.ModelsDir == "" {
		return errors.New("paths.models_dir must be set")
	}
	if c.Render.ResultID == "" {
		return errors.New("render.result_id must be set")
	}
	if c.Render.Hook == "" {
		return errors.New("render.hook must be set")
	}
	if c.Poll.Attempts < 1 {
		return fmt.Errorf("poll.attempts must be at least 1, got %d", c.Poll.Attempts)
	}
	if c.Poll.DelayMS < 0 {
		return fmt.Errorf("poll.delay_ms must not be negative, got %d", c.Poll.DelayMS)
	}
	if c.Screenshot.Quality < 1 || c.Screenshot.Quality > 100 {
		return fmt.Errorf("screenshot.quality must be between 1 and 100, got %d", c.Screenshot.Quality)
	}
	if c.Browser.ViewportWidth < 0 || c.Browser.ViewportHeight < 0 {
		return errors.New("browser viewport must not be negative")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}
