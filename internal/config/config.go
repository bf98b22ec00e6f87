package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// DefaultFileName is looked up in the working directory when no path is given.
const DefaultFileName = "thumbgen.toml"

// HostEnv overrides the configured host.
const HostEnv = "THUMBGEN_HOST"

// Paths locates the asset tree. Relative values resolve against the
// directory holding the config file.
type Paths struct {
	Manifest  string `toml:"manifest"`
	OutputDir string `toml:"output_dir"`
	ModelsDir string `toml:"models_dir"`
}

// Render describes the contract with the thumbnail page.
type Render struct {
	PagePath string `toml:"page_path"`
	ResultID string `toml:"result_id"`
	Hook     string `toml:"hook"`
}

// Poll sets how long to wait for each render result.
type Poll struct {
	Attempts int `toml:"attempts"`
	DelayMS  int `toml:"delay_ms"`
}

// Screenshot controls the captured image.
type Screenshot struct {
	Quality int `toml:"quality"`
}

// Browser contains Playwright launch settings.
type Browser struct {
	Install        bool `toml:"install"`
	ViewportWidth  int  `toml:"viewport_width"`
	ViewportHeight int  `toml:"viewport_height"`
}

// Logging contains configuration for log output.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config holds every setting of a thumbnail run that is not a per-run flag.
type Config struct {
	Host       string     `toml:"host"`
	Paths      Paths      `toml:"paths"`
	Render     Render     `toml:"render"`
	Poll       Poll       `toml:"poll"`
	Screenshot Screenshot `toml:"screenshot"`
	Browser    Browser    `toml:"browser"`
	Logging    Logging    `toml:"logging"`
}

// Load reads the config at path, or ./thumbgen.toml when path is empty,
// falling back to defaults when no file exists. An explicit path that does
// not exist is an error. It returns the file used, if any.
func Load(path string) (*Config, string, error) {
	cfg := Default()

	resolved, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", err
	}

	baseDir, err := os.Getwd()
	if err != nil {
		return nil, "", fmt.Errorf("resolve working directory: %w", err)
	}

	if exists {
		file, err := os.Open(resolved)
		if err != nil {
			return nil, "", fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", fmt.Errorf("parse config: %w", err)
		}
		baseDir = filepath.Dir(resolved)
	} else {
		resolved = ""
	}

	if host, ok := os.LookupEnv(HostEnv); ok && strings.TrimSpace(host) != "" {
		cfg.Host = host
	}

	cfg.normalize(baseDir)
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return &cfg, resolved, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		abs, err := filepath.Abs(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(abs); err != nil {
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return abs, true, nil
	}

	abs, err := filepath.Abs(DefaultFileName)
	if err != nil {
		return "", false, err
	}
	info, err := os.Stat(abs)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return abs, false, nil
	case err != nil:
		return "", false, fmt.Errorf("stat config: %w", err)
	case info.IsDir():
		return abs, false, nil
	}
	return abs, true, nil
}

func (c *Config) normalize(baseDir string) {
	c.Host = strings.TrimSpace(c.Host)
	c.Host = strings.TrimPrefix(c.Host, "http://")
	c.Host = strings.TrimRight(c.Host, "/")
	c.Paths.Manifest = resolvePath(baseDir, c.Paths.Manifest)
	c.Paths.OutputDir = resolvePath(baseDir, c.Paths.OutputDir)
	c.Paths.ModelsDir = resolvePath(baseDir, c.Paths.ModelsDir)
	if c.Render.PagePath != "" && !strings.HasPrefix(c.Render.PagePath, "/") {
		c.Render.PagePath = "/" + c.Render.PagePath
	}
	c.Render.ResultID = strings.TrimPrefix(strings.TrimSpace(c.Render.ResultID), "#")
	c.Render.Hook = strings.TrimSpace(c.Render.Hook)
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
}

func resolvePath(baseDir, value string) string {
	value = strings.TrimSpace(value)
	if value == "" || filepath.IsAbs(value) {
		return value
	}
	return filepath.Join(baseDir, value)
}

// PageURL is the address of the thumbnail page. host may override the
// configured host.
func (c *Config) PageURL(host string) string {
	if strings.TrimSpace(host) == "" {
		host = c.Host
	}
	return "http://" + host + c.Render.PagePath
}

// PollDelay returns the delay between result lookups.
func (c *Config) PollDelay() time.Duration {
	return time.Duration(c.Poll.DelayMS) * time.Millisecond
}
