package main

import (
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"thumbgen/internal/config"
	"thumbgen/internal/logging"
	"thumbgen/internal/manifest"
	"thumbgen/internal/thumbnail"
)

// planFlags narrow the worklist for both generate and list.
type planFlags struct {
	onlyNew bool
	filter  string
	limit   int
}

// register binds the plan flags on cmd alone; report does not take them.
func (f *planFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.onlyNew, "onlyNew", false, "Only regenerate thumbnails older than their model (implies --noClean)")
	cmd.Flags().StringVar(&f.filter, "filter", "", "Only parts whose name contains this text (case-insensitive)")
	cmd.Flags().IntVar(&f.limit, "limit", 0, "Generate at most this many thumbnails (0 for all)")
}

func (f planFlags) options() thumbnail.PlanOptions {
	return thumbnail.PlanOptions{OnlyNew: f.onlyNew, Filter: f.filter, Limit: f.limit}
}

type commandContext struct {
	configFlag *string
	plan       *planFlags

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string, plan *planFlags) *commandContext {
	return &commandContext{configFlag: configFlag, plan: plan}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) logger(cmd *cobra.Command) (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Writer: cmd.ErrOrStderr(),
	})
}

// worklist loads the manifest and applies the plan flags.
func (c *commandContext) worklist(logger *slog.Logger) ([]manifest.WorkItem, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	m, err := manifest.Load(cfg.Paths.Manifest)
	if err != nil {
		return nil, err
	}
	dups := m.DuplicateParts()
	for _, part := range slices.Sorted(maps.Keys(dups)) {
		categories := dups[part]
		logger.Warn("part name shared across categories; thumbnails will overwrite each other",
			"part", part, "categories", strings.Join(categories, ","))
	}
	paths := thumbnail.Paths{OutputDir: cfg.Paths.OutputDir, ModelsDir: cfg.Paths.ModelsDir}
	return thumbnail.Plan(m.Expand(), c.plan.options(), paths)
}

func newRootCommand() *cobra.Command {
	var configFlag string
	plan := &planFlags{}
	ctx := newCommandContext(&configFlag, plan)

	rootCmd := newGenerateCommand(ctx)
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path (default ./thumbgen.toml)")
	plan.register(rootCmd)

	rootCmd.AddCommand(newListCommand(ctx))
	rootCmd.AddCommand(newReportCommand())
	return rootCmd
}
