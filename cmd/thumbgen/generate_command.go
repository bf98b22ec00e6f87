package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"thumbgen/internal/browser"
	"thumbgen/internal/config"
	"thumbgen/internal/logging"
	"thumbgen/internal/outdir"
	"thumbgen/internal/poll"
	"thumbgen/internal/thumbnail"
)

// pageSession is the part of browser.Session the generate command drives.
type pageSession interface {
	browser.Page
	Goto(url string) error
	Close(ctx context.Context, keepOpen bool) error
}

var launchBrowser = func(opts browser.Options) (pageSession, error) {
	return browser.Launch(opts)
}

type generateFlags struct {
	host        string
	dryRun      bool
	noClean     bool
	forceClean  bool
	noHeadless  bool
	browserLogs bool
	install     bool
	report      string
}

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	flags := &generateFlags{}

	cmd := &cobra.Command{
		Use:           "thumbgen",
		Short:         "Render part thumbnails through the thumbnail page",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if ctx.plan.onlyNew {
				flags.noClean = true
			}
			if !cmd.Flags().Changed("install") {
				cfg, err := ctx.ensureConfig()
				if err != nil {
					return err
				}
				flags.install = cfg.Browser.Install
			}
			return runGenerate(cmd, ctx, flags)
		},
	}

	cmd.Flags().StringVar(&flags.host, "host", "", "Host serving the thumbnail page (default from config, localhost:8080)")
	cmd.Flags().BoolVar(&flags.dryRun, "dryRun", false, "Render and capture without writing thumbnails")
	cmd.Flags().BoolVar(&flags.noClean, "noClean", false, "Keep existing thumbnails instead of clearing the output directory")
	cmd.Flags().BoolVar(&flags.forceClean, "forceClean", false, "Clear the output directory without asking")
	cmd.Flags().BoolVar(&flags.noHeadless, "noHeadless", false, "Show the browser window and leave it open when done")
	cmd.Flags().BoolVar(&flags.browserLogs, "browserLogs", false, "Print the page's console output and errors")
	cmd.Flags().BoolVar(&flags.install, "install", true, "Install Playwright's Chromium before launching")
	cmd.Flags().StringVar(&flags.report, "report", "", "Write a JSON run report to this path")
	return cmd
}

func runGenerate(cmd *cobra.Command, ctx *commandContext, flags *generateFlags) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := ctx.logger(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if !flags.dryRun {
		lock, err := outdir.Lock(cfg.Paths.OutputDir)
		if err != nil {
			return err
		}
		defer func() {
			if err := lock.Unlock(); err != nil {
				logger.Warn("release output lock", "error", err)
			}
		}()
	}

	proceed, err := outdir.Prepare(cfg.Paths.OutputDir, outdir.Options{
		DryRun:     flags.dryRun,
		NoClean:    flags.noClean,
		ForceClean: flags.forceClean,
	}, outdir.TerminalConfirmer(cmd.InOrStdin(), out))
	if err != nil {
		return err
	}
	if !proceed {
		fmt.Fprintln(out, "Exiting.")
		return nil
	}

	items, err := ctx.worklist(logger)
	if err != nil {
		return err
	}

	session, err := launchBrowser(browser.Options{
		Headless:    !flags.noHeadless,
		Install:     flags.install,
		ConsoleLogs: flags.browserLogs,
		RenderHook:  cfg.Render.Hook,
		Viewport:    browser.Viewport{Width: cfg.Browser.ViewportWidth, Height: cfg.Browser.ViewportHeight},
		Logger:      logger,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := session.Close(cmd.Context(), flags.noHeadless); err != nil {
			logger.Warn("close browser", "error", err)
		}
	}()

	if err := session.Goto(cfg.PageURL(flags.host)); err != nil {
		return err
	}

	gen, err := thumbnail.NewGenerator(session, thumbnail.Options{
		Paths:    thumbnail.Paths{OutputDir: cfg.Paths.OutputDir, ModelsDir: cfg.Paths.ModelsDir},
		ResultID: cfg.Render.ResultID,
		Quality:  cfg.Screenshot.Quality,
		DryRun:   flags.dryRun,
		Poll:     pollOptions(cfg),
		Out:      out,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	report, runErr := gen.Run(cmd.Context(), items)
	if path := strings.TrimSpace(flags.report); path != "" {
		if err := thumbnail.WriteReport(path, report); err != nil {
			logger.Warn("write report failed", "path", path, "error", err)
		}
	}
	if runErr != nil {
		return runErr
	}

	if len(report.Items) > 0 && logging.IsTerminal(out) {
		fmt.Fprintln(out, renderReport(report))
	}
	return nil
}

// pollOptions maps delay_ms = 0 to an immediate retry; poll treats a zero
// Delay as unset.
func pollOptions(cfg *config.Config) poll.Options {
	delay := cfg.PollDelay()
	if delay == 0 {
		delay = poll.NoDelay
	}
	return poll.Options{Attempts: cfg.Poll.Attempts, Delay: delay}
}
