// Package thumbnail plans and runs thumbnail generation against a live
// render page.
//
// A run walks the worklist strictly in order. For each item the previous
// result element is disposed, the page's render hook is fired, the new
// result is awaited with poll.Selector, and the element is captured to
// <OutputDir>/<part>.jpg. The first failure aborts the run; thumbnails
// written before it stay on disk.
package thumbnail

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"thumbgen/internal/browser"
	"thumbgen/internal/manifest"
	"thumbgen/internal/poll"
)

const DefaultQuality = 95

// Options configure a Generator.
type Options struct {
	Paths    Paths
	ResultID string // id attribute of the element the page inserts per render
	Quality  int
	DryRun   bool
	Poll     poll.Options
	Out      io.Writer // progress lines
	Logger   *slog.Logger
	Now      func() time.Time
}

// Generator renders and captures thumbnails on one page.
type Generator struct {
	page    browser.Page
	opts    Options
	current browser.Element
}

// NewGenerator binds a generator to page.
func NewGenerator(page browser.Page, opts Options) (*Generator, error) {
	if page == nil {
		return nil, errors.New("page is required")
	}
	if opts.ResultID == "" {
		return nil, errors.New("result id is required")
	}
	if opts.Quality == 0 {
		opts.Quality = DefaultQuality
	}
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Generator{page: page, opts: opts}, nil
}

// Run generates a thumbnail for every item, in order.
func (g *Generator) Run(ctx context.Context, items []manifest.WorkItem) (Report, error) {
	report := Report{
		RunID:     uuid.NewString(),
		StartedAt: g.opts.Now(),
		DryRun:    g.opts.DryRun,
		Items:     make([]ItemReport, 0, len(items)),
	}
	g.opts.Logger.Debug("run started", "run_id", report.RunID, "items", len(items), "dry_run", g.opts.DryRun)

	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		fmt.Fprintf(g.opts.Out, "[%d/%d] Generating %s %s\n", i+1, len(items), item.Category, item.Part)

		res, err := g.generate(ctx, item)
		if err != nil {
			report.FinishedAt = g.opts.Now()
			return report, fmt.Errorf("generate %s/%s: %w", item.Category, item.Part, err)
		}
		report.Items = append(report.Items, res)
	}

	report.FinishedAt = g.opts.Now()
	fmt.Fprintf(g.opts.Out, "Generated %d thumbnails in %.1f minutes.\n", len(report.Items), report.Elapsed().Minutes())
	return report, nil
}

func (g *Generator) generate(ctx context.Context, item manifest.WorkItem) (ItemReport, error) {
	start := g.opts.Now()

	if err := g.disposeCurrent(); err != nil {
		return ItemReport{}, err
	}
	if err := g.page.Render(item.Category, item.Part); err != nil {
		return ItemReport{}, err
	}

	result, err := poll.Selector[browser.Element](ctx, g.page, "#"+g.opts.ResultID, g.opts.Poll)
	if err != nil {
		return ItemReport{}, err
	}
	g.current = result

	if err := result.ScrollIntoView(); err != nil {
		return ItemReport{}, err
	}

	var path string
	if !g.opts.DryRun {
		path = g.opts.Paths.OutputFor(item.Part)
	}
	data, err := result.Screenshot(path, g.opts.Quality)
	if err != nil {
		return ItemReport{}, err
	}

	res := ItemReport{
		Category: item.Category,
		Part:     item.Part,
		Output:   path,
		Bytes:    len(data),
		Duration: g.opts.Now().Sub(start),
	}
	g.opts.Logger.Debug("thumbnail captured", "category", item.Category, "part", item.Part, "output", path, "bytes", res.Bytes)
	return res, nil
}

// disposeCurrent clears the result slot. The page holds at most one result
// element, so the previous one goes before the next render.
func (g *Generator) disposeCurrent() error {
	if g.current == nil {
		return nil
	}
	prev := g.current
	g.current = nil
	if err := prev.Dispose(); err != nil {
		return fmt.Errorf("dispose previous result: %w", err)
	}
	return nil
}
