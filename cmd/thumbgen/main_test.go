package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thumbgen/internal/browser"
	"thumbgen/internal/config"
	"thumbgen/internal/manifest"
	"thumbgen/internal/poll"
	"thumbgen/internal/thumbnail"
)

type fakeSession struct {
	opts     browser.Options
	url      string
	renders  []string
	closed   bool
	keptOpen bool
	closeCtx context.Context
	pending  string
	missing  bool
}

func (s *fakeSession) Goto(url string) error {
	s.url = url
	return nil
}

func (s *fakeSession) Render(category, part string) error {
	s.renders = append(s.renders, category+"/"+part)
	s.pending = part
	return nil
}

func (s *fakeSession) Query(selector string) (browser.Element, bool, error) {
	if s.missing || s.pending == "" || selector != "#thumbnail-result" {
		return nil, false, nil
	}
	return &fakeResult{part: s.pending}, true, nil
}

func (s *fakeSession) Close(ctx context.Context, keepOpen bool) error {
	s.closed = true
	s.closeCtx = ctx
	s.keptOpen = keepOpen
	return nil
}

type fakeResult struct{ part string }

func (r *fakeResult) ScrollIntoView() error { return nil }

func (r *fakeResult) Screenshot(path string, quality int) ([]byte, error) {
	data := []byte("jpeg:" + r.part)
	if path != "" {
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return nil, err
		}
	}
	return data, nil
}

func (r *fakeResult) Dispose() error { return nil }

type fixture struct {
	dir     string
	config  string
	output  string
	models  string
	session *fakeSession
}

func newFixture(t *testing.T, manifestJSON string) *fixture {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("THUMBGEN_HOST", "")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "assets", "models"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "assets.json"), []byte(manifestJSON), 0o644))

	cfgPath := filepath.Join(dir, "thumbgen.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("[poll]\nattempts = 2\ndelay_ms = 0\n\n[browser]\ninstall = false\n"), 0o644))

	f := &fixture{
		dir:     dir,
		config:  cfgPath,
		output:  filepath.Join(dir, "assets", "thumbnails"),
		models:  filepath.Join(dir, "assets", "models"),
		session: &fakeSession{},
	}
	prev := launchBrowser
	launchBrowser = func(opts browser.Options) (pageSession, error) {
		f.session.opts = opts
		return f.session, nil
	}
	t.Cleanup(func() { launchBrowser = prev })
	return f
}

func (f *fixture) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--config", f.config}, args...))
	err := cmd.Execute()
	return out.String(), err
}

const hatsManifest = `{"hats": {"parts": [{"value": "tophat"}, {"value": null}]}}`

func TestGenerateWritesThumbnail(t *testing.T) {
	f := newFixture(t, hatsManifest)

	out, err := f.run(t, "")
	require.NoError(t, err)

	assert.Equal(t, []string{"hats/tophat"}, f.session.renders)
	assert.Equal(t, "http://localhost:8080/?thumbnail", f.session.url)
	assert.True(t, f.session.opts.Headless)
	assert.False(t, f.session.opts.Install)
	assert.Equal(t, "renderThumbnail", f.session.opts.RenderHook)
	assert.True(t, f.session.closed)
	assert.False(t, f.session.keptOpen)

	data, err := os.ReadFile(filepath.Join(f.output, "tophat.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "jpeg:tophat", string(data))
	assert.Contains(t, out, "[1/1] Generating hats tophat\n")
	assert.Contains(t, out, "Generated 1 thumbnails in ")
}

func TestGenerateDryRunWritesNothing(t *testing.T) {
	f := newFixture(t, hatsManifest)

	_, err := f.run(t, "", "--dryRun", "--host", "127.0.0.1:9000")
	require.NoError(t, err)

	assert.Equal(t, []string{"hats/tophat"}, f.session.renders)
	assert.Equal(t, "http://127.0.0.1:9000/?thumbnail", f.session.url)
	assert.NoDirExists(t, f.output)
	assert.NoFileExists(t, f.output+".lock")
}

func TestGenerateFilter(t *testing.T) {
	f := newFixture(t, `{"hats": {"parts": [{"value": "tophat"}]}, "shoes": {"parts": [{"value": "boots"}]}}`)

	_, err := f.run(t, "", "--filter", "top")
	require.NoError(t, err)
	assert.Equal(t, []string{"hats/tophat"}, f.session.renders)
}

func TestGenerateOnlyNewSkipsFreshThumbnail(t *testing.T) {
	f := newFixture(t, `{"hats": {"parts": [{"value": "tophat"}, {"value": "beanie"}]}}`)
	paths := thumbnail.Paths{OutputDir: f.output, ModelsDir: f.models}
	require.NoError(t, os.MkdirAll(f.output, 0o755))
	require.NoError(t, os.WriteFile(paths.ModelFor("tophat"), []byte("glb"), 0o644))
	require.NoError(t, os.WriteFile(paths.OutputFor("tophat"), []byte("old"), 0o644))

	// No "y" on stdin: onlyNew must not ask to clean.
	_, err := f.run(t, "", "--onlyNew")
	require.NoError(t, err)

	assert.Equal(t, []string{"hats/beanie"}, f.session.renders)
	data, err := os.ReadFile(paths.OutputFor("tophat"))
	require.NoError(t, err)
	assert.Equal(t, "old", string(data))
}

func TestGenerateDeclinedCleanupExitsQuietly(t *testing.T) {
	f := newFixture(t, hatsManifest)
	require.NoError(t, os.MkdirAll(f.output, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(f.output, "old.jpg"), []byte("old"), 0o644))

	out, err := f.run(t, "n\n")
	require.NoError(t, err)

	assert.Contains(t, out, "Are you sure you want to delete all existing thumbnails? [y/N] ")
	assert.Contains(t, out, "Exiting.")
	assert.Empty(t, f.session.renders)
	assert.FileExists(t, filepath.Join(f.output, "old.jpg"))
}

func TestGenerateConfirmedCleanupClearsOldThumbnails(t *testing.T) {
	f := newFixture(t, hatsManifest)
	require.NoError(t, os.MkdirAll(f.output, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(f.output, "old.jpg"), []byte("old"), 0o644))

	_, err := f.run(t, "y\n")
	require.NoError(t, err)

	assert.NoFileExists(t, filepath.Join(f.output, "old.jpg"))
	assert.FileExists(t, filepath.Join(f.output, "tophat.jpg"))
}

func TestGenerateNoHeadlessLeavesBrowserOpen(t *testing.T) {
	f := newFixture(t, hatsManifest)

	_, err := f.run(t, "", "--noHeadless", "--browserLogs", "--forceClean")
	require.NoError(t, err)
	assert.False(t, f.session.opts.Headless)
	assert.True(t, f.session.opts.ConsoleLogs)
	assert.True(t, f.session.keptOpen)
	assert.NotNil(t, f.session.closeCtx, "the keep-open wait needs a cancellable context")
}

func TestGenerateAbortsWhenResultMissing(t *testing.T) {
	f := newFixture(t, `{"hats": {"parts": [{"value": "tophat"}, {"value": "beanie"}]}}`)
	f.session.missing = true
	reportPath := filepath.Join(f.dir, "run.json")

	_, err := f.run(t, "", "--report", reportPath)
	require.Error(t, err)
	assert.True(t, errors.Is(err, poll.ErrNotFound))
	assert.Equal(t, []string{"hats/tophat"}, f.session.renders)
	assert.True(t, f.session.closed)

	report, err := thumbnail.LoadReport(reportPath)
	require.NoError(t, err)
	assert.Empty(t, report.Items)
}

func TestGenerateWritesReport(t *testing.T) {
	f := newFixture(t, hatsManifest)
	reportPath := filepath.Join(f.dir, "run.json")

	_, err := f.run(t, "", "--report", reportPath)
	require.NoError(t, err)

	report, err := thumbnail.LoadReport(reportPath)
	require.NoError(t, err)
	require.Len(t, report.Items, 1)
	assert.Equal(t, "tophat", report.Items[0].Part)

	out, err := f.run(t, "", "report", reportPath)
	require.NoError(t, err)
	assert.Contains(t, out, report.RunID)
	assert.Contains(t, out, "tophat")
}

func TestListShowsPlannedWorklist(t *testing.T) {
	f := newFixture(t, `{"hats": {"parts": [{"value": "tophat"}, {"value": null}, {"value": "beanie"}]}, "shoes": {"parts": [{"value": "boots"}]}}`)

	out, err := f.run(t, "", "list", "--limit", "2")
	require.NoError(t, err)

	assert.Contains(t, out, "tophat")
	assert.Contains(t, out, "beanie")
	assert.NotContains(t, out, "boots")
	assert.Empty(t, f.session.renders)
}

func TestListEmptyWorklist(t *testing.T) {
	f := newFixture(t, hatsManifest)

	out, err := f.run(t, "", "list", "--filter", "boots")
	require.NoError(t, err)
	assert.Equal(t, "Nothing to generate.\n", out)
}

func TestRejectsUnknownArguments(t *testing.T) {
	f := newFixture(t, hatsManifest)
	_, err := f.run(t, "", "bogus")
	assert.Error(t, err)
}

func TestPlanFlagsAreNotAcceptedByReport(t *testing.T) {
	f := newFixture(t, hatsManifest)
	reportPath := filepath.Join(f.dir, "run.json")
	_, err := f.run(t, "", "--report", reportPath)
	require.NoError(t, err)

	for _, flag := range []string{"--onlyNew", "--filter=top", "--limit=1"} {
		_, err := f.run(t, "", "report", reportPath, flag)
		assert.Error(t, err, flag)
		assert.Contains(t, err.Error(), "unknown flag", flag)
	}
}

func TestPollOptionsFromConfig(t *testing.T) {
	cfg := &config.Config{}
	cfg.Poll.Attempts = 3
	cfg.Poll.DelayMS = 0
	opts := pollOptions(cfg)
	assert.Equal(t, 3, opts.Attempts)
	assert.Equal(t, poll.NoDelay, opts.Delay)

	cfg.Poll.DelayMS = 250
	assert.Equal(t, 250*time.Millisecond, pollOptions(cfg).Delay)
}

func TestRenderWorklistNumbersItems(t *testing.T) {
	out := renderWorklist([]manifest.WorkItem{
		{Category: "hats", Part: "tophat"},
		{Category: "shoes", Part: "boots"},
	})
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 6)
	assert.Contains(t, lines[1], "Category")
	assert.Contains(t, lines[3], "1")
	assert.Contains(t, lines[3], "tophat")
	assert.Contains(t, lines[4], "2")
	assert.Contains(t, lines[4], "boots")
}

func TestRenderReportTotals(t *testing.T) {
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	out := renderReport(thumbnail.Report{
		StartedAt:  start,
		FinishedAt: start.Add(90 * time.Second),
		Items: []thumbnail.ItemReport{
			{Category: "hats", Part: "tophat", Bytes: 100, Duration: time.Second, Output: "/out/tophat.jpg"},
			{Category: "hats", Part: "beanie", Bytes: 50, Duration: 2 * time.Second},
		},
	})
	assert.Contains(t, out, "/out/tophat.jpg")
	assert.Contains(t, out, "150")
	assert.Contains(t, out, "1m30s")
	assert.Contains(t, strings.ToLower(out), "2 parts")
}
