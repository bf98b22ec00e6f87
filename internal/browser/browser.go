// Package browser drives the thumbnail page through Playwright.
package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/playwright-community/playwright-go"
)

// Page is the live document the generator renders into.
type Page interface {
	// Render invokes the page's render hook without waiting for it to finish.
	Render(category, part string) error
	// Query returns the first element matching selector; ok is false when
	// nothing matches.
	Query(selector string) (elem Element, ok bool, err error)
}

// Element is a handle to a rendered result in the page.
type Element interface {
	ScrollIntoView() error
	// Screenshot captures the element as JPEG. An empty path keeps the
	// image in memory only.
	Screenshot(path string, quality int) ([]byte, error)
	// Dispose releases the element's object URL, removes it from the
	// document and drops the handle.
	Dispose() error
}

// Viewport sizes the page.
type Viewport struct {
	Width  int
	Height int
}

// Options configure a browser session.
type Options struct {
	Headless    bool
	Install     bool // download Chromium for Playwright before launching
	ConsoleLogs bool // forward page console output and errors to Logger
	RenderHook  string
	Viewport    Viewport
	Logger      *slog.Logger
}

// Session owns the Playwright driver, browser and single page.
type Session struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	page    playwright.Page
	hook    string
	logger  *slog.Logger

	// released closes when the user shuts the browser or its page.
	released chan struct{}
}

var _ Page = (*Session)(nil)

// Launch starts Chromium and opens a page.
func Launch(opts Options) (*Session, error) {
	if opts.RenderHook == "" {
		return nil, errors.New("render hook is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if opts.Install {
		logger.Info("installing playwright browsers")
		if err := playwright.Install(&playwright.RunOptions{Browsers: []string{"chromium"}}); err != nil {
			return nil, fmt.Errorf("install playwright: %w", err)
		}
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
		Args:     []string{"--disable-dev-shm-usage"},
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	var pageOpts playwright.BrowserNewPageOptions
	if opts.Viewport.Width > 0 && opts.Viewport.Height > 0 {
		pageOpts.Viewport = &playwright.Size{Width: opts.Viewport.Width, Height: opts.Viewport.Height}
	}
	page, err := browser.NewPage(pageOpts)
	if err != nil {
		_ = browser.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("new page: %w", err)
	}

	if opts.ConsoleLogs {
		page.OnConsole(func(msg playwright.ConsoleMessage) {
			logger.Info("browser log", "type", msg.Type(), "text", msg.Text())
		})
		page.OnPageError(func(err error) {
			logger.Warn("browser error", "error", err)
		})
	}

	released := make(chan struct{})
	var once sync.Once
	release := func() { once.Do(func() { close(released) }) }
	browser.OnDisconnected(func(playwright.Browser) { release() })
	page.OnClose(func(playwright.Page) { release() })

	return &Session{
		pw:       pw,
		browser:  browser,
		page:     page,
		hook:     opts.RenderHook,
		logger:   logger,
		released: released,
	}, nil
}

// Goto navigates to url and waits for the network to settle.
func (s *Session) Goto(url string) error {
	s.logger.Info("navigating", "url", url)
	if _, err := s.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
	}); err != nil {
		return fmt.Errorf("navigate: %w", err)
	}
	return nil
}

const renderScript = `({ hook, category, part }) => { window[hook](category, part); }`

// Render calls window[hook](category, part). The hook reports completion
// only by inserting the result element.
func (s *Session) Render(category, part string) error {
	if _, err := s.page.Evaluate(renderScript, map[string]any{
		"hook":     s.hook,
		"category": category,
		"part":     part,
	}); err != nil {
		return fmt.Errorf("render %s/%s: %w", category, part, err)
	}
	return nil
}

// Query implements Page.
func (s *Session) Query(selector string) (Element, bool, error) {
	handle, err := s.page.QuerySelector(selector)
	if err != nil {
		return nil, false, err
	}
	if handle == nil {
		return nil, false, nil
	}
	return &element{handle: handle}, true, nil
}

// Close shuts the browser down. With keepOpen it first waits until the
// user closes the window or ctx is cancelled.
func (s *Session) Close(ctx context.Context, keepOpen bool) error {
	if keepOpen {
		s.logger.Info("browser left open; close it or press Ctrl+C to exit")
		waitForRelease(ctx, s.released)
	}
	var errs []error
	if s.browser.IsConnected() {
		if err := s.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close browser: %w", err))
		}
	}
	if err := s.pw.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("stop playwright: %w", err))
	}
	return errors.Join(errs...)
}

func waitForRelease(ctx context.Context, released <-chan struct{}) {
	select {
	case <-released:
	case <-ctx.Done():
	}
}

type element struct {
	handle playwright.ElementHandle
}

func (e *element) ScrollIntoView() error {
	if err := e.handle.ScrollIntoViewIfNeeded(); err != nil {
		return fmt.Errorf("scroll into view: %w", err)
	}
	return nil
}

func (e *element) Screenshot(path string, quality int) ([]byte, error) {
	opts := playwright.ElementHandleScreenshotOptions{
		Type:    playwright.ScreenshotTypeJpeg,
		Quality: playwright.Int(quality),
	}
	if path != "" {
		opts.Path = playwright.String(path)
	}
	data, err := e.handle.Screenshot(opts)
	if err != nil {
		return nil, fmt.Errorf("screenshot: %w", err)
	}
	return data, nil
}

const disposeScript = `el => { if (el.src) URL.revokeObjectURL(el.src); el.remove(); }`

func (e *element) Dispose() error {
	if _, err := e.handle.Evaluate(disposeScript); err != nil {
		return fmt.Errorf("remove result: %w", err)
	}
	return e.handle.Dispose()
}
