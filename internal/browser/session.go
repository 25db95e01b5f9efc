package browser

import (
	"context"
	"fmt"
	"sync"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"
)

// State of a session's browser triple.
type State int

const (
	StateUninitialized State = iota
	StateStarting
	StateReady
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateReady:
		return "ready"
	case StateClosed:
		return "closed"
	default:
		return "uninitialized"
	}
}

// Session owns one browser process, one context, and one page for a single
// broker identity. It is created lazily on first use and stays open after
// operations complete, so later orders reuse the logged-in page.
//
// The page handle must be obtained fresh from Page for each operation; no
// other component may hold a long-lived reference.
type Session struct {
	opts Options
	log  *zap.Logger

	mu      sync.Mutex
	state   State
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	page    playwright.Page

	// launch is swapped out in tests.
	launch func() error
}

func NewSession(opts Options, log *zap.Logger) *Session {
	s := &Session{opts: opts, log: log}
	s.launch = s.launchBrowser
	return s
}

// Start is idempotent. Concurrent callers serialize on the session mutex:
// exactly one launch sequence runs, the rest observe its outcome.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.page != nil && !s.page.IsClosed() {
		return nil
	}
	s.state = StateStarting
	if err := s.launch(); err != nil {
		s.releaseLocked()
		s.state = StateUninitialized
		return fmt.Errorf("browser start: %w", err)
	}
	s.state = StateReady
	return nil
}

// Page starts the session if needed and returns the live page handle.
func (s *Session) Page(ctx context.Context) (playwright.Page, error) {
	if err := s.Start(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.page == nil {
		return nil, fmt.Errorf("session has no page")
	}
	return s.page, nil
}

// Ready reports whether a live page exists without starting anything.
func (s *Session) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateReady && s.page != nil && !s.page.IsClosed()
}

// Close releases page, context, and browser in that order. Tolerant of
// handles that are already closed; never returns an error.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releaseLocked()
	s.state = StateClosed
}

func (s *Session) releaseLocked() {
	if s.page != nil && !s.page.IsClosed() {
		if err := s.page.Close(); err != nil {
			s.log.Debug("page close", zap.Error(err))
		}
	}
	if s.context != nil {
		if err := s.context.Close(); err != nil {
			s.log.Debug("context close", zap.Error(err))
		}
	}
	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			s.log.Debug("browser close", zap.Error(err))
		}
	}
	if s.pw != nil {
		if err := s.pw.Stop(); err != nil {
			s.log.Debug("playwright stop", zap.Error(err))
		}
	}
	s.page = nil
	s.context = nil
	s.browser = nil
	s.pw = nil
}

// launchBrowser tries, in order: attaching to an externally running Chrome
// over CDP, a persistent profile-backed headful window, and a fresh
// headless browser. Persistent-mode failure falls through instead of
// aborting: the brokers challenge fresh anonymous sessions harder, but a
// fresh session still beats no session.
func (s *Session) launchBrowser() error {
	pw, err := playwright.Run()
	if err != nil {
		return fmt.Errorf("playwright run: %w", err)
	}
	s.pw = pw

	if s.opts.RemoteDebuggingURL != "" {
		if err := s.attachCDP(); err != nil {
			s.releaseBrowserOnly()
			return fmt.Errorf("cdp attach %s: %w", s.opts.RemoteDebuggingURL, err)
		}
		return nil
	}

	if s.opts.Persistent && !s.opts.Headless {
		if err := s.launchPersistent(); err == nil {
			return nil
		} else {
			s.log.Warn("persistent context failed, falling back to non-persistent", zap.Error(err))
		}
	}

	return s.launchFresh()
}

func (s *Session) attachCDP() error {
	s.log.Info("attaching to external browser", zap.String("cdp", s.opts.RemoteDebuggingURL))
	browser, err := s.pw.Chromium.ConnectOverCDP(s.opts.RemoteDebuggingURL)
	if err != nil {
		return err
	}
	var context playwright.BrowserContext
	if contexts := browser.Contexts(); len(contexts) > 0 {
		context = contexts[0]
	} else {
		context, err = browser.NewContext()
		if err != nil {
			return err
		}
	}
	var page playwright.Page
	if pages := context.Pages(); len(pages) > 0 {
		page = pages[0]
	} else {
		page, err = context.NewPage()
		if err != nil {
			return err
		}
	}
	if err := applyStealth(context); err != nil {
		s.log.Warn("stealth init script", zap.Error(err))
	}
	s.browser = browser
	s.context = context
	s.page = page
	return nil
}

func (s *Session) launchPersistent() error {
	s.log.Info("launching persistent browser",
		zap.String("user_data_dir", s.opts.UserDataDir))
	opts := playwright.BrowserTypeLaunchPersistentContextOptions{
		Headless:          playwright.Bool(false),
		Locale:            playwright.String(s.opts.Locale),
		TimezoneId:        playwright.String(s.opts.Timezone),
		Viewport:          &playwright.Size{Width: 1366, Height: 800},
		ColorScheme:       playwright.ColorSchemeLight,
		UserAgent:         playwright.String(desktopUserAgent),
		Permissions:       []string{"clipboard-read", "clipboard-write"},
		Geolocation:       &playwright.Geolocation{Latitude: -23.5505, Longitude: -46.6333},
		HasTouch:          playwright.Bool(false),
		JavaScriptEnabled: playwright.Bool(true),
		Args:              persistentLaunchArgs,
	}
	if s.opts.Channel != "" && s.opts.Channel != "chromium" {
		opts.Channel = playwright.String(s.opts.Channel)
	}
	if s.opts.Proxy != "" {
		opts.Proxy = &playwright.Proxy{Server: s.opts.Proxy}
	}
	context, err := s.pw.Chromium.LaunchPersistentContext(s.opts.UserDataDir, opts)
	if err != nil {
		return err
	}
	var page playwright.Page
	if pages := context.Pages(); len(pages) > 0 {
		page = pages[0]
	} else {
		page, err = context.NewPage()
		if err != nil {
			context.Close()
			return err
		}
	}
	if err := applyStealth(context); err != nil {
		s.log.Warn("stealth init script", zap.Error(err))
	}
	s.browser = context.Browser()
	s.context = context
	s.page = page
	return nil
}

func (s *Session) launchFresh() error {
	s.log.Info("launching fresh browser", zap.Bool("headless", s.opts.Headless))
	launchOpts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(s.opts.Headless),
		Args:     headlessLaunchArgs,
	}
	if s.opts.Channel != "" && s.opts.Channel != "chromium" {
		launchOpts.Channel = playwright.String(s.opts.Channel)
	}
	if s.opts.Proxy != "" {
		launchOpts.Proxy = &playwright.Proxy{Server: s.opts.Proxy}
	}
	browser, err := s.pw.Chromium.Launch(launchOpts)
	if err != nil {
		return err
	}
	context, err := browser.NewContext(playwright.BrowserNewContextOptions{
		Locale:            playwright.String(s.opts.Locale),
		TimezoneId:        playwright.String(s.opts.Timezone),
		Viewport:          &playwright.Size{Width: 1366, Height: 800},
		ColorScheme:       playwright.ColorSchemeLight,
		UserAgent:         playwright.String(desktopUserAgent),
		JavaScriptEnabled: playwright.Bool(true),
	})
	if err != nil {
		browser.Close()
		return err
	}
	page, err := context.NewPage()
	if err != nil {
		context.Close()
		browser.Close()
		return err
	}
	if err := applyStealth(context); err != nil {
		s.log.Warn("stealth init script", zap.Error(err))
	}
	s.browser = browser
	s.context = context
	s.page = page
	return nil
}

func (s *Session) releaseBrowserOnly() {
	if s.pw != nil {
		_ = s.pw.Stop()
		s.pw = nil
	}
}
