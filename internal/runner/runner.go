package runner

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"atlas-broker-runner/internal/browser"
	"atlas-broker-runner/internal/diag"
	"atlas-broker-runner/internal/logger"
	"atlas-broker-runner/internal/types"
)

// pageSession is the slice of browser.Session the runner depends on.
type pageSession interface {
	Start(ctx context.Context) error
	Page(ctx context.Context) (playwright.Page, error)
	Ready() bool
	Close()
}

// Runner executes broker operations against a live page. A mutex
// serializes operations: the platforms render a single trading surface and
// interleaved mouse activity corrupts both operations.
type Runner struct {
	profile   Profile
	session   pageSession
	human     *browser.Human
	challenge *browser.ChallengeHandler
	shotDir   string
	blog      *zap.Logger

	mu sync.Mutex

	// attempt is swapped out in tests.
	attempt func(ctx context.Context, page playwright.Page, url string, creds types.Credentials) (bool, error)
}

func New(profile Profile, opts browser.Options, blog *zap.Logger) *Runner {
	r := &Runner{
		profile:   profile,
		session:   browser.NewSession(opts, blog),
		human:     browser.NewHuman(blog),
		challenge: browser.NewChallengeHandler(blog),
		shotDir:   opts.ScreenshotDir(),
		blog:      blog,
	}
	r.attempt = r.loginAttempt
	return r
}

// Start launches the browser session without logging in.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session.Start(ctx)
}

// Ready reports whether a live browser session exists.
func (r *Runner) Ready() bool { return r.session.Ready() }

// Close tears down the browser session.
func (r *Runner) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.session.Close()
}

// LoginIfNeeded authenticates unless the session already is. Empty
// credential fields fall back to the broker's environment variables.
func (r *Runner) LoginIfNeeded(ctx context.Context, creds types.Credentials) (types.LoginOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loginLocked(ctx, creds)
}

func (r *Runner) loginLocked(ctx context.Context, creds types.Credentials) (types.LoginOutcome, error) {
	creds, err := r.resolveCredentials(creds)
	if err != nil {
		return types.LoginOutcome{}, err
	}
	page, err := r.session.Page(ctx)
	if err != nil {
		return types.LoginOutcome{}, err
	}

	if _, err := page.Goto(r.profile.TradeURL, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(60000),
	}); err != nil {
		logger.Debug(ctx, "trade page unreachable before login", "broker", r.profile.Key, "error", err.Error())
	} else if r.isLoggedIn(page) {
		return types.LoginOutcome{Success: true, ReachedURL: page.URL()}, nil
	}

	attempted := make([]string, 0, len(r.profile.LoginURLs))
	for _, url := range r.profile.LoginURLs {
		attempted = append(attempted, url)
		ok, err := r.attempt(ctx, page, url, creds)
		if err != nil {
			logger.ErrorWithErr(ctx, "Login attempt errored", err, "broker", r.profile.Key, "url", url)
			continue
		}
		if ok {
			logger.Info(ctx, "Login succeeded", "broker", r.profile.Key, "url", url)
			return types.LoginOutcome{Success: true, ReachedURL: page.URL()}, nil
		}
	}

	failure := &LoginFailureError{
		Broker:   r.profile.Key,
		Attempts: attempted,
		Reason:   "no login URL produced an authenticated session",
	}
	return types.LoginOutcome{Success: false, FailureReason: failure.Reason}, failure
}

// loginAttempt runs the full flow against one candidate URL. A false
// return without error means this URL is a dead end (blocked, challenge
// stuck, wrong credentials) and the next candidate should be tried.
func (r *Runner) loginAttempt(ctx context.Context, page playwright.Page, url string, creds types.Credentials) (bool, error) {
	if _, err := page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(60000),
	}); err != nil {
		return false, err
	}

	title, _ := page.Title()
	if BlockedPage(title, page.URL()) {
		logger.Warn(ctx, "Access blocked", "broker", r.profile.Key, "url", url, "title", title)
		return false, nil
	}

	page.WaitForTimeout(3000)
	if r.isLoggedIn(page) {
		return true, nil
	}

	outcome, err := r.challenge.Handle(ctx, page)
	if err != nil {
		return false, err
	}
	if outcome == browser.ChallengeTimedOut {
		browser.CaptureScreenshot(page, r.shotDir, r.profile.Key+"-challenge-timeout", r.blog)
		return false, nil
	}

	emailEl, emailSel, err := FindByRole(page, r.profile.Selectors, RoleEmailInput)
	if err != nil {
		browser.CaptureScreenshot(page, r.shotDir, r.profile.Key+"-login-fields-not-found", r.blog)
		return false, err
	}
	passEl, passSel, err := FindByRole(page, r.profile.Selectors, RolePasswordInput)
	if err != nil {
		browser.CaptureScreenshot(page, r.shotDir, r.profile.Key+"-login-fields-not-found", r.blog)
		return false, err
	}
	logger.Debug(ctx, "Login fields located", "broker", r.profile.Key, "email_selector", emailSel)

	if err := waitVisible(page, emailSel); err != nil {
		return false, err
	}
	if err := r.human.TypeInto(page, emailEl, creds.Email); err != nil {
		return false, err
	}
	page.WaitForTimeout(500)
	if err := waitVisible(page, passSel); err != nil {
		return false, err
	}
	if err := r.human.TypeInto(page, passEl, creds.Password); err != nil {
		return false, err
	}

	submitEl, submitSel, err := FindByRole(page, r.profile.Selectors, RoleSubmitButton)
	if err != nil {
		return false, err
	}
	if err := waitVisible(page, submitSel); err != nil {
		return false, err
	}
	if err := r.human.Click(page, submitEl); err != nil {
		return false, err
	}

	page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   playwright.LoadStateNetworkidle,
		Timeout: playwright.Float(30000),
	})
	page.WaitForTimeout(3000)

	if r.isLoggedIn(page) {
		return true, nil
	}
	browser.CaptureScreenshot(page, r.shotDir, r.profile.Key+"-login-failed", r.blog)
	return false, nil
}

// Balance reads the account balance from the trading page. A nil value
// with a nil error means the balance is unknown: not logged in, or the
// balance element drifted.
func (r *Runner) Balance(ctx context.Context) (*float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	page, err := r.session.Page(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := page.Goto(r.profile.TradeURL, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	}); err != nil {
		return nil, err
	}
	if !r.isLoggedIn(page) {
		return nil, nil
	}

	el, sel, err := FindByRole(page, r.profile.Selectors, RoleBalance)
	if err != nil {
		logger.Warn(ctx, "Balance element not found", "broker", r.profile.Key)
		return nil, nil
	}
	txt, err := el.TextContent()
	if err != nil {
		return nil, nil
	}
	v, err := ParseCurrency(txt)
	if err != nil {
		logger.Warn(ctx, "Balance text not parseable", "broker", r.profile.Key, "selector", sel, "text", txt)
		return nil, nil
	}
	return &v, nil
}

// PlaceOrder submits one timed order. Validation happens before any
// browser work, so a malformed request never costs a navigation.
func (r *Runner) PlaceOrder(ctx context.Context, req types.OrderRequest) (types.OrderResult, error) {
	if err := validateOrder(req); err != nil {
		return types.OrderResult{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.loginLocked(ctx, types.Credentials{}); err != nil {
		return types.OrderResult{}, err
	}
	page, err := r.session.Page(ctx)
	if err != nil {
		return types.OrderResult{}, err
	}
	if _, err := page.Goto(r.profile.TradeURL, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	}); err != nil {
		return types.OrderResult{}, err
	}
	page.WaitForTimeout(1000)

	if err := r.setStake(page, req.Stake); err != nil {
		browser.CaptureScreenshot(page, r.shotDir, r.profile.Key+"-stake-failed", r.blog)
		return types.OrderResult{}, err
	}
	if err := r.setExpiration(page, req.ExpirationSec); err != nil {
		return types.OrderResult{}, err
	}

	sideSel := r.profile.CallSelector
	if req.Side == types.SidePut {
		sideSel = r.profile.PutSelector
	}
	if err := r.human.ClickSelector(page, sideSel); err != nil {
		browser.CaptureScreenshot(page, r.shotDir, r.profile.Key+"-order-failed", r.blog)
		return types.OrderResult{}, fmt.Errorf("%s button: %w", req.Side, err)
	}
	page.WaitForTimeout(500)

	logger.Order(ctx, r.profile.Key, string(req.Side), req.Stake, req.ExpirationSec)
	return types.OrderResult{
		Accepted:      true,
		Side:          req.Side,
		Stake:         req.Stake,
		ExpirationSec: req.ExpirationSec,
	}, nil
}

// DebugProbe snapshots the current page and tests every candidate
// selector against it.
func (r *Runner) DebugProbe(ctx context.Context) (diag.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	page, err := r.session.Page(ctx)
	if err != nil {
		return diag.Report{}, err
	}
	if u := page.URL(); u == "" || u == "about:blank" {
		if _, err := page.Goto(r.profile.LoginURLs[0], playwright.PageGotoOptions{
			WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		}); err != nil {
			return diag.Report{}, err
		}
		page.WaitForTimeout(2000)
	}
	title, _ := page.Title()
	html, err := page.Content()
	if err != nil {
		return diag.Report{}, err
	}

	table := make(map[string][]string, len(r.profile.Selectors))
	for role, sels := range r.profile.Selectors {
		table[string(role)] = sels
	}
	probes, err := diag.Inspect(html, table)
	if err != nil {
		return diag.Report{}, err
	}

	return diag.Report{
		Broker:     r.profile.Key,
		URL:        page.URL(),
		Title:      title,
		LoggedIn:   r.isLoggedIn(page),
		Screenshot: browser.CaptureScreenshot(page, r.shotDir, r.profile.Key+"-probe", r.blog),
		Probes:     probes,
	}, nil
}

func (r *Runner) setStake(page playwright.Page, stake float64) error {
	el, _, err := FindByRole(page, r.profile.Selectors, RoleStakeInput)
	if err != nil {
		return err
	}
	return r.human.FillValue(page, el, strconv.FormatFloat(stake, 'f', -1, 64))
}

// setExpiration prefers the quick preset buttons, then a generic dropdown,
// and finally gives up silently: some layouts pin expiration to a target
// clock time instead of a duration, and the preset default still trades.
func (r *Runner) setExpiration(page playwright.Page, sec int) error {
	preset := fmt.Sprintf(`button:has-text("%ds")`, sec)
	if el, err := page.QuerySelector(preset); err == nil && el != nil {
		if err := r.human.Click(page, el); err != nil {
			return err
		}
		page.WaitForTimeout(150)
		return nil
	}

	if el, _, err := FindByRole(page, r.profile.Selectors, RoleExpirationControl); err == nil {
		if err := el.Click(); err != nil {
			return err
		}
		page.WaitForTimeout(150)
		optSel := fmt.Sprintf(`text=/^%d\s*s$/i`, sec)
		if opt, err := page.QuerySelector(optSel); err == nil && opt != nil {
			if err := opt.Click(); err != nil {
				return err
			}
			page.WaitForTimeout(150)
		}
	}
	return nil
}

// visibleWaiter is the page slice waitVisible needs.
type visibleWaiter interface {
	WaitForSelector(selector string, options ...playwright.PageWaitForSelectorOptions) (playwright.ElementHandle, error)
}

// waitVisible blocks until the matched selector is actually visible: an
// element found in the DOM can still sit behind a cookie banner or a
// collapsed form section.
func waitVisible(page visibleWaiter, selector string) error {
	_, err := page.WaitForSelector(selector, playwright.PageWaitForSelectorOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(5000),
	})
	return err
}

// loginProbe is what the logged-in heuristic needs from a page.
type loginProbe interface {
	DOM
	URL() string
}

// isLoggedIn: a visible login form always means logged out; otherwise a
// landmark element means logged in. Canvas-heavy platforms fall back to
// the URL shape.
func (r *Runner) isLoggedIn(p loginProbe) bool {
	if RoleExists(p, r.profile.Selectors, RoleLoginForm) {
		return false
	}
	if RoleExists(p, r.profile.Selectors, RoleLoggedInLandmark) {
		return true
	}
	if r.profile.URLFallbackLogin {
		u := p.URL()
		return !strings.Contains(u, "/login") && !strings.Contains(u, "/sign-in")
	}
	return false
}

func (r *Runner) resolveCredentials(creds types.Credentials) (types.Credentials, error) {
	if creds.Email == "" {
		creds.Email = os.Getenv(r.profile.EnvPrefix + "_EMAIL")
	}
	if creds.Password == "" {
		creds.Password = os.Getenv(r.profile.EnvPrefix + "_PASSWORD")
	}
	if creds.Email == "" || creds.Password == "" {
		return types.Credentials{}, fmt.Errorf("%w: %s_EMAIL/%s_PASSWORD",
			ErrMissingCredentials, r.profile.EnvPrefix, r.profile.EnvPrefix)
	}
	return creds, nil
}

// BlockedPage recognizes CDN block and error interstitials from the page
// title and landing URL.
func BlockedPage(title, url string) bool {
	if strings.Contains(title, "Access denied") || strings.Contains(title, "Blocked") {
		return true
	}
	return strings.Contains(url, "blocked") || strings.Contains(url, "error")
}

func validateOrder(req types.OrderRequest) error {
	if req.Side != types.SideCall && req.Side != types.SidePut {
		return &ValidationError{Field: "side", Reason: fmt.Sprintf("must be CALL or PUT, got %q", req.Side)}
	}
	if req.Stake <= 0 {
		return &ValidationError{Field: "stake", Reason: fmt.Sprintf("must be positive, got %v", req.Stake)}
	}
	for _, allowed := range types.AllowedExpirations {
		if req.ExpirationSec == allowed {
			return nil
		}
	}
	return &ValidationError{Field: "expiration_sec", Reason: fmt.Sprintf("must be one of %v, got %d", types.AllowedExpirations, req.ExpirationSec)}
}
