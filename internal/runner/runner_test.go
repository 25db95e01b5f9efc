package runner

import (
	"context"
	"errors"
	"testing"

	"github.com/playwright-community/playwright-go"

	"atlas-broker-runner/internal/types"
)

// spySession records whether any browser work was requested.
type spySession struct {
	started   bool
	pageCalls int
	page      playwright.Page
}

func (s *spySession) Start(ctx context.Context) error {
	s.started = true
	return nil
}
func (s *spySession) Page(ctx context.Context) (playwright.Page, error) {
	s.pageCalls++
	if s.page == nil {
		return nil, errors.New("no page")
	}
	return s.page, nil
}
func (s *spySession) Ready() bool { return s.page != nil }
func (s *spySession) Close()      {}

// offlinePage fails every navigation so login proceeds straight to the
// candidate loop.
type offlinePage struct {
	playwright.Page
}

func (offlinePage) Goto(url string, options ...playwright.PageGotoOptions) (playwright.Response, error) {
	return nil, errors.New("net::ERR_DISCONNECTED")
}
func (offlinePage) URL() string { return "" }

// loggedInPage renders an authenticated trading surface: navigation
// succeeds, no login form is present, and the balance landmark matches.
type loggedInPage struct {
	playwright.Page
	gotos int
}

func (p *loggedInPage) Goto(url string, options ...playwright.PageGotoOptions) (playwright.Response, error) {
	p.gotos++
	return nil, nil
}
func (p *loggedInPage) URL() string { return "https://qxbroker.com/pt/trade" }
func (p *loggedInPage) QuerySelector(selector string, options ...playwright.PageQuerySelectorOptions) (playwright.ElementHandle, error) {
	if selector == `[class*="balance"]` {
		return fakeElement{}, nil
	}
	return nil, nil
}

func testRunner(session pageSession) *Runner {
	profile := profiles["quotex"]
	return &Runner{profile: profile, session: session}
}

func TestValidateOrder(t *testing.T) {
	cases := []struct {
		name  string
		req   types.OrderRequest
		field string
	}{
		{"bad side", types.OrderRequest{Side: "BUY", Stake: 5, ExpirationSec: 60}, "side"},
		{"zero stake", types.OrderRequest{Side: types.SideCall, Stake: 0, ExpirationSec: 60}, "stake"},
		{"negative stake", types.OrderRequest{Side: types.SidePut, Stake: -1, ExpirationSec: 60}, "stake"},
		{"bad expiration", types.OrderRequest{Side: types.SideCall, Stake: 5, ExpirationSec: 45}, "expiration_sec"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := validateOrder(c.req)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if ve.Field != c.field {
				t.Errorf("expected field %s, got %s", c.field, ve.Field)
			}
		})
	}

	for _, exp := range types.AllowedExpirations {
		req := types.OrderRequest{Side: types.SideCall, Stake: 5, ExpirationSec: exp}
		if err := validateOrder(req); err != nil {
			t.Errorf("expected %ds to be valid, got %v", exp, err)
		}
	}
}

func TestPlaceOrderValidatesBeforeBrowser(t *testing.T) {
	session := &spySession{}
	r := testRunner(session)

	_, err := r.PlaceOrder(context.Background(), types.OrderRequest{
		Side: types.SideCall, Stake: 10, ExpirationSec: 45,
	})
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if session.started || session.pageCalls > 0 {
		t.Error("invalid order must not touch the browser session")
	}
}

func TestLoginTriesEveryURLThenFails(t *testing.T) {
	t.Setenv("QUOTEX_EMAIL", "user@example.com")
	t.Setenv("QUOTEX_PASSWORD", "secret")

	session := &spySession{page: offlinePage{}}
	r := testRunner(session)

	var tried []string
	r.attempt = func(ctx context.Context, page playwright.Page, url string, creds types.Credentials) (bool, error) {
		tried = append(tried, url)
		return false, nil
	}

	outcome, err := r.LoginIfNeeded(context.Background(), types.Credentials{})
	var lf *LoginFailureError
	if !errors.As(err, &lf) {
		t.Fatalf("expected LoginFailureError, got %v", err)
	}
	if outcome.Success {
		t.Error("expected outcome.Success to be false")
	}
	if len(tried) != len(r.profile.LoginURLs) {
		t.Fatalf("expected %d attempts, got %d", len(r.profile.LoginURLs), len(tried))
	}
	for i, url := range r.profile.LoginURLs {
		if tried[i] != url {
			t.Errorf("attempt %d: expected %s, got %s", i, url, tried[i])
		}
	}
	if len(lf.Attempts) != len(r.profile.LoginURLs) {
		t.Errorf("error should carry all attempted URLs, got %v", lf.Attempts)
	}
}

func TestLoginStopsAtFirstSuccess(t *testing.T) {
	t.Setenv("QUOTEX_EMAIL", "user@example.com")
	t.Setenv("QUOTEX_PASSWORD", "secret")

	session := &spySession{page: offlinePage{}}
	r := testRunner(session)

	calls := 0
	r.attempt = func(ctx context.Context, page playwright.Page, url string, creds types.Credentials) (bool, error) {
		calls++
		return calls == 2, nil
	}

	outcome, err := r.LoginIfNeeded(context.Background(), types.Credentials{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !outcome.Success {
		t.Error("expected success")
	}
	if calls != 2 {
		t.Errorf("expected loop to stop after second attempt, got %d calls", calls)
	}
}

func TestLoginIsNoOpWhenAlreadyLoggedIn(t *testing.T) {
	t.Setenv("QUOTEX_EMAIL", "user@example.com")
	t.Setenv("QUOTEX_PASSWORD", "secret")

	page := &loggedInPage{}
	r := testRunner(&spySession{page: page})

	attempts := 0
	r.attempt = func(ctx context.Context, page playwright.Page, url string, creds types.Credentials) (bool, error) {
		attempts++
		return true, nil
	}

	for i := 0; i < 2; i++ {
		outcome, err := r.LoginIfNeeded(context.Background(), types.Credentials{})
		if err != nil {
			t.Fatalf("call %d: unexpected error: %v", i+1, err)
		}
		if !outcome.Success {
			t.Fatalf("call %d: expected success", i+1)
		}
	}
	if attempts != 0 {
		t.Errorf("an authenticated session must short-circuit the login flow, got %d attempts", attempts)
	}
	if page.gotos != 2 {
		t.Errorf("each call should only probe the trade page, got %d navigations", page.gotos)
	}
}

func TestResolveCredentials(t *testing.T) {
	t.Setenv("QUOTEX_EMAIL", "")
	t.Setenv("QUOTEX_PASSWORD", "")

	r := testRunner(&spySession{})
	if _, err := r.resolveCredentials(types.Credentials{}); !errors.Is(err, ErrMissingCredentials) {
		t.Errorf("expected ErrMissingCredentials, got %v", err)
	}

	t.Setenv("QUOTEX_EMAIL", "env@example.com")
	t.Setenv("QUOTEX_PASSWORD", "envpass")
	creds, err := r.resolveCredentials(types.Credentials{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if creds.Email != "env@example.com" || creds.Password != "envpass" {
		t.Errorf("expected env fallback, got %+v", creds)
	}

	creds, err = r.resolveCredentials(types.Credentials{Email: "explicit@example.com", Password: "explicit"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if creds.Email != "explicit@example.com" {
		t.Error("explicit credentials must win over environment")
	}
}

type visibilityRecorder struct {
	waited []string
	err    error
}

func (v *visibilityRecorder) WaitForSelector(selector string, options ...playwright.PageWaitForSelectorOptions) (playwright.ElementHandle, error) {
	v.waited = append(v.waited, selector)
	if v.err != nil {
		return nil, v.err
	}
	return fakeElement{}, nil
}

func TestWaitVisible(t *testing.T) {
	rec := &visibilityRecorder{}
	if err := waitVisible(rec, `input[name="email"]`); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rec.waited) != 1 || rec.waited[0] != `input[name="email"]` {
		t.Errorf("expected a wait on the matched selector, got %v", rec.waited)
	}

	rec = &visibilityRecorder{err: errors.New("timeout 5000ms exceeded")}
	if err := waitVisible(rec, "form button"); err == nil {
		t.Error("a selector that never becomes visible must fail")
	}
}

func TestBlockedPage(t *testing.T) {
	cases := []struct {
		title, url string
		want       bool
	}{
		{"Access denied", "https://qxbroker.com/pt/sign-in", true},
		{"Blocked", "https://qxbroker.com", true},
		{"Quotex", "https://qxbroker.com/blocked", true},
		{"Quotex", "https://qxbroker.com/error", true},
		{"Quotex - Trading", "https://qxbroker.com/pt/trade", false},
	}
	for _, c := range cases {
		if got := BlockedPage(c.title, c.url); got != c.want {
			t.Errorf("BlockedPage(%q, %q) = %v, want %v", c.title, c.url, got, c.want)
		}
	}
}

func TestProfileFor(t *testing.T) {
	for _, key := range Brokers() {
		p, err := ProfileFor(key)
		if err != nil {
			t.Fatalf("ProfileFor(%s): %v", key, err)
		}
		if len(p.LoginURLs) == 0 {
			t.Errorf("%s: expected login URL candidates", key)
		}
		if p.CallSelector == "" || p.PutSelector == "" {
			t.Errorf("%s: expected side selectors", key)
		}
	}
	if _, err := ProfileFor("nadex"); err == nil {
		t.Error("expected error for unknown broker")
	}
}
