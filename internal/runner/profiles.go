package runner

import "fmt"

// Profile captures everything broker-specific: where to log in, which
// selectors identify each role, and how CALL/PUT are labeled. Runner logic
// is shared; only profiles differ between brokers.
type Profile struct {
	Key       string
	Name      string
	EnvPrefix string

	// LoginURLs are tried in order. Brokers rotate domains and
	// geo-block individual ones, so a single URL is never enough.
	LoginURLs []string
	TradeURL  string

	Selectors SelectorTable

	CallSelector string
	PutSelector  string

	// URLFallbackLogin treats "not on a login or sign-in URL" as logged
	// in when no landmark selector matches. Platforms that render the
	// trading room entirely in a canvas need this.
	URLFallbackLogin bool
}

var profiles = map[string]Profile{
	"quotex": {
		Key:       "quotex",
		Name:      "Quotex",
		EnvPrefix: "QUOTEX",
		LoginURLs: []string{
			"https://qxbroker.com/pt/sign-in",
			"https://quotex.io/pt/sign-in",
			"https://quotex.com/pt/sign-in",
		},
		TradeURL:     "https://qxbroker.com/pt/trade",
		Selectors:    commonSelectors,
		CallSelector: `button:has-text("CALL"), [data-testid*="call"], button[aria-label*="call" i]`,
		PutSelector:  `button:has-text("PUT"), [data-testid*="put"], button[aria-label*="put" i]`,
	},
	"iqoption": {
		Key:       "iqoption",
		Name:      "IQ Option",
		EnvPrefix: "IQOPTION",
		LoginURLs: []string{
			"https://login.iqoption.com/pt/login",
			"https://iqoption.com/pt/login",
			"https://eu.iqoption.com/pt/login",
		},
		TradeURL:     "https://iqoption.com/pt/traderoom",
		Selectors:    commonSelectors,
		CallSelector: `button:has-text("HIGHER"), button:has-text("CALL"), [data-testid*="call"], [class*="call" i]`,
		PutSelector:  `button:has-text("LOWER"), button:has-text("PUT"), [data-testid*="put"], [class*="put" i]`,
	},
	"exnova": {
		Key:       "exnova",
		Name:      "Exnova",
		EnvPrefix: "EXNOVA",
		LoginURLs: []string{
			"https://trade.exnova.com/pt/login",
			"https://trade.exnova.com/pt",
			"https://exnova.com/pt/login",
			"https://app.exnova.com/pt/login",
		},
		TradeURL: "https://trade.exnova.com/pt",
		Selectors: commonSelectors.merge(SelectorTable{
			RoleLoggedInLandmark: {
				`[data-testid*="balance"]`,
				`[class*="balance"]`,
				`[data-testid*="user"]`,
				`[class*="user-menu"]`,
				`[class*="trading-view"]`,
				`.chart-container`,
				`#trading-view`,
			},
		}),
		CallSelector:     `button:has-text("HIGHER"), button:has-text("UP"), button:has-text("CALL"), [data-testid*="call"], [class*="call" i]`,
		PutSelector:      `button:has-text("LOWER"), button:has-text("DOWN"), button:has-text("PUT"), [data-testid*="put"], [class*="put" i]`,
		URLFallbackLogin: true,
	},
}

// ProfileFor returns the profile for a broker key.
func ProfileFor(key string) (Profile, error) {
	p, ok := profiles[key]
	if !ok {
		return Profile{}, fmt.Errorf("unknown broker %q", key)
	}
	return p, nil
}

// Brokers lists the supported broker keys.
func Brokers() []string {
	return []string{"quotex", "iqoption", "exnova"}
}
