// Package diag builds selector probe reports from a page snapshot. When a
// broker ships a redesign, the probe shows which candidate selectors still
// match without anyone having to drive the browser by hand.
package diag

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// SelectorProbe is the result of testing one candidate selector.
type SelectorProbe struct {
	Role     string `json:"role"`
	Selector string `json:"selector"`
	Matches  int    `json:"matches"`
	Sample   string `json:"sample,omitempty"`
}

// Report describes the current state of one broker page.
type Report struct {
	Broker     string          `json:"broker"`
	URL        string          `json:"url"`
	Title      string          `json:"title"`
	LoggedIn   bool            `json:"loggedIn"`
	Screenshot string          `json:"screenshot,omitempty"`
	Probes     []SelectorProbe `json:"probes"`
}

const sampleLimit = 80

// Inspect runs every candidate selector in the table against the given
// HTML snapshot. Playwright-only selector syntax (text engines, has-text
// pseudo-class) cannot run against a static snapshot and is skipped.
func Inspect(html string, table map[string][]string) ([]SelectorProbe, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	var probes []SelectorProbe
	for role, selectors := range table {
		for _, sel := range selectors {
			if !cssCompatible(sel) {
				continue
			}
			matched := doc.Find(sel)
			probe := SelectorProbe{Role: role, Selector: sel, Matches: matched.Length()}
			if probe.Matches > 0 {
				probe.Sample = trimSample(matched.First().Text())
			}
			probes = append(probes, probe)
		}
	}
	return probes, nil
}

func cssCompatible(sel string) bool {
	return !strings.Contains(sel, ":has-text(") && !strings.HasPrefix(sel, "text=")
}

func trimSample(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > sampleLimit {
		return s[:sampleLimit]
	}
	return s
}
