package browser

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"
)

// ChallengeOutcome describes what the handler found and did.
type ChallengeOutcome int

const (
	NoChallengeFound ChallengeOutcome = iota
	ChallengeResolved
	ChallengeTimedOut
)

func (o ChallengeOutcome) String() string {
	switch o {
	case ChallengeResolved:
		return "resolved"
	case ChallengeTimedOut:
		return "timed_out"
	default:
		return "none"
	}
}

// ChallengePage is the slice of a page the challenge handler needs.
type ChallengePage interface {
	Title() (string, error)
	Content() (string, error)
	QuerySelector(selector string, options ...playwright.PageQuerySelectorOptions) (playwright.ElementHandle, error)
}

// challengeSelectors mark interstitial anti-bot pages. Checked in order;
// the checkbox variant is the one worth clicking.
var challengeSelectors = []string{
	`input[type="checkbox"]`,
	`[data-ray]`,
	`#challenge-form`,
	`.cf-challenge`,
	`.challenge-container`,
	`iframe[src*="challenges"]`,
}

// challengePhrases are matched case-insensitively against title and body.
var challengePhrases = []string{
	"cloudflare",
	"just a moment",
	"checking your browser",
	"ddos protection",
	"captcha",
}

// ChallengeHandler detects interstitial verification pages and attempts a
// single human-paced checkbox click, then polls for the challenge to clear.
// It never solves image or puzzle captchas; those time out and surface to
// the operator.
type ChallengeHandler struct {
	log     *zap.Logger
	ceiling time.Duration

	now   func() time.Time
	sleep func(time.Duration)
	rng   *rand.Rand
}

func NewChallengeHandler(log *zap.Logger) *ChallengeHandler {
	return &ChallengeHandler{
		log:     log,
		ceiling: 60 * time.Second,
		now:     time.Now,
		sleep:   time.Sleep,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Detect reports whether the page currently shows a challenge.
func (h *ChallengeHandler) Detect(page ChallengePage) bool {
	title, err := page.Title()
	if err == nil {
		lower := strings.ToLower(title)
		for _, p := range challengePhrases {
			if strings.Contains(lower, p) {
				return true
			}
		}
	}
	for _, sel := range challengeSelectors {
		if el, err := page.QuerySelector(sel); err == nil && el != nil {
			return true
		}
	}
	content, err := page.Content()
	if err != nil {
		return false
	}
	lower := strings.ToLower(content)
	for _, p := range challengePhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// Handle runs the full challenge flow: detect, wait out the interstitial
// grace period, click the verification checkbox once if present, then poll
// until the challenge clears or the ceiling elapses.
func (h *ChallengeHandler) Handle(ctx context.Context, page ChallengePage) (ChallengeOutcome, error) {
	if !h.Detect(page) {
		return NoChallengeFound, nil
	}
	h.log.Info("anti-bot challenge detected, waiting it out")

	// Interstitials that auto-resolve punish immediate interaction.
	h.sleep(time.Duration(5000+h.rng.Intn(3000)) * time.Millisecond)

	if el, err := page.QuerySelector(`input[type="checkbox"]`); err == nil && el != nil {
		h.log.Info("clicking verification checkbox")
		if err := el.Click(); err != nil {
			h.log.Warn("checkbox click failed", zap.Error(err))
		}
	}

	w := &Waiter{Interval: 2 * time.Second, Ceiling: h.ceiling, now: h.now, sleep: h.sleep}
	err := w.Wait(ctx, func() (bool, error) {
		return !h.Detect(page), nil
	})
	if errors.Is(err, ErrConditionTimeout) {
		h.log.Warn("challenge did not clear before ceiling",
			zap.Duration("ceiling", h.ceiling))
		return ChallengeTimedOut, nil
	}
	if err != nil {
		return ChallengeTimedOut, err
	}
	h.log.Info("challenge cleared")
	return ChallengeResolved, nil
}
