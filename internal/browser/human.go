package browser

import (
	"math/rand"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"
)

// Human emulates human interaction timing: jittered typing cadence, mouse
// paths that approach a target through a waypoint, and off-center clicks.
// Values are random within bounds on every call; only the structure is
// deterministic.
type Human struct {
	rng *rand.Rand
	log *zap.Logger
}

func NewHuman(log *zap.Logger) *Human {
	return &Human{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
		log: log,
	}
}

func (h *Human) rand(min, max float64) float64 {
	return h.rng.Float64()*(max-min) + min
}

// TypeInto clicks the element, clears it with select-all, then emits each
// character with an independent 30-120ms delay. A 2% chance per character
// adds a short hesitation pause.
func (h *Human) TypeInto(page playwright.Page, el playwright.ElementHandle, text string) error {
	if err := el.Click(playwright.ElementHandleClickOptions{
		Delay: playwright.Float(h.rand(20, 60)),
	}); err != nil {
		return err
	}
	page.WaitForTimeout(h.rand(100, 300))

	if err := page.Keyboard().Press("Control+a"); err != nil {
		return err
	}
	page.WaitForTimeout(50)

	for _, ch := range text {
		if err := page.Keyboard().Type(string(ch), playwright.KeyboardTypeOptions{
			Delay: playwright.Float(h.rand(30, 120)),
		}); err != nil {
			return err
		}
		if h.rng.Float64() < 0.02 {
			page.WaitForTimeout(h.rand(50, 150))
		}
	}
	return nil
}

// FillValue is TypeInto with a slightly faster cadence, used for numeric
// fields like the stake input.
func (h *Human) FillValue(page playwright.Page, el playwright.ElementHandle, text string) error {
	if err := el.Click(); err != nil {
		return err
	}
	if err := page.Keyboard().Press("Control+a"); err != nil {
		return err
	}
	for _, ch := range text {
		if err := page.Keyboard().Type(string(ch), playwright.KeyboardTypeOptions{
			Delay: playwright.Float(h.rand(20, 80)),
		}); err != nil {
			return err
		}
	}
	page.WaitForTimeout(100)
	return nil
}

// Click moves the pointer through an intermediate waypoint, lands at a
// randomized offset inside the element's box (never dead-center), and
// holds the button down for a short randomized dwell.
func (h *Human) Click(page playwright.Page, el playwright.ElementHandle) error {
	box, err := el.BoundingBox()
	if err != nil || box == nil {
		// No geometry available; a plain click is better than nothing.
		return el.Click()
	}

	x := box.X + h.rand(0.3, 0.7)*box.Width
	y := box.Y + h.rand(0.3, 0.7)*box.Height

	waypointX := box.X + box.Width/2 + h.rand(-50, 50)
	waypointY := box.Y + box.Height/2 + h.rand(-30, 30)
	if err := page.Mouse().Move(waypointX, waypointY, playwright.MouseMoveOptions{
		Steps: playwright.Int(int(h.rand(5, 12))),
	}); err != nil {
		return err
	}
	page.WaitForTimeout(h.rand(20, 80))

	if err := page.Mouse().Move(x, y, playwright.MouseMoveOptions{
		Steps: playwright.Int(int(h.rand(10, 20))),
	}); err != nil {
		return err
	}
	page.WaitForTimeout(h.rand(30, 120))

	if err := page.Mouse().Down(); err != nil {
		return err
	}
	page.WaitForTimeout(h.rand(20, 60))
	return page.Mouse().Up()
}

// ClickSelector waits for the selector to be visible, then human-clicks it.
func (h *Human) ClickSelector(page playwright.Page, selector string) error {
	el, err := page.WaitForSelector(selector, playwright.PageWaitForSelectorOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(15000),
	})
	if err != nil {
		return err
	}
	return h.Click(page, el)
}
