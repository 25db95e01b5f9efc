package browser

import (
	"context"
	"errors"
	"time"
)

// ErrConditionTimeout is returned when a polled condition never became
// true before the ceiling.
var ErrConditionTimeout = errors.New("condition not met before timeout")

// Waiter polls a predicate at a fixed interval up to a ceiling. The clock
// and sleeper are injectable so tests can drive time virtually.
type Waiter struct {
	Interval time.Duration
	Ceiling  time.Duration

	now   func() time.Time
	sleep func(time.Duration)
}

func NewWaiter(interval, ceiling time.Duration) *Waiter {
	return &Waiter{
		Interval: interval,
		Ceiling:  ceiling,
		now:      time.Now,
		sleep:    time.Sleep,
	}
}

// Wait polls pred until it returns true, the ceiling elapses, or the
// context is cancelled. A pred error aborts immediately.
func (w *Waiter) Wait(ctx context.Context, pred func() (bool, error)) error {
	deadline := w.now().Add(w.Ceiling)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		ok, err := pred()
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		if !w.now().Add(w.Interval).Before(deadline) {
			return ErrConditionTimeout
		}
		w.sleep(w.Interval)
	}
}
