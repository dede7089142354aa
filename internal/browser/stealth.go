package browser

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/playwright-community/playwright-go"
)

// RandomDuration picks a duration uniformly in [min, max].
func RandomDuration(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + rand.N(max-min+1)
}

// RandomDelay waits a random duration between min and max, or until ctx is
// done.
func RandomDelay(ctx context.Context, min, max time.Duration) error {
	timer := time.NewTimer(RandomDuration(min, max))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// HumanScroll scrolls the window down in uneven steps then back up a bit.
func HumanScroll(ctx context.Context, page playwright.Page) error {
	for i := 0; i < 5; i++ {
		if _, err := page.Evaluate("window.scrollBy(0, window.innerHeight / 2)"); err != nil {
			return err
		}
		if err := RandomDelay(ctx, 500*time.Millisecond, 1500*time.Millisecond); err != nil {
			return err
		}
	}
	_, err := page.Evaluate("window.scrollBy(0, -200)")
	return err
}

// MouseJiggle moves the mouse to a few random points in the viewport.
func MouseJiggle(ctx context.Context, page playwright.Page) error {
	vp := page.ViewportSize()
	if vp == nil || vp.Width <= 0 || vp.Height <= 0 {
		return nil
	}
	for i := 0; i < 3; i++ {
		x := rand.IntN(vp.Width)
		y := rand.IntN(vp.Height)
		if err := page.Mouse().Move(float64(x), float64(y)); err != nil {
			return err
		}
		if err := RandomDelay(ctx, 100*time.Millisecond, 300*time.Millisecond); err != nil {
			return err
		}
	}
	return nil
}
