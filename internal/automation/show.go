package automation

import (
	"context"
	"time"

	"github.com/lumen-home/lumen-core/internal/lights"
)

// Light show choreography timings.
const (
	showBlinkOn     = 200 * time.Millisecond
	showBlinkOff    = 400 * time.Millisecond
	showBlinkCount  = 5
	showActPause    = 500 * time.Millisecond
	showRandomCount = 64
	showRandomDelay = 150 * time.Millisecond
)

// RunShow runs the light show choreography on the given channels
// (all configured channels when none are named):
//
//  1. Everything off
//  2. Five synchronised blinks
//  3. A burst of random toggling
//  4. Five more synchronised blinks
//  5. Everything on
//
// Cancellation stops the show between steps; whatever state the
// channels were left in stands.
func RunShow(ctx context.Context, controller Controller, channels ...string) error {
	if err := controller.Off(ctx, lights.SourceShow, channels...); err != nil {
		return err
	}

	if err := blink(ctx, controller, channels); err != nil {
		return err
	}
	if err := pause(ctx, showActPause); err != nil {
		return err
	}

	if err := controller.Random(ctx, lights.SourceShow, showRandomCount, showRandomDelay); err != nil {
		return err
	}

	if err := blink(ctx, controller, channels); err != nil {
		return err
	}
	if err := pause(ctx, showActPause); err != nil {
		return err
	}

	return controller.On(ctx, lights.SourceShow, channels...)
}

// blink switches the channels on and off showBlinkCount times.
func blink(ctx context.Context, controller Controller, channels []string) error {
	for i := 0; i < showBlinkCount; i++ {
		if err := controller.On(ctx, lights.SourceShow, channels...); err != nil {
			return err
		}
		if err := pause(ctx, showBlinkOn); err != nil {
			return err
		}
		if err := controller.Off(ctx, lights.SourceShow, channels...); err != nil {
			return err
		}
		if err := pause(ctx, showBlinkOff); err != nil {
			return err
		}
	}
	return nil
}

func pause(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
