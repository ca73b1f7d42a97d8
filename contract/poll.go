package contract

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	pollInitialInterval = 100 * time.Millisecond
	pollMaxInterval     = time.Second
)

// ErrConditionNotMet is wrapped by Eventually when the deadline passes.
var ErrConditionNotMet = errors.New("condition not met before deadline")

// Condition reports whether the awaited state holds. A non-nil error is remembered
// and reported if the wait times out, but does not stop the wait.
type Condition func(ctx context.Context) (bool, error)

// Eventually polls cond with exponential backoff until it holds, timeout elapses
// or ctx is done.
func Eventually(ctx context.Context, timeout time.Duration, cond Condition) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = pollInitialInterval
	b.MaxInterval = pollMaxInterval
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = timeout

	var last error
	attempts := 0
	op := func() error {
		if err := ctx.Err(); err != nil {
			return backoff.Permanent(err)
		}
		attempts++
		ok, err := cond(ctx)
		if err != nil {
			last = err
			return err
		}
		if !ok {
			last = nil
			return ErrConditionNotMet
		}
		return nil
	}

	if err := backoff.Retry(op, backoff.WithContext(b, ctx)); err != nil {
		if last != nil {
			return fmt.Errorf("%w after %d attempts: %w", ErrConditionNotMet, attempts, last)
		}
		return fmt.Errorf("%w after %d attempts", ErrConditionNotMet, attempts)
	}
	return nil
}
