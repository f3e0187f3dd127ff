package script

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chazu/fegraphics/pkg/graphics"
)

// EvalTimeout is the default limit for a single evaluation.
const EvalTimeout = 5 * time.Second

var (
	// ErrTimeout is returned when a script runs past the engine's timeout.
	ErrTimeout = errors.New("script: evaluation timed out")
	// ErrSuperseded is returned to an evaluation overtaken by a newer one.
	ErrSuperseded = errors.New("script: evaluation superseded by newer request")
)

type evalResult struct {
	list   *graphics.List
	errors []EvalError
	err    error
}

// waitWithTimeout waits up to timeout for ch. A result whose generation is
// no longer current is discarded. A timed out goroutine may still finish;
// its result is dropped with the channel.
func waitWithTimeout(ch <-chan evalResult, timeout time.Duration, gen uint64, mu *sync.Mutex, current *uint64) evalResult {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		mu.Lock()
		latest := *current
		mu.Unlock()
		if gen != latest {
			return evalResult{err: ErrSuperseded}
		}
		return res
	case <-timer.C:
		return evalResult{err: fmt.Errorf("%w after %s", ErrTimeout, timeout)}
	}
}
