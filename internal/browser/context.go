// internal/browser/context.go
package browser

import (
	"context"
	"time"
)

// CombineContext creates a context derived from ctx1 (the tab context) that
// is canceled when either ctx1 or ctx2 (the caller's operation) is done.
// Values come from ctx1 only, since that is where chromedp keeps the CDP
// target; ctx2 contributes nothing but its lifetime.
func CombineContext(ctx1, ctx2 context.Context) (context.Context, context.CancelFunc) {
	combined, cancel := context.WithCancel(ctx1)

	// The goroutine exits once either side is done.
	go func() {
		select {
		case <-ctx2.Done():
			cancel()
		case <-combined.Done():
		}
	}()

	return combined, cancel
}

// valueOnlyContext keeps the values of its parent and nothing else: no
// deadline, no cancellation.
type valueOnlyContext struct {
	context.Context
}

// Deadline reports no deadline.
func (valueOnlyContext) Deadline() (deadline time.Time, ok bool) { return }

// Done never fires.
func (valueOnlyContext) Done() <-chan struct{} { return nil }

// Err is always nil.
func (valueOnlyContext) Err() error { return nil }

// Detach keeps the values of ctx but drops its cancellation. The browser is
// started on a detached context so it outlives the command context (Ctrl+C
// still leaves time for the closing toast); Manager.Shutdown releases it.
func Detach(ctx context.Context) context.Context {
	return valueOnlyContext{ctx}
}
