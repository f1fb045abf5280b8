package preview

import (
	"context"
	"sync"
	"time"
)

// DefaultDebounce is how long the watcher waits for changes to settle.
const DefaultDebounce = 300 * time.Millisecond

// rebuilder runs one rebuild at a time. Triggers within the debounce window
// collapse into one request, and requests arriving while a rebuild runs
// collapse into exactly one follow-up rebuild.
type rebuilder struct {
	build    func(context.Context) error
	onResult func(error)
	delay    time.Duration

	mu    sync.Mutex
	timer *time.Timer
	req   chan struct{}
}

func newRebuilder(build func(context.Context) error, onResult func(error), delay time.Duration) *rebuilder {
	if onResult == nil {
		onResult = func(error) {}
	}
	return &rebuilder{build: build, onResult: onResult, delay: delay, req: make(chan struct{}, 1)}
}

// Trigger schedules a rebuild after the debounce delay, restarting the delay
// if one is already pending.
func (r *rebuilder) Trigger() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.timer != nil {
		r.timer.Stop()
	}
	r.timer = time.AfterFunc(r.delay, r.request)
}

// request queues a rebuild; it is a no-op while one is already queued.
func (r *rebuilder) request() {
	select {
	case r.req <- struct{}{}:
	default:
	}
}

// Run processes rebuild requests until ctx is done. The request channel holds
// at most one pending request, so changes seen during a rebuild produce a
// single follow-up.
func (r *rebuilder) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			r.mu.Lock()
			if r.timer != nil {
				r.timer.Stop()
			}
			r.mu.Unlock()
			return
		case <-r.req:
			r.onResult(r.build(ctx))
		}
	}
}
