package controller

import (
	"context"
	"sync"
	"time"
)

// taskGroup scopes timers and requests to the controller lifetime.
// Once stopped, pending callbacks never run.
type taskGroup struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func newTaskGroup() *taskGroup {
	ctx, cancel := context.WithCancel(context.Background())
	return &taskGroup{ctx: ctx, cancel: cancel}
}

// after runs fn once d has elapsed unless the group stops first.
func (g *taskGroup) after(d time.Duration, fn func()) {
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()

		timer := time.NewTimer(d)
		defer timer.Stop()

		select {
		case <-timer.C:
			fn()
		case <-g.ctx.Done():
		}
	}()
}

// scope derives a context that is also cancelled when the group stops.
func (g *taskGroup) scope(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	stop := context.AfterFunc(g.ctx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// sleep blocks for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *taskGroup) stop() {
	g.cancel()
	g.wg.Wait()
}
