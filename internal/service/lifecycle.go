package service

import (
	"context"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"
)

// SleepSource reports system suspend (true) and resume (false) until ctx is
// done.
type SleepSource interface {
	Watch(ctx context.Context, fn func(sleeping bool)) error
}

// terminateTimeout bounds the termination callbacks; the signal context is
// already cancelled when they run.
const terminateTimeout = 10 * time.Second

// Lifecycle fans OS sleep, wake and termination out to registered callbacks.
type Lifecycle struct {
	log   *zap.Logger
	sleep SleepSource // nil = no sleep notifications

	mu          sync.Mutex
	onWillSleep []func(context.Context)
	onDidWake   []func(context.Context)
	onTerminate []func(context.Context)
}

func NewLifecycle(log *zap.Logger, sleep SleepSource) *Lifecycle {
	return &Lifecycle{log: log.Named("lifecycle"), sleep: sleep}
}

func (l *Lifecycle) OnWillSleep(fn func(context.Context))    { l.add(&l.onWillSleep, fn) }
func (l *Lifecycle) OnDidWake(fn func(context.Context))      { l.add(&l.onDidWake, fn) }
func (l *Lifecycle) OnAppTerminate(fn func(context.Context)) { l.add(&l.onTerminate, fn) }

func (l *Lifecycle) add(slot *[]func(context.Context), fn func(context.Context)) {
	l.mu.Lock()
	*slot = append(*slot, fn)
	l.mu.Unlock()
}

// Run delivers sleep and wake until ctx is done (SIGINT/SIGTERM in main),
// then runs the termination callbacks before returning.
func (l *Lifecycle) Run(ctx context.Context) error {
	if l.sleep != nil {
		go func() {
			err := l.sleep.Watch(ctx, func(sleeping bool) {
				if sleeping {
					l.log.Info("system going to sleep")
					l.fire(ctx, &l.onWillSleep)
				} else {
					l.log.Info("system woke up")
					l.fire(ctx, &l.onDidWake)
				}
			})
			if err != nil {
				l.log.Warn("sleep notifications unavailable", zap.Error(err))
			}
		}()
	}

	<-ctx.Done()
	l.log.Info("terminating")

	tctx, cancel := context.WithTimeout(context.Background(), terminateTimeout)
	defer cancel()
	l.fire(tctx, &l.onTerminate)
	return nil
}

func (l *Lifecycle) fire(ctx context.Context, slot *[]func(context.Context)) {
	l.mu.Lock()
	fns := slices.Clone(*slot)
	l.mu.Unlock()

	for _, fn := range fns {
		fn(ctx)
	}
}
