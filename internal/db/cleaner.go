package db

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Sweeper removes rows that are no longer needed.
type Sweeper interface {
	SweepExpired(ctx context.Context) (int64, error)
}

// Cleaner runs a Sweeper on a fixed interval until stopped.
type Cleaner struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// StartExpiredShareCleaner runs s every interval in its own goroutine.
// The goroutine exits when ctx is cancelled or Stop is called.
func StartExpiredShareCleaner(
	ctx context.Context,
	s Sweeper,
	interval time.Duration,
	log *zap.Logger,
) *Cleaner {
	ctx, cancel := context.WithCancel(ctx)
	c := &Cleaner{cancel: cancel, done: make(chan struct{})}

	ticker := time.NewTicker(interval)
	go func() {
		defer close(c.done)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed, err := s.SweepExpired(ctx)
				if err != nil {
					log.Error("failed to clean expired shares", zap.Error(err))
					continue
				}
				if removed > 0 {
					log.Info("cleaned expired shares", zap.Int64("removed", removed))
				}
			}
		}
	}()
	return c
}

// Stop cancels the cleaner and waits for the running sweep, if any, to finish.
func (c *Cleaner) Stop() {
	c.once.Do(c.cancel)
	<-c.done
}
