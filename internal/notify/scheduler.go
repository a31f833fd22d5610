package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Reidond/subsctl/internal/fx"
)

// Scheduler drives the periodic background work: refreshing exchange rates
// and sweeping for due reminders.
type Scheduler struct {
	mu       sync.RWMutex
	fx       *fx.Service
	sweeper  *Sweeper
	interval time.Duration
	logger   *slog.Logger
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewScheduler(fxService *fx.Service, sweeper *Sweeper, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		fx:       fxService,
		sweeper:  sweeper,
		interval: interval,
		logger:   logger.With("component", "scheduler"),
	}
}

// Start begins the loop. The first tick runs immediately so a fresh deploy
// has rates without waiting a full interval.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.tick(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.tick(ctx)
			}
		}
	}()
}

// Stop cancels the loop and waits for the current tick to finish.
func (s *Scheduler) Stop() {
	s.mu.RLock()
	cancel := s.cancel
	done := s.done
	s.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	s.fx.Refresh(ctx)
	if s.sweeper != nil {
		s.sweeper.Run()
	}
	s.logger.Debug("tick complete")
}
