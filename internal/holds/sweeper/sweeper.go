package sweeper

import (
	"context"
	"time"

	"brokerage/internal/holds/service"
	"brokerage/pkg/clock"
	"brokerage/pkg/logger"
)

type ExpireSweeper interface {
	ExpireSweep(ctx context.Context, now time.Time) (service.SweepResult, error)
}

// Sweeper expires overdue holds on a fixed interval. Several replicas may
// run one each; the guarded transitions keep the outcome identical.
type Sweeper struct {
	svc      ExpireSweeper
	clock    clock.Clock
	interval time.Duration
	log      *logger.Logger
}

func New(svc ExpireSweeper, clk clock.Clock, interval time.Duration, log *logger.Logger) *Sweeper {
	if clk == nil {
		clk = clock.NewSystem()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Sweeper{svc: svc, clock: clk, interval: interval, log: log}
}

// Run sweeps once immediately, then on every tick until ctx is done.
func (s *Sweeper) Run(ctx context.Context) {
	s.log.Info("Hold sweeper started", "interval", s.interval)
	defer s.log.Info("Hold sweeper stopped")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.SweepOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce runs a single sweep. Errors are logged and left for the next tick.
func (s *Sweeper) SweepOnce(ctx context.Context) {
	result, err := s.svc.ExpireSweep(ctx, s.clock.Now())
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.log.Error("Hold sweep failed", "error", err)
		return
	}
	for _, f := range result.Failed {
		s.log.Warn("Hold could not be expired", "hold_id", f.HoldID, "error", f.Error)
	}
}
