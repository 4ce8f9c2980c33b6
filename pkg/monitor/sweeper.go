package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

const DefaultSchedule = "@every 1m"

// Expirer times out executions that outlived their timeout.
type Expirer interface {
	ExpireStale(ctx context.Context, now time.Time) (int, error)
}

// Sweeper runs an Expirer on a cron schedule.
type Sweeper struct {
	schedule string
	expirer  Expirer
	cron     *cron.Cron
	logger   *slog.Logger
}

func NewSweeper(schedule string, expirer Expirer, logger *slog.Logger) (*Sweeper, error) {
	if schedule == "" {
		schedule = DefaultSchedule
	}

	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule: %w", err)
	}

	return &Sweeper{
		schedule: schedule,
		expirer:  expirer,
		logger:   logger.With("module", "execution_sweeper", "schedule", schedule),
	}, nil
}

func (s *Sweeper) Start() error {
	s.logger.Info("Starting execution sweeper")

	s.cron = cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
		cron.Recover(cron.DefaultLogger),
	))

	if _, err := s.cron.AddFunc(s.schedule, s.Sweep); err != nil {
		return fmt.Errorf("failed to add sweep job: %w", err)
	}

	s.cron.Start()

	return nil
}

// Sweep expires stale executions once.
func (s *Sweeper) Sweep() {
	expired, err := s.expirer.ExpireStale(context.Background(), time.Now().UTC())
	if err != nil {
		s.logger.Error("Execution sweep failed", "error", err)

		return
	}

	if expired > 0 {
		s.logger.Info("Expired stale executions", "count", expired)
	}
}

func (s *Sweeper) Stop() {
	if s.cron == nil {
		return
	}

	<-s.cron.Stop().Done()
	s.logger.Info("Execution sweeper stopped")
}
