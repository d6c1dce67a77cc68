// Package jobs runs the periodic maintenance tasks: expired event cleanup and the AutoPay billing cycle.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/gopalparivar/dhenu-mahima/internal/config"
	"github.com/gopalparivar/dhenu-mahima/internal/db/controller/event"
	"github.com/gopalparivar/dhenu-mahima/internal/logger"
	"github.com/gopalparivar/dhenu-mahima/internal/membership"
)

// Job names, usable with "jobs run".
const (
	EventsCleanup          = "events-cleanup"
	SubscriptionStatus     = "subscription-status"
	SubscriptionNotify     = "subscription-notify"
	SubscriptionRedeem     = "subscription-redeem"
	SubscriptionQuickCheck = "subscription-quick-check"
)

// ErrUnknownJob is returned when a job name is not registered.
var ErrUnknownJob = errors.New("unknown job")

var runCounter = promauto.NewCounterVec( //nolint:gochecknoglobals
	prometheus.CounterOpts{
		Name: "job_runs_total",
		Help: "Number of background job runs, by job and outcome.",
	},
	[]string{"job", "outcome"},
)

// Job is a named task with its cron expression.
type Job struct {
	Name string
	Spec string
	Run  func(ctx context.Context) error
}

// Scheduler owns the cron runner and the job registry.
type Scheduler struct {
	cron   *cron.Cron
	jobs   map[string]Job
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New registers the jobs of cfg. memberships may be nil when payments are not configured,
// the subscription jobs are skipped then.
func New(cfg config.Jobs, db *gorm.DB, memberships *membership.Service) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	s := &Scheduler{
		cron:   cron.New(cron.WithLogger(cronLogger{})),
		jobs:   map[string]Job{},
		ctx:    ctx,
		cancel: cancel,
	}

	s.add(Job{Name: EventsCleanup, Spec: cfg.EventCleanup, Run: func(context.Context) error {
		n, err := event.DeleteExpired(db, time.Now())
		if err != nil {
			return err
		}
		logger.For(logger.ComponentJobs).Info().Int64("deleted", n).Msg("expired events removed")
		return nil
	}})

	if memberships == nil {
		return s
	}

	s.add(Job{Name: SubscriptionStatus, Spec: cfg.SubscriptionStatus, Run: func(ctx context.Context) error {
		n, err := memberships.RefreshAll(ctx)
		logger.For(logger.ComponentJobs).Info().Int("refreshed", n).Msg("subscription states refreshed")
		return err
	}})

	s.add(Job{Name: SubscriptionNotify, Spec: cfg.SubscriptionNotify, Run: func(ctx context.Context) error {
		n, err := memberships.NotifyDue(ctx)
		logger.For(logger.ComponentJobs).Info().Int("notified", n).Msg("upcoming debits notified")
		return err
	}})

	redeem := func(ctx context.Context) error {
		n, err := memberships.RedeemReady(ctx)
		logger.For(logger.ComponentJobs).Info().Int("redeemed", n).Msg("notified debits executed")
		return err
	}
	s.add(Job{Name: SubscriptionRedeem, Spec: cfg.SubscriptionRedeem, Run: redeem})

	s.add(Job{Name: SubscriptionQuickCheck, Spec: cfg.SubscriptionQuickCheck, Run: func(ctx context.Context) error {
		ready, err := memberships.ReadyCount()
		if err != nil {
			return err
		}
		if ready == 0 {
			return nil
		}
		logger.For(logger.ComponentJobs).Info().Int64("ready", ready).Msg("debits ready, running redemption")
		return redeem(ctx)
	}})

	return s
}

func (s *Scheduler) add(j Job) {
	s.jobs[j.Name] = j
}

// Names returns the registered job names in alphabetical order.
func (s *Scheduler) Names() []string {
	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Run executes one job now.
func (s *Scheduler) Run(ctx context.Context, name string) error {
	j, ok := s.jobs[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}

	start := time.Now()
	err := j.Run(ctx)

	outcome := "ok"
	if err != nil {
		outcome = "error"
		logger.For(logger.ComponentJobs).Error().Err(err).Str("job", name).Msg("job failed")
	} else {
		logger.For(logger.ComponentJobs).Debug().Str("job", name).Dur("took", time.Since(start)).Msg("job finished")
	}
	runCounter.WithLabelValues(name, outcome).Inc()

	return err
}

// Start schedules every job with a cron expression and runs the event cleanup once.
func (s *Scheduler) Start() error {
	for _, name := range s.Names() {
		j := s.jobs[name]
		if j.Spec == "" {
			logger.For(logger.ComponentJobs).Info().Str("job", name).Msg("job has no schedule, skipping")
			continue
		}

		if _, err := s.cron.AddFunc(j.Spec, func() { _ = s.Run(s.ctx, name) }); err != nil {
			return fmt.Errorf("schedule %s (%q): %w", name, j.Spec, err)
		}
	}

	s.cron.Start()
	logger.For(logger.ComponentJobs).Info().Strs("jobs", s.Names()).Msg("job scheduler started")

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		_ = s.Run(s.ctx, EventsCleanup)
	}()

	return nil
}

// Stop cancels running jobs and waits for them to return.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
	s.wg.Wait()
	logger.For(logger.ComponentJobs).Info().Msg("job scheduler stopped")
}

// cronLogger routes cron messages to zerolog.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.For(logger.ComponentJobs).Debug().Fields(keysAndValues).Msg(msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.For(logger.ComponentJobs).Error().Err(err).Fields(keysAndValues).Msg(msg)
}
