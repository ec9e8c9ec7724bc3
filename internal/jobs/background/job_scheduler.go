package background

import (
	"context"
	"fmt"
	"sync"
	"time"

	"medassist/internal/config"
	"medassist/internal/jobs"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"
)

const jobTimeout = 2 * time.Minute

// SubscriptionExpirer marks lapsed subscriptions as expired.
type SubscriptionExpirer interface {
	ExpireDue(ctx context.Context) (int64, error)
}

// JobScheduler runs the periodic maintenance jobs
type JobScheduler struct {
	scheduler     gocron.Scheduler
	subscriptions SubscriptionExpirer
	analytics     *jobs.AnalyticsRefreshService
	lowStock      *jobs.LowStockAlertService
	cfg           config.JobsConfig
	jobs          map[string]gocron.Job
	mu            sync.RWMutex
}

// NewJobScheduler creates a scheduler with every job registered but not started.
func NewJobScheduler(cfg config.JobsConfig, subscriptions SubscriptionExpirer,
	analytics *jobs.AnalyticsRefreshService, lowStock *jobs.LowStockAlertService) (*JobScheduler, error) {

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	js := &JobScheduler{
		scheduler:     scheduler,
		subscriptions: subscriptions,
		analytics:     analytics,
		lowStock:      lowStock,
		cfg:           cfg,
		jobs:          make(map[string]gocron.Job),
	}

	if err := js.registerJobs(); err != nil {
		_ = scheduler.Shutdown()
		return nil, err
	}
	return js, nil
}

// Start starts the job scheduler
func (js *JobScheduler) Start() {
	log.Info().Int("jobs", len(js.jobs)).Msg("Starting background job scheduler")
	js.scheduler.Start()
}

// Stop stops the job scheduler
func (js *JobScheduler) Stop() error {
	log.Info().Msg("Stopping background job scheduler")
	return js.scheduler.Shutdown()
}

func (js *JobScheduler) registerJobs() error {
	definitions := []struct {
		name     string
		interval time.Duration
		run      func(ctx context.Context) error
	}{
		{"subscription-expiry", js.cfg.SubscriptionExpiry, js.expireSubscriptions},
		{"trending-refresh", js.cfg.TrendingRefresh, js.refreshTrending},
		{"low-stock-alerts", js.cfg.LowStockScan, js.scanLowStock},
	}

	for _, d := range definitions {
		if d.interval <= 0 {
			log.Warn().Str("job", d.name).Msg("Job disabled: non-positive interval")
			continue
		}
		if err := js.AddJob(d.name, d.interval, d.run); err != nil {
			return fmt.Errorf("failed to register %s job: %w", d.name, err)
		}
	}
	return nil
}

// AddJob schedules run every interval. Runs never overlap; a run that is
// still going when the next is due pushes it back.
func (js *JobScheduler) AddJob(name string, interval time.Duration, run func(ctx context.Context) error) error {
	js.mu.Lock()
	defer js.mu.Unlock()

	job, err := js.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
			defer cancel()
			if err := run(ctx); err != nil {
				log.Error().Err(err).Str("job", name).Msg("Background job failed")
			}
		}),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return err
	}

	js.jobs[name] = job
	return nil
}

// RemoveJob removes a job from the scheduler
func (js *JobScheduler) RemoveJob(name string) error {
	js.mu.Lock()
	defer js.mu.Unlock()

	if job, exists := js.jobs[name]; exists {
		err := js.scheduler.RemoveJob(job.ID())
		delete(js.jobs, name)
		return err
	}
	return nil
}

func (js *JobScheduler) expireSubscriptions(ctx context.Context) error {
	expired, err := js.subscriptions.ExpireDue(ctx)
	if err != nil {
		return err
	}
	if expired > 0 {
		log.Info().Int64("expired", expired).Msg("Expired lapsed subscriptions")
	}
	return nil
}

func (js *JobScheduler) refreshTrending(ctx context.Context) error {
	_, err := js.analytics.ScheduledTrendingRefresh(ctx)
	return err
}

func (js *JobScheduler) scanLowStock(ctx context.Context) error {
	_, err := js.lowStock.ScanAndNotify(ctx)
	return err
}

// GetJobStatus returns information about scheduled jobs
func (js *JobScheduler) GetJobStatus() map[string]interface{} {
	js.mu.RLock()
	defer js.mu.RUnlock()

	jobs := make([]map[string]interface{}, 0, len(js.jobs))
	for name, job := range js.jobs {
		entry := map[string]interface{}{"name": name}
		if next, err := job.NextRun(); err == nil {
			entry["next_run"] = next
		}
		if last, err := job.LastRun(); err == nil && !last.IsZero() {
			entry["last_run"] = last
		}
		jobs = append(jobs, entry)
	}

	return map[string]interface{}{
		"total_jobs": len(js.jobs),
		"jobs":       jobs,
	}
}
