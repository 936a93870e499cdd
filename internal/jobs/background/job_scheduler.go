package background

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"firmbill/internal/jobs"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"
)

// ScheduledInvoicesJob is the name of the daily batch job
const ScheduledInvoicesJob = "scheduled-invoices"

// DueProcessor runs one batch of scheduled invoices
type DueProcessor interface {
	ProcessDue(ctx context.Context) (*jobs.ProcessResult, error)
}

// JobStatus describes one registered job
type JobStatus struct {
	Name    string     `json:"name"`
	NextRun *time.Time `json:"next_run,omitempty"`
	LastRun *time.Time `json:"last_run,omitempty"`
}

// JobScheduler manages background jobs
type JobScheduler struct {
	scheduler gocron.Scheduler
	processor DueProcessor
	logger    zerolog.Logger
	jobs      map[string]gocron.Job
	mu        sync.RWMutex
}

// NewJobScheduler creates a scheduler that runs the processor daily at hour:minute in loc
func NewJobScheduler(processor DueProcessor, hour, minute uint, loc *time.Location, logger zerolog.Logger) (*JobScheduler, error) {
	if loc == nil {
		loc = time.UTC
	}
	scheduler, err := gocron.NewScheduler(gocron.WithLocation(loc))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	js := &JobScheduler{
		scheduler: scheduler,
		processor: processor,
		logger:    logger,
		jobs:      make(map[string]gocron.Job),
	}

	job, err := scheduler.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(hour, minute, 0))),
		gocron.NewTask(js.runScheduledInvoices, context.Background()),
		gocron.WithName(ScheduledInvoicesJob),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to register %s job: %w", ScheduledInvoicesJob, err)
	}
	js.jobs[ScheduledInvoicesJob] = job

	logger.Info().Uint("hour", hour).Uint("minute", minute).Str("timezone", loc.String()).Msg("registered scheduled invoice job")
	return js, nil
}

// Start starts the job scheduler
func (js *JobScheduler) Start() {
	js.logger.Info().Msg("starting background job scheduler")
	js.scheduler.Start()
}

// Stop stops the job scheduler, waiting for a running batch to finish
func (js *JobScheduler) Stop() error {
	js.logger.Info().Msg("stopping background job scheduler")
	return js.scheduler.Shutdown()
}

func (js *JobScheduler) runScheduledInvoices(ctx context.Context) error {
	result, err := js.processor.ProcessDue(ctx)
	if err != nil {
		js.logger.Error().Err(err).Msg("scheduled invoice run failed")
		return err
	}
	for _, e := range result.Errors {
		js.logger.Warn().Str("scheduled_id", e.ScheduledID.String()).Str("error", e.Message).Msg("scheduled invoice failed")
	}
	return nil
}

// RunNow triggers the named job immediately, outside its schedule
func (js *JobScheduler) RunNow(name string) error {
	js.mu.RLock()
	job, ok := js.jobs[name]
	js.mu.RUnlock()
	if !ok {
		return fmt.Errorf("job %q is not registered", name)
	}
	return job.RunNow()
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

// GetJobStatus returns information about scheduled jobs
func (js *JobScheduler) GetJobStatus() []JobStatus {
	js.mu.RLock()
	defer js.mu.RUnlock()

	statuses := make([]JobStatus, 0, len(js.jobs))
	for name, job := range js.jobs {
		status := JobStatus{Name: name}
		if next, err := job.NextRun(); err == nil && !next.IsZero() {
			status.NextRun = &next
		}
		if last, err := job.LastRun(); err == nil && !last.IsZero() {
			status.LastRun = &last
		}
		statuses = append(statuses, status)
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].Name < statuses[j].Name })
	return statuses
}
