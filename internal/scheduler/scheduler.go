// Package scheduler fires the periodic library jobs on cron schedules.
//
// Each job only enqueues its task; the work itself happens in the task queue,
// where failures are retried. When several replicas run, a Redis lock makes
// sure only one of them enqueues a given firing.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/robfig/cron/v3"

	"github.com/pranshh/library-management-mad2/internal/audit"
	"github.com/pranshh/library-management-mad2/internal/config"
	"github.com/pranshh/library-management-mad2/internal/tasks"
)

var ErrUnknownJob = errors.New("unknown job")

// Job binds a task to a cron schedule.
type Job struct {
	Name     string
	Schedule string
	Task     backlite.Task
}

// JobStatus describes a registered job.
type JobStatus struct {
	Name        string     `json:"name"`
	Schedule    string     `json:"schedule"`
	Description string     `json:"description"`
	NextRun     *time.Time `json:"next_run,omitempty"`
	Running     bool       `json:"running"`
}

// Locker grants a named lock for a TTL.
type Locker interface {
	Acquire(ctx context.Context, name string, ttl time.Duration) (bool, func(), error)
}

// DefaultJobs returns the library's periodic jobs with their configured schedules.
func DefaultJobs(cfg config.Scheduler) []Job {
	return []Job{
		{Name: "expire_loans", Schedule: orDefault(cfg.ExpirySweepSchedule, config.DefaultExpirySweepSchedule), Task: tasks.ExpireLoansTask{}},
		{Name: "daily_reminders", Schedule: orDefault(cfg.DailyReminderSchedule, config.DefaultDailyReminderSchedule), Task: tasks.DailyRemindersTask{}},
		{Name: "monthly_report", Schedule: orDefault(cfg.MonthlyReportSchedule, config.DefaultMonthlyReportSchedule), Task: tasks.MonthlyReportTask{}},
		{Name: "cleanup_audit_events", Schedule: orDefault(cfg.AuditCleanupSchedule, config.DefaultAuditCleanupSchedule), Task: tasks.CleanupAuditEventsTask{}},
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// Scheduler triggers jobs on their schedules.
type Scheduler struct {
	jobs     []Job
	queue    tasks.Enqueuer
	locker   Locker
	lockTTL  time.Duration
	auditor  *audit.Service
	location *time.Location

	cron       *cron.Cron
	entries    map[string]cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	active     map[string]bool
	cancelFunc context.CancelFunc
}

// New creates a scheduler. locker and auditor may be nil.
func New(jobs []Job, queue tasks.Enqueuer, locker Locker, lockTTL time.Duration, auditor *audit.Service) *Scheduler {
	if lockTTL <= 0 {
		lockTTL = 10 * time.Minute
	}
	return &Scheduler{
		jobs:     jobs,
		queue:    queue,
		locker:   locker,
		lockTTL:  lockTTL,
		auditor:  auditor,
		location: time.UTC,
		entries:  make(map[string]cron.EntryID),
		active:   make(map[string]bool),
	}
}

// Start validates every schedule and begins firing jobs. It stops when ctx is
// cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	c := cron.New(cron.WithParser(cronParser), cron.WithLocation(s.location))
	entries := make(map[string]cron.EntryID, len(s.jobs))
	for _, job := range s.jobs {
		if err := ValidateCronSchedule(job.Schedule); err != nil {
			return fmt.Errorf("invalid cron schedule '%s' for %s: %w", job.Schedule, job.Name, err)
		}
		job := job
		id, err := c.AddFunc(job.Schedule, func() { s.fire(job) })
		if err != nil {
			return fmt.Errorf("failed to schedule %s: %w", job.Name, err)
		}
		entries[job.Name] = id
	}

	s.cron = c
	s.entries = entries
	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	for _, job := range s.jobs {
		next, _ := NextRunTime(job.Schedule, time.Now().In(s.location))
		log.Printf("[SCHEDULER] %s scheduled '%s' (%s). Next run: %v",
			job.Name, job.Schedule, CronDescription(job.Schedule), next)
	}

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop stops the cron loop and waits for in-flight jobs.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	cancel := s.cancelFunc
	s.cancelFunc = nil
	c := s.cron
	s.mu.Unlock()

	// Stop accepting new jobs and wait for running jobs to complete
	<-c.Stop().Done()
	if cancel != nil {
		cancel()
	}

	log.Printf("[SCHEDULER] Stopped")
}

// IsRunning returns whether the scheduler is active.
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// RunNow enqueues a job immediately, bypassing the replica lock.
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	job, ok := s.job(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	return s.run(ctx, job)
}

// NextRun returns when the named job fires next, or nil when not scheduled.
func (s *Scheduler) NextRun(name string) *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}
	id, ok := s.entries[name]
	if !ok {
		return nil
	}
	t := s.cron.Entry(id).Next
	return &t
}

// Status reports every registered job.
func (s *Scheduler) Status() []JobStatus {
	out := make([]JobStatus, 0, len(s.jobs))
	for _, job := range s.jobs {
		s.mu.RLock()
		running := s.active[job.Name]
		s.mu.RUnlock()
		out = append(out, JobStatus{
			Name:        job.Name,
			Schedule:    job.Schedule,
			Description: CronDescription(job.Schedule),
			NextRun:     s.NextRun(job.Name),
			Running:     running,
		})
	}
	return out
}

func (s *Scheduler) job(name string) (Job, bool) {
	for _, job := range s.jobs {
		if job.Name == name {
			return job, true
		}
	}
	return Job{}, false
}

// fire is the cron callback. The replica lock is left to expire on success so
// a replica with a skewed clock cannot fire the same slot again.
func (s *Scheduler) fire(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), s.lockTTL)
	defer cancel()

	ok, release, err := s.lockerAcquire(ctx, job.Name)
	if err != nil {
		log.Printf("[SCHEDULER] %s: lock error, running anyway: %v", job.Name, err)
	} else if !ok {
		log.Printf("[SCHEDULER] %s: skipped (another instance holds the lock)", job.Name)
		return
	}

	if err := s.run(ctx, job); err != nil {
		release()
	}
}

func (s *Scheduler) lockerAcquire(ctx context.Context, name string) (bool, func(), error) {
	if s.locker == nil {
		return true, func() {}, nil
	}
	return s.locker.Acquire(ctx, name, s.lockTTL)
}

func (s *Scheduler) run(ctx context.Context, job Job) error {
	s.mu.Lock()
	if s.active[job.Name] {
		s.mu.Unlock()
		log.Printf("[SCHEDULER] %s: skipped (already running)", job.Name)
		return nil
	}
	s.active[job.Name] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.active, job.Name)
		s.mu.Unlock()
	}()

	ids, err := s.queue.Enqueue(ctx, job.Task)
	if err != nil {
		log.Printf("[SCHEDULER] %s: failed: %v", job.Name, err)
		s.auditor.LogJob(job.Name+"_trigger", "Failed to trigger "+job.Name, nil, err)
		return err
	}
	log.Printf("[SCHEDULER] %s: triggered (task %v)", job.Name, ids)
	return nil
}
