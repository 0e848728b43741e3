package tasks

import (
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/pranshh/library-management-mad2/internal/config"
)

// Config holds configuration for the task queue system.
type Config struct {
	// DBPath is the SQLite file backing the queue.
	DBPath string

	// Workers is the number of concurrent task workers. Default: 2
	Workers int

	// MaxRetries is the maximum attempts per task. Default: 3
	MaxRetries int

	// RetryDelay is the backoff between attempts. Default: 1m
	RetryDelay time.Duration

	// TaskTimeout bounds a single task execution. Default: 5m
	TaskTimeout time.Duration

	// ReleaseAfter is when stuck tasks are released back to queue. Default: 15m
	ReleaseAfter time.Duration

	// CleanupInterval is how often to clean up completed tasks. Default: 1h
	CleanupInterval time.Duration

	// RetentionDuration is how long to keep finished tasks. Queues that need
	// their results longer keep them longer. Default: 24h
	RetentionDuration time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Workers:           2,
		MaxRetries:        3,
		RetryDelay:        1 * time.Minute,
		TaskTimeout:       5 * time.Minute,
		ReleaseAfter:      15 * time.Minute,
		CleanupInterval:   1 * time.Hour,
		RetentionDuration: 24 * time.Hour,
	}
}

// ConfigFrom builds a Config from application settings. Zero values fall back
// to the defaults, and an empty queue path is derived from the main database
// path with a "-tasks" suffix.
func ConfigFrom(cfg config.Tasks, mainDBPath string) Config {
	c := DefaultConfig()
	c.DBPath = cfg.DBPath
	if c.DBPath == "" {
		c.DBPath = tasksDBPath(mainDBPath)
	}
	if cfg.Workers > 0 {
		c.Workers = cfg.Workers
	}
	if cfg.MaxRetries > 0 {
		c.MaxRetries = cfg.MaxRetries
	}
	if cfg.RetryDelay > 0 {
		c.RetryDelay = cfg.RetryDelay
	}
	if cfg.TaskTimeout > 0 {
		c.TaskTimeout = cfg.TaskTimeout
	}
	if cfg.ReleaseAfter > 0 {
		c.ReleaseAfter = cfg.ReleaseAfter
	}
	if cfg.CleanupInterval > 0 {
		c.CleanupInterval = cfg.CleanupInterval
	}
	if cfg.RetentionDuration > 0 {
		c.RetentionDuration = cfg.RetentionDuration
	}
	return c
}

func tasksDBPath(mainDBPath string) string {
	if mainDBPath == "" {
		mainDBPath = config.DefaultDatabasePath
	}
	dir := filepath.Dir(mainDBPath)
	base := filepath.Base(mainDBPath)
	ext := filepath.Ext(base)
	name := base[:len(base)-len(ext)]
	return filepath.Join(dir, name+"-tasks"+ext)
}

// policy is the retry policy every queue reads from its task's Config method.
// backlite asks the task type for its settings, so the policy lives at
// package level and NewClient installs it before queues are registered.
var policy atomic.Pointer[Config]

// setPolicy installs cfg as the retry policy; zero fields keep the defaults.
func setPolicy(cfg Config) {
	def := DefaultConfig()
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = def.MaxRetries
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = def.RetryDelay
	}
	if cfg.TaskTimeout <= 0 {
		cfg.TaskTimeout = def.TaskTimeout
	}
	if cfg.RetentionDuration <= 0 {
		cfg.RetentionDuration = def.RetentionDuration
	}
	policy.Store(&cfg)
}

func currentPolicy() Config {
	if p := policy.Load(); p != nil {
		return *p
	}
	return DefaultConfig()
}

// queueConfig builds the backlite settings for a queue from the retry policy.
// minRetention is how long the queue needs finished tasks to stay queryable.
func queueConfig(name string, minRetention time.Duration) backlite.QueueConfig {
	p := currentPolicy()
	retention := p.RetentionDuration
	if minRetention > retention {
		retention = minRetention
	}
	return backlite.QueueConfig{
		Name:        name,
		MaxAttempts: p.MaxRetries,
		Backoff:     p.RetryDelay,
		Timeout:     p.TaskTimeout,
		Retention: &backlite.Retention{
			Duration:   retention,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}
