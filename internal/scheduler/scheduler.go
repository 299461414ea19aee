package scheduler

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/bisa-app/factcheck/internal/model"
	"github.com/bisa-app/factcheck/internal/sources"
	"github.com/robfig/cron/v3"
)

const defaultJobTimeout = 30 * time.Minute

// Job is a scheduled task
type Job func(ctx context.Context) error

// Scheduler runs named jobs on cron schedules. A run that is still going
// when its next tick arrives causes that tick to be skipped.
type Scheduler struct {
	cron    *cron.Cron
	mu      sync.Mutex
	jobs    map[string]cron.EntryID
	timeout time.Duration
}

// JobInfo describes a scheduled job
type JobInfo struct {
	Name    string
	NextRun time.Time
	LastRun time.Time
}

// New creates a scheduler. Each run is bounded by timeout (default 30m).
func New(timeout time.Duration) *Scheduler {
	if timeout <= 0 {
		timeout = defaultJobTimeout
	}
	logger := cron.PrintfLogger(log.Default())
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		jobs:    make(map[string]cron.EntryID),
		timeout: timeout,
	}
}

// AddJob schedules job under name. schedule uses the five-field cron
// format or a descriptor such as "@daily" or "@every 6h".
func (s *Scheduler) AddJob(name, schedule string, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %s already scheduled", name)
	}

	entryID, err := s.cron.AddFunc(schedule, func() {
		if err := s.run(name, job); err != nil {
			log.Printf("[scheduler] job %s failed: %v", name, err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule job %s: %w", name, err)
	}

	s.jobs[name] = entryID
	log.Printf("[scheduler] added job %s (schedule: %s)", name, schedule)
	return nil
}

// RunNow executes a job immediately, outside its schedule
func (s *Scheduler) RunNow(name string, job Job) error {
	return s.run(name, job)
}

func (s *Scheduler) run(name string, job Job) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	if err := job(ctx); err != nil {
		return err
	}
	log.Printf("[scheduler] job %s completed in %v", name, time.Since(start).Round(time.Millisecond))
	return nil
}

// Start begins running scheduled jobs
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the scheduler; the returned context is done once running
// jobs have finished
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// Jobs lists scheduled jobs sorted by name
func (s *Scheduler) Jobs() []JobInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	infos := make([]JobInfo, 0, len(s.jobs))
	for name, id := range s.jobs {
		entry := s.cron.Entry(id)
		infos = append(infos, JobInfo{Name: name, NextRun: entry.Next, LastRun: entry.Prev})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// AuditReporter receives the outcome counts of a source audit
type AuditReporter interface {
	AuditFinished(accessible, dead, disallowed int, at time.Time)
}

// AuditJob probes every catalog source and reports the counts. Dead and
// disallowed sources are logged individually.
func AuditJob(auditor *sources.Auditor, catalog []model.Source, reporter AuditReporter) Job {
	return func(ctx context.Context) error {
		results := auditor.Audit(ctx, catalog)
		accessible, dead, disallowed := sources.Summary(results)

		for _, r := range results {
			switch {
			case r.Disallowed:
				log.Printf("[audit] %s (%s) disallowed by robots.txt", r.Source.Title, r.Source.URL)
			case r.Dead:
				log.Printf("[audit] %s (%s) is dead: status=%d err=%s", r.Source.Title, r.Source.URL, r.StatusCode, r.Error)
			}
		}
		log.Printf("[audit] %d sources: %d accessible, %d dead, %d disallowed", len(results), accessible, dead, disallowed)

		if reporter != nil {
			reporter.AuditFinished(accessible, dead, disallowed, time.Now())
		}
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("audit interrupted: %w", err)
		}
		return nil
	}
}
