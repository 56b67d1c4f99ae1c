package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
)

// ProbeFunc checks one dependency. A nil error means healthy.
type ProbeFunc func(ctx context.Context) error

// Status is the outcome of the most recent probe run.
type Status struct {
	Name      string    `json:"name"`
	Healthy   bool      `json:"healthy"`
	Error     string    `json:"error,omitempty"`
	CheckedAt time.Time `json:"checkedAt"`
}

// Scheduler periodically runs a health probe and keeps the latest result.
type Scheduler struct {
	scheduler *gocron.Scheduler
	name      string
	probe     ProbeFunc
	interval  time.Duration
	timeout   time.Duration
	logger    *zap.Logger

	mu     sync.RWMutex
	status Status
}

// New creates a new Scheduler for probe. The first run happens when Start is called.
func New(name string, probe ProbeFunc, interval time.Duration, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		name:      name,
		probe:     probe,
		interval:  interval,
		timeout:   5 * time.Second,
		logger:    logger,
		status:    Status{Name: name},
	}
}

// Start schedules the probe and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	interval := s.interval
	if interval <= 0 {
		interval = time.Minute
	}

	if _, err := s.scheduler.Every(interval).Do(s.RunOnce); err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// RunOnce runs the probe now and records the result.
func (s *Scheduler) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	st := Status{Name: s.name, Healthy: true, CheckedAt: time.Now().UTC()}
	if err := s.probe(ctx); err != nil {
		st.Healthy = false
		st.Error = err.Error()
		s.logger.Warn("health probe failed", zap.String("probe", s.name), zap.Error(err))
	}

	s.mu.Lock()
	prevHealthy, checked := s.status.Healthy, !s.status.CheckedAt.IsZero()
	s.status = st
	s.mu.Unlock()

	if checked && !prevHealthy && st.Healthy {
		s.logger.Info("health probe recovered", zap.String("probe", s.name))
	}
}

// Status returns the latest probe result. CheckedAt is zero before the first run.
func (s *Scheduler) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
