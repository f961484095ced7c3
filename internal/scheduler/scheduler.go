package scheduler

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Refresher reloads a data set, returning how many records it now holds
type Refresher interface {
	Refresh(ctx context.Context) (int, error)
}

// Scheduler runs a refresh once at startup and then on a fixed interval
type Scheduler struct {
	refresher Refresher
	logger    *logrus.Logger
	interval  time.Duration
	timeout   time.Duration
	stopChan  chan struct{}
	wg        sync.WaitGroup
	jobMutex  sync.Mutex // Ensures sequential job execution
	stopOnce  sync.Once
	runs      int
}

// NewScheduler creates a scheduler. Each run gets at most timeout to finish.
func NewScheduler(refresher Refresher, interval, timeout time.Duration, logger *logrus.Logger) *Scheduler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
		logger.SetLevel(logrus.InfoLevel)
	}
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	if timeout <= 0 {
		timeout = time.Minute
	}

	return &Scheduler{
		refresher: refresher,
		logger:    logger,
		interval:  interval,
		timeout:   timeout,
		stopChan:  make(chan struct{}),
	}
}

// Start begins the scheduled refreshes
func (s *Scheduler) Start() {
	s.wg.Add(1)
	go s.runScheduler()
}

func (s *Scheduler) runScheduler() {
	defer s.wg.Done()

	s.logger.Info("Running startup CPI refresh")
	s.runJob()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.runJob()
		}
	}
}

// RunNow triggers a refresh outside the schedule and waits for it
func (s *Scheduler) RunNow() {
	s.runJob()
}

func (s *Scheduler) runJob() {
	s.jobMutex.Lock()
	defer s.jobMutex.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	// abort an in-flight refresh when the scheduler stops
	go func() {
		select {
		case <-s.stopChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	start := time.Now()
	count, err := s.refresher.Refresh(ctx)
	s.runs++
	if err != nil {
		s.logger.WithError(err).WithField("run", s.runs).Error("Scheduled CPI refresh failed")
		return
	}

	s.logger.WithFields(logrus.Fields{
		"run":      s.runs,
		"readings": count,
		"duration": time.Since(start).String(),
	}).Info("Scheduled CPI refresh completed")
}

// Runs returns how many refreshes have been attempted
func (s *Scheduler) Runs() int {
	s.jobMutex.Lock()
	defer s.jobMutex.Unlock()
	return s.runs
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
	s.wg.Wait()
}
