package scheduler

import (
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/firewatch-labs/wildfire-risk-dashboard/internal/dashboard"
)

// Scheduler periodically refreshes weather for live dashboard sessions and
// prunes sessions that went quiet.
type Scheduler struct {
	scheduler *gocron.Scheduler
	manager   *dashboard.Manager
	interval  time.Duration
}

// New creates a Scheduler over the session manager.
func New(manager *dashboard.Manager, interval time.Duration) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		manager:   manager,
		interval:  interval,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	seconds := int(s.interval.Seconds())
	if seconds <= 0 {
		seconds = 600
	}

	_, err := s.scheduler.Every(seconds).Seconds().Do(func() {
		if pruned := s.manager.PruneExpired(); pruned > 0 {
			log.Printf("scheduler: pruned %d expired sessions", pruned)
		}

		n := s.manager.Len()
		if n == 0 {
			return
		}
		log.Printf("scheduler: refreshing weather for %d sessions", n)
		s.manager.RefreshAll()
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
