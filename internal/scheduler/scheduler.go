package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/carbon-covid-correlation/internal/status"
)

// Pinger is the minimal surface an upstream client must expose to be probed.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Scheduler periodically probes upstream availability and records the
// outcomes in the status monitor. Probe results never feed request handling;
// they only inform the health endpoint.
type Scheduler struct {
	scheduler *gocron.Scheduler
	monitor   *status.Monitor
	upstreams map[string]Pinger
	interval  time.Duration
}

// New creates a new Scheduler.
func New(upstreams map[string]Pinger, interval time.Duration, monitor *status.Monitor) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		monitor:   monitor,
		upstreams: upstreams,
		interval:  interval,
	}
}

// Start schedules the periodic probe job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if len(s.upstreams) == 0 {
		log.Println("scheduler: no upstreams configured; nothing to probe")
		return nil
	}

	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 15
	}

	_, err := s.scheduler.Every(minutes).Minutes().Do(func() {
		log.Println("scheduler: running upstream probes")

		var wg sync.WaitGroup
		for name, pinger := range s.upstreams {
			name, pinger := name, pinger
			wg.Add(1)
			go func() {
				defer wg.Done()

				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()

				res := status.ProbeResult{
					Upstream:  name,
					Healthy:   true,
					CheckedAt: time.Now().UTC(),
				}
				if err := pinger.Ping(ctx); err != nil {
					log.Printf("scheduler: probe failed for %s: %v", name, err)
					res.Healthy = false
					res.Error = err.Error()
				}
				s.monitor.Record(res)
			}()
		}
		wg.Wait()
		log.Println("scheduler: completed upstream probes")
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
