// Package cleaner runs the scheduled cleanup of unstaffed queues.
package cleaner

import (
	"context"
	"fmt"

	"github.com/golang/glog"
	"github.com/robfig/cron/v3"
)

// Off disables the schedule.
const Off = "off"

// QueueCleaner is what the cleanup job runs against.
type QueueCleaner interface {
	CleanAllQueues(ctx context.Context) error
}

type Cleaner struct {
	cron    *cron.Cron
	service QueueCleaner
}

// New schedules the cleanup with a standard five-field cron expression. It returns nil when the
// schedule is empty or "off".
func New(schedule string, service QueueCleaner) (*Cleaner, error) {
	if schedule == "" || schedule == Off {
		return nil, nil
	}

	c := &Cleaner{cron: cron.New(), service: service}
	if _, err := c.cron.AddFunc(schedule, c.run); err != nil {
		return nil, fmt.Errorf("invalid clean schedule %q: %w", schedule, err)
	}
	return c, nil
}

func (c *Cleaner) run() {
	glog.Infof("cleaning unstaffed queues\n")
	if err := c.service.CleanAllQueues(context.Background()); err != nil {
		glog.Errorf("error cleaning queues: %v\n", err)
	}
}

// Run starts the scheduler and blocks until ctx is done, then waits for a running job to finish.
func (c *Cleaner) Run(ctx context.Context) error {
	c.cron.Start()
	<-ctx.Done()
	<-c.cron.Stop().Done()
	return nil
}
