package scheduler

import (
	"context"
	"log"

	"github.com/robfig/cron/v3"
)

// Runner is anything that can execute a pipeline run.
type Runner interface {
	Run(ctx context.Context)
}

type Scheduler struct {
	cron   *cron.Cron
	runner Runner
	spec   string
}

func New(spec string, runner Runner) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		runner: runner,
		spec:   spec,
	}
}

func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.spec, func() {
		log.Printf("scheduled scrape triggered")
		go s.runner.Run(context.Background())
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
