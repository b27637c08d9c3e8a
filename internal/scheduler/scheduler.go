package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// UserLister lists the users that receive a digest
type UserLister interface {
	ListUserIDs(ctx context.Context) ([]int64, error)
}

// DigestRunner builds and delivers one user's digest
type DigestRunner interface {
	RunDigest(ctx context.Context, userID int64) (int, error)
}

// Scheduler runs the insight digest for every user on a cron schedule
type Scheduler struct {
	cron   *cron.Cron
	users  UserLister
	digest DigestRunner
	log    *logrus.Logger
}

// New registers the digest job under schedule, a standard five-field cron expression
func New(schedule string, users UserLister, digest DigestRunner, log *logrus.Logger) (*Scheduler, error) {
	cronLogger := cron.PrintfLogger(log)
	s := &Scheduler{
		cron: cron.New(
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		users:  users,
		digest: digest,
		log:    log,
	}
	if _, err := s.cron.AddFunc(schedule, func() { s.RunOnce(context.Background()) }); err != nil {
		return nil, fmt.Errorf("failed to schedule digest %q: %w", schedule, err)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the schedule and waits for a running digest to finish
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// RunOnce runs the digest for all users. A failing user is logged and skipped.
func (s *Scheduler) RunOnce(ctx context.Context) {
	ids, err := s.users.ListUserIDs(ctx)
	if err != nil {
		s.log.Errorf("Failed to list users for digest: %v", err)
		return
	}

	sent, failed := 0, 0
	for _, id := range ids {
		if ctx.Err() != nil {
			s.log.Warnf("Digest interrupted: %v", ctx.Err())
			return
		}
		n, err := s.digest.RunDigest(ctx, id)
		if err != nil {
			failed++
			s.log.WithField("user_id", id).Errorf("Digest failed: %v", err)
			continue
		}
		sent += n
	}
	s.log.WithFields(logrus.Fields{
		"users":         len(ids),
		"failed":        failed,
		"notifications": sent,
	}).Info("Digest run finished")
}
