package services

import (
	"context"
	"time"

	"civicpulse-be/models"

	"github.com/robfig/cron/v3"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// weeklyResetSchedule fires at midnight every Sunday.
const weeklyResetSchedule = "0 0 * * 0"

// ResetStore is the persistence boundary for the weekly reset job.
type ResetStore interface {
	AllUsers(ctx context.Context) ([]models.User, error)
	ApplyWeeklyReset(ctx context.Context, id primitive.ObjectID, previousRank int) error
}

// WeeklyReset snapshots every user's current rank into previousRank and zeroes
// weeklyPoints once a week. Each user is updated atomically; the job as a
// whole is idempotent, so partial progress on failure is safe to rerun.
type WeeklyReset struct {
	users ResetStore
	cron  *cron.Cron
	log   *zap.Logger
}

func NewWeeklyReset(users ResetStore, log *zap.Logger) *WeeklyReset {
	return &WeeklyReset{
		users: users,
		cron:  cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger))),
		log:   log,
	}
}

// Start schedules the job. The cron runs outside the request path.
func (w *WeeklyReset) Start() error {
	_, err := w.cron.AddFunc(weeklyResetSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if err := w.Run(ctx); err != nil {
			w.log.Error("weekly leaderboard reset failed", zap.Error(err))
		}
	})
	if err != nil {
		return err
	}
	w.cron.Start()
	w.log.Info("weekly reset scheduler started", zap.String("schedule", weeklyResetSchedule))
	return nil
}

// Stop halts the scheduler and waits for a running job to finish.
func (w *WeeklyReset) Stop() {
	<-w.cron.Stop().Done()
}

// Run executes one reset over the current user set.
func (w *WeeklyReset) Run(ctx context.Context) error {
	users, err := w.users.AllUsers(ctx)
	if err != nil {
		return err
	}

	standings := ComputeStandings(users)
	for _, s := range standings {
		if err := w.users.ApplyWeeklyReset(ctx, s.User.ID, s.Rank); err != nil {
			return err
		}
	}

	w.log.Info("weekly leaderboard reset completed", zap.Int("users", len(standings)))
	return nil
}
