package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/zerofy/zerofy-backend/pkg/logger"
)

type subscriptionExpirer interface {
	ExpireDue(ctx context.Context, now time.Time) (int64, error)
}

// SubscriptionExpiryJobParams configures the plan expiry sweep.
type SubscriptionExpiryJobParams struct {
	Logger  *logger.Logger
	Tariffs subscriptionExpirer
}

// NewSubscriptionExpiryJob constructs the job that marks overdue trials and
// paid subscriptions as expired.
func NewSubscriptionExpiryJob(params SubscriptionExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Tariffs == nil {
		return nil, fmt.Errorf("tariff service required")
	}
	return &subscriptionExpiryJob{
		logg:    params.Logger,
		tariffs: params.Tariffs,
		now:     time.Now,
	}, nil
}

type subscriptionExpiryJob struct {
	logg    *logger.Logger
	tariffs subscriptionExpirer
	now     func() time.Time
}

func (j *subscriptionExpiryJob) Name() string { return "subscription-expiry" }

func (j *subscriptionExpiryJob) Run(ctx context.Context) error {
	expired, err := j.tariffs.ExpireDue(ctx, j.now().UTC())
	if err != nil {
		return fmt.Errorf("expire due subscriptions: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{"expired": expired})
	j.logg.Info(logCtx, "subscription expiry sweep complete")
	return nil
}
