package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fastfare/fastfare-backend/pkg/logger"
)

type fakeStuckSweeper struct {
	threshold time.Duration
	requeued  int
	err       error
}

func (f *fakeStuckSweeper) SweepStuck(ctx context.Context, threshold time.Duration) (int, error) {
	f.threshold = threshold
	return f.requeued, f.err
}

type fakeStuckAlerter struct {
	threshold time.Duration
	alerted   int
}

func (f *fakeStuckAlerter) AlertStuck(ctx context.Context, threshold time.Duration) (int, error) {
	f.threshold = threshold
	return f.alerted, nil
}

func TestStuckSweepJobUsesConfiguredThreshold(t *testing.T) {
	sweeper := &fakeStuckSweeper{requeued: 2}
	alerter := &fakeStuckAlerter{alerted: 1}
	job, err := NewStuckSweepJob(StuckSweepJobParams{
		Logger:      logger.New(logger.Options{ServiceName: "test"}),
		Settlement:  sweeper,
		Withdrawals: alerter,
		Threshold:   6 * time.Hour,
	})
	if err != nil {
		t.Fatalf("NewStuckSweepJob: %v", err)
	}

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sweeper.threshold != 6*time.Hour || alerter.threshold != 6*time.Hour {
		t.Fatalf("threshold not forwarded: %s / %s", sweeper.threshold, alerter.threshold)
	}
}

func TestStuckSweepJobDefaultsThreshold(t *testing.T) {
	sweeper := &fakeStuckSweeper{}
	job, err := NewStuckSweepJob(StuckSweepJobParams{
		Logger:      logger.New(logger.Options{ServiceName: "test"}),
		Settlement:  sweeper,
		Withdrawals: &fakeStuckAlerter{},
	})
	if err != nil {
		t.Fatalf("NewStuckSweepJob: %v", err)
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sweeper.threshold != defaultStuckThreshold {
		t.Fatalf("expected default threshold, got %s", sweeper.threshold)
	}
}

func TestStuckSweepJobPropagatesError(t *testing.T) {
	job, err := NewStuckSweepJob(StuckSweepJobParams{
		Logger:      logger.New(logger.Options{ServiceName: "test"}),
		Settlement:  &fakeStuckSweeper{err: errors.New("db down")},
		Withdrawals: &fakeStuckAlerter{},
	})
	if err != nil {
		t.Fatalf("NewStuckSweepJob: %v", err)
	}
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestStuckSweepJobStillAlertsWhenSettlementSweepFails(t *testing.T) {
	alerter := &fakeStuckAlerter{alerted: 3}
	job, err := NewStuckSweepJob(StuckSweepJobParams{
		Logger:      logger.New(logger.Options{ServiceName: "test"}),
		Settlement:  &fakeStuckSweeper{err: errors.New("db down")},
		Withdrawals: alerter,
		Threshold:   time.Hour,
	})
	if err != nil {
		t.Fatalf("NewStuckSweepJob: %v", err)
	}
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if alerter.threshold != time.Hour {
		t.Fatal("withdrawal sweep skipped after settlement failure")
	}
}
