package cron

import (
	"context"
	"errors"
	"testing"

	"github.com/fastfare/fastfare-backend/internal/settlement"
	"github.com/fastfare/fastfare-backend/pkg/logger"
)

type fakeSettlementProcessor struct {
	report *settlement.ProcessReport
	err    error
	calls  int
}

func (f *fakeSettlementProcessor) Process(ctx context.Context) (*settlement.ProcessReport, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.report, nil
}

func TestSettlementProcessJobRunsSweep(t *testing.T) {
	processor := &fakeSettlementProcessor{report: &settlement.ProcessReport{Completed: 4, Failed: 1}}
	job, err := NewSettlementProcessJob(SettlementProcessJobParams{
		Logger:     logger.New(logger.Options{ServiceName: "test"}),
		Settlement: processor,
	})
	if err != nil {
		t.Fatalf("NewSettlementProcessJob: %v", err)
	}

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if processor.calls != 1 {
		t.Fatalf("expected one sweep, got %d", processor.calls)
	}
}

func TestSettlementProcessJobPropagatesError(t *testing.T) {
	processor := &fakeSettlementProcessor{err: errors.New("db unavailable")}
	job, err := NewSettlementProcessJob(SettlementProcessJobParams{
		Logger:     logger.New(logger.Options{ServiceName: "test"}),
		Settlement: processor,
	})
	if err != nil {
		t.Fatalf("NewSettlementProcessJob: %v", err)
	}
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
