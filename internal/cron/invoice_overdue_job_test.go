package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/matthieuvidal/fermelink-backend/pkg/logger"
)

func TestInvoiceOverdueJobSweepsAtCurrentTime(t *testing.T) {
	now := time.Date(2026, 2, 15, 6, 0, 0, 0, time.UTC)
	sweeper := &fakeInvoiceSweeper{flipped: 3}
	job := newInvoiceOverdueJob(t, sweeper)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if sweeper.called != 1 {
		t.Fatalf("expected sweeper called once, got %d", sweeper.called)
	}
	if !sweeper.lastNow.Equal(now) {
		t.Fatalf("expected sweep as of %s, got %s", now, sweeper.lastNow)
	}
}

func TestInvoiceOverdueJobPropagatesErrors(t *testing.T) {
	sweeper := &fakeInvoiceSweeper{err: errors.New("boom")}
	job := newInvoiceOverdueJob(t, sweeper)

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func newInvoiceOverdueJob(t *testing.T, sweeper *fakeInvoiceSweeper) *invoiceOverdueJob {
	t.Helper()
	jobIface, err := NewInvoiceOverdueJob(InvoiceOverdueJobParams{
		Logger:  logger.New(logger.Options{ServiceName: "test"}),
		Sweeper: sweeper,
	})
	if err != nil {
		t.Fatalf("NewInvoiceOverdueJob: %v", err)
	}
	job, ok := jobIface.(*invoiceOverdueJob)
	if !ok {
		t.Fatalf("expected invoiceOverdueJob, got %T", jobIface)
	}
	return job
}

type fakeInvoiceSweeper struct {
	lastNow time.Time
	flipped int
	err     error
	called  int
}

func (f *fakeInvoiceSweeper) SweepOverdue(ctx context.Context, now time.Time) (int, error) {
	f.called++
	f.lastNow = now
	if f.err != nil {
		return 0, f.err
	}
	return f.flipped, nil
}
