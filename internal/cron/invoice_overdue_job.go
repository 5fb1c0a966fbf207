package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/matthieuvidal/fermelink-backend/pkg/logger"
)

// InvoiceOverdueJobParams configures the overdue invoice sweep.
type InvoiceOverdueJobParams struct {
	Logger  *logger.Logger
	Sweeper invoiceSweeper
}

type invoiceSweeper interface {
	SweepOverdue(ctx context.Context, now time.Time) (int, error)
}

// NewInvoiceOverdueJob constructs the job that flips past-due invoices to
// overdue and queues the matching events.
func NewInvoiceOverdueJob(params InvoiceOverdueJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Sweeper == nil {
		return nil, fmt.Errorf("invoice sweeper required")
	}
	return &invoiceOverdueJob{
		logg:    params.Logger,
		sweeper: params.Sweeper,
		now:     time.Now,
	}, nil
}

type invoiceOverdueJob struct {
	logg    *logger.Logger
	sweeper invoiceSweeper
	now     func() time.Time
}

func (j *invoiceOverdueJob) Name() string { return "invoice-overdue" }

func (j *invoiceOverdueJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	flipped, err := j.sweeper.SweepOverdue(ctx, now)
	if err != nil {
		return fmt.Errorf("invoice overdue sweep: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"as_of":            now,
		"invoices_flipped": flipped,
	})
	j.logg.Info(logCtx, "invoice overdue sweep complete")
	return nil
}
