package reports

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/meridian-erp/meridian-erp/internal/payroll"
)

// HeadcountSource exposes the active employee count.
type HeadcountSource interface {
	CountActive(ctx context.Context) (int, error)
}

// OrderSource exposes the sales order count.
type OrderSource interface {
	CountOrders(ctx context.Context) (int, error)
}

// RunSource exposes pay runs for aggregation.
type RunSource interface {
	ListRuns(ctx context.Context) ([]payroll.PayRun, error)
}

// Overview is the cross-module dashboard summary.
type Overview struct {
	ActiveEmployees  int `json:"activeEmployees"`
	SalesOrders      int `json:"salesOrders"`
	CompletedPayRuns int `json:"completedPayRuns"`
	DraftPayRuns     int `json:"draftPayRuns"`
}

// Service aggregates figures across modules.
type Service struct {
	headcount HeadcountSource
	orders    OrderSource
	runs      RunSource
}

// NewService constructs a Service.
func NewService(headcount HeadcountSource, orders OrderSource, runs RunSource) *Service {
	return &Service{headcount: headcount, orders: orders, runs: runs}
}

// Overview fans the three counts out concurrently and fails on the first
// source error.
func (s *Service) Overview(ctx context.Context) (*Overview, error) {
	var overview Overview
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		n, err := s.headcount.CountActive(ctx)
		if err != nil {
			return err
		}
		overview.ActiveEmployees = n
		return nil
	})
	g.Go(func() error {
		n, err := s.orders.CountOrders(ctx)
		if err != nil {
			return err
		}
		overview.SalesOrders = n
		return nil
	})
	g.Go(func() error {
		runs, err := s.runs.ListRuns(ctx)
		if err != nil {
			return err
		}
		var completed, draft int
		for _, run := range runs {
			switch run.Status {
			case payroll.RunStatusCompleted:
				completed++
			case payroll.RunStatusDraft:
				draft++
			}
		}
		overview.CompletedPayRuns = completed
		overview.DraftPayRuns = draft
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &overview, nil
}
