package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Dashboard 仪表盘数据
type Dashboard struct {
	Budgets   []Occurrence    `json:"budgets"`
	Totals    []CategoryTotal `json:"totals"`
	StartDate *time.Time      `json:"startDate"`
	EndDate   time.Time       `json:"endDate"`
}

// DashboardService 仪表盘查询服务
type DashboardService struct {
	aggregator *Aggregator
}

// NewDashboardService 创建仪表盘查询服务
func NewDashboardService(aggregator *Aggregator) *DashboardService {
	return &DashboardService{aggregator: aggregator}
}

// Get 并发查询列表与汇总，两者使用同一个已解析的窗口
func (s *DashboardService) Get(ctx context.Context, userID uuid.UUID, window Window) (*Dashboard, error) {
	w := s.aggregator.Resolve(window)

	var (
		budgets []Occurrence
		totals  []CategoryTotal
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		budgets, err = s.aggregator.List(gctx, userID, w)
		return err
	})
	g.Go(func() error {
		var err error
		totals, err = s.aggregator.Totals(gctx, userID, w)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Dashboard{
		Budgets:   budgets,
		Totals:    totals,
		StartDate: w.Start,
		EndDate:   *w.End,
	}, nil
}
