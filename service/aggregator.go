package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"cashflow/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrCategoryNotFound 条目引用的类别无法解析
var ErrCategoryNotFound = errors.New("类别不存在")

// BudgetStore 汇总所需的条目查询
type BudgetStore interface {
	ListOneOff(ctx context.Context, userID uuid.UUID, start *time.Time, upper time.Time) ([]models.Budget, error)
	ListRecurring(ctx context.Context, userID uuid.UUID, start *time.Time, upper time.Time) ([]models.Budget, error)
}

// CategoryStore 汇总所需的类别批量查询
type CategoryStore interface {
	FindByIDs(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) ([]models.Category, error)
}

// CategoryTotal 单个类别在窗口内的汇总
type CategoryTotal struct {
	CategoryID uuid.UUID       `json:"categoryId"`
	Name       string          `json:"name"`
	Color      string          `json:"color"`
	Earnings   decimal.Decimal `json:"earnings" swaggertype:"string"`
	Expenses   decimal.Decimal `json:"expenses" swaggertype:"string"`
	Cash       decimal.Decimal `json:"cash" swaggertype:"string"`
}

// Aggregator 合并一次性条目与周期展开结果，生成列表和类别汇总
type Aggregator struct {
	budgets    BudgetStore
	categories CategoryStore
	expander   *Expander
	now        func() time.Time
}

// NewAggregator 创建汇总器，now 为空时使用 time.Now
func NewAggregator(budgets BudgetStore, categories CategoryStore, now func() time.Time) *Aggregator {
	if now == nil {
		now = time.Now
	}
	return &Aggregator{
		budgets:    budgets,
		categories: categories,
		expander:   NewExpander(),
		now:        now,
	}
}

// Resolve 补全窗口：上界为空时取当前时间
func (a *Aggregator) Resolve(window Window) Window {
	resolved := Window{}
	if window.Start != nil {
		start := window.Start.UTC()
		resolved.Start = &start
	}
	end := a.now().UTC()
	if window.End != nil {
		end = window.End.UTC()
	}
	resolved.End = &end
	return resolved
}

// List 窗口内的一次性条目与周期发生记录，按日期升序，同日按键排序
func (a *Aggregator) List(ctx context.Context, userID uuid.UUID, window Window) ([]Occurrence, error) {
	items, err := a.collect(ctx, userID, window)
	if err != nil {
		return nil, err
	}

	categories, err := a.lookupCategories(ctx, userID, items)
	if err != nil {
		return nil, err
	}
	for i := range items {
		cat, ok := categories[items[i].CategoryID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrCategoryNotFound, items[i].CategoryID)
		}
		items[i].Category = &cat
	}

	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].OccurrenceDate.Equal(items[j].OccurrenceDate) {
			return items[i].OccurrenceDate.Before(items[j].OccurrenceDate)
		}
		return items[i].Key < items[j].Key
	})
	return items, nil
}

// Totals 按类别汇总收入、支出与结余
// 排序：结余降序，名称（不区分大小写）升序，类别 ID 升序
func (a *Aggregator) Totals(ctx context.Context, userID uuid.UUID, window Window) ([]CategoryTotal, error) {
	items, err := a.collect(ctx, userID, window)
	if err != nil {
		return nil, err
	}

	categories, err := a.lookupCategories(ctx, userID, items)
	if err != nil {
		return nil, err
	}

	buckets := make(map[uuid.UUID]*CategoryTotal)
	for _, item := range items {
		bucket, ok := buckets[item.CategoryID]
		if !ok {
			cat, found := categories[item.CategoryID]
			if !found {
				return nil, fmt.Errorf("%w: %s", ErrCategoryNotFound, item.CategoryID)
			}
			bucket = &CategoryTotal{
				CategoryID: cat.ID,
				Name:       cat.Name,
				Color:      cat.Color,
				Earnings:   decimal.Zero,
				Expenses:   decimal.Zero,
				Cash:       decimal.Zero,
			}
			buckets[item.CategoryID] = bucket
		}

		switch item.Type {
		case models.BudgetTypeInput:
			bucket.Earnings = bucket.Earnings.Add(item.Amount)
			bucket.Cash = bucket.Cash.Add(item.Amount)
		case models.BudgetTypeOutput:
			bucket.Expenses = bucket.Expenses.Add(item.Amount)
			bucket.Cash = bucket.Cash.Sub(item.Amount)
		default:
			return nil, fmt.Errorf("条目 %s 的收支类型无效: %q", item.SourceID, item.Type)
		}
	}

	totals := make([]CategoryTotal, 0, len(buckets))
	for _, bucket := range buckets {
		totals = append(totals, *bucket)
	}
	SortTotals(totals)
	return totals, nil
}

// SortTotals 结余降序，名称不区分大小写升序，类别 ID 升序
func SortTotals(totals []CategoryTotal) {
	sort.Slice(totals, func(i, j int) bool {
		if c := totals[i].Cash.Cmp(totals[j].Cash); c != 0 {
			return c > 0
		}
		ni, nj := strings.ToLower(totals[i].Name), strings.ToLower(totals[j].Name)
		if ni != nj {
			return ni < nj
		}
		return totals[i].CategoryID.String() < totals[j].CategoryID.String()
	})
}

// collect 拉取窗口内的一次性条目，并展开周期条目
func (a *Aggregator) collect(ctx context.Context, userID uuid.UUID, window Window) ([]Occurrence, error) {
	now := a.now().UTC()
	w := a.Resolve(window)

	oneOff, err := a.budgets.ListOneOff(ctx, userID, w.Start, *w.End)
	if err != nil {
		return nil, fmt.Errorf("查询一次性条目失败: %w", err)
	}
	recurring, err := a.budgets.ListRecurring(ctx, userID, w.Start, *w.End)
	if err != nil {
		return nil, fmt.Errorf("查询周期条目失败: %w", err)
	}

	items := make([]Occurrence, 0, len(oneOff)+len(recurring))
	for _, b := range oneOff {
		// 存储层只做粗过滤，这里再按窗口精确过滤
		if b.CycleID != nil || !w.Contains(b.Day) {
			continue
		}
		items = append(items, singleOccurrence(b))
	}
	for _, b := range recurring {
		items = append(items, a.expander.Expand(b, w, now)...)
	}
	return items, nil
}

// lookupCategories 一次批量查询所有涉及的类别
func (a *Aggregator) lookupCategories(ctx context.Context, userID uuid.UUID, items []Occurrence) (map[uuid.UUID]models.Category, error) {
	seen := make(map[uuid.UUID]struct{})
	ids := make([]uuid.UUID, 0)
	for _, item := range items {
		if _, ok := seen[item.CategoryID]; ok {
			continue
		}
		seen[item.CategoryID] = struct{}{}
		ids = append(ids, item.CategoryID)
	}

	result := make(map[uuid.UUID]models.Category, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	list, err := a.categories.FindByIDs(ctx, userID, ids)
	if err != nil {
		return nil, fmt.Errorf("查询类别失败: %w", err)
	}
	for _, cat := range list {
		result[cat.ID] = cat
	}
	return result, nil
}
