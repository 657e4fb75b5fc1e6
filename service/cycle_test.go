package service

import (
	"strings"
	"testing"
	"time"

	"cashflow/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ptr[T any](v T) *T {
	return &v
}

func recurringBudget(day time.Time, period models.Period, end *time.Time) models.Budget {
	cycleID := uuid.New()
	return models.Budget{
		Model:   models.Model{ID: uuid.New()},
		Title:   "recurring",
		Day:     day,
		Type:    models.BudgetTypeOutput,
		CycleID: &cycleID,
		Cycle:   &models.Cycle{Model: models.Model{ID: cycleID}, Period: period, End: end},
	}
}

func occurrenceDates(occ []Occurrence) []time.Time {
	dates := make([]time.Time, 0, len(occ))
	for _, o := range occ {
		dates = append(dates, o.OccurrenceDate)
	}
	return dates
}

func TestExpand_MonthlyWithinWindow(t *testing.T) {
	b := recurringBudget(date(2024, 1, 15), models.PeriodMonth, nil)
	w := Window{Start: ptr(date(2024, 1, 1)), End: ptr(date(2024, 4, 1))}

	occ := NewExpander().Expand(b, w, date(2024, 6, 1))

	// 窗口闭区间，04-15 在窗口之外
	assert.Equal(t, []time.Time{date(2024, 1, 15), date(2024, 2, 15), date(2024, 3, 15)}, occurrenceDates(occ))
	for _, o := range occ {
		assert.True(t, o.Recurring)
		assert.Equal(t, b.ID, o.SourceID)
		assert.Equal(t, b.ID, o.ID)
	}
}

func TestExpand_CycleEndBeforeWindow(t *testing.T) {
	b := recurringBudget(date(2023, 1, 1), models.PeriodWeek, ptr(date(2023, 6, 1)))
	w := Window{Start: ptr(date(2024, 1, 1)), End: ptr(date(2024, 12, 31))}

	assert.Empty(t, NewExpander().Expand(b, w, date(2025, 1, 1)))
}

func TestExpand_MonthEndClamp(t *testing.T) {
	b := recurringBudget(date(2024, 1, 31), models.PeriodMonth, nil)

	occ := NewExpander().Expand(b, Window{}, date(2024, 5, 31))

	assert.Equal(t, []time.Time{
		date(2024, 1, 31),
		date(2024, 2, 29),
		date(2024, 3, 31),
		date(2024, 4, 30),
		date(2024, 5, 31),
	}, occurrenceDates(occ))
}

func TestExpand_LeapDayYearly(t *testing.T) {
	b := recurringBudget(date(2024, 2, 29), models.PeriodYear, nil)

	occ := NewExpander().Expand(b, Window{}, date(2029, 1, 1))

	assert.Equal(t, []time.Time{
		date(2024, 2, 29),
		date(2025, 2, 28),
		date(2026, 2, 28),
		date(2027, 2, 28),
		date(2028, 2, 29),
	}, occurrenceDates(occ))
}

func TestExpand_Weekly(t *testing.T) {
	b := recurringBudget(date(2024, 1, 1), models.PeriodWeek, nil)

	occ := NewExpander().Expand(b, Window{}, date(2024, 1, 29))

	assert.Equal(t, []time.Time{
		date(2024, 1, 1), date(2024, 1, 8), date(2024, 1, 15), date(2024, 1, 22), date(2024, 1, 29),
	}, occurrenceDates(occ))
}

func TestExpand_CycleEndIsInclusiveHardStop(t *testing.T) {
	b := recurringBudget(date(2024, 1, 1), models.PeriodDay, ptr(date(2024, 1, 5)))

	// now 在截止日期之后
	occ := NewExpander().Expand(b, Window{}, date(2024, 2, 1))
	assert.Len(t, occ, 5)
	assert.Equal(t, date(2024, 1, 5), occ[4].OccurrenceDate)

	// now 在截止日期之前，截止日期仍是生成上限
	occ = NewExpander().Expand(b, Window{End: ptr(date(2024, 1, 31))}, date(2024, 1, 3))
	assert.Len(t, occ, 5)
}

func TestExpand_OpenEndedStopsAtNow(t *testing.T) {
	b := recurringBudget(date(2024, 1, 1), models.PeriodDay, nil)

	occ := NewExpander().Expand(b, Window{}, time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC))

	assert.Equal(t, []time.Time{date(2024, 1, 1), date(2024, 1, 2), date(2024, 1, 3)}, occurrenceDates(occ))
}

func TestExpand_OldAnchorRecentWindow(t *testing.T) {
	e := NewExpander()
	w := Window{Start: ptr(date(2024, 1, 1)), End: ptr(date(2024, 1, 31))}
	now := date(2024, 2, 1)

	daily := e.Expand(recurringBudget(date(1700, 1, 1), models.PeriodDay, nil), w, now)
	require.Len(t, daily, 31)
	assert.Equal(t, date(2024, 1, 1), daily[0].OccurrenceDate)
	assert.Equal(t, date(2024, 1, 31), daily[30].OccurrenceDate)

	weekly := e.Expand(recurringBudget(date(1700, 1, 1), models.PeriodWeek, nil), w, now)
	assert.Equal(t, []time.Time{date(2024, 1, 5), date(2024, 1, 12), date(2024, 1, 19), date(2024, 1, 26)},
		occurrenceDates(weekly))

	// 月末锚点按月截断后仍从锚点计算
	monthly := e.Expand(recurringBudget(date(1700, 1, 31), models.PeriodMonth, nil),
		Window{Start: ptr(date(2024, 2, 1)), End: ptr(date(2024, 3, 31))}, date(2024, 6, 1))
	assert.Equal(t, []time.Time{date(2024, 2, 29), date(2024, 3, 31)}, occurrenceDates(monthly))

	yearly := e.Expand(recurringBudget(date(1704, 2, 29), models.PeriodYear, nil),
		Window{Start: ptr(date(2023, 1, 1)), End: ptr(date(2024, 12, 31))}, date(2025, 1, 1))
	assert.Equal(t, []time.Time{date(2023, 2, 28), date(2024, 2, 29)}, occurrenceDates(yearly))
}

func TestFirstStepFrom(t *testing.T) {
	anchor := date(2024, 1, 10)
	day := periodSteps[models.PeriodDay]

	assert.Equal(t, 0, firstStepFrom(day, models.PeriodDay, anchor, date(2024, 1, 1)))
	assert.Equal(t, 0, firstStepFrom(day, models.PeriodDay, anchor, anchor))
	assert.Equal(t, 5, firstStepFrom(day, models.PeriodDay, anchor, date(2024, 1, 15)))
	// 非整天的起点向后取整
	assert.Equal(t, 6, firstStepFrom(day, models.PeriodDay, anchor, date(2024, 1, 15).Add(time.Hour)))

	month := periodSteps[models.PeriodMonth]
	assert.Equal(t, 1, firstStepFrom(month, models.PeriodMonth, anchor, date(2024, 2, 10)))
	assert.Equal(t, 2, firstStepFrom(month, models.PeriodMonth, anchor, date(2024, 2, 11)))
}

func TestExpand_AnchorAfterNow(t *testing.T) {
	b := recurringBudget(date(2025, 1, 1), models.PeriodMonth, nil)
	assert.Empty(t, NewExpander().Expand(b, Window{}, date(2024, 1, 1)))
}

func TestExpand_NoCycleOrUnknownPeriod(t *testing.T) {
	e := NewExpander()

	oneOff := models.Budget{Model: models.Model{ID: uuid.New()}, Day: date(2024, 1, 1)}
	assert.Nil(t, e.Expand(oneOff, Window{}, date(2024, 6, 1)))

	unknown := recurringBudget(date(2024, 1, 1), models.Period("FORTNIGHT"), nil)
	assert.Nil(t, e.Expand(unknown, Window{}, date(2024, 6, 1)))
}

func TestExpand_KeysUnique(t *testing.T) {
	e := NewExpander()
	now := date(2024, 12, 31)
	seen := make(map[string]bool)

	for _, p := range models.Periods() {
		b := recurringBudget(date(2024, 1, 31), p, nil)
		for _, o := range e.Expand(b, Window{}, now) {
			assert.False(t, seen[o.Key], "duplicate key %s", o.Key)
			seen[o.Key] = true

			parts := strings.Split(o.Key, "&")
			require.Len(t, parts, 2)
			assert.Equal(t, b.ID.String(), parts[0])
		}
	}
	assert.NotEmpty(t, seen)
}

func TestOccurrenceKey(t *testing.T) {
	id := uuid.MustParse("65392deb-5e92-4268-b114-297faad6cdce")
	assert.Equal(t, "65392deb-5e92-4268-b114-297faad6cdce&1704067200000", OccurrenceKey(id, date(2024, 1, 1)))
}

func TestAddMonthsClamped(t *testing.T) {
	anchor := time.Date(2023, 10, 31, 9, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2023, 11, 30, 9, 30, 0, 0, time.UTC), addMonthsClamped(anchor, 1))
	assert.Equal(t, time.Date(2024, 2, 29, 9, 30, 0, 0, time.UTC), addMonthsClamped(anchor, 4))
	assert.Equal(t, time.Date(2023, 9, 30, 9, 30, 0, 0, time.UTC), addMonthsClamped(anchor, -1))
}

func TestWindow_Contains(t *testing.T) {
	w := Window{Start: ptr(date(2024, 1, 1)), End: ptr(date(2024, 1, 31))}
	assert.True(t, w.Contains(date(2024, 1, 1)))
	assert.True(t, w.Contains(date(2024, 1, 31)))
	assert.False(t, w.Contains(date(2023, 12, 31)))
	assert.False(t, w.Contains(date(2024, 2, 1)))
	assert.True(t, Window{}.Contains(date(1970, 1, 1)))
}
