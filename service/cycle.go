package service

import (
	"fmt"
	"time"

	"cashflow/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// maxOccurrences 单个周期条目一次展开最多返回的发生次数
const maxOccurrences = 100000

// Window 查询窗口，两端均为闭区间，nil 表示该方向不设限
type Window struct {
	Start *time.Time
	End   *time.Time
}

// Contains 判断时间是否落在窗口内
func (w Window) Contains(t time.Time) bool {
	if w.Start != nil && t.Before(*w.Start) {
		return false
	}
	if w.End != nil && t.After(*w.End) {
		return false
	}
	return true
}

// Occurrence 列表中的一条记录：一次性条目本身，或周期条目的某次发生
type Occurrence struct {
	models.Budget
	Key            string    `json:"key"`
	SourceID       uuid.UUID `json:"sourceId"`
	OccurrenceDate time.Time `json:"occurrenceDate"`
	Recurring      bool      `json:"recurring"`
}

// OccurrenceKey 周期发生的唯一键：<条目ID>&<毫秒时间戳>
func OccurrenceKey(id uuid.UUID, at time.Time) string {
	return fmt.Sprintf("%s&%d", id, at.UnixMilli())
}

// singleOccurrence 一次性条目，键为条目 ID
func singleOccurrence(b models.Budget) Occurrence {
	return Occurrence{
		Budget:         b,
		Key:            b.ID.String(),
		SourceID:       b.ID,
		OccurrenceDate: b.Day.UTC(),
	}
}

// stepFunc 返回锚点之后第 n 个周期的日期
type stepFunc func(anchor time.Time, n int) time.Time

// periodSteps 各周期单位对应的步进策略
var periodSteps = map[models.Period]stepFunc{
	models.PeriodDay: func(anchor time.Time, n int) time.Time {
		return anchor.AddDate(0, 0, n)
	},
	models.PeriodWeek: func(anchor time.Time, n int) time.Time {
		return anchor.AddDate(0, 0, 7*n)
	},
	models.PeriodMonth: func(anchor time.Time, n int) time.Time {
		return addMonthsClamped(anchor, n)
	},
	models.PeriodYear: func(anchor time.Time, n int) time.Time {
		return addMonthsClamped(anchor, 12*n)
	},
}

// addMonthsClamped 按自然月推进，目标月份没有锚点日时取该月最后一天
// 始终从锚点计算，1/31 -> 2/29 -> 3/31
func addMonthsClamped(anchor time.Time, months int) time.Time {
	year, month, day := anchor.Date()
	hour, minute, sec := anchor.Clock()
	target := time.Date(year, month+time.Month(months), 1, 0, 0, 0, 0, anchor.Location())
	if last := daysInMonth(target.Year(), target.Month()); day > last {
		day = last
	}
	return time.Date(target.Year(), target.Month(), day, hour, minute, sec, anchor.Nanosecond(), anchor.Location())
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Expander 周期展开器
type Expander struct{}

// NewExpander 创建周期展开器
func NewExpander() *Expander {
	return &Expander{}
}

// Expand 将周期条目展开为窗口内按时间升序的发生记录
// 生成上限：设置了周期截止日期时为截止日期（含），否则为 now（含）
func (e *Expander) Expand(entry models.Budget, window Window, now time.Time) []Occurrence {
	if entry.CycleID == nil || entry.Cycle == nil {
		return nil
	}

	step, ok := periodSteps[entry.Cycle.Period]
	if !ok {
		log.Warn().
			Str("budget_id", entry.ID.String()).
			Str("period", string(entry.Cycle.Period)).
			Msg("未知的周期单位，跳过展开")
		return nil
	}

	limit := now.UTC()
	if entry.Cycle.End != nil {
		limit = entry.Cycle.End.UTC()
	}

	anchor := entry.Day.UTC()
	n := 0
	if window.Start != nil {
		n = firstStepFrom(step, entry.Cycle.Period, anchor, window.Start.UTC())
	}

	var occurrences []Occurrence
	for ; ; n++ {
		at := step(anchor, n)
		if at.After(limit) {
			break
		}
		if window.End != nil && at.After(*window.End) {
			break
		}
		if !window.Contains(at) {
			continue
		}
		if len(occurrences) >= maxOccurrences {
			log.Warn().
				Str("budget_id", entry.ID.String()).
				Int("limit", maxOccurrences).
				Msg("周期展开次数达到上限")
			break
		}

		occurrences = append(occurrences, Occurrence{
			Budget:         entry,
			Key:            OccurrenceKey(entry.ID, at),
			SourceID:       entry.ID,
			OccurrenceDate: at,
			Recurring:      true,
		})
	}
	return occurrences
}

// firstStepFrom 返回第一个不早于 start 的步数
// 先按经过的天数或月数估算，再前后修正
func firstStepFrom(step stepFunc, period models.Period, anchor, start time.Time) int {
	if !start.After(anchor) {
		return 0
	}

	var n int
	switch period {
	case models.PeriodDay:
		n = int((start.Unix() - anchor.Unix()) / 86400)
	case models.PeriodWeek:
		n = int((start.Unix() - anchor.Unix()) / (7 * 86400))
	case models.PeriodMonth:
		n = monthsBetween(anchor, start)
	case models.PeriodYear:
		n = monthsBetween(anchor, start) / 12
	}

	for n > 0 && !step(anchor, n-1).Before(start) {
		n--
	}
	for step(anchor, n).Before(start) {
		n++
	}
	return n
}

func monthsBetween(from, to time.Time) int {
	return (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
}
