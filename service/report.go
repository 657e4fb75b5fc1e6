package service

import (
	"bytes"
	"fmt"

	"cashflow/models"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	// SheetBudgets 明细工作表
	SheetBudgets = "记账明细"
	// SheetTotals 汇总工作表
	SheetTotals = "类别汇总"

	reportDateFormat = "2006-01-02"
)

var (
	budgetHeaders = []string{"日期", "标题", "类别", "类型", "金额", "周期", "描述"}
	totalHeaders  = []string{"类别", "收入", "支出", "结余"}
)

// TypeLabel 收支类型的中文名称
func TypeLabel(t models.BudgetType) string {
	switch t {
	case models.BudgetTypeInput:
		return "收入"
	case models.BudgetTypeOutput:
		return "支出"
	}
	return string(t)
}

// PeriodLabel 周期单位的中文名称
func PeriodLabel(p models.Period) string {
	switch p {
	case models.PeriodDay:
		return "每天"
	case models.PeriodWeek:
		return "每周"
	case models.PeriodMonth:
		return "每月"
	case models.PeriodYear:
		return "每年"
	}
	return string(p)
}

// ReportFilename 报表文件名
func ReportFilename(window Window, ext string) string {
	start := "all"
	if window.Start != nil {
		start = window.Start.Format(reportDateFormat)
	}
	end := "now"
	if window.End != nil {
		end = window.End.Format(reportDateFormat)
	}
	return fmt.Sprintf("cashflow_%s_%s.%s", start, end, ext)
}

// BuildReport 生成包含明细与类别汇总两个工作表的 Excel
func BuildReport(items []Occurrence, totals []CategoryTotal) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", SheetBudgets); err != nil {
		f.Close()
		return nil, err
	}
	if _, err := f.NewSheet(SheetTotals); err != nil {
		f.Close()
		return nil, err
	}

	styles, err := newReportStyles(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	if err := writeBudgetSheet(f, styles, items); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeTotalsSheet(f, styles, totals); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

// RenderReport 生成 Excel 并返回文件内容
func RenderReport(items []Occurrence, totals []CategoryTotal) ([]byte, error) {
	f, err := BuildReport(items, totals)
	if err != nil {
		return nil, fmt.Errorf("生成 Excel 失败: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("写入 Excel 失败: %w", err)
	}
	return buf.Bytes(), nil
}

type reportStyles struct {
	header  int
	data    int
	summary int
}

func newReportStyles(f *excelize.File) (*reportStyles, error) {
	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
	}

	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 12, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4F81BD"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    border,
	})
	if err != nil {
		return nil, err
	}
	data, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    border,
	})
	if err != nil {
		return nil, err
	}
	summary, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"FFC000"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    border,
	})
	if err != nil {
		return nil, err
	}
	return &reportStyles{header: header, data: data, summary: summary}, nil
}

func writeHeaders(f *excelize.File, sheet string, headers []string, style int) error {
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	return f.SetCellStyle(sheet, "A1", last, style)
}

func writeBudgetSheet(f *excelize.File, styles *reportStyles, items []Occurrence) error {
	sheet := SheetBudgets
	widths := map[string]float64{"A": 12, "B": 24, "C": 14, "D": 8, "E": 14, "F": 8, "G": 30}
	for col, w := range widths {
		if err := f.SetColWidth(sheet, col, col, w); err != nil {
			return err
		}
	}
	if err := writeHeaders(f, sheet, budgetHeaders, styles.header); err != nil {
		return err
	}

	var earnings, expenses decimal.Decimal
	for i, item := range items {
		row := i + 2
		category := ""
		if item.Category != nil {
			category = item.Category.Name
		}
		period := ""
		if item.Recurring && item.Cycle != nil {
			period = PeriodLabel(item.Cycle.Period)
		}
		values := []interface{}{
			item.OccurrenceDate.Format(reportDateFormat),
			item.Title,
			category,
			TypeLabel(item.Type),
			item.Amount.InexactFloat64(),
			period,
			item.Description,
		}
		if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", row), &values); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("G%d", row), styles.data); err != nil {
			return err
		}

		if item.Type == models.BudgetTypeInput {
			earnings = earnings.Add(item.Amount)
		} else {
			expenses = expenses.Add(item.Amount)
		}
	}

	// 汇总行
	summaryRow := len(items) + 2
	summary := []interface{}{
		"合计",
		fmt.Sprintf("共 %d 条记录", len(items)),
		"",
		"结余",
		earnings.Sub(expenses).InexactFloat64(),
	}
	if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", summaryRow), &summary); err != nil {
		return err
	}
	return f.SetCellStyle(sheet, fmt.Sprintf("A%d", summaryRow), fmt.Sprintf("G%d", summaryRow), styles.summary)
}

func writeTotalsSheet(f *excelize.File, styles *reportStyles, totals []CategoryTotal) error {
	sheet := SheetTotals
	if err := f.SetColWidth(sheet, "A", "A", 20); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "B", "D", 14); err != nil {
		return err
	}
	if err := writeHeaders(f, sheet, totalHeaders, styles.header); err != nil {
		return err
	}

	var earnings, expenses, cash decimal.Decimal
	for i, t := range totals {
		row := i + 2
		values := []interface{}{
			t.Name,
			t.Earnings.InexactFloat64(),
			t.Expenses.InexactFloat64(),
			t.Cash.InexactFloat64(),
		}
		if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", row), &values); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("D%d", row), styles.data); err != nil {
			return err
		}
		earnings = earnings.Add(t.Earnings)
		expenses = expenses.Add(t.Expenses)
		cash = cash.Add(t.Cash)
	}

	summaryRow := len(totals) + 2
	summary := []interface{}{
		"合计",
		earnings.InexactFloat64(),
		expenses.InexactFloat64(),
		cash.InexactFloat64(),
	}
	if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", summaryRow), &summary); err != nil {
		return err
	}
	return f.SetCellStyle(sheet, fmt.Sprintf("A%d", summaryRow), fmt.Sprintf("D%d", summaryRow), styles.summary)
}
