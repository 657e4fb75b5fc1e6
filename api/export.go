package api

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"

	"cashflow/middleware"
	"cashflow/repository"
	"cashflow/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	csvContentType   = "text/csv; charset=utf-8"
	excelContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ExportHandler 导出处理器
type ExportHandler struct {
	aggregator *service.Aggregator
	users      *repository.UserRepository
	email      *service.EmailService
}

// NewExportHandler 创建导出处理器
func NewExportHandler(aggregator *service.Aggregator, users *repository.UserRepository, email *service.EmailService) *ExportHandler {
	return &ExportHandler{aggregator: aggregator, users: users, email: email}
}

// ExportEmailRequest 邮件导出请求，email 为空时发送到注册邮箱
type ExportEmailRequest struct {
	Email     string `json:"email" binding:"omitempty,email" example:"alice@example.com"`
	StartDate string `json:"startDate" example:"2024-01-01"`
	EndDate   string `json:"endDate" example:"2024-12-31"`
}

// ExportCSV 导出展开后的记账列表为 CSV
// @Summary 导出 CSV
// @Description 导出窗口内一次性条目与周期发生记录
// @Tags 导出
// @Produce text/csv
// @Security CookieAuth
// @Param startDate query string false "开始日期 (2024-01-01)"
// @Param endDate query string false "结束日期 (2024-12-31)"
// @Success 200 {file} file "CSV 文件"
// @Failure 400 {object} Response{data=[]FieldError} "日期格式错误"
// @Router /api/export/csv [get]
func (h *ExportHandler) ExportCSV(c *gin.Context) {
	window, ok := bindWindow(c)
	if !ok {
		return
	}
	window = h.aggregator.Resolve(window)

	items, err := h.aggregator.List(c.Request.Context(), middleware.GetCurrentUserID(c), window)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "查询数据失败"))
		return
	}

	content, err := renderCSV(items)
	if err != nil {
		InternalError(c, "生成 CSV 失败")
		return
	}

	attachment(c, service.ReportFilename(window, "csv"), csvContentType, content)
}

// ExportExcel 导出记账列表与类别汇总为 Excel
// @Summary 导出 Excel
// @Description 包含记账明细与类别汇总两个工作表
// @Tags 导出
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security CookieAuth
// @Param startDate query string false "开始日期 (2024-01-01)"
// @Param endDate query string false "结束日期 (2024-12-31)"
// @Success 200 {file} file "Excel 文件"
// @Failure 400 {object} Response{data=[]FieldError} "日期格式错误"
// @Router /api/export/excel [get]
func (h *ExportHandler) ExportExcel(c *gin.Context) {
	window, ok := bindWindow(c)
	if !ok {
		return
	}
	window = h.aggregator.Resolve(window)

	report, err := h.buildReport(c, window)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "生成 Excel 失败"))
		return
	}

	attachment(c, report.Filename, excelContentType, report.Content)
}

// ExportEmail 将 Excel 报表发送到邮箱
// @Summary 邮件发送报表
// @Description 需要启用邮件服务
// @Tags 导出
// @Accept json
// @Produce json
// @Security CookieAuth
// @Param request body ExportEmailRequest true "收件人与时间范围"
// @Success 200 {object} Response "发送成功"
// @Failure 400 {object} Response{data=[]FieldError} "请求参数错误"
// @Failure 503 {object} Response "邮件服务未启用"
// @Router /api/export/email [post]
func (h *ExportHandler) ExportEmail(c *gin.Context) {
	if !h.email.Enabled() {
		Error(c, http.StatusServiceUnavailable, service.ErrEmailDisabled.Error())
		return
	}

	var req ExportEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BindFailed(c, err)
		return
	}

	var (
		window service.Window
		fields []FieldError
	)
	if req.StartDate != "" {
		t, err := parseDate(req.StartDate, false)
		if err != nil {
			fields = append(fields, FieldError{Field: "startDate", Message: "日期格式错误，应为 2006-01-02 或 RFC3339"})
		} else {
			window.Start = &t
		}
	}
	if req.EndDate != "" {
		t, err := parseDate(req.EndDate, true)
		if err != nil {
			fields = append(fields, FieldError{Field: "endDate", Message: "日期格式错误，应为 2006-01-02 或 RFC3339"})
		} else {
			window.End = &t
		}
	}
	if len(fields) > 0 {
		ValidationFailed(c, fields)
		return
	}
	window = h.aggregator.Resolve(window)

	user, err := h.users.FindByID(c.Request.Context(), middleware.GetCurrentUserID(c))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			Unauthorized(c, "用户不存在，请重新登录")
			return
		}
		InternalError(c, SafeErrorMessage(err, "查询用户失败"))
		return
	}

	to := req.Email
	if to == "" {
		to = user.Email
	}
	if to == "" {
		ValidationFailed(c, []FieldError{{Field: "email", Message: "未设置邮箱，请填写收件地址"}})
		return
	}

	report, err := h.buildReport(c, window)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "生成报表失败"))
		return
	}
	report.Nickname = user.Nickname

	if err := h.email.SendReport(to, *report); err != nil {
		log.Error().Err(err).Str("to", to).Msg("发送报表邮件失败")
		InternalError(c, SafeErrorMessage(err, "发送邮件失败"))
		return
	}
	SuccessWithMessage(c, "报表已发送至 "+to, nil)
}

// buildReport 并发查询列表与汇总并生成 Excel
func (h *ExportHandler) buildReport(c *gin.Context, window service.Window) (*service.Report, error) {
	userID := middleware.GetCurrentUserID(c)

	var (
		items  []service.Occurrence
		totals []service.CategoryTotal
	)
	g, ctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() error {
		var err error
		items, err = h.aggregator.List(ctx, userID, window)
		return err
	})
	g.Go(func() error {
		var err error
		totals, err = h.aggregator.Totals(ctx, userID, window)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	content, err := service.RenderReport(items, totals)
	if err != nil {
		return nil, err
	}
	return &service.Report{
		Period:   reportPeriod(window),
		Filename: service.ReportFilename(window, "xlsx"),
		Content:  content,
		Totals:   totals,
	}, nil
}

func reportPeriod(window service.Window) string {
	start := "最早"
	if window.Start != nil {
		start = window.Start.Format(dateLayout)
	}
	return fmt.Sprintf("%s ~ %s", start, window.End.Format(dateLayout))
}

func renderCSV(items []service.Occurrence) ([]byte, error) {
	buf := new(bytes.Buffer)
	// 添加 BOM 以支持 Excel 中文显示
	buf.WriteString("\xEF\xBB\xBF")

	writer := csv.NewWriter(buf)
	headers := []string{"日期", "标题", "类别", "类型", "金额", "周期", "描述", "键"}
	if err := writer.Write(headers); err != nil {
		return nil, err
	}

	for _, item := range items {
		category := ""
		if item.Category != nil {
			category = item.Category.Name
		}
		period := ""
		if item.Recurring && item.Cycle != nil {
			period = service.PeriodLabel(item.Cycle.Period)
		}
		row := []string{
			item.OccurrenceDate.Format(dateLayout),
			item.Title,
			category,
			service.TypeLabel(item.Type),
			item.Amount.StringFixed(2),
			period,
			item.Description,
			item.Key,
		}
		if err := writer.Write(row); err != nil {
			return nil, err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func attachment(c *gin.Context, filename, contentType string, content []byte) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, contentType, content)
}
