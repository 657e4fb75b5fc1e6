package api

import (
	"cashflow/middleware"
	"cashflow/service"

	"github.com/gin-gonic/gin"
)

// DashboardHandler 仪表盘与类别汇总
type DashboardHandler struct {
	dashboard  *service.DashboardService
	aggregator *service.Aggregator
}

// NewDashboardHandler 创建仪表盘处理器
func NewDashboardHandler(dashboard *service.DashboardService, aggregator *service.Aggregator) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard, aggregator: aggregator}
}

// Dashboard 窗口内的展开列表与类别汇总
// @Summary 获取仪表盘
// @Description 一次性条目与周期条目展开后的列表，以及按类别的收支汇总；endDate 缺省为当前时间
// @Tags 仪表盘
// @Produce json
// @Security CookieAuth
// @Param startDate query string false "开始日期 (2024-01-01)"
// @Param endDate query string false "结束日期 (2024-12-31)，仅日期时包含当天"
// @Success 200 {object} Response{data=service.Dashboard} "获取成功"
// @Failure 400 {object} Response{data=[]FieldError} "日期格式错误"
// @Router /api/dashboard [get]
func (h *DashboardHandler) Dashboard(c *gin.Context) {
	window, ok := bindWindow(c)
	if !ok {
		return
	}

	result, err := h.dashboard.Get(c.Request.Context(), middleware.GetCurrentUserID(c), window)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "查询仪表盘失败"))
		return
	}
	Success(c, result)
}

// Totals 按类别汇总
// @Summary 获取类别汇总
// @Description 按结余降序、名称升序排列
// @Tags 仪表盘
// @Produce json
// @Security CookieAuth
// @Param startDate query string false "开始日期 (2024-01-01)"
// @Param endDate query string false "结束日期 (2024-12-31)，仅日期时包含当天"
// @Success 200 {object} Response{data=[]service.CategoryTotal} "获取成功"
// @Failure 400 {object} Response{data=[]FieldError} "日期格式错误"
// @Router /api/totals [get]
func (h *DashboardHandler) Totals(c *gin.Context) {
	window, ok := bindWindow(c)
	if !ok {
		return
	}

	totals, err := h.aggregator.Totals(c.Request.Context(), middleware.GetCurrentUserID(c), window)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "查询类别汇总失败"))
		return
	}
	Success(c, totals)
}
