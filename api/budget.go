package api

import (
	"errors"
	"fmt"

	"cashflow/middleware"
	"cashflow/models"
	"cashflow/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BudgetHandler 记账条目管理
type BudgetHandler struct {
	budgets     *repository.BudgetRepository
	amountLimit decimal.Decimal
}

// NewBudgetHandler 创建记账条目处理器，amountLimit 为单笔金额上限
func NewBudgetHandler(budgets *repository.BudgetRepository, amountLimit decimal.Decimal) *BudgetHandler {
	return &BudgetHandler{budgets: budgets, amountLimit: amountLimit}
}

// CycleRequest 周期参数，end 为空表示无限重复
type CycleRequest struct {
	Period models.Period `json:"period" binding:"required" example:"MONTH"`
	End    string        `json:"end" example:"2024-12-31"`
}

// BudgetRequest 记账条目新增/修改请求，id 为空表示新增，cycle 为空表示一次性条目
type BudgetRequest struct {
	ID          string            `json:"id" binding:"omitempty,uuid"`
	Title       string            `json:"title" binding:"required,max=100" example:"工资"`
	Description string            `json:"description" binding:"max=255"`
	Amount      decimal.Decimal   `json:"amount" swaggertype:"string" example:"1000.00"`
	Day         string            `json:"day" binding:"required" example:"2024-01-01"`
	Type        models.BudgetType `json:"type" binding:"required" example:"INPUT"`
	CategoryID  string            `json:"categoryId" binding:"required,uuid"`
	Cycle       *CycleRequest     `json:"cycle"`
}

// toInput 校验请求并转换为存储参数
func (r *BudgetRequest) toInput(amountLimit decimal.Decimal) (repository.BudgetInput, []FieldError) {
	var (
		in     repository.BudgetInput
		fields []FieldError
	)

	if r.ID != "" {
		id := uuid.MustParse(r.ID)
		in.ID = &id
	}
	in.Title = r.Title
	in.Description = r.Description
	in.CategoryID = uuid.MustParse(r.CategoryID)

	switch {
	case !r.Amount.IsPositive():
		fields = append(fields, FieldError{Field: "amount", Message: "金额必须大于 0"})
	case r.Amount.GreaterThan(amountLimit):
		fields = append(fields, FieldError{Field: "amount", Message: fmt.Sprintf("金额不能超过 %s", amountLimit.String())})
	default:
		in.Amount = r.Amount.Round(2)
	}

	if !r.Type.Valid() {
		fields = append(fields, FieldError{Field: "type", Message: "收支类型必须为 INPUT 或 OUTPUT"})
	}
	in.Type = r.Type

	day, err := parseDate(r.Day, false)
	if err != nil {
		fields = append(fields, FieldError{Field: "day", Message: "日期格式错误，应为 2006-01-02 或 RFC3339"})
	}
	in.Day = day

	if r.Cycle != nil {
		cycle := &repository.CycleInput{Period: r.Cycle.Period}
		if !r.Cycle.Period.Valid() {
			fields = append(fields, FieldError{Field: "cycle.period", Message: "周期必须为 DAY、WEEK、MONTH 或 YEAR"})
		}
		if r.Cycle.End != "" {
			end, err := parseDate(r.Cycle.End, false)
			switch {
			case err != nil:
				fields = append(fields, FieldError{Field: "cycle.end", Message: "日期格式错误，应为 2006-01-02 或 RFC3339"})
			case !day.IsZero() && !end.After(day):
				fields = append(fields, FieldError{Field: "cycle.end", Message: "结束日期必须晚于起始日期"})
			default:
				cycle.End = &end
			}
		}
		in.Cycle = cycle
	}

	return in, fields
}

// List 列出条目定义（不展开周期）
// @Summary 获取记账条目列表
// @Description 返回日期落在窗口内的条目定义，周期条目不展开
// @Tags 记账条目
// @Produce json
// @Security CookieAuth
// @Param startDate query string false "开始日期 (2024-01-01)"
// @Param endDate query string false "结束日期 (2024-12-31)，仅日期时包含当天"
// @Success 200 {object} Response{data=[]models.Budget} "获取成功"
// @Failure 400 {object} Response{data=[]FieldError} "日期格式错误"
// @Router /api/budget [get]
func (h *BudgetHandler) List(c *gin.Context) {
	window, ok := bindWindow(c)
	if !ok {
		return
	}

	list, err := h.budgets.List(c.Request.Context(), middleware.GetCurrentUserID(c), window.Start, window.End)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "查询记账条目失败"))
		return
	}
	Success(c, list)
}

// Get 获取单个条目
// @Summary 获取记账条目
// @Tags 记账条目
// @Produce json
// @Security CookieAuth
// @Param id path string true "条目 ID"
// @Success 200 {object} Response{data=models.Budget} "获取成功"
// @Failure 404 {object} Response "条目不存在"
// @Router /api/budget/{id} [get]
func (h *BudgetHandler) Get(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	budget, err := h.budgets.Find(c.Request.Context(), middleware.GetCurrentUserID(c), id)
	if err != nil {
		h.handleError(c, err, "查询记账条目失败")
		return
	}
	Success(c, budget)
}

// Upsert 新增或修改条目
// @Summary 新增或修改记账条目
// @Description id 为空时新增；cycle 为空时为一次性条目，修改时去掉 cycle 会删除原周期
// @Tags 记账条目
// @Accept json
// @Produce json
// @Security CookieAuth
// @Param request body BudgetRequest true "条目信息"
// @Success 200 {object} Response{data=models.Budget} "保存成功"
// @Failure 400 {object} Response{data=[]FieldError} "请求参数错误"
// @Failure 404 {object} Response "条目不存在"
// @Router /api/budget [post]
func (h *BudgetHandler) Upsert(c *gin.Context) {
	var req BudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BindFailed(c, err)
		return
	}

	in, fields := req.toInput(h.amountLimit)
	if len(fields) > 0 {
		ValidationFailed(c, fields)
		return
	}

	budget, err := h.budgets.Upsert(c.Request.Context(), middleware.GetCurrentUserID(c), in)
	if err != nil {
		h.handleError(c, err, "保存记账条目失败")
		return
	}
	SuccessWithMessage(c, "保存成功", budget)
}

// Delete 删除条目及其周期
// @Summary 删除记账条目
// @Tags 记账条目
// @Produce json
// @Security CookieAuth
// @Param id path string true "条目 ID"
// @Success 200 {object} Response{data=models.Budget} "删除成功"
// @Failure 404 {object} Response "条目不存在"
// @Router /api/budget/{id} [delete]
func (h *BudgetHandler) Delete(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	budget, err := h.budgets.Delete(c.Request.Context(), middleware.GetCurrentUserID(c), id)
	if err != nil {
		h.handleError(c, err, "删除记账条目失败")
		return
	}
	SuccessWithMessage(c, "删除成功", budget)
}

func (h *BudgetHandler) handleError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		NotFound(c, "记账条目不存在")
	case errors.Is(err, repository.ErrInvalidCategory):
		ValidationFailed(c, []FieldError{{Field: "categoryId", Message: repository.ErrInvalidCategory.Error()}})
	default:
		InternalError(c, SafeErrorMessage(err, fallback))
	}
}
