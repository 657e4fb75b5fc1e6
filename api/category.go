package api

import (
	"errors"
	"strings"

	"cashflow/middleware"
	"cashflow/models"
	"cashflow/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CategoryHandler 类别管理
type CategoryHandler struct {
	categories *repository.CategoryRepository
}

// NewCategoryHandler 创建类别处理器
func NewCategoryHandler(categories *repository.CategoryRepository) *CategoryHandler {
	return &CategoryHandler{categories: categories}
}

// CategoryRequest 类别新增/修改请求，id 为空表示新增
type CategoryRequest struct {
	ID    string `json:"id" binding:"omitempty,uuid" example:""`
	Name  string `json:"name" binding:"required,max=50" example:"工资"`
	Color string `json:"color" binding:"omitempty,max=7" example:"#22c55e"`
}

// List 列出当前用户的类别
// @Summary 获取类别列表
// @Tags 类别
// @Produce json
// @Security CookieAuth
// @Success 200 {object} Response{data=[]models.Category} "获取成功"
// @Failure 401 {object} Response "未登录"
// @Router /api/category [get]
func (h *CategoryHandler) List(c *gin.Context) {
	list, err := h.categories.List(c.Request.Context(), middleware.GetCurrentUserID(c))
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "查询类别失败"))
		return
	}
	Success(c, list)
}

// Upsert 新增或修改类别
// @Summary 新增或修改类别
// @Description id 为空时新增，否则修改；slug 由名称生成
// @Tags 类别
// @Accept json
// @Produce json
// @Security CookieAuth
// @Param request body CategoryRequest true "类别信息"
// @Success 200 {object} Response{data=models.Category} "保存成功"
// @Failure 400 {object} Response{data=[]FieldError} "请求参数错误"
// @Failure 404 {object} Response "类别不存在"
// @Router /api/category [post]
func (h *CategoryHandler) Upsert(c *gin.Context) {
	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BindFailed(c, err)
		return
	}

	var fields []FieldError
	if strings.TrimSpace(req.Name) == "" {
		fields = append(fields, FieldError{Field: "name", Message: "不能为空"})
	}
	if req.Color != "" && !models.IsValidColor(req.Color) {
		fields = append(fields, FieldError{Field: "color", Message: "颜色格式不正确，应为 #rgb 或 #rrggbb"})
	}
	if len(fields) > 0 {
		ValidationFailed(c, fields)
		return
	}

	in := repository.CategoryInput{Name: req.Name, Color: req.Color}
	if req.ID != "" {
		id := uuid.MustParse(req.ID)
		in.ID = &id
	}

	cat, err := h.categories.Upsert(c.Request.Context(), middleware.GetCurrentUserID(c), in)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "类别不存在")
			return
		}
		InternalError(c, SafeErrorMessage(err, "保存类别失败"))
		return
	}
	SuccessWithMessage(c, "保存成功", cat)
}

// Delete 删除类别
// @Summary 删除类别
// @Description 类别仍被记账条目引用时返回 409
// @Tags 类别
// @Produce json
// @Security CookieAuth
// @Param id path string true "类别 ID"
// @Success 200 {object} Response{data=models.Category} "删除成功"
// @Failure 404 {object} Response "类别不存在"
// @Failure 409 {object} Response "类别正在被记账条目使用"
// @Router /api/category/{id} [delete]
func (h *CategoryHandler) Delete(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	cat, err := h.categories.Delete(c.Request.Context(), middleware.GetCurrentUserID(c), id)
	switch {
	case err == nil:
		SuccessWithMessage(c, "删除成功", cat)
	case errors.Is(err, repository.ErrNotFound):
		NotFound(c, "类别不存在")
	case errors.Is(err, repository.ErrCategoryInUse):
		Conflict(c, repository.ErrCategoryInUse.Error())
	default:
		InternalError(c, SafeErrorMessage(err, "删除类别失败"))
	}
}
