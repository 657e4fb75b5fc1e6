package api

import (
	"errors"

	"cashflow/middleware"
	"cashflow/models"
	"cashflow/repository"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// AuthHandler 认证处理器
type AuthHandler struct {
	users    *repository.UserRepository
	sessions *middleware.SessionManager
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(users *repository.UserRepository, sessions *middleware.SessionManager) *AuthHandler {
	return &AuthHandler{users: users, sessions: sessions}
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	Nickname string `json:"nickname" binding:"required,min=3,max=50" example:"alice"`
	Password string `json:"password" binding:"required,min=6,max=72" example:"password123"`
	Email    string `json:"email" binding:"omitempty,email" example:"alice@example.com"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Nickname string `json:"nickname" binding:"required" example:"alice"`
	Password string `json:"password" binding:"required" example:"password123"`
}

// LoginResponse 登录响应，令牌同时写入 httpOnly cookie
type LoginResponse struct {
	Token    string      `json:"token"`
	UserInfo models.User `json:"user_info"`
}

// Register 用户注册
// @Summary 用户注册
// @Description 创建新用户并直接登录
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "注册信息"
// @Success 200 {object} Response{data=LoginResponse} "注册成功"
// @Failure 400 {object} Response{data=[]FieldError} "请求参数错误"
// @Failure 409 {object} Response "昵称已被使用"
// @Router /api/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BindFailed(c, err)
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		InternalError(c, "密码加密失败")
		return
	}

	user := models.User{
		Nickname: req.Nickname,
		Password: string(hashedPassword),
		Email:    req.Email,
	}
	if err := h.users.Create(c.Request.Context(), &user); err != nil {
		if errors.Is(err, repository.ErrNicknameTaken) {
			Conflict(c, repository.ErrNicknameTaken.Error())
			return
		}
		InternalError(c, SafeErrorMessage(err, "创建用户失败"))
		return
	}

	h.startSession(c, "注册成功", user)
}

// Login 用户登录
// @Summary 用户登录
// @Description 校验昵称与密码，写入会话 cookie
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body LoginRequest true "登录信息"
// @Success 200 {object} Response{data=LoginResponse} "登录成功"
// @Failure 400 {object} Response{data=[]FieldError} "请求参数错误"
// @Failure 401 {object} Response "昵称或密码错误"
// @Failure 429 {object} Response "登录尝试过于频繁"
// @Router /api/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BindFailed(c, err)
		return
	}

	user, err := h.users.FindByNickname(c.Request.Context(), req.Nickname)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			Unauthorized(c, "昵称或密码错误")
			return
		}
		InternalError(c, SafeErrorMessage(err, "登录失败"))
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		Unauthorized(c, "昵称或密码错误")
		return
	}

	h.startSession(c, "登录成功", *user)
}

// Logout 退出登录
// @Summary 退出登录
// @Description 清除会话 cookie
// @Tags 认证
// @Produce json
// @Success 200 {object} Response "退出成功"
// @Router /api/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	h.sessions.ClearCookie(c)
	SuccessWithMessage(c, "退出成功", nil)
}

// Session 获取当前登录用户
// @Summary 获取当前会话
// @Description 返回当前登录用户信息
// @Tags 认证
// @Produce json
// @Security CookieAuth
// @Success 200 {object} Response{data=models.User} "获取成功"
// @Failure 401 {object} Response "未登录"
// @Router /api/session [get]
func (h *AuthHandler) Session(c *gin.Context) {
	user, err := h.users.FindByID(c.Request.Context(), middleware.GetCurrentUserID(c))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// 令牌有效但用户已不存在
			h.sessions.ClearCookie(c)
			Unauthorized(c, "用户不存在，请重新登录")
			return
		}
		InternalError(c, SafeErrorMessage(err, "查询用户失败"))
		return
	}
	Success(c, user)
}

func (h *AuthHandler) startSession(c *gin.Context, message string, user models.User) {
	token, err := h.sessions.GenerateToken(user.ID, user.Nickname)
	if err != nil {
		InternalError(c, "生成 token 失败")
		return
	}
	h.sessions.SetCookie(c, token)
	SuccessWithMessage(c, message, LoginResponse{
		Token:    token,
		UserInfo: user,
	})
}
