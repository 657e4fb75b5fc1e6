package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"cashflow/config"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// ContextUserID gin 上下文中的用户 ID
	ContextUserID = "userID"
	// ContextNickname gin 上下文中的用户昵称
	ContextNickname = "nickname"
)

// Claims 会话令牌载荷
type Claims struct {
	UserID   uuid.UUID `json:"uid"`
	Nickname string    `json:"nickname"`
	jwt.RegisteredClaims
}

// SessionManager 负责签发、校验会话令牌，令牌保存在 httpOnly cookie 中
type SessionManager struct {
	secret     []byte
	cookieName string
	ttl        time.Duration
	secure     bool
}

// NewSessionManager 根据配置创建会话管理器
func NewSessionManager(cfg *config.Config) *SessionManager {
	ttl := cfg.JWT.ExpireTime
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	name := cfg.JWT.CookieName
	if name == "" {
		name = "cashflow-auth"
	}
	return &SessionManager{
		secret:     []byte(cfg.JWT.Secret),
		cookieName: name,
		ttl:        ttl,
		// release 模式下仅允许 HTTPS 传输
		secure: cfg.Server.Mode == "release",
	}
}

// CookieName 会话 cookie 名称
func (m *SessionManager) CookieName() string {
	return m.cookieName
}

// GenerateToken 签发会话令牌
func (m *SessionManager) GenerateToken(userID uuid.UUID, nickname string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   userID,
		Nickname: nickname,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// ParseToken 校验并解析会话令牌
func (m *SessionManager) ParseToken(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, errors.New("令牌为空")
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("不支持的签名算法: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == uuid.Nil {
		return nil, errors.New("无效的令牌")
	}
	return claims, nil
}

// SetCookie 写入会话 cookie
func (m *SessionManager) SetCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(m.cookieName, token, int(m.ttl.Seconds()), "/", "", m.secure, true)
}

// ClearCookie 清除会话 cookie
func (m *SessionManager) ClearCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(m.cookieName, "", -1, "/", "", m.secure, true)
}

// Auth 会话认证中间件，优先读取 cookie，其次读取 Authorization: Bearer
func (m *SessionManager) Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(m.cookieName)
		if err != nil || token == "" {
			token = bearerToken(c.GetHeader("Authorization"))
		}
		if token == "" {
			abortUnauthorized(c, "请先登录")
			return
		}

		claims, err := m.ParseToken(token)
		if err != nil {
			abortUnauthorized(c, "登录已失效，请重新登录")
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextNickname, claims.Nickname)
		c.Next()
	}
}

// GetCurrentUserID 获取当前登录用户 ID，未登录时返回 uuid.Nil
func GetCurrentUserID(c *gin.Context) uuid.UUID {
	if v, ok := c.Get(ContextUserID); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}

func bearerToken(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"code":    http.StatusUnauthorized,
		"message": message,
	})
}
