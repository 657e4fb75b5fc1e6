package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cashflow/config"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSessionManager() *SessionManager {
	return NewSessionManager(&config.Config{
		Server: config.ServerConfig{Mode: "debug"},
		JWT:    config.JWTConfig{Secret: "test-jwt-secret-key", ExpireTime: time.Hour, CookieName: "cashflow-auth"},
	})
}

func TestGenerateToken(t *testing.T) {
	m := newTestSessionManager()
	id := uuid.New()

	token, err := m.GenerateToken(id, "testuser")
	require.NoError(t, err)
	assert.Greater(t, len(token), 20)

	// 可解析
	claims, err := m.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, id, claims.UserID)
	assert.Equal(t, "testuser", claims.Nickname)
}

func TestParseToken(t *testing.T) {
	m := newTestSessionManager()

	// 空字符串
	_, err := m.ParseToken("")
	assert.Error(t, err)

	// 无效格式
	_, err = m.ParseToken("not.a.valid.jwt")
	assert.Error(t, err)

	// 其他密钥签发
	other := NewSessionManager(&config.Config{JWT: config.JWTConfig{Secret: "another-secret"}})
	foreign, err := other.GenerateToken(uuid.New(), "x")
	require.NoError(t, err)
	_, err = m.ParseToken(foreign)
	assert.Error(t, err)

	// 已过期
	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: uuid.New(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	s, err := expired.SignedString([]byte("test-jwt-secret-key"))
	require.NoError(t, err)
	_, err = m.ParseToken(s)
	assert.Error(t, err)
}

func TestSessionManager_Auth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := newTestSessionManager()

	router := gin.New()
	router.Use(m.Auth())
	router.GET("/protected", func(c *gin.Context) {
		c.String(200, "id:%s", GetCurrentUserID(c))
	})

	// 无 cookie
	req := httptest.NewRequest("GET", "/protected", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "401")

	// 无效 cookie
	req2 := httptest.NewRequest("GET", "/protected", nil)
	req2.AddCookie(&http.Cookie{Name: "cashflow-auth", Value: "garbage"})
	w2 := httptest.NewRecorder()
	router.ServeHTTP(w2, req2)
	assert.Equal(t, http.StatusUnauthorized, w2.Code)

	// 有效 cookie
	id := uuid.New()
	token, _ := m.GenerateToken(id, "user42")
	req3 := httptest.NewRequest("GET", "/protected", nil)
	req3.AddCookie(&http.Cookie{Name: "cashflow-auth", Value: token})
	w3 := httptest.NewRecorder()
	router.ServeHTTP(w3, req3)
	assert.Equal(t, 200, w3.Code)
	assert.Equal(t, "id:"+id.String(), w3.Body.String())

	// Bearer 令牌
	req4 := httptest.NewRequest("GET", "/protected", nil)
	req4.Header.Set("Authorization", "Bearer "+token)
	w4 := httptest.NewRecorder()
	router.ServeHTTP(w4, req4)
	assert.Equal(t, 200, w4.Code)

	// 格式错误（非 Bearer）
	req5 := httptest.NewRequest("GET", "/protected", nil)
	req5.Header.Set("Authorization", "Basic "+token)
	w5 := httptest.NewRecorder()
	router.ServeHTTP(w5, req5)
	assert.Equal(t, http.StatusUnauthorized, w5.Code)
}

func TestSessionManager_Cookies(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := newTestSessionManager()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	m.SetCookie(c, "abc")
	cookie := w.Header().Get("Set-Cookie")
	assert.Contains(t, cookie, "cashflow-auth=abc")
	assert.Contains(t, cookie, "HttpOnly")
	assert.Contains(t, cookie, "Max-Age=3600")
	assert.Contains(t, cookie, "SameSite=Lax")

	w2 := httptest.NewRecorder()
	c2, _ := gin.CreateTestContext(w2)
	m.ClearCookie(c2)
	assert.Contains(t, w2.Header().Get("Set-Cookie"), "Max-Age=0")
}

func TestGetCurrentUserID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Equal(t, uuid.Nil, GetCurrentUserID(c))

	id := uuid.New()
	c.Set(ContextUserID, id)
	assert.Equal(t, id, GetCurrentUserID(c))
}
