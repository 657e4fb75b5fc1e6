package api

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cashflow/config"
	"cashflow/models"
	"cashflow/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryHandler_Upsert(t *testing.T) {
	env := newTestEnv(t)

	// 新增
	w := env.request("POST", "/category", `{"name":"  Café Crème ","color":"#22c55e"}`)
	require.Equal(t, 200, w.Code, w.Body.String())
	var created models.Category
	decodeData(t, w, &created)
	assert.Equal(t, "Café Crème", created.Name)
	assert.Equal(t, "cafe-creme", created.Slug)
	assert.Equal(t, "#22c55e", created.Color)

	// 修改
	body := fmt.Sprintf(`{"id":"%s","name":"Coffee"}`, created.ID)
	w = env.request("POST", "/category", body)
	require.Equal(t, 200, w.Code, w.Body.String())
	var updated models.Category
	decodeData(t, w, &updated)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "coffee", updated.Slug)
	assert.Equal(t, models.DefaultCategoryColor, updated.Color)

	// 不存在的 ID
	w = env.request("POST", "/category", fmt.Sprintf(`{"id":"%s","name":"Ghost"}`, uuid.New()))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCategoryHandler_Upsert_Validation(t *testing.T) {
	env := newTestEnv(t)

	w := env.request("POST", "/category", `{"name":"   ","color":"green"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	fields := decodeFields(t, w)
	assert.Contains(t, fields, "name")
	assert.Contains(t, fields, "color")

	w = env.request("POST", "/category", `{"id":"not-a-uuid","name":"Food"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "ID 格式不正确", decodeFields(t, w)["id"])

	w = env.request("POST", "/category", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "不能为空", decodeFields(t, w)["name"])
}

func TestCategoryHandler_List(t *testing.T) {
	env := newTestEnv(t)
	env.createCategory(t, "Zoo")
	env.createCategory(t, "apple")

	// 其他用户的类别不可见
	other := models.User{Nickname: "other", Password: "hash"}
	require.NoError(t, env.users.Create(context.Background(), &other))
	_, err := env.categories.Upsert(context.Background(), other.ID, repository.CategoryInput{Name: "Hidden"})
	require.NoError(t, err)

	w := env.request("GET", "/category", "")
	require.Equal(t, 200, w.Code)
	var list []models.Category
	decodeData(t, w, &list)
	require.Len(t, list, 2)
	assert.Equal(t, "apple", list[0].Name)
	assert.Equal(t, "Zoo", list[1].Name)
}

func TestCategoryHandler_Delete(t *testing.T) {
	env := newTestEnv(t)
	used := env.createCategory(t, "Used")
	unused := env.createCategory(t, "Unused")
	env.createBudget(t, repository.BudgetInput{
		Title:      "Rent",
		Amount:     decimal.NewFromInt(500),
		Day:        time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
		Type:       models.BudgetTypeOutput,
		CategoryID: used.ID,
	})

	// 被引用
	w := env.request("DELETE", "/category/"+used.ID.String(), "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "类别正在被记账条目使用", decodeResponse(t, w).Message)

	// 未被引用
	w = env.request("DELETE", "/category/"+unused.ID.String(), "")
	assert.Equal(t, 200, w.Code)
	_, err := env.categories.Find(context.Background(), env.userID, unused.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	// 已删除
	w = env.request("DELETE", "/category/"+unused.ID.String(), "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	// 非法 ID
	w = env.request("DELETE", "/category/abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCategoryHandler_List_DBError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db, mock := setupMockDB(t)
	userID := uuid.New()

	mock.ExpectQuery("SELECT .* FROM `categories`").
		WillReturnError(fmt.Errorf("connection refused"))

	h := NewCategoryHandler(repository.NewCategoryRepository(db))
	router := gin.New()
	router.Use(setUserIDMiddleware(userID))
	router.GET("/category", h.List)

	// release 模式不暴露内部错误
	config.GlobalConfig = &config.Config{Server: config.ServerConfig{Mode: "release"}}
	defer func() { config.GlobalConfig = nil }()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/category", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "查询类别失败", decodeResponse(t, w).Message)
	assert.NotContains(t, w.Body.String(), "connection refused")
	require.NoError(t, mock.ExpectationsWereMet())
}
