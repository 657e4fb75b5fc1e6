package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"cashflow/config"
	"cashflow/database"
	"cashflow/middleware"
	"cashflow/models"
	"cashflow/repository"
	"cashflow/service"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

var testNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

type fakeSender struct {
	messages []*gomail.Message
	err      error
}

func (s *fakeSender) DialAndSend(m ...*gomail.Message) error {
	s.messages = append(s.messages, m...)
	return s.err
}

type testEnv struct {
	db         *gorm.DB
	users      *repository.UserRepository
	categories *repository.CategoryRepository
	budgets    *repository.BudgetRepository
	sender     *fakeSender
	userID     uuid.UUID
	router     *gin.Engine
}

// newTestEnv 内存数据库 + 已登录用户 tester，当前时间固定为 testNow
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := database.OpenTestDB(t)
	env := &testEnv{
		db:         db,
		users:      repository.NewUserRepository(db),
		categories: repository.NewCategoryRepository(db),
		budgets:    repository.NewBudgetRepository(db),
		sender:     &fakeSender{},
	}

	user := models.User{Nickname: "tester", Password: "hash", Email: "tester@example.com"}
	require.NoError(t, env.users.Create(context.Background(), &user))
	env.userID = user.ID

	aggregator := service.NewAggregator(env.budgets, env.categories, func() time.Time { return testNow })
	emailService := service.NewEmailServiceWithSender(&config.EmailConfig{Enabled: true, From: "noreply@example.com"}, env.sender)

	categoryHandler := NewCategoryHandler(env.categories)
	budgetHandler := NewBudgetHandler(env.budgets, decimal.NewFromInt(999999999))
	dashboardHandler := NewDashboardHandler(service.NewDashboardService(aggregator), aggregator)
	exportHandler := NewExportHandler(aggregator, env.users, emailService)

	router := gin.New()
	router.Use(setUserIDMiddleware(user.ID))
	router.GET("/category", categoryHandler.List)
	router.POST("/category", categoryHandler.Upsert)
	router.DELETE("/category/:id", categoryHandler.Delete)
	router.GET("/budget", budgetHandler.List)
	router.GET("/budget/:id", budgetHandler.Get)
	router.POST("/budget", budgetHandler.Upsert)
	router.DELETE("/budget/:id", budgetHandler.Delete)
	router.GET("/dashboard", dashboardHandler.Dashboard)
	router.GET("/totals", dashboardHandler.Totals)
	router.GET("/export/csv", exportHandler.ExportCSV)
	router.GET("/export/excel", exportHandler.ExportExcel)
	router.POST("/export/email", exportHandler.ExportEmail)
	env.router = router

	return env
}

// setUserIDMiddleware 模拟已登录用户
func setUserIDMiddleware(userID uuid.UUID) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserID, userID)
		c.Next()
	}
}

func (e *testEnv) request(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) createCategory(t *testing.T, name string) *models.Category {
	t.Helper()
	cat, err := e.categories.Upsert(context.Background(), e.userID, repository.CategoryInput{Name: name})
	require.NoError(t, err)
	return cat
}

func (e *testEnv) createBudget(t *testing.T, in repository.BudgetInput) *models.Budget {
	t.Helper()
	b, err := e.budgets.Upsert(context.Background(), e.userID, in)
	require.NoError(t, err)
	return b
}

// seedSalaryAndFood 周期收入 Salary（每月 1000，自 2024-01-01）与一次性支出 Food（2024-02-10 200）
func (e *testEnv) seedSalaryAndFood(t *testing.T) (salary, food *models.Budget) {
	t.Helper()
	salaryCat := e.createCategory(t, "Salary")
	foodCat := e.createCategory(t, "Food")

	salary = e.createBudget(t, repository.BudgetInput{
		Title:      "Salary",
		Amount:     decimal.NewFromInt(1000),
		Day:        time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Type:       models.BudgetTypeInput,
		CategoryID: salaryCat.ID,
		Cycle:      &repository.CycleInput{Period: models.PeriodMonth},
	})
	food = e.createBudget(t, repository.BudgetInput{
		Title:      "Groceries",
		Amount:     decimal.NewFromInt(200),
		Day:        time.Date(2024, 2, 10, 15, 0, 0, 0, time.UTC),
		Type:       models.BudgetTypeOutput,
		CategoryID: foodCat.ID,
	})
	return salary, food
}

type testResponse struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) testResponse {
	t.Helper()
	var resp testResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	resp := decodeResponse(t, w)
	require.NoError(t, json.Unmarshal(resp.Data, out), string(resp.Data))
}

func decodeFields(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var fields []FieldError
	decodeData(t, w, &fields)
	result := make(map[string]string, len(fields))
	for _, f := range fields {
		result[f.Field] = f.Message
	}
	return result
}

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	require.NoError(t, err)
	return gormDB, mock
}
