package api

import (
	"time"

	"cashflow/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

// parseDate 解析 2006-01-02 或 RFC3339 时间，统一为 UTC
// endOfDay 为 true 时，仅有日期的值取当天最后一刻
func parseDate(value string, endOfDay bool) (time.Time, error) {
	if t, err := time.ParseInLocation(dateLayout, value, time.UTC); err == nil {
		if endOfDay {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// parseWindow 读取 startDate / endDate 查询参数，缺省表示不设限
func parseWindow(c *gin.Context) (service.Window, []FieldError) {
	var (
		window service.Window
		fields []FieldError
	)
	if v := c.Query("startDate"); v != "" {
		t, err := parseDate(v, false)
		if err != nil {
			fields = append(fields, FieldError{Field: "startDate", Message: "日期格式错误，应为 2006-01-02 或 RFC3339"})
		} else {
			window.Start = &t
		}
	}
	if v := c.Query("endDate"); v != "" {
		t, err := parseDate(v, true)
		if err != nil {
			fields = append(fields, FieldError{Field: "endDate", Message: "日期格式错误，应为 2006-01-02 或 RFC3339"})
		} else {
			window.End = &t
		}
	}
	return window, fields
}

// bindWindow 解析窗口参数，失败时直接写入 400 响应
func bindWindow(c *gin.Context) (service.Window, bool) {
	window, fields := parseWindow(c)
	if len(fields) > 0 {
		ValidationFailed(c, fields)
		return service.Window{}, false
	}
	return window, true
}

// bindID 解析路径参数中的 UUID，失败时直接写入 400 响应
func bindID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		ValidationFailed(c, []FieldError{{Field: "id", Message: "ID 格式不正确"}})
		return uuid.Nil, false
	}
	return id, true
}
