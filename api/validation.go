package api

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

func init() {
	// 校验错误中使用 json 字段名
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	}
}

// BindFailed 将绑定错误转换为字段错误响应
func BindFailed(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		ValidationFailed(c, translateValidationErrors(verrs))
		return
	}
	ValidationFailed(c, []FieldError{{Field: "body", Message: "请求体格式错误"}})
}

func translateValidationErrors(verrs validator.ValidationErrors) []FieldError {
	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{
			Field:   fieldPath(fe),
			Message: validationMessage(fe),
		})
	}
	return fields
}

// fieldPath 去掉顶层结构体名，如 BudgetRequest.cycle.period -> cycle.period
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "不能为空"
	case "min":
		return fmt.Sprintf("长度不能小于 %s", fe.Param())
	case "max":
		return fmt.Sprintf("长度不能大于 %s", fe.Param())
	case "email":
		return "邮箱格式不正确"
	case "uuid":
		return "ID 格式不正确"
	default:
		return fmt.Sprintf("校验失败: %s", fe.Tag())
	}
}
