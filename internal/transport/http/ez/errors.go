package ez

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"fitness-platform/internal/domain"
	resp "fitness-platform/internal/transport/http/response"
)

func init() {
	// 校验错误使用 json/form 字段名
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(fieldName)
	}
}

func fieldName(f reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return f.Name
}

// WriteError 领域错误 -> HTTP 状态 + 统一包体；HTTP 状态与 code 一致
func WriteError(c *gin.Context, err error) {
	var ve *domain.ValidationError
	var ae *AErr
	switch {
	case errors.As(err, &ve):
		abort(c, resp.CodeBadRequest, "validation failed", gin.H{"errors": ve.Fields})
	case errors.As(err, &ae):
		if ae.Code >= http.StatusInternalServerError {
			_ = c.Error(err)
			abort(c, ae.Code, "internal error", nil)
			return
		}
		abort(c, ae.Code, ae.Error(), nil)
	case errors.Is(err, domain.ErrUnauthorized):
		msg := strings.TrimPrefix(err.Error(), domain.ErrUnauthorized.Error()+": ")
		if err == domain.ErrUnauthorized {
			msg = "authentication credentials were not provided"
		}
		abort(c, resp.CodeUnauthorized, msg, nil)
	case errors.Is(err, domain.ErrForbidden):
		abort(c, resp.CodeForbidden, "you do not have permission to perform this action", nil)
	case errors.Is(err, domain.ErrNotFound):
		abort(c, resp.CodeNotFound, "not found", nil)
	case errors.Is(err, domain.ErrConflict):
		abort(c, resp.CodeBadRequest, "validation failed", gin.H{"errors": domain.FieldErrors{
			domain.NonField: {"a record with these values already exists"},
		}})
	case errors.Is(err, context.DeadlineExceeded):
		abort(c, resp.CodeTimeout, "timeout", nil)
	default:
		// 交给 AccessLog 记录，不向客户端泄露
		_ = c.Error(err)
		abort(c, resp.CodeServerError, "internal error", nil)
	}
}

func abort(c *gin.Context, code int, msg string, data any) { resp.Abort(c, code, msg, data) }

// bindError gin 绑定错误 -> ValidationError
func bindError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fe := domain.FieldErrors{}
		for _, v := range verrs {
			fe.Add(v.Field(), describe(v))
		}
		return fe.Err()
	}
	var te *json.UnmarshalTypeError
	if errors.As(err, &te) {
		field := te.Field
		if field == "" {
			field = domain.NonField
		}
		return domain.Invalid(field, "incorrect type, expected "+te.Type.String())
	}
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return domain.Invalid(domain.NonField, "request body too large")
	}
	var se *json.SyntaxError
	if errors.As(err, &se) {
		return domain.Invalid(domain.NonField, "JSON parse error: "+se.Error())
	}
	return domain.Invalid(domain.NonField, err.Error())
}

func describe(v validator.FieldError) string {
	switch v.Tag() {
	case "required":
		return "this field is required"
	case "email":
		return "enter a valid email address"
	case "max":
		return "ensure this field has no more than " + v.Param() + " characters"
	case "min":
		return "ensure this field has at least " + v.Param() + " characters"
	case "gte":
		return "ensure this value is greater than or equal to " + v.Param()
	case "gt":
		return "ensure this value is greater than " + v.Param()
	case "lte":
		return "ensure this value is less than or equal to " + v.Param()
	case "oneof":
		return "must be one of: " + v.Param()
	case "url":
		return "enter a valid URL"
	}
	return "invalid value (" + v.Tag() + ")"
}
