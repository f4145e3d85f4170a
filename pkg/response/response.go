package response

import (
	"errors"
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/d60-Lab/sakugabase/pkg/apperrors"
	"github.com/d60-Lab/sakugabase/pkg/logger"
)

// Response 统一响应结构
type Response struct {
	Success    bool       `json:"success"`
	Data       any        `json:"data,omitempty"`
	Pagination any        `json:"pagination,omitempty"`
	Error      *ErrorBody `json:"error,omitempty"`
}

// ErrorBody 错误详情
type ErrorBody struct {
	Code    apperrors.Code `json:"code"`
	Message string         `json:"message"`
	Details any            `json:"details,omitempty"`
}

// PagePagination 页码分页信息
type PagePagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
	HasNext    bool  `json:"hasNext"`
	HasPrev    bool  `json:"hasPrev"`
}

// OffsetPagination 偏移分页信息
type OffsetPagination struct {
	Total   int64 `json:"total"`
	Limit   int   `json:"limit"`
	Offset  int   `json:"offset"`
	HasMore bool  `json:"hasMore"`
}

// NewPagePagination 计算页码分页信息
func NewPagePagination(page, limit int, total int64) PagePagination {
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	return PagePagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}

// NewOffsetPagination 计算偏移分页信息
func NewOffsetPagination(offset, limit int, total int64) OffsetPagination {
	return OffsetPagination{
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: int64(offset) < total-int64(limit),
	}
}

// Success 成功响应
func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

// Created 创建成功
func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, Response{Success: true, Data: data})
}

// SuccessWithPagination 列表响应
func SuccessWithPagination(c *gin.Context, data any, pagination any) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data, Pagination: pagination})
}

// Fail 以指定错误码响应
func Fail(c *gin.Context, code apperrors.Code, message string, details any) {
	c.AbortWithStatusJSON(code.HTTPStatus(), Response{
		Success: false,
		Error:   &ErrorBody{Code: code, Message: message, Details: details},
	})
}

// BadRequest 参数错误
func BadRequest(c *gin.Context, message string) {
	Fail(c, apperrors.CodeValidation, message, nil)
}

// Unauthorized 未登录
func Unauthorized(c *gin.Context, message string) {
	Fail(c, apperrors.CodeUnauthorized, message, nil)
}

// Forbidden 权限不足
func Forbidden(c *gin.Context, message string) {
	Fail(c, apperrors.CodeForbidden, message, nil)
}

// NotFound 资源不存在
func NotFound(c *gin.Context, message string) {
	Fail(c, apperrors.CodeNotFound, message, nil)
}

// TooManyRequests 触发限流
func TooManyRequests(c *gin.Context) {
	Fail(c, apperrors.CodeRateLimited, "too many requests", nil)
}

// InternalError 服务器内部错误，细节只写日志不返回客户端
func InternalError(c *gin.Context, err error) {
	logger.Error("internal error",
		zap.Error(err),
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.String("request_id", c.GetString("request_id")),
	)
	if hub := sentry.CurrentHub(); hub.Client() != nil {
		hub.CaptureException(err)
	}
	Fail(c, apperrors.CodeInternal, "internal server error", nil)
}

// ValidationFailed 将 binding 错误转换为字段级详情
func ValidationFailed(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		details := make([]apperrors.FieldError, 0, len(verrs))
		for _, fe := range verrs {
			details = append(details, apperrors.FieldError{Field: fe.Field(), Message: describe(fe)})
		}
		Fail(c, apperrors.CodeValidation, "invalid request parameters", details)
		return
	}
	Fail(c, apperrors.CodeValidation, "invalid request parameters",
		[]apperrors.FieldError{{Field: "", Message: err.Error()}})
}

// Error 根据错误类型输出统一响应
func Error(c *gin.Context, err error) {
	if e, ok := apperrors.From(err); ok {
		msg := e.Message
		if msg == "" {
			msg = http.StatusText(e.Status())
		}
		if e.Code == apperrors.CodeInternal {
			InternalError(c, err)
			return
		}
		Fail(c, e.Code, msg, e.Details)
		return
	}
	InternalError(c, err)
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "lte":
		return "must be less than or equal to " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid url"
	case "uuid":
		return "must be a valid uuid"
	default:
		return "failed on " + fe.Tag()
	}
}
