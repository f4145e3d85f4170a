// Package apperrors 对外错误类型与固定错误码
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code 响应中的错误码
type Code string

const (
	CodeNotFound     Code = "NOT_FOUND"
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeForbidden    Code = "FORBIDDEN"
	CodeValidation   Code = "VALIDATION_ERROR"
	CodeRateLimited  Code = "RATE_LIMITED"
	CodeInternal     Code = "INTERNAL_ERROR"
	CodeDuplicate    Code = "DUPLICATE"
)

// HTTPStatus 错误码对应的 HTTP 状态
func (c Code) HTTPStatus() int {
	switch c {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeValidation:
		return http.StatusBadRequest
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeDuplicate:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// FieldError 字段级错误
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error 可直接返回给客户端的业务错误
type Error struct {
	Code    Code
	Message string
	Details any
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// Is 按错误码匹配无消息的哨兵，如 errors.Is(err, ErrNotFound)
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code && t.Message == ""
}

func (e *Error) Status() int { return e.Code.HTTPStatus() }

// 供 errors.Is 使用的哨兵
var (
	ErrNotFound     = &Error{Code: CodeNotFound}
	ErrUnauthorized = &Error{Code: CodeUnauthorized}
	ErrForbidden    = &Error{Code: CodeForbidden}
	ErrValidation   = &Error{Code: CodeValidation}
	ErrDuplicate    = &Error{Code: CodeDuplicate}
)

func New(code Code, msg string) *Error { return &Error{Code: code, Message: msg} }

func NotFound(what string) *Error {
	return &Error{Code: CodeNotFound, Message: what + " not found"}
}

func Unauthorized(msg string) *Error { return &Error{Code: CodeUnauthorized, Message: msg} }

func Forbidden(msg string) *Error { return &Error{Code: CodeForbidden, Message: msg} }

func Duplicate(msg string) *Error { return &Error{Code: CodeDuplicate, Message: msg} }

// Validation 参数错误，可附字段详情
func Validation(msg string, fields ...FieldError) *Error {
	e := &Error{Code: CodeValidation, Message: msg}
	if len(fields) > 0 {
		e.Details = fields
	}
	return e
}

// Wrap 附带内部原因，原因不返回给客户端
func Wrap(code Code, msg string, cause error) *Error {
	return &Error{Code: code, Message: msg, cause: cause}
}

// From 提取 *Error；非业务错误返回 false
func From(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
