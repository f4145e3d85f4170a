package service

import (
	"github.com/d60-Lab/sakugabase/internal/model"
	"github.com/d60-Lab/sakugabase/internal/repository"
	"github.com/d60-Lab/sakugabase/pkg/apperrors"
)

// Actor 发起请求的用户；匿名访问时 UserID 为空
type Actor struct {
	UserID string
	Role   model.Role
}

func (a Actor) Authenticated() bool { return a.UserID != "" }

// translate 把仓储层错误转换为对外错误码
func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case repository.IsNotFound(err):
		return apperrors.NotFound(what)
	case repository.IsDuplicate(err):
		return apperrors.Duplicate(what + " already exists")
	default:
		return err
	}
}

func requireAuth(actor Actor) error {
	if !actor.Authenticated() {
		return apperrors.Unauthorized("authentication required")
	}
	return nil
}
