package service

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/d60-Lab/sakugabase/internal/authz"
	"github.com/d60-Lab/sakugabase/internal/model"
	"github.com/d60-Lab/sakugabase/internal/repository"
	"github.com/d60-Lab/sakugabase/pkg/apperrors"
	"github.com/d60-Lab/sakugabase/pkg/logger"
)

type RoleInput struct {
	Role model.Role `json:"role" binding:"required,oneof=USER MODERATOR ADMIN"`
}

// UserService 账号管理（管理员）
type UserService interface {
	SetRole(ctx context.Context, actor Actor, userID string, in RoleInput) (*model.User, error)
}

type userService struct {
	users repository.UserRepository
	authz authz.Authorizer
}

func NewUserService(db *gorm.DB, az authz.Authorizer) UserService {
	return &userService{users: repository.NewUserRepository(db), authz: az}
}

// SetRole 修改角色，新角色在对方下次登录后生效；不能修改自己的角色
func (s *userService) SetRole(ctx context.Context, actor Actor, userID string, in RoleInput) (*model.User, error) {
	if err := requireAuth(actor); err != nil {
		return nil, err
	}
	if !s.authz.Can(actor.Role, authz.ObjUser, authz.ActManage) {
		return nil, apperrors.Forbidden("admin role required")
	}
	if !in.Role.Valid() {
		return nil, apperrors.Validation("invalid role",
			apperrors.FieldError{Field: "role", Message: "must be one of: USER MODERATOR ADMIN"})
	}
	if userID == actor.UserID {
		return nil, apperrors.Validation("cannot change your own role")
	}
	if err := s.users.SetRole(ctx, userID, in.Role); err != nil {
		return nil, translate(err, "user")
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, translate(err, "user")
	}
	logger.Info("user role changed",
		zap.String("user", userID),
		zap.String("role", string(in.Role)),
		zap.String("by", actor.UserID),
	)
	return u, nil
}
