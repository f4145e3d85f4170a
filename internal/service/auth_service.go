package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/d60-Lab/sakugabase/config"
	"github.com/d60-Lab/sakugabase/internal/model"
	"github.com/d60-Lab/sakugabase/internal/repository"
	"github.com/d60-Lab/sakugabase/pkg/apperrors"
)

// bcrypt 只使用前 72 字节
const maxPasswordLen = 72

type RegisterInput struct {
	Username    string `json:"username" binding:"required,min=3,max=32,alphanum"`
	Email       string `json:"email" binding:"required,email,max=255"`
	Password    string `json:"password" binding:"required,min=8,max=72"`
	DisplayName string `json:"displayName" binding:"max=64"`
}

type LoginInput struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthResult 登录/注册结果
type AuthResult struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      *model.User `json:"user"`
}

// Claims JWT 载荷
type Claims struct {
	Role model.Role `json:"role"`
	jwt.RegisteredClaims
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, in LoginInput) (*AuthResult, error)
	Me(ctx context.Context, actor Actor) (*model.User, error)
	ParseToken(token string) (*Claims, error)
}

type authService struct {
	users repository.UserRepository
	cfg   config.JWTConfig
	cost  int
	now   func() time.Time
}

func NewAuthService(db *gorm.DB, cfg config.JWTConfig) AuthService {
	return &authService{
		users: repository.NewUserRepository(db),
		cfg:   cfg,
		cost:  bcrypt.DefaultCost,
		now:   time.Now,
	}
}

func (s *authService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if len(in.Password) < 8 || len(in.Password) > maxPasswordLen {
		return nil, apperrors.Validation("invalid password",
			apperrors.FieldError{Field: "password", Message: rangeMessage(8, maxPasswordLen) + " characters"})
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	display := strings.TrimSpace(in.DisplayName)
	if display == "" {
		display = username
	}
	u := &model.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		DisplayName:  display,
		Role:         model.RoleUser,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if repository.IsDuplicate(err) {
			return nil, apperrors.Duplicate("username or email already taken")
		}
		return nil, err
	}
	return s.issue(u)
}

func (s *authService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	invalid := apperrors.Unauthorized("invalid credentials")
	if len(in.Password) > maxPasswordLen {
		return nil, invalid
	}
	u, err := s.users.GetByLogin(ctx, strings.TrimSpace(in.Login))
	if repository.IsNotFound(err) {
		return nil, invalid
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)); err != nil {
		return nil, invalid
	}
	return s.issue(u)
}

func (s *authService) Me(ctx context.Context, actor Actor) (*model.User, error) {
	if err := requireAuth(actor); err != nil {
		return nil, err
	}
	u, err := s.users.GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, translate(err, "user")
	}
	return u, nil
}

func (s *authService) issue(u *model.User) (*AuthResult, error) {
	now := s.now()
	exp := now.Add(s.cfg.Expire)
	claims := Claims{
		Role: u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			Issuer:    s.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &AuthResult{Token: token, ExpiresAt: exp, User: u}, nil
}

// ParseToken 校验签名、算法与过期时间
func (s *authService) ParseToken(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.cfg.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.Unauthorized("token expired")
		}
		return nil, apperrors.Unauthorized("invalid token")
	}
	if !token.Valid || claims.Subject == "" {
		return nil, apperrors.Unauthorized("invalid token")
	}
	return claims, nil
}
