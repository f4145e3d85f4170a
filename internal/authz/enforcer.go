// Package authz 基于 casbin 的角色权限
package authz

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"

	sakmodel "github.com/d60-Lab/sakugabase/internal/model"
)

//go:embed model.conf
var embeddedModel string

//go:embed policy.csv
var embeddedPolicy string

// 策略中的资源与动作
const (
	ObjClip       = "clip"
	ObjComment    = "comment"
	ObjCollection = "collection"
	ObjAnimator   = "animator"
	ObjRelation   = "relation"
	ObjUser       = "user"

	ActSubmit          = "submit"
	ActFavorite        = "favorite"
	ActVote            = "vote"
	ActCreate          = "create"
	ActDelete          = "delete"
	ActManage          = "manage"
	ActModerate        = "moderate"
	ActViewUnpublished = "view_unpublished"
)

// Authorizer 角色权限判断
type Authorizer interface {
	Can(role sakmodel.Role, obj, act string) bool
}

// Enforcer 加载内嵌策略的 casbin SyncedEnforcer
type Enforcer struct {
	enforcer *casbin.SyncedEnforcer
}

func NewEnforcer() (*Enforcer, error) {
	m, err := model.NewModelFromString(embeddedModel)
	if err != nil {
		return nil, fmt.Errorf("failed to load casbin model: %w", err)
	}
	e, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}
	if err := loadPolicy(e, embeddedPolicy); err != nil {
		return nil, err
	}
	return &Enforcer{enforcer: e}, nil
}

// MustNewEnforcer 策略加载失败时 panic
func MustNewEnforcer() *Enforcer {
	e, err := NewEnforcer()
	if err != nil {
		panic(err)
	}
	return e
}

func loadPolicy(e *casbin.SyncedEnforcer, policy string) error {
	for _, line := range strings.Split(policy, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Split(line, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		switch {
		case parts[0] == "p" && len(parts) == 4:
			if _, err := e.AddPolicy(parts[1], parts[2], parts[3]); err != nil {
				return fmt.Errorf("failed to add policy %v: %w", parts[1:], err)
			}
		case parts[0] == "g" && len(parts) == 3:
			if _, err := e.AddGroupingPolicy(parts[1], parts[2]); err != nil {
				return fmt.Errorf("failed to add grouping policy %v: %w", parts[1:], err)
			}
		default:
			return fmt.Errorf("malformed policy line %q", line)
		}
	}
	return nil
}

// Can 未知角色或判定出错时一律拒绝
func (e *Enforcer) Can(role sakmodel.Role, obj, act string) bool {
	if role == "" {
		return false
	}
	ok, err := e.enforcer.Enforce(string(role), obj, act)
	return err == nil && ok
}
