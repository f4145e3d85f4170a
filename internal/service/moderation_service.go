package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/d60-Lab/sakugabase/config"
	"github.com/d60-Lab/sakugabase/internal/authz"
	"github.com/d60-Lab/sakugabase/internal/metrics"
	"github.com/d60-Lab/sakugabase/internal/model"
	"github.com/d60-Lab/sakugabase/internal/repository"
	"github.com/d60-Lab/sakugabase/pkg/apperrors"
	"github.com/d60-Lab/sakugabase/pkg/logger"
	"github.com/d60-Lab/sakugabase/pkg/pagination"
)

// ModerationAction 审核动作
type ModerationAction string

const (
	ActionApprove ModerationAction = "APPROVE"
	ActionReject  ModerationAction = "REJECT"
)

type ModerateInput struct {
	Action ModerationAction `json:"action" binding:"required,oneof=APPROVE REJECT"`
	Reason string           `json:"reason" binding:"max=2000"`
}

// ModerationResult 审核后的片段与提交者信用分
type ModerationResult struct {
	Clip                *model.Clip `json:"clip"`
	SubmitterTrustScore int         `json:"submitterTrustScore"`
}

type ModerationService interface {
	Moderate(ctx context.Context, actor Actor, clipID string, in ModerateInput) (*ModerationResult, error)
	Queue(ctx context.Context, actor Actor, page pagination.Page) ([]*model.Clip, int64, error)
}

type moderationService struct {
	db    *gorm.DB
	authz authz.Authorizer
	cfg   config.ModerationConfig
	now   func() time.Time
}

func NewModerationService(db *gorm.DB, az authz.Authorizer, cfg config.ModerationConfig) ModerationService {
	return &moderationService{db: db, authz: az, cfg: cfg, now: func() time.Time { return time.Now().UTC() }}
}

func (s *moderationService) authorize(actor Actor) error {
	if err := requireAuth(actor); err != nil {
		return err
	}
	if !s.authz.Can(actor.Role, authz.ObjClip, authz.ActModerate) {
		return apperrors.Forbidden("moderator role required")
	}
	return nil
}

// Moderate PENDING -> APPROVED/REJECTED，与信用分调整在同一事务内
func (s *moderationService) Moderate(ctx context.Context, actor Actor, clipID string, in ModerateInput) (*ModerationResult, error) {
	if err := s.authorize(actor); err != nil {
		return nil, err
	}

	var (
		to    model.SubmissionStatus
		delta int
	)
	switch in.Action {
	case ActionApprove:
		to, delta = model.StatusApproved, s.cfg.ApproveTrustDelta
	case ActionReject:
		to, delta = model.StatusRejected, s.cfg.RejectTrustDelta
	default:
		return nil, apperrors.Validation("invalid moderation action",
			apperrors.FieldError{Field: "action", Message: "must be one of: APPROVE REJECT"})
	}
	reason := ""
	if to == model.StatusRejected {
		reason = strings.TrimSpace(in.Reason)
	}

	var result ModerationResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		clips := repository.NewClipRepository(tx)
		users := repository.NewUserRepository(tx)

		ok, err := clips.Transition(ctx, clipID, model.StatusPending, to, actor.UserID, s.now(), reason)
		if err != nil {
			return err
		}
		if !ok {
			if _, err := clips.GetByID(ctx, clipID); err != nil {
				return translate(err, "clip")
			}
			return apperrors.Duplicate("clip has already been moderated")
		}

		clip, err := clips.GetByID(ctx, clipID)
		if err != nil {
			return err
		}
		if err := users.AdjustTrustScore(ctx, clip.SubmittedByID, delta); err != nil {
			return translate(err, "submitter")
		}
		submitter, err := users.GetByID(ctx, clip.SubmittedByID)
		if err != nil {
			return err
		}
		result = ModerationResult{Clip: clip, SubmitterTrustScore: submitter.TrustScore}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.ModerationActions.WithLabelValues(string(in.Action)).Inc()
	logger.Info("clip moderated",
		zap.String("clip", clipID),
		zap.String("action", string(in.Action)),
		zap.String("moderator", actor.UserID),
		zap.Int("trust_delta", delta),
	)
	return &result, nil
}

// Queue 待审核列表，先提交先审
func (s *moderationService) Queue(ctx context.Context, actor Actor, page pagination.Page) ([]*model.Clip, int64, error) {
	if err := s.authorize(actor); err != nil {
		return nil, 0, err
	}
	return repository.NewClipRepository(s.db).ListPending(ctx, page.Offset(), page.Limit)
}
