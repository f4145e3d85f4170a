package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/d60-Lab/sakugabase/internal/authz"
	"github.com/d60-Lab/sakugabase/internal/model"
	"github.com/d60-Lab/sakugabase/internal/testutil"
	"github.com/d60-Lab/sakugabase/pkg/apperrors"
	"github.com/d60-Lab/sakugabase/pkg/database"
	"github.com/d60-Lab/sakugabase/pkg/pagination"
)

func trustScore(t *testing.T, db *gorm.DB, userID string) int {
	t.Helper()
	var u model.User
	require.NoError(t, db.First(&u, "id = ?", userID).Error)
	return u.TrustScore
}

func setTrust(t *testing.T, db *gorm.DB, userID string, v int) {
	t.Helper()
	require.NoError(t, db.Model(&model.User{}).Where("id = ?", userID).Update("trust_score", v).Error)
}

type moderationFixture struct {
	*testutil.Fixture
	svc       ModerationService
	moderator Actor
}

func newModerationFixture(t *testing.T) *moderationFixture {
	fx := testutil.NewFixture(t)
	mod := fx.User("mod", model.RoleModerator)
	return &moderationFixture{
		Fixture:   fx,
		svc:       NewModerationService(fx.DB, authz.MustNewEnforcer(), testutil.TestConfig().Moderation),
		moderator: Actor{UserID: mod.ID, Role: model.RoleModerator},
	}
}

func TestModerate_ApproveAddsTrust(t *testing.T) {
	fx := newModerationFixture(t)
	setTrust(t, fx.DB, fx.Submitter.ID, 10)
	clip := fx.Clip("pending", testutil.WithStatus(model.StatusPending))

	res, err := fx.svc.Moderate(context.Background(), fx.moderator, clip.ID, ModerateInput{Action: ActionApprove})
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, res.Clip.SubmissionStatus)
	require.NotNil(t, res.Clip.ModeratedByID)
	assert.Equal(t, fx.moderator.UserID, *res.Clip.ModeratedByID)
	assert.NotNil(t, res.Clip.ModeratedAt)
	assert.Equal(t, 15, res.SubmitterTrustScore)
	assert.Equal(t, 15, trustScore(t, fx.DB, fx.Submitter.ID))
}

func TestModerate_RejectSubtractsTrust(t *testing.T) {
	fx := newModerationFixture(t)
	setTrust(t, fx.DB, fx.Submitter.ID, 10)
	clip := fx.Clip("pending", testutil.WithStatus(model.StatusPending))

	res, err := fx.svc.Moderate(context.Background(), fx.moderator, clip.ID,
		ModerateInput{Action: ActionReject, Reason: "  not sakuga  "})
	require.NoError(t, err)
	assert.Equal(t, model.StatusRejected, res.Clip.SubmissionStatus)
	assert.Equal(t, "not sakuga", res.Clip.RejectionReason)
	assert.Equal(t, 8, trustScore(t, fx.DB, fx.Submitter.ID))
}

func TestModerate_UnknownClipHasNoSideEffect(t *testing.T) {
	fx := newModerationFixture(t)
	setTrust(t, fx.DB, fx.Submitter.ID, 3)

	_, err := fx.svc.Moderate(context.Background(), fx.moderator, "missing", ModerateInput{Action: ActionApprove})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Equal(t, 3, trustScore(t, fx.DB, fx.Submitter.ID))
}

func TestModerate_MissingSubmitterRollsBack(t *testing.T) {
	fx := newModerationFixture(t)
	clip := fx.Clip("orphan", testutil.WithStatus(model.StatusPending))
	require.NoError(t, fx.DB.Model(&model.Clip{}).Where("id = ?", clip.ID).
		UpdateColumn("submitted_by_id", "ghost").Error)

	_, err := fx.svc.Moderate(context.Background(), fx.moderator, clip.ID, ModerateInput{Action: ActionApprove})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	var got model.Clip
	require.NoError(t, fx.DB.First(&got, "id = ?", clip.ID).Error)
	assert.Equal(t, model.StatusPending, got.SubmissionStatus)
	assert.Nil(t, got.ModeratedByID)
}

func TestModerate_ForbiddenForUsers(t *testing.T) {
	fx := newModerationFixture(t)
	clip := fx.Clip("pending", testutil.WithStatus(model.StatusPending))
	user := fx.User("plain", model.RoleUser)

	_, err := fx.svc.Moderate(context.Background(), Actor{UserID: user.ID, Role: model.RoleUser}, clip.ID,
		ModerateInput{Action: ActionApprove})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = fx.svc.Moderate(context.Background(), Actor{}, clip.ID, ModerateInput{Action: ActionApprove})
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	var got model.Clip
	require.NoError(t, fx.DB.First(&got, "id = ?", clip.ID).Error)
	assert.Equal(t, model.StatusPending, got.SubmissionStatus)
	assert.Equal(t, 0, trustScore(t, fx.DB, fx.Submitter.ID))
}

func TestModerate_ForbiddenBeforeDatabaseAccess(t *testing.T) {
	fx := newModerationFixture(t)
	require.NoError(t, database.Close(fx.DB))

	_, err := fx.svc.Moderate(context.Background(), Actor{UserID: "u", Role: model.RoleUser}, "any",
		ModerateInput{Action: ActionApprove})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestModerate_AdminAllowed(t *testing.T) {
	fx := newModerationFixture(t)
	admin := fx.User("admin", model.RoleAdmin)
	clip := fx.Clip("pending", testutil.WithStatus(model.StatusPending))

	_, err := fx.svc.Moderate(context.Background(), Actor{UserID: admin.ID, Role: model.RoleAdmin}, clip.ID,
		ModerateInput{Action: ActionApprove})
	require.NoError(t, err)
}

func TestModerate_AlreadyModeratedIsDuplicate(t *testing.T) {
	fx := newModerationFixture(t)
	clip := fx.Clip("pending", testutil.WithStatus(model.StatusPending))
	ctx := context.Background()

	_, err := fx.svc.Moderate(ctx, fx.moderator, clip.ID, ModerateInput{Action: ActionApprove})
	require.NoError(t, err)

	_, err = fx.svc.Moderate(ctx, fx.moderator, clip.ID, ModerateInput{Action: ActionReject})
	assert.ErrorIs(t, err, apperrors.ErrDuplicate)
	assert.Equal(t, 5, trustScore(t, fx.DB, fx.Submitter.ID))
}

func TestModerate_InvalidAction(t *testing.T) {
	fx := newModerationFixture(t)
	clip := fx.Clip("pending", testutil.WithStatus(model.StatusPending))

	_, err := fx.svc.Moderate(context.Background(), fx.moderator, clip.ID, ModerateInput{Action: "PUBLISH"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestModerationQueue_OldestFirst(t *testing.T) {
	fx := newModerationFixture(t)
	first := fx.Clip("first", testutil.WithStatus(model.StatusPending))
	second := fx.Clip("second", testutil.WithStatus(model.StatusPending))
	fx.Clip("approved")
	require.NoError(t, fx.DB.Model(&model.Clip{}).Where("id = ?", first.ID).
		UpdateColumn("created_at", second.CreatedAt.Add(-time.Hour)).Error)

	items, total, err := fx.svc.Queue(context.Background(), fx.moderator, pagination.Page{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, items, 2)
	assert.Equal(t, first.ID, items[0].ID)
	assert.Equal(t, second.ID, items[1].ID)

	_, _, err = fx.svc.Queue(context.Background(), Actor{UserID: "u", Role: model.RoleUser}, pagination.Page{Page: 1, Limit: 10})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}
