package model

import "time"

// SubmissionStatus 审核状态
type SubmissionStatus string

const (
	StatusPending  SubmissionStatus = "PENDING"
	StatusApproved SubmissionStatus = "APPROVED"
	StatusRejected SubmissionStatus = "REJECTED"
)

// MaxClipDurationSeconds 片段时长上限
const MaxClipDurationSeconds = 45

// Clip 作画片段
type Clip struct {
	ID               string           `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Slug             string           `json:"slug" gorm:"type:varchar(160);uniqueIndex;not null"`
	Title            string           `json:"title" gorm:"type:varchar(200);not null"`
	Description      string           `json:"description" gorm:"type:text"`
	SeriesTitle      string           `json:"seriesTitle" gorm:"type:varchar(200);index"`
	Episode          string           `json:"episode" gorm:"type:varchar(32)"`
	VideoURL         string           `json:"videoUrl" gorm:"type:text;not null"`
	ThumbnailURL     string           `json:"thumbnailUrl" gorm:"type:text"`
	DurationSeconds  float64          `json:"durationSeconds" gorm:"not null"`
	ViewCount        int64            `json:"viewCount" gorm:"not null;default:0"`
	FavoriteCount    int64            `json:"favoriteCount" gorm:"not null;default:0"`
	CommentCount     int64            `json:"commentCount" gorm:"not null;default:0"`
	VoteScore        int64            `json:"voteScore" gorm:"not null;default:0;index"`
	SubmissionStatus SubmissionStatus `json:"submissionStatus" gorm:"type:varchar(16);not null;default:'PENDING';index:idx_clip_status_created"`
	SubmittedByID    string           `json:"submittedById" gorm:"type:varchar(36);index;not null"`
	ModeratedByID    *string          `json:"moderatedById,omitempty" gorm:"type:varchar(36)"`
	ModeratedAt      *time.Time       `json:"moderatedAt,omitempty"`
	RejectionReason  string           `json:"rejectionReason,omitempty" gorm:"type:text"`
	CreatedAt        time.Time        `json:"createdAt" gorm:"index:idx_clip_status_created"`
	UpdatedAt        time.Time        `json:"updatedAt"`

	Attributions []Attribution `json:"attributions,omitempty" gorm:"foreignKey:ClipID"`
}

func (Clip) TableName() string { return "clips" }

// VerificationStatus 取最可信的署名状态；无署名返回 nil
func (c *Clip) VerificationStatus() *VerificationStatus {
	return BestVerification(c.Attributions)
}
