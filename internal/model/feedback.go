package model

import "time"

type FeedbackStatus string

const (
	FeedbackPending   FeedbackStatus = "pending"
	FeedbackReviewed  FeedbackStatus = "reviewed"
	FeedbackAddressed FeedbackStatus = "addressed"
)

func (s FeedbackStatus) Valid() bool {
	switch s {
	case FeedbackPending, FeedbackReviewed, FeedbackAddressed:
		return true
	}
	return false
}

type Feedback struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Content   string         `gorm:"type:text;not null" json:"content"`
	Status    FeedbackStatus `gorm:"type:varchar(10);not null;default:pending" json:"status"`
	UserID    uint           `gorm:"not null;index:idx_feedbacks_user" json:"user_id"`
	PostID    uint           `gorm:"not null;index:idx_feedbacks_post" json:"post_id"`
	CreatedAt time.Time      `json:"created_at"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (Feedback) TableName() string { return "feedbacks" }
