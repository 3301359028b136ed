package service

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/supertrooper/backend/internal/logging"
	"github.com/supertrooper/backend/internal/model"
	"github.com/supertrooper/backend/internal/notify"
)

type FeedbackService struct {
	db       *gorm.DB
	notifier notify.Notifier
}

func NewFeedbackService(db *gorm.DB, notifier notify.Notifier) *FeedbackService {
	return &FeedbackService{db: db, notifier: notifier}
}

type SubmitFeedbackInput struct {
	UserID  uint
	PostID  uint
	Content string
}

type SubmitFeedbackResult struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	FeedbackID uint   `json:"feedbackId"`
}

func (s *FeedbackService) Submit(ctx context.Context, in SubmitFeedbackInput) (*SubmitFeedbackResult, error) {
	user, err := findUser(ctx, s.db, in.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.Role.CanPublish() {
		return &SubmitFeedbackResult{Message: "User not found or not allowed to submit feedback."}, nil
	}
	var count int64
	if err := s.db.WithContext(ctx).Model(&model.Post{}).Where("id = ?", in.PostID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return &SubmitFeedbackResult{Message: "Content not found."}, nil
	}

	fb := model.Feedback{Content: in.Content, Status: model.FeedbackPending, UserID: user.ID, PostID: in.PostID}
	if err := s.db.WithContext(ctx).Create(&fb).Error; err != nil {
		return nil, fmt.Errorf("submit feedback: %w", err)
	}
	return &SubmitFeedbackResult{Success: true, Message: "Feedback submitted successfully.", FeedbackID: fb.ID}, nil
}

type FeedbackUser struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

type FeedbackItem struct {
	ID          uint                 `json:"id"`
	UserDetails FeedbackUser         `json:"user_details"`
	Content     string               `json:"content"`
	Status      model.FeedbackStatus `json:"status"`
	CreatedAt   time.Time            `json:"created_at"`
}

type ListFeedbackResult struct {
	Feedbacks []FeedbackItem `json:"feedbacks"`
}

func avatarOf(u *model.User) string {
	if u == nil || u.Profile == nil {
		return ""
	}
	return u.Profile.Avatar
}

// List filters feedback by author and/or content when given.
func (s *FeedbackService) List(ctx context.Context, userID, contentID *uint) (*ListFeedbackResult, error) {
	query := s.db.WithContext(ctx).Preload("User.Profile")
	if userID != nil {
		query = query.Where("user_id = ?", *userID)
	}
	if contentID != nil {
		query = query.Where("post_id = ?", *contentID)
	}
	var feedbacks []model.Feedback
	if err := query.Order("id").Find(&feedbacks).Error; err != nil {
		return nil, err
	}

	result := &ListFeedbackResult{Feedbacks: make([]FeedbackItem, 0, len(feedbacks))}
	for _, fb := range feedbacks {
		item := FeedbackItem{ID: fb.ID, Content: fb.Content, Status: fb.Status, CreatedAt: fb.CreatedAt}
		item.UserDetails.UserID = fb.UserID
		if fb.User != nil {
			item.UserDetails.Username = fb.User.Email
			item.UserDetails.Avatar = avatarOf(fb.User)
		}
		result.Feedbacks = append(result.Feedbacks, item)
	}
	return result, nil
}

type FeedbackAuthor struct {
	UserID uint   `json:"userId"`
	Email  string `json:"email"`
	Avatar string `json:"avatar"`
}

type FeedbackDetail struct {
	ID          uint                 `json:"id"`
	Content     string               `json:"content"`
	Status      model.FeedbackStatus `json:"status"`
	CreatedAt   time.Time            `json:"createdAt"`
	UserDetails FeedbackAuthor       `json:"userDetails"`
}

func (s *FeedbackService) load(ctx context.Context, id uint) (*model.Feedback, error) {
	var fb model.Feedback
	if err := s.db.WithContext(ctx).Preload("User.Profile").First(&fb, id).Error; err != nil {
		if isRecordNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &fb, nil
}

func toFeedbackDetail(fb *model.Feedback) *FeedbackDetail {
	detail := &FeedbackDetail{ID: fb.ID, Content: fb.Content, Status: fb.Status, CreatedAt: fb.CreatedAt}
	detail.UserDetails.UserID = fb.UserID
	if fb.User != nil {
		detail.UserDetails.Email = fb.User.Email
		detail.UserDetails.Avatar = avatarOf(fb.User)
	}
	return detail
}

func (s *FeedbackService) Get(ctx context.Context, id uint) (*FeedbackDetail, error) {
	fb, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if fb == nil || fb.User == nil {
		return nil, notFound("Feedback not found or lacks associated user details")
	}
	return toFeedbackDetail(fb), nil
}

type UpdateFeedbackStatusResult struct {
	Success         bool            `json:"success"`
	Message         string          `json:"message"`
	UpdatedFeedback *FeedbackDetail `json:"updatedFeedback"`
}

func (s *FeedbackService) UpdateStatus(ctx context.Context, id uint, newStatus string) (*UpdateFeedbackStatusResult, error) {
	status := model.FeedbackStatus(newStatus)
	if !status.Valid() {
		return &UpdateFeedbackStatusResult{Message: fmt.Sprintf("Invalid status %s. Use reviewed, addressed or pending.", newStatus)}, nil
	}
	fb, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if fb == nil {
		return &UpdateFeedbackStatusResult{Message: "Feedback not found."}, nil
	}

	if err := s.db.WithContext(ctx).Model(&model.Feedback{}).Where("id = ?", id).Update("status", status).Error; err != nil {
		return nil, fmt.Errorf("update feedback %d: %w", id, err)
	}
	fb.Status = status

	if fb.User != nil {
		if err := s.notifier.NotifyFeedbackStatus(ctx, notify.FeedbackStatusEvent{
			FeedbackID:  fb.ID,
			AuthorEmail: fb.User.Email,
			Status:      string(status),
		}); err != nil {
			logging.Log.Warnf("queue feedback notification %d: %v", fb.ID, err)
		}
	}
	return &UpdateFeedbackStatusResult{Success: true, Message: "Feedback status updated.", UpdatedFeedback: toFeedbackDetail(fb)}, nil
}

// Delete removes a feedback entry. Admin only.
func (s *FeedbackService) Delete(ctx context.Context, id, actorID uint) (*StatusResult, error) {
	admin, err := isAdmin(ctx, s.db, actorID)
	if err != nil {
		return nil, err
	}
	if !admin {
		return &StatusResult{Message: "User is not authorized to delete feedback."}, nil
	}
	res := s.db.WithContext(ctx).Delete(&model.Feedback{}, id)
	if res.Error != nil {
		return nil, fmt.Errorf("delete feedback %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return &StatusResult{Message: "Feedback not found."}, nil
	}
	return &StatusResult{Success: true, Message: fmt.Sprintf("Feedback %d deleted.", id)}, nil
}
