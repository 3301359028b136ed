package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/supertrooper/backend/internal/model"
)

type ContentService struct {
	db *gorm.DB
}

func NewContentService(db *gorm.DB) *ContentService {
	return &ContentService{db: db}
}

type ContentResult struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	ContentID int64  `json:"contentId"`
}

func encodeContent(v interface{}) (string, error) {
	switch m := v.(type) {
	case nil:
		return "{}", nil
	case map[string]interface{}:
		if len(m) == 0 {
			return "{}", nil
		}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", invalid("Content is not valid JSON: %v", err)
	}
	return string(b), nil
}

type CreateContentInput struct {
	UserID  uint
	Title   string
	Content map[string]interface{}
	Type    string
}

func (s *ContentService) Create(ctx context.Context, in CreateContentInput) (*ContentResult, error) {
	user, err := findUser(ctx, s.db, in.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.Role.CanPublish() {
		return &ContentResult{Message: "Unauthorized or user not found", ContentID: -1}, nil
	}
	postType := model.PostType(in.Type)
	if !postType.Valid() {
		return &ContentResult{Message: fmt.Sprintf("Invalid content type %s.", in.Type), ContentID: -1}, nil
	}
	body, err := encodeContent(in.Content)
	if err != nil {
		return nil, err
	}

	post := model.Post{Title: in.Title, Content: body, Type: postType, UserID: user.ID}
	if err := s.db.WithContext(ctx).Create(&post).Error; err != nil {
		return nil, fmt.Errorf("create content: %w", err)
	}
	return &ContentResult{Success: true, Message: "Content created successfully", ContentID: int64(post.ID)}, nil
}

type ContentView struct {
	ID        uint            `json:"id"`
	Title     string          `json:"title"`
	Content   json.RawMessage `json:"content"`
	Type      model.PostType  `json:"type"`
	CreatedAt time.Time       `json:"createdAt"`
	UserID    uint            `json:"userId"`
}

func rawContent(s string) json.RawMessage {
	if s == "" || !json.Valid([]byte(s)) {
		b, _ := json.Marshal(s)
		return b
	}
	return json.RawMessage(s)
}

func (s *ContentService) Fetch(ctx context.Context, id uint) (*ContentView, error) {
	var post model.Post
	if err := s.db.WithContext(ctx).First(&post, id).Error; err != nil {
		if isRecordNotFound(err) {
			return nil, notFound("Content not found with the given ID.")
		}
		return nil, err
	}
	return &ContentView{
		ID:        post.ID,
		Title:     post.Title,
		Content:   rawContent(post.Content),
		Type:      post.Type,
		CreatedAt: post.CreatedAt,
		UserID:    post.UserID,
	}, nil
}

type UpdateContentInput struct {
	UserID  uint
	Title   string
	Content map[string]interface{}
	Type    string
}

// Update rewrites a post. Only its author or an admin may do so.
func (s *ContentService) Update(ctx context.Context, id uint, in UpdateContentInput) (*ContentResult, error) {
	var post model.Post
	if err := s.db.WithContext(ctx).First(&post, id).Error; err != nil {
		if isRecordNotFound(err) {
			return &ContentResult{Message: "Content not found.", ContentID: int64(id)}, nil
		}
		return nil, err
	}
	actor, err := findUser(ctx, s.db, in.UserID)
	if err != nil {
		return nil, err
	}
	if actor == nil || (!actor.IsAdmin() && actor.ID != post.UserID) {
		return &ContentResult{Message: "User is not authorized to update this content.", ContentID: int64(id)}, nil
	}
	postType := model.PostType(in.Type)
	if !postType.Valid() {
		return &ContentResult{Message: fmt.Sprintf("Invalid content type %s.", in.Type), ContentID: int64(id)}, nil
	}
	body, err := encodeContent(in.Content)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Model(&post).Updates(map[string]interface{}{
		"title":   in.Title,
		"content": body,
		"type":    postType,
	}).Error
	if err != nil {
		return nil, fmt.Errorf("update content %d: %w", id, err)
	}
	return &ContentResult{Success: true, Message: "Content updated successfully", ContentID: int64(id)}, nil
}

// Delete removes a post and the feedback left on it.
func (s *ContentService) Delete(ctx context.Context, id uint) (*StatusResult, error) {
	var deleted int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&model.Feedback{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Post{}, id)
		deleted = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return nil, fmt.Errorf("delete content %d: %w", id, err)
	}
	if deleted == 0 {
		return &StatusResult{Message: "Content not found or you do not have the right permissions."}, nil
	}
	return &StatusResult{Success: true, Message: fmt.Sprintf("Content with ID %d was successfully deleted.", id)}, nil
}

type UploadContentInput struct {
	Title       string
	Description string
	Type        string
	Data        string
}

// Upload updates the post named by contentID when it is positive, otherwise
// creates a new post attached to the user's current portfolio.
func (s *ContentService) Upload(ctx context.Context, userID uint, contentID int64, in UploadContentInput) (*ContentResult, error) {
	user, err := findUser(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return &ContentResult{Message: "User not found.", ContentID: 0}, nil
	}
	postType := model.PostType(in.Type)
	if !postType.Valid() {
		return &ContentResult{Message: fmt.Sprintf("Invalid content type %s.", in.Type), ContentID: contentID}, nil
	}
	body, err := encodeContent(map[string]interface{}{"description": in.Description, "data": in.Data})
	if err != nil {
		return nil, err
	}

	if contentID > 0 {
		var post model.Post
		if err := s.db.WithContext(ctx).First(&post, contentID).Error; err != nil {
			if isRecordNotFound(err) {
				return &ContentResult{Message: "Content ID not found.", ContentID: contentID}, nil
			}
			return nil, err
		}
		if post.UserID != user.ID && !user.IsAdmin() {
			return &ContentResult{Message: "User is not authorized to update this content.", ContentID: contentID}, nil
		}
		err := s.db.WithContext(ctx).Model(&post).Updates(map[string]interface{}{
			"title":   in.Title,
			"content": body,
			"type":    postType,
		}).Error
		if err != nil {
			return nil, fmt.Errorf("update content %d: %w", contentID, err)
		}
		return &ContentResult{Success: true, Message: "Content updated successfully.", ContentID: contentID}, nil
	}

	post := model.Post{Title: in.Title, Content: body, Type: postType, UserID: user.ID}
	profile, err := findProfile(ctx, s.db, user.ID)
	if err != nil {
		return nil, err
	}
	if profile != nil {
		portfolio, err := currentPortfolio(ctx, s.db, profile.ID)
		if err != nil {
			return nil, err
		}
		if portfolio != nil {
			post.PortfolioID = &portfolio.ID
		}
	}
	if err := s.db.WithContext(ctx).Create(&post).Error; err != nil {
		return nil, fmt.Errorf("upload content: %w", err)
	}
	return &ContentResult{Success: true, Message: "Content uploaded successfully.", ContentID: int64(post.ID)}, nil
}
