package service

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/supertrooper/backend/internal/model"
	"github.com/supertrooper/backend/pkg/encrypt"
	jwtpkg "github.com/supertrooper/backend/pkg/jwt"
)

type PortfolioService struct {
	db            *gorm.DB
	jwtSecret     string
	aesKey        string
	publicBaseURL string
}

func NewPortfolioService(db *gorm.DB, jwtSecret, aesKey, publicBaseURL string) *PortfolioService {
	return &PortfolioService{
		db:            db,
		jwtSecret:     jwtSecret,
		aesKey:        aesKey,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

type CreatePortfolioInput struct {
	UserID      uint
	Title       string
	Description string
	AuthToken   string
}

type CreatePortfolioResult struct {
	Success     bool   `json:"success"`
	PortfolioID uint   `json:"portfolio_id"`
	Message     string `json:"message"`
	Link        string `json:"link"`
}

// tokenAllows reports whether the bearer of token may act for userID.
func (s *PortfolioService) tokenAllows(token string, userID uint) bool {
	claims, err := jwtpkg.ParseToken(s.jwtSecret, token)
	if err != nil {
		return false
	}
	return claims.UserID == userID || model.Role(claims.Role) == model.RoleAdmin
}

func (s *PortfolioService) Create(ctx context.Context, in CreatePortfolioInput) (*CreatePortfolioResult, error) {
	if !s.tokenAllows(in.AuthToken, in.UserID) {
		return &CreatePortfolioResult{Message: "Invalid authentication token."}, nil
	}
	user, err := findUser(ctx, s.db, in.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return &CreatePortfolioResult{Message: "User not found."}, nil
	}
	profile, err := findProfile(ctx, s.db, user.ID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return &CreatePortfolioResult{Message: "User profile not found."}, nil
	}

	portfolio := model.Portfolio{ProfileID: profile.ID, Title: in.Title, Description: in.Description}
	if err := s.db.WithContext(ctx).Create(&portfolio).Error; err != nil {
		return nil, fmt.Errorf("create portfolio: %w", err)
	}
	link, err := s.ShareLink(portfolio.ID)
	if err != nil {
		return nil, err
	}
	return &CreatePortfolioResult{
		Success:     true,
		PortfolioID: portfolio.ID,
		Message:     "Portfolio created successfully.",
		Link:        link,
	}, nil
}

// ShareLink builds the public URL of a portfolio.
func (s *PortfolioService) ShareLink(portfolioID uint) (string, error) {
	token, err := encrypt.ShareToken(s.aesKey, portfolioID)
	if err != nil {
		return "", fmt.Errorf("share token: %w", err)
	}
	return fmt.Sprintf("%s/public/portfolios/%s", s.publicBaseURL, token), nil
}

type PortfolioView struct {
	PortfolioID    uint            `json:"portfolio_id"`
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	ContentDetails map[uint]string `json:"contentDetails"`
}

type UserPortfolios struct {
	UserID     uint            `json:"userId"`
	Portfolios []PortfolioView `json:"portfolios"`
}

func toPortfolioView(p model.Portfolio) PortfolioView {
	details := make(map[uint]string, len(p.Posts))
	for _, post := range p.Posts {
		details[post.ID] = post.Title
	}
	return PortfolioView{PortfolioID: p.ID, Title: p.Title, Description: p.Description, ContentDetails: details}
}

func (s *PortfolioService) Get(ctx context.Context, userID uint) (*UserPortfolios, error) {
	result := &UserPortfolios{UserID: userID, Portfolios: make([]PortfolioView, 0)}
	profile, err := findProfile(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return result, nil
	}

	var portfolios []model.Portfolio
	if err := s.db.WithContext(ctx).Preload("Posts", byID).
		Where("profile_id = ?", profile.ID).Order("id").Find(&portfolios).Error; err != nil {
		return nil, err
	}
	for _, p := range portfolios {
		result.Portfolios = append(result.Portfolios, toPortfolioView(p))
	}
	return result, nil
}

type SharedPortfolio struct {
	PortfolioView
	UserID uint `json:"userId"`
}

// Shared resolves a public share token.
func (s *PortfolioService) Shared(ctx context.Context, token string) (*SharedPortfolio, error) {
	id, err := encrypt.ParseShareToken(s.aesKey, token)
	if err != nil {
		return nil, notFound("Portfolio not found.")
	}
	var portfolio model.Portfolio
	if err := s.db.WithContext(ctx).Preload("Posts", byID).First(&portfolio, id).Error; err != nil {
		if isRecordNotFound(err) {
			return nil, notFound("Portfolio not found.")
		}
		return nil, err
	}
	var profile model.Profile
	if err := s.db.WithContext(ctx).First(&profile, portfolio.ProfileID).Error; err != nil {
		return nil, err
	}
	return &SharedPortfolio{PortfolioView: toPortfolioView(portfolio), UserID: profile.UserID}, nil
}

type ContentItem struct {
	ContentID   uint   `json:"contentId"`
	ContentData string `json:"contentData"`
	ContentType string `json:"contentType"`
}

type UpdatePortfolioInput struct {
	Title        string
	Description  *string
	ContentItems []ContentItem
}

type UpdatePortfolioResult struct {
	Updated      bool          `json:"updated"`
	UpdatedItems []ContentItem `json:"updatedItems"`
}

// Update rewrites the user's current portfolio and upserts its content items.
// Items naming a post the user does not own become new posts.
func (s *PortfolioService) Update(ctx context.Context, userID uint, in UpdatePortfolioInput) (*UpdatePortfolioResult, error) {
	notUpdated := &UpdatePortfolioResult{Updated: false, UpdatedItems: []ContentItem{}}
	for _, item := range in.ContentItems {
		if !model.PostType(item.ContentType).Valid() {
			return nil, invalid("Invalid content type %s.", item.ContentType)
		}
	}

	profile, err := findProfile(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return notUpdated, nil
	}
	portfolio, err := currentPortfolio(ctx, s.db, profile.ID)
	if err != nil {
		return nil, err
	}
	if portfolio == nil {
		return notUpdated, nil
	}

	items := make([]ContentItem, 0, len(in.ContentItems))
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{"title": in.Title}
		if in.Description != nil {
			updates["description"] = *in.Description
		}
		if err := tx.Model(portfolio).Updates(updates).Error; err != nil {
			return err
		}

		for _, item := range in.ContentItems {
			body, err := encodeContent(item.ContentData)
			if err != nil {
				return err
			}
			var post model.Post
			err = tx.Where("id = ? AND user_id = ?", item.ContentID, userID).First(&post).Error
			switch {
			case err == nil:
				if err := tx.Model(&post).Updates(map[string]interface{}{
					"title":        in.Title,
					"content":      body,
					"type":         item.ContentType,
					"portfolio_id": portfolio.ID,
				}).Error; err != nil {
					return err
				}
			case isRecordNotFound(err):
				post = model.Post{
					Title:       in.Title,
					Content:     body,
					Type:        model.PostType(item.ContentType),
					UserID:      userID,
					PortfolioID: &portfolio.ID,
				}
				if err := tx.Create(&post).Error; err != nil {
					return err
				}
			default:
				return err
			}
			items = append(items, ContentItem{ContentID: post.ID, ContentData: item.ContentData, ContentType: item.ContentType})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update portfolio of user %d: %w", userID, err)
	}
	return &UpdatePortfolioResult{Updated: true, UpdatedItems: items}, nil
}

// Delete removes every portfolio of the user's profile. Attached posts are
// kept and detached.
func (s *PortfolioService) Delete(ctx context.Context, userID uint) (*MessageResult, error) {
	profile, err := findProfile(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return &MessageResult{Message: "User profile or portfolio does not exist."}, nil
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ids := tx.Model(&model.Portfolio{}).Select("id").Where("profile_id = ?", profile.ID)
		if err := tx.Model(&model.Post{}).Where("portfolio_id IN (?)", ids).Update("portfolio_id", nil).Error; err != nil {
			return err
		}
		return tx.Where("profile_id = ?", profile.ID).Delete(&model.Portfolio{}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("delete portfolios of user %d: %w", userID, err)
	}
	return &MessageResult{Message: "User's portfolio successfully deleted.", Done: true}, nil
}
