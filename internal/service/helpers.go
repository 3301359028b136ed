package service

import (
	"context"

	"gorm.io/gorm"

	"github.com/supertrooper/backend/internal/model"
)

// findUser returns nil without error when the user does not exist.
func findUser(ctx context.Context, db *gorm.DB, id uint) (*model.User, error) {
	var user model.User
	if err := db.WithContext(ctx).First(&user, id).Error; err != nil {
		if isRecordNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func findProject(ctx context.Context, db *gorm.DB, id uint) (*model.Project, error) {
	var project model.Project
	if err := db.WithContext(ctx).First(&project, id).Error; err != nil {
		if isRecordNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &project, nil
}

func findProfile(ctx context.Context, db *gorm.DB, userID uint) (*model.Profile, error) {
	var profile model.Profile
	if err := db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		if isRecordNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

// currentPortfolio is the oldest portfolio of the profile.
func currentPortfolio(ctx context.Context, db *gorm.DB, profileID uint) (*model.Portfolio, error) {
	var portfolio model.Portfolio
	if err := db.WithContext(ctx).Where("profile_id = ?", profileID).Order("id").First(&portfolio).Error; err != nil {
		if isRecordNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &portfolio, nil
}

func isAdmin(ctx context.Context, db *gorm.DB, userID uint) (bool, error) {
	if userID == 0 {
		return false, nil
	}
	user, err := findUser(ctx, db, userID)
	if err != nil || user == nil {
		return false, err
	}
	return user.IsAdmin(), nil
}

// deleteProjectTree removes a project with its tasks and memberships.
func deleteProjectTree(tx *gorm.DB, projectID uint) error {
	if err := tx.Where("project_id = ?", projectID).Delete(&model.Task{}).Error; err != nil {
		return err
	}
	if err := tx.Where("project_id = ?", projectID).Delete(&model.ProjectMember{}).Error; err != nil {
		return err
	}
	return tx.Delete(&model.Project{}, projectID).Error
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
