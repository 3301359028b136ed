package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/supertrooper/backend/internal/model"
	jwtpkg "github.com/supertrooper/backend/pkg/jwt"
)

var passwordCost = bcrypt.DefaultCost

func hashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), passwordCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

type UserService struct {
	db        *gorm.DB
	jwtSecret string
	jwtExpire int
}

func NewUserService(db *gorm.DB, jwtSecret string, jwtExpire int) *UserService {
	return &UserService{db: db, jwtSecret: jwtSecret, jwtExpire: jwtExpire}
}

type CreateUserInput struct {
	Name     string
	Email    string
	Password string
}

type CreateUserResult struct {
	UserID    uint      `json:"user_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Create registers a user together with an empty profile.
func (s *UserService) Create(ctx context.Context, in CreateUserInput) (*CreateUserResult, error) {
	email := strings.TrimSpace(in.Email)
	var count int64
	if err := s.db.WithContext(ctx).Model(&model.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, emailTaken(email)
	}

	hashed, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user := model.User{Name: in.Name, Email: email, Password: hashed, Role: model.RoleUser}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		return tx.Create(&model.Profile{UserID: user.ID, Bio: "", Avatar: ""}).Error
	})
	if isDuplicateKey(err) {
		return nil, emailTaken(email)
	}
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &CreateUserResult{UserID: user.ID, Name: user.Name, Email: user.Email, CreatedAt: user.CreatedAt}, nil
}

type AuthResult struct {
	Success  bool       `json:"success"`
	Message  string     `json:"message"`
	Token    string     `json:"token,omitempty"`
	ExpireAt *time.Time `json:"expire_at,omitempty"`
	UserID   uint       `json:"user_id,omitempty"`
	Role     model.Role `json:"role,omitempty"`
}

func (s *UserService) Authenticate(ctx context.Context, email, password string) (*AuthResult, error) {
	var user model.User
	if err := s.db.WithContext(ctx).Where("email = ?", strings.TrimSpace(email)).First(&user).Error; err != nil {
		if isRecordNotFound(err) {
			return &AuthResult{Message: "Invalid email or password."}, nil
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return &AuthResult{Message: "Invalid email or password."}, nil
	}
	token, expireAt, err := jwtpkg.GenerateToken(s.jwtSecret, user.ID, string(user.Role), s.jwtExpire)
	if err != nil {
		return nil, err
	}
	return &AuthResult{
		Success:  true,
		Message:  "Authentication successful.",
		Token:    token,
		ExpireAt: &expireAt,
		UserID:   user.ID,
		Role:     user.Role,
	}, nil
}

func (s *UserService) RefreshToken(ctx context.Context, userID uint) (string, time.Time, error) {
	user, err := findUser(ctx, s.db, userID)
	if err != nil {
		return "", time.Time{}, err
	}
	if user == nil {
		return "", time.Time{}, notFound("No user found with provided ID")
	}
	return jwtpkg.GenerateToken(s.jwtSecret, user.ID, string(user.Role), s.jwtExpire)
}

type PortfolioSummary struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type ProfileView struct {
	Bio       string             `json:"bio"`
	Avatar    string             `json:"avatar"`
	Portfolio []PortfolioSummary `json:"portfolio"`
}

type ProjectSummary struct {
	ID     uint                `json:"id"`
	Name   string              `json:"name"`
	Status model.ProjectStatus `json:"status"`
}

type UserDetail struct {
	ID       uint             `json:"id"`
	Email    string           `json:"email"`
	Name     string           `json:"name"`
	Role     model.Role       `json:"role"`
	Profile  *ProfileView     `json:"profile"`
	Projects []ProjectSummary `json:"projects"`
}

func (s *UserService) Get(ctx context.Context, id uint) (*UserDetail, error) {
	var user model.User
	err := s.db.WithContext(ctx).
		Preload("Profile.Portfolios", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Projects", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		First(&user, id).Error
	if err != nil {
		if isRecordNotFound(err) {
			return nil, notFound("No user found with provided ID")
		}
		return nil, err
	}

	detail := &UserDetail{
		ID:       user.ID,
		Email:    user.Email,
		Name:     user.Name,
		Role:     user.Role,
		Projects: make([]ProjectSummary, 0, len(user.Projects)),
	}
	if user.Profile != nil {
		view := &ProfileView{Bio: user.Profile.Bio, Avatar: user.Profile.Avatar, Portfolio: make([]PortfolioSummary, 0)}
		for _, p := range user.Profile.Portfolios {
			view.Portfolio = append(view.Portfolio, PortfolioSummary{Title: p.Title, Description: p.Description})
		}
		detail.Profile = view
	}
	for _, p := range user.Projects {
		detail.Projects = append(detail.Projects, ProjectSummary{ID: p.ID, Name: p.Name, Status: p.Status})
	}
	return detail, nil
}

type UserProfileItem struct {
	UserID uint       `json:"user_id"`
	Email  string     `json:"email"`
	Role   model.Role `json:"role"`
	Bio    string     `json:"bio"`
	Avatar string     `json:"avatar"`
}

type ListUsersResult struct {
	Profiles []UserProfileItem `json:"profiles"`
}

// List returns profiles of users matching the role and, when status is set,
// owning at least one project in that status.
func (s *UserService) List(ctx context.Context, role, status string) (*ListUsersResult, error) {
	query := s.db.WithContext(ctx).Model(&model.User{}).Preload("Profile")
	if role != "" {
		if !model.Role(role).Valid() {
			return nil, invalid("Invalid role %s.", role)
		}
		query = query.Where("role = ?", role)
	}
	if status != "" {
		if !model.ProjectStatus(status).Valid() {
			return nil, invalid("Invalid project status %s.", status)
		}
		query = query.Where("id IN (SELECT user_id FROM projects WHERE status = ?)", status)
	}

	var users []model.User
	if err := query.Order("id").Find(&users).Error; err != nil {
		return nil, err
	}
	result := &ListUsersResult{Profiles: make([]UserProfileItem, 0, len(users))}
	for _, u := range users {
		if u.Profile == nil {
			continue
		}
		result.Profiles = append(result.Profiles, UserProfileItem{
			UserID: u.ID, Email: u.Email, Role: u.Role, Bio: u.Profile.Bio, Avatar: u.Profile.Avatar,
		})
	}
	return result, nil
}

type UpdateUserInput struct {
	Name     *string
	Email    *string
	Password *string
	Bio      *string
	Avatar   *string
}

type UpdateUserResult struct {
	Success       bool     `json:"success"`
	UserID        uint     `json:"userId"`
	UpdatedFields []string `json:"updatedFields"`
}

func supplied(v *string) bool { return v != nil && *v != "" }

// Update applies only the supplied, non-empty fields.
func (s *UserService) Update(ctx context.Context, id uint, in UpdateUserInput) (*UpdateUserResult, error) {
	user, err := findUser(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return &UpdateUserResult{Success: false, UserID: id, UpdatedFields: []string{}}, nil
	}

	userUpdates := map[string]interface{}{}
	profileUpdates := map[string]interface{}{}
	fields := make([]string, 0, 5)

	if supplied(in.Name) && *in.Name != user.Name {
		userUpdates["name"] = *in.Name
		fields = append(fields, "name")
	}
	if supplied(in.Email) && *in.Email != user.Email {
		var count int64
		if err := s.db.WithContext(ctx).Model(&model.User{}).Where("email = ? AND id <> ?", *in.Email, id).Count(&count).Error; err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, emailTaken(*in.Email)
		}
		userUpdates["email"] = *in.Email
		fields = append(fields, "email")
	}
	if supplied(in.Password) {
		hashed, err := hashPassword(*in.Password)
		if err != nil {
			return nil, err
		}
		userUpdates["password"] = hashed
		fields = append(fields, "password")
	}

	profile, err := findProfile(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if profile != nil {
		if supplied(in.Bio) {
			profileUpdates["bio"] = *in.Bio
			fields = append(fields, "bio")
		}
		if supplied(in.Avatar) {
			profileUpdates["avatar"] = *in.Avatar
			fields = append(fields, "avatar")
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(userUpdates) > 0 {
			if err := tx.Model(&model.User{}).Where("id = ?", id).Updates(userUpdates).Error; err != nil {
				return err
			}
		}
		if len(profileUpdates) > 0 {
			if err := tx.Model(&model.Profile{}).Where("id = ?", profile.ID).Updates(profileUpdates).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if isDuplicateKey(err) && in.Email != nil {
		return nil, emailTaken(*in.Email)
	}
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return &UpdateUserResult{Success: true, UserID: id, UpdatedFields: fields}, nil
}

// Delete removes a user and everything that hangs off it. Only admins may
// delete users.
func (s *UserService) Delete(ctx context.Context, id, actorID uint) (*StatusResult, error) {
	admin, err := isAdmin(ctx, s.db, actorID)
	if err != nil {
		return nil, err
	}
	if !admin {
		return &StatusResult{Message: "User is not authorized to delete users."}, nil
	}
	user, err := findUser(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return &StatusResult{Message: "User not found."}, nil
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		postIDs := tx.Model(&model.Post{}).Select("id").Where("user_id = ?", id)
		if err := tx.Where("user_id = ? OR post_id IN (?)", id, postIDs).Delete(&model.Feedback{}).Error; err != nil {
			return err
		}

		var profileIDs []uint
		if err := tx.Model(&model.Profile{}).Where("user_id = ?", id).Pluck("id", &profileIDs).Error; err != nil {
			return err
		}
		if len(profileIDs) > 0 {
			portfolioIDs := tx.Model(&model.Portfolio{}).Select("id").Where("profile_id IN ?", profileIDs)
			if err := tx.Model(&model.Post{}).Where("portfolio_id IN (?)", portfolioIDs).
				Update("portfolio_id", nil).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("user_id = ?", id).Delete(&model.Post{}).Error; err != nil {
			return err
		}
		if len(profileIDs) > 0 {
			if err := tx.Where("profile_id IN ?", profileIDs).Delete(&model.Portfolio{}).Error; err != nil {
				return err
			}
			if err := tx.Where("id IN ?", profileIDs).Delete(&model.Profile{}).Error; err != nil {
				return err
			}
		}

		if err := tx.Where("user_id = ?", id).Delete(&model.ProjectMember{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.Task{}).Where("assignee_id = ?", id).Update("assignee_id", nil).Error; err != nil {
			return err
		}
		var owned []uint
		if err := tx.Model(&model.Project{}).Where("user_id = ?", id).Pluck("id", &owned).Error; err != nil {
			return err
		}
		for _, pid := range owned {
			if err := deleteProjectTree(tx, pid); err != nil {
				return err
			}
		}
		return tx.Delete(&model.User{}, id).Error
	})
	if err != nil {
		return nil, fmt.Errorf("delete user %d: %w", id, err)
	}
	return &StatusResult{Success: true, Message: fmt.Sprintf("User %d and related records were deleted.", id)}, nil
}
