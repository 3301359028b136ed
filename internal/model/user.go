package model

import "time"

type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
	RoleGuest Role = "GUEST"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleUser, RoleGuest:
		return true
	}
	return false
}

// CanPublish reports whether the role may author content and feedback.
func (r Role) CanPublish() bool {
	return r == RoleAdmin || r == RoleUser
}

type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(128);not null;default:''" json:"name"`
	Email     string    `gorm:"type:varchar(191);not null;uniqueIndex:uk_users_email" json:"email"`
	Password  string    `gorm:"type:varchar(255);not null" json:"-"`
	Role      Role      `gorm:"type:varchar(10);not null;default:USER;index:idx_users_role" json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Profile  *Profile  `gorm:"foreignKey:UserID" json:"profile,omitempty"`
	Projects []Project `gorm:"foreignKey:UserID" json:"projects,omitempty"`
}

func (User) TableName() string { return "users" }

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

type UserBrief struct {
	ID    uint   `json:"id"`
	Email string `json:"email"`
}

func (u *User) Brief() UserBrief {
	return UserBrief{ID: u.ID, Email: u.Email}
}
