package model

import "time"

type Profile struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	UserID uint   `gorm:"not null;uniqueIndex:uk_profiles_user" json:"user_id"`
	Bio    string `gorm:"type:text" json:"bio"`
	Avatar string `gorm:"type:varchar(512);not null;default:''" json:"avatar"`

	Portfolios []Portfolio `gorm:"foreignKey:ProfileID" json:"portfolios,omitempty"`
}

func (Profile) TableName() string { return "profiles" }

type Portfolio struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ProfileID   uint      `gorm:"not null;index:idx_portfolios_profile" json:"profile_id"`
	Title       string    `gorm:"type:varchar(255);not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Posts []Post `gorm:"foreignKey:PortfolioID" json:"posts,omitempty"`
}

func (Portfolio) TableName() string { return "portfolios" }
