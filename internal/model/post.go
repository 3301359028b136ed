package model

import "time"

type PostType string

const (
	PostText  PostType = "TEXT"
	PostImage PostType = "IMAGE"
	PostVideo PostType = "VIDEO"
	PostAudio PostType = "AUDIO"
)

func (t PostType) Valid() bool {
	switch t {
	case PostText, PostImage, PostVideo, PostAudio:
		return true
	}
	return false
}

// Post is a stored content item. Content holds the JSON document supplied
// by the author.
type Post struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"type:varchar(255);not null" json:"title"`
	Content     string    `gorm:"type:text" json:"content"`
	Type        PostType  `gorm:"type:varchar(10);not null" json:"type"`
	UserID      uint      `gorm:"not null;index:idx_posts_user" json:"user_id"`
	PortfolioID *uint     `gorm:"index:idx_posts_portfolio" json:"portfolio_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (Post) TableName() string { return "posts" }
