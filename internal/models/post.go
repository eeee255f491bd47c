// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// Post is a user-authored entry in the activity feed.
type Post struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Body      string     `gorm:"type:text;not null" json:"body"`
	MediaURLs MediaList  `gorm:"type:text" json:"media_urls,omitempty"`
	Location  string     `json:"location,omitempty"`
	Category  string     `gorm:"index" json:"category,omitempty"`
	UserID    uint       `gorm:"not null;index" json:"user_id"`
	User      User       `gorm:"foreignKey:UserID" json:"user"`
	// LikeCount is not persisted; computed at query time
	LikeCount int `gorm:"->" json:"like_count"`
	// CommentCount is not persisted; computed at query time
	CommentCount int `gorm:"->" json:"comment_count"`
	ShareCount   int `gorm:"default:0" json:"share_count"`
	// Liked and Saved indicate the requesting user's relations (computed)
	Liked     bool           `gorm:"->" json:"liked"`
	Saved     bool           `gorm:"->" json:"saved"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Like marks that a user liked a post. At most one row per (user, post).
type Like struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_like_user_post" json:"user_id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_like_user_post;index" json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Save marks that a user saved a post. At most one row per (user, post).
type Save struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_save_user_post" json:"user_id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_save_user_post;index" json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}
