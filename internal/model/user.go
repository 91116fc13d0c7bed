// Package model defines database models
package model

import "time"

// Asset points at an object stored on the image host
type Asset struct {
	PublicID string `json:"public_id"`
	URL      string `json:"url"`
}

type User struct {
	ID       string `gorm:"primaryKey" json:"id"`
	FullName string `gorm:"not null" json:"fullName"`
	Email    string `gorm:"uniqueIndex;not null" json:"email"` // Always stored lowercased
	Phone    string `json:"phone"`
	AboutMe  string `json:"aboutMe"`

	// Only ever written by the user store, which hashes on the way in
	PasswordHash string `gorm:"not null" json:"-"`

	Avatar Asset `gorm:"embedded;embeddedPrefix:avatar_" json:"avatar"`
	Resume Asset `gorm:"embedded;embeddedPrefix:resume_" json:"resume"`

	PortfolioURL string `json:"portfolioURL"`
	GithubURL    string `json:"githubURL"`
	InstagramURL string `json:"instagramURL"`
	TwitterURL   string `json:"twitterURL"`
	LinkedInURL  string `json:"linkedInURL"`
	FacebookURL  string `json:"facebookURL"`

	// Both set together or both nil
	ResetTokenHash   *string    `gorm:"index" json:"-"`
	ResetTokenExpiry *time.Time `json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
