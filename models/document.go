package models

import "time"

// Document is the business entity behind the protected routes. The document
// CRUD surface itself is thin plumbing; it exists here so the middleware
// chain has something real to guard.
type Document struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `gorm:"index" json:"-"`
	Title     string     `gorm:"size:255;not null" json:"title"`
	Content   string     `gorm:"type:text" json:"content"`
	Category  string     `gorm:"size:128;index" json:"category"`
	OwnerID   uint       `gorm:"index;not null" json:"owner_id"`
}
