package models

import "time"

// User is the credential record: identity, ordered role, password hash and
// the hash of the currently live refresh token.
type User struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"-"`
	DeletedAt *time.Time `gorm:"index" json:"-"`
	Email     string     `gorm:"size:255;not null;uniqueIndex" json:"email"`
	Username  string     `gorm:"size:255;not null;uniqueIndex" json:"username"`
	FirstName string     `gorm:"size:255" json:"firstname"`
	LastName  string     `gorm:"size:255" json:"lastname"`
	Role      Role       `gorm:"size:32;not null;default:viewer" json:"role"`

	PasswordHash []byte `gorm:"not null" json:"-"`
	// RefreshTokenHash is the bcrypt hash of the one live refresh token.
	// Rotation overwrites it in place; nil means no active session.
	RefreshTokenHash *string `gorm:"size:128" json:"-"`

	ResetTokenHash      *string    `gorm:"size:128;index" json:"-"`
	ResetTokenExpiresAt *time.Time `json:"-"`

	Documents []Document `gorm:"foreignKey:OwnerID" json:"-"`
}
