package models

import "time"

// RevokedToken is a ledger entry for an access token invalidated before its
// natural expiry (logout, forced invalidation). An entry only needs to
// outlive its token: once ExpiresAt passes, signature verification rejects
// the token anyway and the row can be purged.
type RevokedToken struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time
	TokenID   string    `gorm:"size:64;not null;uniqueIndex"`
	UserID    uint      `gorm:"index"`
	ExpiresAt time.Time `gorm:"index;not null"`
}
