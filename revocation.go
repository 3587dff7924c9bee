package main

import (
	"context"
	"time"

	"docman/models"

	"go.uber.org/zap"
)

// Revocation ledger: jti values of access tokens invalidated before their
// natural expiry. Verification checks membership; a sweeper drops entries
// whose expiry has passed, since the signature check rejects those tokens
// regardless of ledger state.

func revokeAccessToken(tokenID string, userID uint, expiresAt time.Time) error {
	entry := models.RevokedToken{TokenID: tokenID, UserID: userID, ExpiresAt: expiresAt}
	if err := db.Create(&entry).Error; err != nil {
		if isUniqueConstraintError(err) { // revoking twice is a no-op
			return nil
		}
		return err
	}
	return nil
}

func isAccessTokenRevoked(tokenID string) (bool, error) {
	var count int64
	err := db.Model(&models.RevokedToken{}).Where("token_id = ?", tokenID).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func purgeExpiredRevocations() (int64, error) {
	res := db.Where("expires_at <= ?", time.Now()).Delete(&models.RevokedToken{})
	return res.RowsAffected, res.Error
}

// startRevocationSweeper purges expired ledger entries on a fixed interval
// until ctx is cancelled.
func startRevocationSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				n, err := purgeExpiredRevocations()
				if err != nil {
					logger.Warn("revocation sweep failed", zap.Error(err))
					continue
				}
				if n > 0 {
					logger.Info("revocation sweep", zap.Int64("purged", n))
				}
			}
		}
	}()
}
