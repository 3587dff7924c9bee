package main

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"docman/models"
	"docman/pkg/token"

	"golang.org/x/crypto/bcrypt"
)

const resetTokenTTL = 20 * time.Minute

// RegisterInput carries the fields accepted at registration.
type RegisterInput struct {
	Email     string
	FirstName string
	LastName  string
	Username  string
	Password  string
	Role      string
}

// RegisterUser creates a credential record. The requested role must be a
// known one; absent, new users start as viewers.
func RegisterUser(in RegisterInput) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	username := strings.TrimSpace(in.Username)

	role := models.RoleViewer
	if in.Role != "" {
		r, ok := models.ParseRole(in.Role)
		if !ok {
			return nil, ErrValidation
		}
		role = r
	}

	// pre-check existing (optimistic)
	var existing models.User
	if err := db.Where("email = ? OR username = ?", email, username).First(&existing).Error; err == nil {
		return nil, ErrAlreadyExists
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Email:        email,
		Username:     username,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Role:         role,
		PasswordHash: hashed,
	}
	if err := db.Create(&user).Error; err != nil {
		if isUniqueConstraintError(err) { // race condition after initial check
			return nil, ErrAlreadyExists
		}
		return nil, err
	}
	return &user, nil
}

// Authenticate checks email+password. Unknown email and wrong password fail
// the same way so the endpoint can't be used to probe for accounts.
func Authenticate(email, password string) (*models.User, error) {
	var user models.User
	if err := db.Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error; err != nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

// startSession mints a refresh token for user and stores its hash,
// superseding whatever session the record held before. Returns the
// plaintext for the cookie.
func startSession(user *models.User) (string, error) {
	plain, hash, err := token.NewRefreshToken()
	if err != nil {
		return "", err
	}
	if err := db.Model(&models.User{}).Where("id = ?", user.ID).Update("refresh_token_hash", hash).Error; err != nil {
		return "", err
	}
	return plain, nil
}

// findSessionOwner scans users holding a live refresh hash and compares the
// presented plaintext against each stored hash. Linear in active sessions;
// acceptable at this scale. A lookup key column would make this O(1) if the
// session count ever hurts.
func findSessionOwner(plaintext string) (*models.User, bool) {
	var candidates []models.User
	if err := db.Where("refresh_token_hash IS NOT NULL").Find(&candidates).Error; err != nil {
		return nil, false
	}
	for i := range candidates {
		if token.CheckRefreshToken(*candidates[i].RefreshTokenHash, plaintext) {
			return &candidates[i], true
		}
	}
	return nil, false
}

// rotateRefreshToken exchanges a valid refresh token for a new access/refresh
// pair. The overwrite is conditional on the old hash still being in place, so
// two concurrent presentations of the same token get exactly one winner; the
// loser sees ErrInvalidRefreshToken, never a 500.
func rotateRefreshToken(issuer *token.Issuer, plaintext string) (access, newRefresh string, user *models.User, err error) {
	owner, ok := findSessionOwner(plaintext)
	if !ok {
		return "", "", nil, ErrInvalidRefreshToken
	}

	newPlain, newHash, err := token.NewRefreshToken()
	if err != nil {
		return "", "", nil, err
	}

	res := db.Model(&models.User{}).
		Where("id = ? AND refresh_token_hash = ?", owner.ID, *owner.RefreshTokenHash).
		Update("refresh_token_hash", newHash)
	if res.Error != nil {
		return "", "", nil, res.Error
	}
	if res.RowsAffected == 0 {
		// lost a concurrent rotation; the presented token is already superseded
		return "", "", nil, ErrInvalidRefreshToken
	}

	access, _, err = issuer.IssueAccess(owner.ID, string(owner.Role))
	if err != nil {
		return "", "", nil, err
	}
	return access, newPlain, owner, nil
}

// clearRefreshToken drops the stored hash for the session owning plaintext.
// No token, or no matching session, is fine: logout is idempotent.
func clearRefreshToken(plaintext string) {
	if plaintext == "" {
		return
	}
	owner, ok := findSessionOwner(plaintext)
	if !ok {
		return
	}
	db.Model(&models.User{}).Where("id = ?", owner.ID).Update("refresh_token_hash", nil)
}

// createResetToken mints a password-reset token for user and stores its
// SHA-256 with an expiry. The plaintext goes out by email only.
func createResetToken(user *models.User) (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	plain := hex.EncodeToString(b)
	sum := sha256.Sum256([]byte(plain))
	expires := time.Now().Add(resetTokenTTL)

	err := db.Model(&models.User{}).Where("id = ?", user.ID).Updates(map[string]interface{}{
		"reset_token_hash":       hex.EncodeToString(sum[:]),
		"reset_token_expires_at": expires,
	}).Error
	if err != nil {
		return "", err
	}
	return plain, nil
}

// resetPassword consumes a reset token and replaces the password hash. The
// stored refresh hash is cleared too, so cookies issued before the reset
// cannot mint new access tokens.
func resetPassword(plainToken, newPassword string) error {
	sum := sha256.Sum256([]byte(plainToken))
	var user models.User
	if err := db.Where("reset_token_hash = ?", hex.EncodeToString(sum[:])).First(&user).Error; err != nil {
		return ErrResetToken
	}
	if user.ResetTokenExpiresAt == nil || time.Now().After(*user.ResetTokenExpiresAt) {
		return ErrResetToken
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return db.Model(&models.User{}).Where("id = ?", user.ID).Updates(map[string]interface{}{
		"password_hash":          hashed,
		"reset_token_hash":       nil,
		"reset_token_expires_at": nil,
		"refresh_token_hash":     nil,
	}).Error
}
