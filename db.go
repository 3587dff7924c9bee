package main

import (
	"strings"

	"docman/models"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var db *gorm.DB

func initDB(cfg *Config) {
	var err error
	db, err = gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		logger.Fatal("failed to connect postgres database", zap.Error(err))
	}
	migrateAndSeed(cfg)
}

func migrateAndSeed(cfg *Config) {
	if cfg.AutoMigrate {
		// Migrate models individually so a failure on one doesn't block others
		if err := db.AutoMigrate(&models.User{}); err != nil {
			logger.Warn("migration warning (users)", zap.Error(err))
		}
		if err := db.AutoMigrate(&models.RevokedToken{}); err != nil {
			logger.Warn("migration warning (revoked_tokens)", zap.Error(err))
		}
		if err := db.AutoMigrate(&models.Document{}); err != nil {
			logger.Warn("migration warning (documents)", zap.Error(err))
		}
	}
	seedDB()
}

// seedDB makes a fresh install administrable: if no superadmin exists yet,
// create one with a well-known password that must be rotated immediately.
func seedDB() {
	var count int64
	db.Model(&models.User{}).Where("role = ?", models.RoleSuperadmin).Count(&count)
	if count > 0 {
		return
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
	if err != nil {
		logger.Warn("failed to hash seed password", zap.Error(err))
		return
	}
	admin := models.User{
		Email:        "admin@example.com",
		Username:     "admin",
		FirstName:    "Admin",
		Role:         models.RoleSuperadmin,
		PasswordHash: hashed,
	}
	if err := db.Create(&admin).Error; err != nil {
		logger.Warn("failed to seed superadmin", zap.Error(err))
		return
	}
	logger.Info("seeded superadmin user", zap.String("username", admin.Username))
}

func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "duplicate key") || strings.Contains(s, "unique constraint") || strings.Contains(s, "UNIQUE constraint") || strings.Contains(s, "already exists")
}
