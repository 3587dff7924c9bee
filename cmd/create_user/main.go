package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"docman/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if len(os.Args) < 4 {
		fmt.Println("usage: go run ./cmd/create_user <email> <username> <password> [role]")
		os.Exit(2)
	}
	emailArg := strings.ToLower(os.Args[1])
	username := os.Args[2]
	password := os.Args[3]

	role := models.RoleViewer
	if len(os.Args) > 4 {
		r, ok := models.ParseRole(os.Args[4])
		if !ok {
			log.Fatalf("unknown role %q", os.Args[4])
		}
		role = r
	}

	dsn := os.Getenv("DB_DSN")
	if strings.TrimSpace(dsn) == "" {
		log.Fatal("DB_DSN not set in environment")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}

	// check existing
	var existing models.User
	if err := db.Where("email = ? OR username = ?", emailArg, username).First(&existing).Error; err == nil {
		fmt.Printf("user %s already exists (id=%d)\n", existing.Username, existing.ID)
		os.Exit(0)
	}

	hpw, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("bcrypt failed: %v", err)
	}
	user := models.User{Email: emailArg, Username: username, PasswordHash: hpw, Role: role}
	if err := db.Create(&user).Error; err != nil {
		log.Fatalf("failed to create user: %v", err)
	}
	fmt.Printf("created user %s id=%d role=%s\n", username, user.ID, user.Role)
}
