package service

import (
	"testing"

	"github.com/Naykiry/webdev-exam-2025/internal/db"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) (*gorm.DB, func()) {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}

	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}

	return gdb, func() {
		sqlDB, err := gdb.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
}

func createTestBook(t *testing.T, gdb *gorm.DB, title string) db.Book {
	t.Helper()

	book := db.Book{
		Title:       title,
		Description: "Описание книги " + title,
		Year:        2020,
		Publisher:   "Тестовое издательство",
		Author:      "Тестовый Автор",
		Pages:       200,
	}
	if err := gdb.Create(&book).Error; err != nil {
		t.Fatalf("failed to create book %q: %v", title, err)
	}
	return book
}

func createTestUser(t *testing.T, gdb *gorm.DB, username, roleName string) db.User {
	t.Helper()

	var role db.Role
	if err := gdb.Where("name = ?", roleName).First(&role).Error; err != nil {
		t.Fatalf("failed to load role %q: %v", roleName, err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := db.User{
		Username:     username,
		PasswordHash: string(hashed),
		LastName:     "Тестов",
		FirstName:    "Тест",
		RoleID:       role.ID,
	}
	if err := gdb.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user %q: %v", username, err)
	}
	return user
}
