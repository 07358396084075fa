package db

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// 系统内置角色名称。
const (
	RoleAdmin     = "Администратор"
	RoleModerator = "Модератор"
	RoleUser      = "Пользователь"
)

// Role 定义了用户角色模型
type Role struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"size:64;unique;not null"`
	Description string `gorm:"not null"`
	Users       []User
}

// User 定义了用户模型
type User struct {
	gorm.Model
	Username     string `gorm:"size:64;unique;not null"`
	PasswordHash string `gorm:"size:128;not null"`
	LastName     string `gorm:"size:64;not null"`
	FirstName    string `gorm:"size:64;not null"`
	MiddleName   string `gorm:"size:64"`
	RoleID       uint   `gorm:"not null"`
	Role         Role
	Reviews      []Review
}

// FullName 拼接"姓 名 父称"，省略为空的部分。
func (u *User) FullName() string {
	return strings.TrimSpace(strings.Join([]string{u.LastName, u.FirstName, u.MiddleName}, " "))
}

// IsAdmin 判断用户是否为管理员。
func (u *User) IsAdmin() bool {
	return u.Role.Name == RoleAdmin
}

// CanEditBooks 判断用户是否可以编辑图书信息。
func (u *User) CanEditBooks() bool {
	return u.Role.Name == RoleAdmin || u.Role.Name == RoleModerator
}

// EnsureUser 存在性检查：若提供的用户名与密码均非空且不存在对应账号，
// 则创建一个 bcrypt 哈希的管理员用户。
func EnsureUser(gdb *gorm.DB, username, password string) error {
	trimmedUser := strings.TrimSpace(username)
	trimmedPassword := strings.TrimSpace(password)
	if trimmedUser == "" || trimmedPassword == "" {
		return nil
	}

	if gdb == nil {
		return errors.New("database not initialized")
	}

	var existing User
	if err := gdb.Where("username = ?", trimmedUser).First(&existing).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		hashed, err := bcrypt.GenerateFromPassword([]byte(trimmedPassword), bcrypt.DefaultCost)
		if err != nil {
			return err
		}

		var adminRole Role
		if err := gdb.Where("name = ?", RoleAdmin).First(&adminRole).Error; err != nil {
			return err
		}

		return gdb.Create(&User{
			Username:     trimmedUser,
			PasswordHash: string(hashed),
			LastName:     "Админ",
			FirstName:    "Системный",
			RoleID:       adminRole.ID,
		}).Error
	}

	return nil
}
