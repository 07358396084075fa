package db

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// DB 是一个全局的数据库连接实例
var DB *gorm.DB

// Init 初始化数据库连接并执行自动迁移。
// databasePath 为空时将回退到默认值 library.db。
func Init(databasePath string) error {
	path := strings.TrimSpace(databasePath)
	if path == "" {
		path = "library.db"
	}

	if err := ensureParentDir(path); err != nil {
		return err
	}

	var err error
	DB, err = gorm.Open(sqlite.Open(path), &gorm.Config{TranslateError: true})
	if err != nil {
		return err
	}

	return Migrate(DB)
}

// Migrate 为核心模型创建表并写入基础角色数据。
func Migrate(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(
		&Role{},
		&User{},
		&Genre{},
		&Book{},
		&Cover{},
		&Review{},
		&BookViewLog{},
	); err != nil {
		return err
	}

	return seedRoles(gdb)
}

func seedRoles(gdb *gorm.DB) error {
	for _, role := range []Role{
		{Name: RoleAdmin, Description: "Полный доступ: управление каталогом, статистика и журнал действий"},
		{Name: RoleModerator, Description: "Редактирование описаний книг"},
		{Name: RoleUser, Description: "Просмотр каталога и написание рецензий"},
	} {
		var existing Role
		err := gdb.Where("name = ?", role.Name).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := gdb.Create(&role).Error; err != nil {
			return err
		}
	}
	return nil
}

func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}

	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return errors.New("database path parent is not a directory")
		}
		return nil
	}

	if os.IsNotExist(err) {
		return os.MkdirAll(dir, 0o755)
	}

	return err
}
