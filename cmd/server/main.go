package main

import (
	"log"

	"github.com/Naykiry/webdev-exam-2025/internal/config"
	"github.com/Naykiry/webdev-exam-2025/internal/db"
	"github.com/Naykiry/webdev-exam-2025/internal/router"
	"github.com/joho/godotenv"
)

func main() {
	// .env 存在时优先加载，便于本地开发
	if err := godotenv.Load(); err == nil {
		log.Println("loaded configuration from .env")
	}

	cfg := config.Load()

	// 初始化数据库
	if err := db.Init(cfg.DatabasePath); err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	// 可选的管理员引导账号
	if err := db.EnsureUser(db.DB, cfg.AdminUserName, cfg.AdminPassword); err != nil {
		log.Fatalf("failed to ensure admin user: %v", err)
	}

	// 设置并运行 Gin 服务器
	r := router.SetupRouter(cfg)
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatalf("failed to run server: %v", err)
	}
}
