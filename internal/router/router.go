package router

import (
	"html/template"

	"github.com/Naykiry/webdev-exam-2025/internal/config"
	"github.com/Naykiry/webdev-exam-2025/internal/db"
	"github.com/Naykiry/webdev-exam-2025/internal/handler"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(cfg config.AppConfig) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	r := gin.Default()

	// 配置会话中间件
	store := cookie.NewStore([]byte(cfg.SessionSecret))
	r.Use(sessions.Sessions("library_session", store))

	// 加载模板并添加自定义函数
	r.SetFuncMap(template.FuncMap{
		"add": func(a, b int) int {
			return a + b
		},
		"sub": func(a, b int) int {
			return a - b
		},
		"seq": func(n int) []int {
			pages := make([]int, n)
			for i := range pages {
				pages[i] = i + 1
			}
			return pages
		},
		"dict": func(pairs ...interface{}) map[string]interface{} {
			result := make(map[string]interface{}, len(pairs)/2)
			for i := 0; i+1 < len(pairs); i += 2 {
				key, ok := pairs[i].(string)
				if !ok {
					continue
				}
				result[key] = pairs[i+1]
			}
			return result
		},
	})
	r.LoadHTMLGlob("web/template/*.html")

	// 静态文件服务
	r.Static("/static", "./web/static")

	api := handler.NewAPI(db.DB, cfg.UploadDir, cfg.UploadURLPath)

	// 公共路由
	r.GET("/", api.ShowCatalog)
	r.GET("/page/:page", api.ShowCatalog)
	r.GET("/book/:id", api.ShowBook)
	r.GET("/login", api.ShowLoginPage)
	r.POST("/login", api.Login)
	r.GET("/logout", api.Logout)

	// 需要登录的路由；角色检查在各 handler 内完成，
	// 权限不足时闪现警告并重定向而不是返回错误页
	auth := r.Group("")
	auth.Use(api.AuthRequired())
	{
		auth.POST("/review/:book_id", api.AddReview)

		auth.GET("/add", api.ShowAddBook)
		auth.POST("/add", api.CreateBook)
		auth.GET("/edit/:id", api.ShowEditBook)
		auth.POST("/edit/:id", api.UpdateBook)
		auth.POST("/delete/:id", api.DeleteBook)

		auth.GET("/statistics", api.ShowStatistics)
		auth.GET("/statistics/page/:page", api.ShowStatistics)
		auth.GET("/activity_log", api.ShowActivityLog)
		auth.GET("/activity_log/page/:page", api.ShowActivityLog)
		auth.GET("/export_statistics", api.ExportStatistics)
		auth.GET("/export_activity_log", api.ExportActivityLog)
	}

	return r
}
