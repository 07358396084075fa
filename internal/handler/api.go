package handler

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/Naykiry/webdev-exam-2025/internal/db"
	"github.com/Naykiry/webdev-exam-2025/internal/service"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
	"gorm.io/gorm"
)

var (
	markdownEngine = goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Linkify),
		goldmark.WithRendererOptions(html.WithHardWraps()),
	)
	sanitizer = bluemonday.UGCPolicy()
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db        *gorm.DB
	books     *service.BookService
	reviews   *service.ReviewService
	views     *service.ViewLogService
	stats     *service.StatsService
	exports   *service.ExportService
	uploadDir string
	uploadURL string
}

// NewAPI constructs a handler set with shared services.
func NewAPI(gdb *gorm.DB, uploadDir, uploadURL string) *API {
	views := service.NewViewLogService(gdb)
	stats := service.NewStatsService(gdb)

	return &API{
		db:        gdb,
		books:     service.NewBookService(gdb, uploadDir),
		reviews:   service.NewReviewService(gdb),
		views:     views,
		stats:     stats,
		exports:   service.NewExportService(stats, views),
		uploadDir: uploadDir,
		uploadURL: uploadURL,
	}
}

const (
	sessionUserIDKey   = "user_id"
	flashMessageKey    = "flash_message"
	flashCategoryKey   = "flash_category"
	currentUserContext = "__current_user"
)

// setFlash 在会话中暂存一条一次性提示消息。
func setFlash(c *gin.Context, category, message string) {
	session := sessions.Default(c)
	session.Set(flashMessageKey, message)
	session.Set(flashCategoryKey, category)
	session.Save()
}

// takeFlash 取出并清除暂存的提示消息。
func takeFlash(c *gin.Context) (category, message string) {
	session := sessions.Default(c)
	if raw := session.Get(flashMessageKey); raw != nil {
		message, _ = raw.(string)
	}
	if raw := session.Get(flashCategoryKey); raw != nil {
		category, _ = raw.(string)
	}
	if message != "" {
		session.Delete(flashMessageKey)
		session.Delete(flashCategoryKey)
		session.Save()
	}
	return category, message
}

// currentUser 返回当前登录用户，未登录时返回 nil。
func (a *API) currentUser(c *gin.Context) *db.User {
	if cached, exists := c.Get(currentUserContext); exists {
		if user, ok := cached.(*db.User); ok {
			return user
		}
	}

	session := sessions.Default(c)
	raw := session.Get(sessionUserIDKey)
	if raw == nil {
		return nil
	}
	userID, ok := raw.(uint)
	if !ok {
		return nil
	}

	var user db.User
	if err := a.db.Preload("Role").First(&user, userID).Error; err != nil {
		return nil
	}

	c.Set(currentUserContext, &user)
	return &user
}

// renderHTML 渲染模板并注入所有页面共用的数据。
func (a *API) renderHTML(c *gin.Context, status int, name string, data gin.H) {
	payload := gin.H{}
	for key, value := range data {
		payload[key] = value
	}

	if _, exists := payload["user"]; !exists {
		payload["user"] = a.currentUser(c)
	}
	category, message := takeFlash(c)
	payload["flash"] = message
	payload["flashCategory"] = category

	c.HTML(status, name, payload)
}

// renderMarkdown 将 Markdown 源文渲染为净化后的 HTML。
func renderMarkdown(source string) template.HTML {
	var buf bytes.Buffer
	if err := markdownEngine.Convert([]byte(source), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(source))
	}
	return template.HTML(sanitizer.SanitizeBytes(buf.Bytes()))
}

// renderNotFound 输出 404 页面。
func (a *API) renderNotFound(c *gin.Context) {
	a.renderHTML(c, http.StatusNotFound, "not_found.html", gin.H{
		"title": "Страница не найдена",
	})
}
