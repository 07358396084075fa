package handler

import (
	"net/http"

	"github.com/Naykiry/webdev-exam-2025/internal/db"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// ShowLoginPage 渲染登录页面
func (a *API) ShowLoginPage(c *gin.Context) {
	a.renderHTML(c, http.StatusOK, "login.html", gin.H{
		"title": "Вход",
	})
}

// Login 处理用户登录请求
func (a *API) Login(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")

	// 查找用户
	var user db.User
	if err := a.db.Preload("Role").Where("username = ?", username).First(&user).Error; err != nil {
		a.renderHTML(c, http.StatusUnauthorized, "login.html", gin.H{
			"title":    "Вход",
			"error":    "Неверный логин или пароль",
			"username": username,
		})
		return
	}

	// 验证密码
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		a.renderHTML(c, http.StatusUnauthorized, "login.html", gin.H{
			"title":    "Вход",
			"error":    "Неверный логин или пароль",
			"username": username,
		})
		return
	}

	// 设置会话
	session := sessions.Default(c)
	session.Set(sessionUserIDKey, user.ID)
	if err := session.Save(); err != nil {
		a.renderHTML(c, http.StatusInternalServerError, "login.html", gin.H{
			"title": "Вход",
			"error": "Не удалось сохранить сессию",
		})
		return
	}

	setFlash(c, "success", "Успешный вход")
	c.Redirect(http.StatusFound, "/")
}

// Logout 处理用户登出
func (a *API) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Delete(sessionUserIDKey)
	session.Save()
	setFlash(c, "info", "Вы вышли из системы.")
	c.Redirect(http.StatusFound, "/")
}

// AuthRequired 要求已登录，否则带提示跳转到登录页。
func (a *API) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if a.currentUser(c) == nil {
			setFlash(c, "warning", "Для выполнения данного действия необходимо пройти процедуру аутентификации.")
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

// requireRole 校验当前用户角色，不满足时按原有行为闪现警告并重定向，
// 而不是返回 HTTP 错误。返回 nil 表示请求已被处理。
func (a *API) requireRole(c *gin.Context, allowed func(*db.User) bool) *db.User {
	user := a.currentUser(c)
	if user == nil || !allowed(user) {
		setFlash(c, "danger", "У вас недостаточно прав для выполнения данного действия.")
		c.Redirect(http.StatusFound, "/")
		return nil
	}
	return user
}
