package handler

import (
	"github.com/Naykiry/webdev-exam-2025/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// visitorCookieName 保存匿名访客的会话标识。
	visitorCookieName   = "session"
	visitorCookieMaxAge = 365 * 24 * 60 * 60
)

// resolveVisitor 从请求边界收集三个身份信号并按优先级解析访客身份：
// 登录用户 > 会话 Cookie > 来源 IP。
// 没有会话 Cookie 的访客会被签发一个新的 uuid，但本次请求仍按 IP 归属，
// 与原有"首次访问落到 IP"的行为一致。
func (a *API) resolveVisitor(c *gin.Context) service.Visitor {
	var userID uint
	if user := a.currentUser(c); user != nil {
		userID = user.ID
	}

	sessionID, _ := c.Cookie(visitorCookieName)
	if sessionID == "" {
		c.SetCookie(visitorCookieName, uuid.New().String(), visitorCookieMaxAge, "/", "", false, true)
	}

	return service.ResolveVisitor(userID, sessionID, c.ClientIP())
}
