package service

import "gorm.io/gorm"

// VisitorKind 标识访客身份的解析结果。
type VisitorKind int

const (
	// VisitorUser 已登录用户，按 user_id 匹配。
	VisitorUser VisitorKind = iota
	// VisitorSession 匿名会话，按 session_id 匹配。
	VisitorSession
	// VisitorIP 无会话的访客，按来源 IP 匹配。
	VisitorIP
)

// Visitor 是解析后的访客身份。Kind 指明限流与最近浏览查询所用的字段，
// 其余原始信号仍随浏览记录一并保存，但不参与匹配。
type Visitor struct {
	Kind      VisitorKind
	UserID    uint
	SessionID string
	IP        string
}

// ResolveVisitor 按 用户 > 会话 > IP 的严格优先级解析访客身份。
// IP 总是可用的兜底信号，因此不存在错误分支。
func ResolveVisitor(userID uint, sessionID, ip string) Visitor {
	v := Visitor{UserID: userID, SessionID: sessionID, IP: ip}
	switch {
	case userID != 0:
		v.Kind = VisitorUser
	case sessionID != "":
		v.Kind = VisitorSession
	default:
		v.Kind = VisitorIP
	}
	return v
}

// Match 在查询上追加当前身份对应字段的过滤条件。
func (v Visitor) Match(tx *gorm.DB) *gorm.DB {
	switch v.Kind {
	case VisitorUser:
		return tx.Where("user_id = ?", v.UserID)
	case VisitorSession:
		return tx.Where("session_id = ?", v.SessionID)
	default:
		return tx.Where("ip = ?", v.IP)
	}
}
