package db

import "time"

// BookViewLog 记录一次图书详情页的浏览，是所有统计数据的事实来源。
// 行只增不改；UserID、SessionID、IP 按请求原样保存，
// 匹配访客时只使用解析出的那一个身份字段。
type BookViewLog struct {
	ID        uint      `gorm:"primaryKey"`
	BookID    uint      `gorm:"index;not null"`
	UserID    *uint     `gorm:"index"`
	SessionID *string   `gorm:"size:128;index"`
	IP        *string   `gorm:"size:64;index"`
	CreatedAt time.Time `gorm:"index"`
	Book      Book
	User      *User
}

// TableName 指定自定义表名，避免自动复数化导致的歧义。
func (BookViewLog) TableName() string {
	return "book_view_logs"
}
