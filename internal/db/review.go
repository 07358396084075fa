package db

import (
	"time"
)

// Review 定义了书评模型。
// (book_id, user_id) 上的唯一索引保证一个用户对一本书最多一条书评，
// 由存储层而非应用层检查来兜底并发提交。
type Review struct {
	ID        uint   `gorm:"primaryKey"`
	BookID    uint   `gorm:"not null;uniqueIndex:idx_reviews_book_user"`
	UserID    uint   `gorm:"not null;uniqueIndex:idx_reviews_book_user"`
	Rating    int    `gorm:"not null"`
	Text      string `gorm:"not null"`
	CreatedAt time.Time
	User      User
	Book      Book
}
