package db

import (
	"math"

	"gorm.io/gorm"
)

// Genre 定义了图书体裁模型
type Genre struct {
	ID    uint   `gorm:"primaryKey"`
	Name  string `gorm:"size:64;unique;not null"`
	Books []Book `gorm:"many2many:book_genres;"`
}

// Book 定义了图书模型，Description 以 Markdown 源文存储。
type Book struct {
	gorm.Model
	Title       string  `gorm:"size:128;not null"`
	Description string  `gorm:"not null"`
	Year        int     `gorm:"not null"`
	Publisher   string  `gorm:"size:128;not null"`
	Author      string  `gorm:"size:128;not null"`
	Pages       int     `gorm:"not null"`
	Genres      []Genre `gorm:"many2many:book_genres;"`
	Cover       *Cover
	Reviews     []Review
	ViewLogs    []BookViewLog
}

// Cover 保存封面文件的元信息，文件本体在上传目录中按 MD5 去重。
type Cover struct {
	ID       uint   `gorm:"primaryKey"`
	Filename string `gorm:"size:128;not null"`
	MimeType string `gorm:"size:64;not null"`
	MD5Hash  string `gorm:"size:64;index;not null"`
	BookID   uint   `gorm:"not null"`
}

// AverageRating 返回评分均值（保留两位小数）。
// 没有任何评分时返回 nil，而不是 0。
func (b *Book) AverageRating() *float64 {
	if len(b.Reviews) == 0 {
		return nil
	}

	var sum int
	for _, review := range b.Reviews {
		sum += review.Rating
	}
	avg := math.Round(float64(sum)/float64(len(b.Reviews))*100) / 100
	return &avg
}
