package service

import (
	"errors"
	"strings"

	"github.com/Naykiry/webdev-exam-2025/internal/db"
	"gorm.io/gorm"
)

var (
	ErrDuplicateReview = errors.New("user already reviewed this book")
	ErrInvalidRating   = errors.New("rating must be between 1 and 5")
	ErrEmptyReviewText = errors.New("review text is required")
)

// ReviewService wraps review related database operations.
type ReviewService struct {
	db *gorm.DB
}

// NewReviewService creates a ReviewService instance.
func NewReviewService(gdb *gorm.DB) *ReviewService {
	return &ReviewService{db: gdb}
}

// Add 写入一条书评。重复提交由 (book_id, user_id) 唯一索引兜底，
// 并发竞争时第二条插入会以 ErrDuplicateReview 返回。
func (s *ReviewService) Add(bookID, userID uint, rating int, text string) (*db.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, ErrEmptyReviewText
	}

	review := db.Review{
		BookID: bookID,
		UserID: userID,
		Rating: rating,
		Text:   trimmed,
	}
	if err := s.db.Create(&review).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateReview
		}
		return nil, err
	}
	return &review, nil
}

// ForBook 返回一本书的全部书评，预加载作者，按时间降序。
func (s *ReviewService) ForBook(bookID uint) ([]db.Review, error) {
	var reviews []db.Review
	err := s.db.Preload("User").
		Where("book_id = ?", bookID).
		Order("created_at desc").
		Find(&reviews).Error
	return reviews, err
}

// UserReview 返回指定用户对指定图书的书评，没有时返回 nil。
func (s *ReviewService) UserReview(bookID, userID uint) (*db.Review, error) {
	var review db.Review
	err := s.db.Where("book_id = ? AND user_id = ?", bookID, userID).First(&review).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &review, nil
}
