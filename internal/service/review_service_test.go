package service

import (
	"errors"
	"testing"

	"github.com/Naykiry/webdev-exam-2025/internal/db"
)

func TestAddReviewValidation(t *testing.T) {
	gdb, cleanup := setupTestDB(t)
	defer cleanup()

	book := createTestBook(t, gdb, "Рецензируемая")
	user := createTestUser(t, gdb, "critic", db.RoleUser)
	svc := NewReviewService(gdb)

	if _, err := svc.Add(book.ID, user.ID, 0, "текст"); !errors.Is(err, ErrInvalidRating) {
		t.Fatalf("expected ErrInvalidRating, got %v", err)
	}
	if _, err := svc.Add(book.ID, user.ID, 6, "текст"); !errors.Is(err, ErrInvalidRating) {
		t.Fatalf("expected ErrInvalidRating, got %v", err)
	}
	if _, err := svc.Add(book.ID, user.ID, 4, "   "); !errors.Is(err, ErrEmptyReviewText) {
		t.Fatalf("expected ErrEmptyReviewText, got %v", err)
	}
}

func TestDuplicateReviewRejectedByStorage(t *testing.T) {
	gdb, cleanup := setupTestDB(t)
	defer cleanup()

	book := createTestBook(t, gdb, "Одна рецензия")
	user := createTestUser(t, gdb, "critic", db.RoleUser)
	svc := NewReviewService(gdb)

	if _, err := svc.Add(book.ID, user.ID, 5, "Отличная книга"); err != nil {
		t.Fatalf("first review failed: %v", err)
	}

	// 唯一索引兜底：绕过任何预检查直接再插一条
	if _, err := svc.Add(book.ID, user.ID, 3, "Передумал"); !errors.Is(err, ErrDuplicateReview) {
		t.Fatalf("expected ErrDuplicateReview, got %v", err)
	}

	// 同一用户可以评其他书，其他用户可以评这本书
	other := createTestBook(t, gdb, "Другая")
	if _, err := svc.Add(other.ID, user.ID, 4, "Тоже неплохо"); err != nil {
		t.Fatalf("same user, other book: %v", err)
	}
	second := createTestUser(t, gdb, "critic2", db.RoleUser)
	if _, err := svc.Add(book.ID, second.ID, 2, "Не согласен"); err != nil {
		t.Fatalf("other user, same book: %v", err)
	}
}

func TestUserReviewLookup(t *testing.T) {
	gdb, cleanup := setupTestDB(t)
	defer cleanup()

	book := createTestBook(t, gdb, "Поиск")
	user := createTestUser(t, gdb, "critic", db.RoleUser)
	svc := NewReviewService(gdb)

	review, err := svc.UserReview(book.ID, user.ID)
	if err != nil {
		t.Fatalf("UserReview failed: %v", err)
	}
	if review != nil {
		t.Fatal("expected nil review before submission")
	}

	if _, err := svc.Add(book.ID, user.ID, 5, "Хорошо"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	review, err = svc.UserReview(book.ID, user.ID)
	if err != nil {
		t.Fatalf("UserReview failed: %v", err)
	}
	if review == nil || review.Rating != 5 {
		t.Fatalf("unexpected review: %+v", review)
	}
}

func TestForBookOrdersNewestFirst(t *testing.T) {
	gdb, cleanup := setupTestDB(t)
	defer cleanup()

	book := createTestBook(t, gdb, "Порядок")
	first := createTestUser(t, gdb, "early", db.RoleUser)
	second := createTestUser(t, gdb, "late", db.RoleUser)
	svc := NewReviewService(gdb)

	if _, err := svc.Add(book.ID, first.ID, 4, "Первая"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if _, err := svc.Add(book.ID, second.ID, 5, "Вторая"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	reviews, err := svc.ForBook(book.ID)
	if err != nil {
		t.Fatalf("ForBook failed: %v", err)
	}
	if len(reviews) != 2 {
		t.Fatalf("expected 2 reviews, got %d", len(reviews))
	}
	if reviews[0].User.Username == "" {
		t.Fatal("reviews must preload their author")
	}
}
