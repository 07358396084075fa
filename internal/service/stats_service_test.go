package service

import (
	"testing"
	"time"

	"github.com/Naykiry/webdev-exam-2025/internal/db"
	"gorm.io/gorm"
)

func addView(t *testing.T, gdb *gorm.DB, bookID uint, visitor Visitor, at time.Time) {
	t.Helper()

	entry := db.BookViewLog{BookID: bookID, CreatedAt: at}
	if visitor.UserID != 0 {
		userID := visitor.UserID
		entry.UserID = &userID
	}
	if visitor.SessionID != "" {
		sessionID := visitor.SessionID
		entry.SessionID = &sessionID
	}
	if visitor.IP != "" {
		ip := visitor.IP
		entry.IP = &ip
	}
	if err := gdb.Create(&entry).Error; err != nil {
		t.Fatalf("failed to add view: %v", err)
	}
}

func TestBookStatsWithoutViews(t *testing.T) {
	gdb, cleanup := setupTestDB(t)
	defer cleanup()

	book := createTestBook(t, gdb, "Непрочитанная")
	svc := NewStatsService(gdb)

	stats, err := svc.BookStats(book.ID, time.Now().UTC())
	if err != nil {
		t.Fatalf("BookStats must not fail for zero views: %v", err)
	}

	if stats.TotalViews != 0 || stats.MonthlyViews != 0 || stats.WeeklyViews != 0 {
		t.Fatalf("expected zero counts, got %+v", stats)
	}
	if stats.FirstViewedAt != nil || stats.LastViewedAt != nil {
		t.Fatalf("expected absent timestamps, got first=%v last=%v", stats.FirstViewedAt, stats.LastViewedAt)
	}
}

func TestBookStatsWindows(t *testing.T) {
	gdb, cleanup := setupTestDB(t)
	defer cleanup()

	book := createTestBook(t, gdb, "Окна")
	svc := NewStatsService(gdb)

	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	ip := ResolveVisitor(0, "", "1.1.1.1")

	oldest := now.AddDate(0, 0, -40)
	middle := now.AddDate(0, 0, -10)
	latest := now.AddDate(0, 0, -1)
	addView(t, gdb, book.ID, ip, oldest)
	addView(t, gdb, book.ID, ip, middle)
	addView(t, gdb, book.ID, ip, latest)

	stats, err := svc.BookStats(book.ID, now)
	if err != nil {
		t.Fatalf("BookStats failed: %v", err)
	}

	if stats.TotalViews != 3 {
		t.Fatalf("expected 3 total views, got %d", stats.TotalViews)
	}
	if stats.MonthlyViews != 2 {
		t.Fatalf("expected 2 monthly views, got %d", stats.MonthlyViews)
	}
	if stats.WeeklyViews != 1 {
		t.Fatalf("expected 1 weekly view, got %d", stats.WeeklyViews)
	}
	if stats.FirstViewedAt == nil || !stats.FirstViewedAt.Equal(oldest) {
		t.Fatalf("unexpected first view: %v", stats.FirstViewedAt)
	}
	if stats.LastViewedAt == nil || !stats.LastViewedAt.Equal(latest) {
		t.Fatalf("unexpected last view: %v", stats.LastViewedAt)
	}
}

func TestPopularBooksOrderingAndWindow(t *testing.T) {
	gdb, cleanup := setupTestDB(t)
	defer cleanup()

	bookA := createTestBook(t, gdb, "А")
	bookB := createTestBook(t, gdb, "Б")
	bookC := createTestBook(t, gdb, "В")
	bookD := createTestBook(t, gdb, "Г")
	svc := NewStatsService(gdb)

	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	ip := ResolveVisitor(0, "", "2.2.2.2")

	for i := 0; i < 3; i++ {
		addView(t, gdb, bookA.ID, ip, now.AddDate(0, 0, -i-1))
		addView(t, gdb, bookB.ID, ip, now.AddDate(0, 0, -i-2))
	}
	addView(t, gdb, bookC.ID, ip, now.AddDate(0, 0, -5))
	// 窗口之外的浏览不参与排行
	addView(t, gdb, bookD.ID, ip, now.AddDate(0, 0, -120))

	popular, err := svc.PopularBooks(5, PopularWindowDays, now)
	if err != nil {
		t.Fatalf("PopularBooks failed: %v", err)
	}

	if len(popular) != 3 {
		t.Fatalf("expected 3 popular books, got %d", len(popular))
	}
	for _, entry := range popular {
		if entry.Book.ID == bookD.ID {
			t.Fatal("book with no views inside the window must not appear")
		}
		if entry.Views == 0 {
			t.Fatal("popular books must never report zero views")
		}
	}
	for i := 1; i < len(popular); i++ {
		if popular[i].Views > popular[i-1].Views {
			t.Fatal("view counts must be non-increasing")
		}
	}
	// 次数相同（А и Б по 3）时按图书 ID 升序
	if popular[0].Book.ID != bookA.ID || popular[1].Book.ID != bookB.ID {
		t.Fatalf("tie must break by book id asc, got %d then %d", popular[0].Book.ID, popular[1].Book.ID)
	}
	if popular[2].Book.ID != bookC.ID {
		t.Fatalf("expected book C last, got %d", popular[2].Book.ID)
	}
}

func TestRecentBooksDeduplicatesPerIdentity(t *testing.T) {
	gdb, cleanup := setupTestDB(t)
	defer cleanup()

	bookA := createTestBook(t, gdb, "А")
	bookB := createTestBook(t, gdb, "Б")
	bookC := createTestBook(t, gdb, "В")
	svc := NewStatsService(gdb)

	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	reader := ResolveVisitor(7, "", "")
	someoneElse := ResolveVisitor(8, "", "")

	// 用户 7：книга А 3 раза, книга Б 2 раза, вперемешку
	addView(t, gdb, bookA.ID, reader, now.Add(-50*time.Minute))
	addView(t, gdb, bookB.ID, reader, now.Add(-40*time.Minute))
	addView(t, gdb, bookA.ID, reader, now.Add(-30*time.Minute))
	addView(t, gdb, bookB.ID, reader, now.Add(-20*time.Minute))
	addView(t, gdb, bookA.ID, reader, now.Add(-10*time.Minute))
	// 其他用户的浏览不能混入
	addView(t, gdb, bookC.ID, someoneElse, now.Add(-5*time.Minute))

	recent, err := svc.RecentBooks(5, reader, RecentWindowDays, now)
	if err != nil {
		t.Fatalf("RecentBooks failed: %v", err)
	}

	if len(recent) != 2 {
		t.Fatalf("expected exactly [А Б], got %d books", len(recent))
	}
	if recent[0].ID != bookA.ID || recent[1].ID != bookB.ID {
		t.Fatalf("expected most recent first, got %d then %d", recent[0].ID, recent[1].ID)
	}
}

func TestRecentBooksRespectsWindowAndLimit(t *testing.T) {
	gdb, cleanup := setupTestDB(t)
	defer cleanup()

	svc := NewStatsService(gdb)
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	visitor := ResolveVisitor(0, "sess-9", "")

	var ids []uint
	for i := 0; i < 7; i++ {
		book := createTestBook(t, gdb, "Книга")
		ids = append(ids, book.ID)
		addView(t, gdb, book.ID, visitor, now.Add(-time.Duration(i+1)*time.Hour))
	}
	// 窗口之外
	old := createTestBook(t, gdb, "Старая")
	addView(t, gdb, old.ID, visitor, now.AddDate(0, 0, -45))

	recent, err := svc.RecentBooks(5, visitor, RecentWindowDays, now)
	if err != nil {
		t.Fatalf("RecentBooks failed: %v", err)
	}

	if len(recent) != 5 {
		t.Fatalf("expected limit of 5, got %d", len(recent))
	}
	for i, book := range recent {
		if book.ID != ids[i] {
			t.Fatalf("unexpected order at %d: got %d want %d", i, book.ID, ids[i])
		}
		if book.ID == old.ID {
			t.Fatal("views outside the window must not appear")
		}
	}
}

func TestAllBookStatsSortedByTotalViews(t *testing.T) {
	gdb, cleanup := setupTestDB(t)
	defer cleanup()

	quiet := createTestBook(t, gdb, "Тихая")
	busy := createTestBook(t, gdb, "Популярная")
	modest := createTestBook(t, gdb, "Средняя")
	svc := NewStatsService(gdb)

	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	ip := ResolveVisitor(0, "", "3.3.3.3")
	for i := 0; i < 4; i++ {
		addView(t, gdb, busy.ID, ip, now.Add(-time.Duration(i+1)*time.Hour))
	}
	addView(t, gdb, modest.ID, ip, now.Add(-time.Hour))

	stats, err := svc.AllBookStats(now)
	if err != nil {
		t.Fatalf("AllBookStats failed: %v", err)
	}

	if len(stats) != 3 {
		t.Fatalf("expected stats for all 3 books, got %d", len(stats))
	}
	if stats[0].Book.ID != busy.ID || stats[1].Book.ID != modest.ID || stats[2].Book.ID != quiet.ID {
		t.Fatalf("unexpected order: %d, %d, %d", stats[0].Book.ID, stats[1].Book.ID, stats[2].Book.ID)
	}
	if stats[2].TotalViews != 0 || stats[2].FirstViewedAt != nil {
		t.Fatal("books without views must appear with zero counts and absent timestamps")
	}
}
