package service

import (
	"errors"
	"sort"
	"time"

	"github.com/Naykiry/webdev-exam-2025/internal/db"
	"gorm.io/gorm"
)

// 默认统计窗口（天）。
const (
	PopularWindowDays = 90
	RecentWindowDays  = 30
	WeeklyWindowDays  = 7
)

// StatsService 基于浏览日志计算排行与聚合数据。
// 全部查询按需重算，不做缓存。
type StatsService struct {
	db *gorm.DB
}

// NewStatsService 创建 StatsService。
func NewStatsService(gdb *gorm.DB) *StatsService {
	return &StatsService{db: gdb}
}

// PopularBook 描述热门排行中的一项。
type PopularBook struct {
	Book  db.Book
	Views int64
}

// BookStatistics 汇总单本书的浏览统计。
// 没有任何浏览时各计数为 0、时间戳为 nil。
type BookStatistics struct {
	Book          db.Book
	TotalViews    int64
	MonthlyViews  int64
	WeeklyViews   int64
	FirstViewedAt *time.Time
	LastViewedAt  *time.Time
}

// PopularBooks 返回滚动窗口内浏览次数最多的 limit 本书。
// 按次数降序排列，次数相同时按图书 ID 升序保证结果稳定；
// 窗口内没有浏览的书不会出现。
func (s *StatsService) PopularBooks(limit, windowDays int, now time.Time) ([]PopularBook, error) {
	if limit <= 0 {
		limit = 5
	}
	if windowDays <= 0 {
		windowDays = PopularWindowDays
	}
	since := now.UTC().AddDate(0, 0, -windowDays)

	var rows []struct {
		BookID uint
		Views  int64
	}
	if err := s.db.Model(&db.BookViewLog{}).
		Select("book_id, COUNT(*) AS views").
		Where("created_at >= ?", since).
		Group("book_id").
		Order("views DESC, book_id ASC").
		Limit(limit).
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return nil, nil
	}

	ids := make([]uint, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.BookID)
	}

	var books []db.Book
	if err := s.db.Preload("Cover").Where("id IN ?", ids).Find(&books).Error; err != nil {
		return nil, err
	}

	byID := make(map[uint]db.Book, len(books))
	for _, book := range books {
		byID[book.ID] = book
	}

	popular := make([]PopularBook, 0, len(rows))
	for _, row := range rows {
		book, ok := byID[row.BookID]
		if !ok {
			continue
		}
		popular = append(popular, PopularBook{Book: book, Views: row.Views})
	}
	return popular, nil
}

// RecentBooks 返回某访客在滚动窗口内最近浏览过的书。
// 按浏览时间降序，每本书只出现一次（保留最近一次），最多 limit 本。
func (s *StatsService) RecentBooks(limit int, visitor Visitor, windowDays int, now time.Time) ([]db.Book, error) {
	if limit <= 0 {
		limit = 5
	}
	if windowDays <= 0 {
		windowDays = RecentWindowDays
	}
	since := now.UTC().AddDate(0, 0, -windowDays)

	var logs []db.BookViewLog
	query := s.db.Where("created_at >= ?", since).Order("created_at desc")
	if err := visitor.Match(query).Find(&logs).Error; err != nil {
		return nil, err
	}

	seen := make(map[uint]bool, len(logs))
	ids := make([]uint, 0, limit)
	for _, entry := range logs {
		if seen[entry.BookID] {
			continue
		}
		seen[entry.BookID] = true
		ids = append(ids, entry.BookID)
		if len(ids) == limit {
			break
		}
	}

	if len(ids) == 0 {
		return nil, nil
	}

	var books []db.Book
	if err := s.db.Preload("Cover").Where("id IN ?", ids).Find(&books).Error; err != nil {
		return nil, err
	}

	byID := make(map[uint]db.Book, len(books))
	for _, book := range books {
		byID[book.ID] = book
	}

	ordered := make([]db.Book, 0, len(ids))
	for _, id := range ids {
		if book, ok := byID[id]; ok {
			ordered = append(ordered, book)
		}
	}
	return ordered, nil
}

// BookStats 计算单本书的浏览统计。
func (s *StatsService) BookStats(bookID uint, now time.Time) (BookStatistics, error) {
	var book db.Book
	if err := s.db.First(&book, bookID).Error; err != nil {
		return BookStatistics{}, err
	}

	stats, err := s.statsForBooks([]db.Book{book}, now)
	if err != nil {
		return BookStatistics{}, err
	}
	return stats[0], nil
}

// AllBookStats 计算全部图书的浏览统计，按总浏览次数降序。
// 从未被浏览过的书也会出现，计数为 0。
func (s *StatsService) AllBookStats(now time.Time) ([]BookStatistics, error) {
	var books []db.Book
	if err := s.db.Find(&books).Error; err != nil {
		return nil, err
	}

	stats, err := s.statsForBooks(books, now)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(stats, func(i, j int) bool {
		if stats[i].TotalViews != stats[j].TotalViews {
			return stats[i].TotalViews > stats[j].TotalViews
		}
		return stats[i].Book.ID < stats[j].Book.ID
	})
	return stats, nil
}

type bookStatsRow struct {
	BookID       uint
	TotalViews   int64
	MonthlyViews int64
	WeeklyViews  int64
}

func (s *StatsService) statsForBooks(books []db.Book, now time.Time) ([]BookStatistics, error) {
	monthAgo := now.UTC().AddDate(0, 0, -RecentWindowDays)
	weekAgo := now.UTC().AddDate(0, 0, -WeeklyWindowDays)

	var rows []bookStatsRow
	if err := s.db.Model(&db.BookViewLog{}).
		Select(`book_id,
			COUNT(*) AS total_views,
			SUM(CASE WHEN created_at >= ? THEN 1 ELSE 0 END) AS monthly_views,
			SUM(CASE WHEN created_at >= ? THEN 1 ELSE 0 END) AS weekly_views`, monthAgo, weekAgo).
		Group("book_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	byID := make(map[uint]bookStatsRow, len(rows))
	for _, row := range rows {
		byID[row.BookID] = row
	}

	stats := make([]BookStatistics, 0, len(books))
	for _, book := range books {
		entry := BookStatistics{Book: book}
		if row, ok := byID[book.ID]; ok {
			entry.TotalViews = row.TotalViews
			entry.MonthlyViews = row.MonthlyViews
			entry.WeeklyViews = row.WeeklyViews

			first, last, err := s.viewBounds(book.ID)
			if err != nil {
				return nil, err
			}
			entry.FirstViewedAt = first
			entry.LastViewedAt = last
		}
		stats = append(stats, entry)
	}
	return stats, nil
}

// viewBounds 返回一本书最早与最晚的浏览时间。
// 聚合表达式在 sqlite 里没有列类型信息，直接扫描普通列更可靠。
func (s *StatsService) viewBounds(bookID uint) (first, last *time.Time, err error) {
	var earliest, latest db.BookViewLog
	if err := s.db.Where("book_id = ?", bookID).Order("created_at asc").First(&earliest).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, nil
		}
		return nil, nil, err
	}
	if err := s.db.Where("book_id = ?", bookID).Order("created_at desc").First(&latest).Error; err != nil {
		return nil, nil, err
	}
	return &earliest.CreatedAt, &latest.CreatedAt, nil
}
