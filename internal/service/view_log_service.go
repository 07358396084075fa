package service

import (
	"time"

	"github.com/Naykiry/webdev-exam-2025/internal/db"
	"gorm.io/gorm"
)

// DailyViewLimit 同一访客同一天对同一本书最多计入的浏览次数。
const DailyViewLimit = 10

// ViewLogService 负责浏览日志的写入与查询。
type ViewLogService struct {
	db *gorm.DB
}

// NewViewLogService 创建 ViewLogService。
func NewViewLogService(gdb *gorm.DB) *ViewLogService {
	return &ViewLogService{db: gdb}
}

// MayRecord 判断是否还允许记录一次浏览。
// 统计当前 UTC 日历日内 (book, identity) 的已有记录数，
// 小于 DailyViewLimit 时放行。这里按日历日截断而不是滚动 24 小时窗口，
// 与热门排行使用的滚动窗口语义刻意不同。
func (s *ViewLogService) MayRecord(bookID uint, visitor Visitor, now time.Time) (bool, error) {
	utc := now.UTC()
	dayStart := time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, time.UTC)

	query := s.db.Model(&db.BookViewLog{}).
		Where("book_id = ?", bookID).
		Where("created_at >= ? AND created_at < ?", dayStart, dayStart.Add(24*time.Hour))

	var count int64
	if err := visitor.Match(query).Count(&count).Error; err != nil {
		return false, err
	}

	return count < DailyViewLimit, nil
}

// Record 在限流允许时追加一条浏览记录，返回是否实际写入。
// 三个身份信号按请求原样保存，匹配只看解析出的那一个。
func (s *ViewLogService) Record(bookID uint, visitor Visitor, now time.Time) (bool, error) {
	allowed, err := s.MayRecord(bookID, visitor, now)
	if err != nil || !allowed {
		return false, err
	}

	entry := db.BookViewLog{BookID: bookID, CreatedAt: now.UTC()}
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

	if err := s.db.Create(&entry).Error; err != nil {
		return false, err
	}
	return true, nil
}

// ListByBook 返回一本书的全部浏览记录，按时间升序。
func (s *ViewLogService) ListByBook(bookID uint) ([]db.BookViewLog, error) {
	var logs []db.BookViewLog
	err := s.db.Where("book_id = ?", bookID).Order("created_at asc").Find(&logs).Error
	return logs, err
}

// ListByVisitor 返回某访客在滚动窗口内的浏览记录，按时间降序。
func (s *ViewLogService) ListByVisitor(visitor Visitor, since time.Time) ([]db.BookViewLog, error) {
	var logs []db.BookViewLog
	query := s.db.Where("created_at >= ?", since).Order("created_at desc")
	err := visitor.Match(query).Find(&logs).Error
	return logs, err
}

// ActivityLogResult 聚合分页后的浏览日志。
type ActivityLogResult struct {
	Entries    []db.BookViewLog
	Total      int64
	TotalPages int
	Page       int
	PerPage    int
}

// ActivityLog 返回分页的浏览日志，预加载用户与图书，按时间降序。
// 超出范围的页码返回空列表而不是错误。
func (s *ViewLogService) ActivityLog(page, perPage int) (*ActivityLogResult, error) {
	result := &ActivityLogResult{Page: page, PerPage: perPage}
	if result.Page <= 0 {
		result.Page = 1
	}
	if result.PerPage <= 0 {
		result.PerPage = 10
	}

	if err := s.db.Model(&db.BookViewLog{}).Count(&result.Total).Error; err != nil {
		return nil, err
	}
	result.TotalPages = TotalPages(result.Total, result.PerPage)

	err := s.db.Preload("User").Preload("Book").
		Order("created_at desc").
		Offset((result.Page - 1) * result.PerPage).
		Limit(result.PerPage).
		Find(&result.Entries).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

// AllEntries 返回全部浏览日志（导出用），预加载用户与图书，按时间降序。
func (s *ViewLogService) AllEntries() ([]db.BookViewLog, error) {
	var logs []db.BookViewLog
	err := s.db.Preload("User").Preload("Book").Order("created_at desc").Find(&logs).Error
	return logs, err
}
