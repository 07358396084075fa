package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/Naykiry/webdev-exam-2025/internal/db"
	"github.com/Naykiry/webdev-exam-2025/internal/service"
	"github.com/gin-gonic/gin"
)

// statisticsRow 是统计表格中的一行。
type statisticsRow struct {
	Title         string
	Author        string
	TotalViews    int64
	MonthlyViews  int64
	WeeklyViews   int64
	FirstViewedAt string
	LastViewedAt  string
}

// ShowStatistics 渲染按总浏览次数降序的图书统计表，仅管理员可用。
// 每次请求都重新聚合，超出范围的页码显示空表格。
func (a *API) ShowStatistics(c *gin.Context) {
	if a.requireRole(c, (*db.User).IsAdmin) == nil {
		return
	}

	stats, err := a.stats.AllBookStats(time.Now())
	if err != nil {
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	rows := make([]statisticsRow, 0, len(stats))
	for _, entry := range stats {
		rows = append(rows, statisticsRow{
			Title:         entry.Book.Title,
			Author:        entry.Book.Author,
			TotalViews:    entry.TotalViews,
			MonthlyViews:  entry.MonthlyViews,
			WeeklyViews:   entry.WeeklyViews,
			FirstViewedAt: formatViewTime(entry.FirstViewedAt),
			LastViewedAt:  formatViewTime(entry.LastViewedAt),
		})
	}

	page := service.Paginate(rows, pageParam(c), 10)
	a.renderHTML(c, http.StatusOK, "statistics.html", gin.H{
		"title":      "Статистика просмотров",
		"rows":       page.Items,
		"page":       page.Page,
		"totalPages": page.TotalPages,
		"total":      page.Total,
	})
}

// activityRow 是浏览日志表格中的一行。
type activityRow struct {
	ViewedAt  string
	Visitor   string
	BookTitle string
	IP        string
	SessionID string
}

// ShowActivityLog 渲染分页的原始浏览日志，仅管理员可用。
func (a *API) ShowActivityLog(c *gin.Context) {
	if a.requireRole(c, (*db.User).IsAdmin) == nil {
		return
	}

	result, err := a.views.ActivityLog(pageParam(c), 10)
	if err != nil {
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	rows := make([]activityRow, 0, len(result.Entries))
	for _, entry := range result.Entries {
		visitor := "Гость"
		if entry.User != nil {
			visitor = entry.User.Username
		}
		rows = append(rows, activityRow{
			ViewedAt:  entry.CreatedAt.UTC().Format(service.ExportTimeLayout),
			Visitor:   visitor,
			BookTitle: entry.Book.Title,
			IP:        orDash(entry.IP),
			SessionID: orDash(entry.SessionID),
		})
	}

	a.renderHTML(c, http.StatusOK, "activity_log.html", gin.H{
		"title":      "Журнал действий",
		"rows":       rows,
		"page":       result.Page,
		"totalPages": result.TotalPages,
		"total":      result.Total,
	})
}

// ExportStatistics 以 CSV 附件返回统计报表，仅管理员可用。
func (a *API) ExportStatistics(c *gin.Context) {
	if a.requireRole(c, (*db.User).IsAdmin) == nil {
		return
	}

	now := time.Now()
	data, err := a.exports.StatisticsCSV(now)
	if err != nil {
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	sendCSV(c, service.ExportFilename("statistics", now), data)
}

// ExportActivityLog 以 CSV 附件返回完整浏览日志，仅管理员可用。
func (a *API) ExportActivityLog(c *gin.Context) {
	if a.requireRole(c, (*db.User).IsAdmin) == nil {
		return
	}

	data, err := a.exports.ActivityLogCSV()
	if err != nil {
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	sendCSV(c, service.ExportFilename("activity_log", time.Now()), data)
}

func sendCSV(c *gin.Context, filename string, data []byte) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}

func formatViewTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.UTC().Format(service.ExportTimeLayout)
}

func orDash(value *string) string {
	if value == nil || *value == "" {
		return "-"
	}
	return *value
}
