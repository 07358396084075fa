package service

import (
	"strconv"
	"strings"
	"time"
)

// ExportTimeLayout 导出文件中时间戳的格式（UTC）。
const ExportTimeLayout = "02.01.2006 15:04"

// 表格软件（特别是 Excel）需要 BOM 才能正确识别 UTF-8 的西里尔文本。
const utf8BOM = "\ufeff"

// emptyCell 表示缺失值的占位符。
const emptyCell = "-"

// ExportService 将统计数据与浏览日志渲染为 CSV 文本。
type ExportService struct {
	stats *StatsService
	views *ViewLogService
}

// NewExportService 创建 ExportService。
func NewExportService(stats *StatsService, views *ViewLogService) *ExportService {
	return &ExportService{stats: stats, views: views}
}

// StatisticsCSV 导出每本书一行的浏览统计，按总浏览次数降序。
func (s *ExportService) StatisticsCSV(now time.Time) ([]byte, error) {
	stats, err := s.stats.AllBookStats(now)
	if err != nil {
		return nil, err
	}

	var out strings.Builder
	out.WriteString(utf8BOM)
	writeCSVRow(&out, []string{
		"Название книги",
		"Автор",
		"Всего просмотров",
		"За последний месяц",
		"За последнюю неделю",
		"Первый просмотр",
		"Последний просмотр",
	})

	for _, entry := range stats {
		writeCSVRow(&out, []string{
			entry.Book.Title,
			entry.Book.Author,
			strconv.FormatInt(entry.TotalViews, 10),
			strconv.FormatInt(entry.MonthlyViews, 10),
			strconv.FormatInt(entry.WeeklyViews, 10),
			formatExportTime(entry.FirstViewedAt),
			formatExportTime(entry.LastViewedAt),
		})
	}

	return []byte(out.String()), nil
}

// ActivityLogCSV 导出完整浏览日志，按时间降序。
// 匿名浏览的访客列渲染为"Гость"，缺失的 IP 与会话标识渲染为占位符。
func (s *ExportService) ActivityLogCSV() ([]byte, error) {
	entries, err := s.views.AllEntries()
	if err != nil {
		return nil, err
	}

	var out strings.Builder
	out.WriteString(utf8BOM)
	writeCSVRow(&out, []string{
		"Дата и время",
		"Пользователь",
		"Книга",
		"IP адрес",
		"Идентификатор сессии",
	})

	for _, entry := range entries {
		visitor := "Гость"
		if entry.User != nil {
			visitor = entry.User.Username
		}
		writeCSVRow(&out, []string{
			entry.CreatedAt.UTC().Format(ExportTimeLayout),
			visitor,
			entry.Book.Title,
			stringCell(entry.IP),
			stringCell(entry.SessionID),
		})
	}

	return []byte(out.String()), nil
}

// ExportFilename 生成带时间戳的附件文件名，如 statistics_02_01_2006_15_04.csv。
func ExportFilename(prefix string, now time.Time) string {
	return prefix + "_" + now.UTC().Format("02_01_2006_15_04") + ".csv"
}

// writeCSVRow 写出一行 CSV。所有字段强制加引号（Excel 方言，CRLF 行尾），
// encoding/csv 只在必要时加引号，因此这里手动格式化。
func writeCSVRow(out *strings.Builder, fields []string) {
	for i, field := range fields {
		if i > 0 {
			out.WriteByte(',')
		}
		out.WriteByte('"')
		out.WriteString(strings.ReplaceAll(field, `"`, `""`))
		out.WriteByte('"')
	}
	out.WriteString("\r\n")
}

func formatExportTime(t *time.Time) string {
	if t == nil {
		return emptyCell
	}
	return t.UTC().Format(ExportTimeLayout)
}

func stringCell(value *string) string {
	if value == nil || *value == "" {
		return emptyCell
	}
	return *value
}
