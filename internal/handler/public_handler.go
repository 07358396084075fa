package handler

import (
	"net/http"
	"time"

	"github.com/Naykiry/webdev-exam-2025/internal/db"
	"github.com/Naykiry/webdev-exam-2025/internal/service"
	"github.com/gin-gonic/gin"
)

// bookCard 是目录与侧栏里一本书的展示模型。
type bookCard struct {
	ID          uint
	Title       string
	Author      string
	Year        int
	Genres      []string
	Rating      *float64
	ReviewCount int
	CoverURL    string
	Views       int64
}

func (a *API) bookCardFrom(book db.Book) bookCard {
	card := bookCard{
		ID:          book.ID,
		Title:       book.Title,
		Author:      book.Author,
		Year:        book.Year,
		Rating:      book.AverageRating(),
		ReviewCount: len(book.Reviews),
	}
	for _, genre := range book.Genres {
		card.Genres = append(card.Genres, genre.Name)
	}
	if book.Cover != nil {
		card.CoverURL = a.uploadURL + "/" + book.Cover.Filename
	}
	return card
}

// ShowCatalog 渲染带分页的目录首页，附带热门与最近浏览侧栏。
func (a *API) ShowCatalog(c *gin.Context) {
	page := pageParam(c)

	result, err := a.books.List(page, 6)
	if err != nil {
		a.renderHTML(c, http.StatusInternalServerError, "index.html", gin.H{
			"title": "Каталог",
			"error": "Не удалось загрузить каталог",
		})
		return
	}

	books := make([]bookCard, 0, len(result.Books))
	for _, book := range result.Books {
		books = append(books, a.bookCardFrom(book))
	}

	now := time.Now().UTC()
	visitor := a.resolveVisitor(c)

	var popular []bookCard
	if popularBooks, err := a.stats.PopularBooks(5, service.PopularWindowDays, now); err == nil {
		for _, entry := range popularBooks {
			card := a.bookCardFrom(entry.Book)
			card.Views = entry.Views
			popular = append(popular, card)
		}
	} else {
		c.Error(err)
	}

	var recent []bookCard
	if recentBooks, err := a.stats.RecentBooks(5, visitor, service.RecentWindowDays, now); err == nil {
		for _, book := range recentBooks {
			recent = append(recent, a.bookCardFrom(book))
		}
	} else {
		c.Error(err)
	}

	a.renderHTML(c, http.StatusOK, "index.html", gin.H{
		"title":      "Каталог",
		"books":      books,
		"page":       result.Page,
		"totalPages": result.TotalPages,
		"popular":    popular,
		"recent":     recent,
	})
}
