package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Naykiry/webdev-exam-2025/internal/service"
	"github.com/gin-gonic/gin"
)

// AddReview 处理书评提交，需登录。
// "一人一书一评"由存储层唯一索引保证，预检查只用于友好提示。
func (a *API) AddReview(c *gin.Context) {
	user := a.currentUser(c)
	if user == nil {
		setFlash(c, "warning", "Для выполнения данного действия необходимо пройти процедуру аутентификации.")
		c.Redirect(http.StatusFound, "/login")
		return
	}

	bookID, err := parseUintParam(c, "book_id")
	if err != nil {
		a.renderNotFound(c)
		return
	}

	book, err := a.books.Get(bookID)
	if err != nil {
		a.renderNotFound(c)
		return
	}

	if existing, err := a.reviews.UserReview(book.ID, user.ID); err == nil && existing != nil {
		setFlash(c, "warning", "Вы уже оставили рецензию на эту книгу.")
		c.Redirect(http.StatusFound, "/book/"+c.Param("book_id"))
		return
	}

	rating, _ := strconv.Atoi(c.PostForm("rating"))
	_, err = a.reviews.Add(book.ID, user.ID, rating, c.PostForm("text"))
	switch {
	case err == nil:
		setFlash(c, "success", "Рецензия добавлена!")
	case errors.Is(err, service.ErrDuplicateReview):
		setFlash(c, "warning", "Вы уже оставили рецензию на эту книгу.")
	case errors.Is(err, service.ErrInvalidRating):
		setFlash(c, "danger", "Оценка должна быть от 1 до 5.")
	case errors.Is(err, service.ErrEmptyReviewText):
		setFlash(c, "danger", "Текст рецензии не может быть пустым.")
	default:
		c.Error(err)
		setFlash(c, "danger", "Не удалось сохранить рецензию.")
	}

	c.Redirect(http.StatusFound, "/book/"+c.Param("book_id"))
}
