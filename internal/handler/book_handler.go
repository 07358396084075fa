package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/Naykiry/webdev-exam-2025/internal/db"
	"github.com/Naykiry/webdev-exam-2025/internal/service"
	"github.com/gin-gonic/gin"
)

// reviewView 是书评的展示模型。
type reviewView struct {
	Author    string
	Rating    int
	Text      string
	CreatedAt time.Time
}

// ShowBook 渲染图书详情页。浏览本身作为副作用经限流器写入浏览日志。
func (a *API) ShowBook(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		a.renderNotFound(c)
		return
	}

	book, err := a.books.Get(id)
	if err != nil {
		if errors.Is(err, service.ErrBookNotFound) {
			a.renderNotFound(c)
			return
		}
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	visitor := a.resolveVisitor(c)
	if _, err := a.views.Record(book.ID, visitor, time.Now()); err != nil {
		// 浏览日志写入失败不应阻止页面展示
		c.Error(err)
	}

	reviews, err := a.reviews.ForBook(book.ID)
	if err != nil {
		c.Error(err)
	}
	reviewViews := make([]reviewView, 0, len(reviews))
	for _, review := range reviews {
		reviewViews = append(reviewViews, reviewView{
			Author:    review.User.FullName(),
			Rating:    review.Rating,
			Text:      review.Text,
			CreatedAt: review.CreatedAt,
		})
	}

	var userReview *db.Review
	user := a.currentUser(c)
	if user != nil {
		userReview, err = a.reviews.UserReview(book.ID, user.ID)
		if err != nil {
			c.Error(err)
		}
	}

	card := a.bookCardFrom(*book)
	a.renderHTML(c, http.StatusOK, "view_book.html", gin.H{
		"title":       book.Title,
		"book":        card,
		"publisher":   book.Publisher,
		"pages":       book.Pages,
		"description": renderMarkdown(book.Description),
		"reviews":     reviewViews,
		"userReview":  userReview,
		"canReview":   user != nil && userReview == nil,
	})
}

// bookFormData 承载图书表单的回显数据。
type bookFormData struct {
	Input    service.BookInput
	GenreIDs map[uint]bool
	Errors   []string
}

func (a *API) renderBookForm(c *gin.Context, status int, title, action string, form bookFormData, showCover bool) {
	genres, err := a.books.Genres()
	if err != nil {
		c.Error(err)
	}

	a.renderHTML(c, status, "book_form.html", gin.H{
		"title":     title,
		"action":    action,
		"form":      form,
		"genres":    genres,
		"showCover": showCover,
	})
}

func bookInputFromForm(c *gin.Context) (service.BookInput, []string) {
	input := service.BookInput{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		Publisher:   c.PostForm("publisher"),
		Author:      c.PostForm("author"),
		GenreIDs:    parseUintForm(c.PostFormArray("genres")),
	}

	var problems []string
	if input.Title == "" {
		problems = append(problems, "Укажите название книги")
	}
	if input.Description == "" {
		problems = append(problems, "Добавьте описание книги")
	}
	if input.Author == "" {
		problems = append(problems, "Укажите автора")
	}
	if input.Publisher == "" {
		problems = append(problems, "Укажите издательство")
	}

	year, err := strconv.Atoi(c.PostForm("year"))
	if err != nil || year < 1 || year > time.Now().Year()+1 {
		problems = append(problems, "Некорректный год издания")
	}
	input.Year = year

	pages, err := strconv.Atoi(c.PostForm("pages"))
	if err != nil || pages < 1 {
		problems = append(problems, "Некорректное количество страниц")
	}
	input.Pages = pages

	if len(input.GenreIDs) == 0 {
		problems = append(problems, "Выберите хотя бы один жанр")
	}

	return input, problems
}

func genreIDSet(ids []uint) map[uint]bool {
	set := make(map[uint]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

// ShowAddBook 渲染新增图书表单，仅管理员可用。
func (a *API) ShowAddBook(c *gin.Context) {
	if a.requireRole(c, (*db.User).IsAdmin) == nil {
		return
	}
	a.renderBookForm(c, http.StatusOK, "Добавить книгу", "/add", bookFormData{GenreIDs: map[uint]bool{}}, true)
}

// CreateBook 处理新增图书提交。校验失败时回显表单与错误列表。
func (a *API) CreateBook(c *gin.Context) {
	if a.requireRole(c, (*db.User).IsAdmin) == nil {
		return
	}

	input, problems := bookInputFromForm(c)
	form := bookFormData{Input: input, GenreIDs: genreIDSet(input.GenreIDs), Errors: problems}
	if len(problems) > 0 {
		a.renderBookForm(c, http.StatusBadRequest, "Добавить книгу", "/add", form, true)
		return
	}

	book, err := a.books.Create(input)
	if err != nil {
		form.Errors = append(form.Errors, "Не удалось сохранить книгу")
		a.renderBookForm(c, http.StatusInternalServerError, "Добавить книгу", "/add", form, true)
		return
	}

	a.attachUploadedCover(c, book.ID)

	setFlash(c, "success", "Книга успешно добавлена!")
	c.Redirect(http.StatusFound, "/")
}

// attachUploadedCover 读取可选的封面文件并交给图书服务保存。
func (a *API) attachUploadedCover(c *gin.Context, bookID uint) {
	fileHeader, err := c.FormFile("cover")
	if err != nil {
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.Error(err)
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		c.Error(err)
		return
	}

	mimeType := fileHeader.Header.Get("Content-Type")
	if _, err := a.books.AttachCover(bookID, content, fileHeader.Filename, mimeType); err != nil {
		if errors.Is(err, service.ErrCoverInvalid) {
			setFlash(c, "warning", "Файл обложки не является изображением, книга сохранена без обложки.")
			return
		}
		c.Error(err)
	}
}

// ShowEditBook 渲染编辑表单，管理员与修改者均可用。
func (a *API) ShowEditBook(c *gin.Context) {
	if a.requireRole(c, (*db.User).CanEditBooks) == nil {
		return
	}

	id, err := parseUintParam(c, "id")
	if err != nil {
		a.renderNotFound(c)
		return
	}

	book, err := a.books.Get(id)
	if err != nil {
		a.renderNotFound(c)
		return
	}

	ids := make([]uint, 0, len(book.Genres))
	for _, genre := range book.Genres {
		ids = append(ids, genre.ID)
	}

	form := bookFormData{
		Input: service.BookInput{
			Title:       book.Title,
			Description: book.Description,
			Year:        book.Year,
			Publisher:   book.Publisher,
			Author:      book.Author,
			Pages:       book.Pages,
			GenreIDs:    ids,
		},
		GenreIDs: genreIDSet(ids),
	}
	a.renderBookForm(c, http.StatusOK, "Редактировать книгу", "/edit/"+c.Param("id"), form, false)
}

// UpdateBook 处理编辑提交。
func (a *API) UpdateBook(c *gin.Context) {
	if a.requireRole(c, (*db.User).CanEditBooks) == nil {
		return
	}

	id, err := parseUintParam(c, "id")
	if err != nil {
		a.renderNotFound(c)
		return
	}

	input, problems := bookInputFromForm(c)
	form := bookFormData{Input: input, GenreIDs: genreIDSet(input.GenreIDs), Errors: problems}
	if len(problems) > 0 {
		a.renderBookForm(c, http.StatusBadRequest, "Редактировать книгу", "/edit/"+c.Param("id"), form, false)
		return
	}

	if _, err := a.books.Update(id, input); err != nil {
		if errors.Is(err, service.ErrBookNotFound) {
			a.renderNotFound(c)
			return
		}
		form.Errors = append(form.Errors, "Не удалось сохранить изменения")
		a.renderBookForm(c, http.StatusInternalServerError, "Редактировать книгу", "/edit/"+c.Param("id"), form, false)
		return
	}

	setFlash(c, "success", "Книга обновлена")
	c.Redirect(http.StatusFound, "/book/"+c.Param("id"))
}

// DeleteBook 删除图书及其关联数据，仅管理员可用。
// 这是唯一显式守护提交失败的写路径：事务回滚并向用户闪现错误。
func (a *API) DeleteBook(c *gin.Context) {
	if a.requireRole(c, (*db.User).IsAdmin) == nil {
		return
	}

	id, err := parseUintParam(c, "id")
	if err != nil {
		a.renderNotFound(c)
		return
	}

	if err := a.books.Delete(id); err != nil {
		if errors.Is(err, service.ErrBookNotFound) {
			a.renderNotFound(c)
			return
		}
		c.Error(err)
		setFlash(c, "danger", "Ошибка при удалении книги")
		c.Redirect(http.StatusFound, "/")
		return
	}

	setFlash(c, "success", "Книга удалена")
	c.Redirect(http.StatusFound, "/")
}
