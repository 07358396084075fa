package service

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/Naykiry/webdev-exam-2025/internal/db"
	"github.com/google/uuid"
	"golang.org/x/image/draw"
	"gorm.io/gorm"
)

var (
	ErrBookNotFound = errors.New("book not found")
	ErrCoverInvalid = errors.New("cover file is not a supported image")
)

const coverThumbWidth = 320

// BookService wraps catalog related database operations.
type BookService struct {
	db        *gorm.DB
	uploadDir string
}

// BookInput represents fields accepted when creating or updating a book.
type BookInput struct {
	Title       string
	Description string
	Year        int
	Publisher   string
	Author      string
	Pages       int
	GenreIDs    []uint
}

// BookListResult aggregates paginated catalog data.
type BookListResult struct {
	Books      []db.Book
	Total      int64
	TotalPages int
	Page       int
	PerPage    int
}

// NewBookService creates a BookService instance.
func NewBookService(gdb *gorm.DB, uploadDir string) *BookService {
	return &BookService{db: gdb, uploadDir: uploadDir}
}

// List provides the paginated catalog ordered by publication year descending.
// Out-of-range pages yield an empty slice with correct TotalPages.
func (s *BookService) List(page, perPage int) (*BookListResult, error) {
	result := &BookListResult{Page: page, PerPage: perPage}
	if result.Page <= 0 {
		result.Page = 1
	}
	if result.PerPage <= 0 {
		result.PerPage = 6
	}

	if err := s.db.Model(&db.Book{}).Count(&result.Total).Error; err != nil {
		return nil, err
	}
	result.TotalPages = TotalPages(result.Total, result.PerPage)

	err := s.db.Preload("Genres").Preload("Cover").Preload("Reviews").
		Order("year desc, id asc").
		Offset((result.Page - 1) * result.PerPage).
		Limit(result.PerPage).
		Find(&result.Books).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

// Get fetches a book with genres, cover and reviews preloaded.
func (s *BookService) Get(id uint) (*db.Book, error) {
	var book db.Book
	err := s.db.Preload("Genres").Preload("Cover").Preload("Reviews").First(&book, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, err
	}
	return &book, nil
}

// Create persists a book and associates genres in a transaction.
func (s *BookService) Create(input BookInput) (*db.Book, error) {
	book := db.Book{
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		Year:        input.Year,
		Publisher:   strings.TrimSpace(input.Publisher),
		Author:      strings.TrimSpace(input.Author),
		Pages:       input.Pages,
	}
	return s.saveWithGenres(&book, input.GenreIDs)
}

// Update applies updates to an existing book.
func (s *BookService) Update(id uint, input BookInput) (*db.Book, error) {
	var existing db.Book
	if err := s.db.First(&existing, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, err
	}

	existing.Title = strings.TrimSpace(input.Title)
	existing.Description = input.Description
	existing.Year = input.Year
	existing.Publisher = strings.TrimSpace(input.Publisher)
	existing.Author = strings.TrimSpace(input.Author)
	existing.Pages = input.Pages

	return s.saveWithGenres(&existing, input.GenreIDs)
}

func (s *BookService) saveWithGenres(book *db.Book, genreIDs []uint) (*db.Book, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(book).Error; err != nil {
			return err
		}

		var genres []db.Genre
		if len(genreIDs) > 0 {
			if err := tx.Where("id IN ?", genreIDs).Find(&genres).Error; err != nil {
				return err
			}
		}
		return tx.Model(book).Association("Genres").Replace(genres)
	})
	if err != nil {
		return nil, err
	}
	return book, nil
}

// Delete removes a book together with its view log, reviews, genre links and
// cover. The whole removal runs in one transaction; on commit failure nothing
// is deleted and the error is reported to the caller. Cover files are removed
// from disk only after the transaction commits.
func (s *BookService) Delete(id uint) error {
	var book db.Book
	if err := s.db.Preload("Cover").First(&book, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrBookNotFound
		}
		return err
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("book_id = ?", id).Delete(&db.BookViewLog{}).Error; err != nil {
			return err
		}
		if err := tx.Where("book_id = ?", id).Delete(&db.Review{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&book).Association("Genres").Clear(); err != nil {
			return err
		}
		if book.Cover != nil {
			if err := tx.Delete(book.Cover).Error; err != nil {
				return err
			}
		}
		return tx.Unscoped().Delete(&db.Book{}, id).Error
	})
	if err != nil {
		return err
	}

	if book.Cover != nil {
		s.removeCoverFiles(book.Cover.Filename)
	}
	return nil
}

// Genres returns all genres ordered by name for form selects.
func (s *BookService) Genres() ([]db.Genre, error) {
	var genres []db.Genre
	err := s.db.Order("name asc").Find(&genres).Error
	return genres, err
}

// AttachCover stores an uploaded cover for the book. Files are deduplicated
// by MD5 of the content: when a cover with the same hash already exists its
// file is reused, otherwise the image is written out together with a scaled
// thumbnail.
func (s *BookService) AttachCover(bookID uint, content []byte, originalName, mimeType string) (*db.Cover, error) {
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, ErrCoverInvalid
	}

	img, _, err := image.Decode(bytes.NewReader(content))
	if err != nil {
		return nil, ErrCoverInvalid
	}

	sum := md5.Sum(content)
	hash := hex.EncodeToString(sum[:])

	filename := ""
	var existing db.Cover
	err = s.db.Where("md5_hash = ?", hash).First(&existing).Error
	switch {
	case err == nil:
		filename = existing.Filename
	case errors.Is(err, gorm.ErrRecordNotFound):
		ext := strings.ToLower(filepath.Ext(originalName))
		if ext == "" {
			ext = ".img"
		}
		filename = fmt.Sprintf("%d_%s%s", bookID, uuid.New().String(), ext)
		if err := s.writeCoverFiles(filename, content, img); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	cover := db.Cover{
		Filename: filename,
		MimeType: mimeType,
		MD5Hash:  hash,
		BookID:   bookID,
	}
	if err := s.db.Create(&cover).Error; err != nil {
		return nil, err
	}
	return &cover, nil
}

func (s *BookService) writeCoverFiles(filename string, content []byte, img image.Image) error {
	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return err
	}

	if err := os.WriteFile(filepath.Join(s.uploadDir, filename), content, 0o644); err != nil {
		return err
	}

	thumb, err := os.Create(filepath.Join(s.uploadDir, thumbName(filename)))
	if err != nil {
		return err
	}
	defer thumb.Close()

	return jpeg.Encode(thumb, scaleCover(img), &jpeg.Options{Quality: 85})
}

// scaleCover downscales wide covers to the thumbnail width, keeping ratio.
func scaleCover(img image.Image) image.Image {
	bounds := img.Bounds()
	if bounds.Dx() <= coverThumbWidth {
		return img
	}

	height := bounds.Dy() * coverThumbWidth / bounds.Dx()
	dst := image.NewRGBA(image.Rect(0, 0, coverThumbWidth, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

func thumbName(filename string) string {
	return "thumb_" + strings.TrimSuffix(filename, filepath.Ext(filename)) + ".jpg"
}

func (s *BookService) removeCoverFiles(filename string) {
	// 尽力而为：文件残留不影响数据一致性。
	os.Remove(filepath.Join(s.uploadDir, filename))
	os.Remove(filepath.Join(s.uploadDir, thumbName(filename)))
}
