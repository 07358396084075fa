package main

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/Naykiry/webdev-exam-2025/internal/config"
	"github.com/Naykiry/webdev-exam-2025/internal/db"
	"golang.org/x/crypto/bcrypt"
)

// 测试数据生成器
func main() {
	cfg := config.Load()
	if err := db.Init(cfg.DatabasePath); err != nil {
		log.Fatal("数据库初始化失败:", err)
	}

	fmt.Println("开始生成测试数据...")

	users := createTestUsers()
	genres := createTestGenres()
	books := createTestBooks(genres)
	createTestReviews(books, users)
	createTestViews(books, users)

	fmt.Println("测试数据生成完成！")
	fmt.Println("用户: admin/adminpass, mod/modpass, user/userpass")
	fmt.Printf("图书: %d 本，体裁: %d 个\n", len(books), len(genres))
}

// 创建测试用户
func createTestUsers() []db.User {
	var count int64
	db.DB.Model(&db.User{}).Count(&count)
	if count > 0 {
		fmt.Println("用户已存在，跳过创建")
		var users []db.User
		db.DB.Find(&users)
		return users
	}

	roleID := func(name string) uint {
		var role db.Role
		db.DB.Where("name = ?", name).First(&role)
		return role.ID
	}

	users := []db.User{
		{Username: "admin", LastName: "Админов", FirstName: "Админ", MiddleName: "Админович", RoleID: roleID(db.RoleAdmin)},
		{Username: "mod", LastName: "Модеров", FirstName: "Мод", MiddleName: "Модович", RoleID: roleID(db.RoleModerator)},
		{Username: "user", LastName: "Юзеров", FirstName: "Юзер", MiddleName: "Юзерович", RoleID: roleID(db.RoleUser)},
	}
	passwords := []string{"adminpass", "modpass", "userpass"}
	for i := range users {
		hashed, _ := bcrypt.GenerateFromPassword([]byte(passwords[i]), bcrypt.DefaultCost)
		users[i].PasswordHash = string(hashed)
		db.DB.Create(&users[i])
	}

	fmt.Println("测试用户创建完成")
	return users
}

// 创建测试体裁
func createTestGenres() []db.Genre {
	var count int64
	db.DB.Model(&db.Genre{}).Count(&count)
	if count > 0 {
		fmt.Println("体裁已存在，跳过创建")
		var genres []db.Genre
		db.DB.Find(&genres)
		return genres
	}

	genres := []db.Genre{{Name: "Фантастика"}, {Name: "Приключения"}, {Name: "Научные"}}
	for i := range genres {
		db.DB.Create(&genres[i])
	}

	fmt.Println("测试体裁创建完成")
	return genres
}

type seedBook struct {
	title     string
	desc      string
	year      int
	publisher string
	author    string
	pages     int
	genres    []int
}

// 创建测试图书
func createTestBooks(genres []db.Genre) []db.Book {
	var count int64
	db.DB.Model(&db.Book{}).Count(&count)
	if count > 0 {
		fmt.Println("图书已存在，跳过创建")
		var books []db.Book
		db.DB.Find(&books)
		return books
	}

	seeds := []seedBook{
		{"Звёздный путь", "Про космос и приключения.", 2020, "КосмоИздат", "Иван Космонавтов", 320, []int{0, 1}},
		{"Мозг и разум", "Научные исследования о мозге.", 2021, "НаукаПресс", "Доктор Разумов", 280, []int{2}},
		{"Тайна третьей планеты", "Классика советской фантастики.", 1981, "Детгиз", "Кир Булычёв", 190, []int{0, 1}},
		{"Путешествие к центру Земли", "Приключенческий роман.", 1864, "Hetzel", "Жюль Верн", 320, []int{1}},
		{"Краткая история времени", "Популярная наука о космосе и времени.", 1988, "Bantam Books", "Стивен Хокинг", 256, []int{2}},
		{"Дети капитана Гранта", "Приключения и открытия.", 1868, "Hetzel", "Жюль Верн", 350, []int{1}},
		{"Основание", "Научно-фантастическая сага о будущем человечества.", 1951, "Gnome Press", "Айзек Азимов", 255, []int{0}},
		{"Нейромант", "Киберпанк-роман о виртуальной реальности.", 1984, "Ace", "Уильям Гибсон", 271, []int{0}},
		{"Квантовая механика", "Введение в квантовую физику.", 2023, "НаукаПресс", "Профессор Квантов", 412, []int{2}},
		{"Марсианин", "История выживания на Марсе.", 2011, "Crown", "Энди Вейер", 369, []int{0, 2}},
		{"Вокруг света за 80 дней", "Классическое приключение.", 1872, "Hetzel", "Жюль Верн", 304, []int{1}},
		{"Теория струн", "Современная физическая теория.", 2024, "НаукаПресс", "Мария Струнина", 520, []int{2}},
		{"Солярис", "Философская фантастика о контакте.", 1961, "МИР", "Станислав Лем", 286, []int{0}},
		{"В горах безумия", "Мистические приключения в Антарктиде.", 1936, "Astounding", "Говард Лавкрафт", 186, []int{0, 1}},
		{"Параллельные вселенные", "Теория мультивселенной.", 2025, "НаукаПресс", "Алекс Мультиверс", 345, []int{2}},
	}

	books := make([]db.Book, 0, len(seeds))
	for _, seed := range seeds {
		book := db.Book{
			Title:       seed.title,
			Description: seed.desc,
			Year:        seed.year,
			Publisher:   seed.publisher,
			Author:      seed.author,
			Pages:       seed.pages,
		}
		for _, idx := range seed.genres {
			book.Genres = append(book.Genres, genres[idx])
		}
		db.DB.Create(&book)
		books = append(books, book)
	}

	fmt.Println("测试图书创建完成")
	return books
}

// 创建测试书评：每个用户随机评几本书，跳过已有组合
func createTestReviews(books []db.Book, users []db.User) {
	var count int64
	db.DB.Model(&db.Review{}).Count(&count)
	if count > 0 {
		fmt.Println("书评已存在，跳过创建")
		return
	}

	texts := []string{
		"Отличная книга, рекомендую!",
		"Интересный сюжет, но затянуто.",
		"Прочитал на одном дыхании.",
		"Не моё, бросил на середине.",
		"Хорошее изложение сложной темы.",
	}

	rng := rand.New(rand.NewSource(7))
	for _, user := range users {
		for i := 0; i < 5; i++ {
			book := books[rng.Intn(len(books))]
			review := db.Review{
				BookID: book.ID,
				UserID: user.ID,
				Rating: rng.Intn(5) + 1,
				Text:   texts[rng.Intn(len(texts))],
			}
			// (book_id, user_id) 唯一索引会挡掉重复组合
			db.DB.Create(&review)
		}
	}

	fmt.Println("测试书评创建完成")
}

// 为统计页面铺一些浏览历史：随机访客在过去 60 天内的浏览
func createTestViews(books []db.Book, users []db.User) {
	var count int64
	db.DB.Model(&db.BookViewLog{}).Count(&count)
	if count > 0 {
		fmt.Println("浏览日志已存在，跳过创建")
		return
	}

	rng := rand.New(rand.NewSource(42))
	now := time.Now().UTC()

	for _, book := range books {
		views := rng.Intn(40)
		for i := 0; i < views; i++ {
			entry := db.BookViewLog{
				BookID:    book.ID,
				CreatedAt: now.AddDate(0, 0, -rng.Intn(60)).Add(-time.Duration(rng.Intn(86400)) * time.Second),
			}
			switch rng.Intn(3) {
			case 0:
				user := users[rng.Intn(len(users))]
				entry.UserID = &user.ID
			case 1:
				sessionID := fmt.Sprintf("seed-session-%d", rng.Intn(6))
				entry.SessionID = &sessionID
			default:
				ip := fmt.Sprintf("192.168.0.%d", rng.Intn(20)+1)
				entry.IP = &ip
			}
			db.DB.Create(&entry)
		}
	}

	fmt.Println("测试浏览日志创建完成")
}
