package db

import "testing"

func TestAverageRating(t *testing.T) {
	book := Book{}
	if got := book.AverageRating(); got != nil {
		t.Fatalf("expected nil rating for book without reviews, got %v", *got)
	}

	book.Reviews = []Review{{Rating: 3}, {Rating: 4}, {Rating: 4}}
	got := book.AverageRating()
	if got == nil {
		t.Fatal("expected rating, got nil")
	}
	// (3+4+4)/3 округляется до двух знаков
	if *got != 3.67 {
		t.Fatalf("expected 3.67, got %v", *got)
	}

	book.Reviews = []Review{{Rating: 5}}
	if got := book.AverageRating(); got == nil || *got != 5 {
		t.Fatalf("expected 5, got %v", got)
	}
}

func TestUserFullName(t *testing.T) {
	user := User{LastName: "Иванов", FirstName: "Иван", MiddleName: "Иванович"}
	if got := user.FullName(); got != "Иванов Иван Иванович" {
		t.Fatalf("unexpected full name: %q", got)
	}

	user.MiddleName = ""
	if got := user.FullName(); got != "Иванов Иван" {
		t.Fatalf("middle name must be optional: %q", got)
	}
}

func TestRolePermissions(t *testing.T) {
	admin := User{Role: Role{Name: RoleAdmin}}
	moderator := User{Role: Role{Name: RoleModerator}}
	regular := User{Role: Role{Name: RoleUser}}

	if !admin.IsAdmin() || !admin.CanEditBooks() {
		t.Fatal("admin must manage and edit books")
	}
	if moderator.IsAdmin() {
		t.Fatal("moderator must not pass the admin check")
	}
	if !moderator.CanEditBooks() {
		t.Fatal("moderator must be able to edit books")
	}
	if regular.IsAdmin() || regular.CanEditBooks() {
		t.Fatal("regular user must have no editing rights")
	}
}
