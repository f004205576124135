package models

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/magabrotheeeer/subscription-tracker/internal/lib/apperr"
)

const (
	// RoleUser роль обычного пользователя.
	RoleUser = "user"
	// RoleAdmin роль администратора.
	RoleAdmin = "admin"
)

var emailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)

// User представляет зарегистрированного пользователя системы.
// Хэш пароля никогда не попадает в JSON.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// RegisterRequest данные для регистрации пользователя.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=50"`
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
}

// LoginRequest данные для входа.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Normalize обрезает пробелы и приводит email к нижнему регистру.
func (u *User) Normalize() {
	u.Name = strings.TrimSpace(u.Name)
	u.Email = NormalizeEmail(u.Email)
	if u.Role == "" {
		u.Role = RoleUser
	}
}

// NormalizeEmail приводит email к виду, в котором он хранится.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Validate проверяет длину имени и формат email.
func (u User) Validate() error {
	n := utf8.RuneCountInString(u.Name)
	switch {
	case n < 2:
		return apperr.Validation("name must be at least 2 characters long")
	case n > 50:
		return apperr.Validation("name must be at most 50 characters long")
	case !emailPattern.MatchString(u.Email):
		return apperr.Validation("please fill a valid email address")
	case u.Role != RoleUser && u.Role != RoleAdmin:
		return apperr.Validation("invalid role")
	}
	return nil
}
