// Package user содержит логику регистрации, входа и чтения пользователей.
package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/subscription-tracker/internal/lib/apperr"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/jwt"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/password"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
)

const errInvalidCredentials = "invalid email or password"

// Repository описывает контракт для работы с пользователями в базе данных.
type Repository interface {
	// CreateUser сохраняет пользователя. Занятый email даёт ошибку Conflict.
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	GetUser(ctx context.Context, id string) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
}

// Service отвечает за регистрацию, вход и чтение пользователей.
type Service struct {
	users    Repository
	jwtMaker jwt.Maker
	log      *slog.Logger
}

// New создаёт новый экземпляр Service.
func New(users Repository, jwtMaker jwt.Maker, log *slog.Logger) *Service {
	return &Service{
		users:    users,
		jwtMaker: jwtMaker,
		log:      log,
	}
}

// AuthResult токен и пользователь после регистрации или входа.
type AuthResult struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// Register создаёт пользователя с ролью user и сразу выписывает токен.
func (s *Service) Register(ctx context.Context, req models.RegisterRequest) (AuthResult, error) {
	const op = "services.user.Register"

	u := models.User{Name: req.Name, Email: req.Email, Role: models.RoleUser}
	u.Normalize()
	if err := u.Validate(); err != nil {
		return AuthResult{}, err
	}

	hashed, err := password.GetHash(req.Password)
	if err != nil {
		if errors.Is(err, password.ErrTooShort) {
			return AuthResult{}, apperr.Validation(password.ErrTooShort.Error())
		}
		return AuthResult{}, fmt.Errorf("%s: %w", op, err)
	}
	u.PasswordHash = hashed

	created, err := s.users.CreateUser(ctx, u)
	if err != nil {
		return AuthResult{}, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("user registered", slog.String("user_id", created.ID))

	token, err := s.jwtMaker.GenerateToken(created.ID, created.Role)
	if err != nil {
		return AuthResult{}, fmt.Errorf("%s: %w", op, err)
	}
	return AuthResult{Token: token, User: created}, nil
}

// Login проверяет пароль пользователя и выписывает JWT.
// Неизвестный email и неверный пароль неразличимы для клиента.
func (s *Service) Login(ctx context.Context, email, rawPassword string) (AuthResult, error) {
	const op = "services.user.Login"

	u, err := s.users.GetUserByEmail(ctx, models.NormalizeEmail(email))
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return AuthResult{}, apperr.Unauthorized(errInvalidCredentials)
		}
		return AuthResult{}, fmt.Errorf("%s: %w", op, err)
	}
	if err := password.CompareHash(u.PasswordHash, rawPassword); err != nil {
		return AuthResult{}, apperr.Wrap(apperr.KindUnauthorized, errInvalidCredentials, err)
	}

	token, err := s.jwtMaker.GenerateToken(u.ID, u.Role)
	if err != nil {
		return AuthResult{}, fmt.Errorf("%s: %w", op, err)
	}
	return AuthResult{Token: token, User: u}, nil
}

// List возвращает всех пользователей.
func (s *Service) List(ctx context.Context) ([]models.User, error) {
	const op = "services.user.List"
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return users, nil
}

// Get возвращает пользователя по id.
func (s *Service) Get(ctx context.Context, id string) (models.User, error) {
	const op = "services.user.Get"
	if _, err := uuid.Parse(id); err != nil {
		return models.User{}, apperr.NotFound("user not found")
	}
	u, err := s.users.GetUser(ctx, id)
	if err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}
