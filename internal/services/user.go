package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/harentsoaR/clinic-records-api/internal/models"
	"github.com/harentsoaR/clinic-records-api/internal/store"
	"github.com/harentsoaR/clinic-records-api/internal/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserStore interface {
	InsertUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

type RegisterInput struct {
	Name     string `validate:"required"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8"`
	Role     string `validate:"omitempty,oneof=admin doctor"`
}

type UserService struct {
	users UserStore
	now   func() time.Time
}

func NewUserService(users UserStore) *UserService {
	return &UserService{users: users, now: time.Now}
}

func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if in.Role == "" {
		in.Role = models.RoleDoctor
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	u := &models.User{
		Name:        in.Name,
		Email:       in.Email,
		Password:    hash,
		Role:        in.Role,
		DateCreated: s.now().UTC(),
	}
	if err := s.users.InsertUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			return nil, Conflict("An account with this email already exists")
		}
		return nil, err
	}
	return u, nil
}

// Authenticate checks an email and password pair. Unknown emails and wrong
// passwords fail identically.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	u, err := s.users.GetUserByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, store.ErrNotFound) {
		return nil, Unauthorized("Invalid credentials")
	}
	if err != nil {
		return nil, err
	}
	if !utils.CheckPasswordHash(password, u.Password) {
		return nil, Unauthorized("Invalid credentials")
	}
	return u, nil
}

func (s *UserService) GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	u, err := s.users.GetUser(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, NotFound("User not found")
	}
	return u, err
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
