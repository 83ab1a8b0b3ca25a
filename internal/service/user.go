package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"storefront-backend/internal/auth"
	"storefront-backend/internal/dto"
	"storefront-backend/internal/model"
	"storefront-backend/internal/repository"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const minPasswordLength = 8

// Session is what a successful signup or login hands back.
type Session struct {
	User      *model.User
	Token     string
	ExpiresAt time.Time
}

type UserService interface {
	Signup(ctx context.Context, req *dto.SignupRequest) (*Session, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*Session, error)
	Me(ctx context.Context, userID string) (*model.User, error)
	GetProfile(ctx context.Context, userID string) (*model.Profile, error)
	UpdateProfile(ctx context.Context, userID string, req *dto.ProfileRequest) (*model.Profile, error)
}

type userServiceImpl struct {
	userRepo   repository.UserRepository
	tokens     auth.TokenIssuer
	bcryptCost int
}

func NewUserService(
	userRepo repository.UserRepository,
	tokens auth.TokenIssuer,
) UserService {
	return &userServiceImpl{
		userRepo:   userRepo,
		tokens:     tokens,
		bcryptCost: bcrypt.DefaultCost,
	}
}

// Signup creates the user and its empty profile together.
func (s *userServiceImpl) Signup(ctx context.Context, req *dto.SignupRequest) (*Session, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, newError(ErrValidation, "a valid email is required")
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, newError(ErrValidation, "name is required")
	}
	if len(req.Password) < minPasswordLength {
		return nil, newError(ErrValidation, "password must be at least %d characters", minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
	}
	profile := &model.Profile{ID: uuid.NewString()}

	err = s.userRepo.CreateWithProfile(ctx, user, profile)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, newError(ErrConflict, "email is already registered")
	}
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	slog.InfoContext(ctx, "user signed up", "user_id", user.ID)
	return s.session(user)
}

func (s *userServiceImpl) Login(ctx context.Context, req *dto.LoginRequest) (*Session, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	user, err := s.userRepo.FindByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, newError(ErrUnauthorized, "invalid email or password")
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, newError(ErrUnauthorized, "invalid email or password")
	}

	return s.session(user)
}

func (s *userServiceImpl) session(user *model.User) (*Session, error) {
	token, expiresAt, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &Session{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

func (s *userServiceImpl) Me(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, newError(ErrNotFound, "user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

func (s *userServiceImpl) GetProfile(ctx context.Context, userID string) (*model.Profile, error) {
	profile, err := s.userRepo.GetProfile(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, newError(ErrNotFound, "profile not found")
	}
	if err != nil {
		return nil, fmt.Errorf("find profile: %w", err)
	}
	return profile, nil
}

func (s *userServiceImpl) UpdateProfile(ctx context.Context, userID string, req *dto.ProfileRequest) (*model.Profile, error) {
	phone := strings.TrimSpace(req.Phone)
	if len(phone) > 15 {
		return nil, newError(ErrValidation, "phone must be at most 15 characters")
	}

	profile, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	profile.Phone = phone
	profile.ShippingAddress = req.ShippingAddress
	if err := s.userRepo.UpdateProfile(ctx, profile); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return profile, nil
}
