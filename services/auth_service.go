package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Dosada05/hoops-predictor/models"
	"github.com/Dosada05/hoops-predictor/repositories"
)

const (
	minPasswordLength    = 8
	verificationTTL      = 24 * time.Hour
	maxDiscordNameLength = 37
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{3,32}$`)

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*models.User, error)
	Login(ctx context.Context, input LoginInput) (*models.User, error)
	VerifyEmail(ctx context.Context, token string) error
}

type RegisterInput struct {
	Email           string  `json:"email"`
	Username        string  `json:"username"`
	Password        string  `json:"password"`
	DiscordUsername *string `json:"discord_username,omitempty"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authService struct {
	userRepo repositories.UserRepository
	mailer   Mailer
	logger   *slog.Logger
	now      func() time.Time
}

func NewAuthService(userRepo repositories.UserRepository, mailer Mailer, logger *slog.Logger) AuthService {
	return &authService{
		userRepo: userRepo,
		mailer:   mailer,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *authService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	email := strings.TrimSpace(strings.ToLower(input.Email))
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return nil, fmt.Errorf("%w: email address is invalid", ErrValidationFailed)
	}
	username := strings.TrimSpace(input.Username)
	if !usernamePattern.MatchString(username) {
		return nil, fmt.Errorf("%w: username must be 3-32 letters, digits or underscores", ErrValidationFailed)
	}
	if len(input.Password) < minPasswordLength {
		return nil, ErrPasswordTooShort
	}

	var discord *string
	if input.DiscordUsername != nil {
		if d := strings.TrimSpace(*input.DiscordUsername); d != "" {
			if len(d) > maxDiscordNameLength {
				return nil, fmt.Errorf("%w: discord username is too long", ErrValidationFailed)
			}
			discord = &d
		}
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	token := uuid.NewString()
	expires := s.now().Add(verificationTTL)
	user := &models.User{
		Email:                 email,
		Username:              username,
		DiscordUsername:       discord,
		PasswordHash:          string(hashedPassword),
		Role:                  models.RoleUser,
		VerificationToken:     &token,
		VerificationExpiresAt: &expires,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		switch {
		case errors.Is(err, repositories.ErrUserEmailConflict):
			return nil, ErrUserEmailConflict
		case errors.Is(err, repositories.ErrUserUsernameConflict):
			return nil, ErrUserUsernameConflict
		case errors.Is(err, repositories.ErrUserDiscordUsernameConflict):
			return nil, ErrUserDiscordUsernameConflict
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	// Регистрация не откатывается из-за почты: ссылку можно выслать повторно вручную.
	if err := s.mailer.SendVerification(ctx, user.Email, user.Username, token); err != nil {
		s.logger.Error("failed to send verification e-mail", slog.Int("user_id", user.ID), slog.Any("error", err))
	}

	user.PasswordHash = ""
	return user, nil
}

func (s *authService) Login(ctx context.Context, input LoginInput) (*models.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.TrimSpace(input.Email))
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}

	err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to compare password hash: %w", err)
	}

	user.PasswordHash = ""
	return user, nil
}

func (s *authService) VerifyEmail(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return ErrVerificationTokenBad
	}
	user, err := s.userRepo.GetByVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ErrVerificationTokenBad
		}
		return fmt.Errorf("failed to find user by verification token: %w", err)
	}
	if user.VerificationExpiresAt != nil && s.now().After(*user.VerificationExpiresAt) {
		return ErrVerificationTokenBad
	}
	if err := s.userRepo.MarkEmailVerified(ctx, user.ID); err != nil {
		return fmt.Errorf("failed to mark email verified: %w", err)
	}
	return nil
}
