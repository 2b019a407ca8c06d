package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/Dosada05/hoops-predictor/models"
	"github.com/Dosada05/hoops-predictor/repositories"
)

const (
	defaultUserListLimit = 50
	maxUserListLimit     = 200
)

type UserService interface {
	GetProfile(ctx context.Context, userID int) (*models.UserProfile, error)
	GetByID(ctx context.Context, userID int) (*models.User, error)
	UpdateProfile(ctx context.Context, userID int, input UpdateProfileInput) (*models.User, error)
}

// UpdateProfileInput changes public names. Blank fields are left as they are;
// the current password is always required.
type UpdateProfileInput struct {
	Username        *string `json:"username"`
	DiscordUsername *string `json:"discordUsername"`
	Password        string  `json:"password"`
}

type userService struct {
	userRepo  repositories.UserRepository
	scoreRepo repositories.TournamentScoreRepository
}

func NewUserService(userRepo repositories.UserRepository, scoreRepo repositories.TournamentScoreRepository) UserService {
	return &userService{userRepo: userRepo, scoreRepo: scoreRepo}
}

func (s *userService) GetByID(ctx context.Context, userID int) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %d: %w", userID, err)
	}
	user.PasswordHash = ""
	return user, nil
}

func (s *userService) GetProfile(ctx context.Context, userID int) (*models.UserProfile, error) {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	correct, err := s.scoreRepo.AllTimeCorrectForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum correct guesses for user %d: %w", userID, err)
	}
	return &models.UserProfile{
		User:           *user,
		CorrectAllTime: correct,
		Rank:           models.RankFor(correct),
	}, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID int, input UpdateProfileInput) (*models.User, error) {
	if input.Password == "" {
		return nil, fmt.Errorf("%w: current password is required", ErrValidationFailed)
	}
	username := trimmed(input.Username)
	discord := trimmed(input.DiscordUsername)
	if username == "" && discord == "" {
		return nil, fmt.Errorf("%w: nothing to update", ErrValidationFailed)
	}
	if username != "" && !usernamePattern.MatchString(username) {
		return nil, fmt.Errorf("%w: username must be 3-32 letters, digits or underscores", ErrValidationFailed)
	}
	if len(discord) > maxDiscordNameLength {
		return nil, fmt.Errorf("%w: discord username is too long", ErrValidationFailed)
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %d: %w", userID, err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to check password: %w", err)
	}

	if username != "" {
		user.Username = username
	}
	if discord != "" {
		user.DiscordUsername = &discord
	}
	if err := s.userRepo.UpdateProfile(ctx, user.ID, user.Username, user.DiscordUsername); err != nil {
		switch {
		case errors.Is(err, repositories.ErrUserUsernameConflict):
			return nil, ErrUserUsernameConflict
		case errors.Is(err, repositories.ErrUserDiscordUsernameConflict):
			return nil, ErrUserDiscordUsernameConflict
		case errors.Is(err, repositories.ErrUserNotFound):
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update profile for user %d: %w", userID, err)
	}
	user.PasswordHash = ""
	return user, nil
}

func trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

// AdminUserService backs the admin users screen.
type AdminUserService interface {
	ListUsers(ctx context.Context, search string, limit, offset int) ([]*models.User, error)
	UpdateAccess(ctx context.Context, userID int, input UpdateAccessInput) (*models.User, error)
}

type UpdateAccessInput struct {
	Role          *models.UserRole `json:"role"`
	EmailVerified *bool            `json:"emailVerified"`
}

type adminUserService struct {
	userRepo repositories.UserRepository
}

func NewAdminUserService(userRepo repositories.UserRepository) AdminUserService {
	return &adminUserService{userRepo: userRepo}
}

func (s *adminUserService) ListUsers(ctx context.Context, search string, limit, offset int) ([]*models.User, error) {
	if limit <= 0 {
		limit = defaultUserListLimit
	}
	if limit > maxUserListLimit {
		limit = maxUserListLimit
	}
	if offset < 0 {
		offset = 0
	}
	users, err := s.userRepo.List(ctx, repositories.ListUsersFilter{
		Search: strings.TrimSpace(search),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	for _, u := range users {
		u.PasswordHash = ""
	}
	return users, nil
}

func (s *adminUserService) UpdateAccess(ctx context.Context, userID int, input UpdateAccessInput) (*models.User, error) {
	if input.Role == nil && input.EmailVerified == nil {
		return nil, fmt.Errorf("%w: nothing to update", ErrValidationFailed)
	}
	if input.Role != nil && *input.Role != models.RoleUser && *input.Role != models.RoleAdmin {
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidationFailed, *input.Role)
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %d: %w", userID, err)
	}

	if input.Role != nil {
		user.Role = *input.Role
	}
	if input.EmailVerified != nil {
		user.EmailVerified = *input.EmailVerified
	}
	if err := s.userRepo.UpdateAccess(ctx, user.ID, user.Role, user.EmailVerified); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update access for user %d: %w", userID, err)
	}
	user.PasswordHash = ""
	return user, nil
}
