package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/hoops-predictor/models"
	"github.com/Dosada05/hoops-predictor/repositories"
	"github.com/Dosada05/hoops-predictor/scoring"
)

type GuessService interface {
	SubmitGuess(ctx context.Context, userID, gameID, guessA, guessB int) (*models.Guess, error)
	ListForGame(ctx context.Context, gameID int) ([]*models.Guess, error)
}

type guessService struct {
	guessRepo repositories.GuessRepository
	gameRepo  repositories.GameRepository
	userRepo  repositories.UserRepository
	lockLead  time.Duration
	now       func() time.Time
}

func NewGuessService(
	guessRepo repositories.GuessRepository,
	gameRepo repositories.GameRepository,
	userRepo repositories.UserRepository,
	lockLead time.Duration,
) GuessService {
	return &guessService{
		guessRepo: guessRepo,
		gameRepo:  gameRepo,
		userRepo:  userRepo,
		lockLead:  lockLead,
		now:       time.Now,
	}
}

// SubmitGuess creates or replaces the user's guess while the game is still open.
// The lock is checked against the clock here, so it holds between scheduler runs.
func (s *guessService) SubmitGuess(ctx context.Context, userID, gameID, guessA, guessB int) (*models.Guess, error) {
	if err := scoring.ValidateScore("guessA", guessA); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	if err := scoring.ValidateScore("guessB", guessB); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	game, err := s.gameRepo.GetByID(ctx, nil, gameID)
	if err != nil {
		if errors.Is(err, repositories.ErrGameNotFound) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to get game %d: %w", gameID, err)
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrAuthenticationFailed
		}
		return nil, fmt.Errorf("failed to get user %d: %w", userID, err)
	}
	if !user.EmailVerified {
		return nil, ErrAccountNotVerified
	}

	now := s.now()
	if game.IsLocked(now, s.lockLead) {
		return nil, ErrGameLocked
	}

	guess := &models.Guess{
		TournamentID: game.TournamentID,
		GameID:       game.ID,
		UserID:       userID,
		GuessA:       guessA,
		GuessB:       guessB,
	}
	// Повторная проверка окна выполняется в том же запросе, что и запись
	if err := s.guessRepo.Upsert(ctx, guess, now.Add(s.lockLead)); err != nil {
		switch {
		case errors.Is(err, repositories.ErrGuessWindowClosed):
			return nil, ErrGameLocked
		case errors.Is(err, repositories.ErrGuessReferenceInvalid):
			return nil, ErrAuthenticationFailed
		}
		return nil, fmt.Errorf("failed to store guess: %w", err)
	}
	return guess, nil
}

func (s *guessService) ListForGame(ctx context.Context, gameID int) ([]*models.Guess, error) {
	if _, err := s.gameRepo.GetByID(ctx, nil, gameID); err != nil {
		if errors.Is(err, repositories.ErrGameNotFound) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to get game %d: %w", gameID, err)
	}
	guesses, err := s.guessRepo.ListPublicByGame(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to list guesses for game %d: %w", gameID, err)
	}
	return guesses, nil
}
