package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dosada05/hoops-predictor/models"
	"github.com/Dosada05/hoops-predictor/repositories"
	"github.com/Dosada05/hoops-predictor/scoring"
)

const (
	tournamentLeaderboardLimit = 200
	allTimeLeaderboardLimit    = 500
)

// StandingsService folds evaluated guesses into per-tournament totals.
// Apply and Reapply must run inside the caller's transaction.
type StandingsService interface {
	ApplyGameResult(ctx context.Context, exec repositories.SQLExecutor, game *models.Game, guesses []*models.Guess) ([]models.StandingsDelta, error)
	ReapplyGameResult(ctx context.Context, exec repositories.SQLExecutor, game *models.Game, guesses []*models.Guess) ([]models.StandingsDelta, error)
	TournamentLeaderboard(ctx context.Context, tournamentID int) ([]models.LeaderboardRow, error)
	AllTimeLeaderboard(ctx context.Context) ([]models.AllTimeRow, error)
}

type standingsService struct {
	guessRepo      repositories.GuessRepository
	scoreRepo      repositories.TournamentScoreRepository
	tournamentRepo repositories.TournamentRepository
}

func NewStandingsService(
	guessRepo repositories.GuessRepository,
	scoreRepo repositories.TournamentScoreRepository,
	tournamentRepo repositories.TournamentRepository,
) StandingsService {
	return &standingsService{
		guessRepo:      guessRepo,
		scoreRepo:      scoreRepo,
		tournamentRepo: tournamentRepo,
	}
}

func finalScore(game *models.Game) (int, int, error) {
	if game.Status != models.GameFinished || game.ScoreA == nil || game.ScoreB == nil {
		return 0, 0, fmt.Errorf("%w: game %d has no final score", ErrGameNotFinished, game.ID)
	}
	return *game.ScoreA, *game.ScoreB, nil
}

func correctCount(res scoring.Result) int {
	if res.CondOK {
		return 1
	}
	return 0
}

func (s *standingsService) ApplyGameResult(ctx context.Context, exec repositories.SQLExecutor, game *models.Game, guesses []*models.Guess) ([]models.StandingsDelta, error) {
	actualA, actualB, err := finalScore(game)
	if err != nil {
		return nil, err
	}

	deltas := make([]models.StandingsDelta, 0, len(guesses))
	for _, g := range guesses {
		res := scoring.Evaluate(game.Stage, g.GuessA, g.GuessB, actualA, actualB)
		if err := s.guessRepo.RecordEvaluation(ctx, exec, g.ID, res); err != nil {
			return nil, fmt.Errorf("failed to record evaluation for guess %d: %w", g.ID, err)
		}
		if err := s.scoreRepo.AddDelta(ctx, exec, game.TournamentID, g.UserID, res.Points, correctCount(res)); err != nil {
			return nil, fmt.Errorf("failed to add standings delta for user %d: %w", g.UserID, err)
		}
		deltas = append(deltas, models.StandingsDelta{UserID: g.UserID, Points: res.Points, Correct: correctCount(res)})
	}
	return deltas, nil
}

// ReapplyGameResult re-evaluates guesses of an already finished game against its
// corrected score and adds only the difference to each standings row.
func (s *standingsService) ReapplyGameResult(ctx context.Context, exec repositories.SQLExecutor, game *models.Game, guesses []*models.Guess) ([]models.StandingsDelta, error) {
	actualA, actualB, err := finalScore(game)
	if err != nil {
		return nil, err
	}

	deltas := make([]models.StandingsDelta, 0, len(guesses))
	for _, g := range guesses {
		res := scoring.Evaluate(game.Stage, g.GuessA, g.GuessB, actualA, actualB)
		points, correct := res.Points, correctCount(res)

		if g.Evaluated() {
			if err := s.guessRepo.ReplaceEvaluation(ctx, exec, g.ID, res); err != nil {
				return nil, fmt.Errorf("failed to replace evaluation for guess %d: %w", g.ID, err)
			}
			points -= g.AwardedPoints
			if g.CondOK {
				correct--
			}
		} else if err := s.guessRepo.RecordEvaluation(ctx, exec, g.ID, res); err != nil {
			return nil, fmt.Errorf("failed to record evaluation for guess %d: %w", g.ID, err)
		}

		if points == 0 && correct == 0 {
			continue
		}
		if err := s.scoreRepo.AddDelta(ctx, exec, game.TournamentID, g.UserID, points, correct); err != nil {
			return nil, fmt.Errorf("failed to add standings delta for user %d: %w", g.UserID, err)
		}
		deltas = append(deltas, models.StandingsDelta{UserID: g.UserID, Points: points, Correct: correct})
	}
	return deltas, nil
}

func (s *standingsService) TournamentLeaderboard(ctx context.Context, tournamentID int) ([]models.LeaderboardRow, error) {
	if _, err := s.tournamentRepo.GetByID(ctx, nil, tournamentID); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to get tournament %d: %w", tournamentID, err)
	}
	rows, err := s.scoreRepo.Leaderboard(ctx, tournamentID, tournamentLeaderboardLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard for tournament %d: %w", tournamentID, err)
	}
	return rows, nil
}

func (s *standingsService) AllTimeLeaderboard(ctx context.Context) ([]models.AllTimeRow, error) {
	rows, err := s.scoreRepo.AllTime(ctx, allTimeLeaderboardLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load all-time leaderboard: %w", err)
	}
	return rows, nil
}
