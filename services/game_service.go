package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Dosada05/hoops-predictor/events"
	"github.com/Dosada05/hoops-predictor/models"
	"github.com/Dosada05/hoops-predictor/repositories"
	"github.com/Dosada05/hoops-predictor/scoring"
)

const (
	maxFinishAttempts  = 3
	finishRetryBackoff = 50 * time.Millisecond
	maxTeamNameLength  = 120
	upcomingGamesLimit = 100
)

type GameService interface {
	CreateGame(ctx context.Context, input CreateGameInput) (*models.Game, error)
	UpdateGame(ctx context.Context, gameID int, input UpdateGameInput) (*models.Game, error)
	DeleteGame(ctx context.Context, gameID int) error
	GetGame(ctx context.Context, gameID int) (*models.Game, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.Game, error)
	ListUpcoming(ctx context.Context, viewerID *int, tournamentID *int) ([]*models.UpcomingGame, error)
	LockGame(ctx context.Context, gameID int) (*models.Game, error)
	LockDueGames(ctx context.Context) (int64, error)
	FinishGame(ctx context.Context, gameID, scoreA, scoreB int) (*FinishResult, error)
	CorrectFinalScore(ctx context.Context, gameID, scoreA, scoreB int) (*FinishResult, error)
}

type CreateGameInput struct {
	TournamentID int              `json:"tournament_id"`
	TeamA        string           `json:"team_a"`
	TeamB        string           `json:"team_b"`
	TipoffAt     time.Time        `json:"tipoff_at"`
	Stage        models.GameStage `json:"stage"`
}

type UpdateGameInput struct {
	TeamA    *string           `json:"team_a"`
	TeamB    *string           `json:"team_b"`
	TipoffAt *time.Time        `json:"tipoff_at"`
	Stage    *models.GameStage `json:"stage"`
}

type FinishResult struct {
	Game   *models.Game            `json:"game"`
	Deltas []models.StandingsDelta `json:"deltas"`
}

type gameService struct {
	tx             repositories.Transactor
	gameRepo       repositories.GameRepository
	guessRepo      repositories.GuessRepository
	tournamentRepo repositories.TournamentRepository
	standings      StandingsService
	publisher      events.Publisher
	lockLead       time.Duration
	logger         *slog.Logger
	now            func() time.Time
}

func NewGameService(
	tx repositories.Transactor,
	gameRepo repositories.GameRepository,
	guessRepo repositories.GuessRepository,
	tournamentRepo repositories.TournamentRepository,
	standings StandingsService,
	publisher events.Publisher,
	lockLead time.Duration,
	logger *slog.Logger,
) GameService {
	return &gameService{
		tx:             tx,
		gameRepo:       gameRepo,
		guessRepo:      guessRepo,
		tournamentRepo: tournamentRepo,
		standings:      standings,
		publisher:      publisher,
		lockLead:       lockLead,
		logger:         logger,
		now:            time.Now,
	}
}

func validateTeamName(field, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || len([]rune(name)) > maxTeamNameLength {
		return "", fmt.Errorf("%w: %s must be 1-%d characters", ErrValidationFailed, field, maxTeamNameLength)
	}
	return name, nil
}

func validateFinalScore(scoreA, scoreB int) error {
	if err := scoring.ValidateScore("scoreA", scoreA); err != nil {
		return fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	if err := scoring.ValidateScore("scoreB", scoreB); err != nil {
		return fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	if scoreA == scoreB {
		return ErrGameScoreTied
	}
	return nil
}

func (s *gameService) mutableTournament(ctx context.Context, tournamentID int) (*models.Tournament, error) {
	t, err := s.tournamentRepo.GetByID(ctx, nil, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to get tournament %d: %w", tournamentID, err)
	}
	if t.IsArchived() {
		return nil, ErrTournamentArchived
	}
	return t, nil
}

// lockOpenTournament share-locks the tournament inside the caller's transaction
// and rejects archived ones.
func (s *gameService) lockOpenTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) error {
	t, err := s.tournamentRepo.GetForShare(ctx, exec, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return ErrTournamentNotFound
		}
		return fmt.Errorf("failed to get tournament %d: %w", tournamentID, err)
	}
	if t.IsArchived() {
		return ErrTournamentArchived
	}
	return nil
}

func (s *gameService) getGame(ctx context.Context, exec repositories.SQLExecutor, gameID int, forUpdate bool) (*models.Game, error) {
	var (
		game *models.Game
		err  error
	)
	if forUpdate {
		game, err = s.gameRepo.GetForUpdate(ctx, exec, gameID)
	} else {
		game, err = s.gameRepo.GetByID(ctx, exec, gameID)
	}
	if err != nil {
		if errors.Is(err, repositories.ErrGameNotFound) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to get game %d: %w", gameID, err)
	}
	return game, nil
}

func (s *gameService) CreateGame(ctx context.Context, input CreateGameInput) (*models.Game, error) {
	teamA, err := validateTeamName("team_a", input.TeamA)
	if err != nil {
		return nil, err
	}
	teamB, err := validateTeamName("team_b", input.TeamB)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(teamA, teamB) {
		return nil, fmt.Errorf("%w: a team cannot play itself", ErrValidationFailed)
	}
	if input.TipoffAt.IsZero() {
		return nil, fmt.Errorf("%w: tipoff_at is required", ErrValidationFailed)
	}
	stage := input.Stage
	if stage == "" {
		stage = models.StageGroup
	}
	if !stage.Valid() {
		return nil, fmt.Errorf("%w: unknown stage %q", ErrValidationFailed, stage)
	}

	if _, err := s.mutableTournament(ctx, input.TournamentID); err != nil {
		return nil, err
	}

	game := &models.Game{
		TournamentID: input.TournamentID,
		TeamA:        teamA,
		TeamB:        teamB,
		TipoffAt:     input.TipoffAt.UTC(),
		Status:       models.GameScheduled,
		Stage:        stage,
	}
	if err := s.gameRepo.Create(ctx, game); err != nil {
		if errors.Is(err, repositories.ErrGameTournamentInvalid) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to create game: %w", err)
	}
	return game, nil
}

func (s *gameService) UpdateGame(ctx context.Context, gameID int, input UpdateGameInput) (*models.Game, error) {
	game, err := s.getGame(ctx, nil, gameID, false)
	if err != nil {
		return nil, err
	}
	if game.Status == models.GameFinished {
		return nil, ErrGameAlreadyFinished
	}
	if _, err := s.mutableTournament(ctx, game.TournamentID); err != nil {
		return nil, err
	}

	if input.TeamA != nil {
		if game.TeamA, err = validateTeamName("team_a", *input.TeamA); err != nil {
			return nil, err
		}
	}
	if input.TeamB != nil {
		if game.TeamB, err = validateTeamName("team_b", *input.TeamB); err != nil {
			return nil, err
		}
	}
	if strings.EqualFold(game.TeamA, game.TeamB) {
		return nil, fmt.Errorf("%w: a team cannot play itself", ErrValidationFailed)
	}
	if input.TipoffAt != nil {
		if input.TipoffAt.IsZero() {
			return nil, fmt.Errorf("%w: tipoff_at is required", ErrValidationFailed)
		}
		game.TipoffAt = input.TipoffAt.UTC()
	}
	if input.Stage != nil {
		if !input.Stage.Valid() {
			return nil, fmt.Errorf("%w: unknown stage %q", ErrValidationFailed, *input.Stage)
		}
		game.Stage = *input.Stage
	}

	if err := s.gameRepo.Update(ctx, game); err != nil {
		if errors.Is(err, repositories.ErrGameStateMismatch) {
			return nil, ErrGameAlreadyFinished
		}
		return nil, fmt.Errorf("failed to update game %d: %w", gameID, err)
	}
	return game, nil
}

func (s *gameService) DeleteGame(ctx context.Context, gameID int) error {
	return s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		game, err := s.getGame(ctx, exec, gameID, true)
		if err != nil {
			return err
		}
		if game.Status == models.GameFinished {
			return ErrGameAlreadyFinished
		}
		if err := s.lockOpenTournament(ctx, exec, game.TournamentID); err != nil {
			return err
		}
		if err := s.gameRepo.Delete(ctx, exec, gameID); err != nil {
			if errors.Is(err, repositories.ErrGameStateMismatch) {
				return ErrGameAlreadyFinished
			}
			return fmt.Errorf("failed to delete game %d: %w", gameID, err)
		}
		return nil
	})
}

func (s *gameService) GetGame(ctx context.Context, gameID int) (*models.Game, error) {
	return s.getGame(ctx, nil, gameID, false)
}

func (s *gameService) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Game, error) {
	if _, err := s.tournamentRepo.GetByID(ctx, nil, tournamentID); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to get tournament %d: %w", tournamentID, err)
	}
	games, err := s.gameRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list games for tournament %d: %w", tournamentID, err)
	}
	return games, nil
}

func (s *gameService) ListUpcoming(ctx context.Context, viewerID *int, tournamentID *int) ([]*models.UpcomingGame, error) {
	games, err := s.gameRepo.ListUpcoming(ctx, tournamentID, upcomingGamesLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list upcoming games: %w", err)
	}

	now := s.now()
	ids := make([]int, 0, len(games))
	for _, g := range games {
		g.Locked = g.Game.IsLocked(now, s.lockLead)
		ids = append(ids, g.ID)
	}

	if viewerID == nil || len(games) == 0 {
		return games, nil
	}
	mine, err := s.guessRepo.ListByUserForGames(ctx, *viewerID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load guesses of user %d: %w", *viewerID, err)
	}
	byGame := make(map[int]*models.Guess, len(mine))
	for _, g := range mine {
		byGame[g.GameID] = g
	}
	for _, g := range games {
		g.MyGuess = byGame[g.ID]
	}
	return games, nil
}

func (s *gameService) LockGame(ctx context.Context, gameID int) (*models.Game, error) {
	game, err := s.getGame(ctx, nil, gameID, false)
	if err != nil {
		return nil, err
	}
	switch game.Status {
	case models.GameFinished:
		return nil, ErrGameAlreadyFinished
	case models.GameLocked:
		return nil, fmt.Errorf("%w: game %d is already locked", ErrInvalidStatusTransition, gameID)
	}
	if err := s.gameRepo.Lock(ctx, gameID); err != nil {
		if errors.Is(err, repositories.ErrGameStateMismatch) {
			return nil, fmt.Errorf("%w: game %d is no longer scheduled", ErrInvalidStatusTransition, gameID)
		}
		return nil, fmt.Errorf("failed to lock game %d: %w", gameID, err)
	}
	game.Status = models.GameLocked
	return game, nil
}

// LockDueGames locks every scheduled game whose tipoff is within the lock lead.
func (s *gameService) LockDueGames(ctx context.Context) (int64, error) {
	n, err := s.gameRepo.LockDue(ctx, s.now().Add(s.lockLead))
	if err != nil {
		return 0, fmt.Errorf("failed to lock due games: %w", err)
	}
	if n > 0 {
		s.logger.Info("games locked by schedule", slog.Int64("count", n))
	}
	return n, nil
}

func (s *gameService) FinishGame(ctx context.Context, gameID, scoreA, scoreB int) (*FinishResult, error) {
	if err := validateFinalScore(scoreA, scoreB); err != nil {
		return nil, err
	}

	var result *FinishResult
	err := s.retryTx(ctx, "finish", gameID, func(exec repositories.SQLExecutor) error {
		game, err := s.getGame(ctx, exec, gameID, true)
		if err != nil {
			return err
		}
		if game.Status == models.GameFinished {
			return ErrGameAlreadyFinished
		}
		// Архивный турнир уже сохранён в снапшоте, таблицу не трогаем
		if err := s.lockOpenTournament(ctx, exec, game.TournamentID); err != nil {
			return err
		}

		if err := s.gameRepo.SetFinalScore(ctx, exec, gameID, scoreA, scoreB); err != nil {
			if errors.Is(err, repositories.ErrGameStateMismatch) {
				return ErrGameAlreadyFinished
			}
			return fmt.Errorf("failed to set final score: %w", err)
		}
		game.Status = models.GameFinished
		game.ScoreA, game.ScoreB = &scoreA, &scoreB

		guesses, err := s.guessRepo.ListByGame(ctx, exec, gameID)
		if err != nil {
			return fmt.Errorf("failed to list guesses: %w", err)
		}
		deltas, err := s.standings.ApplyGameResult(ctx, exec, game, guesses)
		if err != nil {
			return err
		}
		result = &FinishResult{Game: game, Deltas: deltas}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("game finished",
		slog.Int("game_id", gameID),
		slog.Int("score_a", scoreA),
		slog.Int("score_b", scoreB),
		slog.Int("guesses", len(result.Deltas)))
	s.publish(ctx, events.GameFinished, result)
	return result, nil
}

// CorrectFinalScore replaces the score of a finished game and moves standings by
// the difference between the old and new evaluations.
func (s *gameService) CorrectFinalScore(ctx context.Context, gameID, scoreA, scoreB int) (*FinishResult, error) {
	if err := validateFinalScore(scoreA, scoreB); err != nil {
		return nil, err
	}

	var result *FinishResult
	err := s.retryTx(ctx, "correct", gameID, func(exec repositories.SQLExecutor) error {
		game, err := s.getGame(ctx, exec, gameID, true)
		if err != nil {
			return err
		}
		if game.Status != models.GameFinished {
			return ErrGameNotFinished
		}
		if err := s.lockOpenTournament(ctx, exec, game.TournamentID); err != nil {
			return err
		}

		if err := s.gameRepo.CorrectFinalScore(ctx, exec, gameID, scoreA, scoreB); err != nil {
			if errors.Is(err, repositories.ErrGameStateMismatch) {
				return ErrGameNotFinished
			}
			return fmt.Errorf("failed to correct final score: %w", err)
		}
		game.ScoreA, game.ScoreB = &scoreA, &scoreB

		guesses, err := s.guessRepo.ListByGame(ctx, exec, gameID)
		if err != nil {
			return fmt.Errorf("failed to list guesses: %w", err)
		}
		deltas, err := s.standings.ReapplyGameResult(ctx, exec, game, guesses)
		if err != nil {
			return err
		}
		result = &FinishResult{Game: game, Deltas: deltas}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Warn("final score corrected",
		slog.Int("game_id", gameID),
		slog.Int("score_a", scoreA),
		slog.Int("score_b", scoreB),
		slog.Int("changed_rows", len(result.Deltas)))
	s.publish(ctx, events.GameScoreCorrected, result)
	return result, nil
}

// retryTx reruns fn in a fresh transaction when Postgres aborts it with a
// serialization failure or deadlock.
func (s *gameService) retryTx(ctx context.Context, op string, gameID int, fn func(exec repositories.SQLExecutor) error) error {
	var err error
	for attempt := 1; attempt <= maxFinishAttempts; attempt++ {
		err = s.tx.WithinTx(ctx, fn)
		if err == nil || !repositories.IsRetryable(err) {
			return err
		}
		s.logger.Warn("transaction aborted, retrying",
			slog.String("op", op),
			slog.Int("game_id", gameID),
			slog.Int("attempt", attempt),
			slog.Any("error", err))
		if attempt == maxFinishAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * finishRetryBackoff):
		}
	}
	return fmt.Errorf("game %d %s failed after %d attempts: %w", gameID, op, maxFinishAttempts, err)
}

func (s *gameService) publish(ctx context.Context, routingKey string, result *FinishResult) {
	payload := events.GameFinishedPayload{
		GameID:       result.Game.ID,
		TournamentID: result.Game.TournamentID,
		ScoreA:       *result.Game.ScoreA,
		ScoreB:       *result.Game.ScoreB,
		Evaluated:    len(result.Deltas),
	}
	if err := s.publisher.Publish(ctx, routingKey, payload); err != nil {
		s.logger.Error("failed to publish event", slog.String("routing_key", routingKey), slog.Any("error", err))
	}
}
