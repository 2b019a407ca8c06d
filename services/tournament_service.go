package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gosimple/slug"

	"github.com/Dosada05/hoops-predictor/events"
	"github.com/Dosada05/hoops-predictor/models"
	"github.com/Dosada05/hoops-predictor/repositories"
	"github.com/Dosada05/hoops-predictor/storage"
)

const (
	minTournamentNameLength = 3
	maxTournamentNameLength = 120
	maxWinnerLength         = 120
)

type TournamentService interface {
	CreateTournament(ctx context.Context, input TournamentInput) (*models.Tournament, error)
	UpdateTournament(ctx context.Context, id int, input TournamentInput) (*models.Tournament, error)
	SetStatus(ctx context.Context, id int, status models.TournamentStatus) (*models.Tournament, error)
	FinishTournament(ctx context.Context, id int, winner string) (*models.Tournament, error)
	DeleteTournament(ctx context.Context, id int) error
	GetTournament(ctx context.Context, id int, includeDrafts bool) (*models.Tournament, error)
	ListTournaments(ctx context.Context, includeDrafts bool) ([]*models.Tournament, error)
}

type TournamentInput struct {
	Name      string                   `json:"name"`
	StartDate time.Time                `json:"start_date"`
	EndDate   time.Time                `json:"end_date"`
	Status    *models.TournamentStatus `json:"status,omitempty"`
}

// StandingsSnapshot is the archived copy of a tournament's final standings.
type StandingsSnapshot struct {
	Tournament  *models.Tournament      `json:"tournament"`
	Leaderboard []models.LeaderboardRow `json:"leaderboard"`
	ArchivedAt  time.Time               `json:"archived_at"`
}

type tournamentService struct {
	tx             repositories.Transactor
	tournamentRepo repositories.TournamentRepository
	standings      StandingsService
	store          storage.ObjectStore
	publisher      events.Publisher
	logger         *slog.Logger
	now            func() time.Time
}

func NewTournamentService(
	tx repositories.Transactor,
	tournamentRepo repositories.TournamentRepository,
	standings StandingsService,
	store storage.ObjectStore,
	publisher events.Publisher,
	logger *slog.Logger,
) TournamentService {
	return &tournamentService{
		tx:             tx,
		tournamentRepo: tournamentRepo,
		standings:      standings,
		store:          store,
		publisher:      publisher,
		logger:         logger,
		now:            time.Now,
	}
}

func validateTournamentInput(input TournamentInput) (string, error) {
	name := strings.TrimSpace(input.Name)
	if n := len([]rune(name)); n < minTournamentNameLength || n > maxTournamentNameLength {
		return "", fmt.Errorf("%w: name must be %d-%d characters", ErrValidationFailed, minTournamentNameLength, maxTournamentNameLength)
	}
	if input.StartDate.IsZero() || input.EndDate.IsZero() {
		return "", fmt.Errorf("%w: start_date and end_date are required", ErrValidationFailed)
	}
	if input.EndDate.Before(input.StartDate) {
		return "", ErrTournamentInvalidDates
	}
	return name, nil
}

func (s *tournamentService) get(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Tournament, error) {
	t, err := s.tournamentRepo.GetByID(ctx, exec, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to get tournament %d: %w", id, err)
	}
	return t, nil
}

func mapTournamentWriteError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrTournamentSlugConflict):
		return ErrTournamentSlugConflict
	case errors.Is(err, repositories.ErrTournamentNotMutable):
		return ErrTournamentArchived
	case errors.Is(err, repositories.ErrTournamentNotFound):
		return ErrTournamentNotFound
	}
	return err
}

func (s *tournamentService) CreateTournament(ctx context.Context, input TournamentInput) (*models.Tournament, error) {
	name, err := validateTournamentInput(input)
	if err != nil {
		return nil, err
	}
	status := models.TournamentDraft
	if input.Status != nil {
		if *input.Status != models.TournamentDraft && *input.Status != models.TournamentActive {
			return nil, fmt.Errorf("%w: new tournament must be draft or active", ErrInvalidStatusTransition)
		}
		status = *input.Status
	}

	t := &models.Tournament{
		Name:      name,
		Slug:      slug.Make(name),
		StartDate: input.StartDate.UTC(),
		EndDate:   input.EndDate.UTC(),
		Status:    status,
	}
	if err := s.tournamentRepo.Create(ctx, t); err != nil {
		if mapped := mapTournamentWriteError(err); mapped != err {
			return nil, mapped
		}
		return nil, fmt.Errorf("failed to create tournament: %w", err)
	}
	return t, nil
}

func (s *tournamentService) UpdateTournament(ctx context.Context, id int, input TournamentInput) (*models.Tournament, error) {
	name, err := validateTournamentInput(input)
	if err != nil {
		return nil, err
	}
	t, err := s.get(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if t.IsArchived() {
		return nil, ErrTournamentArchived
	}

	t.Name = name
	t.Slug = slug.Make(name)
	t.StartDate = input.StartDate.UTC()
	t.EndDate = input.EndDate.UTC()
	if err := s.tournamentRepo.Update(ctx, t); err != nil {
		if mapped := mapTournamentWriteError(err); mapped != err {
			return nil, mapped
		}
		return nil, fmt.Errorf("failed to update tournament %d: %w", id, err)
	}

	if input.Status != nil && *input.Status != t.Status {
		return s.SetStatus(ctx, id, *input.Status)
	}
	return t, nil
}

// SetStatus toggles between draft and active. Archiving goes through FinishTournament.
func (s *tournamentService) SetStatus(ctx context.Context, id int, status models.TournamentStatus) (*models.Tournament, error) {
	if status != models.TournamentDraft && status != models.TournamentActive {
		return nil, fmt.Errorf("%w: status must be draft or active", ErrInvalidStatusTransition)
	}
	t, err := s.get(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if t.IsArchived() {
		return nil, ErrTournamentArchived
	}
	if t.Status == status {
		return t, nil
	}
	if err := s.tournamentRepo.UpdateStatus(ctx, id, status); err != nil {
		return nil, fmt.Errorf("failed to set tournament %d status: %w", id, mapTournamentWriteError(err))
	}
	t.Status = status
	return t, nil
}

func (s *tournamentService) FinishTournament(ctx context.Context, id int, winner string) (*models.Tournament, error) {
	winner = strings.TrimSpace(winner)
	if winner == "" {
		return nil, ErrTournamentWinnerMissing
	}
	if len([]rune(winner)) > maxWinnerLength {
		return nil, fmt.Errorf("%w: winner must be at most %d characters", ErrValidationFailed, maxWinnerLength)
	}

	var archived *models.Tournament
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		t, err := s.get(ctx, exec, id)
		if err != nil {
			return err
		}
		if t.IsArchived() {
			return ErrTournamentArchived
		}
		if err := s.tournamentRepo.Archive(ctx, exec, id, winner); err != nil {
			return mapTournamentWriteError(err)
		}
		t.Status = models.TournamentArchived
		t.Winner = &winner
		archived = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("tournament archived", slog.Int("tournament_id", id), slog.String("winner", winner))

	snapshotURL := s.archiveSnapshot(ctx, archived)
	payload := events.TournamentArchivedPayload{TournamentID: id, Winner: winner, SnapshotURL: snapshotURL}
	if err := s.publisher.Publish(ctx, events.TournamentArchived, payload); err != nil {
		s.logger.Error("failed to publish event", slog.String("routing_key", events.TournamentArchived), slog.Any("error", err))
	}
	return archived, nil
}

// archiveSnapshot stores the final leaderboard. Failures are logged; the
// tournament is archived either way.
func (s *tournamentService) archiveSnapshot(ctx context.Context, t *models.Tournament) string {
	board, err := s.standings.TournamentLeaderboard(ctx, t.ID)
	if err != nil {
		s.logger.Error("failed to load leaderboard for snapshot", slog.Int("tournament_id", t.ID), slog.Any("error", err))
		return ""
	}
	body, err := json.Marshal(StandingsSnapshot{Tournament: t, Leaderboard: board, ArchivedAt: s.now().UTC()})
	if err != nil {
		s.logger.Error("failed to encode snapshot", slog.Int("tournament_id", t.ID), slog.Any("error", err))
		return ""
	}
	key := snapshotKey(t)
	res, err := s.store.Put(ctx, key, "application/json", bytes.NewReader(body))
	if err != nil {
		s.logger.Error("failed to upload snapshot", slog.String("key", key), slog.Any("error", err))
		return ""
	}
	return res.Location
}

func snapshotKey(t *models.Tournament) string {
	return fmt.Sprintf("snapshots/tournaments/%d-%s.json", t.ID, t.Slug)
}

func (s *tournamentService) DeleteTournament(ctx context.Context, id int) error {
	t, err := s.get(ctx, nil, id)
	if err != nil {
		return err
	}
	if t.IsArchived() {
		return ErrTournamentArchived
	}
	if err := s.tournamentRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return ErrTournamentNotFound
		}
		return fmt.Errorf("failed to delete tournament %d: %w", id, err)
	}
	return nil
}

func (s *tournamentService) GetTournament(ctx context.Context, id int, includeDrafts bool) (*models.Tournament, error) {
	t, err := s.get(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if !includeDrafts && t.Status == models.TournamentDraft {
		return nil, ErrTournamentNotFound
	}
	return t, nil
}

func (s *tournamentService) ListTournaments(ctx context.Context, includeDrafts bool) ([]*models.Tournament, error) {
	all, err := s.tournamentRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}
	if includeDrafts {
		return all, nil
	}
	visible := make([]*models.Tournament, 0, len(all))
	for _, t := range all {
		if t.Status != models.TournamentDraft {
			visible = append(visible, t)
		}
	}
	return visible, nil
}
