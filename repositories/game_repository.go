package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Dosada05/hoops-predictor/models"
)

var (
	ErrGameNotFound          = errors.New("game not found")
	ErrGameTournamentInvalid = errors.New("game tournament reference invalid")
	ErrGameStateMismatch     = errors.New("game is not in the expected status")
)

type GameRepository interface {
	Create(ctx context.Context, game *models.Game) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Game, error)
	GetForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Game, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.Game, error)
	ListUpcoming(ctx context.Context, tournamentID *int, limit int) ([]*models.UpcomingGame, error)
	Update(ctx context.Context, game *models.Game) error
	Delete(ctx context.Context, exec SQLExecutor, id int) error
	Lock(ctx context.Context, id int) error
	LockDue(ctx context.Context, cutoff time.Time) (int64, error)
	SetFinalScore(ctx context.Context, exec SQLExecutor, id, scoreA, scoreB int) error
	CorrectFinalScore(ctx context.Context, exec SQLExecutor, id, scoreA, scoreB int) error
}

type postgresGameRepository struct {
	db *sql.DB
}

func NewPostgresGameRepository(db *sql.DB) GameRepository {
	return &postgresGameRepository{db: db}
}

func (r *postgresGameRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const gameColumns = `g.id, g.tournament_id, g.team_a, g.team_b, g.tipoff_at, g.status, g.stage,
	g.score_a, g.score_b, g.created_at, g.updated_at`

func (r *postgresGameRepository) Create(ctx context.Context, g *models.Game) error {
	query := `
		INSERT INTO games (tournament_id, team_a, team_b, tipoff_at, status, stage)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, g.TournamentID, g.TeamA, g.TeamB, g.TipoffAt, g.Status, g.Stage).
		Scan(&g.ID, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		if code, _, ok := pqErrorCode(err); ok && code == pqForeignKeyViolation {
			return ErrGameTournamentInvalid
		}
		return err
	}
	return nil
}

func (r *postgresGameRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Game, error) {
	row := r.getExecutor(exec).QueryRowContext(ctx, `SELECT `+gameColumns+` FROM games g WHERE g.id = $1`, id)
	return scanGame(row)
}

// GetForUpdate row-locks the game until the surrounding transaction ends.
func (r *postgresGameRepository) GetForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Game, error) {
	row := r.getExecutor(exec).QueryRowContext(ctx, `SELECT `+gameColumns+` FROM games g WHERE g.id = $1 FOR UPDATE`, id)
	return scanGame(row)
}

func (r *postgresGameRepository) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games g WHERE g.tournament_id = $1 ORDER BY g.tipoff_at ASC, g.id ASC`
	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	games := make([]*models.Game, 0)
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		games = append(games, g)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return games, nil
}

func (r *postgresGameRepository) ListUpcoming(ctx context.Context, tournamentID *int, limit int) ([]*models.UpcomingGame, error) {
	query := `
		SELECT ` + gameColumns + `, t.name
		FROM games g
		JOIN tournaments t ON t.id = g.tournament_id
		WHERE g.status IN ('scheduled', 'locked')
		  AND ($1::bigint IS NULL OR g.tournament_id = $1)
		ORDER BY g.tipoff_at ASC, g.id ASC
		LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, tournamentID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	games := make([]*models.UpcomingGame, 0)
	for rows.Next() {
		var (
			ug             models.UpcomingGame
			scoreA, scoreB sql.NullInt64
		)
		err := rows.Scan(
			&ug.ID, &ug.TournamentID, &ug.TeamA, &ug.TeamB, &ug.TipoffAt, &ug.Status, &ug.Stage,
			&scoreA, &scoreB, &ug.CreatedAt, &ug.UpdatedAt, &ug.TournamentName,
		)
		if err != nil {
			return nil, err
		}
		ug.ScoreA, ug.ScoreB = nullIntPtr(scoreA), nullIntPtr(scoreB)
		games = append(games, &ug)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return games, nil
}

// Update changes teams, tipoff and stage of a game that has not finished.
func (r *postgresGameRepository) Update(ctx context.Context, g *models.Game) error {
	query := `
		UPDATE games
		SET team_a = $1, team_b = $2, tipoff_at = $3, stage = $4, updated_at = NOW()
		WHERE id = $5 AND status <> 'finished'
		RETURNING updated_at`
	err := r.db.QueryRowContext(ctx, query, g.TeamA, g.TeamB, g.TipoffAt, g.Stage, g.ID).Scan(&g.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrGameStateMismatch
	}
	return err
}

func (r *postgresGameRepository) Delete(ctx context.Context, exec SQLExecutor, id int) error {
	result, err := r.getExecutor(exec).ExecContext(ctx, `DELETE FROM games WHERE id = $1 AND status <> 'finished'`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrGameStateMismatch)
}

func (r *postgresGameRepository) Lock(ctx context.Context, id int) error {
	query := `UPDATE games SET status = 'locked', updated_at = NOW() WHERE id = $1 AND status = 'scheduled'`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrGameStateMismatch)
}

// LockDue locks every scheduled game whose tipoff is at or before cutoff.
func (r *postgresGameRepository) LockDue(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		UPDATE games
		SET status = 'locked', updated_at = NOW()
		WHERE status = 'scheduled' AND tipoff_at <= $1`
	result, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *postgresGameRepository) SetFinalScore(ctx context.Context, exec SQLExecutor, id, scoreA, scoreB int) error {
	query := `
		UPDATE games
		SET score_a = $1, score_b = $2, status = 'finished', updated_at = NOW()
		WHERE id = $3 AND status <> 'finished'`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, scoreA, scoreB, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrGameStateMismatch)
}

func (r *postgresGameRepository) CorrectFinalScore(ctx context.Context, exec SQLExecutor, id, scoreA, scoreB int) error {
	query := `
		UPDATE games
		SET score_a = $1, score_b = $2, updated_at = NOW()
		WHERE id = $3 AND status = 'finished'`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, scoreA, scoreB, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrGameStateMismatch)
}

func scanGame(row interface{ Scan(...interface{}) error }) (*models.Game, error) {
	var (
		g              models.Game
		scoreA, scoreB sql.NullInt64
	)
	err := row.Scan(&g.ID, &g.TournamentID, &g.TeamA, &g.TeamB, &g.TipoffAt, &g.Status, &g.Stage,
		&scoreA, &scoreB, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGameNotFound
		}
		return nil, err
	}
	g.ScoreA, g.ScoreB = nullIntPtr(scoreA), nullIntPtr(scoreB)
	return &g, nil
}

func nullIntPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}
