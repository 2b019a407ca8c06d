package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"github.com/Dosada05/hoops-predictor/models"
	"github.com/Dosada05/hoops-predictor/scoring"
)

var (
	ErrGuessNotFound         = errors.New("guess not found")
	ErrGuessAlreadyEvaluated = errors.New("guess already evaluated")
	ErrGuessNotEvaluated     = errors.New("guess not evaluated yet")
	ErrGuessReferenceInvalid = errors.New("guess game or user reference invalid")
	ErrGuessWindowClosed     = errors.New("game no longer accepts guesses")
)

type GuessRepository interface {
	Upsert(ctx context.Context, guess *models.Guess, openBefore time.Time) error
	ListByGame(ctx context.Context, exec SQLExecutor, gameID int) ([]*models.Guess, error)
	ListPublicByGame(ctx context.Context, gameID int) ([]*models.Guess, error)
	ListByUserForGames(ctx context.Context, userID int, gameIDs []int) ([]*models.Guess, error)
	RecordEvaluation(ctx context.Context, exec SQLExecutor, guessID int, result scoring.Result) error
	ReplaceEvaluation(ctx context.Context, exec SQLExecutor, guessID int, result scoring.Result) error
}

type postgresGuessRepository struct {
	db *sql.DB
}

func NewPostgresGuessRepository(db *sql.DB) GuessRepository {
	return &postgresGuessRepository{db: db}
}

func (r *postgresGuessRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const guessColumns = `gs.id, gs.tournament_id, gs.game_id, gs.user_id, gs.guess_a, gs.guess_b,
	gs.cond_ok, gs.diff_ok, gs.exact_ok, gs.awarded_points, gs.evaluated_at, gs.created_at, gs.updated_at`

// Upsert stores the user's guess for a game, replacing any earlier one.
// The game row is share-locked and must still be scheduled with tipoff after
// openBefore, so the write cannot interleave with a finish or lock of the game.
// The unique (game_id, user_id) constraint makes concurrent submissions collapse into one row.
func (r *postgresGuessRepository) Upsert(ctx context.Context, g *models.Guess, openBefore time.Time) error {
	query := `
		WITH open_game AS (
			SELECT id, tournament_id FROM games
			WHERE id = $1 AND status = 'scheduled' AND tipoff_at > $5
			FOR SHARE
		)
		INSERT INTO guesses (tournament_id, game_id, user_id, guess_a, guess_b)
		SELECT og.tournament_id, og.id, $2, $3, $4 FROM open_game og
		ON CONFLICT (game_id, user_id)
		DO UPDATE SET guess_a = EXCLUDED.guess_a, guess_b = EXCLUDED.guess_b, updated_at = NOW()
		WHERE guesses.evaluated_at IS NULL
		RETURNING id, tournament_id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, g.GameID, g.UserID, g.GuessA, g.GuessB, openBefore).
		Scan(&g.ID, &g.TournamentID, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		// Пусто: игра закрыта или прогноз уже оценён
		if errors.Is(err, sql.ErrNoRows) {
			return ErrGuessWindowClosed
		}
		if code, _, ok := pqErrorCode(err); ok && code == pqForeignKeyViolation {
			return ErrGuessReferenceInvalid
		}
		return err
	}
	return nil
}

func (r *postgresGuessRepository) ListByGame(ctx context.Context, exec SQLExecutor, gameID int) ([]*models.Guess, error) {
	query := `SELECT ` + guessColumns + ` FROM guesses gs WHERE gs.game_id = $1 ORDER BY gs.id ASC`
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, gameID)
	if err != nil {
		return nil, err
	}
	return collectGuesses(rows, false)
}

func (r *postgresGuessRepository) ListPublicByGame(ctx context.Context, gameID int) ([]*models.Guess, error) {
	query := `
		SELECT ` + guessColumns + `, u.username
		FROM guesses gs
		JOIN users u ON u.id = gs.user_id
		WHERE gs.game_id = $1
		ORDER BY u.username ASC`
	rows, err := r.db.QueryContext(ctx, query, gameID)
	if err != nil {
		return nil, err
	}
	return collectGuesses(rows, true)
}

func (r *postgresGuessRepository) ListByUserForGames(ctx context.Context, userID int, gameIDs []int) ([]*models.Guess, error) {
	if len(gameIDs) == 0 {
		return []*models.Guess{}, nil
	}
	query := `SELECT ` + guessColumns + ` FROM guesses gs WHERE gs.user_id = $1 AND gs.game_id = ANY($2)`
	rows, err := r.db.QueryContext(ctx, query, userID, pq.Array(gameIDs))
	if err != nil {
		return nil, err
	}
	return collectGuesses(rows, false)
}

// RecordEvaluation writes the evaluation once; a second call for the same guess fails.
func (r *postgresGuessRepository) RecordEvaluation(ctx context.Context, exec SQLExecutor, guessID int, res scoring.Result) error {
	query := `
		UPDATE guesses
		SET cond_ok = $1, diff_ok = $2, exact_ok = $3, awarded_points = $4, evaluated_at = NOW()
		WHERE id = $5 AND evaluated_at IS NULL`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, res.CondOK, res.DiffOK, res.ExactOK, res.Points, guessID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrGuessAlreadyEvaluated)
}

// ReplaceEvaluation overwrites an existing evaluation during a score correction.
func (r *postgresGuessRepository) ReplaceEvaluation(ctx context.Context, exec SQLExecutor, guessID int, res scoring.Result) error {
	query := `
		UPDATE guesses
		SET cond_ok = $1, diff_ok = $2, exact_ok = $3, awarded_points = $4, evaluated_at = NOW()
		WHERE id = $5 AND evaluated_at IS NOT NULL`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, res.CondOK, res.DiffOK, res.ExactOK, res.Points, guessID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrGuessNotEvaluated)
}

func collectGuesses(rows *sql.Rows, withUsername bool) ([]*models.Guess, error) {
	defer rows.Close()

	guesses := make([]*models.Guess, 0)
	for rows.Next() {
		var (
			g           models.Guess
			evaluatedAt sql.NullTime
		)
		dest := []interface{}{
			&g.ID, &g.TournamentID, &g.GameID, &g.UserID, &g.GuessA, &g.GuessB,
			&g.CondOK, &g.DiffOK, &g.ExactOK, &g.AwardedPoints, &evaluatedAt, &g.CreatedAt, &g.UpdatedAt,
		}
		if withUsername {
			dest = append(dest, &g.Username)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		if evaluatedAt.Valid {
			g.EvaluatedAt = &evaluatedAt.Time
		}
		guesses = append(guesses, &g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return guesses, nil
}
