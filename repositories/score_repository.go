package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Dosada05/hoops-predictor/models"
)

var (
	ErrTournamentScoreNotFound = errors.New("tournament score not found")
	ErrTournamentScoreNegative = errors.New("tournament score would become negative")
)

type TournamentScoreRepository interface {
	AddDelta(ctx context.Context, exec SQLExecutor, tournamentID, userID, points, correct int) error
	GetByTournamentAndUser(ctx context.Context, exec SQLExecutor, tournamentID, userID int) (*models.TournamentScore, error)
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.TournamentScore, error)
	Leaderboard(ctx context.Context, tournamentID, limit int) ([]models.LeaderboardRow, error)
	AllTime(ctx context.Context, limit int) ([]models.AllTimeRow, error)
	AllTimeCorrectForUser(ctx context.Context, userID int) (int, error)
}

type postgresTournamentScoreRepository struct {
	db *sql.DB
}

func NewPostgresTournamentScoreRepository(db *sql.DB) TournamentScoreRepository {
	return &postgresTournamentScoreRepository{db: db}
}

func (r *postgresTournamentScoreRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

// AddDelta creates the (tournament, user) row on first use and adds to it afterwards.
// Negative deltas are only used to reverse a previous game during a score correction;
// the table's CHECK constraints keep totals non-negative.
func (r *postgresTournamentScoreRepository) AddDelta(ctx context.Context, exec SQLExecutor, tournamentID, userID, points, correct int) error {
	query := `
		INSERT INTO tournament_scores (tournament_id, user_id, points, correct_any)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (tournament_id, user_id)
		DO UPDATE SET points = tournament_scores.points + EXCLUDED.points,
		              correct_any = tournament_scores.correct_any + EXCLUDED.correct_any,
		              updated_at = NOW()`
	_, err := r.getExecutor(exec).ExecContext(ctx, query, tournamentID, userID, points, correct)
	if err != nil {
		if code, _, ok := pqErrorCode(err); ok && code == pqCheckViolation {
			return ErrTournamentScoreNegative
		}
		return err
	}
	return nil
}

func (r *postgresTournamentScoreRepository) scanScore(row interface{ Scan(...interface{}) error }) (*models.TournamentScore, error) {
	var s models.TournamentScore
	err := row.Scan(&s.ID, &s.TournamentID, &s.UserID, &s.Points, &s.CorrectAny, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentScoreNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *postgresTournamentScoreRepository) GetByTournamentAndUser(ctx context.Context, exec SQLExecutor, tournamentID, userID int) (*models.TournamentScore, error) {
	query := `
		SELECT id, tournament_id, user_id, points, correct_any, updated_at
		FROM tournament_scores
		WHERE tournament_id = $1 AND user_id = $2`
	return r.scanScore(r.getExecutor(exec).QueryRowContext(ctx, query, tournamentID, userID))
}

func (r *postgresTournamentScoreRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.TournamentScore, error) {
	query := `
		SELECT id, tournament_id, user_id, points, correct_any, updated_at
		FROM tournament_scores
		WHERE tournament_id = $1
		ORDER BY points DESC, user_id ASC`
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	scores := make([]*models.TournamentScore, 0)
	for rows.Next() {
		s, errScan := r.scanScore(rows)
		if errScan != nil {
			return nil, errScan
		}
		scores = append(scores, s)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return scores, nil
}

func (r *postgresTournamentScoreRepository) Leaderboard(ctx context.Context, tournamentID, limit int) ([]models.LeaderboardRow, error) {
	query := `
		SELECT ts.user_id, u.username, ts.points, ts.correct_any
		FROM tournament_scores ts
		JOIN users u ON u.id = ts.user_id
		WHERE ts.tournament_id = $1
		ORDER BY ts.points DESC, u.username ASC
		LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, tournamentID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	board := make([]models.LeaderboardRow, 0)
	for rows.Next() {
		var row models.LeaderboardRow
		if err := rows.Scan(&row.UserID, &row.Username, &row.Points, &row.CorrectAny); err != nil {
			return nil, err
		}
		board = append(board, row)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return board, nil
}

func (r *postgresTournamentScoreRepository) AllTime(ctx context.Context, limit int) ([]models.AllTimeRow, error) {
	query := `
		SELECT u.id, u.username, SUM(ts.correct_any) AS correct_any
		FROM tournament_scores ts
		JOIN users u ON u.id = ts.user_id
		GROUP BY u.id, u.username
		HAVING SUM(ts.correct_any) > 0
		ORDER BY correct_any DESC, u.username ASC
		LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	board := make([]models.AllTimeRow, 0)
	for rows.Next() {
		var row models.AllTimeRow
		if err := rows.Scan(&row.UserID, &row.Username, &row.CorrectAny); err != nil {
			return nil, err
		}
		board = append(board, row)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return board, nil
}

func (r *postgresTournamentScoreRepository) AllTimeCorrectForUser(ctx context.Context, userID int) (int, error) {
	var total int
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(correct_any), 0) FROM tournament_scores WHERE user_id = $1`, userID,
	).Scan(&total)
	return total, err
}
