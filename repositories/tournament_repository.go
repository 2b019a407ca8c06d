package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Dosada05/hoops-predictor/models"
)

var (
	ErrTournamentNotFound     = errors.New("tournament not found")
	ErrTournamentSlugConflict = errors.New("tournament slug conflict")
	ErrTournamentNotMutable   = errors.New("tournament is archived")
)

type TournamentRepository interface {
	Create(ctx context.Context, tournament *models.Tournament) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error)
	GetForShare(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error)
	List(ctx context.Context) ([]*models.Tournament, error)
	Update(ctx context.Context, tournament *models.Tournament) error
	UpdateStatus(ctx context.Context, id int, status models.TournamentStatus) error
	Archive(ctx context.Context, exec SQLExecutor, id int, winner string) error
	Delete(ctx context.Context, id int) error
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

func (r *postgresTournamentRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const tournamentColumns = `id, name, slug, start_date, end_date, status, winner, created_at, updated_at`

func (r *postgresTournamentRepository) Create(ctx context.Context, t *models.Tournament) error {
	query := `
		INSERT INTO tournaments (name, slug, start_date, end_date, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query, t.Name, t.Slug, t.StartDate, t.EndDate, t.Status).
		Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	return r.handleTournamentError(err)
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error) {
	row := r.getExecutor(exec).QueryRowContext(ctx, `SELECT `+tournamentColumns+` FROM tournaments WHERE id = $1`, id)
	return r.scanTournament(row)
}

// GetForShare holds the row until the caller's transaction ends, so the
// tournament cannot be archived while games of it are being changed.
func (r *postgresTournamentRepository) GetForShare(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error) {
	row := r.getExecutor(exec).QueryRowContext(ctx, `SELECT `+tournamentColumns+` FROM tournaments WHERE id = $1 FOR SHARE`, id)
	return r.scanTournament(row)
}

func (r *postgresTournamentRepository) List(ctx context.Context) ([]*models.Tournament, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+tournamentColumns+` FROM tournaments ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tournaments := make([]*models.Tournament, 0)
	for rows.Next() {
		t, err := r.scanTournament(rows)
		if err != nil {
			return nil, err
		}
		tournaments = append(tournaments, t)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return tournaments, nil
}

// Update changes name, slug and dates. Archived tournaments are left untouched.
func (r *postgresTournamentRepository) Update(ctx context.Context, t *models.Tournament) error {
	query := `
		UPDATE tournaments
		SET name = $1, slug = $2, start_date = $3, end_date = $4, updated_at = NOW()
		WHERE id = $5 AND status <> 'archived'
		RETURNING updated_at`
	err := r.db.QueryRowContext(ctx, query, t.Name, t.Slug, t.StartDate, t.EndDate, t.ID).Scan(&t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrTournamentNotMutable
	}
	return r.handleTournamentError(err)
}

func (r *postgresTournamentRepository) UpdateStatus(ctx context.Context, id int, status models.TournamentStatus) error {
	query := `UPDATE tournaments SET status = $1, updated_at = NOW() WHERE id = $2 AND status <> 'archived'`
	result, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTournamentNotMutable)
}

func (r *postgresTournamentRepository) Archive(ctx context.Context, exec SQLExecutor, id int, winner string) error {
	query := `
		UPDATE tournaments
		SET status = 'archived', winner = $1, updated_at = NOW()
		WHERE id = $2 AND status <> 'archived'`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, winner, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTournamentNotMutable)
}

func (r *postgresTournamentRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tournaments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) scanTournament(row interface{ Scan(...interface{}) error }) (*models.Tournament, error) {
	var (
		t      models.Tournament
		winner sql.NullString
	)
	err := row.Scan(&t.ID, &t.Name, &t.Slug, &t.StartDate, &t.EndDate, &t.Status, &winner, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	if winner.Valid {
		t.Winner = &winner.String
	}
	return &t, nil
}

func (r *postgresTournamentRepository) handleTournamentError(err error) error {
	if err == nil {
		return nil
	}
	if code, constraint, ok := pqErrorCode(err); ok && code == pqUniqueViolation && constraint == "tournaments_slug_key" {
		return ErrTournamentSlugConflict
	}
	return err
}
