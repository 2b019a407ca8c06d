package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Dosada05/hoops-predictor/models"
)

var (
	ErrUserNotFound                = errors.New("user not found")
	ErrUserEmailConflict           = errors.New("user email conflict")
	ErrUserUsernameConflict        = errors.New("user username conflict")
	ErrUserDiscordUsernameConflict = errors.New("user discord username conflict")
)

type ListUsersFilter struct {
	Search string
	Limit  int
	Offset int
}

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByVerificationToken(ctx context.Context, token string) (*models.User, error)
	MarkEmailVerified(ctx context.Context, id int) error
	UpdateAccess(ctx context.Context, id int, role models.UserRole, emailVerified bool) error
	UpdateProfile(ctx context.Context, id int, username string, discordUsername *string) error
	List(ctx context.Context, filter ListUsersFilter) ([]*models.User, error)
}

type postgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) UserRepository {
	return &postgresUserRepository{db: db}
}

const userColumns = `id, email, username, discord_username, password_hash, role, email_verified,
	verification_token, verification_expires_at, created_at`

func (r *postgresUserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (email, username, discord_username, password_hash, role, email_verified,
		                   verification_token, verification_expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		user.Email,
		user.Username,
		user.DiscordUsername,
		user.PasswordHash,
		user.Role,
		user.EmailVerified,
		user.VerificationToken,
		user.VerificationExpiresAt,
	).Scan(&user.ID, &user.CreatedAt)
	return mapUserUniqueViolation(err)
}

func mapUserUniqueViolation(err error) error {
	if code, constraint, ok := pqErrorCode(err); ok && code == pqUniqueViolation {
		switch constraint {
		case "users_email_key":
			return ErrUserEmailConflict
		case "users_username_key":
			return ErrUserUsernameConflict
		case "users_discord_username_key":
			return ErrUserDiscordUsernameConflict
		}
	}
	return err
}

func (r *postgresUserRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *postgresUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email))
}

func (r *postgresUserRepository) GetByVerificationToken(ctx context.Context, token string) (*models.User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE verification_token = $1`, token))
}

func (r *postgresUserRepository) MarkEmailVerified(ctx context.Context, id int) error {
	query := `
		UPDATE users
		SET email_verified = TRUE, verification_token = NULL, verification_expires_at = NULL
		WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) UpdateAccess(ctx context.Context, id int, role models.UserRole, emailVerified bool) error {
	query := `UPDATE users SET role = $1, email_verified = $2 WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, role, emailVerified, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) UpdateProfile(ctx context.Context, id int, username string, discordUsername *string) error {
	query := `UPDATE users SET username = $1, discord_username = $2 WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, username, discordUsername, id)
	if err != nil {
		return mapUserUniqueViolation(err)
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) List(ctx context.Context, filter ListUsersFilter) ([]*models.User, error) {
	var (
		sb   strings.Builder
		args []interface{}
	)
	sb.WriteString(`SELECT ` + userColumns + ` FROM users`)
	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+search+"%")
		sb.WriteString(` WHERE email ILIKE $1 OR username ILIKE $1 OR discord_username ILIKE $1`)
	}
	args = append(args, filter.Limit, filter.Offset)
	fmt.Fprintf(&sb, ` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]*models.User, 0)
	for rows.Next() {
		u, err := r.scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *postgresUserRepository) scanUser(row interface{ Scan(...interface{}) error }) (*models.User, error) {
	var (
		u         models.User
		discord   sql.NullString
		token     sql.NullString
		expiresAt sql.NullTime
	)
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.Username,
		&discord,
		&u.PasswordHash,
		&u.Role,
		&u.EmailVerified,
		&token,
		&expiresAt,
		&u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if discord.Valid {
		u.DiscordUsername = &discord.String
	}
	if token.Valid {
		u.VerificationToken = &token.String
	}
	if expiresAt.Valid {
		t := expiresAt.Time.In(time.UTC)
		u.VerificationExpiresAt = &t
	}
	return &u, nil
}
