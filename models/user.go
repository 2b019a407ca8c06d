package models

import "time"

type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

type User struct {
	ID                    int        `json:"id" db:"id"`
	Email                 string     `json:"email" db:"email"`
	Username              string     `json:"username" db:"username"`
	DiscordUsername       *string    `json:"discord_username,omitempty" db:"discord_username"`
	PasswordHash          string     `json:"-" db:"password_hash"`
	Role                  UserRole   `json:"role" db:"role"`
	EmailVerified         bool       `json:"email_verified" db:"email_verified"`
	VerificationToken     *string    `json:"-" db:"verification_token"`
	VerificationExpiresAt *time.Time `json:"-" db:"verification_expires_at"`
	CreatedAt             time.Time  `json:"created_at" db:"created_at"`
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// UserProfile is the /users/me view: the account plus its all-time record.
type UserProfile struct {
	User
	CorrectAllTime int  `json:"correct_all_time"`
	Rank           Rank `json:"rank"`
}
