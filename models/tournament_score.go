package models

import "time"

// TournamentScore is the standings row for one user in one tournament.
type TournamentScore struct {
	ID           int       `json:"id" db:"id"`
	TournamentID int       `json:"tournament_id" db:"tournament_id"`
	UserID       int       `json:"user_id" db:"user_id"`
	Points       int       `json:"points" db:"points"`
	CorrectAny   int       `json:"correct_any" db:"correct_any"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

type LeaderboardRow struct {
	UserID     int    `json:"user_id"`
	Username   string `json:"username"`
	Points     int    `json:"points"`
	CorrectAny int    `json:"correct_any"`
}

type AllTimeRow struct {
	UserID     int    `json:"user_id"`
	Username   string `json:"username"`
	CorrectAny int    `json:"correct_any"`
}

// StandingsDelta is what one game-finish event added to a user's row.
type StandingsDelta struct {
	UserID  int `json:"user_id"`
	Points  int `json:"points"`
	Correct int `json:"correct"`
}
