package models

import "time"

type GameStatus string

const (
	GameScheduled GameStatus = "scheduled"
	GameLocked    GameStatus = "locked"
	GameFinished  GameStatus = "finished"
)

type GameStage string

const (
	StageGroup   GameStage = "group"
	StagePlayoff GameStage = "playoff"
)

func (s GameStage) Valid() bool {
	return s == StageGroup || s == StagePlayoff
}

// Game is a single fixture. ScoreA and ScoreB are set iff Status is finished.
type Game struct {
	ID           int        `json:"id" db:"id"`
	TournamentID int        `json:"tournament_id" db:"tournament_id"`
	TeamA        string     `json:"team_a" db:"team_a"`
	TeamB        string     `json:"team_b" db:"team_b"`
	TipoffAt     time.Time  `json:"tipoff_at" db:"tipoff_at"`
	Status       GameStatus `json:"status" db:"status"`
	Stage        GameStage  `json:"stage" db:"stage"`
	ScoreA       *int       `json:"score_a,omitempty" db:"score_a"`
	ScoreB       *int       `json:"score_b,omitempty" db:"score_b"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// IsLocked reports whether the game refuses new or changed guesses at now.
func (g *Game) IsLocked(now time.Time, lead time.Duration) bool {
	if g.Status != GameScheduled {
		return true
	}
	return !now.Before(g.TipoffAt.Add(-lead))
}

// UpcomingGame is the public listing row, including the caller's own guess if any.
type UpcomingGame struct {
	Game
	TournamentName string `json:"tournament_name"`
	Locked         bool   `json:"locked"`
	MyGuess        *Guess `json:"my_guess"`
}
