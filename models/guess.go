package models

import "time"

// Guess is unique per (GameID, UserID). Evaluation fields stay zero until
// the owning game finishes; EvaluatedAt marks that they were written.
type Guess struct {
	ID            int        `json:"id" db:"id"`
	TournamentID  int        `json:"tournament_id" db:"tournament_id"`
	GameID        int        `json:"game_id" db:"game_id"`
	UserID        int        `json:"user_id" db:"user_id"`
	Username      string     `json:"username,omitempty" db:"-"`
	GuessA        int        `json:"guess_a" db:"guess_a"`
	GuessB        int        `json:"guess_b" db:"guess_b"`
	CondOK        bool       `json:"cond_ok" db:"cond_ok"`
	DiffOK        bool       `json:"diff_ok" db:"diff_ok"`
	ExactOK       bool       `json:"exact_ok" db:"exact_ok"`
	AwardedPoints int        `json:"awarded_points" db:"awarded_points"`
	EvaluatedAt   *time.Time `json:"evaluated_at,omitempty" db:"evaluated_at"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}

func (g *Guess) Evaluated() bool {
	return g.EvaluatedAt != nil
}
