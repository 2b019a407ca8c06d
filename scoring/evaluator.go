// Package scoring converts a predicted score and a final score into a tiered point award.
package scoring

import (
	"fmt"

	"github.com/Dosada05/hoops-predictor/models"
)

const (
	MinScore = 0
	MaxScore = 300

	// bandEdge is the margin that splits "<5", "=5" and ">5".
	bandEdge = 5
)

type Tier int

const (
	TierNone Tier = iota
	TierCondition
	TierDifference
	TierExact
)

type band int

const (
	bandUnder band = iota
	bandEdgeExact
	bandOver
)

var ladders = map[models.GameStage][4]int{
	models.StageGroup:   {0, 1, 3, 5},
	models.StagePlayoff: {0, 2, 4, 6},
}

// Result holds the nested correctness flags: ExactOK implies DiffOK implies CondOK.
type Result struct {
	CondOK  bool `json:"cond_ok"`
	DiffOK  bool `json:"diff_ok"`
	ExactOK bool `json:"exact_ok"`
	Points  int  `json:"points"`
}

func (r Result) Tier() Tier {
	switch {
	case r.ExactOK:
		return TierExact
	case r.DiffOK:
		return TierDifference
	case r.CondOK:
		return TierCondition
	default:
		return TierNone
	}
}

// Ladder returns the points paid for tiers 0..3. Unknown stages pay the group ladder.
func Ladder(stage models.GameStage) [4]int {
	if l, ok := ladders[stage]; ok {
		return l
	}
	return ladders[models.StageGroup]
}

// Evaluate scores a guess against the final result. Inputs are assumed validated.
func Evaluate(stage models.GameStage, guessA, guessB, actualA, actualB int) Result {
	diffGuess := abs(guessA - guessB)
	diffActual := abs(actualA - actualB)

	var r Result
	r.CondOK = winner(guessA, guessB) == winner(actualA, actualB) &&
		bandOf(diffGuess) == bandOf(diffActual)
	r.DiffOK = r.CondOK && diffGuess == diffActual
	r.ExactOK = r.DiffOK && guessA == actualA && guessB == actualB
	r.Points = Ladder(stage)[r.Tier()]
	return r
}

// ValidateScore checks a single score is within the accepted range.
func ValidateScore(field string, v int) error {
	if v < MinScore || v > MaxScore {
		return fmt.Errorf("%s must be between %d and %d, got %d", field, MinScore, MaxScore, v)
	}
	return nil
}

// winner is +1 when B wins, -1 when A wins and 0 for a tie.
func winner(a, b int) int {
	switch {
	case b > a:
		return 1
	case b < a:
		return -1
	default:
		return 0
	}
}

func bandOf(margin int) band {
	switch {
	case margin > bandEdge:
		return bandOver
	case margin == bandEdge:
		return bandEdgeExact
	default:
		return bandUnder
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
