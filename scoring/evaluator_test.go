package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Dosada05/hoops-predictor/models"
)

func TestEvaluateExamples(t *testing.T) {
	tests := []struct {
		name    string
		stage   models.GameStage
		guessA  int
		guessB  int
		actualA int
		actualB int
		want    Result
	}{
		{
			name:  "margin band differs",
			stage: models.StageGroup, guessA: 90, guessB: 85, actualA: 100, actualB: 94,
			want: Result{},
		},
		{
			name:  "same band and winner but different margin",
			stage: models.StageGroup, guessA: 90, guessB: 80, actualA: 101, actualB: 90,
			want: Result{CondOK: true, Points: 1},
		},
		{
			name:  "exact playoff score",
			stage: models.StagePlayoff, guessA: 88, guessB: 80, actualA: 88, actualB: 80,
			want: Result{CondOK: true, DiffOK: true, ExactOK: true, Points: 6},
		},
		{
			name:  "exact margin wrong scores group",
			stage: models.StageGroup, guessA: 70, guessB: 77, actualA: 90, actualB: 97,
			want: Result{CondOK: true, DiffOK: true, Points: 3},
		},
		{
			name:  "exact margin wrong scores playoff",
			stage: models.StagePlayoff, guessA: 70, guessB: 77, actualA: 90, actualB: 97,
			want: Result{CondOK: true, DiffOK: true, Points: 4},
		},
		{
			name:  "wrong winner same margin",
			stage: models.StageGroup, guessA: 80, guessB: 70, actualA: 70, actualB: 80,
			want: Result{},
		},
		{
			name:  "both on the edge band",
			stage: models.StageGroup, guessA: 60, guessB: 65, actualA: 75, actualB: 80,
			want: Result{CondOK: true, DiffOK: true, Points: 3},
		},
		{
			name:  "tie prediction never matches a real result",
			stage: models.StageGroup, guessA: 80, guessB: 80, actualA: 81, actualB: 80,
			want: Result{},
		},
		{
			name:  "tie matches tie bucket",
			stage: models.StagePlayoff, guessA: 80, guessB: 80, actualA: 80, actualB: 80,
			want: Result{CondOK: true, DiffOK: true, ExactOK: true, Points: 6},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(tt.stage, tt.guessA, tt.guessB, tt.actualA, tt.actualB)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluateImplicationChainAndLadder(t *testing.T) {
	scores := []int{0, 1, 4, 5, 6, 10, 11, 79, 80, 84, 85, 86, 90}
	for _, stage := range []models.GameStage{models.StageGroup, models.StagePlayoff} {
		ladder := Ladder(stage)
		for _, ga := range scores {
			for _, gb := range scores {
				for _, aa := range scores {
					for _, ab := range scores {
						if aa == ab {
							continue
						}
						r := Evaluate(stage, ga, gb, aa, ab)
						if r.ExactOK && !r.DiffOK || r.DiffOK && !r.CondOK {
							t.Fatalf("implication chain broken for %s %d-%d vs %d-%d: %+v", stage, ga, gb, aa, ab, r)
						}
						assert.Contains(t, ladder[:], r.Points)
						assert.Equal(t, ladder[r.Tier()], r.Points)
						assert.Equal(t, r, Evaluate(stage, ga, gb, aa, ab))
					}
				}
			}
		}
	}
}

func TestLadder(t *testing.T) {
	assert.Equal(t, [4]int{0, 1, 3, 5}, Ladder(models.StageGroup))
	assert.Equal(t, [4]int{0, 2, 4, 6}, Ladder(models.StagePlayoff))
	assert.Equal(t, [4]int{0, 1, 3, 5}, Ladder(models.GameStage("friendly")))
}

func TestValidateScore(t *testing.T) {
	assert.NoError(t, ValidateScore("guessA", 0))
	assert.NoError(t, ValidateScore("guessA", 300))
	assert.Error(t, ValidateScore("guessA", -1))
	assert.Error(t, ValidateScore("guessB", 301))
}
