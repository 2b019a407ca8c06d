package models

// Rank is a cosmetic title earned by all-time correct guesses.
type Rank struct {
	Name             string `json:"name"`
	ThresholdCorrect int    `json:"threshold_correct"`
	Order            int    `json:"order"`
}

// Ranks is ordered by ThresholdCorrect ascending.
var Ranks = []Rank{
	{Name: "Newbie", ThresholdCorrect: 0, Order: 1},
	{Name: "Scout", ThresholdCorrect: 10, Order: 2},
	{Name: "Analyst", ThresholdCorrect: 25, Order: 3},
	{Name: "Prognosticator", ThresholdCorrect: 50, Order: 4},
	{Name: "Oracle", ThresholdCorrect: 100, Order: 5},
}

// RankFor returns the highest rank whose threshold is reached.
func RankFor(correct int) Rank {
	current := Ranks[0]
	for _, r := range Ranks {
		if correct >= r.ThresholdCorrect {
			current = r
		}
	}
	return current
}
