package trivia

import (
	"math"
	"sort"
)

// RankedTeam is one entry of the public ranking.
type RankedTeam struct {
	Name         string `json:"name"`
	IsYou        bool   `json:"isYou,omitempty"`
	IsSecretTeam bool   `json:"isSecretTeam,omitempty"`
	IsWinner     bool   `json:"isWinner,omitempty"`
}

// Ranking sorts teams by descending main-sequence position, tie-broken by
// ascending last answer time (earlier wins). Secret teams are hidden
// unless the requester is itself secret or the team in question. The team
// occupying the final order position is marked as the winner.
func Ranking(order QuestionOrder, teams []Team, requesterID string) []RankedTeam {
	requesterSecret := false
	for _, t := range teams {
		if t.ID == requesterID && t.IsSecretTeam {
			requesterSecret = true
		}
	}

	visible := make([]Team, 0, len(teams))
	for _, t := range teams {
		if t.Deleted {
			continue
		}
		if t.IsSecretTeam && !requesterSecret && t.ID != requesterID {
			continue
		}
		visible = append(visible, t)
	}

	position := func(t Team) int { return indexOf(order.Main, t.MainQuestionID) }
	answered := func(t Team) int64 {
		if t.LastAnswerTime == 0 {
			return math.MaxInt64
		}
		return t.LastAnswerTime
	}

	sort.SliceStable(visible, func(i, j int) bool {
		pi, pj := position(visible[i]), position(visible[j])
		if pi != pj {
			return pi > pj
		}
		return answered(visible[i]) < answered(visible[j])
	})

	finalIndex := len(order.Main) - 1
	ranking := make([]RankedTeam, len(visible))
	for i, t := range visible {
		ranking[i] = RankedTeam{
			Name:         t.Name,
			IsYou:        t.ID == requesterID,
			IsSecretTeam: t.IsSecretTeam,
			IsWinner:     finalIndex >= 0 && position(t) == finalIndex,
		}
	}
	return ranking
}
