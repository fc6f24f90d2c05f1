package trivia

import "time"

// GameQuestion is the question shape the non-admin audiences receive.
// There is no answer field: the answer never leaves the admin scope.
type GameQuestion struct {
	Doc
	Title       string `json:"title"`
	Text        string `json:"text,omitempty"`
	Image       string `json:"image,omitempty"`
	Frame       string `json:"frame,omitempty"`
	HideAnswer  bool   `json:"hideAnswer,omitempty"`
	UnlockTime  int64  `json:"unlockTime,omitempty"`
	BonusWinner string `json:"bonusWinner,omitempty"`
	MainIndex   *int   `json:"mainIndex,omitempty"`
	BonusIndex  *int   `json:"bonusIndex,omitempty"`
}

// GameGuess omits the owning team id: a team's own channel does not need
// to re-learn it.
type GameGuess struct {
	Doc
	QuestionID string `json:"questionId"`
	Text       string `json:"text"`
	IsCorrect  bool   `json:"isCorrect"`
}

// GameQuestionOrder exposes only bonus eligibility; the main sequence is
// conveyed through per-question indices.
type GameQuestionOrder struct {
	Doc
	Bonus []string `json:"bonusQuestions"`
}

// StripQuestion builds the non-admin view of a question. Tombstones are
// reduced to merge metadata so receivers can still drop the entity.
// Questions whose unlock time has not been reached lose their content.
func StripQuestion(q Question, order QuestionOrder, now time.Time) GameQuestion {
	if q.Deleted {
		return GameQuestion{Doc: q.Meta()}
	}

	out := GameQuestion{
		Doc:         q.Doc,
		Title:       q.Title,
		Text:        q.Text,
		Image:       q.Image,
		Frame:       q.Frame,
		HideAnswer:  q.HideAnswer,
		UnlockTime:  q.UnlockTime,
		BonusWinner: q.BonusWinner,
	}
	if i := indexOf(order.Main, q.ID); i >= 0 {
		out.MainIndex = &i
	}
	if i := indexOf(order.Bonus, q.ID); i >= 0 {
		out.BonusIndex = &i
	}

	if q.UnlockTime > now.UnixMilli() {
		out.Title = ""
		out.Text = ""
		out.Image = ""
		out.Frame = ""
		out.HideAnswer = true
	}
	return out
}

// StripTeam reduces tombstoned teams to merge metadata.
func StripTeam(t Team) Team {
	if t.Deleted {
		return Team{Doc: t.Meta(), CompletedBonusQuestions: []string{}}
	}
	return t
}

// StripGuess removes the owning team id.
func StripGuess(g Guess) GameGuess {
	if g.Deleted {
		return GameGuess{Doc: g.Meta()}
	}
	return GameGuess{
		Doc:        g.Doc,
		QuestionID: g.QuestionID,
		Text:       g.Text,
		IsCorrect:  g.IsCorrect,
	}
}

// StripOrder keeps the bonus list only.
func StripOrder(o QuestionOrder) GameQuestionOrder {
	return GameQuestionOrder{Doc: o.Doc, Bonus: o.Bonus}
}

// Redact maps a full patch to the shape a game or team scope may see.
// The order argument supplies the per-question sequence indices.
func Redact(u StateUpdate, order QuestionOrder, now time.Time) GameStateUpdate {
	out := GameStateUpdate{Settings: u.Settings}
	for _, q := range u.Questions {
		out.Questions = append(out.Questions, StripQuestion(q, order, now))
	}
	for _, t := range u.Teams {
		out.Teams = append(out.Teams, StripTeam(t))
	}
	for _, g := range u.Guesses {
		out.Guesses = append(out.Guesses, StripGuess(g))
	}
	if u.Order != nil {
		stripped := StripOrder(*u.Order)
		out.Order = &stripped
	}
	return out
}

func indexOf(list []string, id string) int {
	for i, v := range list {
		if v == id {
			return i
		}
	}
	return -1
}
