package trivia

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// MaxGuessLength caps submitted guess text before it is stored.
	MaxGuessLength = 100
	// MaxTeamNameLength bounds team display names.
	MaxTeamNameLength = 50
	// JoinTokenLength is the length of generated team join tokens.
	JoinTokenLength = 8
)

// ErrNotFound marks a referenced team, question or order entry that does
// not exist. Surfaced to callers as a call error, never a crash.
var ErrNotFound = errors.New("not found")

// Team creation failure reasons, returned to players verbatim.
var (
	ErrTeamNameTaken    = errors.New("Team Name already exists.")
	ErrTeamNameRequired = errors.New("Team Name is required.")
	ErrTeamNameTooLong  = errors.New("Team Name is too long.")
	ErrGameNotReady     = errors.New("The game has no questions yet.")
)

// CheckAnswer is the single correctness policy for all questions:
// case-insensitive comparison of whitespace-trimmed text.
func CheckAnswer(answer, text string) bool {
	return strings.EqualFold(strings.TrimSpace(text), strings.TrimSpace(answer))
}

// TruncateGuess bounds guess text at MaxGuessLength runes.
func TruncateGuess(text string) string {
	runes := []rune(text)
	if len(runes) <= MaxGuessLength {
		return text
	}
	return string(runes[:MaxGuessLength])
}

// GuessOutcome describes everything a correct or incorrect submission
// changed. Team, Question and Next are nil when unchanged.
type GuessOutcome struct {
	Guess     Guess
	IsCorrect bool
	// Team is the updated team (advanced main position or new bonus credit).
	Team *Team
	// Question is the updated question (first bonus winner recorded).
	Question *Question
	// Next is the question that just became visible to the team.
	Next *Question
}

// EvaluateGuess resolves the guess target, checks correctness and computes
// the resulting document updates. It does not touch storage.
//
// The target is the team's current main question, or, when questionID
// names something else, a bonus question — but only if the order lists it
// as one.
func EvaluateGuess(now time.Time, order QuestionOrder, team Team, questions map[string]Question, questionID, text string) (GuessOutcome, error) {
	targetID := questionID
	if targetID == "" {
		targetID = team.MainQuestionID
	}

	isMain := targetID == team.MainQuestionID
	if !isMain && indexOf(order.Bonus, targetID) < 0 {
		return GuessOutcome{}, fmt.Errorf("question %s is not guessable: %w", targetID, ErrNotFound)
	}

	question, ok := questions[targetID]
	if !ok || question.Deleted {
		return GuessOutcome{}, fmt.Errorf("question %s: %w", targetID, ErrNotFound)
	}

	out := GuessOutcome{
		IsCorrect: CheckAnswer(question.Answer, text),
		Guess: Guess{
			Doc:        NewDoc("", now),
			TeamID:     team.ID,
			QuestionID: targetID,
			Text:       TruncateGuess(text),
		},
	}
	out.Guess.IsCorrect = out.IsCorrect
	if !out.IsCorrect {
		return out, nil
	}

	if isMain {
		idx := indexOf(order.Main, targetID)
		if idx < 0 {
			return GuessOutcome{}, fmt.Errorf("question %s is not in the main sequence: %w", targetID, ErrNotFound)
		}
		// Last entry: the team finished the main track. Not an error, and
		// nothing to advance to.
		if idx == len(order.Main)-1 {
			return out, nil
		}
		nextID := order.Main[idx+1]
		team.MainQuestionID = nextID
		team.LastAnswerTime = now.UnixMilli()
		team.Modified = now.UnixMilli()
		out.Team = &team
		if next, ok := questions[nextID]; ok && !next.Deleted {
			out.Next = &next
		}
		return out, nil
	}

	// Bonus question. First correct team wins; a later correct guess never
	// overwrites the winner.
	if question.BonusWinner == "" {
		question.BonusWinner = team.Name
		question.Modified = now.UnixMilli()
		out.Question = &question
	}
	if indexOf(team.CompletedBonusQuestions, targetID) < 0 {
		team.CompletedBonusQuestions = append(team.CompletedBonusQuestions, targetID)
		team.Modified = now.UnixMilli()
		out.Team = &team
	}
	return out, nil
}

// ReconcileTeam snaps a team whose main question no longer appears in the
// order back to the first entry. Returns the updated team and whether a
// change was made.
func ReconcileTeam(team Team, order QuestionOrder, now time.Time) (Team, bool) {
	if len(order.Main) == 0 {
		return team, false
	}
	if indexOf(order.Main, team.MainQuestionID) >= 0 {
		return team, false
	}
	team.MainQuestionID = order.Main[0]
	team.Modified = now.UnixMilli()
	return team, true
}

// NewTeam validates the requested name against existing teams and builds
// the new team positioned at the first main question.
func NewTeam(now time.Time, name string, order QuestionOrder, existing []Team) (Team, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Team{}, ErrTeamNameRequired
	}
	if len([]rune(name)) > MaxTeamNameLength {
		return Team{}, ErrTeamNameTooLong
	}
	for _, t := range existing {
		if !t.Deleted && strings.EqualFold(t.Name, name) {
			return Team{}, ErrTeamNameTaken
		}
	}
	if len(order.Main) == 0 {
		return Team{}, ErrGameNotReady
	}

	token, err := GenerateToken(JoinTokenLength)
	if err != nil {
		return Team{}, fmt.Errorf("generating join token: %w", err)
	}

	return Team{
		Doc:                     NewDoc("", now),
		Name:                    name,
		Token:                   token,
		MainQuestionID:          order.Main[0],
		CompletedBonusQuestions: []string{},
	}, nil
}
