package trivia

import (
	"errors"
	"strings"
	"testing"
	"time"
)

var testNow = time.UnixMilli(1_700_000_000_000)

func testOrder(main, bonus []string) QuestionOrder {
	return QuestionOrder{Doc: Doc{ID: OrderID, Modified: 1}, Main: main, Bonus: bonus}
}

func testQuestion(id, answer string) Question {
	return Question{Doc: Doc{ID: id, Modified: 1}, Title: "Q " + id, Answer: answer}
}

func testTeam(id, mainQuestionID string) Team {
	return Team{
		Doc:                     Doc{ID: id, Modified: 1},
		Name:                    "Team " + id,
		Token:                   "TOKEN" + id,
		MainQuestionID:          mainQuestionID,
		CompletedBonusQuestions: []string{},
	}
}

func TestCheckAnswer(t *testing.T) {
	tests := []struct {
		answer, text string
		want         bool
	}{
		{"Lima", "lima", true},
		{"Lima", "  LIMA  ", true},
		{"  Lima ", "lima", true},
		{"Lima", "Lina", false},
		{"Lima", "", false},
		{"", "", true},
	}
	for _, tt := range tests {
		if got := CheckAnswer(tt.answer, tt.text); got != tt.want {
			t.Errorf("CheckAnswer(%q, %q) = %v, want %v", tt.answer, tt.text, got, tt.want)
		}
	}
}

func TestTruncateGuess(t *testing.T) {
	long := strings.Repeat("ü", MaxGuessLength+20)
	got := TruncateGuess(long)
	if n := len([]rune(got)); n != MaxGuessLength {
		t.Errorf("truncated length = %d, want %d", n, MaxGuessLength)
	}
	if short := "short"; TruncateGuess(short) != short {
		t.Error("short text must pass through unchanged")
	}
}

func TestEvaluateGuessAdvancesMain(t *testing.T) {
	order := testOrder([]string{"q1", "q2", "q3"}, nil)
	questions := map[string]Question{
		"q1": testQuestion("q1", "alpha"),
		"q2": testQuestion("q2", "beta"),
		"q3": testQuestion("q3", "gamma"),
	}
	team := testTeam("t1", "q1")

	out, err := EvaluateGuess(testNow, order, team, questions, "", "Alpha")
	if err != nil {
		t.Fatalf("EvaluateGuess: %v", err)
	}
	if !out.IsCorrect || !out.Guess.IsCorrect {
		t.Fatal("expected a correct guess")
	}
	if out.Guess.QuestionID != "q1" {
		t.Errorf("guess target = %q, want q1", out.Guess.QuestionID)
	}
	if out.Team == nil {
		t.Fatal("expected team advance")
	}
	if out.Team.MainQuestionID != "q2" {
		t.Errorf("advanced to %q, want q2", out.Team.MainQuestionID)
	}
	if out.Team.LastAnswerTime != testNow.UnixMilli() {
		t.Errorf("lastAnswerTime = %d, want %d", out.Team.LastAnswerTime, testNow.UnixMilli())
	}
	if out.Next == nil || out.Next.ID != "q2" {
		t.Error("expected next question q2 in outcome")
	}
}

func TestEvaluateGuessIncorrect(t *testing.T) {
	order := testOrder([]string{"q1", "q2"}, nil)
	questions := map[string]Question{"q1": testQuestion("q1", "alpha")}
	team := testTeam("t1", "q1")

	out, err := EvaluateGuess(testNow, order, team, questions, "", "wrong")
	if err != nil {
		t.Fatalf("EvaluateGuess: %v", err)
	}
	if out.IsCorrect {
		t.Fatal("expected an incorrect guess")
	}
	if out.Team != nil || out.Question != nil || out.Next != nil {
		t.Error("incorrect guess must not change any documents")
	}
}

func TestEvaluateGuessFinalQuestionIsTerminal(t *testing.T) {
	order := testOrder([]string{"q1", "q2"}, nil)
	questions := map[string]Question{"q2": testQuestion("q2", "beta")}
	team := testTeam("t1", "q2")

	out, err := EvaluateGuess(testNow, order, team, questions, "", "beta")
	if err != nil {
		t.Fatalf("EvaluateGuess: %v", err)
	}
	if !out.IsCorrect {
		t.Fatal("expected a correct guess")
	}
	if out.Team != nil {
		t.Error("finished team must not advance past the final question")
	}
}

func TestEvaluateGuessBonusWinner(t *testing.T) {
	order := testOrder([]string{"q1"}, []string{"b1"})
	questions := map[string]Question{
		"q1": testQuestion("q1", "alpha"),
		"b1": testQuestion("b1", "bonus"),
	}

	first := testTeam("t1", "q1")
	out, err := EvaluateGuess(testNow, order, first, questions, "b1", "bonus")
	if err != nil {
		t.Fatalf("EvaluateGuess: %v", err)
	}
	if out.Question == nil {
		t.Fatal("first correct team must set the bonus winner")
	}
	if out.Question.BonusWinner != first.Name {
		t.Errorf("bonusWinner = %q, want %q", out.Question.BonusWinner, first.Name)
	}
	if out.Team == nil || indexOf(out.Team.CompletedBonusQuestions, "b1") < 0 {
		t.Error("winning team must record bonus completion")
	}
	if out.Next != nil {
		t.Error("a bonus guess never advances the main sequence")
	}

	// Second team answers after the winner is recorded: still credited,
	// but the winner stays.
	questions["b1"] = *out.Question
	second := testTeam("t2", "q1")
	out2, err := EvaluateGuess(testNow.Add(time.Second), order, second, questions, "b1", "BONUS")
	if err != nil {
		t.Fatalf("EvaluateGuess: %v", err)
	}
	if !out2.IsCorrect {
		t.Fatal("expected a correct guess")
	}
	if out2.Question != nil {
		t.Error("an existing bonus winner must never be overwritten")
	}
	if out2.Team == nil || indexOf(out2.Team.CompletedBonusQuestions, "b1") < 0 {
		t.Error("later teams still earn bonus completion credit")
	}
}

func TestEvaluateGuessUnknownTarget(t *testing.T) {
	order := testOrder([]string{"q1"}, []string{"b1"})
	questions := map[string]Question{"q1": testQuestion("q1", "alpha")}
	team := testTeam("t1", "q1")

	tests := []struct {
		name       string
		questionID string
	}{
		{"not in order", "q9"},
		{"bonus listed but no document", "b1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := EvaluateGuess(testNow, order, team, questions, tt.questionID, "x")
			if !errors.Is(err, ErrNotFound) {
				t.Fatalf("err = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestEvaluateGuessTruncatesStoredText(t *testing.T) {
	order := testOrder([]string{"q1"}, nil)
	questions := map[string]Question{"q1": testQuestion("q1", "alpha")}
	team := testTeam("t1", "q1")

	long := strings.Repeat("x", MaxGuessLength*2)
	out, err := EvaluateGuess(testNow, order, team, questions, "", long)
	if err != nil {
		t.Fatalf("EvaluateGuess: %v", err)
	}
	if n := len([]rune(out.Guess.Text)); n != MaxGuessLength {
		t.Errorf("stored guess length = %d, want %d", n, MaxGuessLength)
	}
}

func TestReconcileTeam(t *testing.T) {
	order := testOrder([]string{"q1", "q2"}, nil)

	team := testTeam("t1", "q2")
	if _, changed := ReconcileTeam(team, order, testNow); changed {
		t.Error("team on a listed question must not move")
	}

	stranded := testTeam("t1", "gone")
	fixed, changed := ReconcileTeam(stranded, order, testNow)
	if !changed {
		t.Fatal("stranded team must be snapped back")
	}
	if fixed.MainQuestionID != "q1" {
		t.Errorf("snapped to %q, want q1", fixed.MainQuestionID)
	}

	if _, changed := ReconcileTeam(stranded, testOrder(nil, nil), testNow); changed {
		t.Error("empty order must leave teams untouched")
	}
}

func TestNewTeam(t *testing.T) {
	order := testOrder([]string{"q1", "q2"}, nil)
	existing := []Team{testTeam("t1", "q1")}

	team, err := NewTeam(testNow, "  Fresh Crew  ", order, existing)
	if err != nil {
		t.Fatalf("NewTeam: %v", err)
	}
	if team.Name != "Fresh Crew" {
		t.Errorf("name = %q, want trimmed %q", team.Name, "Fresh Crew")
	}
	if team.MainQuestionID != "q1" {
		t.Errorf("start question = %q, want q1", team.MainQuestionID)
	}
	if len(team.Token) != JoinTokenLength {
		t.Errorf("token length = %d, want %d", len(team.Token), JoinTokenLength)
	}

	tests := []struct {
		name    string
		reqName string
		order   QuestionOrder
		wantErr error
	}{
		{"duplicate case-insensitive", "team T1", order, ErrTeamNameTaken},
		{"empty", "   ", order, ErrTeamNameRequired},
		{"too long", strings.Repeat("n", MaxTeamNameLength+1), order, ErrTeamNameTooLong},
		{"no questions", "Valid", testOrder(nil, nil), ErrGameNotReady},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewTeam(testNow, tt.reqName, tt.order, existing); !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}

	// A tombstoned team frees up its name.
	dead := testTeam("t2", "q1")
	dead.Name = "Ghosts"
	dead.Deleted = true
	if _, err := NewTeam(testNow, "ghosts", order, []Team{dead}); err != nil {
		t.Errorf("tombstoned name must be reusable, got %v", err)
	}
}
