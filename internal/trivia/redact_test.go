package trivia

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestStripQuestionRemovesAnswer(t *testing.T) {
	order := testOrder([]string{"q1", "q2"}, []string{"b1"})
	q := Question{
		Doc:    Doc{ID: "q1", Modified: 5},
		Title:  "Capital of Peru",
		Name:   "internal label",
		Answer: "Lima",
		Text:   "Name the capital.",
	}

	stripped := StripQuestion(q, order, testNow)
	data, err := json.Marshal(stripped)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(data), "Lima") {
		t.Errorf("answer leaked into the game shape: %s", data)
	}
	if strings.Contains(string(data), "internal label") {
		t.Errorf("admin name leaked into the game shape: %s", data)
	}
	if stripped.MainIndex == nil || *stripped.MainIndex != 0 {
		t.Error("expected mainIndex 0 for the first main question")
	}
	if stripped.BonusIndex != nil {
		t.Error("non-bonus question must not carry a bonusIndex")
	}
}

func TestStripQuestionLockedContent(t *testing.T) {
	order := testOrder([]string{"q1"}, nil)
	q := Question{
		Doc:        Doc{ID: "q1", Modified: 5},
		Title:      "Hidden",
		Answer:     "secret",
		Text:       "body",
		Image:      "img.png",
		UnlockTime: testNow.Add(time.Hour).UnixMilli(),
	}

	stripped := StripQuestion(q, order, testNow)
	if stripped.Title != "" || stripped.Text != "" || stripped.Image != "" {
		t.Errorf("locked question kept content: %+v", stripped)
	}
	if !stripped.HideAnswer {
		t.Error("locked question must hide its answer field")
	}
	if stripped.UnlockTime != q.UnlockTime {
		t.Error("unlock time itself stays visible so clients can count down")
	}

	// Once the unlock time passes, content flows through.
	unlocked := StripQuestion(q, order, testNow.Add(2*time.Hour))
	if unlocked.Title != "Hidden" {
		t.Error("unlocked question lost its content")
	}
}

func TestStripQuestionTombstone(t *testing.T) {
	q := Question{Doc: Doc{ID: "q1", Modified: 9, Deleted: true}, Title: "gone", Answer: "x"}
	stripped := StripQuestion(q, testOrder(nil, nil), testNow)

	if stripped.Title != "" || stripped.BonusWinner != "" {
		t.Errorf("tombstone kept content: %+v", stripped)
	}
	if !stripped.Deleted || stripped.ID != "q1" || stripped.Modified != 9 {
		t.Error("tombstone must keep its merge metadata")
	}
}

func TestStripGuessRemovesTeamID(t *testing.T) {
	g := Guess{Doc: Doc{ID: "g1", Modified: 3}, TeamID: "t1", QuestionID: "q1", Text: "x", IsCorrect: true}
	data, err := json.Marshal(StripGuess(g))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(data), "teamId") {
		t.Errorf("teamId leaked: %s", data)
	}
}

func TestStripOrderDropsMain(t *testing.T) {
	o := testOrder([]string{"q1", "q2"}, []string{"b1"})
	data, err := json.Marshal(StripOrder(o))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(data), `"main"`) {
		t.Errorf("main sequence leaked: %s", data)
	}
	if !strings.Contains(string(data), "bonusQuestions") {
		t.Errorf("bonus list missing: %s", data)
	}
}

func TestRedact(t *testing.T) {
	order := testOrder([]string{"q1"}, nil)
	u := StateUpdate{
		Questions: []Question{testQuestion("q1", "answer")},
		Teams:     []Team{testTeam("t1", "q1")},
		Guesses:   []Guess{{Doc: Doc{ID: "g1", Modified: 1}, TeamID: "t1", QuestionID: "q1", Text: "x"}},
		Order:     &order,
		Settings:  []GameSettings{DefaultSettings()},
	}

	out := Redact(u, order, testNow)
	if len(out.Questions) != 1 || len(out.Teams) != 1 || len(out.Guesses) != 1 {
		t.Fatalf("redacted patch lost documents: %+v", out)
	}
	if out.Order == nil {
		t.Fatal("redacted patch lost the order")
	}
	if len(out.Settings) != 1 {
		t.Fatal("settings must pass through unredacted")
	}
}
