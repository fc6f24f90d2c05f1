package trivia

import "testing"

func TestSetApplyKeepsNewest(t *testing.T) {
	set := Set[Question]{}

	older := Question{Doc: Doc{ID: "q1", Modified: 100}, Title: "old"}
	newer := Question{Doc: Doc{ID: "q1", Modified: 200}, Title: "new"}

	if !set.Apply(older) {
		t.Fatal("applying to an empty set must report a change")
	}
	if !set.Apply(newer) {
		t.Fatal("a newer revision must win")
	}
	if got := set["q1"].Title; got != "new" {
		t.Errorf("kept %q, want the newer revision", got)
	}

	// Replaying the older revision changes nothing.
	if set.Apply(older) {
		t.Error("an older revision must never overwrite a newer one")
	}
	if got := set["q1"].Title; got != "new" {
		t.Errorf("kept %q after replay, want the newer revision", got)
	}
}

func TestSetApplyEqualTimestampIsNoop(t *testing.T) {
	set := Set[Question]{}
	a := Question{Doc: Doc{ID: "q1", Modified: 100}, Title: "a"}
	b := Question{Doc: Doc{ID: "q1", Modified: 100}, Title: "b"}

	set.Apply(a)
	if set.Apply(b) {
		t.Error("an equal timestamp must not replace the held revision")
	}
	if got := set["q1"].Title; got != "a" {
		t.Errorf("kept %q, want the first-seen revision", got)
	}
}

func TestSetApplyOrderIndependent(t *testing.T) {
	docs := []Question{
		{Doc: Doc{ID: "q1", Modified: 3}, Title: "三"},
		{Doc: Doc{ID: "q1", Modified: 1}, Title: "一"},
		{Doc: Doc{ID: "q1", Modified: 2}, Title: "二"},
	}

	forward := Set[Question]{}
	forward.Apply(docs...)

	reverse := Set[Question]{}
	for i := len(docs) - 1; i >= 0; i-- {
		reverse.Apply(docs[i])
	}

	if forward["q1"] != reverse["q1"] {
		t.Errorf("merge depends on delivery order: %+v vs %+v", forward["q1"], reverse["q1"])
	}
	if forward["q1"].Modified != 3 {
		t.Errorf("kept modified=%d, want 3", forward["q1"].Modified)
	}
}

func TestSetApplyKeepsTombstones(t *testing.T) {
	set := Set[Question]{}
	set.Apply(Question{Doc: Doc{ID: "q1", Modified: 1}, Title: "alive"})
	set.Apply(Question{Doc: Doc{ID: "q1", Modified: 2, Deleted: true}})

	q, ok := set["q1"]
	if !ok {
		t.Fatal("tombstones must stay in the set, not vanish")
	}
	if !q.Deleted {
		t.Error("expected the tombstone revision to win")
	}
}

func TestViewsApplyPatches(t *testing.T) {
	admin := NewAdminView()
	order := QuestionOrder{Doc: Doc{ID: OrderID, Modified: 1}, Main: []string{"q1"}}
	admin.Apply(StateUpdate{
		Questions: []Question{{Doc: Doc{ID: "q1", Modified: 1}, Title: "one", Answer: "a"}},
		Teams:     []Team{{Doc: Doc{ID: "t1", Modified: 1}, Name: "Team"}},
		Order:     &order,
		Settings:  []GameSettings{{Doc: Doc{ID: SettingsID, Modified: 1}, State: GameActive}},
	})

	if admin.Questions["q1"].Answer != "a" {
		t.Error("admin view must hold the unredacted question")
	}
	if admin.Order[OrderID].Main[0] != "q1" {
		t.Error("admin view lost the order singleton")
	}
	if admin.Settings[SettingsID].State != GameActive {
		t.Error("admin view lost the settings singleton")
	}

	game := NewGameView()
	game.Apply(GameStateUpdate{
		Questions: []GameQuestion{{Doc: Doc{ID: "q1", Modified: 1}, Title: "one"}},
		Guesses:   []GameGuess{{Doc: Doc{ID: "g1", Modified: 1}, QuestionID: "q1", Text: "x"}},
	})
	if game.Questions["q1"].Title != "one" {
		t.Error("game view lost the question")
	}
	if game.Guesses["g1"].QuestionID != "q1" {
		t.Error("game view lost the guess")
	}
}
