package trivia

// Entity is satisfied by every document that flows through the merge
// protocol.
type Entity interface {
	DocID() string
	DocModified() int64
}

// Set is a keyed last-write-wins collection. Apply is idempotent and
// order-insensitive per entity: an incoming document replaces the cached
// one only when its Modified is strictly greater.
type Set[T Entity] map[string]T

// Apply merges docs into the set and reports whether anything changed.
func (s Set[T]) Apply(docs ...T) bool {
	changed := false
	for _, doc := range docs {
		existing, ok := s[doc.DocID()]
		if ok && existing.DocModified() >= doc.DocModified() {
			continue
		}
		s[doc.DocID()] = doc
		changed = true
	}
	return changed
}

// StateUpdate is the unredacted patch emitted to the admin scope. Nil
// slices mean "no change for that kind".
type StateUpdate struct {
	Questions []Question     `json:"questions,omitempty"`
	Teams     []Team         `json:"teams,omitempty"`
	Guesses   []Guess        `json:"guesses,omitempty"`
	Order     *QuestionOrder `json:"order,omitempty"`
	Settings  []GameSettings `json:"gameSettings,omitempty"`
}

// IsEmpty reports whether the patch carries no documents at all.
func (u StateUpdate) IsEmpty() bool {
	return len(u.Questions) == 0 && len(u.Teams) == 0 && len(u.Guesses) == 0 &&
		u.Order == nil && len(u.Settings) == 0
}

// GameStateUpdate is the redacted patch emitted to game and team scopes.
type GameStateUpdate struct {
	Questions []GameQuestion     `json:"questions,omitempty"`
	Teams     []Team             `json:"teams,omitempty"`
	Guesses   []GameGuess        `json:"guesses,omitempty"`
	Order     *GameQuestionOrder `json:"order,omitempty"`
	Settings  []GameSettings     `json:"gameSettings,omitempty"`
}

// AdminView is the receiving-side cache of the admin scope.
type AdminView struct {
	Questions Set[Question]
	Teams     Set[Team]
	Guesses   Set[Guess]
	Order     Set[QuestionOrder]
	Settings  Set[GameSettings]
}

func NewAdminView() *AdminView {
	return &AdminView{
		Questions: Set[Question]{},
		Teams:     Set[Team]{},
		Guesses:   Set[Guess]{},
		Order:     Set[QuestionOrder]{},
		Settings:  Set[GameSettings]{},
	}
}

// Apply merges one admin/update patch.
func (v *AdminView) Apply(u StateUpdate) {
	v.Questions.Apply(u.Questions...)
	v.Teams.Apply(u.Teams...)
	v.Guesses.Apply(u.Guesses...)
	if u.Order != nil {
		v.Order.Apply(*u.Order)
	}
	v.Settings.Apply(u.Settings...)
}

// GameView is the receiving-side cache of a game or team scope.
type GameView struct {
	Questions Set[GameQuestion]
	Teams     Set[Team]
	Guesses   Set[GameGuess]
	Order     Set[GameQuestionOrder]
	Settings  Set[GameSettings]
}

func NewGameView() *GameView {
	return &GameView{
		Questions: Set[GameQuestion]{},
		Teams:     Set[Team]{},
		Guesses:   Set[GameGuess]{},
		Order:     Set[GameQuestionOrder]{},
		Settings:  Set[GameSettings]{},
	}
}

// Apply merges one game/update patch.
func (v *GameView) Apply(u GameStateUpdate) {
	v.Questions.Apply(u.Questions...)
	v.Teams.Apply(u.Teams...)
	v.Guesses.Apply(u.Guesses...)
	if u.Order != nil {
		v.Order.Apply(*u.Order)
	}
	v.Settings.Apply(u.Settings...)
}
