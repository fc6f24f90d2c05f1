// Package trivia holds the shared game entities, the last-write-wins merge
// protocol, per-audience redaction, and the progression engine that drives
// guess handling, question advancement and ranking.
package trivia

import (
	"time"

	"github.com/google/uuid"
)

// Well-known singleton document ids.
const (
	OrderID    = "QUESTION_ORDER"
	SettingsID = "MAIN"
	ConfigID   = "SERVER_CONFIG"
)

// Doc is the base shape every mutable entity embeds. Modified is a
// millisecond timestamp set by whichever actor last wrote the entity;
// the document with the strictly greater Modified wins a merge. Deleted
// documents are tombstones, never physically removed.
type Doc struct {
	ID       string `json:"_id"`
	Modified int64  `json:"_modified"`
	Deleted  bool   `json:"_deleted,omitempty"`
}

func (d Doc) DocID() string      { return d.ID }
func (d Doc) DocModified() int64 { return d.Modified }

// Meta returns only the merge metadata, used to build tombstone
// placeholders.
func (d Doc) Meta() Doc {
	return Doc{ID: d.ID, Modified: d.Modified, Deleted: d.Deleted}
}

// NewDoc stamps a document base. An empty id means the creator did not
// assign one, so a fresh uuid is used.
func NewDoc(id string, now time.Time) Doc {
	if id == "" {
		id = uuid.NewString()
	}
	return Doc{ID: id, Modified: now.UnixMilli()}
}

// Question is the admin-audience shape. Answer and Name never leave the
// admin scope.
type Question struct {
	Doc
	Title       string `json:"title"`
	Name        string `json:"name,omitempty"`
	Answer      string `json:"answer"`
	Text        string `json:"text,omitempty"`
	Image       string `json:"image,omitempty"`
	Frame       string `json:"frame,omitempty"`
	HideAnswer  bool   `json:"hideAnswer,omitempty"`
	UnlockTime  int64  `json:"unlockTime,omitempty"`
	BonusWinner string `json:"bonusWinner,omitempty"`
}

// Team is visible in full to the admin scope and to the team itself.
type Team struct {
	Doc
	Name                    string   `json:"name"`
	Token                   string   `json:"token"`
	MainQuestionID          string   `json:"mainQuestionId"`
	CompletedBonusQuestions []string `json:"completedBonusQuestions"`
	LastAnswerTime          int64    `json:"lastAnswerTime,omitempty"`
	IsSecretTeam            bool     `json:"isSecretTeam,omitempty"`
}

// Guess records every submission, correct or not.
type Guess struct {
	Doc
	TeamID     string `json:"teamId"`
	QuestionID string `json:"questionId"`
	Text       string `json:"text"`
	IsCorrect  bool   `json:"isCorrect"`
}

// QuestionOrder is the singleton defining the main progression sequence
// and bonus eligibility.
type QuestionOrder struct {
	Doc
	Main  []string `json:"main"`
	Bonus []string `json:"bonus"`
}

// GameState is the overall lifecycle state of the event.
type GameState string

const (
	GameNotActive    GameState = "notActive"
	GameActive       GameState = "active"
	GameForceRefresh GameState = "forceRefresh"
)

// ValidGameState reports whether s is one of the known lifecycle states.
func ValidGameState(s GameState) bool {
	switch s {
	case GameNotActive, GameActive, GameForceRefresh:
		return true
	}
	return false
}

// GameSettings is the singleton lifecycle document. Rotating RefreshToken
// forces connected clients to reload.
type GameSettings struct {
	Doc
	State        GameState `json:"state"`
	RefreshToken string    `json:"refreshToken"`
}

// DefaultSettings is the state before an admin touches anything.
func DefaultSettings() GameSettings {
	return GameSettings{
		Doc:          Doc{ID: SettingsID},
		State:        GameNotActive,
		RefreshToken: "A",
	}
}

// DefaultOrder is the empty order singleton.
func DefaultOrder() QuestionOrder {
	return QuestionOrder{Doc: Doc{ID: OrderID}, Main: []string{}, Bonus: []string{}}
}

// AdminToken is an ephemeral admin credential, expired by the storage
// layer after a fixed TTL.
type AdminToken struct {
	ID        string `json:"_id"`
	CreatedAt int64  `json:"createdAt"`
}

// ServerConfig holds the admin password hash and the invite code required
// to create teams. It is never broadcast.
type ServerConfig struct {
	ID                string `json:"_id"`
	AdminPasswordHash string `json:"adminPasswordHash"`
	InviteCode        string `json:"inviteCode"`
}
