package trivia

import "github.com/triviaworks/livequiz/internal/rpc"

// Request and response shapes for the RPC catalog. The method descriptors
// below pair each shape with its field contract and the fallback value a
// caller resolves to on timeout.

type StatusResponse struct {
	Success bool `json:"success"`
}

type UpgradeToAdminRequest struct {
	Password string `json:"password,omitempty"`
	Token    string `json:"token,omitempty"`
}

type UpgradeToAdminResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token,omitempty"`
}

type UpgradeToGameRequest struct {
	Token string `json:"token"`
}

type UpgradeToGameResponse struct {
	TeamID string `json:"teamId"`
}

type GuessRequest struct {
	TeamID     string `json:"teamId"`
	QuestionID string `json:"questionId,omitempty"`
	Text       string `json:"text"`
}

type GuessResponse struct {
	Success   bool `json:"success"`
	IsCorrect bool `json:"isCorrect"`
}

type RankingRequest struct {
	TeamID string `json:"teamId"`
}

type RankingResponse struct {
	Ranking []RankedTeam `json:"ranking"`
}

type CreateTeamRequest struct {
	InviteCode string `json:"inviteCode"`
	Name       string `json:"name"`
}

type CreateTeamResponse struct {
	TeamToken     string `json:"teamToken,omitempty"`
	FailureReason string `json:"failureReason,omitempty"`
}

type GetInviteRequest struct {
	TeamID string `json:"teamId"`
}

type GetInviteResponse struct {
	InviteCode string `json:"inviteCode"`
}

type DeleteRequest struct {
	ID string `json:"_id"`
}

type SetQuestionOrderRequest struct {
	Main  []string `json:"main"`
	Bonus []string `json:"bonus"`
}

// PatchOrderRequest updates only the lists it names.
type PatchOrderRequest struct {
	Main  *[]string `json:"main,omitempty"`
	Bonus *[]string `json:"bonus,omitempty"`
}

type SetAdminPasswordRequest struct {
	Password string `json:"password"`
}

type SetGameStateRequest struct {
	State GameState `json:"state"`
}

type UploadFileRequest struct {
	Base64 string `json:"base64"`
}

type UploadFileResponse struct {
	Success bool   `json:"success"`
	Path    string `json:"path,omitempty"`
}

type EmptyRequest struct{}

// Broadcast action types.
const (
	ActionAdminUpdate = "admin/update"
	ActionGameUpdate  = "game/update"
)

// Game-audience methods.
var (
	MethodUpgradeToGame = rpc.Method[UpgradeToGameRequest, UpgradeToGameResponse]{
		Name:   "upgradeToGame",
		Params: rpc.ObjectValidator{"token": rpc.String},
	}

	MethodGuess = rpc.Method[GuessRequest, GuessResponse]{
		Name: "guess",
		Params: rpc.ObjectValidator{
			"teamId":     rpc.String,
			"questionId": rpc.Optional(rpc.String),
			"text":       rpc.String,
		},
	}

	MethodGetRanking = rpc.Method[RankingRequest, RankingResponse]{
		Name:   "getRanking",
		Params: rpc.ObjectValidator{"teamId": rpc.String},
	}

	MethodCreateTeam = rpc.Method[CreateTeamRequest, CreateTeamResponse]{
		Name: "createTeam",
		Params: rpc.ObjectValidator{
			"inviteCode": rpc.String,
			"name":       rpc.String,
		},
		Fallback: CreateTeamResponse{FailureReason: "Request timed out."},
	}

	MethodGetInvite = rpc.Method[GetInviteRequest, GetInviteResponse]{
		Name:   "getInvite",
		Params: rpc.ObjectValidator{"teamId": rpc.String},
	}
)

// Admin-audience methods.
var (
	MethodUpgradeToAdmin = rpc.Method[UpgradeToAdminRequest, UpgradeToAdminResponse]{
		Name: "upgradeToAdmin",
		Params: rpc.ObjectValidator{
			"password": rpc.Optional(rpc.String),
			"token":    rpc.Optional(rpc.String),
		},
	}

	MethodUpsertQuestion = rpc.Method[Question, StatusResponse]{
		Name: "upsertQuestion",
		Params: rpc.ObjectValidator{
			"_id":         rpc.Optional(rpc.String),
			"_deleted":    rpc.Optional(rpc.Bool),
			"title":       rpc.String,
			"name":        rpc.Optional(rpc.String),
			"answer":      rpc.String,
			"text":        rpc.Optional(rpc.String),
			"image":       rpc.Optional(rpc.String),
			"frame":       rpc.Optional(rpc.String),
			"hideAnswer":  rpc.Optional(rpc.Bool),
			"unlockTime":  rpc.Optional(rpc.Number),
			"bonusWinner": rpc.Optional(rpc.String),
		},
	}

	MethodUpsertTeam = rpc.Method[Team, StatusResponse]{
		Name: "upsertTeam",
		Params: rpc.ObjectValidator{
			"_id":                     rpc.Optional(rpc.String),
			"_deleted":                rpc.Optional(rpc.Bool),
			"name":                    rpc.String,
			"token":                   rpc.String,
			"mainQuestionId":          rpc.String,
			"completedBonusQuestions": rpc.StringSlice,
			"lastAnswerTime":          rpc.Optional(rpc.Number),
			"isSecretTeam":            rpc.Optional(rpc.Bool),
		},
	}

	MethodUpsertGuess = rpc.Method[Guess, StatusResponse]{
		Name: "upsertGuess",
		Params: rpc.ObjectValidator{
			"_id":        rpc.Optional(rpc.String),
			"_deleted":   rpc.Optional(rpc.Bool),
			"teamId":     rpc.String,
			"questionId": rpc.String,
			"text":       rpc.String,
			"isCorrect":  rpc.Bool,
		},
	}

	MethodDeleteQuestion = rpc.Method[DeleteRequest, StatusResponse]{
		Name:   "deleteQuestion",
		Params: rpc.ObjectValidator{"_id": rpc.String},
	}

	MethodDeleteTeam = rpc.Method[DeleteRequest, StatusResponse]{
		Name:   "deleteTeam",
		Params: rpc.ObjectValidator{"_id": rpc.String},
	}

	MethodDeleteGuess = rpc.Method[DeleteRequest, StatusResponse]{
		Name:   "deleteGuess",
		Params: rpc.ObjectValidator{"_id": rpc.String},
	}

	MethodSetQuestionOrder = rpc.Method[SetQuestionOrderRequest, StatusResponse]{
		Name: "setQuestionOrder",
		Params: rpc.ObjectValidator{
			"main":  rpc.StringSlice,
			"bonus": rpc.StringSlice,
		},
	}

	MethodPatchOrder = rpc.Method[PatchOrderRequest, StatusResponse]{
		Name: "patchOrder",
		Params: rpc.ObjectValidator{
			"main":  rpc.Optional(rpc.StringSlice),
			"bonus": rpc.Optional(rpc.StringSlice),
		},
	}

	MethodSetAdminPassword = rpc.Method[SetAdminPasswordRequest, StatusResponse]{
		Name:   "setAdminPassword",
		Params: rpc.ObjectValidator{"password": rpc.String},
	}

	MethodSetGameState = rpc.Method[SetGameStateRequest, StatusResponse]{
		Name:   "setGameState",
		Params: rpc.ObjectValidator{"state": rpc.String},
	}

	MethodStartForceRefresh = rpc.Method[EmptyRequest, StatusResponse]{
		Name:   "startForceRefresh",
		Params: rpc.ObjectValidator{},
	}

	MethodUploadFile = rpc.Method[UploadFileRequest, UploadFileResponse]{
		Name:   "uploadFile",
		Params: rpc.ObjectValidator{"base64": rpc.String},
	}
)
