package server

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/triviaworks/livequiz/internal/rpc"
	"github.com/triviaworks/livequiz/internal/store"
	"github.com/triviaworks/livequiz/internal/trivia"
)

func registerAdminHandlers(a *app) {
	rpc.Register(a.mux, trivia.MethodUpgradeToAdmin, a.handleUpgradeToAdmin)
	registerProtected(a, trivia.MethodUpsertQuestion, a.handleUpsertQuestion)
	registerProtected(a, trivia.MethodUpsertTeam, a.handleUpsertTeam)
	registerProtected(a, trivia.MethodUpsertGuess, a.handleUpsertGuess)
	registerProtected(a, trivia.MethodDeleteQuestion, a.handleDeleteQuestion)
	registerProtected(a, trivia.MethodDeleteTeam, a.handleDeleteTeam)
	registerProtected(a, trivia.MethodDeleteGuess, a.handleDeleteGuess)
	registerProtected(a, trivia.MethodSetQuestionOrder, a.handleSetQuestionOrder)
	registerProtected(a, trivia.MethodPatchOrder, a.handlePatchOrder)
	registerProtected(a, trivia.MethodSetAdminPassword, a.handleSetAdminPassword)
	registerProtected(a, trivia.MethodSetGameState, a.handleSetGameState)
	registerProtected(a, trivia.MethodStartForceRefresh, a.handleStartForceRefresh)
	registerProtected(a, trivia.MethodUploadFile, a.handleUploadFile)
}

// registerProtected rejects calls from sessions that have not upgraded
// to admin before the handler runs.
func registerProtected[P, R any](a *app, method rpc.Method[P, R], h func(context.Context, rpc.Session, P) (R, error)) {
	rpc.Register(a.mux, method, func(ctx context.Context, sess rpc.Session, params P) (R, error) {
		if !sess.InRoom(adminRoom) {
			var zero R
			return zero, errNotAuthenticated
		}
		return h(ctx, sess, params)
	})
}

// handleUpgradeToAdmin accepts either a previously issued admin token or
// the admin password. A successful password login mints a fresh token so
// the client can reconnect without re-entering the password.
func (a *app) handleUpgradeToAdmin(ctx context.Context, sess rpc.Session, params trivia.UpgradeToAdminRequest) (trivia.UpgradeToAdminResponse, error) {
	if params.Token != "" {
		_, err := store.FindOne[trivia.AdminToken](ctx, a.store, store.Tokens, store.Filter{"_id": params.Token})
		if err == nil {
			if err := a.elevate(ctx, sess); err != nil {
				return trivia.UpgradeToAdminResponse{}, a.internal("upgradeToAdmin", err)
			}
			return trivia.UpgradeToAdminResponse{Success: true, Token: params.Token}, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return trivia.UpgradeToAdminResponse{}, a.internal("upgradeToAdmin", err)
		}
	}

	if params.Password == "" {
		return trivia.UpgradeToAdminResponse{}, nil
	}
	cfg, err := a.loadConfig(ctx)
	if err != nil {
		return trivia.UpgradeToAdminResponse{}, a.internal("upgradeToAdmin", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(cfg.AdminPasswordHash), []byte(params.Password)) != nil {
		return trivia.UpgradeToAdminResponse{}, nil
	}

	token := trivia.AdminToken{ID: uuid.NewString(), CreatedAt: a.now().UnixMilli()}
	if err := a.store.InsertOne(ctx, store.Tokens, token.ID, token); err != nil {
		return trivia.UpgradeToAdminResponse{}, a.internal("upgradeToAdmin", err)
	}
	if err := a.elevate(ctx, sess); err != nil {
		return trivia.UpgradeToAdminResponse{}, a.internal("upgradeToAdmin", err)
	}
	return trivia.UpgradeToAdminResponse{Success: true, Token: token.ID}, nil
}

// elevate joins the session to the admin room and pushes the complete
// unredacted state.
func (a *app) elevate(ctx context.Context, sess rpc.Session) error {
	sess.Join(adminRoom)

	order, err := a.loadOrder(ctx)
	if err != nil {
		return err
	}
	settings, err := a.loadSettings(ctx)
	if err != nil {
		return err
	}
	questions, err := a.loadQuestions(ctx)
	if err != nil {
		return err
	}
	teams, err := a.loadTeams(ctx)
	if err != nil {
		return err
	}
	guesses, err := store.Find[trivia.Guess](ctx, a.store, store.Guesses, nil,
		store.FindOptions{SortDescBy: "_modified"})
	if err != nil {
		return err
	}

	a.deliverAdmin(sess, trivia.StateUpdate{
		Questions: questions,
		Teams:     teams,
		Guesses:   guesses,
		Order:     &order,
		Settings:  []trivia.GameSettings{settings},
	})
	return nil
}

func (a *app) handleUpsertQuestion(ctx context.Context, _ rpc.Session, params trivia.Question) (trivia.StatusResponse, error) {
	deleted := params.Deleted
	params.Doc = trivia.NewDoc(params.ID, a.now())
	params.Deleted = deleted

	if err := a.store.ReplaceOne(ctx, store.Questions, params.ID, params, true); err != nil {
		return trivia.StatusResponse{}, a.internal("upsertQuestion", err)
	}
	a.broadcastAdmin(trivia.StateUpdate{Questions: []trivia.Question{params}})
	if err := a.refreshTeams(ctx); err != nil {
		return trivia.StatusResponse{}, a.internal("upsertQuestion", err)
	}
	return trivia.StatusResponse{Success: true}, nil
}

func (a *app) handleUpsertTeam(ctx context.Context, _ rpc.Session, params trivia.Team) (trivia.StatusResponse, error) {
	deleted := params.Deleted
	params.Doc = trivia.NewDoc(params.ID, a.now())
	params.Deleted = deleted
	if params.CompletedBonusQuestions == nil {
		params.CompletedBonusQuestions = []string{}
	}

	if err := a.store.ReplaceOne(ctx, store.Teams, params.ID, params, true); err != nil {
		return trivia.StatusResponse{}, a.internal("upsertTeam", err)
	}
	a.broadcastAdmin(trivia.StateUpdate{Teams: []trivia.Team{params}})
	if err := a.refreshTeams(ctx); err != nil {
		return trivia.StatusResponse{}, a.internal("upsertTeam", err)
	}
	return trivia.StatusResponse{Success: true}, nil
}

func (a *app) handleUpsertGuess(ctx context.Context, _ rpc.Session, params trivia.Guess) (trivia.StatusResponse, error) {
	deleted := params.Deleted
	params.Doc = trivia.NewDoc(params.ID, a.now())
	params.Deleted = deleted

	if err := a.store.ReplaceOne(ctx, store.Guesses, params.ID, params, true); err != nil {
		return trivia.StatusResponse{}, a.internal("upsertGuess", err)
	}
	a.broadcastAdmin(trivia.StateUpdate{Guesses: []trivia.Guess{params}})

	order, err := a.loadOrder(ctx)
	if err != nil {
		return trivia.StatusResponse{}, a.internal("upsertGuess", err)
	}
	a.broadcastGame(teamRoom(params.TeamID), trivia.StateUpdate{Guesses: []trivia.Guess{params}}, order)
	return trivia.StatusResponse{Success: true}, nil
}

// Deletes are tombstone flips: the document is replaced by its merge
// metadata with _deleted set, so receivers drop it through the normal
// merge path.

func tombstone(id string, now time.Time) trivia.Doc {
	d := trivia.NewDoc(id, now)
	d.Deleted = true
	return d
}

func (a *app) handleDeleteQuestion(ctx context.Context, _ rpc.Session, params trivia.DeleteRequest) (trivia.StatusResponse, error) {
	q := trivia.Question{Doc: tombstone(params.ID, a.now())}
	if err := a.store.ReplaceOne(ctx, store.Questions, q.ID, q, true); err != nil {
		return trivia.StatusResponse{}, a.internal("deleteQuestion", err)
	}
	a.broadcastAdmin(trivia.StateUpdate{Questions: []trivia.Question{q}})
	if err := a.refreshTeams(ctx); err != nil {
		return trivia.StatusResponse{}, a.internal("deleteQuestion", err)
	}
	return trivia.StatusResponse{Success: true}, nil
}

func (a *app) handleDeleteTeam(ctx context.Context, _ rpc.Session, params trivia.DeleteRequest) (trivia.StatusResponse, error) {
	team := trivia.Team{Doc: tombstone(params.ID, a.now()), CompletedBonusQuestions: []string{}}
	if err := a.store.ReplaceOne(ctx, store.Teams, team.ID, team, true); err != nil {
		return trivia.StatusResponse{}, a.internal("deleteTeam", err)
	}
	a.broadcastAdmin(trivia.StateUpdate{Teams: []trivia.Team{team}})

	order, err := a.loadOrder(ctx)
	if err != nil {
		return trivia.StatusResponse{}, a.internal("deleteTeam", err)
	}
	a.broadcastGame(teamRoom(team.ID), trivia.StateUpdate{Teams: []trivia.Team{team}}, order)
	return trivia.StatusResponse{Success: true}, nil
}

func (a *app) handleDeleteGuess(ctx context.Context, _ rpc.Session, params trivia.DeleteRequest) (trivia.StatusResponse, error) {
	// Learn the owning team before the content is gone so its room hears
	// about the removal. A guess that never existed still gets its
	// tombstone written, there is just no room to notify.
	var teamID string
	existing, err := store.FindOne[trivia.Guess](ctx, a.store, store.Guesses, store.Filter{"_id": params.ID})
	switch {
	case err == nil:
		teamID = existing.TeamID
	case !errors.Is(err, store.ErrNotFound):
		return trivia.StatusResponse{}, a.internal("deleteGuess", err)
	}

	g := trivia.Guess{Doc: tombstone(params.ID, a.now())}
	if err := a.store.ReplaceOne(ctx, store.Guesses, g.ID, g, true); err != nil {
		return trivia.StatusResponse{}, a.internal("deleteGuess", err)
	}
	a.broadcastAdmin(trivia.StateUpdate{Guesses: []trivia.Guess{g}})

	if teamID != "" {
		order, err := a.loadOrder(ctx)
		if err != nil {
			return trivia.StatusResponse{}, a.internal("deleteGuess", err)
		}
		a.broadcastGame(teamRoom(teamID), trivia.StateUpdate{Guesses: []trivia.Guess{g}}, order)
	}
	return trivia.StatusResponse{Success: true}, nil
}

func (a *app) handleSetQuestionOrder(ctx context.Context, _ rpc.Session, params trivia.SetQuestionOrderRequest) (trivia.StatusResponse, error) {
	order := trivia.QuestionOrder{
		Doc:   trivia.NewDoc(trivia.OrderID, a.now()),
		Main:  params.Main,
		Bonus: params.Bonus,
	}
	return a.saveOrder(ctx, order)
}

func (a *app) handlePatchOrder(ctx context.Context, _ rpc.Session, params trivia.PatchOrderRequest) (trivia.StatusResponse, error) {
	order, err := a.loadOrder(ctx)
	if err != nil {
		return trivia.StatusResponse{}, a.internal("patchOrder", err)
	}
	if params.Main != nil {
		order.Main = *params.Main
	}
	if params.Bonus != nil {
		order.Bonus = *params.Bonus
	}
	order.Doc = trivia.NewDoc(trivia.OrderID, a.now())
	return a.saveOrder(ctx, order)
}

func (a *app) saveOrder(ctx context.Context, order trivia.QuestionOrder) (trivia.StatusResponse, error) {
	if err := a.store.ReplaceOne(ctx, store.Order, order.ID, order, true); err != nil {
		return trivia.StatusResponse{}, a.internal("setQuestionOrder", err)
	}
	a.broadcastAdmin(trivia.StateUpdate{Order: &order})
	if err := a.refreshTeams(ctx); err != nil {
		return trivia.StatusResponse{}, a.internal("setQuestionOrder", err)
	}
	return trivia.StatusResponse{Success: true}, nil
}

// handleSetAdminPassword replaces the password hash and revokes every
// outstanding admin token. Connected admin sessions stay elevated; new
// connections must present the new password.
func (a *app) handleSetAdminPassword(ctx context.Context, _ rpc.Session, params trivia.SetAdminPasswordRequest) (trivia.StatusResponse, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return trivia.StatusResponse{}, a.internal("setAdminPassword", err)
	}
	cfg, err := a.loadConfig(ctx)
	if err != nil {
		return trivia.StatusResponse{}, a.internal("setAdminPassword", err)
	}
	cfg.AdminPasswordHash = string(hash)
	if err := a.store.ReplaceOne(ctx, store.Config, cfg.ID, cfg, true); err != nil {
		return trivia.StatusResponse{}, a.internal("setAdminPassword", err)
	}
	if _, err := a.store.DeleteMany(ctx, store.Tokens, nil); err != nil {
		return trivia.StatusResponse{}, a.internal("setAdminPassword", err)
	}
	return trivia.StatusResponse{Success: true}, nil
}

func (a *app) handleSetGameState(ctx context.Context, _ rpc.Session, params trivia.SetGameStateRequest) (trivia.StatusResponse, error) {
	if !trivia.ValidGameState(params.State) {
		return trivia.StatusResponse{}, errors.New("invalid game state")
	}
	settings, err := a.loadSettings(ctx)
	if err != nil {
		return trivia.StatusResponse{}, a.internal("setGameState", err)
	}
	settings.State = params.State
	return a.saveSettings(ctx, settings)
}

// handleStartForceRefresh rotates the refresh token, which tells every
// connected client to reload itself.
func (a *app) handleStartForceRefresh(ctx context.Context, _ rpc.Session, _ trivia.EmptyRequest) (trivia.StatusResponse, error) {
	settings, err := a.loadSettings(ctx)
	if err != nil {
		return trivia.StatusResponse{}, a.internal("startForceRefresh", err)
	}
	token, err := trivia.GenerateToken(5)
	if err != nil {
		return trivia.StatusResponse{}, a.internal("startForceRefresh", err)
	}
	settings.RefreshToken = token
	return a.saveSettings(ctx, settings)
}

func (a *app) saveSettings(ctx context.Context, settings trivia.GameSettings) (trivia.StatusResponse, error) {
	settings.Doc = trivia.NewDoc(trivia.SettingsID, a.now())
	if err := a.store.ReplaceOne(ctx, store.Settings, settings.ID, settings, true); err != nil {
		return trivia.StatusResponse{}, a.internal("setGameState", err)
	}
	order, err := a.loadOrder(ctx)
	if err != nil {
		return trivia.StatusResponse{}, a.internal("setGameState", err)
	}
	u := trivia.StateUpdate{Settings: []trivia.GameSettings{settings}}
	a.broadcastAdmin(u)
	a.broadcastGame(gameRoom, u, order)
	return trivia.StatusResponse{Success: true}, nil
}

// handleUploadFile stores a base64 data URL on disk. Zip archives are
// extracted into a fresh directory, anything else is stored as a single
// file named by a fresh UUID.
func (a *app) handleUploadFile(ctx context.Context, _ rpc.Session, params trivia.UploadFileRequest) (trivia.UploadFileResponse, error) {
	header, encoded, ok := strings.Cut(params.Base64, ";base64,")
	if !ok {
		return trivia.UploadFileResponse{}, errors.New("expected a base64 data URL")
	}
	ext := header[strings.LastIndex(header, "/")+1:]
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return trivia.UploadFileResponse{}, errors.New("invalid base64 payload")
	}

	var path string
	if ext == "zip" {
		path, err = a.uploads.SaveZip(data)
	} else {
		path, err = a.uploads.Save(data, ext)
	}
	if err != nil {
		return trivia.UploadFileResponse{}, a.internal("uploadFile", err)
	}
	return trivia.UploadFileResponse{Success: true, Path: path}, nil
}
