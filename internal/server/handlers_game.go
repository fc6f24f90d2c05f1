package server

import (
	"context"
	"errors"

	"github.com/triviaworks/livequiz/internal/rpc"
	"github.com/triviaworks/livequiz/internal/store"
	"github.com/triviaworks/livequiz/internal/trivia"
)

// errNotAuthenticated is the exact string clients key error handling on.
var errNotAuthenticated = errors.New("Not authenticated")

var errInvalidTeamToken = errors.New("invalid team token")

func registerGameHandlers(a *app) {
	rpc.Register(a.mux, trivia.MethodUpgradeToGame, a.handleUpgradeToGame)
	rpc.Register(a.mux, trivia.MethodGuess, a.handleGuess)
	rpc.Register(a.mux, trivia.MethodGetRanking, a.handleGetRanking)
	rpc.Register(a.mux, trivia.MethodCreateTeam, a.handleCreateTeam)
	rpc.Register(a.mux, trivia.MethodGetInvite, a.handleGetInvite)
}

// teamScope reports whether the session may act for the given team. An
// admin session may act for any team.
func (a *app) teamScope(sess rpc.Session, teamID string) bool {
	return sess.InRoom(teamRoom(teamID)) || sess.InRoom(adminRoom)
}

// handleUpgradeToGame authenticates a session with a team join token,
// joins it to the game rooms and pushes the full visible state.
func (a *app) handleUpgradeToGame(ctx context.Context, sess rpc.Session, params trivia.UpgradeToGameRequest) (trivia.UpgradeToGameResponse, error) {
	team, err := store.FindOne[trivia.Team](ctx, a.store, store.Teams, store.Filter{"token": params.Token})
	if errors.Is(err, store.ErrNotFound) {
		return trivia.UpgradeToGameResponse{}, errInvalidTeamToken
	}
	if err != nil {
		return trivia.UpgradeToGameResponse{}, a.internal("upgradeToGame", err)
	}
	if team.Deleted {
		return trivia.UpgradeToGameResponse{}, errInvalidTeamToken
	}

	order, err := a.loadOrder(ctx)
	if err != nil {
		return trivia.UpgradeToGameResponse{}, a.internal("upgradeToGame", err)
	}
	if fixed, changed := trivia.ReconcileTeam(team, order, a.now()); changed {
		if err := a.store.ReplaceOne(ctx, store.Teams, fixed.ID, fixed, true); err != nil {
			return trivia.UpgradeToGameResponse{}, a.internal("upgradeToGame", err)
		}
		a.broadcastAdmin(trivia.StateUpdate{Teams: []trivia.Team{fixed}})
		team = fixed
	}

	sess.Join(gameRoom)
	sess.Join(teamRoom(team.ID))

	settings, err := a.loadSettings(ctx)
	if err != nil {
		return trivia.UpgradeToGameResponse{}, a.internal("upgradeToGame", err)
	}
	questions, err := a.loadQuestions(ctx)
	if err != nil {
		return trivia.UpgradeToGameResponse{}, a.internal("upgradeToGame", err)
	}
	guesses, err := a.teamGuesses(ctx, team.ID)
	if err != nil {
		return trivia.UpgradeToGameResponse{}, a.internal("upgradeToGame", err)
	}

	a.deliverGame(sess, trivia.StateUpdate{
		Questions: questions,
		Teams:     []trivia.Team{team},
		Guesses:   guesses,
		Order:     &order,
		Settings:  []trivia.GameSettings{settings},
	}, order)

	return trivia.UpgradeToGameResponse{TeamID: team.ID}, nil
}

// handleGuess records a submission and applies its consequences. Guesses
// for the same team are serialized so concurrent submissions cannot
// double-advance it or crown two bonus winners.
func (a *app) handleGuess(ctx context.Context, sess rpc.Session, params trivia.GuessRequest) (trivia.GuessResponse, error) {
	if !a.teamScope(sess, params.TeamID) {
		return trivia.GuessResponse{}, errNotAuthenticated
	}

	mu := a.guessLock("team:" + params.TeamID)
	mu.Lock()
	defer mu.Unlock()

	team, err := a.loadTeam(ctx, params.TeamID)
	if errors.Is(err, store.ErrNotFound) {
		return trivia.GuessResponse{}, trivia.ErrNotFound
	}
	if err != nil {
		return trivia.GuessResponse{}, a.internal("guess", err)
	}

	// Bonus targets are contended across teams: crowning the winner is
	// first-correct-wins, so the read-evaluate-write below serializes on
	// the question as well. Team lock always before question lock.
	targetID := params.QuestionID
	if targetID == "" {
		targetID = team.MainQuestionID
	}
	if targetID != team.MainQuestionID {
		qmu := a.guessLock("question:" + targetID)
		qmu.Lock()
		defer qmu.Unlock()
	}

	order, err := a.loadOrder(ctx)
	if err != nil {
		return trivia.GuessResponse{}, a.internal("guess", err)
	}
	questions, err := a.loadQuestions(ctx)
	if err != nil {
		return trivia.GuessResponse{}, a.internal("guess", err)
	}

	outcome, err := trivia.EvaluateGuess(a.now(), order, team, questionMap(questions), params.QuestionID, params.Text)
	if errors.Is(err, trivia.ErrNotFound) {
		return trivia.GuessResponse{}, err
	}
	if err != nil {
		return trivia.GuessResponse{}, a.internal("guess", err)
	}

	if err := a.store.InsertOne(ctx, store.Guesses, outcome.Guess.ID, outcome.Guess); err != nil {
		return trivia.GuessResponse{}, a.internal("guess", err)
	}
	if outcome.Team != nil {
		if err := a.store.ReplaceOne(ctx, store.Teams, outcome.Team.ID, *outcome.Team, true); err != nil {
			return trivia.GuessResponse{}, a.internal("guess", err)
		}
	}
	if outcome.Question != nil {
		if err := a.store.ReplaceOne(ctx, store.Questions, outcome.Question.ID, *outcome.Question, true); err != nil {
			return trivia.GuessResponse{}, a.internal("guess", err)
		}
	}

	adminU := trivia.StateUpdate{Guesses: []trivia.Guess{outcome.Guess}}
	teamU := trivia.StateUpdate{Guesses: []trivia.Guess{outcome.Guess}}
	if outcome.Team != nil {
		adminU.Teams = []trivia.Team{*outcome.Team}
		teamU.Teams = []trivia.Team{*outcome.Team}
	}
	if outcome.Question != nil {
		adminU.Questions = []trivia.Question{*outcome.Question}
	}
	if outcome.Next != nil {
		teamU.Questions = append(teamU.Questions, *outcome.Next)
	}

	a.broadcastAdmin(adminU)
	a.broadcastGame(teamRoom(team.ID), teamU, order)
	if outcome.Question != nil {
		// A bonus question gained its winner; every team sees that.
		a.broadcastGame(gameRoom, trivia.StateUpdate{Questions: []trivia.Question{*outcome.Question}}, order)
	}

	return trivia.GuessResponse{Success: true, IsCorrect: outcome.IsCorrect}, nil
}

func (a *app) handleGetRanking(ctx context.Context, sess rpc.Session, params trivia.RankingRequest) (trivia.RankingResponse, error) {
	if !a.teamScope(sess, params.TeamID) {
		return trivia.RankingResponse{}, errNotAuthenticated
	}

	order, err := a.loadOrder(ctx)
	if err != nil {
		return trivia.RankingResponse{}, a.internal("getRanking", err)
	}
	teams, err := a.loadTeams(ctx)
	if err != nil {
		return trivia.RankingResponse{}, a.internal("getRanking", err)
	}

	return trivia.RankingResponse{Ranking: trivia.Ranking(order, teams, params.TeamID)}, nil
}

func (a *app) handleCreateTeam(ctx context.Context, _ rpc.Session, params trivia.CreateTeamRequest) (trivia.CreateTeamResponse, error) {
	cfg, err := a.loadConfig(ctx)
	if err != nil {
		return trivia.CreateTeamResponse{}, a.internal("createTeam", err)
	}
	if params.InviteCode != cfg.InviteCode {
		return trivia.CreateTeamResponse{FailureReason: "Invalid invite code."}, nil
	}

	order, err := a.loadOrder(ctx)
	if err != nil {
		return trivia.CreateTeamResponse{}, a.internal("createTeam", err)
	}
	teams, err := a.loadTeams(ctx)
	if err != nil {
		return trivia.CreateTeamResponse{}, a.internal("createTeam", err)
	}

	team, err := trivia.NewTeam(a.now(), params.Name, order, teams)
	if err != nil {
		if isTeamCreateFailure(err) {
			return trivia.CreateTeamResponse{FailureReason: err.Error()}, nil
		}
		return trivia.CreateTeamResponse{}, a.internal("createTeam", err)
	}

	if err := a.store.InsertOne(ctx, store.Teams, team.ID, team); err != nil {
		return trivia.CreateTeamResponse{}, a.internal("createTeam", err)
	}
	a.broadcastAdmin(trivia.StateUpdate{Teams: []trivia.Team{team}})

	return trivia.CreateTeamResponse{TeamToken: team.Token}, nil
}

func isTeamCreateFailure(err error) bool {
	return errors.Is(err, trivia.ErrTeamNameTaken) ||
		errors.Is(err, trivia.ErrTeamNameRequired) ||
		errors.Is(err, trivia.ErrTeamNameTooLong) ||
		errors.Is(err, trivia.ErrGameNotReady)
}

func (a *app) handleGetInvite(ctx context.Context, sess rpc.Session, params trivia.GetInviteRequest) (trivia.GetInviteResponse, error) {
	if !a.teamScope(sess, params.TeamID) {
		return trivia.GetInviteResponse{}, errNotAuthenticated
	}
	cfg, err := a.loadConfig(ctx)
	if err != nil {
		return trivia.GetInviteResponse{}, a.internal("getInvite", err)
	}
	return trivia.GetInviteResponse{InviteCode: cfg.InviteCode}, nil
}
