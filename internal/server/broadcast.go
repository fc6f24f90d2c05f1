package server

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/triviaworks/livequiz/internal/rpc"
	"github.com/triviaworks/livequiz/internal/store"
	"github.com/triviaworks/livequiz/internal/trivia"
)

func (a *app) emit(room string, action rpc.Action) {
	data, err := json.Marshal(action)
	if err != nil {
		a.logger.Error("encoding broadcast failed", "room", room, "type", action.Type, "error", err)
		return
	}
	a.rooms.Emit(room, data)
}

// broadcastAdmin sends the unredacted patch to every admin session.
func (a *app) broadcastAdmin(u trivia.StateUpdate) {
	if u.IsEmpty() {
		return
	}
	a.emit(adminRoom, rpc.Action{Type: trivia.ActionAdminUpdate, Payload: u})
}

// broadcastGame redacts the patch for the given room. The room decides
// the audience, the redaction is the same for all non-admin scopes.
func (a *app) broadcastGame(room string, u trivia.StateUpdate, order trivia.QuestionOrder) {
	if u.IsEmpty() {
		return
	}
	a.emit(room, rpc.Action{Type: trivia.ActionGameUpdate, Payload: trivia.Redact(u, order, a.now())})
}

// deliverGame pushes a redacted patch to a single session, used for the
// initial state dump after upgradeToGame.
func (a *app) deliverGame(sess rpc.Session, u trivia.StateUpdate, order trivia.QuestionOrder) {
	sess.Deliver(rpc.Action{Type: trivia.ActionGameUpdate, Payload: trivia.Redact(u, order, a.now())})
}

func (a *app) deliverAdmin(sess rpc.Session, u trivia.StateUpdate) {
	sess.Deliver(rpc.Action{Type: trivia.ActionAdminUpdate, Payload: u})
}

// refreshTeams runs after any admin edit that may have changed question
// content or ordering. Each team is snapped back onto the order if its
// position vanished, and its room receives a fresh view of everything
// it is allowed to see.
func (a *app) refreshTeams(ctx context.Context) error {
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

	for _, team := range teams {
		if team.Deleted {
			continue
		}
		fixed, changed := trivia.ReconcileTeam(team, order, a.now())
		if changed {
			if err := a.store.ReplaceOne(ctx, store.Teams, fixed.ID, fixed, true); err != nil {
				return fmt.Errorf("reconciling team %s: %w", fixed.ID, err)
			}
			a.broadcastAdmin(trivia.StateUpdate{Teams: []trivia.Team{fixed}})
		}

		guesses, err := a.teamGuesses(ctx, fixed.ID)
		if err != nil {
			return err
		}
		u := trivia.StateUpdate{
			Questions: questions,
			Teams:     []trivia.Team{fixed},
			Guesses:   guesses,
			Order:     &order,
			Settings:  []trivia.GameSettings{settings},
		}
		a.broadcastGame(teamRoom(fixed.ID), u, order)
	}
	return nil
}
