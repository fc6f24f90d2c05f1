package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/triviaworks/livequiz/internal/store"
	"github.com/triviaworks/livequiz/internal/trivia"
)

// Singleton loaders fall back to defaults so a fresh database behaves
// like an empty game instead of erroring.

func (a *app) loadOrder(ctx context.Context) (trivia.QuestionOrder, error) {
	order, err := store.FindOne[trivia.QuestionOrder](ctx, a.store, store.Order, store.Filter{"_id": trivia.OrderID})
	if errors.Is(err, store.ErrNotFound) {
		return trivia.DefaultOrder(), nil
	}
	return order, err
}

func (a *app) loadSettings(ctx context.Context) (trivia.GameSettings, error) {
	settings, err := store.FindOne[trivia.GameSettings](ctx, a.store, store.Settings, store.Filter{"_id": trivia.SettingsID})
	if errors.Is(err, store.ErrNotFound) {
		return trivia.DefaultSettings(), nil
	}
	return settings, err
}

func (a *app) loadConfig(ctx context.Context) (trivia.ServerConfig, error) {
	cfg, err := store.FindOne[trivia.ServerConfig](ctx, a.store, store.Config, store.Filter{"_id": trivia.ConfigID})
	if err != nil {
		return cfg, fmt.Errorf("loading server config: %w", err)
	}
	return cfg, nil
}

func (a *app) loadQuestions(ctx context.Context) ([]trivia.Question, error) {
	return store.Find[trivia.Question](ctx, a.store, store.Questions, nil, store.FindOptions{})
}

func questionMap(questions []trivia.Question) map[string]trivia.Question {
	m := make(map[string]trivia.Question, len(questions))
	for _, q := range questions {
		m[q.ID] = q
	}
	return m
}

func (a *app) loadTeams(ctx context.Context) ([]trivia.Team, error) {
	return store.Find[trivia.Team](ctx, a.store, store.Teams, nil, store.FindOptions{})
}

func (a *app) loadTeam(ctx context.Context, teamID string) (trivia.Team, error) {
	team, err := store.FindOne[trivia.Team](ctx, a.store, store.Teams, store.Filter{"_id": teamID})
	if err != nil {
		return team, err
	}
	if team.Deleted {
		return team, store.ErrNotFound
	}
	return team, nil
}

// teamGuesses returns the team's recent guess history, newest first.
func (a *app) teamGuesses(ctx context.Context, teamID string) ([]trivia.Guess, error) {
	return store.Find[trivia.Guess](ctx, a.store, store.Guesses, store.Filter{"teamId": teamID},
		store.FindOptions{SortDescBy: "_modified", Limit: guessHistoryLimit})
}
