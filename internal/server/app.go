package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/triviaworks/livequiz/internal/files"
	"github.com/triviaworks/livequiz/internal/rpc"
	"github.com/triviaworks/livequiz/internal/rooms"
	"github.com/triviaworks/livequiz/internal/store"
	"github.com/triviaworks/livequiz/internal/trivia"
)

// Room names. Every admin session joins adminRoom, every team session
// joins gameRoom plus its own team room.
const (
	adminRoom = "ADMIN"
	gameRoom  = "GAME"
)

func teamRoom(teamID string) string { return "TEAM_" + teamID }

// guessHistoryLimit caps how many past guesses a team receives when it
// connects. Older guesses stay in the database but are not replayed.
const guessHistoryLimit = 50

// Options carries the bootstrap values used when the config document
// does not exist yet.
type Options struct {
	AdminPassword string
	InviteCode    string
	TokenTTL      time.Duration
}

// app owns the RPC method table and everything the handlers touch.
type app struct {
	logger  *slog.Logger
	store   *store.Store
	rooms   *rooms.Router
	uploads *files.Disk
	opts    Options
	mux     *rpc.Mux

	// guessLocks serializes guess handling: one stripe per team so two
	// guesses from the same team cannot both advance it past the same
	// question, plus one stripe per bonus question so two teams cannot
	// both crown themselves its winner.
	guessLocks sync.Map

	now func() time.Time
}

func newApp(logger *slog.Logger, st *store.Store, uploads *files.Disk, opts Options) *app {
	a := &app{
		logger:  logger,
		store:   st,
		rooms:   rooms.NewRouter(),
		uploads: uploads,
		opts:    opts,
		mux:     rpc.NewMux(logger),
		now:     time.Now,
	}
	registerGameHandlers(a)
	registerAdminHandlers(a)
	return a
}

func (a *app) guessLock(key string) *sync.Mutex {
	mu, _ := a.guessLocks.LoadOrStore(key, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// init seeds the config document on first boot so upgradeToAdmin and
// createTeam have a password hash and invite code to check against.
func (a *app) init(ctx context.Context) error {
	_, err := store.FindOne[trivia.ServerConfig](ctx, a.store, store.Config, store.Filter{"_id": trivia.ConfigID})
	if err == nil {
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("loading server config: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(a.opts.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing admin password: %w", err)
	}

	cfg := trivia.ServerConfig{
		ID:                trivia.ConfigID,
		AdminPasswordHash: string(hash),
		InviteCode:        a.opts.InviteCode,
	}
	if err := a.store.InsertOne(ctx, store.Config, cfg.ID, cfg); err != nil {
		return fmt.Errorf("seeding server config: %w", err)
	}
	a.logger.Info("seeded server config", "invite_code", cfg.InviteCode)
	return nil
}

// sweep deletes admin tokens older than the configured TTL.
func (a *app) sweep(ctx context.Context) {
	cutoff := a.now().Add(-a.opts.TokenTTL).UnixMilli()
	n, err := a.store.DeleteOlderThan(ctx, store.Tokens, "createdAt", cutoff)
	if err != nil {
		a.logger.Error("token sweep failed", "error", err)
		return
	}
	if n > 0 {
		a.logger.Info("expired admin tokens removed", "count", n)
	}
}

// internal logs the real error and returns the opaque message sent to
// the client.
func (a *app) internal(op string, err error) error {
	a.logger.Error("handler failed", "method", op, "error", err)
	return errors.New("internal error")
}
