package server

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"
)

func addRoutes(r chi.Router, logger *slog.Logger, db *sql.DB, a *app, filesDir string) {
	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("LiveQuiz API", "/openapi.json", "/docs"))
	r.Get("/healthz", handleHealth(logger, db))

	// Everything stateful happens over the websocket RPC channel.
	r.Get("/ws", handleWS(a))

	// Uploaded question assets.
	r.Handle("/files/*", http.StripPrefix("/files/", http.FileServer(http.Dir(filesDir))))
}
