package server

import (
	"context"
	"database/sql"
	"net/http"

	"pl-predictions/internal/config"
	"pl-predictions/internal/constants"
	"pl-predictions/internal/middleware"
	"pl-predictions/internal/realtime"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

const healthMessage = "OK - Premier League Predictions App is running!"

func NewRouter(predictions *PredictionServer, hub *realtime.Hub, db *sql.DB, cfg *config.Config, logger zerolog.Logger) http.Handler {
	r := mux.NewRouter()
	r.Use(middleware.RequestID(logger), middleware.Recover(logger))

	r.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte(healthMessage))
	}).Methods(http.MethodGet)

	r.HandleFunc("/healthz", func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), constants.DatabaseTimeout)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			zerolog.Ctx(req.Context()).Error().Err(err).Msg("health check failed")
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	r.HandleFunc("/ws", hub.ServeWS)

	path, handler := predictions.Handler()
	r.PathPrefix(path).Handler(handler)

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
	})
	return c.Handler(r)
}
