package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/daialabs/daia/internal/handler/admin"
	"github.com/daialabs/daia/internal/history"
	"github.com/daialabs/daia/internal/settings"
	"github.com/daialabs/daia/internal/window"
	"github.com/daialabs/daia/pkg/utils"
)

// NewRouter wires the read-only admin/status API.
func NewRouter(st *settings.Store, hist *history.Store, win *window.Builder, log zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	adminHandler := admin.New(st, hist, win, log)
	r.Route("/api", adminHandler.RegisterRoutes)

	return r
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
