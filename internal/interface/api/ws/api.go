package ws

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"aimgBot/internal/domain"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

type Config struct {
	Addr string

	// Generations backs GET /api/generations; nil disables the endpoint.
	Generations domain.GenerationLister

	Sizes    []string
	Keywords []string
	Model    string
}

func (c *Config) addr() string {
	if c == nil || c.Addr == "" {
		return ":8080"
	}
	return c.Addr
}

type apiHandlers struct {
	generations domain.GenerationLister
	info        pluginInfo
}

type pluginInfo struct {
	Model    string   `json:"model"`
	Sizes    []string `json:"sizes"`
	Keywords []string `json:"keywords"`
}

type generationsResponse struct {
	Generations []domain.GenerationRecord `json:"generations"`
}

func newAPIHandlers(cfg Config) *apiHandlers {
	return &apiHandlers{
		generations: cfg.Generations,
		info: pluginInfo{
			Model:    cfg.Model,
			Sizes:    append([]string{}, cfg.Sizes...),
			Keywords: append([]string{}, cfg.Keywords...),
		},
	}
}

func (a *apiHandlers) register(mux *http.ServeMux) {
	if a == nil || mux == nil {
		return
	}

	mux.HandleFunc("/api/plugin", a.withCORS(a.handleInfo))
	if a.generations != nil {
		mux.HandleFunc("/api/generations", a.withCORS(a.handleGenerations))
	}
}

func (a *apiHandlers) withCORS(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		setCORSHeaders(w)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next(w, r)
	}
}

func (a *apiHandlers) handleInfo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, a.info)
}

func (a *apiHandlers) handleGenerations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = min(v, maxListLimit)
	}

	list, err := a.generations.ListGenerations(r.Context(), limit)
	if err != nil {
		slog.Error("ws: listing generations", "error", err)
		writeError(w, http.StatusInternalServerError, "could not list generations")
		return
	}
	if list == nil {
		list = []domain.GenerationRecord{}
	}

	writeJSON(w, http.StatusOK, generationsResponse{Generations: list})
}

func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.Header().Set("Access-Control-Allow-Methods", "GET,OPTIONS")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
