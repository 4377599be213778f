package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hyperjump/tansaku/internal/query"
	"github.com/hyperjump/tansaku/internal/search"
	"go.uber.org/zap"
)

const errQueryRequired = "Query param q is required"

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("q")
	if raw == "" {
		s.respondError(w, http.StatusBadRequest, errQueryRequired)
		return
	}
	q, err := search.ProcessQuery(raw)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, errQueryRequired)
		return
	}
	s.logger.Debug("search request", zap.String("query", q))

	result, err := s.engine.Search(r.Context(), q)
	if err != nil {
		if errors.Is(err, query.ErrEmpty) {
			s.respondError(w, http.StatusBadRequest, errQueryRequired)
			return
		}
		s.logger.Error("search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
