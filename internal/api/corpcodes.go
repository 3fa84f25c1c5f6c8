package api

import (
	"net/http"
	"strconv"

	"github.com/esg-suite/dart-sync/internal/model"
)

// searchCorpCodes serves name lookups against the corp-code directory,
// backing the company picker on partner registration.
func (s *Server) searchCorpCodes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, _ = strconv.Atoi(v)
	}

	codes, err := s.store.SearchCorpCodesByName(r.Context(), q, limit)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if codes == nil {
		codes = []model.CorpCode{}
	}
	writeJSON(w, http.StatusOK, codes)
}
