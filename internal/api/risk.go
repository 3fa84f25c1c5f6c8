package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/esg-suite/dart-sync/internal/model"
	"github.com/esg-suite/dart-sync/internal/risk"
)

// assessRisk evaluates the partner's financial risk. Without bsns_year
// and reprt_code query parameters the period is picked automatically
// from today's date.
func (s *Server) assessRisk(w http.ResponseWriter, r *http.Request) {
	p, err := s.registry.Get(r.Context(), identityFrom(r).Owner(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	q := r.URL.Query()
	year, code := q.Get("bsns_year"), q.Get("reprt_code")

	var assessment *model.RiskAssessment
	if year == "" && code == "" {
		assessment, err = s.evaluator.AssessAuto(r.Context(), p.CorpCode, p.CompanyName)
	} else {
		assessment, err = s.evaluator.Assess(r.Context(), p.CorpCode, p.CompanyName, year, code)
	}
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, assessment)
}

// availablePeriods lists the reporting periods the partner has stored
// statement rows for.
func (s *Server) availablePeriods(w http.ResponseWriter, r *http.Request) {
	p, err := s.registry.Get(r.Context(), identityFrom(r).Owner(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	periods, err := risk.AvailablePeriods(r.Context(), s.store, p.CorpCode, time.Now())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if periods == nil {
		periods = []model.AvailablePeriod{}
	}
	writeJSON(w, http.StatusOK, periods)
}
