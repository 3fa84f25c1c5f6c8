package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/esg-suite/dart-sync/internal/model"
	"github.com/esg-suite/dart-sync/internal/partner"
	"github.com/esg-suite/dart-sync/internal/store"
)

const dateLayout = "2006-01-02"

type createPartnerRequest struct {
	CorpCode          string `json:"corp_code"`
	ContractStartDate string `json:"contract_start_date"` // YYYY-MM-DD
}

type createPartnerResponse struct {
	Partner  *model.PartnerCompany `json:"partner"`
	Restored bool                  `json:"restored"`
}

func (s *Server) createPartner(w http.ResponseWriter, r *http.Request) {
	var req createPartnerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	start := time.Now().UTC()
	if req.ContractStartDate != "" {
		parsed, err := time.Parse(dateLayout, req.ContractStartDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "contract_start_date must be YYYY-MM-DD")
			return
		}
		start = parsed
	}

	res, err := s.registry.Create(r.Context(), identityFrom(r).Owner(), req.CorpCode, start)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	status := http.StatusCreated
	if res.Restored {
		status = http.StatusOK
	}
	writeJSON(w, status, createPartnerResponse{Partner: res.Partner, Restored: res.Restored})
}

func (s *Server) listPartners(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.PartnerFilter{
		Owner:  identityFrom(r).Owner(),
		Status: model.PartnerStatus(q.Get("status")),
	}
	if v := q.Get("limit"); v != "" {
		filter.Limit, _ = strconv.Atoi(v)
	}
	if v := q.Get("offset"); v != "" {
		filter.Offset, _ = strconv.Atoi(v)
	}

	partners, err := s.registry.List(r.Context(), filter)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if partners == nil {
		partners = []model.PartnerCompany{}
	}
	writeJSON(w, http.StatusOK, partners)
}

func (s *Server) getPartner(w http.ResponseWriter, r *http.Request) {
	p, err := s.registry.Get(r.Context(), identityFrom(r).Owner(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type updatePartnerRequest struct {
	CorpCode          *string `json:"corp_code"`
	ContractStartDate *string `json:"contract_start_date"` // YYYY-MM-DD
	Status            *string `json:"status"`
}

func (s *Server) updatePartner(w http.ResponseWriter, r *http.Request) {
	var body updatePartnerRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req := partner.UpdateRequest{CorpCode: body.CorpCode}
	if body.ContractStartDate != nil {
		parsed, err := time.Parse(dateLayout, *body.ContractStartDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "contract_start_date must be YYYY-MM-DD")
			return
		}
		req.ContractStartDate = &parsed
	}
	if body.Status != nil {
		status := model.PartnerStatus(*body.Status)
		if status != model.PartnerActive && status != model.PartnerInactive {
			writeError(w, http.StatusBadRequest, "status must be ACTIVE or INACTIVE")
			return
		}
		req.Status = &status
	}

	p, err := s.registry.Update(r.Context(), identityFrom(r).Owner(), chi.URLParam(r, "id"), req)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) deletePartner(w http.ResponseWriter, r *http.Request) {
	if err := s.registry.Delete(r.Context(), identityFrom(r).Owner(), chi.URLParam(r, "id")); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) checkName(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	dup, err := s.registry.CheckNameDuplicate(r.Context(), identityFrom(r).Owner(), q.Get("name"), q.Get("exclude_id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"duplicate": dup})
}

type accountCreatedRequest struct {
	Created bool `json:"created"`
}

func (s *Server) setAccountCreated(w http.ResponseWriter, r *http.Request) {
	var req accountCreatedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	id := chi.URLParam(r, "id")
	if err := s.registry.SetAccountCreated(r.Context(), identityFrom(r).Owner(), id, req.Created); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "account_created": req.Created})
}

func (s *Server) listDisclosures(w http.ResponseWriter, r *http.Request) {
	p, err := s.registry.Get(r.Context(), identityFrom(r).Owner(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, _ = strconv.Atoi(v)
	}
	items, err := s.store.ListDisclosures(r.Context(), p.CorpCode, limit)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if items == nil {
		items = []model.Disclosure{}
	}
	writeJSON(w, http.StatusOK, items)
}
