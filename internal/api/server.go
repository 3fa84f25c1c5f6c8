// Package api exposes the partner registry and the risk evaluator over
// HTTP. Identity arrives from the gateway as headers; the server never
// authenticates on its own.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/esg-suite/dart-sync/internal/model"
	"github.com/esg-suite/dart-sync/internal/partner"
	"github.com/esg-suite/dart-sync/internal/risk"
	"github.com/esg-suite/dart-sync/internal/store"
)

// Gateway identity headers.
const (
	headerHeadquartersID = "X-HEADQUARTERS-ID"
	headerPartnerID      = "X-PARTNER-ID"
	headerAccountNumber  = "X-ACCOUNT-NUMBER"
)

type ctxKey int

const identityKey ctxKey = iota

// Identity is the caller resolved from the gateway headers. When
// PartnerID is set the caller acts in the partner scope, otherwise in
// the headquarters scope.
type Identity struct {
	HeadquartersID int64
	PartnerID      *int64
	AccountNumber  string
}

// Owner maps the identity onto the bookkeeping scope.
func (id Identity) Owner() model.Owner {
	if id.PartnerID != nil {
		return model.Owner{Kind: model.OwnerPartner, ID: *id.PartnerID}
	}
	return model.Owner{Kind: model.OwnerHeadquarters, ID: id.HeadquartersID}
}

// Server wires the HTTP surface.
type Server struct {
	registry  *partner.Registry
	evaluator *risk.Evaluator
	store     store.Store
	log       *zap.Logger
}

func NewServer(registry *partner.Registry, evaluator *risk.Evaluator, st store.Store) *Server {
	return &Server{
		registry:  registry,
		evaluator: evaluator,
		store:     st,
		log:       zap.L().With(zap.String("component", "api")),
	}
}

// Router builds the route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", headerHeadquartersID, headerPartnerID, headerAccountNumber},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.With(s.requireIdentity).Get("/api/v1/corp-codes", s.searchCorpCodes)

	r.Route("/api/v1/partners", func(r chi.Router) {
		r.Use(s.requireIdentity)
		r.Post("/", s.createPartner)
		r.Get("/", s.listPartners)
		r.Get("/check-name", s.checkName)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.getPartner)
			r.Patch("/", s.updatePartner)
			r.Delete("/", s.deletePartner)
			r.Patch("/account", s.setAccountCreated)
			r.Get("/disclosures", s.listDisclosures)
			r.Get("/risk", s.assessRisk)
			r.Get("/risk/periods", s.availablePeriods)
		})
	})

	return r
}

// requireIdentity extracts the gateway identity headers. A missing or
// malformed headquarters id or account number rejects the request.
func (s *Server) requireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hqRaw := r.Header.Get(headerHeadquartersID)
		account := r.Header.Get(headerAccountNumber)
		if hqRaw == "" || account == "" {
			writeError(w, http.StatusUnauthorized, "missing identity headers")
			return
		}
		hqID, err := strconv.ParseInt(hqRaw, 10, 64)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "malformed "+headerHeadquartersID)
			return
		}

		id := Identity{HeadquartersID: hqID, AccountNumber: account}
		if raw := r.Header.Get(headerPartnerID); raw != "" {
			pid, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "malformed "+headerPartnerID)
				return
			}
			id.PartnerID = &pid
		}

		ctx := context.WithValue(r.Context(), identityKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func identityFrom(r *http.Request) Identity {
	id, _ := r.Context().Value(identityKey).(Identity)
	return id
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// respondError maps domain sentinels onto status codes. Internal errors
// are logged with their cause chain but returned opaque.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, model.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, model.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, model.ErrExternalSource):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		s.log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
