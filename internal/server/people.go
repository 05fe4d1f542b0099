package server

import (
	"bytes"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/prospector/internal/export"
	"github.com/sells-group/prospector/internal/model"
	"github.com/sells-group/prospector/internal/people"
	"github.com/sells-group/prospector/pkg/apollo"
)

// providerError maps provider failures onto HTTP responses.
func providerError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, apollo.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, "Apollo API rate limit exceeded. Please try again in a moment.")
	case errors.Is(err, apollo.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "Invalid Apollo API key. Please check your API settings.")
	default:
		writeError(w, http.StatusInternalServerError, fallback)
	}
}

func (s *Server) handlePeopleSearch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Domain string `json:"domain"`
	}
	if err := decodeJSON(w, r, &req); err != nil || strings.TrimSpace(req.Domain) == "" {
		writeError(w, http.StatusBadRequest, "Domain is required")
		return
	}
	key := s.keys.Get()
	if key == "" {
		writeError(w, http.StatusBadRequest, msgNoKey)
		return
	}

	contacts, err := s.servicesFor(key).Searcher.Search(r.Context(), req.Domain)
	if err != nil {
		zap.L().Error("server: people search", zap.String("domain", req.Domain), zap.Error(err))
		providerError(w, err, "Failed to search for people. Please try again.")
		return
	}
	if contacts == nil {
		contacts = []model.Contact{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"contacts": contacts})
}

func (s *Server) handlePeopleEnrich(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PersonID    string `json:"personId"`
		RevealEmail bool   `json:"revealEmail"`
		RevealPhone bool   `json:"revealPhone"`
	}
	if err := decodeJSON(w, r, &req); err != nil || strings.TrimSpace(req.PersonID) == "" {
		writeError(w, http.StatusBadRequest, "Person ID is required")
		return
	}
	if !req.RevealEmail && !req.RevealPhone {
		writeError(w, http.StatusBadRequest, "Must request at least email or phone")
		return
	}
	key := s.keys.Get()
	if key == "" {
		writeError(w, http.StatusBadRequest, msgNoKey)
		return
	}

	out, err := s.servicesFor(key).Revealer.Reveal(r.Context(), session(r), req.PersonID, req.RevealEmail, req.RevealPhone)
	switch {
	case errors.Is(err, people.ErrPersonIDRequired), errors.Is(err, people.ErrNothingRequested):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		zap.L().Error("server: people enrich", zap.String("person_id", req.PersonID), zap.Error(err))
		providerError(w, err, "Failed to enrich person. Please try again.")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handlePeopleExport(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Contacts []model.Contact       `json:"contacts"`
		Company  *model.EnrichedCompany `json:"company"`
	}
	if err := decodeJSON(w, r, &req); err != nil || len(req.Contacts) == 0 {
		writeError(w, http.StatusBadRequest, "No contacts provided")
		return
	}
	if req.Company == nil {
		writeError(w, http.StatusBadRequest, "Company information required")
		return
	}

	var buf bytes.Buffer
	if err := export.WriteContactsCSV(&buf, *req.Company, req.Contacts); err != nil {
		zap.L().Error("server: contacts export", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to export contacts. Please try again.")
		return
	}

	name := export.ContactsFilename(req.Company.Domain, s.now().UTC())
	writeAttachment(w, contentTypeCSV, export.Disposition(name), buf.Bytes())
}

func (s *Server) handleCredits(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int{"creditsTotal": s.ledger.Total(session(r))})
}
