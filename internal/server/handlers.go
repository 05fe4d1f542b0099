package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/prospector/internal/enrich"
	"github.com/sells-group/prospector/internal/export"
	"github.com/sells-group/prospector/internal/model"
	"github.com/sells-group/prospector/internal/store"
	"github.com/sells-group/prospector/pkg/apollo"
)

const (
	msgNoKey        = "Apollo API key not configured. Please set it in API Settings."
	msgNoExportData = "No enriched data available for export"

	contentTypeCSV  = "text/csv"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGetConfig(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"hasApiKey": s.keys.Configured()})
}

func (s *Server) handleSetAPIKey(w http.ResponseWriter, r *http.Request) {
	var req struct {
		APIKey string `json:"apiKey"`
	}
	if err := decodeJSON(w, r, &req); err != nil || strings.TrimSpace(req.APIKey) == "" {
		writeError(w, http.StatusBadRequest, "API key is required")
		return
	}
	s.keys.Set(req.APIKey)
	zap.L().Info("server: api key updated", zap.String("key", apollo.RedactKey(s.keys.Get())))
	writeJSON(w, http.StatusOK, map[string]bool{"success": true, "hasApiKey": s.keys.Configured()})
}

// handleTestKey checks the key against the health endpoint, then a one-row
// organization search. Only an explicit 401 counts as invalid.
func (s *Server) handleTestKey(w http.ResponseWriter, r *http.Request) {
	key := s.keys.Get()
	if key == "" {
		writeError(w, http.StatusBadRequest, "No API key configured")
		return
	}
	api := s.servicesFor(key).API

	err := api.Health(r.Context())
	if err != nil && !errors.Is(err, apollo.ErrUnauthorized) {
		zap.L().Debug("server: health check inconclusive, trying search", zap.Error(err))
		_, err = api.SearchOrganizations(r.Context(), apollo.OrganizationSearchRequest{
			Name:    "Apollo",
			Page:    1,
			PerPage: 1,
		})
	}

	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "API key is valid"})
	case errors.Is(err, apollo.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "Invalid API key")
	default:
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "API key accepted (could not fully verify)"})
	}
}

func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	var categories []string
	if raw := r.URL.Query().Get("categories"); raw != "" {
		for _, c := range strings.Split(raw, ",") {
			if c = strings.TrimSpace(c); c != "" {
				categories = append(categories, c)
			}
		}
	}

	res, err := s.scraper.Scrape(r.Context(), categories)
	if err != nil {
		zap.L().Error("server: scrape failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"error":   "Scraping failed",
			"message": err.Error(),
		})
		return
	}

	if err := s.store.SaveCandidates(r.Context(), session(r), res.Jobs); err != nil {
		zap.L().Error("server: save candidates", zap.Error(err))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"source":  res.Source,
		"count":   len(res.Jobs),
		"jobs":    res.Jobs,
	})
}

func (s *Server) handleCandidates(w http.ResponseWriter, r *http.Request) {
	cands, err := s.store.Candidates(r.Context(), session(r))
	if err != nil {
		zap.L().Error("server: load candidates", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to load candidates")
		return
	}
	if cands == nil {
		cands = []model.Candidate{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": len(cands), "jobs": cands})
}

// handleEnrich streams batch progress as server-sent events and stores the
// final results for the session.
func (s *Server) handleEnrich(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Companies []model.Candidate `json:"companies"`
	}
	if err := decodeJSON(w, r, &req); err != nil || len(req.Companies) == 0 {
		writeError(w, http.StatusBadRequest, "No companies provided")
		return
	}
	if err := model.ValidateCandidates(req.Companies); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	key := s.keys.Get()
	if key == "" {
		writeError(w, http.StatusBadRequest, msgNoKey)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ":ok\n\n") //nolint:errcheck
	flusher.Flush()

	sess := session(r)
	log := zap.L().With(zap.String("session", sess), zap.Int("companies", len(req.Companies)))
	log.Info("server: enrich batch started")

	sink := func(ev enrich.Event) {
		b, err := json.Marshal(ev)
		if err != nil {
			log.Error("server: marshal event", zap.Error(err))
			return
		}
		fmt.Fprintf(w, "data: %s\n\n", b) //nolint:errcheck
		flusher.Flush()
	}

	results, err := s.servicesFor(key).Enricher.Run(r.Context(), req.Companies, sink)
	if err != nil {
		log.Warn("server: enrich batch aborted", zap.Error(err))
	}
	if len(results) == 0 {
		return
	}

	// The client may already be gone; the batch is still worth keeping.
	saveCtx := context.WithoutCancel(r.Context())
	if _, err := s.store.SaveBatch(saveCtx, sess, store.Batch{Results: results}); err != nil {
		log.Error("server: save batch", zap.Error(err))
	}
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = "csv"
	}
	if format != "csv" && format != "xlsx" {
		writeError(w, http.StatusBadRequest, "Unsupported export format: "+format)
		return
	}

	batch, err := s.store.LatestBatch(r.Context(), session(r))
	if err != nil {
		zap.L().Error("server: load batch", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to load enriched data")
		return
	}
	if batch == nil || len(batch.Results) == 0 {
		writeError(w, http.StatusBadRequest, msgNoExportData)
		return
	}

	var buf bytes.Buffer
	contentType := contentTypeCSV
	if format == "xlsx" {
		contentType = contentTypeXLSX
		err = export.WriteCompaniesXLSX(&buf, batch.Results)
	} else {
		err = export.WriteCompaniesCSV(&buf, batch.Results)
	}
	if err != nil {
		zap.L().Error("server: export", zap.String("format", format), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to export data")
		return
	}

	name := export.CompaniesFilename(format, s.now().UTC())
	writeAttachment(w, contentType, export.Disposition(name), buf.Bytes())
}
