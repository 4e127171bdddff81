package http

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"balancete/internal/analysis"
	"balancete/internal/cache"
	"balancete/internal/core"
	"balancete/internal/log"
)

type readyResponse struct {
	Status string      `json:"status"`
	Cache  cache.Stats `json:"cache"`
}

type ingestResponse struct {
	Entity  core.Entity      `json:"entity"`
	Summary analysis.Summary `json:"summary"`
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.repo.Ping(ctx); err != nil {
		s.logger.WarnContext(ctx, "Readiness check failed", log.FieldError, err)
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "repository unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, readyResponse{Status: "ready", Cache: s.ledgers.Stats()})
}

func (s *Server) handleListEntities(w http.ResponseWriter, r *http.Request) {
	list, err := s.repo.ListEntities(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if list == nil {
		list = []core.Entity{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreateEntity(w http.ResponseWriter, r *http.Request) {
	s.ingestUpload(w, r, "", http.StatusCreated)
}

func (s *Server) handleReingest(w http.ResponseWriter, r *http.Request) {
	s.ingestUpload(w, r, r.PathValue("id"), http.StatusOK)
}

func (s *Server) ingestUpload(w http.ResponseWriter, r *http.Request, entityID string, status int) {
	req, err := readUpload(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	req.EntityID = entityID

	entity, l, err := s.ingest.Ingest(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.ledgers.Invalidate(entity.ID)

	log.NewStructuredLogger(log.FromContext(r.Context())).LogLedgerIngested(r.Context(),
		entity.ID, entity.Name, req.FileName, len(req.Content),
		l.Receitas.SeriesCount()+l.Despesas.SeriesCount())

	writeJSON(w, status, ingestResponse{Entity: entity, Summary: analysis.Summarize(l)})
}

func (s *Server) handleDeleteEntity(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.ingest.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	s.ledgers.Invalidate(id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) fetchLedger(w http.ResponseWriter, r *http.Request) (core.Ledger, bool) {
	l, err := s.ledgers.FetchLedger(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return core.Ledger{}, false
	}
	return l, true
}

func (s *Server) handleLedger(w http.ResponseWriter, r *http.Request) {
	if l, ok := s.fetchLedger(w, r); ok {
		writeJSON(w, http.StatusOK, l)
	}
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if l, ok := s.fetchLedger(w, r); ok {
		writeJSON(w, http.StatusOK, analysis.Summarize(l))
	}
}

func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	if l, ok := s.fetchLedger(w, r); ok {
		writeJSON(w, http.StatusOK, analysis.Timeline(l))
	}
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	t, err := pathGroup(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	n, err := parseTopN(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if l, ok := s.fetchLedger(w, r); ok {
		writeJSON(w, http.StatusOK, analysis.RankTop(l.Group(t), n))
	}
}

func (s *Server) handleTable(w http.ResponseWriter, r *http.Request) {
	t, err := pathGroup(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	filter, err := parseTableFilter(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if l, ok := s.fetchLedger(w, r); ok {
		writeJSON(w, http.StatusOK, analysis.CategoryTable(l.Group(t), filter))
	}
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	t, err := pathGroup(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	l, ok := s.fetchLedger(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := analysis.WriteCSV(&buf, l.Group(t)); err != nil {
		writeError(w, r, fmt.Errorf("export %s: %w", t, err))
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", analysis.ExportFileName(t, l.Name)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	req, t, err := decodeCompareRequest(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	compared := make([]core.Ledger, 0, len(req.EntityIDs))
	for _, id := range req.EntityIDs {
		l, err := s.ledgers.FetchLedger(r.Context(), id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		compared = append(compared, l)
	}

	c, err := analysis.Compare(compared, t)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}
