package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"balancete/internal/analysis"
	"balancete/internal/core"
	"balancete/internal/ingest"
	"balancete/internal/services"
)

const (
	maxJSONBody = 1 << 20
	// multipart framing and the text fields on top of the file itself
	multipartOverhead = 1 << 20
)

var (
	errBadRequest  = errors.New("bad request")
	errMissingFile = errors.New("missing file field")
)

// pathGroup parses the {group} path value.
func pathGroup(r *http.Request) (core.GroupType, error) {
	t, err := core.ParseGroupType(r.PathValue("group"))
	if err != nil {
		return "", fmt.Errorf("%w: %w", errBadRequest, err)
	}
	return t, nil
}

// parseTopN reads ?n=, defaulting to the dashboard's top-10 list.
func parseTopN(r *http.Request) (int, error) {
	v := strings.TrimSpace(r.URL.Query().Get("n"))
	if v == "" {
		return analysis.DefaultTopCategories, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: invalid n %q", errBadRequest, v)
	}
	return n, nil
}

func parseTableFilter(r *http.Request) (analysis.TableFilter, error) {
	q := r.URL.Query()
	kind, ok := analysis.ParseTableFilterKind(q.Get("filter"))
	if !ok {
		return analysis.TableFilter{}, fmt.Errorf("%w: invalid filter %q", errBadRequest, q.Get("filter"))
	}
	return analysis.TableFilter{Kind: kind, Search: sanitizeInput(q.Get("q"))}, nil
}

// readUpload reads the multipart "file" field and the optional entity fields
// (nome, empresa, periodo) into an ingestion request.
func readUpload(w http.ResponseWriter, r *http.Request) (services.IngestRequest, error) {
	r.Body = http.MaxBytesReader(w, r.Body, ingest.MaxUploadBytes+multipartOverhead)
	if err := r.ParseMultipartForm(ingest.MaxUploadBytes); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return services.IngestRequest{}, ingest.ErrFileTooLarge
		}
		return services.IngestRequest{}, fmt.Errorf("%w: %w", errBadRequest, err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return services.IngestRequest{}, fmt.Errorf("%w: %w", errBadRequest, errMissingFile)
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, ingest.MaxUploadBytes+1))
	if err != nil {
		return services.IngestRequest{}, fmt.Errorf("read upload: %w", err)
	}
	if len(content) > ingest.MaxUploadBytes {
		return services.IngestRequest{}, ingest.ErrFileTooLarge
	}

	return services.IngestRequest{
		Name:     sanitizeInput(r.FormValue("nome")),
		Company:  sanitizeInput(r.FormValue("empresa")),
		Period:   sanitizeInput(r.FormValue("periodo")),
		FileName: header.Filename,
		Content:  content,
	}, nil
}

type compareRequest struct {
	EntityIDs []string `json:"entity_ids"`
	Group     string   `json:"group"`
}

// decodeCompareRequest checks the arity before any ledger is fetched.
func decodeCompareRequest(w http.ResponseWriter, r *http.Request) (compareRequest, core.GroupType, error) {
	var req compareRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return req, "", fmt.Errorf("%w: invalid JSON body: %w", errBadRequest, err)
	}

	group := req.Group
	if strings.TrimSpace(group) == "" {
		group = string(core.Receitas)
	}
	t, err := core.ParseGroupType(group)
	if err != nil {
		return req, "", fmt.Errorf("%w: %w", errBadRequest, err)
	}

	switch {
	case len(req.EntityIDs) < analysis.MinCompared:
		return req, "", analysis.ErrInsufficientLedgers
	case len(req.EntityIDs) > analysis.MaxCompared:
		return req, "", analysis.ErrTooManyLedgers
	}
	for i, id := range req.EntityIDs {
		req.EntityIDs[i] = strings.TrimSpace(id)
		if req.EntityIDs[i] == "" {
			return req, "", fmt.Errorf("%w: empty entity id", errBadRequest)
		}
	}
	return req, t, nil
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
