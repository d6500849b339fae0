package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/depchase/depchase/pkg/chain"
	"github.com/depchase/depchase/pkg/deps"
	"github.com/depchase/depchase/pkg/errors"
	"github.com/depchase/depchase/pkg/locate"
	"github.com/depchase/depchase/pkg/source"
)

type analyzeRequest struct {
	Manifest   string `json:"manifest,omitempty"`
	Dialect    string `json:"dialect,omitempty"`
	Repository string `json:"repository,omitempty"`
}

type traceRequest struct {
	Repository string `json:"repository"`
	Symbol     string `json:"symbol"`
	TopN       int    `json:"top_n,omitempty"`
}

type traceResponse struct {
	Repository string            `json:"repository"`
	Symbol     string            `json:"symbol"`
	Locations  []locate.Location `json:"locations"`
}

type chainRequest struct {
	Repository string `json:"repository"`
	Symbol     string `json:"symbol"`
	MaxDepth   *int   `json:"max_depth,omitempty"`
	Format     string `json:"format,omitempty"` // "json" (default) or "dot"
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.New(errors.ErrCodeInvalidInput, "invalid request body"))
		return
	}

	if req.Repository != "" {
		repo, err := source.ParseRepo(req.Repository)
		if err != nil {
			writeError(w, errors.Wrap(errors.ErrCodeInvalidRepository, err, "invalid repository"))
			return
		}
		analysis, err := s.engine.AnalyzeRepository(r.Context(), repo)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, analysis)
		return
	}

	if req.Manifest == "" {
		writeError(w, errors.New(errors.ErrCodeInvalidInput, "either manifest or repository is required"))
		return
	}
	dialect, err := deps.ParseDialect(req.Dialect)
	if err != nil {
		writeError(w, err)
		return
	}
	analysis, err := s.engine.AnalyzeDependencies(r.Context(), req.Manifest, dialect)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

func (s *Server) handleTrace(w http.ResponseWriter, r *http.Request) {
	var req traceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.New(errors.ErrCodeInvalidInput, "invalid request body"))
		return
	}
	repo, ref, err := parseTarget(req.Repository, req.Symbol)
	if err != nil {
		writeError(w, err)
		return
	}

	locs, err := s.engine.TraceSymbolN(r.Context(), repo, ref, req.TopN)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, traceResponse{
		Repository: repo.String(),
		Symbol:     ref.String(),
		Locations:  locs,
	})
}

func (s *Server) handleChain(w http.ResponseWriter, r *http.Request) {
	var req chainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.New(errors.ErrCodeInvalidInput, "invalid request body"))
		return
	}
	repo, ref, err := parseTarget(req.Repository, req.Symbol)
	if err != nil {
		writeError(w, err)
		return
	}
	maxDepth := chain.DefaultMaxDepth
	if req.MaxDepth != nil {
		maxDepth = *req.MaxDepth
	}
	if maxDepth < 0 || maxDepth > 10 {
		writeError(w, errors.New(errors.ErrCodeInvalidInput, "max_depth must be between 0 and 10"))
		return
	}

	result, err := s.engine.BuildDependencyChain(r.Context(), repo, ref, maxDepth)
	if err != nil {
		writeError(w, err)
		return
	}

	if req.Format == "dot" {
		w.Header().Set("Content-Type", "text/vnd.graphviz")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(chain.ToDOT(result)))
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleFile(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	repo, err := source.ParseRepo(q.Get("repository"))
	if err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInvalidRepository, err, "invalid repository"))
		return
	}
	path := q.Get("path")
	if path == "" {
		writeError(w, errors.New(errors.ErrCodeInvalidPath, "path is required"))
		return
	}

	var window *source.LineRange
	start, _ := strconv.Atoi(q.Get("start"))
	end, _ := strconv.Atoi(q.Get("end"))
	if start > 0 && end >= start {
		window = &source.LineRange{Start: start, End: end}
	}

	content, err := s.host.FileContent(r.Context(), repo, path, window)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(content))
}

func (s *Server) handleRepo(w http.ResponseWriter, r *http.Request) {
	repo, err := source.ParseRepo(r.URL.Query().Get("repository"))
	if err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInvalidRepository, err, "invalid repository"))
		return
	}

	info, err := s.host.RepoInfo(r.Context(), repo)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func parseTarget(repository, symbol string) (source.Repo, deps.SymbolRef, error) {
	repo, err := source.ParseRepo(repository)
	if err != nil {
		return source.Repo{}, deps.SymbolRef{}, errors.Wrap(errors.ErrCodeInvalidRepository, err, "invalid repository")
	}
	ref, err := deps.ParseSymbol(symbol)
	if err != nil {
		return source.Repo{}, deps.SymbolRef{}, err
	}
	return repo, ref, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	writeJSON(w, statusFor(code), errorEnvelope{Error: errorBody{
		Code:    string(code),
		Message: errors.UserMessage(err),
	}})
}

func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidDialect, errors.ErrCodeInvalidManifest,
		errors.ErrCodeInvalidSymbol, errors.ErrCodeInvalidRepository, errors.ErrCodeInvalidPath:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeManifestNotFound, errors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case errors.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case errors.ErrCodeForbidden:
		return http.StatusForbidden
	case errors.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case errors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case errors.ErrCodeNetwork:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
