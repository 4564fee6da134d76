// Package httpapi wires the HTTP surface described in spec §6 onto the
// compilation pipeline: parse query string -> compile -> generate SQL
// -> execute -> format. It is a thin adapter, per spec §1 — no
// decisions live here that aren't already made by query/compiler/
// sqlgen/backend; this package only turns requests into calls against
// them and errors into the JSON envelope spec §7 defines.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"tesseract/internal/backend"
	"tesseract/internal/compiler"
	"tesseract/internal/names"
	"tesseract/internal/oerrors"
	"tesseract/internal/olaplog"
	"tesseract/internal/query"
	"tesseract/internal/respfmt"
	"tesseract/internal/schema"
	"tesseract/internal/sqlgen"
)

// LogicLayer resolves short (cube-less) names to canonical ones for the
// /data, /members, /relations routes. Building the full façade is out
// of scope (spec §1's non-goals exclude the logic layer); Server only
// exposes the seam so an embedder can supply one.
type LogicLayer interface {
	Resolve(shortCube string) (cube string, ok bool)
}

// Server holds everything a request handler needs: the live schema, the
// dialect to generate for, a way to execute SQL, and a logger.
type Server struct {
	Store       *schema.Store
	Dialect     sqlgen.Type
	Backend     backend.Backend
	Logic       LogicLayer
	JWTSecret   string
	FlushSecret string
	Log         *olaplog.Logger

	onFlush func()
}

// OnFlush registers a callback invoked after a successful /flush.
func (s *Server) OnFlush(f func()) { s.onFlush = f }

// NewRouter builds the chi.Mux per spec §6's route list.
func NewRouter(s *Server) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/cubes", s.handleListCubes)
	r.Get("/cubes/{cube}", s.handleCubeMetadata)
	r.Get("/cubes/{cube}/aggregate", s.handleAggregate)
	r.Get("/cubes/{cube}/aggregate.{format}", s.handleAggregate)
	r.Get("/cubes/{cube}/members", s.handleMembers)
	r.Get("/cubes/{cube}/members.{format}", s.handleMembers)

	r.Get("/data", s.handleLogicData)
	r.Get("/data.{format}", s.handleLogicData)

	r.Group(func(r chi.Router) {
		r.Use(s.requireJWT)
		r.Post("/flush", s.handleFlush)
		r.Post("/schema/update", s.handleSchemaUpdate)
		r.Post("/schema/add", s.handleSchemaAdd)
		r.Post("/schema/delete", s.handleSchemaDelete)
		r.Post("/schema/list", s.handleSchemaList)
	})

	return r
}

func (s *Server) handleListCubes(w http.ResponseWriter, r *http.Request) {
	snap := s.Store.Snapshot()
	names := make([]string, 0, len(snap.Cubes))
	for name := range snap.Cubes {
		names = append(names, name)
	}
	writeJSON(w, http.StatusOK, names)
}

func (s *Server) handleCubeMetadata(w http.ResponseWriter, r *http.Request) {
	cube := chi.URLParam(r, "cube")
	md, ok := schema.CubeMetadataFromStore(s.Store, cube)
	if !ok {
		writeError(w, &oerrors.SchemaError{Kind: oerrors.CubeNotFound, Cube: cube})
		return
	}
	writeJSON(w, http.StatusOK, md)
}

func (s *Server) handleAggregate(w http.ResponseWriter, r *http.Request) {
	cube := chi.URLParam(r, "cube")
	format := formatFromRequest(r)

	q, err := query.ParseURLValues(r.URL.Query())
	if err != nil {
		writeError(w, err)
		return
	}

	snap := s.Store.Snapshot()
	c := compiler.NewCompiler(snap)
	ir, headers, err := c.Compile(r.Context(), cube, q)
	if err != nil {
		writeError(w, err)
		return
	}

	sql, err := sqlgen.Generate(ir, s.Dialect)
	if err != nil {
		writeError(w, &oerrors.CompileError{Msg: "sql generation failed", Cause: err})
		return
	}
	if q.Debug {
		s.Log.Info(r.Context(), "compiled query", "cube", cube, "sql", sql)
	}

	result, err := s.Backend.Query(r.Context(), sql, headers)
	if err != nil {
		writeError(w, err)
		return
	}

	s.writeResult(w, format, result)
}

func (s *Server) handleMembers(w http.ResponseWriter, r *http.Request) {
	cube := chi.URLParam(r, "cube")
	format := formatFromRequest(r)
	levelTok := r.URL.Query().Get("level")
	if levelTok == "" {
		writeError(w, &oerrors.ParseError{Kind: oerrors.ParseKindLevelName, Token: ""})
		return
	}
	level, err := names.ParseLevelName(levelTok)
	if err != nil {
		writeError(w, err)
		return
	}

	snap := s.Store.Snapshot()
	sqlText, headers, err := compiler.MembersSql(snap, cube, level)
	if err != nil {
		writeError(w, err)
		return
	}
	result, err := s.Backend.Query(r.Context(), sqlText, headers)
	if err != nil {
		writeError(w, err)
		return
	}
	s.writeResult(w, format, result)
}

// handleLogicData resolves a short cube name via LogicLayer and
// delegates to handleAggregate. With no LogicLayer supplied it answers
// 400 (ValidationError); a short name the LogicLayer cannot resolve
// answers 404.
func (s *Server) handleLogicData(w http.ResponseWriter, r *http.Request) {
	if s.Logic == nil {
		writeError(w, &oerrors.ValidationError{Msg: "logic layer not configured"})
		return
	}
	short := r.URL.Query().Get("cube")
	cube, ok := s.Logic.Resolve(short)
	if !ok {
		writeError(w, &oerrors.SchemaError{Kind: oerrors.CubeNotFound, Cube: short})
		return
	}
	rctx := chi.RouteContext(r.Context())
	rctx.URLParams.Add("cube", cube)
	s.handleAggregate(w, r)
}

func (s *Server) handleFlush(w http.ResponseWriter, r *http.Request) {
	if s.onFlush != nil {
		s.onFlush()
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "flushed"})
}

func (s *Server) handleSchemaList(w http.ResponseWriter, r *http.Request) {
	s.handleListCubes(w, r)
}

func (s *Server) handleSchemaAdd(w http.ResponseWriter, r *http.Request) {
	writeError(w, &oerrors.ValidationError{Msg: "schema/add requires a cube payload decoder supplied by the embedder"})
}

func (s *Server) handleSchemaUpdate(w http.ResponseWriter, r *http.Request) {
	writeError(w, &oerrors.ValidationError{Msg: "schema/update requires a cube payload decoder supplied by the embedder"})
}

func (s *Server) handleSchemaDelete(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("cube")
	if name == "" {
		writeError(w, &oerrors.ValidationError{Msg: "schema/delete requires ?cube="})
		return
	}
	s.Store.DeleteCube(name)
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "cube": name})
}

func (s *Server) writeResult(w http.ResponseWriter, format string, result *backend.Result) {
	f, err := respfmt.New(format)
	if err != nil {
		writeError(w, err)
		return
	}
	body, err := f.Format(result)
	if err != nil {
		writeError(w, &oerrors.BackendError{Cause: err})
		return
	}
	w.Header().Set("Content-Type", f.ContentType())
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// formatFromRequest extracts the "<format>" suffix chi bound, falling
// back to the "format" query parameter some clients prefer over the
// dotted-extension form.
func formatFromRequest(r *http.Request) string {
	if f := chi.URLParam(r, "format"); f != "" {
		return f
	}
	if f := r.URL.Query().Get("format"); f != "" {
		return f
	}
	ext := path.Ext(r.URL.Path)
	return strings.TrimPrefix(ext, ".")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps a typed pipeline error to the JSON envelope and HTTP
// status spec §7 defines. Every stage is expected to have already
// wrapped its failure in one of these types; an error reaching here
// unwrapped is treated as a backend error.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var parseErr *oerrors.ParseError
	var valErr *oerrors.ValidationError
	var schemaErr *oerrors.SchemaError
	var fmtErr *oerrors.FormatError
	switch {
	case errors.As(err, &parseErr):
		status = http.StatusBadRequest
	case errors.As(err, &valErr):
		status = http.StatusBadRequest
	case errors.As(err, &schemaErr):
		status = http.StatusNotFound
	case errors.As(err, &fmtErr):
		status = http.StatusNotFound
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
