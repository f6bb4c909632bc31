package server

import (
	"bytes"
	"net/http"

	"github.com/matzehuels/pgnode2graph/pkg/buildinfo"
	"github.com/matzehuels/pgnode2graph/pkg/graph"
	"github.com/matzehuels/pgnode2graph/pkg/httputil"
	"github.com/matzehuels/pgnode2graph/pkg/pipeline"
)

// contentTypes maps output formats to response content types.
var contentTypes = map[string]string{
	"svg":  "image/svg+xml",
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"pdf":  "application/pdf",
	"ps":   "application/postscript",
	"json": "application/json",
	"dot":  dotContentType,
	"xdot": dotContentType,
	"gv":   dotContentType,
}

const dotContentType = "text/vnd.graphviz; charset=utf-8"

func contentType(format string) string {
	if ct, ok := contentTypes[format]; ok {
		return ct
	}
	return "application/octet-stream"
}

type health struct {
	Status string         `json:"status"`
	Build  buildinfo.Info `json:"build"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, health{Status: "ok", Build: buildinfo.Get()})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, s.counters.Snapshot())
}

func (s *Server) handleDot(w http.ResponseWriter, r *http.Request) {
	dump, opts, ok := s.readRequest(w, r)
	if !ok {
		return
	}
	dotText, _, err := s.runner.ConvertBytes(r.Context(), sourceName(r), dump, "", opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", dotContentType)
	w.Write(dotText)
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = pipeline.DefaultFormat
	}
	dump, opts, ok := s.readRequest(w, r)
	if !ok {
		return
	}
	_, img, err := s.runner.ConvertBytes(r.Context(), sourceName(r), dump, format, opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", contentType(format))
	w.Write(img)
}

func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	dump, _, ok := s.readRequest(w, r)
	if !ok {
		return
	}
	tree, err := s.runner.Parse(r.Context(), sourceName(r), bytes.NewReader(dump))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, graph.FromTree(tree))
}

// readRequest reads the dump and the serializer flags. On failure the error
// response has been written and ok is false.
func (s *Server) readRequest(w http.ResponseWriter, r *http.Request) (dump []byte, opts pipeline.Options, ok bool) {
	color, err := httputil.BoolParam(r, "color")
	if err != nil {
		s.fail(w, r, err)
		return nil, opts, false
	}
	skipEmpty, err := httputil.BoolParam(r, "skip_empty")
	if err != nil {
		s.fail(w, r, err)
		return nil, opts, false
	}
	dump, err = httputil.ReadBody(w, r, s.cfg.BodyLimit)
	if err != nil {
		s.fail(w, r, err)
		return nil, opts, false
	}
	opts = pipeline.Options{
		Color:     color,
		SkipEmpty: skipEmpty,
		Colors:    s.cfg.Colors,
		Logger:    s.logger,
	}
	return dump, opts, true
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := httputil.WriteError(w, err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "id", RequestID(r.Context()), "path", r.URL.Path, "err", err)
		return
	}
	s.logger.Debug("rejected request", "id", RequestID(r.Context()), "status", status, "err", err)
}

func sourceName(r *http.Request) string {
	return "request " + RequestID(r.Context())
}
