package api

import (
	"net/http"

	"github.com/reqlab/reqlab/pkg/api/types"
	"github.com/reqlab/reqlab/pkg/httputil"
	"github.com/reqlab/reqlab/pkg/request"
	"github.com/reqlab/reqlab/pkg/snippet"
)

func (s *Server) handleListTargets(w http.ResponseWriter, r *http.Request) {
	gens := snippet.List()
	infos := make([]types.TargetInfo, 0, len(gens))
	for _, g := range gens {
		infos = append(infos, types.TargetInfo{
			Target:   g.Target().String(),
			Label:    g.Label(),
			Language: g.Language(),
		})
	}
	httputil.WriteOK(w, types.NewList(infos))
}

// lookupTarget resolves the {target} path value, writing a 404 when no
// generator is registered for it.
func lookupTarget(w http.ResponseWriter, r *http.Request) (snippet.Generator, bool) {
	name := r.PathValue("target")
	g := snippet.Get(snippet.Target(name))
	if g == nil {
		httputil.WriteNotFound(w, "unknown_target", "Unknown snippet target: "+name)
		return nil, false
	}
	return g, true
}

func (s *Server) writeSnippet(w http.ResponseWriter, g snippet.Generator, req *request.Request) {
	s.metrics.CountSnippet(g.Target().String())
	httputil.WriteOK(w, types.SnippetResponse{
		Target:   g.Target().String(),
		Language: g.Language(),
		Code:     g.Generate(req),
	})
}

func (s *Server) handleGenerateSnippet(w http.ResponseWriter, r *http.Request) {
	g, ok := lookupTarget(w, r)
	if !ok {
		return
	}

	var body types.SnippetRequest
	if err := httputil.DecodeJSON(r, &body); err != nil {
		writeDecodeError(w, err)
		return
	}
	if body.Request == nil {
		httputil.WriteBadRequest(w, "invalid_request", "request is required")
		return
	}

	s.writeSnippet(w, g, body.Request)
}

func (s *Server) handleSavedRequestSnippet(w http.ResponseWriter, r *http.Request) {
	us, ok := s.userStore(w, r)
	if !ok {
		return
	}
	g, ok := lookupTarget(w, r)
	if !ok {
		return
	}

	id := r.PathValue("id")
	saved, err := us.GetRequest(r.Context(), id)
	if err != nil {
		writeStoreError(w, s.log, err, "get request", "id", id)
		return
	}

	s.writeSnippet(w, g, &saved.Request)
}
