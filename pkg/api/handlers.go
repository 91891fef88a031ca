package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/kintree/pkg/editor"
	"github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/family"
	"github.com/matzehuels/kintree/pkg/session"
	"github.com/matzehuels/kintree/pkg/treeio"
)

type ctxKey struct{}

func (s *Server) withEditor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		e, err := s.trees.Get(r.Context(), chi.URLParam(r, "tree"))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, e)))
	})
}

func editorFrom(r *http.Request) *editor.Editor {
	return r.Context().Value(ctxKey{}).(*editor.Editor)
}

// respond writes the refreshed view, or the error.
func (s *Server) respond(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, editorFrom(r).View())
}

func (s *Server) listTrees(w http.ResponseWriter, r *http.Request) {
	ids, err := s.trees.Trees(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"trees": ids})
}

func (s *Server) getView(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r, nil)
}

func (s *Server) export(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("format")
	if name == "" {
		name = string(treeio.FormatJSON)
	}
	format, err := treeio.ParseFormat(name)
	if err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "export"))
		return
	}
	e := editorFrom(r)
	contentTypes := map[treeio.Format]string{
		treeio.FormatJSON: "application/json",
		treeio.FormatYAML: "application/yaml",
		treeio.FormatDOT:  "text/vnd.graphviz",
		treeio.FormatSVG:  "image/svg+xml",
	}
	w.Header().Set("Content-Type", contentTypes[format])
	if err := treeio.Write(r.Context(), w, treeio.FromGraph(e.Graph()), format, e.LayoutOptions()); err != nil {
		s.logger.Error("export failed", "tree", e.TreeID(), "format", format, "error", err)
	}
}

func (s *Server) addPerson(w http.ResponseWriter, r *http.Request) {
	var in PersonInput
	if err := decode(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	f, err := in.Fields()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	e := editorFrom(r)
	id, err := e.AddPerson(r.Context(), f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, createdResponse{ID: id, View: e.View()})
}

func (s *Server) getPerson(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, ok := editorFrom(r).Person(id)
	if !ok {
		s.writeError(w, r, errors.New(errors.ErrCodePersonNotFound, "person %q not found", id))
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) updatePerson(w http.ResponseWriter, r *http.Request) {
	var in PersonInput
	if err := decode(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	f, err := in.Fields()
	if err == nil {
		err = editorFrom(r).UpdatePerson(r.Context(), chi.URLParam(r, "id"), f)
	}
	s.respond(w, r, err)
}

func (s *Server) deletePerson(w http.ResponseWriter, r *http.Request) {
	e := editorFrom(r)
	err := e.DeletePerson(r.Context(), chi.URLParam(r, "id"))
	if err == nil {
		s.trees.SaveSession(r.Context(), e)
	}
	s.respond(w, r, err)
}

func (s *Server) quickAdd(w http.ResponseWriter, r *http.Request) {
	var req quickAddRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	rel, err := editor.ParseRelation(req.Relation)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	e := editorFrom(r)
	id, err := e.QuickAdd(r.Context(), chi.URLParam(r, "id"), rel)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.trees.SaveSession(r.Context(), e)
	writeJSON(w, http.StatusCreated, createdResponse{ID: id, View: e.View()})
}

func (s *Server) moveNode(w http.ResponseWriter, r *http.Request) {
	var pos family.Position
	if err := decode(r, &pos); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.respond(w, r, editorFrom(r).MoveNode(chi.URLParam(r, "id"), pos))
}

func (s *Server) connect(w http.ResponseWriter, r *http.Request) {
	var req connectRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	kind, err := family.ParseKind(req.Kind)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	e := editorFrom(r)
	id, err := e.Connect(r.Context(), req.PersonA, req.PersonB, kind)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, createdResponse{ID: id, View: e.View()})
}

func (s *Server) disconnect(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r, editorFrom(r).Disconnect(r.Context(), chi.URLParam(r, "id")))
}

func (s *Server) relayout(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r, editorFrom(r).Relayout(r.Context()))
}

func (s *Server) savePositions(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r, editorFrom(r).SavePositions(r.Context()))
}

func (s *Server) setMode(w http.ResponseWriter, r *http.Request) {
	var req modeRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	mode := session.Mode(req.Mode)
	if mode != session.ModeLocked && mode != session.ModeUnlocked {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "mode must be %q or %q", session.ModeLocked, session.ModeUnlocked))
		return
	}
	e := editorFrom(r)
	e.SetMode(mode)
	s.trees.SaveSession(r.Context(), e)
	s.respond(w, r, nil)
}

func (s *Server) toggleMode(w http.ResponseWriter, r *http.Request) {
	e := editorFrom(r)
	e.ToggleMode()
	s.trees.SaveSession(r.Context(), e)
	s.respond(w, r, nil)
}

func (s *Server) selectNode(w http.ResponseWriter, r *http.Request) {
	var req selectionRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	e := editorFrom(r)
	e.SelectNode(req.ID)
	s.trees.SaveSession(r.Context(), e)
	s.respond(w, r, nil)
}
