// Package api mounts the resolver's HTTP endpoints: the one-shot
// analyze call and the websocket chat channel.
package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/queryflow/internal/resolver"
	"github.com/ziadkadry99/queryflow/internal/session"
	"github.com/ziadkadry99/queryflow/internal/turnlog"
)

// Deps bundles what the endpoints need.
type Deps struct {
	Engine   *resolver.Engine
	Sessions *session.Store
	Turns    *turnlog.Store
}

// RegisterRoutes mounts the resolver endpoints on the given router.
func RegisterRoutes(r chi.Router, deps Deps) {
	r.Route("/algorithm", func(r chi.Router) {
		r.Post("/analyze", handleAnalyze(deps))
		r.Get("/ws", handleWS(deps))
	})
	r.Route("/api/sessions", func(r chi.Router) {
		r.Get("/{id}", handleGetSession(deps))
		r.Get("/{id}/turns", handleSessionTurns(deps))
		r.Delete("/{id}", handleDeleteSession(deps))
	})
	r.Get("/api/turns", handleRecentTurns(deps))
}

// handleAnalyze resolves one turn. A missing or unknown session id
// mints a fresh session; the persisted session fills in whatever
// context the caller did not send.
func handleAnalyze(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req resolver.TurnRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
			return
		}
		if req.UserInput == "" {
			http.Error(w, "user_input is required", http.StatusBadRequest)
			return
		}

		ctx := r.Context()
		sess, err := loadOrCreateSession(deps, r, &req)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		hydrate(&req, sess)
		resp := deps.Engine.Resolve(ctx, &req)

		if err := deps.Sessions.Apply(ctx, sess, &req, resp); err != nil {
			http.Error(w, "persisting session: "+err.Error(), http.StatusInternalServerError)
			return
		}
		if deps.Turns != nil {
			if err := deps.Turns.Log(ctx, &req, resp); err != nil {
				log.Printf("api: logging turn for session %s: %v", sess.ID, err)
			}
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func loadOrCreateSession(deps Deps, r *http.Request, req *resolver.TurnRequest) (*session.Session, error) {
	ctx := r.Context()
	if req.SessionID != "" {
		sess, err := deps.Sessions.Get(ctx, req.SessionID)
		if err == nil {
			return sess, nil
		}
		if !errors.Is(err, session.ErrNotFound) {
			return nil, err
		}
	}
	sess, err := deps.Sessions.Create(ctx)
	if err != nil {
		return nil, err
	}
	req.SessionID = sess.ID
	return sess, nil
}

// hydrate fills request fields the caller left empty from the persisted
// session. Explicit caller values always win.
func hydrate(req *resolver.TurnRequest, sess *session.Session) {
	if req.StatusCode == 0 {
		req.StatusCode = sess.StatusCode
	}
	if len(req.HistoryInput) == 0 {
		req.HistoryInput = sess.History
	}
	if req.PrimaryScene == "" {
		req.PrimaryScene = sess.PrimaryScene
	}
	if req.SecondaryScene == "" {
		req.SecondaryScene = sess.SecondaryScene
	}
	if intermediateEmpty(req.Intermediate) {
		req.Intermediate = sess.Intermediate
	}
}

func intermediateEmpty(ir resolver.IntermediateResult) bool {
	return len(ir.Keywords) == 0 && ir.ThirdScene == "" && ir.Attributes == nil &&
		len(ir.Questions) == 0 && ir.AnalysisResult == ""
}

func handleGetSession(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := deps.Sessions.Get(r.Context(), chi.URLParam(r, "id"))
		if errors.Is(err, session.ErrNotFound) {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, sess)
	}
}

func handleDeleteSession(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := deps.Sessions.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleSessionTurns(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries, err := deps.Turns.BySession(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, entries)
	}
}

func handleRecentTurns(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n := 50
		if v := r.URL.Query().Get("limit"); v != "" {
			if parsed, err := strconv.Atoi(v); err == nil {
				n = parsed
			}
		}
		entries, err := deps.Turns.Recent(r.Context(), n)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, entries)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("api: encoding response: %v", err)
	}
}
