package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/ziadkadry99/queryflow/internal/resolver"
	"github.com/ziadkadry99/queryflow/internal/session"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsRequest is the incoming WebSocket message format.
type wsRequest struct {
	SessionID string `json:"session_id"` // empty for new conversations
	Content   string `json:"content"`
}

// wsResponse is the outgoing WebSocket message format.
type wsResponse struct {
	Type           string   `json:"type"` // "turn" or "error"
	SessionID      string   `json:"session_id"`
	StatusCode     int      `json:"status_code,omitempty"`
	AnalysisResult string   `json:"analysis_result,omitempty"`
	Question       string   `json:"question,omitempty"`
	Rewrites       []string `json:"rewrites,omitempty"`
	Error          string   `json:"error,omitempty"`
}

// handleWS runs a multi-turn conversation over one socket. Each message
// is a full resolver turn; the session store carries everything between
// messages so the client only sends text.
func handleWS(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("api: websocket upgrade: %v", err)
			return
		}
		defer conn.Close()

		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Printf("api: websocket read: %v", err)
				}
				return
			}

			var req wsRequest
			if err := json.Unmarshal(msg, &req); err != nil {
				sendWSError(conn, "", "invalid message format")
				continue
			}
			if req.Content == "" {
				sendWSError(conn, req.SessionID, "content is required")
				continue
			}

			handleWSTurn(conn, r, deps, req)
		}
	}
}

func handleWSTurn(conn *websocket.Conn, r *http.Request, deps Deps, req wsRequest) {
	ctx := r.Context()

	var sess *session.Session
	var err error
	if req.SessionID != "" {
		sess, err = deps.Sessions.Get(ctx, req.SessionID)
		if err != nil && !errors.Is(err, session.ErrNotFound) {
			sendWSError(conn, req.SessionID, "loading session: "+err.Error())
			return
		}
	}
	if sess == nil {
		sess, err = deps.Sessions.Create(ctx)
		if err != nil {
			sendWSError(conn, "", "failed to create session: "+err.Error())
			return
		}
	}

	turnReq := &resolver.TurnRequest{
		SessionID:      sess.ID,
		StatusCode:     sess.StatusCode,
		UserInput:      req.Content,
		HistoryInput:   sess.History,
		PrimaryScene:   sess.PrimaryScene,
		SecondaryScene: sess.SecondaryScene,
		Intermediate:   sess.Intermediate,
	}
	resp := deps.Engine.Resolve(ctx, turnReq)

	if err := deps.Sessions.Apply(ctx, sess, turnReq, resp); err != nil {
		sendWSError(conn, sess.ID, "persisting session: "+err.Error())
		return
	}
	if deps.Turns != nil {
		if err := deps.Turns.Log(ctx, turnReq, resp); err != nil {
			log.Printf("api: logging turn for session %s: %v", sess.ID, err)
		}
	}

	sendWSResponse(conn, wsResponse{
		Type:           "turn",
		SessionID:      sess.ID,
		StatusCode:     resp.StatusCode,
		AnalysisResult: resp.AnalysisResult,
		Question:       resp.Question,
		Rewrites:       resp.Rewrites,
		Error:          resp.Error,
	})
}

func sendWSResponse(conn *websocket.Conn, resp wsResponse) {
	if err := conn.WriteJSON(resp); err != nil {
		log.Printf("api: websocket write: %v", err)
	}
}

func sendWSError(conn *websocket.Conn, sessionID, message string) {
	sendWSResponse(conn, wsResponse{Type: "error", SessionID: sessionID, Error: message})
}
