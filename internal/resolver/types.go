// Package resolver orchestrates one conversational turn: it maps the
// incoming status code and conversation context onto the transition
// table, invokes the classification and extraction pipelines, and shapes
// the reply the front door returns verbatim.
package resolver

import "github.com/ziadkadry99/queryflow/internal/schema"

// Conversation status codes. 300/301 belong to the downstream execution
// collaborator; the resolver only hands over to them.
const (
	StatusNewSession       = 100
	StatusNewTask          = 101
	StatusPrimaryPending   = 200
	StatusSecondaryPending = 201
	StatusFieldPending     = 202
	StatusConfirmation     = 203
	StatusUserRevision     = 204
	StatusThirdPending     = 205
	StatusDownstream       = 300
	StatusDownstreamDone   = 301
	StatusCasualChat       = 400
	StatusSceneMismatch    = 500
)

// IntermediateResult is the bag the caller carries forward between
// turns. The resolver is a pure function of it: no server-side state is
// consulted during a transition.
type IntermediateResult struct {
	Keywords       []string           `json:"keywords,omitempty"`
	ThirdScene     string             `json:"third_scene,omitempty"`
	Attributes     *schema.Attributes `json:"attributes,omitempty"`
	Questions      []string           `json:"questions,omitempty"`
	AnalysisResult string             `json:"analysis_result,omitempty"`
}

// TurnRequest is one inbound turn.
type TurnRequest struct {
	SessionID      string             `json:"session_id"`
	StatusCode     int                `json:"status_code"`
	UserInput      string             `json:"user_input"`
	HistoryInput   []string           `json:"history_input,omitempty"`
	PrimaryScene   string             `json:"primary_scene,omitempty"`
	SecondaryScene string             `json:"secondary_scene,omitempty"`
	Intermediate   IntermediateResult `json:"intermediate_result"`
}

// TurnResponse is the reply for one turn.
type TurnResponse struct {
	SessionID      string             `json:"session_id"`
	StatusCode     int                `json:"status_code"`
	PrimaryScene   string             `json:"primary_scene,omitempty"`
	SecondaryScene string             `json:"secondary_scene,omitempty"`
	Intermediate   IntermediateResult `json:"intermediate_result"`
	AnalysisResult string             `json:"analysis_result,omitempty"`
	Question       string             `json:"question,omitempty"`
	Rewrites       []string           `json:"rewrites,omitempty"`
	Error          string             `json:"error,omitempty"`
}
