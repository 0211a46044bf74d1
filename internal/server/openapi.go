package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/derk-ster/StudyHatch-sub000/internal/handler/health"
	"github.com/derk-ster/StudyHatch-sub000/internal/protocol"
)

// The wire frames carry a free-form payload; these shapes describe each
// variant for the generated document only.

type inboundMessage struct {
	Type    string         `json:"type" required:"true" enum:"create_session,join_session,start_game,pause_game,resume_game,end_game,submit_answer,word_heist_choice,word_heist_steal,request_state"`
	Payload map[string]any `json:"payload" required:"true"`
}

type stateReply struct {
	Type    string               `json:"type" enum:"session_state"`
	Payload protocol.SessionView `json:"payload"`
}

type errorReply struct {
	Type    string                `json:"type" enum:"error"`
	Payload protocol.ErrorPayload `json:"payload"`
}

type codeQuery struct {
	Code string `query:"code" required:"true" description:"Six character join code."`
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "StudyHatch Live API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Live quiz sessions over WebSocket push or stateless HTTP.")

	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Reports whether the session store is reachable.")
	getHealthz.AddRespStructure(health.Report{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(health.Report{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	getGames, _ := r.NewOperationContext(http.MethodGet, "/games")
	getGames.SetSummary("Push transport")
	getGames.SetDescription("Upgrades to a WebSocket. Clients send inbound envelopes as text frames; " +
		"every change to a joined session is pushed as a session_state frame. Not served in serverless mode.")
	getGames.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusSwitchingProtocols),
		openapi.WithContentType("text/plain"))
	_ = r.AddOperation(getGames)

	postGame, _ := r.NewOperationContext(http.MethodPost, "/api/game")
	postGame.SetSummary("Send a message")
	postGame.SetDescription("Applies one inbound message and replies with session_state. create_session " +
		"and join_session reply with session_joined instead, whose payload wraps the session with the " +
		"caller's playerId and, for the host, the hostKey. Round deadlines that passed since the last " +
		"request are applied first.")
	postGame.AddReqStructure(inboundMessage{})
	postGame.AddRespStructure(stateReply{}, openapi.WithHTTPStatus(http.StatusOK))
	postGame.AddRespStructure(errorReply{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postGame.AddRespStructure(errorReply{}, openapi.WithHTTPStatus(http.StatusNotFound))
	postGame.AddRespStructure(errorReply{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(postGame)

	getGame, _ := r.NewOperationContext(http.MethodGet, "/api/game")
	getGame.SetSummary("Poll session state")
	getGame.AddReqStructure(codeQuery{})
	getGame.AddRespStructure(stateReply{}, openapi.WithHTTPStatus(http.StatusOK))
	getGame.AddRespStructure(errorReply{}, openapi.WithHTTPStatus(http.StatusNotFound))
	getGame.AddRespStructure(errorReply{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getGame)

	getQR, _ := r.NewOperationContext(http.MethodGet, "/api/game/qr")
	getQR.SetSummary("Join QR code")
	getQR.SetDescription("PNG QR code linking to the join page for a live session.")
	getQR.AddReqStructure(codeQuery{})
	getQR.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK), openapi.WithContentType("image/png"))
	getQR.AddRespStructure(errorReply{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getQR)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
