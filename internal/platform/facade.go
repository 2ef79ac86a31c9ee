package platform

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/seocho-ai/seocho/internal/model"
)

// ChatResponse is the reply for POST /platform/chat/send.
type ChatResponse struct {
	SessionID        string          `json:"session_id"`
	AssistantMessage string          `json:"assistant_message"`
	History          []Turn          `json:"history"`
	RuntimePayload   *RuntimePayload `json:"runtime_payload"`
	UIPayload        UIPayload       `json:"ui_payload"`
}

// Facade ties sessions and dispatch together for the chat surface.
type Facade struct {
	sessions   *SessionStore
	dispatcher *Dispatcher
	logger     *slog.Logger
}

// NewFacade creates the chat façade.
func NewFacade(sessions *SessionStore, dispatcher *Dispatcher, logger *slog.Logger) *Facade {
	return &Facade{sessions: sessions, dispatcher: dispatcher, logger: logger}
}

// Sessions exposes the backing session store.
func (f *Facade) Sessions() *SessionStore { return f.sessions }

// Send appends the user turn, dispatches the query, records the
// assistant turn, and shapes the UI payload.
func (f *Facade) Send(ctx context.Context, req model.ChatSendRequest) (*ChatResponse, error) {
	if req.Message == "" {
		return nil, model.Errorf(model.KindValidation, "platform: message is required")
	}
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	f.sessions.Append(sessionID, "user", req.Message, nil)

	payload, err := f.dispatcher.Run(ctx, req.Mode, req.Message, req.Databases, nil)
	if err != nil {
		return nil, err
	}

	meta := map[string]any{"mode": payload.Mode}
	if payload.RuntimeControl != nil {
		meta["runtime_control"] = payload.RuntimeControl
	}
	f.sessions.Append(sessionID, "assistant", payload.Response, meta)
	session, _ := f.sessions.Get(sessionID)

	return &ChatResponse{
		SessionID:        sessionID,
		AssistantMessage: payload.Response,
		History:          session.Turns,
		RuntimePayload:   payload,
		UIPayload:        BuildUIPayload(payload),
	}, nil
}
