package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"ivr-attendant-service/internal/ivr"
)

// InboundCallRequest is the telephony platform's new-call webhook payload.
type InboundCallRequest struct {
	CallID       string `json:"callId" minLength:"1"`
	TenantID     string `json:"tenantId,omitempty"`
	CallerNumber string `json:"callerNumber,omitempty"`
	MenuID       string `json:"menuId,omitempty" doc:"Entry menu; the configured root menu when empty"`
}

// DigitRequest carries one DTMF digit pressed by the caller.
type DigitRequest struct {
	Digit string `json:"digit" minLength:"1" maxLength:"1" doc:"One of 0-9, * or #"`
}

// SessionListResponse is one page of live session snapshots.
type SessionListResponse struct {
	Items []ivr.Snapshot `json:"items"`
	Total int            `json:"total"`
}

func registerCalls(api huma.API, cfg Config) {
	huma.Register(api, huma.Operation{
		OperationID:   "inbound-call",
		Method:        http.MethodPost,
		Path:          "/calls/inbound",
		Summary:       "Start IVR handling for an inbound call",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Body InboundCallRequest `json:"body"`
	}) (*struct {
		Body ivr.Snapshot `json:"body"`
	}, error) {
		menuID := input.Body.MenuID
		if menuID == "" {
			menuID = cfg.RootMenu
		}
		if menuID == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "menuId required: no root menu configured", nil)
		}
		s, err := cfg.Engine.EnterMenu(ctx, menuID, ivr.CallContext{
			CallID:       input.Body.CallID,
			TenantID:     input.Body.TenantID,
			CallerNumber: input.Body.CallerNumber,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ivr.Snapshot `json:"body"`
		}{Body: s.Snapshot()}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "call-digit",
		Method:      http.MethodPost,
		Path:        "/calls/{session_id}/digits",
		Summary:     "Deliver a DTMF digit for a session",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *struct {
		SessionID string       `path:"session_id"`
		Body      DigitRequest `json:"body"`
	}) (*struct {
		Body sessionStatus `json:"body"`
	}, error) {
		if err := cfg.Engine.OnDigit(ctx, input.SessionID, input.Body.Digit); err != nil {
			return nil, handleError(err)
		}
		return sessionStatusResponse(cfg, input.SessionID), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "call-timeout",
		Method:      http.MethodPost,
		Path:        "/calls/{session_id}/timeout",
		Summary:     "Report an input timeout from the telephony platform",
		Description: "For platforms that run their own digit-collection clock instead of relying on the service timer.",
		Errors:      []int{http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *struct {
		SessionID string `path:"session_id"`
	}) (*struct {
		Body sessionStatus `json:"body"`
	}, error) {
		if err := cfg.Engine.OnTimeout(ctx, input.SessionID); err != nil {
			return nil, handleError(err)
		}
		return sessionStatusResponse(cfg, input.SessionID), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "call-hangup",
		Method:      http.MethodPost,
		Path:        "/calls/{session_id}/hangup",
		Summary:     "Report that the caller hung up",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		SessionID string `path:"session_id"`
	}) (*struct {
		Body sessionStatus `json:"body"`
	}, error) {
		if err := cfg.Engine.Hangup(ctx, input.SessionID); err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body sessionStatus `json:"body"`
		}{Body: sessionStatus{SessionID: input.SessionID, State: ivr.StateTerminated.String()}}, nil
	})
}

// sessionStatus is the webhook acknowledgement: where the session stands
// after the event was applied. A session that terminated while handling the
// event is gone from the registry, which is itself the answer.
type sessionStatus struct {
	SessionID string `json:"sessionId"`
	State     string `json:"state"`
}

func sessionStatusResponse(cfg Config, sessionID string) *struct {
	Body sessionStatus `json:"body"`
} {
	state := ivr.StateTerminated.String()
	if snap, err := cfg.Engine.Snapshot(sessionID); err == nil {
		state = snap.State
	}
	return &struct {
		Body sessionStatus `json:"body"`
	}{Body: sessionStatus{SessionID: sessionID, State: state}}
}

func registerSessions(api huma.API, cfg Config) {
	huma.Register(api, huma.Operation{
		OperationID: "list-sessions",
		Method:      http.MethodGet,
		Path:        "/sessions",
		Summary:     "List live IVR sessions",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body SessionListResponse `json:"body"`
	}, error) {
		snaps := cfg.Engine.Snapshots()
		if snaps == nil {
			snaps = []ivr.Snapshot{}
		}
		return &struct {
			Body SessionListResponse `json:"body"`
		}{Body: SessionListResponse{Items: snaps, Total: len(snaps)}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-session",
		Method:      http.MethodGet,
		Path:        "/sessions/{session_id}",
		Summary:     "Get one live IVR session",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		SessionID string `path:"session_id"`
	}) (*struct {
		Body ivr.Snapshot `json:"body"`
	}, error) {
		snap, err := cfg.Engine.Snapshot(input.SessionID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ivr.Snapshot `json:"body"`
		}{Body: snap}, nil
	})
}
