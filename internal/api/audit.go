package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"ivr-attendant-service/internal/models"
)

// AuditListResponse is one page of audit events, newest first.
type AuditListResponse struct {
	Items []models.AuditEvent `json:"items"`
	PageMeta
}

func registerAuditEvents(api huma.API, cfg Config) {
	huma.Register(api, huma.Operation{
		OperationID: "list-audit-events",
		Method:      http.MethodGet,
		Path:        "/audit-events",
		Summary:     "List audit events",
	}, func(ctx context.Context, input *struct {
		EventType string `query:"eventType"`
		Page      int    `query:"page" default:"1" minimum:"1"`
		Limit     int    `query:"limit" default:"50" minimum:"1" maximum:"200"`
	}) (*struct {
		Body AuditListResponse `json:"body"`
	}, error) {
		events, total, err := cfg.Repo.ListAuditEvents(ctx, input.EventType, input.Page, input.Limit)
		if err != nil {
			return nil, handleError(err)
		}
		if events == nil {
			events = []models.AuditEvent{}
		}
		return &struct {
			Body AuditListResponse `json:"body"`
		}{Body: AuditListResponse{
			Items:    events,
			PageMeta: newPage(input.Page, input.Limit, total),
		}}, nil
	})
}
