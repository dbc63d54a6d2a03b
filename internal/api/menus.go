package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"ivr-attendant-service/internal/menu"
	"ivr-attendant-service/internal/models"
)

// MenuListResponse is one page of menu definitions.
type MenuListResponse struct {
	Items []*menu.Definition `json:"items"`
	PageMeta
}

// ValidateResponse reports the outcome of a dry-run validation.
type ValidateResponse struct {
	Valid bool   `json:"valid"`
	Code  string `json:"code,omitempty"`
	Field string `json:"field,omitempty"`
	Error string `json:"error,omitempty"`
}

func registerMenus(api huma.API, cfg Config) {
	huma.Register(api, huma.Operation{
		OperationID:   "save-menu",
		Method:        http.MethodPut,
		Path:          "/menus/{menu_id}",
		Summary:       "Create or replace a menu",
		DefaultStatus: http.StatusOK,
		Errors:        []int{http.StatusBadRequest, http.StatusUnprocessableEntity},
	}, func(ctx context.Context, input *struct {
		MenuID string          `path:"menu_id"`
		Body   menu.Definition `json:"body"`
	}) (*struct {
		Body menu.Definition `json:"body"`
	}, error) {
		def := input.Body
		if def.ID == "" {
			def.ID = input.MenuID
		}
		if def.ID != input.MenuID {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "menu id in body does not match path", nil)
		}
		if err := cfg.Repo.SaveMenu(ctx, &def); err != nil {
			return nil, handleError(err)
		}
		cfg.Cache.Invalidate(def.ID)
		auditMenuChange(ctx, cfg, models.AuditMenuSaved, def.ID)
		return &struct {
			Body menu.Definition `json:"body"`
		}{Body: def}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-menu",
		Method:      http.MethodGet,
		Path:        "/menus/{menu_id}",
		Summary:     "Get a menu",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		MenuID string `path:"menu_id"`
	}) (*struct {
		Body menu.Definition `json:"body"`
	}, error) {
		def, err := cfg.Repo.GetMenu(ctx, input.MenuID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body menu.Definition `json:"body"`
		}{Body: *def}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-menus",
		Method:      http.MethodGet,
		Path:        "/menus",
		Summary:     "List menus",
	}, func(ctx context.Context, input *struct {
		Page  int `query:"page" default:"1" minimum:"1"`
		Limit int `query:"limit" default:"20" minimum:"1" maximum:"100"`
	}) (*struct {
		Body MenuListResponse `json:"body"`
	}, error) {
		defs, total, err := cfg.Repo.ListMenus(ctx, input.Page, input.Limit)
		if err != nil {
			return nil, handleError(err)
		}
		if defs == nil {
			defs = []*menu.Definition{}
		}
		return &struct {
			Body MenuListResponse `json:"body"`
		}{Body: MenuListResponse{
			Items:  defs,
			PageMeta: newPage(input.Page, input.Limit, total),
		}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-menu",
		Method:        http.MethodDelete,
		Path:          "/menus/{menu_id}",
		Summary:       "Delete a menu",
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusNotFound, http.StatusUnprocessableEntity},
	}, func(ctx context.Context, input *struct {
		MenuID string `path:"menu_id"`
	}) (*struct{}, error) {
		if err := cfg.Repo.DeleteMenu(ctx, input.MenuID); err != nil {
			return nil, handleError(err)
		}
		cfg.Cache.Invalidate(input.MenuID)
		auditMenuChange(ctx, cfg, models.AuditMenuDeleted, input.MenuID)
		return nil, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "validate-menu",
		Method:      http.MethodPost,
		Path:        "/menus/validate",
		Summary:     "Validate a menu without saving it",
	}, func(ctx context.Context, input *struct {
		Body menu.Definition `json:"body"`
	}) (*struct {
		Body ValidateResponse `json:"body"`
	}, error) {
		resp := ValidateResponse{Valid: true}
		if err := input.Body.Validate(); err != nil {
			resp.Valid = false
			resp.Error = err.Error()
			var ce *menu.ConfigurationError
			if errors.As(err, &ce) {
				resp.Code = ce.Code
				resp.Field = ce.Field
			}
		}
		return &struct {
			Body ValidateResponse `json:"body"`
		}{Body: resp}, nil
	})
}

func auditMenuChange(ctx context.Context, cfg Config, eventType, menuID string) {
	ev := models.AuditEvent{
		EventType: eventType,
		MenuID:    menuID,
		ActorID:   actorFromContext(ctx),
		Timestamp: time.Now().UnixMilli(),
	}
	if err := cfg.Repo.AppendAudit(ctx, ev); err != nil {
		cfg.Logger.Error().Str("eventType", eventType).Str("menuId", menuID).Err(err).
			Msg("Failed to append audit event")
	}
}
