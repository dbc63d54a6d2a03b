package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"ivr-attendant-service/internal/models"
)

// AppendAudit persists an audit event. Assigns an id if the caller did not.
func (r *Repo) AppendAudit(ctx context.Context, ev models.AuditEvent) error {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO audit_events (id, ts, event_type, session_id, call_id,
			tenant_id, menu_id, actor_id, code, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.Timestamp, ev.EventType, ev.SessionID, ev.CallID,
		ev.TenantID, ev.MenuID, ev.ActorID, ev.Code, ev.Detail)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

// ListAuditEvents returns one page of audit events, newest first, optionally
// filtered by event type.
func (r *Repo) ListAuditEvents(ctx context.Context, eventType string, page, limit int) ([]models.AuditEvent, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 50
	}
	where := ""
	args := []any{}
	if eventType != "" {
		where = " WHERE event_type=?"
		args = append(args, eventType)
	}
	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_events`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	args = append(args, limit, (page-1)*limit)
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, ts, event_type, session_id, call_id, tenant_id, menu_id, actor_id, code, detail
		FROM audit_events`+where+` ORDER BY ts DESC, id LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var events []models.AuditEvent
	for rows.Next() {
		var ev models.AuditEvent
		if err := rows.Scan(&ev.ID, &ev.Timestamp, &ev.EventType, &ev.SessionID,
			&ev.CallID, &ev.TenantID, &ev.MenuID, &ev.ActorID, &ev.Code, &ev.Detail); err != nil {
			return nil, 0, err
		}
		events = append(events, ev)
	}
	return events, total, rows.Err()
}
