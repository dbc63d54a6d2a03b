// Package repo persists menu definitions and audit events in SQLite.
package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ivr-attendant-service/internal/menu"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Repo wraps the service database.
type Repo struct {
	DB *sql.DB
}

func New(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

// SaveMenu validates the definition and inserts or replaces it. Submenu
// targets must resolve to existing menus or to the menu being saved, so an
// unfinished submenu graph can never reach the runtime.
func (r *Repo) SaveMenu(ctx context.Context, def *menu.Definition) error {
	if err := def.Validate(); err != nil {
		return err
	}
	if err := r.checkSubMenuTargets(ctx, def); err != nil {
		return err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var created string
	err = tx.QueryRowContext(ctx, `SELECT created_at FROM menus WHERE id=?`, def.ID).Scan(&created)
	switch {
	case err == sql.ErrNoRows:
		created = now
	case err != nil:
		return fmt.Errorf("read menu %s: %w", def.ID, err)
	}
	def.CreatedAt = created
	def.UpdatedAt = now

	if _, err := tx.ExecContext(ctx, `DELETE FROM menus WHERE id=?`, def.ID); err != nil {
		return fmt.Errorf("replace menu %s: %w", def.ID, err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO menus (id, name, greeting_text, greeting_audio_ref,
			timeout_seconds, timeout_action, timeout_target,
			invalid_action, invalid_target, max_retries, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		def.ID, def.Name, def.GreetingText, def.GreetingAudioRef,
		def.TimeoutSeconds, string(def.TimeoutAction.Action), def.TimeoutAction.Target,
		string(def.InvalidAction.Action), def.InvalidAction.Target, def.MaxRetries,
		def.CreatedAt, def.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert menu %s: %w", def.ID, err)
	}
	for i, opt := range def.Options {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO menu_options (menu_id, pos, digit, label, action, target)
			VALUES (?, ?, ?, ?, ?, ?)`,
			def.ID, i, opt.Digit, opt.Label, string(opt.Action), opt.Target)
		if err != nil {
			return fmt.Errorf("insert option %s/%s: %w", def.ID, opt.Digit, err)
		}
	}
	return tx.Commit()
}

func (r *Repo) checkSubMenuTargets(ctx context.Context, def *menu.Definition) error {
	for _, id := range def.SubMenuIDs() {
		if id == def.ID {
			continue
		}
		var one int
		err := r.DB.QueryRowContext(ctx, `SELECT 1 FROM menus WHERE id=?`, id).Scan(&one)
		if err == sql.ErrNoRows {
			return &menu.ConfigurationError{
				Code:    "unknown_submenu",
				Field:   "options",
				Message: fmt.Sprintf("subMenu target %q does not exist", id),
			}
		}
		if err != nil {
			return fmt.Errorf("check submenu %s: %w", id, err)
		}
	}
	return nil
}

// GetMenu loads one definition. The returned copy is caller-owned.
func (r *Repo) GetMenu(ctx context.Context, id string) (*menu.Definition, error) {
	def := &menu.Definition{}
	var timeoutAction, invalidAction string
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, name, greeting_text, greeting_audio_ref,
			timeout_seconds, timeout_action, timeout_target,
			invalid_action, invalid_target, max_retries, created_at, updated_at
		FROM menus WHERE id=?`, id).Scan(
		&def.ID, &def.Name, &def.GreetingText, &def.GreetingAudioRef,
		&def.TimeoutSeconds, &timeoutAction, &def.TimeoutAction.Target,
		&invalidAction, &def.InvalidAction.Target, &def.MaxRetries,
		&def.CreatedAt, &def.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read menu %s: %w", id, err)
	}
	def.TimeoutAction.Action = menu.Action(timeoutAction)
	def.InvalidAction.Action = menu.Action(invalidAction)

	rows, err := r.DB.QueryContext(ctx, `
		SELECT digit, label, action, target FROM menu_options
		WHERE menu_id=? ORDER BY pos`, id)
	if err != nil {
		return nil, fmt.Errorf("read options %s: %w", id, err)
	}
	defer rows.Close()
	for rows.Next() {
		var opt menu.Option
		var action string
		if err := rows.Scan(&opt.Digit, &opt.Label, &action, &opt.Target); err != nil {
			return nil, err
		}
		opt.Action = menu.Action(action)
		def.Options = append(def.Options, opt)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// A row that fails validation should never exist, but a stale or
	// hand-edited database must not reach the runtime as a valid menu.
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return def, nil
}

// ListMenus returns one page of definitions plus the total count.
func (r *Repo) ListMenus(ctx context.Context, page, limit int) ([]*menu.Definition, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM menus`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id FROM menus ORDER BY id LIMIT ? OFFSET ?`, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, 0, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	defs := make([]*menu.Definition, 0, len(ids))
	for _, id := range ids {
		def, err := r.GetMenu(ctx, id)
		if err != nil {
			return nil, 0, err
		}
		defs = append(defs, def)
	}
	return defs, total, nil
}

// DeleteMenu removes a definition. Deletion is refused while another menu
// still reaches the target through a subMenu action.
func (r *Repo) DeleteMenu(ctx context.Context, id string) error {
	var ref string
	err := r.DB.QueryRowContext(ctx, `
		SELECT menu_id FROM menu_options
		WHERE action='subMenu' AND target=? AND menu_id!=? LIMIT 1`, id, id).Scan(&ref)
	if err == nil {
		return &menu.ConfigurationError{
			Code:    "menu_referenced",
			Field:   "id",
			Message: fmt.Sprintf("menu %q is referenced by menu %q", id, ref),
		}
	}
	if err != sql.ErrNoRows {
		return err
	}
	err = r.DB.QueryRowContext(ctx, `
		SELECT id FROM menus
		WHERE id!=? AND (
			(timeout_action='subMenu' AND timeout_target=?) OR
			(invalid_action='subMenu' AND invalid_target=?)
		) LIMIT 1`, id, id, id).Scan(&ref)
	if err == nil {
		return &menu.ConfigurationError{
			Code:    "menu_referenced",
			Field:   "id",
			Message: fmt.Sprintf("menu %q is referenced by menu %q", id, ref),
		}
	}
	if err != sql.ErrNoRows {
		return err
	}

	res, err := r.DB.ExecContext(ctx, `DELETE FROM menus WHERE id=?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
