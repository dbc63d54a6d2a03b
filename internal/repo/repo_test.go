package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"ivr-attendant-service/internal/db"
	"ivr-attendant-service/internal/menu"
	"ivr-attendant-service/internal/migrate"
	"ivr-attendant-service/internal/models"
)

func newTestRepo(t *testing.T) *Repo {
	t.Helper()
	conn, err := db.Open(db.Config{Path: ":memory:"})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return New(conn)
}

func sampleMenu(id string) *menu.Definition {
	return &menu.Definition{
		ID:           id,
		Name:         "Main menu",
		GreetingText: "Thanks for calling. Press 1 for sales, 2 for support.",
		Options: []menu.Option{
			{Digit: "1", Label: "Sales", Action: menu.ActionTransferQueue, Target: "sales"},
			{Digit: "2", Label: "Support", Action: menu.ActionDialExtension, Target: "201"},
			{Digit: "0", Action: menu.ActionGoToVoicemail, Target: "operator"},
		},
		TimeoutSeconds: 5,
		TimeoutAction:  menu.ActionRef{Action: menu.ActionRepeatMenu},
		InvalidAction:  menu.ActionRef{Action: menu.ActionRepeatMenu},
		MaxRetries:     2,
	}
}

func TestSaveAndGetMenu(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	def := sampleMenu("main")
	if err := r.SaveMenu(ctx, def); err != nil {
		t.Fatalf("SaveMenu: %v", err)
	}
	if def.CreatedAt == "" || def.UpdatedAt == "" {
		t.Fatal("expected timestamps to be set on save")
	}

	got, err := r.GetMenu(ctx, "main")
	if err != nil {
		t.Fatalf("GetMenu: %v", err)
	}
	if got.GreetingText != def.GreetingText {
		t.Errorf("greeting = %q, want %q", got.GreetingText, def.GreetingText)
	}
	if len(got.Options) != 3 {
		t.Fatalf("options = %d, want 3", len(got.Options))
	}
	if got.Options[0].Digit != "1" || got.Options[0].Action != menu.ActionTransferQueue {
		t.Errorf("first option = %+v", got.Options[0])
	}
	if got.TimeoutAction.Action != menu.ActionRepeatMenu {
		t.Errorf("timeoutAction = %+v", got.TimeoutAction)
	}
}

func TestSaveMenu_UpdatePreservesCreatedAt(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	def := sampleMenu("main")
	if err := r.SaveMenu(ctx, def); err != nil {
		t.Fatalf("SaveMenu: %v", err)
	}
	created := def.CreatedAt

	time.Sleep(10 * time.Millisecond)
	def.GreetingText = "Updated greeting."
	def.Options = def.Options[:2]
	if err := r.SaveMenu(ctx, def); err != nil {
		t.Fatalf("SaveMenu update: %v", err)
	}

	got, err := r.GetMenu(ctx, "main")
	if err != nil {
		t.Fatalf("GetMenu: %v", err)
	}
	if got.CreatedAt != created {
		t.Errorf("createdAt = %q, want %q", got.CreatedAt, created)
	}
	if len(got.Options) != 2 {
		t.Errorf("options = %d, want 2 after update", len(got.Options))
	}
}

func TestSaveMenu_Invalid(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	def := sampleMenu("main")
	def.Options = append(def.Options, menu.Option{Digit: "1", Action: menu.ActionHangup})
	err := r.SaveMenu(ctx, def)
	if !menu.IsConfigurationError(err) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	var ce *menu.ConfigurationError
	errors.As(err, &ce)
	if ce.Code != "duplicate_digit" {
		t.Errorf("code = %q, want duplicate_digit", ce.Code)
	}

	if _, err := r.GetMenu(ctx, "main"); !errors.Is(err, ErrNotFound) {
		t.Errorf("invalid menu was persisted: %v", err)
	}
}

func TestSaveMenu_UnknownSubMenuTarget(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	def := sampleMenu("main")
	def.Options = append(def.Options, menu.Option{Digit: "5", Action: menu.ActionSubMenu, Target: "hours"})
	err := r.SaveMenu(ctx, def)
	var ce *menu.ConfigurationError
	if !errors.As(err, &ce) || ce.Code != "unknown_submenu" {
		t.Fatalf("expected unknown_submenu, got %v", err)
	}

	if err := r.SaveMenu(ctx, sampleMenu("hours")); err != nil {
		t.Fatalf("SaveMenu hours: %v", err)
	}
	if err := r.SaveMenu(ctx, def); err != nil {
		t.Fatalf("SaveMenu with existing target: %v", err)
	}
}

func TestSaveMenu_SelfReferenceAllowed(t *testing.T) {
	r := newTestRepo(t)
	def := sampleMenu("loop")
	def.Options = append(def.Options, menu.Option{Digit: "9", Action: menu.ActionSubMenu, Target: "loop"})
	if err := r.SaveMenu(context.Background(), def); err != nil {
		t.Fatalf("SaveMenu: %v", err)
	}
}

func TestDeleteMenu(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	if err := r.DeleteMenu(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("delete missing = %v, want ErrNotFound", err)
	}

	if err := r.SaveMenu(ctx, sampleMenu("hours")); err != nil {
		t.Fatalf("SaveMenu hours: %v", err)
	}
	main := sampleMenu("main")
	main.Options = append(main.Options, menu.Option{Digit: "5", Action: menu.ActionSubMenu, Target: "hours"})
	if err := r.SaveMenu(ctx, main); err != nil {
		t.Fatalf("SaveMenu main: %v", err)
	}

	err := r.DeleteMenu(ctx, "hours")
	var ce *menu.ConfigurationError
	if !errors.As(err, &ce) || ce.Code != "menu_referenced" {
		t.Fatalf("expected menu_referenced, got %v", err)
	}

	if err := r.DeleteMenu(ctx, "main"); err != nil {
		t.Fatalf("DeleteMenu main: %v", err)
	}
	if err := r.DeleteMenu(ctx, "hours"); err != nil {
		t.Fatalf("DeleteMenu hours after referrer removed: %v", err)
	}
	if _, err := r.GetMenu(ctx, "main"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetMenu after delete = %v, want ErrNotFound", err)
	}
}

func TestDeleteMenu_TimeoutSlotReference(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	if err := r.SaveMenu(ctx, sampleMenu("hours")); err != nil {
		t.Fatalf("SaveMenu hours: %v", err)
	}
	main := sampleMenu("main")
	main.TimeoutAction = menu.ActionRef{Action: menu.ActionSubMenu, Target: "hours"}
	if err := r.SaveMenu(ctx, main); err != nil {
		t.Fatalf("SaveMenu main: %v", err)
	}

	err := r.DeleteMenu(ctx, "hours")
	var ce *menu.ConfigurationError
	if !errors.As(err, &ce) || ce.Code != "menu_referenced" {
		t.Fatalf("expected menu_referenced, got %v", err)
	}
}

func TestListMenus(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		if err := r.SaveMenu(ctx, sampleMenu(id)); err != nil {
			t.Fatalf("SaveMenu %s: %v", id, err)
		}
	}

	defs, total, err := r.ListMenus(ctx, 1, 2)
	if err != nil {
		t.Fatalf("ListMenus: %v", err)
	}
	if total != 3 {
		t.Errorf("total = %d, want 3", total)
	}
	if len(defs) != 2 || defs[0].ID != "a" || defs[1].ID != "b" {
		t.Errorf("page 1 = %v", ids(defs))
	}

	defs, _, err = r.ListMenus(ctx, 2, 2)
	if err != nil {
		t.Fatalf("ListMenus page 2: %v", err)
	}
	if len(defs) != 1 || defs[0].ID != "c" {
		t.Errorf("page 2 = %v", ids(defs))
	}
}

func ids(defs []*menu.Definition) []string {
	out := make([]string, len(defs))
	for i, d := range defs {
		out[i] = d.ID
	}
	return out
}

func TestAuditAppendAndList(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	events := []models.AuditEvent{
		{EventType: models.AuditConfigError, SessionID: "s1", Code: "unknown_menu", Timestamp: 100},
		{EventType: models.AuditRetryExhausted, SessionID: "s1", Timestamp: 200},
		{EventType: models.AuditConfigError, SessionID: "s2", Code: "missing_target", Timestamp: 300},
	}
	for _, ev := range events {
		if err := r.AppendAudit(ctx, ev); err != nil {
			t.Fatalf("AppendAudit: %v", err)
		}
	}

	got, total, err := r.ListAuditEvents(ctx, "", 1, 10)
	if err != nil {
		t.Fatalf("ListAuditEvents: %v", err)
	}
	if total != 3 || len(got) != 3 {
		t.Fatalf("total = %d, len = %d", total, len(got))
	}
	if got[0].Timestamp != 300 {
		t.Errorf("expected newest first, got ts %d", got[0].Timestamp)
	}
	if got[0].ID == "" {
		t.Error("expected generated id")
	}

	got, total, err = r.ListAuditEvents(ctx, models.AuditConfigError, 1, 10)
	if err != nil {
		t.Fatalf("ListAuditEvents filtered: %v", err)
	}
	if total != 2 || len(got) != 2 {
		t.Fatalf("filtered total = %d, len = %d", total, len(got))
	}
	for _, ev := range got {
		if ev.EventType != models.AuditConfigError {
			t.Errorf("unexpected event type %s", ev.EventType)
		}
	}
}

func TestMenuCache(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	if err := r.SaveMenu(ctx, sampleMenu("main")); err != nil {
		t.Fatalf("SaveMenu: %v", err)
	}
	cache, err := NewMenuCache(r, 16)
	if err != nil {
		t.Fatalf("NewMenuCache: %v", err)
	}

	first, err := cache.LoadMenu(ctx, "main")
	if err != nil {
		t.Fatalf("LoadMenu: %v", err)
	}
	// Mutating the returned copy must not leak into later loads.
	first.GreetingText = "mutated"
	second, err := cache.LoadMenu(ctx, "main")
	if err != nil {
		t.Fatalf("LoadMenu again: %v", err)
	}
	if second.GreetingText == "mutated" {
		t.Fatal("cache handed out a shared definition")
	}

	updated := sampleMenu("main")
	updated.GreetingText = "New greeting."
	if err := r.SaveMenu(ctx, updated); err != nil {
		t.Fatalf("SaveMenu update: %v", err)
	}
	// Still cached until invalidated.
	stale, _ := cache.LoadMenu(ctx, "main")
	if stale.GreetingText != second.GreetingText {
		t.Fatalf("expected cached greeting, got %q", stale.GreetingText)
	}
	cache.Invalidate("main")
	fresh, err := cache.LoadMenu(ctx, "main")
	if err != nil {
		t.Fatalf("LoadMenu after invalidate: %v", err)
	}
	if fresh.GreetingText != "New greeting." {
		t.Errorf("greeting = %q, want updated value", fresh.GreetingText)
	}

	if _, err := cache.LoadMenu(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("LoadMenu missing = %v, want ErrNotFound", err)
	}
}
