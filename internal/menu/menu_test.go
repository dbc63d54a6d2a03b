package menu

import (
	"encoding/json"
	"errors"
	"testing"
)

func validDefinition() *Definition {
	return &Definition{
		ID:           "main",
		Name:         "Main menu",
		GreetingText: "Thank you for calling. Press 1 for sales.",
		Options: []Option{
			{Digit: "1", Label: "Sales", Action: ActionTransferQueue, Target: "sales"},
			{Digit: "2", Label: "Support", Action: ActionDialExtension, Target: "101"},
			{Digit: "0", Label: "Operator", Action: ActionDialExtension, Target: "100"},
		},
		TimeoutSeconds: 5,
		TimeoutAction:  ActionRef{Action: ActionRepeatMenu},
		InvalidAction:  ActionRef{Action: ActionRepeatMenu},
		MaxRetries:     2,
	}
}

func TestValidate_OK(t *testing.T) {
	if err := validDefinition().Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Definition)
		code   string
	}{
		{
			"missing id",
			func(d *Definition) { d.ID = "" },
			"missing_id",
		},
		{
			"no greeting",
			func(d *Definition) { d.GreetingText = "" },
			"missing_greeting",
		},
		{
			"both greetings",
			func(d *Definition) { d.GreetingAudioRef = "prompts/main.wav" },
			"ambiguous_greeting",
		},
		{
			"duplicate digit",
			func(d *Definition) {
				d.Options = append(d.Options, Option{Digit: "1", Action: ActionHangup})
			},
			"duplicate_digit",
		},
		{
			"multi-char digit",
			func(d *Definition) { d.Options[0].Digit = "12" },
			"invalid_digit",
		},
		{
			"digit outside DTMF set",
			func(d *Definition) { d.Options[0].Digit = "a" },
			"invalid_digit",
		},
		{
			"timeout too low",
			func(d *Definition) { d.TimeoutSeconds = 0 },
			"timeout_out_of_range",
		},
		{
			"timeout too high",
			func(d *Definition) { d.TimeoutSeconds = 61 },
			"timeout_out_of_range",
		},
		{
			"negative max retries",
			func(d *Definition) { d.MaxRetries = -1 },
			"negative_max_retries",
		},
		{
			"option missing target",
			func(d *Definition) { d.Options[0].Target = "" },
			"missing_target",
		},
		{
			"target on hangup",
			func(d *Definition) {
				d.Options[0] = Option{Digit: "1", Action: ActionHangup, Target: "101"}
			},
			"unexpected_target",
		},
		{
			"unknown action",
			func(d *Definition) { d.Options[0].Action = "teleport" },
			"unknown_action",
		},
		{
			"timeout action missing target",
			func(d *Definition) { d.TimeoutAction = ActionRef{Action: ActionSubMenu} },
			"missing_target",
		},
		{
			"invalid action unknown",
			func(d *Definition) { d.InvalidAction = ActionRef{Action: "nope"} },
			"unknown_action",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDefinition()
			tt.mutate(d)
			err := d.Validate()
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			var ce *ConfigurationError
			if !errors.As(err, &ce) {
				t.Fatalf("expected ConfigurationError, got %T: %v", err, err)
			}
			if ce.Code != tt.code {
				t.Errorf("expected code %q, got %q (%v)", tt.code, ce.Code, err)
			}
		})
	}
}

func TestAction_RequiresTarget(t *testing.T) {
	tests := []struct {
		action   Action
		requires bool
	}{
		{ActionPlayGreeting, true},
		{ActionDialExtension, true},
		{ActionTransferQueue, true},
		{ActionGoToVoicemail, true},
		{ActionTransferExternal, true},
		{ActionAIReceptionist, true},
		{ActionSubMenu, true},
		{ActionRepeatMenu, false},
		{ActionHangup, false},
	}
	for _, tt := range tests {
		if got := tt.action.RequiresTarget(); got != tt.requires {
			t.Errorf("%s.RequiresTarget() = %v, want %v", tt.action, got, tt.requires)
		}
	}
}

func TestAction_Terminal(t *testing.T) {
	terminal := []Action{
		ActionDialExtension, ActionTransferQueue, ActionGoToVoicemail,
		ActionTransferExternal, ActionAIReceptionist, ActionHangup,
	}
	nonTerminal := []Action{ActionPlayGreeting, ActionRepeatMenu, ActionSubMenu}

	for _, a := range terminal {
		if !a.Terminal() {
			t.Errorf("%s should be terminal", a)
		}
	}
	for _, a := range nonTerminal {
		if a.Terminal() {
			t.Errorf("%s should not be terminal", a)
		}
	}
}

func TestValidDigit(t *testing.T) {
	for _, d := range []string{"0", "5", "9", "*", "#"} {
		if !ValidDigit(d) {
			t.Errorf("expected %q to be valid", d)
		}
	}
	for _, d := range []string{"", "10", "a", " ", "A", "**"} {
		if ValidDigit(d) {
			t.Errorf("expected %q to be invalid", d)
		}
	}
}

func TestOptionFor(t *testing.T) {
	d := validDefinition()

	opt, ok := d.OptionFor("2")
	if !ok {
		t.Fatal("expected option for digit 2")
	}
	if opt.Action != ActionDialExtension || opt.Target != "101" {
		t.Errorf("unexpected option: %+v", opt)
	}

	if _, ok := d.OptionFor("9"); ok {
		t.Error("expected no option for digit 9")
	}
}

func TestSubMenuIDs(t *testing.T) {
	d := validDefinition()
	d.Options = append(d.Options, Option{Digit: "5", Action: ActionSubMenu, Target: "hours"})
	d.TimeoutAction = ActionRef{Action: ActionSubMenu, Target: "after-hours"}

	ids := d.SubMenuIDs()
	if len(ids) != 2 {
		t.Fatalf("expected 2 submenu ids, got %v", ids)
	}
	if ids[0] != "hours" || ids[1] != "after-hours" {
		t.Errorf("unexpected ids: %v", ids)
	}
}

func TestClone_Independent(t *testing.T) {
	d := validDefinition()
	cp := d.Clone()

	cp.Options[0].Target = "changed"
	cp.GreetingText = "changed"

	if d.Options[0].Target != "sales" {
		t.Error("clone shares options slice with original")
	}
	if d.GreetingText == "changed" {
		t.Error("clone shares scalar fields with original")
	}
}

func TestDefinition_JSONShape(t *testing.T) {
	d := validDefinition()
	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var back Definition
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.ID != d.ID || len(back.Options) != len(d.Options) {
		t.Errorf("round trip lost data: %+v", back)
	}
	if back.TimeoutAction.Action != ActionRepeatMenu {
		t.Errorf("unexpected timeout action: %+v", back.TimeoutAction)
	}
}
