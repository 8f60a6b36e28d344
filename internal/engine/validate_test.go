package engine

import (
	"testing"

	"github.com/embedwatch/overwatcher/internal/testdesc"
)

// TestValidateModifierTokensAllowsStateNamesInSequences guards against
// the validator rejecting legitimate uppercase state names that fall
// through to the rule-4 plain-state-name branch (§4.5) — scenarios A,
// B, C, E, and F of §8 all use canonical ALL-CAPS state names in
// config_seq/test_seq.
func TestValidateModifierTokensAllowsStateNamesInSequences(t *testing.T) {
	desc := &testdesc.Description{
		Name:    "seq",
		Info:    map[string]any{"overwatcher revision required": 1},
		Prompts: map[string]bool{},
		Options: baseOptions(),
		TestSeq: []string{"READY", "SHELL", "SA", "SB", "LOGIN", "REBOOTING", "TICK"},
	}
	if err := validateModifierTokens(desc); err != nil {
		t.Errorf("validateModifierTokens() = %v, want nil for plain state names", err)
	}
}

// TestValidateModifierTokensAllowsSingleKeyCommands guards against the
// modifier-shape heuristic catching the single-character Y/N commands
// §4.3 sends raw.
func TestValidateModifierTokensAllowsSingleKeyCommands(t *testing.T) {
	desc := &testdesc.Description{
		Name:    "ynkey",
		Info:    map[string]any{"overwatcher revision required": 1},
		Prompts: map[string]bool{},
		Options: baseOptions(),
		Actions: map[string][]string{"CONFIRM": {"Y"}},
		Triggers: map[string][]string{
			"PROMPT": {"N"},
		},
	}
	if err := validateModifierTokens(desc); err != nil {
		t.Errorf("validateModifierTokens() = %v, want nil for single-key Y/N commands", err)
	}
}

// TestValidateModifierTokensRejectsTypoedTriggerModifier confirms the
// validator still catches a genuinely misspelled modifier name inside
// triggers/actions.
func TestValidateModifierTokensRejectsTypoedTriggerModifier(t *testing.T) {
	desc := &testdesc.Description{
		Name:    "typo",
		Info:    map[string]any{"overwatcher revision required": 1},
		Prompts: map[string]bool{},
		Options: baseOptions(),
		Triggers: map[string][]string{
			"S": {"WATCH_STATEZ"},
		},
	}
	err := validateModifierTokens(desc)
	if err == nil {
		t.Fatal("validateModifierTokens() = nil, want an UnknownModifierError for a typoed modifier")
	}
	if _, ok := err.(*UnknownModifierError); !ok {
		t.Errorf("validateModifierTokens() error type = %T, want *UnknownModifierError", err)
	}
}
