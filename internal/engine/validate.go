package engine

import "github.com/embedwatch/overwatcher/internal/testdesc"

// validateModifierTokens scans every trigger and action token list for
// names shaped like a modifier reference (ALL_CAPS_WITH_UNDERSCORES)
// that do not resolve through LookupModifier. A real modifier name
// misspelled this way would otherwise be sent to the device as a
// literal command — §7 treats that as a fatal, not a silent,
// condition.
//
// config_seq and test_seq are deliberately NOT scanned here: per §4.5
// rule 4, any token in a sequence that isn't a user_inp or action
// pseudo-state and doesn't resolve as a modifier falls through to the
// plain state-name branch, and canonical state names (READY, SHELL,
// SA, LOGIN, ...) routinely match the modifier shape. Rejecting them
// here would contradict the driver's own, legitimate fallback.
func validateModifierTokens(desc *testdesc.Description) error {
	check := func(token string) error {
		if !looksLikeModifier(token) {
			return nil
		}
		if _, ok := LookupModifier(token); ok {
			return nil
		}
		return &UnknownModifierError{Token: token}
	}

	for _, tokens := range desc.Triggers {
		for _, tok := range tokens {
			if err := check(tok); err != nil {
				return err
			}
		}
	}
	for _, tokens := range desc.Actions {
		for _, tok := range tokens {
			if err := check(tok); err != nil {
				return err
			}
		}
	}
	return nil
}
