package engine

import "fmt"

// UnknownModifierError marks a modifier-shaped token referenced by the
// test description's triggers or actions that names no known
// modifier. Per §7 this is fatal: the run aborts rather than silently
// treating the token as a literal command.
type UnknownModifierError struct {
	Token string
}

func (e *UnknownModifierError) Error() string {
	return fmt.Sprintf("engine: no modifier implementation for %q", e.Token)
}
