package meshsim

import (
	"fmt"
	"strings"
)

// MissingProviderError reports a required variable that no source or module
// provides after overrides are applied.
type MissingProviderError struct {
	Variable string
	Consumer string
}

func (e *MissingProviderError) Error() string {
	return fmt.Sprintf("no provider for variable %q required by %q", e.Variable, e.Consumer)
}

// AmbiguousProviderError reports a required variable with more than one
// candidate producer and no override designating a winner.
type AmbiguousProviderError struct {
	Variable  string
	Consumer  string
	Producers []string
}

func (e *AmbiguousProviderError) Error() string {
	return fmt.Sprintf("variable %q required by %q has multiple providers: %s",
		e.Variable, e.Consumer, strings.Join(e.Producers, ", "))
}

// CycleError reports a cyclic dependency. Modules holds the name of every
// node still unscheduled when the cycle was detected, so the whole cycle is
// visible rather than a single representative.
type CycleError struct {
	Modules []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("cyclic dependency between modules: %s", strings.Join(e.Modules, ", "))
}
