package model

import "fmt"

// InvariantError signals broken energy accounting, such as a battery state
// of charge outside [0, 100]. It indicates a formula bug: the engine halts
// tick production instead of publishing a corrupted snapshot.
type InvariantError struct {
	HouseholdID string
	Detail      string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("invariant violation for household %s: %s", e.HouseholdID, e.Detail)
}
