package activity

import (
	"errors"
	"fmt"
)

// ErrNoMarketDay is returned when no candidate area yields a valid market
// weekday for a location. The location has no derivable signal; callers skip
// it rather than failing the whole run.
var ErrNoMarketDay = errors.New("no valid market weekday detected")

// ErrNoDatePattern is the diagnostic surfaced when none of the identifier
// date patterns parse for a batch. Non-fatal: rows without a date are dropped
// at the final filtering step.
var ErrNoDatePattern = errors.New("no identifier date pattern matched")

// ContractError reports an input-contract violation in the provider exports,
// such as a missing identifier column. Fatal for the current location only.
type ContractError struct {
	Field  string
	Reason string
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("input contract violation: %s: %s", e.Field, e.Reason)
}

func contractErr(field, format string, args ...any) error {
	return &ContractError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
