package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyExists is returned when a dedupe key is already recorded.
	ErrAlreadyExists  = errors.New("share record already exists")
	ErrNotFound       = errors.New("not found")
	ErrNoArticleLink  = errors.New("No article URL found")
	ErrRequiresMedia  = errors.New("requires media")
	ErrNoDestinations = errors.New("no destinations configured")

	// ErrStaleState is returned when a record changed state underneath a
	// compare-and-swap update.
	ErrStaleState = errors.New("share record state changed concurrently")
)

// TransitionError reports a lifecycle transition that is not allowed.
type TransitionError struct {
	From Status
	To   Status
}

func (e TransitionError) Error() string {
	return fmt.Sprintf("invalid transition %s -> %s", e.From, e.To)
}

// Is enables errors.Is matching against ErrInvalidTransition.
func (e TransitionError) Is(target error) bool {
	switch target.(type) {
	case TransitionError, *TransitionError:
		return true
	}
	return false
}

// ErrInvalidTransition matches any TransitionError.
var ErrInvalidTransition = TransitionError{}
