package route

import (
	"errors"
	"fmt"
)

// ErrUnknownFunc is returned when a definition references a name that is not
// in the registry.
var ErrUnknownFunc = errors.New("unknown function")

// NormalizationError reports a route entry whose shape is not recognized.
type NormalizationError struct {
	Source string
	Index  int
	Reason string
}

func (e *NormalizationError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("route #%d: %s", e.Index, e.Reason)
	}
	return fmt.Sprintf("%s: route #%d: %s", e.Source, e.Index, e.Reason)
}
