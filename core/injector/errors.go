package injector

import (
	"errors"
	"fmt"
)

// ErrActivationInFlight is returned when Activate is called while another
// activation is still running.
var ErrActivationInFlight = errors.New("activation already in flight")

// LineError locates a failure in the data file.
type LineError struct {
	File string
	Line int
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("%s:%d: %v", e.File, e.Line, e.Err)
}

func (e *LineError) Unwrap() error { return e.Err }
