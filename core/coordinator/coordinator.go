// Package coordinator defines the control protocol spoken with the history
// loading notifier. Every command is one newline terminated ASCII word sent
// on a fresh connection:
//
//	done?  -> yes     history has finished loading
//	ruok   -> imok    liveness check
//	shtdn  -> (none)  ask the notifier to stop
package coordinator

import (
	"context"
	"fmt"
)

const (
	CmdDone     = "done?"
	CmdRUOK     = "ruok"
	CmdShutdown = "shtdn"

	ReplyYes  = "yes"
	ReplyNo   = "no"
	ReplyIMOK = "imok"
)

// Status distinguishes a definitive answer from a transport failure.
type Status int

const (
	// StatusUnknown means the coordinator could not be reached or read.
	StatusUnknown Status = iota
	// StatusNegative means the coordinator answered something other than the expected word.
	StatusNegative
	// StatusAffirmative means the coordinator answered the expected word.
	StatusAffirmative
)

func (s Status) String() string {
	switch s {
	case StatusNegative:
		return "negative"
	case StatusAffirmative:
		return "affirmative"
	default:
		return "unknown"
	}
}

// Reply is the outcome of a single command round trip.
type Reply struct {
	Status Status
	// Raw is the trimmed reply line.
	Raw string
	// Err is set when Status is StatusUnknown.
	Err error
}

// OK reports whether the coordinator answered the expected word.
func (r Reply) OK() bool { return r.Status == StatusAffirmative }

func (r Reply) String() string {
	if r.Err != nil {
		return fmt.Sprintf("%s (%v)", r.Status, r.Err)
	}
	return fmt.Sprintf("%s %q", r.Status, r.Raw)
}

// Match builds a definitive reply by comparing the trimmed line to want.
func Match(raw, want string) Reply {
	if raw == want {
		return Reply{Status: StatusAffirmative, Raw: raw}
	}
	return Reply{Status: StatusNegative, Raw: raw}
}

// Failed builds a reply for a transport error.
func Failed(err error) Reply { return Reply{Status: StatusUnknown, Err: err} }

// ReadinessChecker asks whether history loading has completed.
type ReadinessChecker interface {
	QueryReadiness(ctx context.Context) Reply
}

// Coordinator is the full client side of the control protocol.
type Coordinator interface {
	ReadinessChecker
	CheckLiveness(ctx context.Context) Reply
	RequestShutdown(ctx context.Context) error
}
