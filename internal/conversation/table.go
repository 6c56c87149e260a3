package conversation

import (
	"context"

	"github.com/m3rciful/wishbot/core/telegram/state"
)

// Transition outcomes, shared with logs and metrics.
const (
	outcomeOK        = "ok"
	outcomeInvalid   = "invalid"
	outcomeNotFound  = "not_found"
	outcomeCancelled = "cancelled"
	outcomeFail      = "fail"
)

type result struct {
	reply   Reply
	outcome string
	err     error
}

type transition func(r *Router, ctx context.Context, in Input, s state.Session) result

// table lists every reachable (phase, kind) pair. Inputs outside it are answered as unknown.
var table = map[Phase]map[Kind]transition{
	PhaseIdle: {
		KindTrigger: (*Router).start,
		KindAction:  (*Router).act,
		KindText:    (*Router).unknown,
		KindCancel:  (*Router).nothingToCancel,
	},
	PhaseCollecting: {
		// a new trigger discards the flow in progress
		KindTrigger: (*Router).start,
		KindAction:  (*Router).act,
		KindText:    (*Router).advance,
		KindCancel:  (*Router).cancel,
	},
}

func phaseOf(s state.Session) Phase {
	if s.Active() {
		return PhaseCollecting
	}
	return PhaseIdle
}
