package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/m3rciful/wishbot/core/logger"
	"github.com/m3rciful/wishbot/core/metrics"
	"github.com/m3rciful/wishbot/core/telegram/state"
)

// Router dispatches inputs to flows and actions.
type Router struct {
	sessions state.Store
	msgs     Messages
	flows    map[string]*Flow
	actions  map[string]Action
	locks    *keyedMutex
	now      func() time.Time
}

// NewRouter returns a Router keeping sessions in store.
func NewRouter(store state.Store, msgs Messages) *Router {
	return &Router{
		sessions: store,
		msgs:     msgs.withDefaults(),
		flows:    make(map[string]*Flow),
		actions:  make(map[string]Action),
		locks:    newKeyedMutex(),
		now:      time.Now,
	}
}

// RegisterFlow adds f. It panics on a duplicate name or a step without a prompt,
// since both are wiring mistakes.
func (r *Router) RegisterFlow(f Flow) {
	if f.Name == "" || f.Finish == nil {
		panic("conversation: flow needs a name and a finish")
	}
	if _, dup := r.flows[f.Name]; dup {
		panic(fmt.Sprintf("conversation: flow %q registered twice", f.Name))
	}
	for i, st := range f.Steps {
		if st.Key == "" || st.Prompt == nil {
			panic(fmt.Sprintf("conversation: flow %q step %d needs a key and a prompt", f.Name, i))
		}
	}
	flow := f
	r.flows[f.Name] = &flow
}

// RegisterAction adds a stateless action.
func (r *Router) RegisterAction(name string, a Action) {
	if name == "" || a == nil {
		panic("conversation: action needs a name and a func")
	}
	r.actions[name] = a
}

// HasFlow reports whether name is a registered flow.
func (r *Router) HasFlow(name string) bool {
	_, ok := r.flows[name]
	return ok
}

// HasAction reports whether name is a registered action.
func (r *Router) HasAction(name string) bool {
	_, ok := r.actions[name]
	return ok
}

// Phase returns the user's current phase.
func (r *Router) Phase(ctx context.Context, userID int64) (Phase, error) {
	s, err := r.sessions.Get(ctx, userID)
	if err != nil {
		return PhaseIdle, err
	}
	return phaseOf(s), nil
}

// Handle runs one input to completion. Inputs of the same user are serialized.
// The reply is always meaningful; a non-nil error means the flow failed on our side and was reset.
func (r *Router) Handle(ctx context.Context, in Input) (Reply, error) {
	unlock := r.locks.Lock(in.UserID)
	defer unlock()

	start := time.Now()
	s, err := r.sessions.Get(ctx, in.UserID)
	if err != nil {
		metrics.RecordTransition(string(PhaseIdle), string(in.Kind), outcomeFail)
		return Reply{Text: r.msgs.Failure, Menu: true}, fmt.Errorf("load session: %w", err)
	}

	phase := phaseOf(s)
	var res result
	if tr, ok := table[phase][in.Kind]; ok {
		res = tr(r, ctx, in, s)
	} else {
		res = r.unknown(ctx, in, s)
	}

	metrics.RecordTransition(string(phase), string(in.Kind), res.outcome)
	lvl := slog.LevelDebug
	if res.err != nil {
		lvl = slog.LevelError
	}
	if lvl > slog.LevelDebug || logger.ShouldSampleDebug() {
		attrs := []slog.Attr{
			slog.String("status", logger.Status(res.err)),
			slog.String("phase", string(phase)),
			slog.String("kind", string(in.Kind)),
			slog.String("outcome", res.outcome),
			slog.String("flow", firstNonEmpty(s.Flow, r.flowName(in))),
			slog.Duration("duration", logger.Took(start)),
		}
		if s.Active() {
			attrs = append(attrs, slog.Int("step", s.Step))
		}
		if res.err != nil {
			attrs = append(attrs, slog.Any("err", res.err))
		}
		logger.LogEvent(ctx, logger.FSM, lvl, "fsm.transition", attrs...)
	}
	return res.reply, res.err
}

func (r *Router) flowName(in Input) string {
	if in.Kind == KindTrigger {
		return in.Name
	}
	return ""
}

func (r *Router) start(ctx context.Context, in Input, s state.Session) result {
	flow, ok := r.flows[in.Name]
	if !ok {
		return r.unknown(ctx, in, s)
	}
	if s.Active() {
		logger.LogEvent(ctx, logger.FSM, slog.LevelDebug, "fsm.discard",
			slog.String("flow", s.Flow),
			slog.Int("step", s.Step),
		)
	}

	if flow.Enter != nil {
		rep, err := flow.Enter(ctx, in)
		if err != nil {
			return r.fail(ctx, in, err)
		}
		if rep != nil {
			if err := r.sessions.Clear(ctx, in.UserID); err != nil {
				return r.fail(ctx, in, err)
			}
			out := *rep
			out.Menu = true
			return result{reply: out, outcome: outcomeOK}
		}
	}

	next := state.Session{Flow: flow.Name, Data: map[string]string{}, UpdatedAt: r.now()}
	if len(flow.Steps) == 0 {
		return r.finish(ctx, in, flow, next)
	}
	rep, err := r.prompt(ctx, in, flow, next)
	if err != nil {
		return r.fail(ctx, in, err)
	}
	if err := r.sessions.Set(ctx, in.UserID, next); err != nil {
		return r.fail(ctx, in, err)
	}
	return result{reply: rep, outcome: outcomeOK}
}

func (r *Router) advance(ctx context.Context, in Input, s state.Session) result {
	flow, ok := r.flows[s.Flow]
	if !ok || s.Step < 0 || s.Step >= len(flow.Steps) {
		// stale session, e.g. written by an older build into a shared store
		if err := r.sessions.Clear(ctx, in.UserID); err != nil {
			return r.fail(ctx, in, err)
		}
		return r.unknown(ctx, in, state.Session{})
	}
	if s.Data == nil {
		s.Data = map[string]string{}
	}

	step := flow.Steps[s.Step]
	value := strings.TrimSpace(in.Text)
	skip := r.isSkip(value)
	switch {
	case skip && step.optional(s.Data):
		value = ""
	case skip:
		return r.reject(ctx, in, flow, s, Invalid(r.msgs.Required))
	case step.Validate != nil:
		v, err := step.Validate(ctx, in, value, s.Data)
		if err != nil {
			return r.reject(ctx, in, flow, s, err)
		}
		value = v
	}

	s.Data[step.Key] = value
	s.Step++
	s.UpdatedAt = r.now()
	if s.Step == len(flow.Steps) {
		return r.finish(ctx, in, flow, s)
	}

	rep, err := r.prompt(ctx, in, flow, s)
	if err != nil {
		return r.failOrEnd(ctx, in, err)
	}
	if err := r.sessions.Set(ctx, in.UserID, s); err != nil {
		return r.fail(ctx, in, err)
	}
	return result{reply: rep, outcome: outcomeOK}
}

// finish runs the terminal action. The stored session is left as it was before the
// last answer when the action rejects the input, so the user can answer again.
func (r *Router) finish(ctx context.Context, in Input, flow *Flow, s state.Session) result {
	rep, err := flow.Finish(ctx, in, s.Data)
	if err != nil {
		if ie, ok := asInputError(err); ok && ie.Gone {
			return r.end(ctx, in, ie)
		}
		if _, ok := asInputError(err); ok && len(flow.Steps) > 0 {
			prev := s.Clone()
			prev.Step = len(flow.Steps) - 1
			delete(prev.Data, flow.Steps[prev.Step].Key)
			return r.reject(ctx, in, flow, prev, err)
		}
		metrics.RecordFlowCompleted(flow.Name, err)
		return r.fail(ctx, in, err)
	}
	metrics.RecordFlowCompleted(flow.Name, nil)
	if err := r.sessions.Clear(ctx, in.UserID); err != nil {
		return r.fail(ctx, in, err)
	}
	rep.Menu = true
	return result{reply: rep, outcome: outcomeOK}
}

// reject answers an *InputError by repeating the current prompt after the message.
// A Gone error ends the flow. Any other error is a failure.
func (r *Router) reject(ctx context.Context, in Input, flow *Flow, s state.Session, err error) result {
	ie, ok := asInputError(err)
	if !ok {
		return r.fail(ctx, in, err)
	}
	if ie.Gone {
		return r.end(ctx, in, ie)
	}
	outcome := outcomeInvalid
	if ie.NotFound {
		outcome = outcomeNotFound
	}
	rep, perr := r.prompt(ctx, in, flow, s)
	if perr != nil {
		return r.failOrEnd(ctx, in, perr)
	}
	rep.Text = ie.Message + "\n\n" + rep.Text
	return result{reply: rep, outcome: outcome}
}

func (r *Router) prompt(ctx context.Context, in Input, flow *Flow, s state.Session) (Reply, error) {
	step := flow.Steps[s.Step]
	rep, err := step.Prompt(ctx, in, s.Data)
	if err != nil {
		return Reply{}, fmt.Errorf("%s step %s prompt: %w", flow.Name, step.Key, err)
	}
	rep.Skip = rep.Skip || step.optional(s.Data)
	rep.Cancelable = true
	return rep, nil
}

func (r *Router) act(ctx context.Context, in Input, s state.Session) result {
	action, ok := r.actions[in.Name]
	if !ok {
		return r.unknown(ctx, in, s)
	}
	rep, err := action(ctx, in)
	if err != nil {
		if ie, ok := asInputError(err); ok {
			outcome := outcomeInvalid
			if ie.NotFound {
				outcome = outcomeNotFound
			}
			return result{reply: Reply{Text: ie.Message, Menu: !s.Active()}, outcome: outcome}
		}
		// an unrelated flow in progress is kept
		return result{reply: Reply{Text: r.msgs.Failure, Menu: !s.Active()}, outcome: outcomeFail, err: fmt.Errorf("action %s: %w", in.Name, err)}
	}
	rep.Menu = rep.Menu || !s.Active()
	return result{reply: rep, outcome: outcomeOK}
}

func (r *Router) cancel(ctx context.Context, in Input, s state.Session) result {
	if err := r.sessions.Clear(ctx, in.UserID); err != nil {
		return r.fail(ctx, in, err)
	}
	return result{reply: Reply{Text: r.msgs.Cancelled, Menu: true}, outcome: outcomeCancelled}
}

func (r *Router) nothingToCancel(context.Context, Input, state.Session) result {
	return result{reply: Reply{Text: r.msgs.NothingToCancel, Menu: true}, outcome: outcomeOK}
}

func (r *Router) unknown(context.Context, Input, state.Session) result {
	return result{reply: Reply{Text: r.msgs.Unknown, Menu: true}, outcome: outcomeInvalid}
}

// end clears the session and answers with the message of a Gone error.
func (r *Router) end(ctx context.Context, in Input, ie *InputError) result {
	if err := r.sessions.Clear(ctx, in.UserID); err != nil {
		return r.fail(ctx, in, err)
	}
	return result{reply: Reply{Text: ie.Message, Menu: true}, outcome: outcomeNotFound}
}

func (r *Router) failOrEnd(ctx context.Context, in Input, err error) result {
	if ie, ok := asInputError(err); ok && ie.Gone {
		return r.end(ctx, in, ie)
	}
	return r.fail(ctx, in, err)
}

// fail resets the user to idle and answers with the generic failure message.
func (r *Router) fail(ctx context.Context, in Input, err error) result {
	if cerr := r.sessions.Clear(ctx, in.UserID); cerr != nil {
		logger.LogEvent(ctx, logger.FSM, slog.LevelWarn, "fsm.clear",
			slog.String("status", "fail"),
			slog.Any("err", cerr),
		)
	}
	return result{reply: Reply{Text: r.msgs.Failure, Menu: true}, outcome: outcomeFail, err: err}
}

func (r *Router) isSkip(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "" || v == "-" || v == "/skip" || v == strings.ToLower(r.msgs.SkipLabel)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
