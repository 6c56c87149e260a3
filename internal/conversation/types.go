// Package conversation drives multi-step dialogs as an explicit state machine.
//
// A user is either idle or collecting the answer to one step of a Flow. Every
// inbound Input is classified by Kind, and the pair (phase, kind) selects the
// transition from a fixed table. Session state lives in an injected state.Store,
// so the router itself holds nothing per user apart from a lock.
package conversation

import "context"

// Kind classifies an inbound input.
type Kind string

const (
	// KindText is free text, including answers typed for a step or picked from options.
	KindText Kind = "text"
	// KindTrigger starts the flow named by Input.Name.
	KindTrigger Kind = "trigger"
	// KindAction runs the stateless action named by Input.Name.
	KindAction Kind = "action"
	// KindCancel abandons the active flow.
	KindCancel Kind = "cancel"
)

// Phase is the coarse state of a user's session.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseCollecting Phase = "collecting"
)

// Input is one classified message or button press.
type Input struct {
	UserID   int64
	Username string
	Kind     Kind
	Name     string
	Text     string
}

// Option is a selectable answer. Choosing it is equivalent to sending Value as text.
type Option struct {
	Label string
	Value string
}

// Document is a file to deliver to the user.
type Document struct {
	Name    string
	MIME    string
	Data    []byte
	Caption string
}

// Reply is what the transport should send back.
type Reply struct {
	Text     string
	Options  []Option
	Document *Document

	// Skip offers a skip control for an optional step.
	Skip bool
	// Cancelable marks a prompt of an active flow.
	Cancelable bool
	// Menu asks for the main menu keyboard.
	Menu bool
}

// Step is one question of a flow. The accepted value is stored under Key.
type Step struct {
	Key string
	// Optional steps accept a skip token and store an empty value without validation.
	// Required steps refuse skip tokens before validation.
	Optional bool
	// OptionalIf makes the step optional depending on earlier answers.
	OptionalIf func(data map[string]string) bool
	Prompt     func(ctx context.Context, in Input, data map[string]string) (Reply, error)
	// Validate normalizes raw input. Return an *InputError to re-prompt.
	Validate func(ctx context.Context, in Input, value string, data map[string]string) (string, error)
}

// Flow is a named sequence of steps ending in a single terminal action.
type Flow struct {
	Name string
	// Enter may refuse to start the flow by returning a reply, e.g. when there is nothing to edit.
	Enter  func(ctx context.Context, in Input) (*Reply, error)
	Steps  []Step
	Finish func(ctx context.Context, in Input, data map[string]string) (Reply, error)
}

// optional reports whether st may be skipped given the answers so far.
func (st Step) optional(data map[string]string) bool {
	return st.Optional || (st.OptionalIf != nil && st.OptionalIf(data))
}

// Action answers an input without touching the session.
type Action func(ctx context.Context, in Input) (Reply, error)

// Messages are the router's own replies.
type Messages struct {
	Unknown         string
	NothingToCancel string
	Cancelled       string
	Failure         string
	Required        string
	SkipLabel       string
}

// DefaultMessages are used for empty fields of Messages.
var DefaultMessages = Messages{
	Unknown:         "I did not get that. Pick an action from the menu or send /help.",
	NothingToCancel: "There is nothing to cancel.",
	Cancelled:       "Cancelled. Back to the main menu.",
	Failure:         "Something went wrong on our side. Please try again later.",
	Required:        "This answer is required, it cannot be skipped.",
	SkipLabel:       "Skip",
}

func (m Messages) withDefaults() Messages {
	d := DefaultMessages
	if m.Unknown != "" {
		d.Unknown = m.Unknown
	}
	if m.NothingToCancel != "" {
		d.NothingToCancel = m.NothingToCancel
	}
	if m.Cancelled != "" {
		d.Cancelled = m.Cancelled
	}
	if m.Failure != "" {
		d.Failure = m.Failure
	}
	if m.Required != "" {
		d.Required = m.Required
	}
	if m.SkipLabel != "" {
		d.SkipLabel = m.SkipLabel
	}
	return d
}
