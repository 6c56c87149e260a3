package conversation

import "errors"

// InputError rejects a user's answer. The message is shown to the user as is.
type InputError struct {
	Message  string
	NotFound bool
	// Gone ends the flow instead of re-prompting.
	Gone bool
}

func (e *InputError) Error() string {
	return e.Message
}

// Code classifies the error for handler summaries.
func (e *InputError) Code() string {
	if e.NotFound {
		return "NOT_FOUND"
	}
	return "INVALID_INPUT"
}

// Invalid re-prompts the current step with msg.
func Invalid(msg string) error {
	return &InputError{Message: msg}
}

// NotFound reports a selection that does not exist for the user. The session is kept.
func NotFound(msg string) error {
	return &InputError{Message: msg, NotFound: true}
}

// Gone reports that the subject of the flow disappeared. The flow ends with msg.
func Gone(msg string) error {
	return &InputError{Message: msg, NotFound: true, Gone: true}
}

func asInputError(err error) (*InputError, bool) {
	var ie *InputError
	if errors.As(err, &ie) {
		return ie, true
	}
	return nil, false
}
