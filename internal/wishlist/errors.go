package wishlist

import "errors"

var (
	// ErrNotFound reports a gift or catalog that does not exist or is not visible to the user.
	ErrNotFound = errors.New("wishlist: not found")
	// ErrCatalogNotFound reports a catalog id that does not exist or is owned by someone else.
	ErrCatalogNotFound = errors.New("wishlist: catalog not found")
	// ErrInvalidField reports an edit of a column that is not editable.
	ErrInvalidField = errors.New("wishlist: field is not editable")
)

// IsNotFound reports whether err means the record is missing or hidden from the caller.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrCatalogNotFound)
}

// IsValidation reports whether err rejects the input rather than signalling a store failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve) || errors.Is(err, ErrInvalidField)
}

// ValidationError explains why an input value was rejected.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// Code classifies the error for handler summaries.
func (e *ValidationError) Code() string {
	return "VALIDATION"
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
