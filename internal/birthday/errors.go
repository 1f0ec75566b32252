package birthday

// Reason identifies why an argument failed validation.
type Reason int

const (
	ReasonMissingName Reason = iota + 1
	ReasonNameTooLong
	ReasonMissingBirthday
	ReasonBadFormat
	ReasonDayOutOfRange
)

// ValidationError is a caller-correctable argument failure. Message is safe
// to show to the user verbatim.
type ValidationError struct {
	Reason  Reason
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Is matches on Reason so the sentinels below compare equal to any error of
// the same kind, whatever its usage text.
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	return ok && t.Reason == e.Reason
}

var (
	ErrMissingName     = &ValidationError{Reason: ReasonMissingName, Message: "Missing name."}
	ErrNameTooLong     = &ValidationError{Reason: ReasonNameTooLong, Message: "Name is too long (max 100 characters)."}
	ErrMissingBirthday = &ValidationError{Reason: ReasonMissingBirthday, Message: "Missing birthday."}
	ErrBadFormat       = &ValidationError{Reason: ReasonBadFormat, Message: "Birthday must be in MM/DD format (example: 12/31)."}
	ErrDayOutOfRange   = &ValidationError{Reason: ReasonDayOutOfRange, Message: "Invalid day for the given month."}
)

func missing(reason Reason, field, usage string) *ValidationError {
	return &ValidationError{
		Reason:  reason,
		Message: "Missing " + field + ". Usage: " + usage,
	}
}
