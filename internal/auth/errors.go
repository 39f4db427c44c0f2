package auth

import "errors"

// ErrInvalidCredentials covers both an unknown username and a wrong
// password. Callers must present the same message for either case so the
// login form cannot be used to enumerate usernames.
var ErrInvalidCredentials = errors.New("invalid username or password")

// MsgInvalidCredentials is the user-facing text for ErrInvalidCredentials
const MsgInvalidCredentials = "Invalid username or password"

// ErrForbidden means the acting user lacks the role or ownership an
// operation requires. Handlers turn it into a notice and a redirect to a
// safe page, never a hard error.
var ErrForbidden = errors.New("not allowed")

// ValidationError carries a user-facing message for rejected form input.
// The form is re-rendered with the message; nothing is persisted.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// DuplicateError means registration collided with an existing account.
// The prior account is left untouched.
type DuplicateError struct {
	Message string
}

func (e *DuplicateError) Error() string {
	return e.Message
}
