package domain

import "errors"

// ErrorKind classifies a domain failure so callers can decide how to react
// without matching on message text.
type ErrorKind string

const (
	KindValidation    ErrorKind = "validation"
	KindStateConflict ErrorKind = "state_conflict"
	KindNotFound      ErrorKind = "not_found"
	KindDuplicate     ErrorKind = "duplicate"
	KindAuthorization ErrorKind = "authorization"
	KindUnavailable   ErrorKind = "unavailable"
)

// Error is the single error type raised by the domain layer. EntityID holds
// the offending aggregate or sub-entity id when one exists.
type Error struct {
	Kind     ErrorKind
	EntityID string
	Message  string
}

func (e *Error) Error() string { return e.Message }

func newError(kind ErrorKind, entityID, msg string) error {
	return &Error{Kind: kind, EntityID: entityID, Message: msg}
}

func NewValidationError(entityID, msg string) error {
	return newError(KindValidation, entityID, msg)
}

func NewStateConflictError(entityID, msg string) error {
	return newError(KindStateConflict, entityID, msg)
}

func NewNotFoundError(entityID, msg string) error {
	return newError(KindNotFound, entityID, msg)
}

func NewDuplicateError(entityID, msg string) error {
	return newError(KindDuplicate, entityID, msg)
}

func NewAuthorizationError(entityID, msg string) error {
	return newError(KindAuthorization, entityID, msg)
}

func NewUnavailableError(entityID, msg string) error {
	return newError(KindUnavailable, entityID, msg)
}

// AsError unwraps err into a *Error when it carries one.
func AsError(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// IsKind reports whether err is a domain error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	de, ok := AsError(err)
	return ok && de.Kind == kind
}
