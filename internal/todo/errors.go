package todo

import "errors"

var (
	// ErrNotFound is returned when an entity is absent or owned by another user
	ErrNotFound = errors.New("not found")
	// ErrDuplicateName is returned when a tab or username is already taken
	ErrDuplicateName = errors.New("duplicate name")
	// ErrEmptyName is returned for a blank tab name
	ErrEmptyName = errors.New("empty name")
	// ErrEmptyInput is returned for any other blank required field
	ErrEmptyInput = errors.New("empty input")
	// ErrUnauthenticated is returned when no user identity is present
	ErrUnauthenticated = errors.New("unauthenticated")
)

// Kind names the error category carried by err, for transports that report it as a string
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "NotFound"
	case errors.Is(err, ErrDuplicateName):
		return "DuplicateName"
	case errors.Is(err, ErrEmptyName):
		return "EmptyName"
	case errors.Is(err, ErrEmptyInput):
		return "EmptyInput"
	case errors.Is(err, ErrUnauthenticated):
		return "Unauthenticated"
	}
	return "Internal"
}
