package schema

import "errors"

var (
	// ErrInvalidUser indicates an invalid user identifier.
	ErrInvalidUser = errors.New("invalid user")
	// ErrUnknownCommand indicates a console command that is not recognized.
	ErrUnknownCommand = errors.New("unknown command")
)
