package internal

import "gitlab.com/tozd/go/errors"

var (
	ErrPathNotFound        = errors.New("path not found")
	ErrDestinationRequired = errors.New("destination directory required")
	ErrNoExtensions        = errors.New("no category or custom extension selected")
	ErrRecordNotFound      = errors.New("undo record not found")
	ErrInvalidRecord       = errors.New("invalid undo record")
	ErrBusy                = errors.New("another operation is running")
	ErrInvalidMode         = errors.New("invalid operation mode")
)
