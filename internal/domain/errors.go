package domain

import "errors"

var (
	ErrPermissionDenied     = errors.New("permission denied")
	ErrNotJoined            = errors.New("not joined to a room")
	ErrNoPeer               = errors.New("no other participant in roster")
	ErrDeviceConfigNotFound = errors.New("device config not found")
	ErrInvalidDeviceKind    = errors.New("invalid device kind")
	ErrRecordAlreadyStarted = errors.New("record already started")
	ErrRecordNotStarted     = errors.New("record not started")
)
