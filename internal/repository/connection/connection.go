package connection

import "errors"

var (
	ErrNotFound      = errors.New("connection not found")
	ErrAlreadyExists = errors.New("connection already exists")
)

// Conn is the write side of a live websocket.
type Conn interface {
	WriteJSON(v any) error
	Close() error
}
