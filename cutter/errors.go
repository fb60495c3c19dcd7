package cutter

import "fmt"

// ReadError is returned when the source fails with anything but a timeout.
type ReadError struct {
	Err error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("Read error: %s", e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// WriteError is returned when forwarding a chunk to the sink fails or is short.
type WriteError struct {
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("Write error: %s", e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }
