package io

import "time"

// PollInterval is the per-read timeout used for stdin and followed files. It
// is also the sleep between attempts when following a file past its end.
const PollInterval = 250 * time.Millisecond

// Kind tells which of the possible results a timed read produced.
type Kind int

const (
	// Data means Outcome.N bytes were copied into the caller's buffer.
	Data Kind = iota
	// EndOfStream means the source reported zero bytes without an error.
	EndOfStream
	// TimedOut means nothing arrived within the source timeout. The source is
	// still open and may be read again.
	TimedOut
	// Fatal means any other read error, stored in Outcome.Err.
	Fatal
)

func (k Kind) String() string {
	switch k {
	case Data:
		return "data"
	case EndOfStream:
		return "eof"
	case TimedOut:
		return "timeout"
	case Fatal:
		return "fatal"
	}
	return "unknown"
}

// Outcome is the result of a single Source.ReadTimed call.
type Outcome struct {
	Kind Kind
	N    int
	Err  error
}

// Source is anything offering a read bounded in time.
type Source interface {
	// ReadTimed reads into p, waiting at most Timeout() for data.
	ReadTimed(p []byte) Outcome
	// Timeout returns the longest time a single ReadTimed call may block.
	Timeout() time.Duration
	Close() error
}
