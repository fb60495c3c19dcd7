package cutter

import (
	"math"
	"time"

	"github.com/pkg/errors"
)

// ErrNoLimit is returned when neither a byte nor a time limit is configured.
var ErrNoLimit = errors.New("you need to specify size and/or time")

// Mode selects how the end of the source is treated.
type Mode int

const (
	// OneShot drains the source once and stops at end of stream.
	OneShot Mode = iota
	// FollowTail keeps polling a file past its end until the time limit fires.
	FollowTail
)

func (m Mode) String() string {
	if m == FollowTail {
		return "tail"
	}
	return "oneshot"
}

// Session is the immutable configuration of a single run.
type Session struct {
	// ByteLimit is the maximum number of bytes to emit. nil means unbounded.
	ByteLimit *uint64
	// TimeLimit is the maximum time to run. nil means unbounded.
	TimeLimit *time.Duration
	Mode      Mode
}

// Validate checks that the session has a defined stopping point.
func (s Session) Validate() error {
	if s.ByteLimit == nil && s.TimeLimit == nil {
		return ErrNoLimit
	}
	if s.TimeLimit != nil && *s.TimeLimit < 0 {
		return errors.Errorf("negative time limit %s", *s.TimeLimit)
	}
	return nil
}

// Bytes returns a byte limit suitable for Session.ByteLimit.
func Bytes(n uint64) *uint64 {
	return &n
}

// maxSeconds is the largest whole number of seconds a time.Duration can hold.
const maxSeconds = math.MaxInt64 / int64(time.Second)

// Seconds returns a time limit of s seconds suitable for Session.TimeLimit.
// Values too large for a time.Duration are capped, which is roughly 292 years
// and never reached in practice.
func Seconds(s uint64) *time.Duration {
	if s > uint64(maxSeconds) {
		s = uint64(maxSeconds)
	}
	d := time.Duration(s) * time.Second
	return &d
}
