package cutter

import (
	"io"
	"time"

	cutio "github.com/dcos/pipe-cutter/io"
	"github.com/sirupsen/logrus"
)

// DefaultBufferSize is the size of the transfer buffer.
const DefaultBufferSize = 4096

// StopReason tells why a run ended without error.
type StopReason int

const (
	// ByteLimit means the byte budget was exhausted.
	ByteLimit StopReason = iota
	// Deadline means the time limit passed.
	Deadline
	// EndOfStream means the source ended in OneShot mode.
	EndOfStream
)

func (r StopReason) String() string {
	switch r {
	case ByteLimit:
		return "byte limit reached"
	case Deadline:
		return "time limit reached"
	case EndOfStream:
		return "end of stream"
	}
	return "unknown"
}

// Result summarizes a completed run.
type Result struct {
	// Forwarded is the number of bytes written to the sink.
	Forwarded uint64
	Reason    StopReason
}

// Cutter copies a timed source to a sink until its session limits are hit.
type Cutter struct {
	session Session
	source  cutio.Source
	sink    io.Writer

	clock   Clock
	log     logrus.FieldLogger
	metrics *Metrics
	buf     []byte
}

// Option configures a Cutter.
type Option func(*Cutter)

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(ct *Cutter) { ct.clock = c }
}

// WithLogger sets the logger used for debug output.
func WithLogger(l logrus.FieldLogger) Option {
	return func(ct *Cutter) { ct.log = l }
}

// WithMetrics makes the run update m.
func WithMetrics(m *Metrics) Option {
	return func(ct *Cutter) { ct.metrics = m }
}

// WithBufferSize changes the transfer buffer size.
func WithBufferSize(n int) Option {
	return func(ct *Cutter) {
		if n > 0 {
			ct.buf = make([]byte, n)
		}
	}
}

// New returns a Cutter for the given session. The session is validated so a
// run always has a stopping point.
func New(session Session, source cutio.Source, sink io.Writer, opts ...Option) (*Cutter, error) {
	if err := session.Validate(); err != nil {
		return nil, err
	}

	c := &Cutter{
		session: session,
		source:  source,
		sink:    sink,
		clock:   realClock{},
		log:     logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.buf == nil {
		c.buf = make([]byte, DefaultBufferSize)
	}
	return c, nil
}

// Run executes the copy loop. It returns a *ReadError or *WriteError when the
// source or sink fails, in which case the run must be abandoned.
func (c *Cutter) Run() (Result, error) {
	start := c.clock.Now()
	defer func() {
		c.metrics.observeRun(c.clock.Now().Sub(start).Seconds())
	}()

	var deadline time.Time
	if c.session.TimeLimit != nil {
		deadline = start.Add(*c.session.TimeLimit)
	}
	done := func() bool {
		return !deadline.IsZero() && c.clock.Now().After(deadline)
	}

	var remaining *uint64
	if c.session.ByteLimit != nil {
		r := *c.session.ByteLimit
		remaining = &r
	}
	tail := c.session.Mode == FollowTail

	var res Result
	for {
		out := c.source.ReadTimed(c.buf)
		c.metrics.observeOutcome(out)

		switch out.Kind {
		case cutio.EndOfStream:
			if !tail {
				res.Reason = EndOfStream
				return c.finish(res), nil
			}
			if done() {
				res.Reason = Deadline
				return c.finish(res), nil
			}
			c.clock.Sleep(c.source.Timeout())

		case cutio.Data:
			n := uint64(out.N)
			toForward := n
			// Only OneShot trims the last chunk; a followed file keeps whole chunks.
			if remaining != nil && !tail && toForward >= *remaining {
				toForward = *remaining
			}

			if err := c.forward(c.buf[:toForward]); err != nil {
				return res, err
			}
			res.Forwarded += toForward

			if remaining != nil {
				c.log.WithFields(logrus.Fields{"bytes": n, "remaining": *remaining}).Debug("read data")
				if n >= *remaining {
					res.Reason = ByteLimit
					return c.finish(res), nil
				}
				*remaining -= n
			}
			if done() {
				res.Reason = Deadline
				return c.finish(res), nil
			}

		case cutio.TimedOut:
			if done() {
				res.Reason = Deadline
				return c.finish(res), nil
			}

		case cutio.Fatal:
			return res, &ReadError{Err: out.Err}
		}
	}
}

func (c *Cutter) forward(p []byte) error {
	if len(p) == 0 {
		return nil
	}
	n, err := c.sink.Write(p)
	c.metrics.observeForwarded(n)
	if err != nil {
		return &WriteError{Err: err}
	}
	if n != len(p) {
		return &WriteError{Err: io.ErrShortWrite}
	}
	return nil
}

func (c *Cutter) finish(res Result) Result {
	c.log.WithFields(logrus.Fields{
		"forwarded": res.Forwarded,
		"mode":      c.session.Mode,
	}).Debugf("Stopping: %s", res.Reason)
	return res
}
