package io

import (
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
)

type deadliner interface {
	SetReadDeadline(time.Time) error
}

type readResult struct {
	n   int
	err error
}

// TimedReader wraps an io.Reader so that every read returns within a fixed
// timeout.
//
// If r has a `SetReadDeadline(time.Time) error` method that accepts deadlines,
// then it is called before every read. Otherwise the read is started in a
// goroutine and ReadTimed stops waiting for it after the timeout. An
// abandoned read is not lost: it stays in flight and its bytes are returned
// by the next call.
//
// See: https://github.com/golang/go/issues/20280
type TimedReader struct {
	r        io.Reader
	timeout  time.Duration
	deadline deadliner

	// in-flight read for readers without deadline support
	pending chan readResult
	buf     []byte
	rest    []byte

	// error returned by the underlying reader together with data
	err error
}

// NewTimedReader returns a TimedReader reading from r and waiting at most
// timeout on each read.
func NewTimedReader(r io.Reader, timeout time.Duration) *TimedReader {
	t := &TimedReader{r: r, timeout: timeout}
	if d, ok := r.(deadliner); ok {
		if err := d.SetReadDeadline(time.Time{}); err == nil {
			t.deadline = d
		}
	}
	return t
}

// Timeout implements Source.
func (t *TimedReader) Timeout() time.Duration {
	return t.timeout
}

// ReadTimed implements Source.
func (t *TimedReader) ReadTimed(p []byte) Outcome {
	if len(t.rest) > 0 {
		n := copy(p, t.rest)
		t.rest = t.rest[n:]
		return Outcome{Kind: Data, N: n}
	}

	if t.err != nil {
		err := t.err
		t.err = nil
		return t.outcome(0, err)
	}

	if t.deadline != nil {
		return t.readWithDeadline(p)
	}
	return t.readInBackground(p)
}

func (t *TimedReader) readWithDeadline(p []byte) Outcome {
	if err := t.deadline.SetReadDeadline(time.Now().Add(t.timeout)); err != nil {
		return Outcome{Kind: Fatal, Err: errors.Wrap(err, "could not set read deadline")}
	}
	n, err := t.r.Read(p)
	return t.outcome(n, err)
}

func (t *TimedReader) readInBackground(p []byte) Outcome {
	if t.pending == nil {
		if cap(t.buf) < len(p) {
			t.buf = make([]byte, len(p))
		}
		buf := t.buf[:len(p)]
		ch := make(chan readResult, 1)
		go func() {
			n, err := t.r.Read(buf)
			ch <- readResult{n, err}
		}()
		t.pending = ch
	}

	timer := time.NewTimer(t.timeout)
	defer timer.Stop()

	select {
	case res := <-t.pending:
		t.pending = nil
		n := copy(p, t.buf[:res.n])
		t.rest = t.buf[n:res.n]
		return t.outcome(n, res.err)
	case <-timer.C:
		return Outcome{Kind: TimedOut}
	}
}

func (t *TimedReader) outcome(n int, err error) Outcome {
	if n > 0 {
		t.err = err
		return Outcome{Kind: Data, N: n}
	}
	switch {
	case err == nil || err == io.EOF:
		return Outcome{Kind: EndOfStream}
	case errors.Is(err, os.ErrDeadlineExceeded):
		return Outcome{Kind: TimedOut}
	}
	return Outcome{Kind: Fatal, Err: err}
}

// Close closes the underlying reader if it is an io.Closer.
func (t *TimedReader) Close() error {
	if c, ok := t.r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
