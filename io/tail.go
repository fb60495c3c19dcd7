package io

import (
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
)

// OpenTail opens path and positions it at its current end, so only bytes
// appended after the call are ever read ("tail -f" style).
func OpenTail(path string, timeout time.Duration) (*TimedReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not open file %s", path)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.Wrap(err, "could not read file metadata")
	}

	if _, err := f.Seek(info.Size(), io.SeekStart); err != nil {
		f.Close()
		return nil, errors.Wrap(err, "could not jump to end of file")
	}

	return NewTimedReader(f, timeout), nil
}
