package mocks

import (
	"time"

	cutio "github.com/dcos/pipe-cutter/io"
	"github.com/stretchr/testify/mock"
)

type MockSource struct {
	mock.Mock
}

func (m *MockSource) ReadTimed(p []byte) cutio.Outcome {
	args := m.Called(p)
	return args.Get(0).(cutio.Outcome)
}

func (m *MockSource) Timeout() time.Duration {
	args := m.Called()
	return args.Get(0).(time.Duration)
}

func (m *MockSource) Close() error {
	args := m.Called()
	return args.Error(0)
}

// ExpectData makes the next ReadTimed call copy data into the caller's buffer.
func (m *MockSource) ExpectData(data string) *mock.Call {
	return m.On("ReadTimed", mock.Anything).Run(func(args mock.Arguments) {
		copy(args.Get(0).([]byte), data)
	}).Return(cutio.Outcome{Kind: cutio.Data, N: len(data)}).Once()
}

// ExpectOutcome makes the next ReadTimed call return out without data.
func (m *MockSource) ExpectOutcome(out cutio.Outcome) *mock.Call {
	return m.On("ReadTimed", mock.Anything).Return(out).Once()
}

type MockWriter struct {
	mock.Mock
}

func (m *MockWriter) Write(p []byte) (int, error) {
	args := m.Called(p)
	return args.Int(0), args.Error(1)
}
