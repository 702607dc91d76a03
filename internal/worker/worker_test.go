package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/zlog"
)

type countingSweeper struct {
	calls  atomic.Int32
	maxAge atomic.Int64
	err    error
	panics bool
}

func (s *countingSweeper) Sweep(maxAge time.Duration, _ time.Time) (int, error) {
	s.calls.Add(1)
	s.maxAge.Store(int64(maxAge))
	if s.panics {
		panic("boom")
	}
	return 1, s.err
}

func runFor(t *testing.T, j *Janitor, d time.Duration) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- j.Run(ctx) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(d + 2*time.Second):
		t.Fatal("janitor did not stop after cancellation")
	}
}

func TestJanitorSweepsPeriodically(t *testing.T) {
	zlog.Init()
	s := &countingSweeper{}
	j := NewJanitor(s, 10*time.Minute, 20*time.Millisecond, &zlog.Logger)

	runFor(t, j, 150*time.Millisecond)

	assert.GreaterOrEqual(t, s.calls.Load(), int32(2))
	assert.Equal(t, int64(10*time.Minute), s.maxAge.Load())
}

func TestJanitorSurvivesErrorsAndPanics(t *testing.T) {
	zlog.Init()

	failing := &countingSweeper{err: errors.New("dir gone")}
	runFor(t, NewJanitor(failing, time.Minute, 20*time.Millisecond, &zlog.Logger), 100*time.Millisecond)
	assert.GreaterOrEqual(t, failing.calls.Load(), int32(2))

	panicking := &countingSweeper{panics: true}
	runFor(t, NewJanitor(panicking, time.Minute, 20*time.Millisecond, &zlog.Logger), 100*time.Millisecond)
	assert.GreaterOrEqual(t, panicking.calls.Load(), int32(2))
}

func TestJanitorDefaultsInterval(t *testing.T) {
	zlog.Init()
	j := NewJanitor(&countingSweeper{}, time.Minute, 0, &zlog.Logger)
	assert.Equal(t, time.Minute, j.interval)
}
