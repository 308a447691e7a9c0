package gopool

import (
	"runtime"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThreads(t *testing.T) {
	assert.Equal(t, 1, Threads(0))
	assert.Equal(t, 1, Threads(minNumberPerTask-1))
	assert.Equal(t, min(2, runtime.NumCPU()), Threads(2*minNumberPerTask))
	assert.Equal(t, runtime.NumCPU(), Threads(1<<20))
}

func TestEach(t *testing.T) {
	var (
		sum  atomic.Int64
		seen = make([]int32, 100)
	)
	err := Each(len(seen), func(i int) error {
		atomic.AddInt32(&seen[i], 1)
		sum.Add(int64(i))
		return nil
	})
	require.NoError(t, err)
	for i, n := range seen {
		assert.Equal(t, int32(1), n, "task %d", i)
	}
	assert.Equal(t, int64(99*100/2), sum.Load())
}

func TestEachError(t *testing.T) {
	errLow, errHigh := errors.New("low"), errors.New("high")
	err := Each(50, func(i int) error {
		switch i {
		case 7:
			return errLow
		case 31:
			return errHigh
		}
		return nil
	})
	assert.Equal(t, errLow, err)
	assert.NoError(t, Each(0, func(int) error { return errHigh }))
}

func TestPoolStats(t *testing.T) {
	done := make(chan struct{})
	require.NoError(t, Submit(func() { <-done }))
	assert.Eventually(t, func() bool { return Running() >= 1 }, time.Second, 10*time.Millisecond)
	close(done)
	assert.Greater(t, Free(), 0)
	assert.LessOrEqual(t, Free(), Cap())
}
