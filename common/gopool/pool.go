package gopool

import (
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
)

var (
	// Init a instance pool when importing ants.
	defaultPool, _   = ants.NewPool(ants.DefaultAntsPoolSize, ants.WithExpiryDuration(10*time.Second))
	minNumberPerTask = 5
)

// Submit submits a task to pool.
func Submit(task func()) error {
	return defaultPool.Submit(task)
}

// Running returns the number of the currently running goroutines.
func Running() int {
	return defaultPool.Running()
}

// Cap returns the capacity of this default pool.
func Cap() int {
	return defaultPool.Cap()
}

// Free returns the available goroutines to work.
func Free() int {
	return defaultPool.Free()
}

// Threads returns how many workers should share the given number of tasks.
func Threads(tasks int) int {
	threads := tasks / minNumberPerTask
	if threads > runtime.NumCPU() {
		threads = runtime.NumCPU()
	} else if threads == 0 {
		threads = 1
	}
	return threads
}

// Each calls fn for every index in [0, tasks) on the default pool and waits
// for all of them. It returns the error of the lowest failing index.
func Each(tasks int, fn func(i int) error) error {
	var (
		wg      sync.WaitGroup
		errs    = make([]error, tasks)
		threads = Threads(tasks)
	)
	for t := 0; t < threads; t++ {
		wg.Add(1)
		worker := func(t int) func() {
			return func() {
				defer wg.Done()
				for i := t; i < tasks; i += threads {
					errs[i] = fn(i)
				}
			}
		}(t)
		if err := Submit(worker); err != nil {
			// The pool is saturated or closed, run inline.
			worker()
		}
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
