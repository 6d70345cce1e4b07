package sequential

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exascience/parcore"
)

func TestRunnerOrder(t *testing.T) {
	var r Runner
	assert.False(t, r.IsParallel())
	assert.True(t, r.IsWithIntermediateSync())

	var trace []string
	require.NoError(t, r.RunTwo(
		func() error { trace = append(trace, "first"); return nil },
		func() error { trace = append(trace, "second"); return nil },
	))
	assert.Equal(t, []string{"first", "second"}, trace)
}

func TestRunnerSecondObservesFirst(t *testing.T) {
	var r Runner
	x := 0
	var seen int
	require.NoError(t, r.RunTwo(
		func() error { x = 42; return nil },
		func() error { seen = x; return nil },
	))
	assert.Equal(t, 42, seen)
}

func TestRunnerFailures(t *testing.T) {
	var r Runner
	first, second := errors.New("first"), errors.New("second")

	secondRan := false
	err := r.RunTwo(
		func() error { return first },
		func() error { secondRan = true; return second },
	)
	assert.ErrorIs(t, err, first)
	assert.True(t, secondRan)

	secondRan = false
	defer func() {
		r := recover()
		require.NotNil(t, r)
		assert.Contains(t, r.(string), "boom")
		assert.True(t, secondRan)
	}()
	_ = r.RunTwo(
		func() error { panic("boom") },
		func() error { secondRan = true; return nil },
	)
}

func TestRunnerRunConditional(t *testing.T) {
	var r Runner
	var a, b int
	incA := func() error { a++; return nil }
	incB := func() error { b++; return nil }

	require.NoError(t, r.RunConditional(true, incA, false, incB))
	assert.Equal(t, 1, a)
	assert.Equal(t, 0, b)

	require.NoError(t, r.RunConditional(false, incA, false, incB))
	require.NoError(t, r.RunConditional(false, incA, true, incB))
	require.NoError(t, r.RunConditional(true, incA, true, incB))
	assert.Equal(t, 2, a)
	assert.Equal(t, 2, b)
}

func TestRunOneWrapsErrors(t *testing.T) {
	var r Runner
	cause := errors.New("cause")
	err := r.RunOne(func() error { return cause })
	var failed *parcore.ExecutionFailedError
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, cause, failed.Cause)

	// Errors that already are execution failures are not wrapped twice.
	assert.Equal(t, err, r.RunOne(func() error { return err }))
}

func TestSplitterSingleChunk(t *testing.T) {
	var s Splitter
	assert.Equal(t, 0, s.NTasksToSpawn())
	assert.Equal(t, 1, s.Chunks(0, 10))
	assert.Equal(t, 0, s.Chunks(10, 10))

	var calls [][3]int
	require.NoError(t, s.SplitForChunks(0, 10, func(chunk, low, high int) error {
		calls = append(calls, [3]int{chunk, low, high})
		return nil
	}))
	assert.Equal(t, [][3]int{{0, 0, 10}}, calls)

	require.NoError(t, s.SplitFor(3, 3, func(low, high int) error {
		t.Fatal("body invoked for empty range")
		return nil
	}))
}

func TestSplitForReduce(t *testing.T) {
	var s Splitter
	sum := func(results []int) (total int) {
		for _, r := range results {
			total += r
		}
		return
	}
	body := func(low, high int) (total int, err error) {
		for i := low; i < high; i++ {
			total += i
		}
		return
	}

	result, err := parcore.SplitForReduce(s, 0, 101, body, sum)
	require.NoError(t, err)
	assert.Equal(t, 5050, result)

	result, err = parcore.SplitForReduce(s, 7, 7, body, func(results []int) int {
		assert.Nil(t, results)
		return -1
	})
	require.NoError(t, err)
	assert.Equal(t, -1, result)
}
