package hr

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebouncerRunsLatestOnly(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)
	t.Cleanup(d.Stop)

	var last atomic.Int32
	var runs atomic.Int32
	for i := int32(1); i <= 5; i++ {
		i := i
		require.True(t, d.Schedule("u1", func() {
			runs.Add(1)
			last.Store(i)
		}))
		time.Sleep(5 * time.Millisecond)
	}

	require.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(5), last.Load())
	assert.False(t, d.Pending("u1"))

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(1), runs.Load(), "superseded calls never fire")
}

func TestDebouncerKeysAreIndependent(t *testing.T) {
	d := NewDebouncer(10 * time.Millisecond)
	t.Cleanup(d.Stop)

	var a, b atomic.Int32
	d.Schedule("a", func() { a.Add(1) })
	d.Schedule("b", func() { b.Add(1) })

	require.Eventually(t, func() bool { return a.Load() == 1 && b.Load() == 1 }, time.Second, 5*time.Millisecond)
}

func TestDebouncerCancel(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	t.Cleanup(d.Stop)

	var runs atomic.Int32
	d.Schedule("u1", func() { runs.Add(1) })
	assert.True(t, d.Pending("u1"))
	assert.True(t, d.Cancel("u1"))
	assert.False(t, d.Cancel("u1"))

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, runs.Load())
}

func TestDebouncerStop(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)

	var runs atomic.Int32
	d.Schedule("u1", func() { runs.Add(1) })
	d.Stop()

	assert.False(t, d.Schedule("u1", func() { runs.Add(1) }))
	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, runs.Load())
}
