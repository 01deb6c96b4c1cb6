package feed

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/pixelfolio/cli/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeViews struct {
	mu    sync.Mutex
	calls map[string]int
	err   error
}

func (f *fakeViews) GetPortfolio(ctx context.Context, id string) (*api.Portfolio, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[id]++
	if f.err != nil {
		return nil, f.err
	}
	return &api.Portfolio{ID: id}, nil
}

func (f *fakeViews) Calls(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[id]
}

func TestViewTracker_CoalescesRapidCalls(t *testing.T) {
	backend := &fakeViews{}
	v := NewViewTracker(backend, 50*time.Millisecond, nil)
	defer v.Close()

	for i := 0; i < 10; i++ {
		v.Schedule("p1")
	}
	v.Schedule("p2")

	require.Eventually(t, func() bool {
		return backend.Calls("p1") == 1 && backend.Calls("p2") == 1
	}, time.Second, 5*time.Millisecond)

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, backend.Calls("p1"))
	assert.Equal(t, 0, v.Pending())
}

func TestViewTracker_RescheduleExtendsQuietPeriod(t *testing.T) {
	backend := &fakeViews{}
	v := NewViewTracker(backend, 80*time.Millisecond, nil)
	defer v.Close()

	v.Schedule("p1")
	time.Sleep(40 * time.Millisecond)
	v.Schedule("p1")
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, 0, backend.Calls("p1"), "timer restarted, not yet quiet")

	require.Eventually(t, func() bool { return backend.Calls("p1") == 1 }, time.Second, 5*time.Millisecond)
}

func TestViewTracker_SeparateQuietPeriods(t *testing.T) {
	backend := &fakeViews{}
	v := NewViewTracker(backend, 20*time.Millisecond, nil)
	defer v.Close()

	v.Schedule("p1")
	require.Eventually(t, func() bool { return backend.Calls("p1") == 1 }, time.Second, 5*time.Millisecond)
	v.Schedule("p1")
	require.Eventually(t, func() bool { return backend.Calls("p1") == 2 }, time.Second, 5*time.Millisecond)
}

func TestViewTracker_FlushSendsNow(t *testing.T) {
	backend := &fakeViews{}
	v := NewViewTracker(backend, time.Hour, nil)

	v.Schedule("p1")
	v.Schedule("p2")
	assert.Equal(t, 2, v.Pending())

	v.Flush()
	v.Close()

	assert.Equal(t, 1, backend.Calls("p1"))
	assert.Equal(t, 1, backend.Calls("p2"))
}

func TestViewTracker_CloseDropsWaiting(t *testing.T) {
	backend := &fakeViews{}
	v := NewViewTracker(backend, time.Hour, nil)

	v.Schedule("p1")
	v.Close()
	v.Schedule("p2")

	assert.Equal(t, 0, backend.Calls("p1"))
	assert.Equal(t, 0, backend.Calls("p2"))
	assert.Equal(t, 0, v.Pending())
}

func TestViewTracker_FailureOnlyLogged(t *testing.T) {
	var buf bytes.Buffer
	l := log.New(&buf)
	backend := &fakeViews{err: errors.New("offline")}
	v := NewViewTracker(backend, 10*time.Millisecond, l)

	v.Schedule("p1")
	require.Eventually(t, func() bool { return backend.Calls("p1") == 1 }, time.Second, 5*time.Millisecond)
	v.Close()

	assert.Contains(t, buf.String(), "View report failed")
	assert.Equal(t, 1, backend.Calls("p1"), "no retry")
}

func TestViewTracker_DefaultDelay(t *testing.T) {
	v := NewViewTracker(&fakeViews{}, 0, nil)
	defer v.Close()
	assert.Equal(t, DefaultViewDelay, v.delay)
}
