package timer

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestManager_OneShotFires(t *testing.T) {
	m := NewManagerWithResolution(5 * time.Millisecond)
	defer m.Stop()

	var fired atomic.Int32
	m.Schedule(10*time.Millisecond, 0, func() {
		fired.Add(1)
	})

	waitUntil(t, time.Second, func() bool { return fired.Load() == 1 })

	// a one-shot never fires twice
	time.Sleep(50 * time.Millisecond)
	if got := fired.Load(); got != 1 {
		t.Errorf("expected exactly 1 firing, got %d", got)
	}
}

func TestManager_CancelPreventsFiring(t *testing.T) {
	m := NewManagerWithResolution(5 * time.Millisecond)
	defer m.Stop()

	var fired atomic.Int32
	id := m.Schedule(50*time.Millisecond, 0, func() {
		fired.Add(1)
	})
	m.Cancel(id)

	time.Sleep(120 * time.Millisecond)
	if got := fired.Load(); got != 0 {
		t.Errorf("cancelled task must not fire, got %d firings", got)
	}
}

func TestManager_RepeatingTask(t *testing.T) {
	m := NewManagerWithResolution(5 * time.Millisecond)
	defer m.Stop()

	var fired atomic.Int32
	id := m.Schedule(10*time.Millisecond, 10*time.Millisecond, func() {
		fired.Add(1)
	})

	waitUntil(t, time.Second, func() bool { return fired.Load() >= 3 })
	m.Cancel(id)

	count := fired.Load()
	time.Sleep(60 * time.Millisecond)
	// at most one in-flight firing can land after Cancel
	if got := fired.Load(); got > count+1 {
		t.Errorf("repeating task kept firing after Cancel: %d -> %d", count, got)
	}
}

func TestManager_StopHaltsProcessing(t *testing.T) {
	m := NewManagerWithResolution(5 * time.Millisecond)

	var fired atomic.Int32
	m.Schedule(50*time.Millisecond, 0, func() {
		fired.Add(1)
	})
	m.Stop()

	time.Sleep(120 * time.Millisecond)
	if got := fired.Load(); got != 0 {
		t.Errorf("no task may fire after Stop, got %d firings", got)
	}
}

func waitUntil(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}
