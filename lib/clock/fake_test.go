// Copyright 2026 The Chanops Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"testing"
	"time"
)

func TestFakeNow(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	fake := Fake(start)

	if got := fake.Now(); !got.Equal(start) {
		t.Errorf("Now() = %v, want %v", got, start)
	}

	fake.Advance(time.Hour)
	if got := fake.Now(); !got.Equal(start.Add(time.Hour)) {
		t.Errorf("Now() after Advance = %v, want %v", got, start.Add(time.Hour))
	}
}

func TestFakeAfter(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("fires at deadline", func(t *testing.T) {
		fake := Fake(start)
		ch := fake.After(10 * time.Minute)

		select {
		case <-ch:
			t.Fatal("fired before Advance")
		default:
		}

		fake.Advance(10 * time.Minute)
		select {
		case fired := <-ch:
			if !fired.Equal(start.Add(10 * time.Minute)) {
				t.Errorf("fired at %v, want %v", fired, start.Add(10*time.Minute))
			}
		default:
			t.Fatal("did not fire after Advance past deadline")
		}
	})

	t.Run("zero duration fires immediately", func(t *testing.T) {
		fake := Fake(start)
		select {
		case <-fake.After(0):
		default:
			t.Fatal("After(0) did not fire immediately")
		}
	})

	t.Run("does not fire early", func(t *testing.T) {
		fake := Fake(start)
		ch := fake.After(time.Hour)
		fake.Advance(59 * time.Minute)
		select {
		case <-ch:
			t.Fatal("fired before deadline")
		default:
		}
	})

	t.Run("fires once", func(t *testing.T) {
		fake := Fake(start)
		ch := fake.After(time.Minute)
		fake.Advance(time.Minute)
		fake.Advance(time.Minute)
		<-ch
		select {
		case <-ch:
			t.Fatal("fired twice")
		default:
		}
	})
}

func TestFakeSleep(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	fake := Fake(start)

	done := make(chan struct{})
	go func() {
		fake.Sleep(30 * time.Second)
		close(done)
	}()

	// Wait for the goroutine to register its waiter.
	for fake.SleeperCount() == 0 {
		time.Sleep(time.Millisecond)
	}

	fake.Advance(30 * time.Second)
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Sleep did not return after Advance")
	}
}

func TestFakeSet(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	fake := Fake(start)
	ch := fake.After(24 * time.Hour)

	fake.Set(start.Add(25 * time.Hour))
	select {
	case <-ch:
	default:
		t.Fatal("Set past deadline did not fire waiter")
	}
}
