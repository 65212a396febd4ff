package trigger

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestCell_CoalescesBurst(t *testing.T) {
	clock := NewManualScheduler()
	cell := New(50*time.Millisecond, WithScheduler(clock))

	runs := 0
	cell.Subscribe(func(bool) { runs++ })

	for i := 0; i < 5; i++ {
		cell.Toggle()
		clock.Advance(10 * time.Millisecond)
	}
	if runs != 0 {
		t.Fatalf("notified during the burst: %d", runs)
	}

	clock.Advance(50 * time.Millisecond)
	if runs != 1 {
		t.Errorf("runs = %d, want 1", runs)
	}
	if cell.Ticks() != 1 {
		t.Errorf("Ticks = %d, want 1", cell.Ticks())
	}
}

func TestCell_NotifiesEvenWhenValueUnchanged(t *testing.T) {
	clock := NewManualScheduler()
	cell := New(50*time.Millisecond, WithScheduler(clock))

	runs := 0
	cell.Subscribe(func(bool) { runs++ })

	before := cell.Value()
	cell.Toggle()
	cell.Toggle()
	if cell.Value() != before {
		t.Fatal("two toggles should restore the value")
	}

	clock.Advance(50 * time.Millisecond)
	if runs != 1 {
		t.Errorf("runs = %d, want 1 regardless of parity", runs)
	}
}

func TestCell_SubscriptionOrder(t *testing.T) {
	clock := NewManualScheduler()
	cell := New(50*time.Millisecond, WithScheduler(clock))

	var order []int
	for i := 0; i < 3; i++ {
		i := i
		cell.Subscribe(func(bool) { order = append(order, i) })
	}

	cell.Toggle()
	clock.Advance(50 * time.Millisecond)

	if len(order) != 3 || order[0] != 0 || order[1] != 1 || order[2] != 2 {
		t.Errorf("order = %v, want [0 1 2]", order)
	}
}

func TestCell_ToggleDuringDeliveryArmsNextTick(t *testing.T) {
	clock := NewManualScheduler()
	cell := New(50*time.Millisecond, WithScheduler(clock))

	runs := 0
	cell.Subscribe(func(bool) {
		runs++
		if runs < 3 {
			cell.Toggle()
		}
	})

	cell.Toggle()
	clock.Advance(50 * time.Millisecond)
	if runs != 1 {
		t.Fatalf("runs = %d, want 1 after first tick", runs)
	}

	clock.Advance(200 * time.Millisecond)
	if runs != 3 {
		t.Errorf("runs = %d, want 3", runs)
	}
	if clock.Pending() != 0 {
		t.Errorf("Pending = %d, want 0", clock.Pending())
	}
}

func TestCell_Unsubscribe(t *testing.T) {
	clock := NewManualScheduler()
	cell := New(50*time.Millisecond, WithScheduler(clock))

	a, b := 0, 0
	unsubA := cell.Subscribe(func(bool) { a++ })
	var unsubB func()
	unsubB = cell.Subscribe(func(bool) {
		b++
		unsubB()
	})

	cell.Toggle()
	clock.Advance(50 * time.Millisecond)
	unsubA()
	unsubA() // idempotent

	cell.Toggle()
	clock.Advance(50 * time.Millisecond)

	if a != 1 || b != 1 {
		t.Errorf("a=%d b=%d, want 1 and 1", a, b)
	}
	if cell.Subscribers() != 0 {
		t.Errorf("Subscribers = %d, want 0", cell.Subscribers())
	}
}

func TestCell_UnsubscribeLaterSubscriberDuringPass(t *testing.T) {
	clock := NewManualScheduler()
	cell := New(50*time.Millisecond, WithScheduler(clock))

	second := 0
	var unsubSecond func()
	cell.Subscribe(func(bool) { unsubSecond() })
	unsubSecond = cell.Subscribe(func(bool) { second++ })

	cell.Toggle()
	clock.Advance(50 * time.Millisecond)
	if second != 0 {
		t.Errorf("removed subscriber ran %d times", second)
	}
}

func TestCell_Close(t *testing.T) {
	clock := NewManualScheduler()
	cell := New(50*time.Millisecond, WithScheduler(clock))

	runs := 0
	cell.Subscribe(func(bool) { runs++ })
	cell.Toggle()
	cell.Close()
	clock.Advance(time.Second)

	if runs != 0 {
		t.Errorf("closed cell delivered %d ticks", runs)
	}

	cell.Toggle()
	if clock.Pending() != 0 {
		t.Error("toggle after close should not schedule")
	}
	cell.Subscribe(func(bool) { runs++ })
	if cell.Subscribers() != 0 {
		t.Error("subscribe after close should be a no-op")
	}
}

func TestCell_DefaultDelay(t *testing.T) {
	if d := New(0).Delay(); d != DefaultDelay {
		t.Errorf("Delay = %v, want %v", d, DefaultDelay)
	}
	if d := New(-time.Second).Delay(); d != DefaultDelay {
		t.Errorf("Delay = %v, want %v", d, DefaultDelay)
	}
}

func TestCell_RealScheduler(t *testing.T) {
	cell := New(5 * time.Millisecond)
	defer cell.Close()

	var runs atomic.Int32
	var wg sync.WaitGroup
	wg.Add(1)
	cell.Subscribe(func(bool) {
		if runs.Add(1) == 1 {
			wg.Done()
		}
	})

	for i := 0; i < 10; i++ {
		cell.Toggle()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("tick was never delivered")
	}

	time.Sleep(30 * time.Millisecond)
	if n := runs.Load(); n != 1 {
		t.Errorf("runs = %d, want 1", n)
	}
}

func TestManualScheduler_StopAndOrder(t *testing.T) {
	clock := NewManualScheduler()
	var fired []string

	clock.AfterFunc(20*time.Millisecond, func() { fired = append(fired, "b") })
	clock.AfterFunc(10*time.Millisecond, func() { fired = append(fired, "a") })
	stopped := clock.AfterFunc(15*time.Millisecond, func() { fired = append(fired, "x") })

	if !stopped.Stop() {
		t.Error("Stop should report a pending timer")
	}
	if stopped.Stop() {
		t.Error("second Stop should report false")
	}

	clock.Advance(15 * time.Millisecond)
	if len(fired) != 1 || fired[0] != "a" {
		t.Errorf("fired = %v, want [a]", fired)
	}
	if got := clock.Now(); !got.Equal(time.Unix(0, 0).Add(15 * time.Millisecond)) {
		t.Errorf("Now = %v", got)
	}

	clock.Advance(10 * time.Millisecond)
	if len(fired) != 2 || fired[1] != "b" {
		t.Errorf("fired = %v, want [a b]", fired)
	}
}
