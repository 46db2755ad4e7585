package session

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestStore_GetOrCreateDefaults(t *testing.T) {
	store := NewStore(4)

	state := store.GetOrCreate(1)
	if state.StableName != ScanningName {
		t.Errorf("Expected stable name %q, got %q", ScanningName, state.StableName)
	}
	if state.FrameCounter != 0 {
		t.Errorf("Expected counter 0, got %d", state.FrameCounter)
	}
	if state.Busy() {
		t.Error("New session should not be busy")
	}
	if state.Window.Len() != 0 {
		t.Errorf("Expected empty OCR window, got %d", state.Window.Len())
	}

	if again := store.GetOrCreate(1); again != state {
		t.Error("Expected the same state for the same key")
	}
	if other := store.GetOrCreate(2); other == state {
		t.Error("Expected distinct states for distinct keys")
	}
	if store.Len() != 2 {
		t.Errorf("Expected 2 sessions, got %d", store.Len())
	}
}

func TestStore_LookupDoesNotCreate(t *testing.T) {
	store := NewStore(0)

	if _, ok := store.Lookup(5); ok {
		t.Error("Lookup should not find an unseen key")
	}
	if store.Len() != 0 {
		t.Errorf("Lookup must not create sessions, got %d", store.Len())
	}
}

func TestStore_ConcurrentGetOrCreate(t *testing.T) {
	store := NewStore(8)

	var wg sync.WaitGroup
	results := make([]*State, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			results[idx] = store.GetOrCreate(int64(idx % 5))
		}(i)
	}
	wg.Wait()

	for i, state := range results {
		if state != results[i%5] {
			t.Errorf("Goroutine %d got a different state for key %d", i, i%5)
		}
	}
	if store.Len() != 5 {
		t.Errorf("Expected 5 sessions, got %d", store.Len())
	}
}

func TestState_TryAdmitIsExclusive(t *testing.T) {
	state := NewStore(1).GetOrCreate(1)

	if !state.TryAdmit() {
		t.Fatal("First admission should succeed")
	}
	if state.TryAdmit() {
		t.Fatal("Second admission should be refused while busy")
	}
	state.Release()
	if !state.TryAdmit() {
		t.Fatal("Admission should succeed after release")
	}
	state.Release()
}

func TestState_TryAdmitUnderContention(t *testing.T) {
	state := NewStore(1).GetOrCreate(1)

	var (
		admitted atomic.Int32
		start    = make(chan struct{})
		wg       sync.WaitGroup
	)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if state.TryAdmit() {
				admitted.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	if admitted.Load() != 1 {
		t.Errorf("Expected exactly one admission, got %d", admitted.Load())
	}
}

func TestState_LatchNeverResets(t *testing.T) {
	state := NewStore(1).GetOrCreate(1)
	key := LatchKey{ReminderID: 7, Day: "2026-03-14"}

	if state.Latched(key) {
		t.Fatal("Latch should start open")
	}
	state.Latch(key)
	state.Latch(key)
	if !state.Latched(key) {
		t.Fatal("Latch should be closed")
	}
	if state.Latched(LatchKey{ReminderID: 7, Day: "2026-03-15"}) {
		t.Error("A new day must get its own latch")
	}
}

func TestStore_SweepRemovesIdleSessions(t *testing.T) {
	store := NewStore(2)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	idle := store.GetOrCreate(1)
	busy := store.GetOrCreate(2)
	fresh := store.GetOrCreate(3)

	idle.lastSeen.Store(now.Add(-time.Hour).UnixNano())
	busy.lastSeen.Store(now.Add(-time.Hour).UnixNano())
	fresh.lastSeen.Store(now.Add(-time.Second).UnixNano())
	busy.TryAdmit()

	removed := store.Sweep(10 * time.Minute)
	if removed != 1 {
		t.Fatalf("Expected 1 removed session, got %d", removed)
	}
	if _, ok := store.Lookup(1); ok {
		t.Error("Idle session should be removed")
	}
	if _, ok := store.Lookup(2); !ok {
		t.Error("Busy session must survive the sweep")
	}
	if _, ok := store.Lookup(3); !ok {
		t.Error("Recently active session must survive the sweep")
	}
	if fresh.Busy() {
		t.Error("Sweep must leave surviving sessions admissible")
	}
	if idle.TryAdmit() {
		t.Error("A swept state must refuse admission")
	}
	if replacement := store.GetOrCreate(1); replacement == idle {
		t.Error("Expected a fresh state after sweep")
	}
}

func TestStore_SweepLeavesActiveSessionsUnclaimed(t *testing.T) {
	store := NewStore(1)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	active := store.GetOrCreate(1)
	active.lastSeen.Store(now.Add(-time.Second).UnixNano())

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-stop:
				return
			default:
				store.Sweep(10 * time.Minute)
			}
		}
	}()

	// a sweep must never hold an active session's gate
	for i := 0; i < 10000; i++ {
		if !active.TryAdmit() {
			close(stop)
			<-done
			t.Fatalf("Admission %d refused while sweeping an active session", i)
		}
		active.lastSeen.Store(now.UnixNano())
		active.busy.Store(false)
	}
	close(stop)
	<-done

	if _, ok := store.Lookup(1); !ok {
		t.Error("Active session must survive the sweep")
	}
}
