package session

import (
	"sync/atomic"
	"time"

	"medaware/internal/service/ocr"
)

// ScanningName is the stable name shown until OCR produces a consensus.
const ScanningName = "Scanning..."

// LatchKey identifies one reminder occurrence.
type LatchKey struct {
	ReminderID int64
	Day        string // 2006-01-02
}

// State is the mutable state of one streaming session.
//
// Every field except busy and lastSeen is owned by the goroutine that holds the
// admission (TryAdmit returned true) and must only be touched until Release.
// The atomic busy flag orders those accesses between consecutive frames.
type State struct {
	Key int64

	busy     atomic.Bool
	lastSeen atomic.Int64 // unix nanos

	FrameCounter uint64
	Window       *ocr.Window
	StableName   string

	latches   map[LatchKey]bool
	reminders map[int64]bool // reminders validated for this user
}

func newState(key int64, windowSize int, now time.Time) *State {
	s := &State{
		Key:        key,
		Window:     ocr.NewWindow(windowSize),
		StableName: ScanningName,
		latches:    make(map[LatchKey]bool),
		reminders:  make(map[int64]bool),
	}
	s.lastSeen.Store(now.UnixNano())
	return s
}

// TryAdmit claims the session for one frame. It returns false without side
// effects when another frame is in flight.
func (s *State) TryAdmit() bool {
	return s.busy.CompareAndSwap(false, true)
}

// Release ends the admission obtained by TryAdmit.
func (s *State) Release() {
	s.lastSeen.Store(time.Now().UnixNano())
	s.busy.Store(false)
}

// Busy reports whether a frame is in flight.
func (s *State) Busy() bool {
	return s.busy.Load()
}

// LastSeen returns when the session last finished a frame (or was created).
func (s *State) LastSeen() time.Time {
	return time.Unix(0, s.lastSeen.Load())
}

// Latched reports whether the occurrence is already verified in this session.
func (s *State) Latched(key LatchKey) bool {
	return s.latches[key]
}

// Latch marks the occurrence verified. It never resets.
func (s *State) Latch(key LatchKey) {
	s.latches[key] = true
}

// ReminderValidated reports whether ownership of rid was already confirmed.
func (s *State) ReminderValidated(rid int64) bool {
	return s.reminders[rid]
}

// MarkReminderValidated caches a confirmed reminder ownership.
func (s *State) MarkReminderValidated(rid int64) {
	s.reminders[rid] = true
}
