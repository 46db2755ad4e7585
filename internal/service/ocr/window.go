package ocr

import (
	"strings"
	"unicode/utf8"

	"medaware/internal/model"
)

const (
	// MinConfidence is the exclusive lower bound for an accepted reading.
	MinConfidence = 0.4
	// MinLength is the exclusive lower bound on accepted text length in characters.
	MinLength = 3
)

// Accept filters raw recognizer output and normalizes the kept text to upper case.
func Accept(readings []model.Reading) []string {
	var accepted []string
	for _, r := range readings {
		if r.Confidence <= MinConfidence || utf8.RuneCountInString(r.Text) <= MinLength {
			continue
		}
		accepted = append(accepted, strings.ToUpper(r.Text))
	}
	return accepted
}

// Window is a bounded FIFO of accepted readings whose majority element is the
// consensus label. It is not safe for concurrent use.
type Window struct {
	capacity int
	entries  []string
}

// NewWindow creates an empty window holding at most capacity entries.
func NewWindow(capacity int) *Window {
	if capacity <= 0 {
		capacity = 1
	}
	return &Window{
		capacity: capacity,
		entries:  make([]string, 0, capacity),
	}
}

// Push appends text, evicting the oldest entry when the window is full.
func (w *Window) Push(text string) {
	if len(w.entries) == w.capacity {
		copy(w.entries, w.entries[1:])
		w.entries = w.entries[:len(w.entries)-1]
	}
	w.entries = append(w.entries, text)
}

// Len returns the number of buffered entries.
func (w *Window) Len() int {
	return len(w.entries)
}

// Entries returns a copy of the buffered entries, oldest first.
func (w *Window) Entries() []string {
	out := make([]string, len(w.entries))
	copy(out, w.entries)
	return out
}

// Majority returns the most frequent entry. Ties go to the entry whose first
// occurrence is earliest. ok is false for an empty window.
func (w *Window) Majority() (label string, ok bool) {
	if len(w.entries) == 0 {
		return "", false
	}

	counts := make(map[string]int, len(w.entries))
	for _, e := range w.entries {
		counts[e]++
	}

	best := 0
	for _, e := range w.entries {
		// strictly greater keeps the earliest first occurrence on ties
		if counts[e] > best {
			best = counts[e]
			label = e
		}
	}
	return label, true
}
