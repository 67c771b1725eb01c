// Package actionlog defines the editing-action log that every analysis reads.
//
// An action log is an ordered, immutable sequence of editing events captured
// by an external collaborator (an instrumented editor). The engine never
// captures input itself and never mutates a log after decoding it; one log
// is owned for the lifetime of exactly one analysis call.
//
// Each action kind carries only the payload valid for that kind, so an
// impossible combination (a pause with a cursor range, say) cannot be
// represented. Consumers dispatch with a type switch over the concrete types.
package actionlog

import (
	"errors"
	"fmt"
)

// ErrEmptyLog is returned when an analysis is requested for an empty log.
var ErrEmptyLog = errors.New("action log is empty")

// Kind identifies the type of an editing action.
type Kind string

const (
	KindInsert  Kind = "insert"
	KindDelete  Kind = "delete"
	KindCursor  Kind = "cursor"
	KindPause   Kind = "pause"
	KindKeyDown Kind = "keydown"
	KindKeyUp   Kind = "keyup"
)

// Action is one observed editing event. Timestamps are monotonic
// milliseconds since the session epoch, ascending within a log.
type Action interface {
	// Kind returns the action kind tag.
	Kind() Kind

	// Timestamp returns milliseconds since the session epoch.
	Timestamp() int64
}

// Insert is text added at the cursor.
type Insert struct {
	At      int64
	Content string
}

func (a Insert) Kind() Kind       { return KindInsert }
func (a Insert) Timestamp() int64 { return a.At }

// Delete is text removed at the cursor.
type Delete struct {
	At int64
}

func (a Delete) Kind() Kind       { return KindDelete }
func (a Delete) Timestamp() int64 { return a.At }

// Cursor is a cursor movement or selection change.
type Cursor struct {
	At   int64
	From int
	To   int
}

func (a Cursor) Kind() Kind       { return KindCursor }
func (a Cursor) Timestamp() int64 { return a.At }

// Pause is a detected gap in typing, reported by the capture collaborator's
// pause timer.
type Pause struct {
	At         int64
	DurationMs int64
}

func (a Pause) Kind() Kind       { return KindPause }
func (a Pause) Timestamp() int64 { return a.At }

// KeyDown is a key press. DwellMs is the key-down to key-up duration for
// the same key, when the collaborator measured it.
type KeyDown struct {
	At       int64
	Content  string
	DwellMs  float64
	FlightMs float64
}

func (a KeyDown) Kind() Kind       { return KindKeyDown }
func (a KeyDown) Timestamp() int64 { return a.At }

// KeyUp is a key release.
type KeyUp struct {
	At      int64
	Content string
}

func (a KeyUp) Kind() Kind       { return KindKeyUp }
func (a KeyUp) Timestamp() int64 { return a.At }

// Log is an ordered action sequence.
type Log []Action

// Validate checks that the log is non-empty and ordered by timestamp.
func (l Log) Validate() error {
	if len(l) == 0 {
		return ErrEmptyLog
	}
	for i := 1; i < len(l); i++ {
		if l[i].Timestamp() < l[i-1].Timestamp() {
			return fmt.Errorf("action %d out of order: %d < %d", i, l[i].Timestamp(), l[i-1].Timestamp())
		}
	}
	return nil
}

// Span returns the first and last timestamps of the log.
// A single-action log spans zero milliseconds.
func (l Log) Span() (first, last int64) {
	if len(l) == 0 {
		return 0, 0
	}
	return l[0].Timestamp(), l[len(l)-1].Timestamp()
}

// ElapsedMs returns the elapsed time between first and last action.
func (l Log) ElapsedMs() int64 {
	first, last := l.Span()
	return last - first
}

// Inserts returns the insert actions in log order.
func (l Log) Inserts() []Insert {
	var out []Insert
	for _, a := range l {
		if ins, ok := a.(Insert); ok {
			out = append(out, ins)
		}
	}
	return out
}
