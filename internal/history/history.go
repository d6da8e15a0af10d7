// Package history defines how timeline mutations are handed to the undo
// layer. Each mutation is recorded as a Command holding before and after
// snapshots so it can be reverted or re-applied on its own.
package history

import (
	"fmt"
	"sync"

	"lessoncut/internal/timeline"
)

// Op names a timeline mutation.
type Op string

const (
	OpAdd       Op = "add"
	OpMove      Op = "move"
	OpResize    Op = "resize"
	OpRemove    Op = "remove"
	OpDuplicate Op = "duplicate"
)

// Command is one undoable timeline mutation. Before is nil for clips that
// did not exist prior to the command; After is nil for removals.
type Command struct {
	Op     Op
	ClipID string
	Before *timeline.Clip
	After  *timeline.Clip
}

// Recorder receives every committed timeline mutation.
type Recorder interface {
	Record(Command)
}

// Nop discards commands.
type Nop struct{}

func (Nop) Record(Command) {}

// Log is an in-memory Recorder with linear undo and redo.
type Log struct {
	mu      sync.Mutex
	entries []Command
	cursor  int
}

// NewLog returns an empty log.
func NewLog() *Log {
	return &Log{}
}

// Record appends cmd and drops any redo tail.
func (l *Log) Record(cmd Command) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries[:l.cursor], cmd)
	l.cursor = len(l.entries)
}

// Entries returns the applied commands, oldest first.
func (l *Log) Entries() []Command {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Command(nil), l.entries[:l.cursor]...)
}

// Undo reverts the most recent applied command on tl. It reports false when
// nothing is left to undo.
func (l *Log) Undo(tl *timeline.Timeline) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cursor == 0 {
		return false, nil
	}
	cmd := l.entries[l.cursor-1]
	if err := apply(tl, cmd.ClipID, cmd.Before); err != nil {
		return false, fmt.Errorf("undo %s: %w", cmd.Op, err)
	}
	l.cursor--
	return true, nil
}

// Redo re-applies the most recently undone command on tl.
func (l *Log) Redo(tl *timeline.Timeline) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cursor == len(l.entries) {
		return false, nil
	}
	cmd := l.entries[l.cursor]
	if err := apply(tl, cmd.ClipID, cmd.After); err != nil {
		return false, fmt.Errorf("redo %s: %w", cmd.Op, err)
	}
	l.cursor++
	return true, nil
}

// apply sets clip id to snapshot, removing it when snapshot is nil.
func apply(tl *timeline.Timeline, id string, snapshot *timeline.Clip) error {
	if tl == nil {
		return fmt.Errorf("nil timeline")
	}
	if snapshot == nil {
		if _, ok := tl.Remove(id); !ok {
			return fmt.Errorf("%w: %s", timeline.ErrClipNotFound, id)
		}
		return nil
	}
	tl.Restore(*snapshot)
	return nil
}

// Snapshot returns a heap copy of clip for use in a Command.
func Snapshot(clip timeline.Clip) *timeline.Clip {
	c := clip.Clone()
	return &c
}
