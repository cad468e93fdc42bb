package entities

import (
	"time"

	"loom-backend/domain/core/valueobjects"
)

// Buffer is a named cursor with linear undo/redo history over the content
// graph. It never owns content: history entries are node ids, and forking a
// buffer copies the cursor, not the nodes.
//
// Invariant: when the history is non-empty, ActiveNodeID() == history[cursor].
type Buffer struct {
	id           valueobjects.BufferID
	name         string
	pinned       bool
	history      []valueobjects.NodeID
	cursor       int // -1 while the history is empty
	createdAt    time.Time
	lastActiveAt time.Time
}

// NewBuffer creates an empty buffer
func NewBuffer(name string) *Buffer {
	now := time.Now()
	return &Buffer{
		id:           valueobjects.NewBufferID(),
		name:         name,
		cursor:       -1,
		createdAt:    now,
		lastActiveAt: now,
	}
}

// ID returns the buffer's unique identifier
func (b *Buffer) ID() valueobjects.BufferID {
	return b.id
}

// Name returns the buffer's display name
func (b *Buffer) Name() string {
	return b.name
}

// Rename changes the buffer's display name
func (b *Buffer) Rename(name string) {
	b.name = name
}

// Pinned reports whether the buffer is exempt from list-management eviction
func (b *Buffer) Pinned() bool {
	return b.pinned
}

// SetPinned marks or unmarks the buffer as pinned
func (b *Buffer) SetPinned(pinned bool) {
	b.pinned = pinned
}

// CreatedAt returns when the buffer was created
func (b *Buffer) CreatedAt() time.Time {
	return b.createdAt
}

// LastActiveAt returns when the buffer was last activated
func (b *Buffer) LastActiveAt() time.Time {
	return b.lastActiveAt
}

// Touch records an activation for list-management ordering
func (b *Buffer) Touch() {
	b.lastActiveAt = time.Now()
}

// Push appends a node at the cursor and discards any previously-undone
// forward entries. The pushed node becomes the active node.
func (b *Buffer) Push(id valueobjects.NodeID) {
	b.history = append(b.history[:b.cursor+1], id)
	b.cursor = len(b.history) - 1
}

// Undo moves the cursor back by one; no-op at the start of history.
// Returns whether the cursor moved.
func (b *Buffer) Undo() bool {
	if !b.CanUndo() {
		return false
	}
	b.cursor--
	return true
}

// Redo moves the cursor forward by one; no-op at the end of history.
// Returns whether the cursor moved.
func (b *Buffer) Redo() bool {
	if !b.CanRedo() {
		return false
	}
	b.cursor++
	return true
}

// CanUndo reports whether an earlier history entry exists
func (b *Buffer) CanUndo() bool {
	return b.cursor > 0
}

// CanRedo reports whether a forward history entry exists
func (b *Buffer) CanRedo() bool {
	return b.cursor < len(b.history)-1
}

// ActiveNodeID returns the node the cursor points at; zero while empty
func (b *Buffer) ActiveNodeID() valueobjects.NodeID {
	if b.cursor < 0 {
		return valueobjects.NodeID{}
	}
	return b.history[b.cursor]
}

// History returns a copy of the buffer's history, oldest first
func (b *Buffer) History() []valueobjects.NodeID {
	out := make([]valueobjects.NodeID, len(b.history))
	copy(out, b.history)
	return out
}

// Cursor returns the cursor index; -1 while the history is empty
func (b *Buffer) Cursor() int {
	return b.cursor
}

// Len returns the number of history entries
func (b *Buffer) Len() int {
	return len(b.history)
}

// Clone returns a copy safe to read after the manager's lock is released.
// History is copied; ids and timestamps are values.
func (b *Buffer) Clone() *Buffer {
	out := *b
	out.history = make([]valueobjects.NodeID, len(b.history))
	copy(out.history, b.history)
	return &out
}

// Fork creates a new buffer whose history is copied up to and including the
// current cursor position. Subsequent pushes on either buffer do not affect
// the other; both reference the same nodes until one diverges.
func (b *Buffer) Fork(name string) *Buffer {
	forked := NewBuffer(name)
	forked.history = make([]valueobjects.NodeID, b.cursor+1)
	copy(forked.history, b.history[:b.cursor+1])
	forked.cursor = b.cursor
	return forked
}
