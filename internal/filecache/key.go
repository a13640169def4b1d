package filecache

import (
	"bytes"
	"cmp"

	"github.com/google/uuid"

	"github.com/darbyjohnston/DJV-sub020/internal/domain"
	"github.com/darbyjohnston/DJV-sub020/internal/frame"
)

// WindowID identifies the view that owns cached frames. It is only ever
// compared, never dereferenced.
type WindowID uuid.UUID

// NewWindowID returns a fresh random id
func NewWindowID() WindowID {
	return WindowID(uuid.New())
}

// String returns the canonical uuid form
func (w WindowID) String() string {
	return uuid.UUID(w).String()
}

// Key addresses one cached image. Stamp is the insertion time in
// nanoseconds, so re-decoding a frame produces a distinct key.
type Key struct {
	Window WindowID
	Frame  frame.Number
	Stamp  int64
}

// Compare orders keys by window, frame, then stamp
func (k Key) Compare(o Key) int {
	if c := bytes.Compare(k.Window[:], o.Window[:]); c != 0 {
		return c
	}
	if c := cmp.Compare(k.Frame, o.Frame); c != 0 {
		return c
	}
	return cmp.Compare(k.Stamp, o.Stamp)
}

// Ref is a cached image with its reference count. Entries with a non-zero
// count are never purged.
type Ref struct {
	image    *domain.Image
	key      Key
	refCount int
	orphan   bool
}

// Image returns the cached image
func (r *Ref) Image() *domain.Image { return r.image }

// Key returns the key the ref was stored under
func (r *Ref) Key() Key { return r.key }

// RefCount returns the number of outstanding references
func (r *Ref) RefCount() int { return r.refCount }

// RefInc adds a reference. Prefer Cache.Acquire, which pairs the decrement.
func (r *Ref) RefInc() { r.refCount++ }

// RefDec drops a reference. The count never goes below zero.
func (r *Ref) RefDec() {
	if r.refCount > 0 {
		r.refCount--
	}
}

// Orphaned reports whether the entry was removed while referenced. Orphans
// are invisible to lookups and are dropped once released.
func (r *Ref) Orphaned() bool { return r.orphan }

func (r *Ref) byteCount() uint64 { return r.image.ByteCount() }
