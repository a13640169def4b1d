package filecache

import "github.com/darbyjohnston/DJV-sub020/internal/domain"

// Handle holds one reference on a cached image. The entry cannot be purged
// until Release is called.
type Handle struct {
	cache    *Cache
	ref      *Ref
	released bool
}

// Image returns the referenced image. It stays valid after Release only as
// long as the caller keeps the pointer; the cache may drop it at any time.
func (h *Handle) Image() *domain.Image {
	if h == nil {
		return nil
	}
	return h.ref.image
}

// Key returns the key of the referenced entry, or the zero Key for a nil
// handle
func (h *Handle) Key() Key {
	if h == nil {
		return Key{}
	}
	return h.ref.key
}

// Release returns the reference. Calling it more than once, or on a nil
// handle, does nothing.
func (h *Handle) Release() {
	if h == nil || h.released {
		return
	}
	h.released = true
	h.cache.release(h.ref)
}
