// Package filecache holds decoded frames for all open windows under one
// byte budget.
//
// Entries are ref counted. Purge evicts unreferenced entries oldest first
// while the cache is over budget; referenced entries are kept even when
// that leaves the cache over budget. A Cache is not safe for concurrent use
// and belongs to the goroutine that drives playback.
package filecache

import (
	"log/slog"
	"math"
	"slices"
	"time"

	"github.com/darbyjohnston/DJV-sub020/internal/domain"
	"github.com/darbyjohnston/DJV-sub020/internal/frame"
	"github.com/darbyjohnston/DJV-sub020/internal/memory"
)

type slot struct {
	window WindowID
	frame  frame.Number
}

// Cache is the shared frame cache
type Cache struct {
	// entries in insertion order; lookups use Peek so the order never moves
	entries *memory.Cache[Key, *Ref]
	// live (non-orphaned) keys per window/frame, oldest first
	index map[slot][]Key

	maxSize     uint64
	currentSize uint64
	windowSize  map[WindowID]uint64

	now       func() time.Time
	lastStamp int64
	logger    *slog.Logger
}

// Option configures a Cache
type Option func(*Cache)

// WithClock sets the time source used for key stamps
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) { c.logger = logger }
}

// New creates a cache with a budget of maxBytes
func New(maxBytes uint64, opts ...Option) *Cache {
	c := &Cache{
		entries:    memory.New[Key, *Ref](math.MaxInt),
		index:      make(map[slot][]Key),
		maxSize:    maxBytes,
		windowSize: make(map[WindowID]uint64),
		now:        time.Now,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// HasItem reports whether key is stored, orphans included
func (c *Cache) HasItem(key Key) bool {
	return c.entries.Contains(key)
}

// Item returns the ref stored under key
func (c *Cache) Item(key Key) (*Ref, bool) {
	return c.entries.Peek(key)
}

// Find returns the newest live key for a window frame
func (c *Cache) Find(window WindowID, n frame.Number) (Key, bool) {
	keys := c.index[slot{window, n}]
	if len(keys) == 0 {
		return Key{}, false
	}
	return keys[len(keys)-1], true
}

// AddItem stores image for a window frame and returns its key. The new ref
// has no references. AddItem never evicts; call Purge afterwards.
func (c *Cache) AddItem(window WindowID, n frame.Number, image *domain.Image) Key {
	stamp := c.now().UnixNano()
	if stamp <= c.lastStamp {
		stamp = c.lastStamp + 1
	}
	c.lastStamp = stamp

	key := Key{Window: window, Frame: n, Stamp: stamp}
	ref := &Ref{image: image, key: key}
	c.entries.Add(key, ref)

	s := slot{window, n}
	c.index[s] = append(c.index[s], key)
	size := ref.byteCount()
	c.currentSize += size
	c.windowSize[window] += size
	return key
}

// Acquire takes a reference on key and returns a handle that releases it
func (c *Cache) Acquire(key Key) (*Handle, bool) {
	ref, ok := c.entries.Peek(key)
	if !ok || ref.orphan {
		return nil, false
	}
	ref.RefInc()
	return &Handle{cache: c, ref: ref}, true
}

// Purge evicts unreferenced entries, oldest first, while the cache is over
// budget. Unreferenced orphans are always removed. It returns the number of
// entries removed.
func (c *Cache) Purge() int {
	removed := 0
	for _, key := range c.entries.Keys() {
		ref, _ := c.entries.Peek(key)
		if ref.refCount > 0 {
			continue
		}
		if ref.orphan || c.currentSize > c.maxSize {
			c.remove(ref)
			removed++
		}
	}
	if removed > 0 {
		c.logger.Debug("Purged frame cache",
			"removed", removed,
			"size", c.currentSize,
			"max", c.maxSize)
	}
	if c.currentSize > c.maxSize {
		c.logger.Debug("Frame cache over budget, remaining entries referenced",
			"size", c.currentSize,
			"max", c.maxSize)
	}
	return removed
}

// RemoveItem removes key. A referenced entry is orphaned instead and goes
// away once its last reference is released.
func (c *Cache) RemoveItem(key Key) bool {
	ref, ok := c.entries.Peek(key)
	if !ok {
		return false
	}
	c.drop(ref)
	return true
}

// ClearItems removes every entry of a window
func (c *Cache) ClearItems(window WindowID) {
	for _, key := range c.entries.Keys() {
		if key.Window != window {
			continue
		}
		ref, _ := c.entries.Peek(key)
		c.drop(ref)
	}
}

// Clear removes every entry. Referenced entries are orphaned.
func (c *Cache) Clear() {
	for _, ref := range c.entries.Values() {
		c.drop(ref)
	}
}

// Frames returns the sorted frame numbers resident for a window
func (c *Cache) Frames(window WindowID) []frame.Number {
	var out []frame.Number
	for s, keys := range c.index {
		if s.window == window && len(keys) > 0 {
			out = append(out, s.frame)
		}
	}
	slices.Sort(out)
	return out
}

// CurrentSize returns the bytes held, orphans included
func (c *Cache) CurrentSize() uint64 { return c.currentSize }

// Size returns the bytes held for one window
func (c *Cache) Size(window WindowID) uint64 { return c.windowSize[window] }

// MaxSize returns the byte budget
func (c *Cache) MaxSize() uint64 { return c.maxSize }

// SetMaxSize changes the budget and purges
func (c *Cache) SetMaxSize(bytes uint64) {
	if bytes == c.maxSize {
		return
	}
	c.maxSize = bytes
	c.Purge()
}

// PercentageUsed returns CurrentSize as a percentage of MaxSize. It can
// exceed 100 when referenced entries hold the cache over budget.
func (c *Cache) PercentageUsed() float64 {
	if c.maxSize == 0 {
		return 0
	}
	return float64(c.currentSize) / float64(c.maxSize) * 100
}

// Len returns the number of entries, orphans included
func (c *Cache) Len() int { return c.entries.Len() }

func (c *Cache) drop(ref *Ref) {
	if ref.refCount > 0 {
		c.orphan(ref)
		return
	}
	c.remove(ref)
}

func (c *Cache) orphan(ref *Ref) {
	if ref.orphan {
		return
	}
	ref.orphan = true
	c.unindex(ref.key)
}

func (c *Cache) remove(ref *Ref) {
	if !c.entries.Remove(ref.key) {
		return
	}
	if !ref.orphan {
		c.unindex(ref.key)
	}
	size := ref.byteCount()
	c.currentSize -= size
	if left := c.windowSize[ref.key.Window] - size; left > 0 {
		c.windowSize[ref.key.Window] = left
	} else {
		delete(c.windowSize, ref.key.Window)
	}
}

func (c *Cache) unindex(key Key) {
	s := slot{key.Window, key.Frame}
	keys := c.index[s]
	if i := slices.Index(keys, key); i >= 0 {
		keys = slices.Delete(keys, i, i+1)
	}
	if len(keys) == 0 {
		delete(c.index, s)
		return
	}
	c.index[s] = keys
}

// release is called by Handle when a reference is returned
func (c *Cache) release(ref *Ref) {
	ref.RefDec()
	if ref.orphan && ref.refCount == 0 {
		c.remove(ref)
	}
}
