// Package codec maps file extensions to decoders.
package codec

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/afero"

	"github.com/darbyjohnston/DJV-sub020/internal/domain"
)

// Format describes one image file format
type Format struct {
	Name       string
	Extensions []string
	// New creates a decoder reading through fs
	New func(fs afero.Fs) domain.Decoder
}

// Registry looks up decoders by file extension. It is safe for concurrent
// use.
type Registry struct {
	fs afero.Fs

	mu      sync.RWMutex
	formats map[string]Format
}

// NewRegistry creates a registry with the built-in formats. A nil fs reads
// the OS filesystem.
func NewRegistry(fs afero.Fs) *Registry {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	r := &Registry{fs: fs, formats: make(map[string]Format)}
	for _, f := range builtinFormats() {
		r.Register(f)
	}
	return r
}

// Register adds a format, replacing earlier formats with the same
// extensions
func (r *Registry) Register(f Format) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ext := range f.Extensions {
		r.formats[normalizeExt(ext)] = f
	}
}

// Lookup returns the format handling the extension of fileName
func (r *Registry) Lookup(fileName string) (Format, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.formats[normalizeExt(filepath.Ext(fileName))]
	return f, ok
}

// Decoder creates a decoder for fileName
func (r *Registry) Decoder(fileName string) (domain.Decoder, error) {
	f, ok := r.Lookup(fileName)
	if !ok {
		return nil, fmt.Errorf("%s: %w", fileName, domain.ErrUnsupportedFormat)
	}
	return f.New(r.fs), nil
}

// Extensions returns every registered extension, sorted
func (r *Registry) Extensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exts := make([]string, 0, len(r.formats))
	for ext := range r.formats {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Supports reports whether a decoder is registered for fileName
func (r *Registry) Supports(fileName string) bool {
	_, ok := r.Lookup(fileName)
	return ok
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
