package fileseq

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

// ListOptions controls directory listing
type ListOptions struct {
	// Sequences groups numbered files into sequences
	Sequences bool
	// Extensions limits results to these extensions (lower case, with the
	// leading dot). Empty means all files.
	Extensions []string
	// ShowHidden includes dot files
	ShowHidden bool
}

// Lister reads directories through an afero filesystem
type Lister struct {
	fs afero.Fs
}

// NewLister creates a lister. A nil fs reads the OS filesystem.
func NewLister(fs afero.Fs) *Lister {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Lister{fs: fs}
}

// List returns the files in dir sorted by name. With opts.Sequences set,
// numbered files sharing a base name and extension are merged.
func (l *Lister) List(dir string, opts ListOptions) ([]FileInfo, error) {
	entries, err := afero.ReadDir(l.fs, dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}

	prefix := dir
	if prefix != "" && !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}

	var out []FileInfo
	index := make(map[string]int)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !opts.ShowHidden && strings.HasPrefix(name, ".") {
			continue
		}
		fi := New(prefix + name)
		fi.Size = e.Size()
		if !matchExtension(fi.Ext, opts.Extensions) {
			continue
		}

		if opts.Sequences && fi.Number != "" {
			key := fi.Dir + "\x00" + fi.Base + "\x00" + fi.Ext
			if i, ok := index[key]; ok {
				out[i].AddToSequence(fi)
				continue
			}
			index[key] = len(out)
		}
		out = append(out, fi)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Name() < out[j].Name()
	})
	return out, nil
}

// Expand resolves a path given on the command line. A single numbered file
// such as "render.0042.exr" grows into the sequence of its siblings; other
// paths are returned unchanged.
func (l *Lister) Expand(path string) (FileInfo, error) {
	fi := New(path)
	if fi.IsSequence() || fi.Number == "" {
		return fi, nil
	}
	if _, err := l.fs.Stat(path); err != nil {
		return fi, fmt.Errorf("stat %s: %w", path, err)
	}

	dir := fi.Dir
	if dir == "" {
		dir = "."
	}
	files, err := l.List(dir, ListOptions{Sequences: true, ShowHidden: true})
	if err != nil {
		return fi, err
	}
	for _, candidate := range files {
		if candidate.IsSequence() && candidate.Base == fi.Base && candidate.Ext == fi.Ext {
			// Keep the caller's directory spelling
			candidate.Dir = fi.Dir
			return candidate, nil
		}
	}
	return fi, nil
}

func matchExtension(ext string, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}
	ext = strings.ToLower(ext)
	for _, a := range allowed {
		if a == ext {
			return true
		}
	}
	return false
}
