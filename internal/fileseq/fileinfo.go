// Package fileseq splits file names into their sequence components and
// groups numbered files into frame sequences.
package fileseq

import (
	"path/filepath"
	"strings"

	"github.com/darbyjohnston/DJV-sub020/internal/frame"
)

// Type distinguishes single files from numbered sequences
type Type int

const (
	TypeFile Type = iota
	TypeSequence
)

// String returns the type name
func (t Type) String() string {
	if t == TypeSequence {
		return "sequence"
	}
	return "file"
}

// FileInfo is a file name split into directory, base name, frame number
// and extension, e.g. "/shots/render." "0001" ".exr". A FileInfo of
// TypeSequence carries the frame numbers it covers.
type FileInfo struct {
	Dir    string
	Base   string
	Number string
	Ext    string
	Size   int64

	typ Type
	seq frame.Sequence
}

// Split breaks a path into directory, base, number and extension. The
// number is the run of digits (optionally written as a sequence such as
// "1-10,20") immediately before the extension.
func Split(path string) (dir, base, number, ext string) {
	dir, name := filepath.Split(path)

	stem := name
	if i := strings.LastIndexByte(name, '.'); i > 0 {
		candidate := name[i:]
		// "render.0001" has no extension; the digits are the frame
		if !isNumberText(candidate[1:]) {
			stem, ext = name[:i], candidate
		}
	}

	j := len(stem)
	for j > 0 && isNumberChar(stem[j-1]) {
		j--
	}
	// A leading '-' belongs to the number only when it follows a separator,
	// so "shot-0001" keeps its dash in the base name.
	for j < len(stem) && (stem[j] == '-' || stem[j] == ',') {
		if stem[j] == '-' && j > 0 && isSeparator(stem[j-1]) && j+1 < len(stem) {
			break
		}
		j++
	}
	if j == len(stem) || !hasDigit(stem[j:]) {
		return dir, stem, "", ext
	}
	return dir, stem[:j], stem[j:], ext
}

// New creates a FileInfo from a path. A number written as a range
// ("render.1-10.exr") produces a sequence.
func New(path string) FileInfo {
	dir, base, number, ext := Split(path)
	fi := FileInfo{Dir: dir, Base: base, Number: number, Ext: ext}
	if strings.ContainsAny(strings.TrimPrefix(number, "-"), "-,") {
		if seq, err := frame.Parse(number); err == nil && seq.IsValid() {
			fi.typ = TypeSequence
			fi.seq = seq
		}
	}
	return fi
}

// Type returns whether the info is a single file or a sequence
func (f FileInfo) Type() Type { return f.typ }

// Sequence returns the frames covered by a sequence
func (f FileInfo) Sequence() frame.Sequence { return f.seq }

// IsSequence returns true for TypeSequence
func (f FileInfo) IsSequence() bool { return f.typ == TypeSequence }

// SetSequence turns the info into a sequence covering seq
func (f *FileInfo) SetSequence(seq frame.Sequence) {
	f.typ = TypeSequence
	f.seq = seq
	f.Number = seq.String()
}

// Path returns the full path. Sequences are written with their frame
// ranges, e.g. "render.0001-0100.exr".
func (f FileInfo) Path() string {
	if f.typ == TypeSequence && f.seq.IsValid() {
		return f.Dir + f.Base + f.seq.String() + f.Ext
	}
	return f.Dir + f.Base + f.Number + f.Ext
}

// Name returns Path without the directory
func (f FileInfo) Name() string {
	return strings.TrimPrefix(f.Path(), f.Dir)
}

// FileName returns the file on disk holding frame n. Single files ignore n.
func (f FileInfo) FileName(n frame.Number) string {
	if f.typ == TypeSequence && f.seq.IsValid() && n != frame.Invalid {
		return f.Dir + f.Base + frame.FormatNumber(n, f.seq.Pad()) + f.Ext
	}
	if f.typ == TypeSequence && f.seq.IsValid() {
		return f.FileName(f.seq.First())
	}
	return f.Dir + f.Base + f.Number + f.Ext
}

// SameSequence reports whether two infos name frames of one sequence
func (f FileInfo) SameSequence(o FileInfo) bool {
	return f.Number != "" && o.Number != "" &&
		f.Dir == o.Dir && f.Base == o.Base && f.Ext == o.Ext
}

// AddToSequence merges the frames of o into f when both belong to the same
// sequence. It returns false when o is unrelated.
func (f *FileInfo) AddToSequence(o FileInfo) bool {
	if !f.SameSequence(o) {
		return false
	}
	if f.typ != TypeSequence {
		seq, err := frame.Parse(f.Number)
		if err != nil {
			return false
		}
		f.typ = TypeSequence
		f.seq = seq
	}
	other := o.seq
	if o.typ != TypeSequence {
		parsed, err := frame.Parse(o.Number)
		if err != nil {
			return false
		}
		other = parsed
	}
	for _, r := range other.Ranges() {
		f.seq.Add(r)
	}
	if other.Pad() > f.seq.Pad() {
		f.seq.SetPad(other.Pad())
	}
	f.Size += o.Size
	f.Number = f.seq.String()
	return true
}

func isNumberChar(c byte) bool {
	return (c >= '0' && c <= '9') || c == '-' || c == ','
}

func isNumberText(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isNumberChar(s[i]) {
			return false
		}
	}
	return hasDigit(s)
}

func hasDigit(s string) bool {
	return strings.ContainsAny(s, "0123456789")
}

func isSeparator(c byte) bool {
	return c == '.' || c == '_'
}
