package source

import (
	"bytes"
	"path/filepath"
	"slices"
)

// FileID indexes a FileSet. IDs are handed out in insertion order, so a
// build that adds its units in input order can assign them up front.
type FileID uint32

// File is the text of one unit as shipped in its .tast document.
type File struct {
	ID      FileID
	Path    string
	Content []byte
	// Newlines holds the offset of every '\n' in Content.
	Newlines []uint32
}

// Position is a 1-based line and byte column.
type Position struct {
	Line uint32
	Col  uint32
}

func newFile(id FileID, path string, content []byte) *File {
	f := &File{ID: id, Path: cleanPath(path), Content: content}
	for off := 0; ; {
		i := bytes.IndexByte(content[off:], '\n')
		if i < 0 {
			break
		}
		off += i
		f.Newlines = append(f.Newlines, uint32(off))
		off++
	}
	return f
}

// HasContent reports whether the unit was shipped with its text.
func (f *File) HasContent() bool { return len(f.Content) > 0 }

// Position maps a byte offset to its line and column.
func (f *File) Position(off uint32) Position {
	// number of newlines strictly before off
	line, _ := slices.BinarySearch(f.Newlines, off)
	if line == 0 {
		return Position{Line: 1, Col: off + 1}
	}
	return Position{Line: uint32(line) + 1, Col: off - f.Newlines[line-1]}
}

// Line returns the text of 1-based line n without its newline, or ""
// when there is no such line.
func (f *File) Line(n uint32) string {
	if n == 0 || !f.HasContent() || int(n) > len(f.Newlines)+1 {
		return ""
	}
	start := 0
	if n > 1 {
		start = int(f.Newlines[n-2]) + 1
	}
	end := len(f.Content)
	if int(n) <= len(f.Newlines) {
		end = int(f.Newlines[n-1])
	}
	if start >= end {
		return ""
	}
	return string(f.Content[start:end])
}

// cleanPath gives paths one spelling across platforms.
func cleanPath(p string) string {
	if p == "" {
		return ""
	}
	return filepath.ToSlash(filepath.Clean(p))
}
