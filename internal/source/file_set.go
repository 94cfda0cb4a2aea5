package source

import (
	"fmt"

	"fortio.org/safecast"
)

// FileSet holds the sources of the units in one build so that fault
// spans can be resolved to line and column.
type FileSet struct {
	files  []*File
	byPath map[string]FileID
}

func NewFileSet() *FileSet {
	return &FileSet{byPath: make(map[string]FileID)}
}

// Add registers content under path and returns its ID. Adding a path a
// second time yields a new ID; Lookup then finds the newer one.
func (s *FileSet) Add(path string, content []byte) FileID {
	id, err := safecast.Conv[FileID](len(s.files))
	if err != nil {
		panic(fmt.Errorf("too many source files: %w", err))
	}
	f := newFile(id, path, content)
	s.files = append(s.files, f)
	s.byPath[f.Path] = id
	return id
}

func (s *FileSet) Len() int { return len(s.files) }

// Get returns the file with id, or nil.
func (s *FileSet) Get(id FileID) *File {
	if int(id) >= len(s.files) {
		return nil
	}
	return s.files[id]
}

// Lookup returns the most recent ID registered for path.
func (s *FileSet) Lookup(path string) (FileID, bool) {
	id, ok := s.byPath[cleanPath(path)]
	return id, ok
}

// Resolve maps both ends of span. Unknown files and files without text
// report byte offsets as columns of line 1.
func (s *FileSet) Resolve(span Span) (start, end Position) {
	f := s.Get(span.File)
	if f == nil || !f.HasContent() {
		return Position{Line: 1, Col: span.Start + 1}, Position{Line: 1, Col: span.End + 1}
	}
	return f.Position(span.Start), f.Position(span.End)
}
