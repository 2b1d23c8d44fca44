package filesystem

import (
	"github.com/brettbedarf/filetree"
	"github.com/brettbedarf/filetree/paths"
)

// FileNode is a leaf holding an opaque content buffer.
// Contents may be nil; nil contents never mean the file is absent.
type FileNode struct {
	path     paths.Path
	contents []byte
	length   int
}

// newFileNode creates a detached file. Files can never sit at depth 1 since
// that level is reserved for the tree root directory.
func newFileNode(p paths.Path, contents []byte) (*FileNode, error) {
	if p.Depth() < 2 {
		return nil, filetree.ErrConflictingPath
	}
	return &FileNode{path: p, contents: contents, length: len(contents)}, nil
}

func (f *FileNode) Path() paths.Path {
	return f.path
}

func (f *FileNode) Pathname() string {
	return f.path.Pathname()
}

// Name returns the last path component
func (f *FileNode) Name() string {
	return f.path.Base()
}

func (f *FileNode) Type() filetree.NodeType {
	return filetree.FileType
}

// Contents returns the stored buffer as-is; callers must not mutate it
func (f *FileNode) Contents() []byte {
	return f.contents
}

// Size returns the content length in bytes
func (f *FileNode) Size() int {
	return f.length
}

// replaceContents swaps in contents and returns the previous buffer
func (f *FileNode) replaceContents(contents []byte) []byte {
	old := f.contents
	f.contents = contents
	f.length = len(contents)
	return old
}

func (f *FileNode) String() string {
	return f.path.Pathname()
}
