package filesystem

import (
	"fmt"
	"slices"
	"strings"

	"github.com/brettbedarf/filetree"
	"github.com/brettbedarf/filetree/paths"
)

// Slot is the result of a sorted child lookup. When Found is set Index is the
// child's position, otherwise it is where the child would be inserted.
type Slot struct {
	Index int
	Found bool
}

// DirNode is a directory in the tree. It owns its children; parent is a plain
// back-reference used only to detach the node on removal.
type DirNode struct {
	path   paths.Path
	parent *DirNode
	dirs   []*DirNode  // sorted by path
	files  []*FileNode // sorted by path
}

// newDirNode creates a directory under parent without linking it.
//
// With a parent, p must be exactly one level below it and not already a
// directory child. Without a parent, p must be a root-level path.
func newDirNode(p paths.Path, parent *DirNode) (*DirNode, error) {
	if parent == nil {
		if p.Depth() != 1 {
			return nil, filetree.ErrNoSuchPath
		}
		return &DirNode{path: p}, nil
	}

	parentDepth := parent.path.Depth()
	if p.SharedPrefixDepth(parent.path) < parentDepth {
		return nil, filetree.ErrConflictingPath
	}
	if p.Depth() != parentDepth+1 {
		return nil, filetree.ErrNoSuchPath
	}
	if parent.HasDirChild(p).Found {
		return nil, filetree.ErrAlreadyInTree
	}
	return &DirNode{path: p, parent: parent}, nil
}

func (n *DirNode) Path() paths.Path {
	return n.path
}

func (n *DirNode) Pathname() string {
	return n.path.Pathname()
}

// Name returns the last path component
func (n *DirNode) Name() string {
	return n.path.Base()
}

func (n *DirNode) Type() filetree.NodeType {
	return filetree.DirType
}

// Parent returns the containing directory, or nil for the root
func (n *DirNode) Parent() *DirNode {
	return n.parent
}

func comparePath[T interface{ Path() paths.Path }](node T, target paths.Path) int {
	return node.Path().Compare(target)
}

// HasDirChild looks p up among the directory children
func (n *DirNode) HasDirChild(p paths.Path) Slot {
	i, found := slices.BinarySearchFunc(n.dirs, p, comparePath[*DirNode])
	return Slot{Index: i, Found: found}
}

// HasFileChild looks p up among the file children
func (n *DirNode) HasFileChild(p paths.Path) Slot {
	i, found := slices.BinarySearchFunc(n.files, p, comparePath[*FileNode])
	return Slot{Index: i, Found: found}
}

func (n *DirNode) NumDirChildren() int {
	return len(n.dirs)
}

func (n *DirNode) NumFileChildren() int {
	return len(n.files)
}

// DirChild returns the i-th directory child in path order
func (n *DirNode) DirChild(i int) (*DirNode, error) {
	if i < 0 || i >= len(n.dirs) {
		return nil, fmt.Errorf("%w: directory child %d of %s", filetree.ErrNoSuchPath, i, n.path)
	}
	return n.dirs[i], nil
}

// FileChild returns the i-th file child in path order
func (n *DirNode) FileChild(i int) (*FileNode, error) {
	if i < 0 || i >= len(n.files) {
		return nil, fmt.Errorf("%w: file child %d of %s", filetree.ErrNoSuchPath, i, n.path)
	}
	return n.files[i], nil
}

// linkDir inserts child at slot, which must come from HasDirChild on n
func (n *DirNode) linkDir(child *DirNode, slot Slot) {
	child.parent = n
	n.dirs = slices.Insert(n.dirs, slot.Index, child)
}

// linkFile inserts child at slot, which must come from HasFileChild on n
func (n *DirNode) linkFile(child *FileNode, slot Slot) {
	n.files = slices.Insert(n.files, slot.Index, child)
}

// unlinkFile drops the i-th file child and returns it
func (n *DirNode) unlinkFile(i int) *FileNode {
	f := n.files[i]
	n.files[i] = nil
	n.files = slices.Delete(n.files, i, i+1)
	return f
}

// free detaches n from its parent and releases the whole subtree.
// Returns how many directories (n included) and files were released.
func (n *DirNode) free() (dirs, files int) {
	if p := n.parent; p != nil {
		if slot := p.HasDirChild(n.path); slot.Found && p.dirs[slot.Index] == n {
			p.dirs[slot.Index] = nil
			p.dirs = slices.Delete(p.dirs, slot.Index, slot.Index+1)
		}
	}
	return n.release()
}

func (n *DirNode) release() (dirs, files int) {
	for _, child := range n.dirs {
		d, f := child.release()
		dirs += d
		files += f
	}
	files += len(n.files)
	clear(n.dirs)
	clear(n.files)
	n.dirs, n.files, n.parent = nil, nil, nil
	return dirs + 1, files
}

// String renders the directory line followed by one line per file child
func (n *DirNode) String() string {
	var b strings.Builder
	n.writeTo(&b)
	return b.String()
}

func (n *DirNode) writeTo(b *strings.Builder) {
	b.WriteString(n.path.Pathname())
	b.WriteByte('\n')
	for _, f := range n.files {
		b.WriteString(f.path.Pathname())
		b.WriteByte('\n')
	}
}
