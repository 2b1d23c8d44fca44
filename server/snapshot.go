package server

import (
	"path"
	"slices"

	"github.com/brettbedarf/filetree"
	"github.com/brettbedarf/filetree/paths"
)

// Source is the read side of a tree that can be mounted
type Source interface {
	Walk(fn func(node filetree.NodeInfo) error) error
	GetFileContents(path string) ([]byte, error)
}

// entry is one node copied out of the tree
type entry struct {
	pathname string
	parent   string // pathname of the containing directory; "/" for the tree root
	name     string
	isDir    bool
	data     []byte
}

// snapshot is an immutable copy of a tree in walk order, so parents always
// precede their children
type snapshot struct {
	entries []entry
	dirs    int
	files   int
}

// takeSnapshot copies every node out of src. File contents are cloned so the
// mount never shares buffers with the live tree.
func takeSnapshot(src Source) (*snapshot, error) {
	snap := &snapshot{}
	err := src.Walk(func(node filetree.NodeInfo) error {
		name := node.Pathname()
		e := entry{
			pathname: name,
			parent:   path.Dir(name),
			name:     path.Base(name),
			isDir:    node.Type() == filetree.DirType,
		}
		if e.isDir {
			snap.dirs++
		} else {
			data, err := src.GetFileContents(name)
			if err != nil {
				return err
			}
			e.data = slices.Clone(data)
			snap.files++
		}
		snap.entries = append(snap.entries, e)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// mountRoot is the pathname of the directory the mount point itself represents
const mountRoot = paths.Separator
