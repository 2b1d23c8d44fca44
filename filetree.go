// Package filetree holds the shared types of an in-memory hierarchical file tree:
// node kinds, stat results, the error taxonomy and the request types used to
// populate a tree. The tree itself lives in the filesystem package.
package filetree

// NodeType distinguishes directories from files
type NodeType int

const (
	DirType NodeType = iota
	FileType
)

func (t NodeType) String() string {
	switch t {
	case DirType:
		return "dir"
	case FileType:
		return "file"
	default:
		return "unknown"
	}
}

// NodeStat is the result of a stat query. Size is only meaningful when IsFile is set.
type NodeStat struct {
	IsFile bool
	Size   int
}
