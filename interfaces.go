package filetree

// NodeRequestor is an interface implemented by all node request types
type NodeRequestor interface {
	GetType() NodeCreateRequestType
	GetPath() string
}

// TreeOperator is the mutating surface of a file tree.
// It is what manifests are applied against.
type TreeOperator interface {
	InsertDir(path string) error
	InsertFile(path string, contents []byte) error
	RemoveDir(path string) error
	RemoveFile(path string) error
	ReplaceFileContents(path string, contents []byte) ([]byte, error)
}

// TreeReader is the read-only surface of a file tree
type TreeReader interface {
	ContainsDir(path string) bool
	ContainsFile(path string) bool
	GetFileContents(path string) ([]byte, error)
	Stat(path string) (NodeStat, error)
	ToString() (string, error)
}

// NodeInfo is implemented by tree nodes handed out to walkers
type NodeInfo interface {
	Pathname() string
	Type() NodeType
}
