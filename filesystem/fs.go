package filesystem

import (
	"strings"
	"time"

	"github.com/brettbedarf/filetree"
	"github.com/brettbedarf/filetree/config"
	"github.com/brettbedarf/filetree/internal/util"
	"github.com/brettbedarf/filetree/metrics"
	"github.com/brettbedarf/filetree/paths"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Operation names used in errors, logs and metric labels
const (
	OpInit        = "init"
	OpDestroy     = "destroy"
	OpInsertDir   = "insert_dir"
	OpInsertFile  = "insert_file"
	OpRemoveDir   = "remove_dir"
	OpRemoveFile  = "remove_file"
	OpGetContents = "get_file_contents"
	OpReplace     = "replace_file_contents"
	OpStat        = "stat"
	OpToString    = "to_string"
	OpCheck       = "check"
)

// FileTree is an in-memory hierarchy of directories and files under a single
// root directory. Directories and files share one path namespace.
//
// A FileTree is not safe for concurrent use; callers serialize access.
type FileTree struct {
	id          uuid.UUID
	cfg         *config.Config
	logger      zerolog.Logger
	metrics     *metrics.Collector
	maxNodes    int
	initialized bool
	root        *DirNode
	count       int // directories only
	files       int
}

var (
	_ filetree.TreeOperator = (*FileTree)(nil)
	_ filetree.TreeReader   = (*FileTree)(nil)
)

// TreeOption customizes a FileTree at construction
type TreeOption func(*FileTree)

// WithLogger replaces the component logger
func WithLogger(l zerolog.Logger) TreeOption {
	return func(t *FileTree) {
		t.logger = l
	}
}

// WithMetrics reports operations to c
func WithMetrics(c *metrics.Collector) TreeOption {
	return func(t *FileTree) {
		t.metrics = c
	}
}

// WithMaxNodes caps directories + files; inserts past the cap fail with
// [filetree.ErrMemory]. 0 removes the cap.
func WithMaxNodes(n int) TreeOption {
	return func(t *FileTree) {
		t.maxNodes = n
	}
}

// New creates an uninitialized tree. cfg may be nil for defaults.
func New(cfg *config.Config, opts ...TreeOption) *FileTree {
	if cfg == nil {
		cfg = config.NewDefaultConfig()
	}
	t := &FileTree{
		id:       uuid.New(),
		cfg:      cfg,
		maxNodes: cfg.MaxNodes,
	}
	t.logger = util.GetLogger("FileTree")
	for _, opt := range opts {
		opt(t)
	}
	t.logger = t.logger.With().Str("tree", t.id.String()).Logger()
	return t
}

func (t *FileTree) ID() uuid.UUID {
	return t.id
}

func (t *FileTree) IsInitialized() bool {
	return t.initialized
}

// Root returns the root directory, or nil when the tree is empty
func (t *FileTree) Root() *DirNode {
	return t.root
}

// Count returns the number of directories in the tree
func (t *FileTree) Count() int {
	return t.count
}

// FileCount returns the number of files in the tree
func (t *FileTree) FileCount() int {
	return t.files
}

// NodeCount returns directories + files
func (t *FileTree) NodeCount() int {
	return t.count + t.files
}

// observe is deferred by every public operation
func (t *FileTree) observe(op string, start time.Time, err *error) {
	t.metrics.ObserveOp(op, *err)
	t.metrics.ObserveDuration(op, start)
}

func (t *FileTree) publishCounts() {
	t.metrics.SetCounts(t.count, t.files)
}

// Init transitions the tree to initialized and empty
func (t *FileTree) Init() (err error) {
	defer t.observe(OpInit, time.Now(), &err)

	if t.initialized {
		return filetree.NewPathError(OpInit, "", filetree.ErrAlreadyInitialized)
	}
	t.initialized = true
	t.root = nil
	t.count, t.files = 0, 0
	t.publishCounts()
	t.logger.Debug().Msg("Tree initialized")
	return nil
}

// Destroy releases every node and returns the tree to uninitialized
func (t *FileTree) Destroy() (err error) {
	defer t.observe(OpDestroy, time.Now(), &err)

	if !t.initialized {
		return filetree.NewPathError(OpDestroy, "", filetree.ErrNotInitialized)
	}
	if t.root != nil {
		dirs, files := t.root.free()
		t.logger.Debug().Int("dirs", dirs).Int("files", files).Msg("Tree destroyed")
	}
	t.root = nil
	t.count, t.files = 0, 0
	t.initialized = false
	t.publishCounts()
	return nil
}

// traverse finds the deepest existing directory on the way to p. A nil node
// with nil error means the tree is empty.
func (t *FileTree) traverse(p paths.Path) (*DirNode, error) {
	if t.root == nil {
		return nil, nil
	}
	top, err := p.Prefix(1)
	if err != nil {
		return nil, err
	}
	if !top.Equal(t.root.path) {
		return nil, filetree.ErrConflictingPath
	}

	cur := t.root
	for d := 2; d <= p.Depth(); d++ {
		pre, err := p.Prefix(d)
		if err != nil {
			return nil, err
		}
		slot := cur.HasDirChild(pre)
		if !slot.Found {
			break
		}
		cur = cur.dirs[slot.Index]
	}
	return cur, nil
}

// resolve runs the checks shared by every path operation and returns the
// parsed path along with the deepest existing directory on it
func (t *FileTree) resolve(raw string) (paths.Path, *DirNode, error) {
	if !t.initialized {
		return paths.Path{}, nil, filetree.ErrNotInitialized
	}
	p, err := paths.New(raw)
	if err != nil {
		return paths.Path{}, nil, err
	}
	furthest, err := t.traverse(p)
	if err != nil {
		return p, nil, err
	}
	return p, furthest, nil
}

// isParentOf reports whether d sits exactly one level above p
func isParentOf(d *DirNode, p paths.Path) bool {
	return d != nil && d.path.Depth() == p.Depth()-1
}

// findDir resolves raw to an existing directory
func (t *FileTree) findDir(raw string) (*DirNode, error) {
	p, furthest, err := t.resolve(raw)
	if err != nil {
		return nil, err
	}
	if furthest == nil {
		return nil, filetree.ErrNoSuchPath
	}
	if furthest.path.Equal(p) {
		return furthest, nil
	}
	if isParentOf(furthest, p) && furthest.HasFileChild(p).Found {
		return nil, filetree.ErrNotADirectory
	}
	return nil, filetree.ErrNoSuchPath
}

// findFile resolves raw to an existing file and the directory holding it
func (t *FileTree) findFile(raw string) (*DirNode, Slot, error) {
	p, furthest, err := t.resolve(raw)
	if err != nil {
		return nil, Slot{}, err
	}
	if furthest == nil {
		return nil, Slot{}, filetree.ErrNoSuchPath
	}
	if furthest.path.Equal(p) {
		return nil, Slot{}, filetree.ErrNotAFile
	}
	if isParentOf(furthest, p) {
		if slot := furthest.HasFileChild(p); slot.Found {
			return furthest, slot, nil
		}
	}
	return nil, Slot{}, filetree.ErrNoSuchPath
}

// staged is a detached chain of new directories waiting to be linked into the tree
type staged struct {
	anchor *DirNode // existing directory the chain hangs from; nil when it becomes the root
	top    *DirNode // first staged directory, nil when nothing was staged
	leaf   *DirNode // directory the final node attaches to
	dirs   int
}

// stage builds every missing directory level of p below furthest down to depth
// `through`, linking the new levels to each other but not to the tree
func stage(p paths.Path, furthest *DirNode, through int) (*staged, error) {
	s := &staged{anchor: furthest, leaf: furthest}
	start := 1
	if furthest != nil {
		start = furthest.path.Depth() + 1
	}
	for d := start; d <= through; d++ {
		pre, err := p.Prefix(d)
		if err != nil {
			return nil, err
		}
		node, err := newDirNode(pre, s.leaf)
		if err != nil {
			return nil, err
		}
		if s.top == nil {
			s.top = node
		} else {
			s.leaf.linkDir(node, Slot{Index: 0})
		}
		s.leaf = node
		s.dirs++
	}
	return s, nil
}

// commit links the staged chain into the tree
func (t *FileTree) commit(s *staged) {
	if s.top == nil {
		return
	}
	if s.anchor == nil {
		t.root = s.top
	} else {
		s.anchor.linkDir(s.top, s.anchor.HasDirChild(s.top.path))
	}
	t.count += s.dirs
}

// checkCapacity fails with ErrMemory when adding n nodes would exceed the cap
func (t *FileTree) checkCapacity(n int) error {
	if t.maxNodes > 0 && t.NodeCount()+n > t.maxNodes {
		return filetree.ErrMemory
	}
	return nil
}

// validateInsert applies the checks shared by directory and file insertion
// after traversal: the exact path must be free and the next missing level
// must not already be a file.
func validateInsert(p paths.Path, furthest *DirNode) error {
	if furthest == nil {
		return nil
	}
	if furthest.path.Equal(p) {
		return filetree.ErrAlreadyInTree
	}
	next, err := p.Prefix(furthest.path.Depth() + 1)
	if err != nil {
		return err
	}
	if furthest.HasFileChild(next).Found {
		if next.Equal(p) {
			return filetree.ErrAlreadyInTree
		}
		return filetree.ErrNotADirectory
	}
	return nil
}

// InsertDir adds the directory at path along with every missing ancestor.
// The tree is unchanged on failure.
func (t *FileTree) InsertDir(path string) (err error) {
	defer t.observe(OpInsertDir, time.Now(), &err)

	p, furthest, err := t.resolve(path)
	if err != nil {
		return filetree.NewPathError(OpInsertDir, path, err)
	}
	if err := validateInsert(p, furthest); err != nil {
		return filetree.NewPathError(OpInsertDir, path, err)
	}

	s, err := stage(p, furthest, p.Depth())
	if err != nil {
		return filetree.NewPathError(OpInsertDir, path, err)
	}
	if err := t.checkCapacity(s.dirs); err != nil {
		t.logger.Warn().Str("path", path).Int("max_nodes", t.maxNodes).Msg("Insert rejected, tree at capacity")
		return filetree.NewPathError(OpInsertDir, path, err)
	}
	t.commit(s)
	t.publishCounts()
	t.logger.Debug().Str("path", path).Int("created", s.dirs).Msg("Inserted directory")
	return nil
}

// InsertFile adds a file at path holding contents, creating every missing
// ancestor directory. contents is stored without copying. The tree is
// unchanged on failure.
func (t *FileTree) InsertFile(path string, contents []byte) (err error) {
	defer t.observe(OpInsertFile, time.Now(), &err)

	p, furthest, err := t.resolve(path)
	if err != nil {
		return filetree.NewPathError(OpInsertFile, path, err)
	}
	if err := validateInsert(p, furthest); err != nil {
		return filetree.NewPathError(OpInsertFile, path, err)
	}
	file, err := newFileNode(p, contents)
	if err != nil {
		return filetree.NewPathError(OpInsertFile, path, err)
	}

	s, err := stage(p, furthest, p.Depth()-1)
	if err != nil {
		return filetree.NewPathError(OpInsertFile, path, err)
	}
	if err := t.checkCapacity(s.dirs + 1); err != nil {
		t.logger.Warn().Str("path", path).Int("max_nodes", t.maxNodes).Msg("Insert rejected, tree at capacity")
		return filetree.NewPathError(OpInsertFile, path, err)
	}
	// the leaf is either freshly staged or the existing parent; in both cases
	// the slot is computed against its current file children
	s.leaf.linkFile(file, s.leaf.HasFileChild(p))
	t.commit(s)
	t.files++
	t.publishCounts()
	t.logger.Debug().Str("path", path).Int("created", s.dirs).Int("size", file.Size()).Msg("Inserted file")
	return nil
}

// RemoveDir removes the directory at path and everything below it
func (t *FileTree) RemoveDir(path string) (err error) {
	defer t.observe(OpRemoveDir, time.Now(), &err)

	node, err := t.findDir(path)
	if err != nil {
		return filetree.NewPathError(OpRemoveDir, path, err)
	}
	isRoot := node == t.root
	dirs, files := node.free()
	t.count -= dirs
	t.files -= files
	if isRoot {
		t.root = nil
	}
	t.publishCounts()
	t.logger.Debug().Str("path", path).Int("dirs", dirs).Int("files", files).Msg("Removed directory")
	return nil
}

// RemoveFile removes the file at path
func (t *FileTree) RemoveFile(path string) (err error) {
	defer t.observe(OpRemoveFile, time.Now(), &err)

	parent, slot, err := t.findFile(path)
	if err != nil {
		return filetree.NewPathError(OpRemoveFile, path, err)
	}
	parent.unlinkFile(slot.Index)
	t.files--
	t.publishCounts()
	t.logger.Debug().Str("path", path).Msg("Removed file")
	return nil
}

// ContainsDir reports whether path names a directory in the tree. Every
// failure, including an uninitialized tree, reports false.
func (t *FileTree) ContainsDir(path string) bool {
	_, err := t.findDir(path)
	return err == nil
}

// ContainsFile reports whether path names a file in the tree
func (t *FileTree) ContainsFile(path string) bool {
	_, _, err := t.findFile(path)
	return err == nil
}

// GetFileContents returns the stored contents of the file at path.
// Nil contents with a nil error is a valid result.
func (t *FileTree) GetFileContents(path string) (_ []byte, err error) {
	defer t.observe(OpGetContents, time.Now(), &err)

	parent, slot, err := t.findFile(path)
	if err != nil {
		return nil, filetree.NewPathError(OpGetContents, path, err)
	}
	return parent.files[slot.Index].Contents(), nil
}

// ReplaceFileContents stores contents in the file at path and returns what
// was there before
func (t *FileTree) ReplaceFileContents(path string, contents []byte) (_ []byte, err error) {
	defer t.observe(OpReplace, time.Now(), &err)

	parent, slot, err := t.findFile(path)
	if err != nil {
		return nil, filetree.NewPathError(OpReplace, path, err)
	}
	old := parent.files[slot.Index].replaceContents(contents)
	t.logger.Debug().Str("path", path).Int("old_size", len(old)).Int("size", len(contents)).Msg("Replaced file contents")
	return old, nil
}

// Stat reports whether path is a directory or a file and, for files, its size
func (t *FileTree) Stat(path string) (_ filetree.NodeStat, err error) {
	defer t.observe(OpStat, time.Now(), &err)

	_, derr := t.findDir(path)
	if derr == nil {
		return filetree.NodeStat{IsFile: false}, nil
	}
	parent, slot, ferr := t.findFile(path)
	if ferr != nil {
		return filetree.NodeStat{}, filetree.NewPathError(OpStat, path, derr)
	}
	return filetree.NodeStat{IsFile: true, Size: parent.files[slot.Index].Size()}, nil
}

// Walk visits directories in pre-order. Each directory is followed by its
// files, then its sub-directories, all in path order. A non-nil error from fn
// stops the walk and is returned.
func (t *FileTree) Walk(fn func(node filetree.NodeInfo) error) error {
	if !t.initialized {
		return filetree.NewPathError("walk", "", filetree.ErrNotInitialized)
	}
	if t.root == nil {
		return nil
	}
	return walkDir(t.root, fn)
}

func walkDir(n *DirNode, fn func(node filetree.NodeInfo) error) error {
	if err := fn(n); err != nil {
		return err
	}
	for _, f := range n.files {
		if err := fn(f); err != nil {
			return err
		}
	}
	for _, d := range n.dirs {
		if err := walkDir(d, fn); err != nil {
			return err
		}
	}
	return nil
}

// ToString renders one line per node in [FileTree.Walk] order
func (t *FileTree) ToString() (_ string, err error) {
	defer t.observe(OpToString, time.Now(), &err)

	if !t.initialized {
		return "", filetree.NewPathError(OpToString, "", filetree.ErrNotInitialized)
	}
	var b strings.Builder
	if t.root != nil {
		writeDir(&b, t.root)
	}
	return b.String(), nil
}

func writeDir(b *strings.Builder, n *DirNode) {
	n.writeTo(b)
	for _, d := range n.dirs {
		writeDir(b, d)
	}
}

// String is ToString without the error; an uninitialized tree renders empty
func (t *FileTree) String() string {
	s, _ := t.ToString()
	return s
}

// Check verifies every structural invariant of the tree
func (t *FileTree) Check() (err error) {
	defer t.observe(OpCheck, time.Now(), &err)

	return IsValid(t.initialized, t.root, t.count)
}
