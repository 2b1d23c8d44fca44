package filesystem

import (
	"fmt"
	"strings"

	"github.com/armon/go-radix"
	"github.com/brettbedarf/filetree"
	"github.com/brettbedarf/filetree/internal/util"
)

// Checker rules reported in a [Violation]
const (
	RuleUninitialized = "uninitialized tree must be empty"
	RuleRootCount     = "root must be nil exactly when count is zero"
	RuleRoot          = "root must have depth 1 and no parent"
	RuleNilNode       = "node must not be nil"
	RuleIndexAccess   = "every child index below the child count must be fetchable"
	RuleParentPrefix  = "parent path must be the depth-1 prefix of the node path"
	RuleBackRef       = "child must point back at its parent"
	RuleSelfChild     = "child must not share its parent's path"
	RuleSiblingOrder  = "siblings must be strictly ascending"
	RuleUniquePath    = "no two nodes may share a path"
	RuleFileLength    = "file length must match its contents"
	RuleCount         = "count must equal the number of directories reached"
)

// Violation describes the first broken invariant found by [IsValid]
type Violation struct {
	Rule  string
	Paths []string
}

func (v *Violation) Error() string {
	if len(v.Paths) == 0 {
		return fmt.Sprintf("invalid tree: %s", v.Rule)
	}
	return fmt.Sprintf("invalid tree: %s: %s", v.Rule, strings.Join(v.Paths, ", "))
}

func (v *Violation) Unwrap() error {
	return filetree.ErrInvalidTree
}

func violation(rule string, paths ...string) *Violation {
	return &Violation{Rule: rule, Paths: paths}
}

// IsValid walks the tree from root and returns the first invariant it finds
// broken, or nil. It never mutates the tree.
func IsValid(initialized bool, root *DirNode, count int) error {
	if err := isValid(initialized, root, count); err != nil {
		logger := util.GetLogger("Checker")
		logger.Warn().Str("rule", err.Rule).Strs("paths", err.Paths).Msg("Tree invariant violated")
		return err
	}
	return nil
}

func isValid(initialized bool, root *DirNode, count int) *Violation {
	if !initialized {
		if count != 0 || root != nil {
			return violation(RuleUninitialized, fmt.Sprintf("count=%d", count))
		}
		return nil
	}
	if (root == nil) != (count == 0) {
		return violation(RuleRootCount, fmt.Sprintf("count=%d", count))
	}
	if root == nil {
		return nil
	}
	if root.parent != nil || root.path.Depth() != 1 {
		return violation(RuleRoot, root.path.Pathname())
	}

	c := &checker{seen: radix.New()}
	if v := c.checkDir(root); v != nil {
		return v
	}
	if c.dirs != count {
		return violation(RuleCount, fmt.Sprintf("count=%d", count), fmt.Sprintf("reached=%d", c.dirs))
	}
	return nil
}

type checker struct {
	seen *radix.Tree // every pathname reached so far
	dirs int
}

// claim records name and reports a violation if it was already reached
func (c *checker) claim(name string) *Violation {
	if _, exists := c.seen.Get(name); exists {
		return violation(RuleUniquePath, name)
	}
	c.seen.Insert(name, struct{}{})
	return nil
}

func (c *checker) checkDir(n *DirNode) *Violation {
	if n == nil {
		return violation(RuleNilNode)
	}
	name := n.path.Pathname()
	if p := n.parent; p != nil {
		depth := n.path.Depth()
		if n.path.SharedPrefixDepth(p.path) != depth-1 || p.path.Depth() != depth-1 {
			return violation(RuleParentPrefix, p.path.Pathname(), name)
		}
	}
	if v := c.claim(name); v != nil {
		return v
	}
	c.dirs++

	if v := c.checkFiles(n); v != nil {
		return v
	}

	children := make([]*DirNode, 0, n.NumDirChildren())
	for i := 0; i < n.NumDirChildren(); i++ {
		child, err := n.DirChild(i)
		if err != nil {
			return violation(RuleIndexAccess, name, fmt.Sprintf("dir[%d]", i))
		}
		if child == nil {
			return violation(RuleNilNode, name, fmt.Sprintf("dir[%d]", i))
		}
		if child.path.Equal(n.path) {
			return violation(RuleSelfChild, name)
		}
		if child.parent != n {
			return violation(RuleBackRef, name, child.path.Pathname())
		}
		if i > 0 {
			prev := children[i-1]
			switch cmp := prev.path.Compare(child.path); {
			case cmp == 0:
				return violation(RuleUniquePath, child.path.Pathname())
			case cmp > 0:
				return violation(RuleSiblingOrder, prev.path.Pathname(), child.path.Pathname())
			}
		}
		children = append(children, child)
	}

	for _, child := range children {
		if v := c.checkDir(child); v != nil {
			return v
		}
	}
	return nil
}

func (c *checker) checkFiles(n *DirNode) *Violation {
	name := n.path.Pathname()
	depth := n.path.Depth()

	var prev *FileNode
	for i := 0; i < n.NumFileChildren(); i++ {
		f, err := n.FileChild(i)
		if err != nil {
			return violation(RuleIndexAccess, name, fmt.Sprintf("file[%d]", i))
		}
		if f == nil {
			return violation(RuleNilNode, name, fmt.Sprintf("file[%d]", i))
		}
		fname := f.path.Pathname()
		if f.path.Equal(n.path) {
			return violation(RuleSelfChild, name)
		}
		if f.path.Depth() != depth+1 || f.path.SharedPrefixDepth(n.path) != depth {
			return violation(RuleParentPrefix, name, fname)
		}
		if prev != nil {
			switch cmp := prev.path.Compare(f.path); {
			case cmp == 0:
				return violation(RuleUniquePath, fname)
			case cmp > 0:
				return violation(RuleSiblingOrder, prev.path.Pathname(), fname)
			}
		}
		if f.length != len(f.contents) {
			return violation(RuleFileLength, fname)
		}
		if v := c.claim(fname); v != nil {
			return v
		}
		prev = f
	}
	return nil
}
