package server

import (
	"context"
	"os"
	"syscall"
	"time"

	"github.com/brettbedarf/filetree/internal/util"
	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
)

// rootNode is the mount point. It builds the whole snapshot as persistent
// inodes when the kernel first attaches it.
type rootNode struct {
	fs.Inode
	srv  *Server
	snap *snapshot
	attr fuse.Attr
}

var (
	_ fs.NodeOnAdder   = (*rootNode)(nil)
	_ fs.NodeGetattrer = (*rootNode)(nil)
	_ fs.NodeGetattrer = (*dirNode)(nil)
)

// dirNode is a read-only directory carrying fixed attributes
type dirNode struct {
	fs.Inode
	attr fuse.Attr
}

func (n *dirNode) Getattr(ctx context.Context, f fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	out.Attr = n.attr
	return fs.OK
}

func (n *rootNode) Getattr(ctx context.Context, f fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	out.Attr = n.attr
	return fs.OK
}

func (n *rootNode) OnAdd(ctx context.Context) {
	logger := util.GetLogger("Server.OnAdd")

	dirs := map[string]*fs.Inode{mountRoot: &n.Inode}
	for _, e := range n.snap.entries {
		parent, ok := dirs[e.parent]
		if !ok {
			// walk order guarantees parents first
			logger.Error().Str("path", e.pathname).Msg("Parent missing from snapshot")
			continue
		}

		ino := n.srv.register(e.pathname)
		if e.isDir {
			attr := n.srv.newAttr(ino, fuse.S_IFDIR|n.srv.cfg.DirMode, 0)
			child := parent.NewPersistentInode(ctx, &dirNode{attr: attr}, fs.StableAttr{Mode: fuse.S_IFDIR, Ino: ino})
			parent.AddChild(e.name, child, false)
			dirs[e.pathname] = child
			continue
		}

		attr := n.srv.newAttr(ino, fuse.S_IFREG|n.srv.cfg.FileMode, uint64(len(e.data)))
		file := &fs.MemRegularFile{Data: e.data, Attr: attr}
		child := parent.NewPersistentInode(ctx, file, fs.StableAttr{Mode: fuse.S_IFREG, Ino: ino})
		parent.AddChild(e.name, child, false)
	}
	logger.Debug().Int("dirs", n.snap.dirs).Int("files", n.snap.files).Msg("Snapshot attached")
}

// newAttr returns the attributes for a snapshot node.
// mode must include the file type bits.
func (s *Server) newAttr(ino uint64, mode uint32, size uint64) fuse.Attr {
	now := s.mountedAt
	if now.IsZero() {
		now = time.Now()
	}
	return fuse.Attr{
		Ino:   ino,
		Size:  size,
		Mode:  mode,
		Nlink: 1,
		Owner: fuse.Owner{
			Uid: uint32(os.Getuid()),
			Gid: uint32(os.Getgid()),
		},
		Atime:     uint64(now.Unix()),
		Mtime:     uint64(now.Unix()),
		Ctime:     uint64(now.Unix()),
		Atimensec: uint32(now.Nanosecond()),
		Mtimensec: uint32(now.Nanosecond()),
		Ctimensec: uint32(now.Nanosecond()),
		Blksize:   4096, // preferred size for fs ops
		Blocks:    (size + 511) / 512,
	}
}
