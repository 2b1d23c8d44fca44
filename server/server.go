// Package server mounts a read-only snapshot of a file tree over FUSE.
package server

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/brettbedarf/filetree/config"
	"github.com/brettbedarf/filetree/internal/util"
	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
	"github.com/puzpuzpuz/xsync/v4"
)

// Server mounts the tree as it was at Serve time. Later mutations of the tree
// are not reflected; the tree itself is never touched by FUSE goroutines.
type Server struct {
	cfg       *config.Config
	src       Source
	lastIno   atomic.Uint64              // last inode number assigned
	registry  *xsync.Map[uint64, string] // inode number -> tree pathname
	mountedAt time.Time
	server    *fuse.Server
}

// New creates a Server for src given your config.
func New(cfg *config.Config, src Source) *Server {
	if cfg == nil {
		cfg = config.NewDefaultConfig()
	}
	s := &Server{
		cfg:      cfg,
		src:      src,
		registry: xsync.NewMap[uint64, string](),
	}
	s.lastIno.Store(fuse.FUSE_ROOT_ID)
	s.registry.Store(fuse.FUSE_ROOT_ID, mountRoot)
	return s
}

// register assigns the next inode number to pathname
func (s *Server) register(pathname string) uint64 {
	ino := s.lastIno.Add(1)
	s.registry.Store(ino, pathname)
	return ino
}

// PathOf returns the tree pathname served under inode number ino
func (s *Server) PathOf(ino uint64) (string, bool) {
	return s.registry.Load(ino)
}

// Len returns the number of registered inodes, the mount root included
func (s *Server) Len() int {
	return s.registry.Size()
}

// mountOptions translates the config into go-fuse options
func (s *Server) mountOptions() *fs.Options {
	attrTimeout := time.Duration(s.cfg.AttrTimeout * float64(time.Second))
	entryTimeout := time.Duration(s.cfg.EntryTimeout * float64(time.Second))
	logger := util.NewLogLogger("FuseServer", util.DebugLevel)
	return &fs.Options{
		MountOptions: fuse.MountOptions{
			Name:    s.cfg.Name,
			FsName:  s.cfg.FsName,
			Debug:   s.cfg.Debug || s.cfg.LogLvl == util.TraceLevel,
			Logger:  logger,
			Options: []string{"ro"},
		},
		AttrTimeout:  &attrTimeout,
		EntryTimeout: &entryTimeout,
		Logger:       logger,
	}
}

// prepare snapshots the tree and builds the mount root
func (s *Server) prepare() (*rootNode, error) {
	snap, err := takeSnapshot(s.src)
	if err != nil {
		return nil, fmt.Errorf("snapshot tree: %w", err)
	}
	s.mountedAt = time.Now()
	root := &rootNode{srv: s, snap: snap}
	root.attr = s.newAttr(fuse.FUSE_ROOT_ID, fuse.S_IFDIR|s.cfg.DirMode, 0)
	return root, nil
}

// Serve mounts and serves the snapshot at the given mountPoint. It returns
// once the mount is ready; the FUSE loop keeps running in the background.
func (s *Server) Serve(mountPoint string) error {
	logger := util.GetLogger("Server.Serve")

	root, err := s.prepare()
	if err != nil {
		return err
	}
	srv, err := fs.Mount(mountPoint, root, s.mountOptions())
	if err != nil {
		return err
	}
	s.server = srv
	logger.Info().Str("mountpoint", mountPoint).Int("dirs", root.snap.dirs).Int("files", root.snap.files).Msg("Mounted tree snapshot")
	return nil
}

// ServeAsync runs Serve in a goroutine and reports its result on the channel
func (s *Server) ServeAsync(mountPoint string) <-chan error {
	done := make(chan error, 1)

	go func() {
		done <- s.Serve(mountPoint)
		close(done)
	}()

	return done
}

// Wait blocks until the filesystem is unmounted
func (s *Server) Wait() {
	if s.server == nil {
		return
	}
	s.server.Wait()
}

// Unmount cleanly unmounts the filesystem.
func (s *Server) Unmount() error {
	if s.server == nil {
		return nil
	}
	return s.server.Unmount()
}
