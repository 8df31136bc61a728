package docfs

import (
	"github.com/winfsp/cgofuse/fuse"

	"github.com/agentic-research/mache-xml/internal/domnode"
)

// FuseFS adapts FS to cgofuse's FileSystemInterface for a native mount
// (cmd browse), alongside the billy.Filesystem adapter used for the NFS
// loopback mount (cmd mount). Every syscall resolves straight from the
// document by path — there is no mutable handle table to keep consistent,
// since nothing here can be written.
type FuseFS struct {
	fuse.FileSystemBase
	fs *FS
}

// NewFuse wraps fs for use with fuse.FileSystemHost.
func NewFuse(fs *FS) *FuseFS {
	return &FuseFS{fs: fs}
}

func (f *FuseFS) Getattr(path string, stat *fuse.Stat_t, fh uint64) int {
	n, err := f.fs.resolve(path)
	if err != nil {
		return -fuse.ENOENT
	}
	fillStat(stat, n)
	return 0
}

func (f *FuseFS) Opendir(path string) (int, uint64) {
	n, err := f.fs.resolve(path)
	if err != nil {
		return -fuse.ENOENT, 0
	}
	if n.Type != domnode.Element {
		return -fuse.ENOTDIR, 0
	}
	return 0, 0
}

func (f *FuseFS) Readdir(path string, fill func(name string, stat *fuse.Stat_t, ofst int64) bool, ofst int64, fh uint64) int {
	n, err := f.fs.resolve(path)
	if err != nil {
		return -fuse.ENOENT
	}
	if n.Type != domnode.Element {
		return -fuse.ENOTDIR
	}
	fill(".", nil, 0)
	fill("..", nil, 0)
	entries, err := childEntries(n)
	if err != nil {
		return -fuse.EIO
	}
	for _, e := range entries {
		var st fuse.Stat_t
		fillStat(&st, e.node)
		if !fill(e.name, &st, 0) {
			break
		}
	}
	return 0
}

func (f *FuseFS) Releasedir(path string, fh uint64) int { return 0 }

func (f *FuseFS) Open(path string, flags int) (int, uint64) {
	n, err := f.fs.resolve(path)
	if err != nil {
		return -fuse.ENOENT, 0
	}
	if n.Type == domnode.Element {
		return -fuse.EISDIR, 0
	}
	return 0, 0
}

func (f *FuseFS) Read(path string, buff []byte, ofst int64, fh uint64) int {
	n, err := f.fs.resolve(path)
	if err != nil {
		return -fuse.ENOENT
	}
	data := []byte(n.NodeValue())
	if ofst >= int64(len(data)) {
		return 0
	}
	end := ofst + int64(len(buff))
	if end > int64(len(data)) {
		end = int64(len(data))
	}
	return copy(buff, data[ofst:end])
}

func (f *FuseFS) Release(path string, fh uint64) int { return 0 }

// Every write syscall inherits FileSystemBase's -ENOSYS default, which
// cgofuse's host layer surfaces to the kernel the same way as any
// unimplemented FUSE operation — the read-only filesystem boundary
// described in docfs.go, restated for the native-mount entry point.

func fillStat(stat *fuse.Stat_t, n *domnode.Node) {
	*stat = fuse.Stat_t{}
	if n.Type == domnode.Element {
		stat.Mode = fuse.S_IFDIR | 0o555
	} else {
		stat.Mode = fuse.S_IFREG | 0o444
		stat.Size = int64(len(n.NodeValue()))
	}
}
