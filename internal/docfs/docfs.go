// Package docfs projects a loaded document.Document as a read-only
// billy.Filesystem (and, via fuse.go, a cgofuse.FileSystemInterface): one
// directory per element, one file per attribute/text/comment/processing-
// instruction child. Every write syscall reports the core's immutable-node
// error, surfaced at this boundary as the filesystem's read-only sentinel —
// the DOM-mutation non-goal made visible where a mount point can see it.
package docfs

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/helper/chroot"

	"github.com/agentic-research/mache-xml/internal/coreerr"
	"github.com/agentic-research/mache-xml/internal/document"
	"github.com/agentic-research/mache-xml/internal/domnode"
)

// errReadOnly is returned by every write syscall. It wraps the core's own
// ErrNotSupported rather than minting a new sentinel, so callers checking
// with errors.Is see the same immutable-node error C4's mutation methods
// already report.
var errReadOnly = fmt.Errorf("docfs: %w", coreerr.ErrNotSupported)

// FS adapts a document.Document to billy.Filesystem.
type FS struct {
	doc *document.Document
}

// New returns a read-only filesystem projecting doc's DOM.
func New(doc *document.Document) *FS {
	return &FS{doc: doc}
}

// entry is one named child of a directory-ish (element) node.
type entry struct {
	name string
	node *domnode.Node
}

// childEntries names every child of n the way the projection does: elements
// get "localname[siblingIndex]" where siblingIndex counts same-named element
// siblings from 0; attributes get "@localname"; text/comment/PI children
// get "#text"/"#comment"/"?target"; the first of each such name stays bare
// and each later one is suffixed with "[index]" (so the common case stays
// bare).
func childEntries(n *domnode.Node) ([]entry, error) {
	children, err := n.Children()
	if err != nil {
		return nil, err
	}
	elemIdx := make(map[string]int)
	piIdx := make(map[string]int)
	textIdx, commentIdx := 0, 0

	out := make([]entry, 0, len(children))
	for _, c := range children {
		switch c.Type {
		case domnode.Element:
			local := c.LocalName()
			idx := elemIdx[local]
			elemIdx[local] = idx + 1
			out = append(out, entry{name: fmt.Sprintf("%s[%d]", local, idx), node: c})
		case domnode.Attribute:
			out = append(out, entry{name: "@" + c.LocalName(), node: c})
		case domnode.Text:
			name := indexedName("#text", textIdx)
			textIdx++
			out = append(out, entry{name: name, node: c})
		case domnode.Comment:
			name := indexedName("#comment", commentIdx)
			commentIdx++
			out = append(out, entry{name: name, node: c})
		case domnode.ProcessingInstruction:
			idx := piIdx[c.PITarget]
			piIdx[c.PITarget] = idx + 1
			name := indexedName("?"+c.PITarget, idx)
			out = append(out, entry{name: name, node: c})
		}
	}
	return out, nil
}

func indexedName(base string, idx int) string {
	if idx == 0 {
		return base
	}
	return fmt.Sprintf("%s[%d]", base, idx)
}

// resolve walks path from the document root, matching each segment against
// childEntries, and returns the node it names.
func (fs *FS) resolve(path string) (*domnode.Node, error) {
	root, err := fs.doc.Root()
	if err != nil {
		return nil, err
	}
	segs := splitPath(path)
	cur := root
	for _, seg := range segs {
		entries, err := childEntries(cur)
		if err != nil {
			return nil, err
		}
		found := false
		for _, e := range entries {
			if e.name == seg {
				cur = e.node
				found = true
				break
			}
		}
		if !found {
			return nil, os.ErrNotExist
		}
	}
	return cur, nil
}

func splitPath(path string) []string {
	path = strings.Trim(filepath.ToSlash(path), "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

// --- billy.Basic ---

func (fs *FS) Create(filename string) (billy.File, error) { return nil, errReadOnly }

func (fs *FS) Open(filename string) (billy.File, error) {
	return fs.OpenFile(filename, os.O_RDONLY, 0)
}

func (fs *FS) OpenFile(filename string, flag int, _ os.FileMode) (billy.File, error) {
	if flag&(os.O_WRONLY|os.O_RDWR|os.O_CREATE|os.O_TRUNC|os.O_APPEND) != 0 {
		return nil, errReadOnly
	}
	n, err := fs.resolve(filename)
	if err != nil {
		return nil, &os.PathError{Op: "open", Path: filename, Err: err}
	}
	if n.Type == domnode.Element {
		return nil, &os.PathError{Op: "open", Path: filename, Err: fmt.Errorf("is a directory")}
	}
	return &nodeFile{name: filename, data: []byte(n.NodeValue())}, nil
}

func (fs *FS) Stat(filename string) (os.FileInfo, error) { return fs.Lstat(filename) }

func (fs *FS) Rename(oldpath, newpath string) error { return errReadOnly }

func (fs *FS) Remove(filename string) error { return errReadOnly }

func (fs *FS) Join(elem ...string) string { return filepath.Join(elem...) }

// --- billy.TempFile ---

func (fs *FS) TempFile(dir, prefix string) (billy.File, error) { return nil, errReadOnly }

// --- billy.Dir ---

func (fs *FS) ReadDir(path string) ([]os.FileInfo, error) {
	n, err := fs.resolve(path)
	if err != nil {
		return nil, &os.PathError{Op: "readdir", Path: path, Err: err}
	}
	if n.Type != domnode.Element {
		return nil, &os.PathError{Op: "readdir", Path: path, Err: fmt.Errorf("not a directory")}
	}
	entries, err := childEntries(n)
	if err != nil {
		return nil, err
	}
	infos := make([]os.FileInfo, 0, len(entries))
	for _, e := range entries {
		infos = append(infos, nodeFileInfo(e.name, e.node))
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name() < infos[j].Name() })
	return infos, nil
}

func (fs *FS) MkdirAll(filename string, perm os.FileMode) error { return errReadOnly }

// --- billy.Symlink ---

func (fs *FS) Lstat(filename string) (os.FileInfo, error) {
	if strings.Trim(filepath.ToSlash(filename), "/") == "" {
		root, err := fs.doc.Root()
		if err != nil {
			return nil, err
		}
		return nodeFileInfo("/", root), nil
	}
	n, err := fs.resolve(filename)
	if err != nil {
		return nil, &os.PathError{Op: "lstat", Path: filename, Err: err}
	}
	return nodeFileInfo(filepath.Base(filename), n), nil
}

func (fs *FS) Symlink(target, link string) error { return errReadOnly }

func (fs *FS) Readlink(link string) (string, error) { return "", billy.ErrNotSupported }

// --- billy.Chroot ---

func (fs *FS) Chroot(path string) (billy.Filesystem, error) { return chroot.New(fs, path), nil }

func (fs *FS) Root() string { return "/" }

// --- billy.Capable ---

func (fs *FS) Capabilities() billy.Capability {
	return billy.ReadCapability | billy.SeekCapability
}

// nodeFileInfo renders n as a static os.FileInfo named name.
func nodeFileInfo(name string, n *domnode.Node) os.FileInfo {
	mode := os.FileMode(0o444)
	var size int64
	if n.Type == domnode.Element {
		mode = os.ModeDir | 0o555
	} else {
		size = int64(len(n.NodeValue()))
	}
	return &staticFileInfo{name: name, size: size, mode: mode}
}

type staticFileInfo struct {
	name string
	size int64
	mode os.FileMode
}

func (fi *staticFileInfo) Name() string       { return fi.name }
func (fi *staticFileInfo) Size() int64        { return fi.size }
func (fi *staticFileInfo) Mode() os.FileMode  { return fi.mode }
func (fi *staticFileInfo) ModTime() time.Time { return time.Time{} }
func (fi *staticFileInfo) IsDir() bool        { return fi.mode.IsDir() }
func (fi *staticFileInfo) Sys() interface{}   { return nil }

// nodeFile implements billy.File over a node's rendered content. Read-only:
// every mutating method returns errReadOnly.
type nodeFile struct {
	name string
	data []byte
	pos  int64
}

func (f *nodeFile) Name() string { return f.name }

func (f *nodeFile) Read(p []byte) (int, error) {
	if f.pos >= int64(len(f.data)) {
		return 0, io.EOF
	}
	n := copy(p, f.data[f.pos:])
	f.pos += int64(n)
	if f.pos >= int64(len(f.data)) {
		return n, io.EOF
	}
	return n, nil
}

func (f *nodeFile) ReadAt(p []byte, off int64) (int, error) {
	if off >= int64(len(f.data)) {
		return 0, io.EOF
	}
	n := copy(p, f.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (f *nodeFile) Seek(offset int64, whence int) (int64, error) {
	var newPos int64
	switch whence {
	case io.SeekStart:
		newPos = offset
	case io.SeekCurrent:
		newPos = f.pos + offset
	case io.SeekEnd:
		newPos = int64(len(f.data)) + offset
	}
	if newPos < 0 {
		newPos = 0
	}
	f.pos = newPos
	return f.pos, nil
}

func (f *nodeFile) Write([]byte) (int, error) { return 0, errReadOnly }
func (f *nodeFile) Truncate(int64) error      { return errReadOnly }
func (f *nodeFile) Lock() error               { return nil }
func (f *nodeFile) Unlock() error             { return nil }
func (f *nodeFile) Close() error              { return nil }

var (
	_ billy.Filesystem = (*FS)(nil)
	_ billy.Capable    = (*FS)(nil)
	_ billy.File       = (*nodeFile)(nil)
)
