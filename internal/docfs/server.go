package docfs

import (
	"fmt"
	"net"
	"os/exec"
	"runtime"

	billy "github.com/go-git/go-billy/v5"
	nfs "github.com/willscott/go-nfs"
	nfshelper "github.com/willscott/go-nfs/helpers"
)

// Server runs a loopback NFS server over a docfs tree, the "cmd mount"
// front end named in the projection's design: inspection without requiring
// local FUSE support.
type Server struct {
	listener net.Listener
	port     int
}

// Serve starts an NFS server on an ephemeral port backed by fs. The server
// is always read-only — fs.Capabilities never advertises WriteCapability,
// so every mutating NFS call surfaces EROFS through go-nfs's own handling.
func Serve(fs billy.Filesystem) (*Server, error) {
	listener, err := net.Listen("tcp", ":0")
	if err != nil {
		return nil, fmt.Errorf("docfs: nfs listen: %w", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port

	handler := nfshelper.NewNullAuthHandler(fs)
	cacheHelper := nfshelper.NewCachingHandler(handler, 4096)

	go func() {
		_ = nfs.Serve(listener, cacheHelper)
	}()

	return &Server{listener: listener, port: port}, nil
}

// Port returns the TCP port the server is listening on.
func (s *Server) Port() int { return s.port }

// Close stops the server by closing its listener.
func (s *Server) Close() error { return s.listener.Close() }

// Mount shells out to the platform mount command to attach the server at
// mountpoint, always read-only.
func Mount(port int, mountpoint string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		opts := fmt.Sprintf("port=%d,mountport=%d,vers=3,tcp,locallocks,noresvport,rdonly", port, port)
		cmd = exec.Command("sudo", "mount", "-t", "nfs", "-o", opts, "localhost:/", mountpoint)
	case "linux":
		opts := fmt.Sprintf("port=%d,mountport=%d,vers=3,tcp,local_lock=all,nolock,ro", port, port)
		cmd = exec.Command("sudo", "mount", "-t", "nfs", "-o", opts, "localhost:/", mountpoint)
	default:
		return fmt.Errorf("docfs: mount: unsupported OS: %s", runtime.GOOS)
	}
	cmd.Stdin = nil
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("docfs: mount failed: %w\n%s", err, string(output))
	}
	return nil
}

// Unmount shells out to the platform unmount command.
func Unmount(mountpoint string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("diskutil", "unmount", mountpoint)
		if err := cmd.Run(); err == nil {
			return nil
		}
		cmd = exec.Command("sudo", "umount", mountpoint)
	default:
		cmd = exec.Command("sudo", "umount", mountpoint)
	}
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("docfs: unmount failed: %w\n%s", err, string(output))
	}
	return nil
}
