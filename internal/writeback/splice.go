// Package writeback provides a byte-range splice utility: it replaces the
// [start, end) span of a file on disk in place. No other package in this
// module calls it.
package writeback

import (
	"fmt"
	"os"
	"path/filepath"
)

// ByteRange identifies a [Start, End) byte span within FilePath.
type ByteRange struct {
	FilePath string
	Start    uint32
	End      uint32
}

// Splice replaces the byte range identified by r with newContent in the
// backing file. The write is atomic: content is written to a temp file in
// the same directory first, then renamed over the original.
func Splice(r ByteRange, newContent []byte) error {
	src, err := os.ReadFile(r.FilePath)
	if err != nil {
		return fmt.Errorf("writeback: read source %s: %w", r.FilePath, err)
	}

	start, end := r.Start, r.End
	if int(start) > len(src) || int(end) > len(src) || start > end {
		return fmt.Errorf("writeback: invalid byte range [%d:%d] for file of length %d", start, end, len(src))
	}

	result := make([]byte, 0, int(start)+len(newContent)+len(src)-int(end))
	result = append(result, src[:start]...)
	result = append(result, newContent...)
	result = append(result, src[end:]...)

	dir := filepath.Dir(r.FilePath)
	tmp, err := os.CreateTemp(dir, ".splice-*")
	if err != nil {
		return fmt.Errorf("writeback: create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(result); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("writeback: write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("writeback: close temp: %w", err)
	}

	if info, err := os.Stat(r.FilePath); err == nil {
		_ = os.Chmod(tmpName, info.Mode())
	}

	if err := os.Rename(tmpName, r.FilePath); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("writeback: rename temp to %s: %w", r.FilePath, err)
	}
	return nil
}
