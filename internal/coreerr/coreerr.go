// Package coreerr holds the sentinel errors shared by every core package.
// Each is a plain sentinel compared with errors.Is and wrapped with
// fmt.Errorf("...: %w") at the call site.
package coreerr

import "errors"

var (
	// ErrNotSupported is reported when a mutation is attempted on an
	// immutable core node value.
	ErrNotSupported = errors.New("core: operation not supported on an immutable node")

	// ErrCorruptNodeRecord is reported when a node's signature byte does
	// not name a known node type.
	ErrCorruptNodeRecord = errors.New("core: corrupt node record")

	// ErrTruncatedRecord is reported when a declared payload length
	// extends past the available bytes.
	ErrTruncatedRecord = errors.New("core: truncated node record")

	// ErrTruncatedSubtree is reported when a child iterator ends before
	// the expected child count is reached during getLastNode.
	ErrTruncatedSubtree = errors.New("core: truncated subtree")

	// ErrInvalidTriggerConfig is reported when trigger parameters are
	// missing or malformed at configure time.
	ErrInvalidTriggerConfig = errors.New("core: invalid trigger configuration")

	// ErrOverflowingLevel is reported when a document's observed
	// branching at a level exceeds the configured order[L].
	ErrOverflowingLevel = errors.New("core: level overflow")

	// ErrNodeNotFound is reported when a GID has no corresponding page.
	ErrNodeNotFound = errors.New("core: node not found")
)
