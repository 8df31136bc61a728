// Package domnode implements the polymorphic node record (C4): the
// in-memory value for an element, attribute, text, comment or processing
// instruction node, carrying its GID, storage address and a weak back
// reference to its owning document.
//
// Nodes are immutable once persisted. The DOM-ish navigation methods
// (Parent, NextSibling, FirstChild, ...) defer to the Owner interface,
// which the document package satisfies without domnode importing it —
// this breaks what would otherwise be an import cycle.
package domnode

import (
	"errors"
	"fmt"
	"strings"

	"github.com/agentic-research/mache-xml/internal/coreerr"
	"github.com/agentic-research/mache-xml/internal/gidtree"
	"github.com/agentic-research/mache-xml/internal/qname"
)

// NodeType tags which DOM variant a Node carries.
type NodeType uint8

const (
	// Element nodes carry a name, attribute count and child count.
	Element NodeType = iota + 1
	// Attribute nodes carry a name, value and AttrType.
	Attribute
	// Text nodes carry a raw byte payload.
	Text
	// Comment nodes carry a raw byte payload.
	Comment
	// ProcessingInstruction nodes carry a target and data string.
	ProcessingInstruction
)

func (t NodeType) String() string {
	switch t {
	case Element:
		return "element"
	case Attribute:
		return "attribute"
	case Text:
		return "text"
	case Comment:
		return "comment"
	case ProcessingInstruction:
		return "processing-instruction"
	default:
		return "unknown"
	}
}

// AttrType is the DTD-ish type tag carried by attribute nodes.
type AttrType uint8

const (
	CDATA AttrType = iota
	ID
	IDREF
)

// NoAddress marks a node that has not yet been persisted.
const NoAddress int64 = -1

// NoNameRef marks a node whose symbol-table reference has not been
// resolved yet.
const NoNameRef int32 = -1

// Owner is the navigation surface a document provides to a Node. The
// document package binds the *Document itself as the owner, so the Node
// holds an ordinary reference to its document through this interface;
// there is no registry handle in between, and the reference is not weak.
type Owner interface {
	TreeLevel(g gidtree.GID) (int, error)
	Parent(g gidtree.GID) (gidtree.GID, error)
	FirstChild(g gidtree.GID) (gidtree.GID, error)
	NextSibling(g gidtree.GID) (gidtree.GID, error)
	PreviousSibling(g gidtree.GID) (gidtree.GID, error)
	FollowingSibling(n *Node) (gidtree.GID, error)
	PrecedingSibling(n *Node) (gidtree.GID, error)
	GetNode(g gidtree.GID) (*Node, error)
}

// ChildIterator yields nodes in pre-order, assigning each a GID as it goes.
// Like pagestore.Iterator, it is a lazy, non-restartable sequence.
type ChildIterator interface {
	// Next returns the next node in pre-order, or ok=false when the
	// sequence is exhausted.
	Next() (node *Node, ok bool)
}

// Node is the polymorphic node record (C4).
type Node struct {
	Type            NodeType
	GID             gidtree.GID
	InternalAddress int64
	Name            qname.QName
	NameRef         int32

	// Element-only.
	AttrCount  uint8
	ChildCount uint32

	// Text/Comment-only.
	TextValue []byte

	// Attribute-only.
	AttrValue string
	AttrKind  AttrType

	// ProcessingInstruction-only.
	PITarget string
	PIData   string

	owner Owner
}

// SetOwner binds the node's weak back reference. Called by the document
// package (or a node pool) right after decode/construction; never by
// application code.
func (n *Node) SetOwner(owner Owner) { n.owner = owner }

// Owner returns the node's owning document surface, or nil if unbound
// (e.g. a pooled node awaiting reuse).
func (n *Node) Owner() Owner { return n.owner }

// Clear resets every field so a pooled node can be reused without a fresh
// allocation — used by the ingest reader to avoid per-node allocation.
func (n *Node) Clear() {
	*n = Node{}
}

// NodeValue returns the DOM "node value" for variants that carry one:
// text content for TEXT/COMMENT, the value string for ATTRIBUTE, the
// data string for PI. Elements have no node value ("").
func (n *Node) NodeValue() string {
	switch n.Type {
	case Text, Comment:
		return string(n.TextValue)
	case Attribute:
		return n.AttrValue
	case ProcessingInstruction:
		return n.PIData
	default:
		return ""
	}
}

// LocalName returns the local part of the node's name, or "" for
// text/comment nodes which carry no XML name.
func (n *Node) LocalName() string { return n.Name.Local() }

// NamespaceURI returns the node's namespace URI, or "".
func (n *Node) NamespaceURI() string { return n.Name.URI() }

// Prefix returns the node's bound prefix, or "".
func (n *Node) Prefix() string { return n.Name.Prefix() }

// Parent returns the node's parent, or nil if n is the document root
// (GID 1) — navigation beyond the root is the document wrapper's job.
func (n *Node) Parent() (*Node, error) {
	if n.owner == nil {
		return nil, fmt.Errorf("domnode: Parent: %w", coreerr.ErrNotSupported)
	}
	pg, err := n.owner.Parent(n.GID)
	if err != nil {
		return nil, err
	}
	if pg == gidtree.NoGID {
		return nil, nil
	}
	return n.owner.GetNode(pg)
}

// NextSibling returns the node immediately following n in document order
// at the same level, or nil if n is the last sibling.
func (n *Node) NextSibling() (*Node, error) {
	if n.owner == nil {
		return nil, fmt.Errorf("domnode: NextSibling: %w", coreerr.ErrNotSupported)
	}
	level, err := n.owner.TreeLevel(n.GID)
	if err != nil {
		return nil, err
	}
	if level == 0 {
		fg, err := n.owner.FollowingSibling(n)
		if err != nil || fg == gidtree.NoGID {
			return nil, err
		}
		return n.owner.GetNode(fg)
	}
	sg, err := n.owner.NextSibling(n.GID)
	if err != nil || sg == gidtree.NoGID {
		return nil, err
	}
	next, err := n.owner.GetNode(sg)
	if errors.Is(err, coreerr.ErrNodeNotFound) {
		// Sibling slots are filled from index 0 upward, so an empty slot
		// after n means n is the last sibling.
		return nil, nil
	}
	return next, err
}

// PreviousSibling returns the node immediately preceding n in document
// order at the same level, or nil if n is the first sibling.
func (n *Node) PreviousSibling() (*Node, error) {
	if n.owner == nil {
		return nil, fmt.Errorf("domnode: PreviousSibling: %w", coreerr.ErrNotSupported)
	}
	level, err := n.owner.TreeLevel(n.GID)
	if err != nil {
		return nil, err
	}
	if level == 0 {
		pg, err := n.owner.PrecedingSibling(n)
		if err != nil || pg == gidtree.NoGID {
			return nil, err
		}
		return n.owner.GetNode(pg)
	}
	sg, err := n.owner.PreviousSibling(n.GID)
	if err != nil || sg == gidtree.NoGID {
		return nil, err
	}
	return n.owner.GetNode(sg)
}

// FirstChild returns the node's first child, or nil if it has none
// (ChildCount == 0, or n is not an element).
func (n *Node) FirstChild() (*Node, error) {
	if n.Type != Element || n.ChildCount == 0 {
		return nil, nil
	}
	if n.owner == nil {
		return nil, fmt.Errorf("domnode: FirstChild: %w", coreerr.ErrNotSupported)
	}
	cg, err := n.owner.FirstChild(n.GID)
	if err != nil {
		return nil, err
	}
	return n.owner.GetNode(cg)
}

// Children returns every child of an element node in ascending GID order.
func (n *Node) Children() ([]*Node, error) {
	if n.Type != Element || n.ChildCount == 0 {
		return nil, nil
	}
	first, err := n.FirstChild()
	if err != nil || first == nil {
		return nil, err
	}
	out := make([]*Node, 0, n.ChildCount)
	cur := first
	for cur != nil {
		out = append(out, cur)
		cur, err = cur.NextSibling()
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// GetPath returns the "/"-joined sequence of ancestor local names from the
// document root down to n, inclusive. The document root itself is "/".
func (n *Node) GetPath() (string, error) {
	if n.GID == gidtree.RootGID {
		return "/", nil
	}
	var segs []string
	cur := n
	for cur != nil {
		if cur.Type == Element {
			segs = append(segs, cur.LocalName())
		}
		if cur.GID == gidtree.RootGID {
			break
		}
		parent, err := cur.Parent()
		if err != nil {
			return "", err
		}
		if parent == nil {
			break
		}
		cur = parent
	}
	// segs was built leaf-to-root; reverse it.
	for i, j := 0, len(segs)-1; i < j; i, j = i+1, j-1 {
		segs[i], segs[j] = segs[j], segs[i]
	}
	return "/" + strings.Join(segs, "/"), nil
}

// GetLastNode performs a depth-first walk over a pre-ordered iterator of
// child GIDs, starting from start, and returns the last (rightmost
// deepest) descendant. Each iterator Next() assigns the next GID in
// sequence. Used by higher layers splicing a subtree's byte range.
func GetLastNode(it ChildIterator, start *Node) (*Node, error) {
	if start.Type != Element || start.ChildCount == 0 {
		return start, nil
	}
	var last *Node = start
	remaining := int(start.ChildCount)
	for remaining > 0 {
		child, ok := it.Next()
		if !ok {
			return nil, fmt.Errorf("domnode: GetLastNode: expected %d more children: %w", remaining, coreerr.ErrTruncatedSubtree)
		}
		remaining--
		if child.Type == Element && child.ChildCount > 0 {
			descendant, err := GetLastNode(it, child)
			if err != nil {
				return nil, err
			}
			last = descendant
		} else {
			last = child
		}
	}
	return last, nil
}

// --- Mutation contract: every write operation fails with ErrNotSupported.
// Core nodes are read-only; a higher-level editable overlay (out of scope)
// satisfies a separate mutation contract.

func (n *Node) AppendChild(*Node) error  { return fmt.Errorf("domnode: AppendChild: %w", coreerr.ErrNotSupported) }
func (n *Node) InsertBefore(*Node) error { return fmt.Errorf("domnode: InsertBefore: %w", coreerr.ErrNotSupported) }
func (n *Node) RemoveChild(*Node) error  { return fmt.Errorf("domnode: RemoveChild: %w", coreerr.ErrNotSupported) }
func (n *Node) ReplaceChild(*Node) error { return fmt.Errorf("domnode: ReplaceChild: %w", coreerr.ErrNotSupported) }
func (n *Node) UpdateChild(*Node) error  { return fmt.Errorf("domnode: UpdateChild: %w", coreerr.ErrNotSupported) }
