package document

import (
	"fmt"
	"log"

	"github.com/agentic-research/mache-xml/internal/codec"
	"github.com/agentic-research/mache-xml/internal/coreerr"
	"github.com/agentic-research/mache-xml/internal/domnode"
	"github.com/agentic-research/mache-xml/internal/gidtree"
	"github.com/agentic-research/mache-xml/internal/pagestore"
	"github.com/agentic-research/mache-xml/internal/qname"
)

// Writer assigns GIDs to a pre-order stream of node descriptions and
// persists each one through the page store, using a frozen order table
// (produced by InferOrderTable before the first call to WriteRoot). It is
// append-only and single-writer, matching the concurrency model: no method
// on Writer is safe for concurrent use.
type Writer struct {
	docID          string
	collectionPath string
	store          *pagestore.Store
	tree           *gidtree.Tree
	order          []uint64
	occupancy      *occupancyIndex
	topLevel       []gidtree.GID
	outerSiblings  []gidtree.GID
	nextNameRef    int32
	nameRefs       map[string]int32 // "uri\x00local" -> ref; prefix is never part of identity
	childCounts    map[gidtree.GID]int
	logger         *log.Logger
}

// NewWriter opens a writer for a brand-new document. order must already be
// frozen (typically via InferOrderTable run over a pre-pass).
func NewWriter(store *pagestore.Store, docID, collectionPath string, order []uint64, logger *log.Logger) *Writer {
	if logger == nil {
		logger = log.Default()
	}
	return &Writer{
		docID:          docID,
		collectionPath: collectionPath,
		store:          store,
		tree:           gidtree.New(order),
		order:          order,
		occupancy:      newOccupancyIndex(order),
		nameRefs:       make(map[string]int32),
		childCounts:    make(map[gidtree.GID]int),
		logger:         logger,
	}
}

// nameRef returns the interned symbol-table reference for name, assigning
// and persisting a fresh one on first use.
func (w *Writer) nameRef(name qname.QName) (int32, error) {
	key := name.URI() + "\x00" + name.Local()
	if ref, ok := w.nameRefs[key]; ok {
		return ref, nil
	}
	ref := w.nextNameRef
	w.nextNameRef++
	if err := w.store.PutSymbol(w.docID, ref, name); err != nil {
		return 0, err
	}
	w.nameRefs[key] = ref
	return ref, nil
}

// WriteRoot persists the document's single root element at GID 1.
func (w *Writer) WriteRoot(name qname.QName, attrCount uint8, childCount uint32) (gidtree.GID, error) {
	ref, err := w.nameRef(name)
	if err != nil {
		return 0, err
	}
	n := &domnode.Node{Type: domnode.Element, NameRef: ref, AttrCount: attrCount, ChildCount: childCount}
	if err := w.persist(gidtree.RootGID, n); err != nil {
		return 0, err
	}
	if err := w.occupancy.Mark(0, 0); err != nil {
		return 0, err
	}
	w.topLevel = append(w.topLevel, gidtree.RootGID)
	return gidtree.RootGID, nil
}

// topLevelGIDBase is the first GID assigned to a document-level comment or
// processing instruction outside the root element. gidtree's arithmetic
// reserves order[0]=1 slot at level 0 for the root alone, so these outer
// siblings need an address space that can never collide with it — chosen
// far above anything a tree's level ranges could reach in practice.
const topLevelGIDBase gidtree.GID = 1 << 62

// WriteTopLevel persists a comment or processing instruction outside the
// root element, appending it to the document's top-level sibling list —
// the level-0 navigation gidtree's pure arithmetic cannot answer (order[0]
// is always 1).
func (w *Writer) WriteTopLevel(n *domnode.Node) (gidtree.GID, error) {
	gid := topLevelGIDBase + gidtree.GID(len(w.outerSiblings))
	if err := w.persist(gid, n); err != nil {
		return 0, err
	}
	w.outerSiblings = append(w.outerSiblings, gid)
	w.topLevel = append(w.topLevel, gid)
	return gid, nil
}

// WriteChild assigns the next sibling slot under parent and persists n
// there, failing with ErrOverflowingLevel if parent already has
// order[level(parent)+1] children.
func (w *Writer) WriteChild(parent gidtree.GID, n *domnode.Node) (gidtree.GID, error) {
	level, err := w.tree.TreeLevel(parent)
	if err != nil {
		return 0, err
	}
	childLevel := level + 1
	if childLevel >= len(w.order) {
		return 0, fmt.Errorf("document: write child: level %d exceeds configured depth: %w", childLevel, coreerr.ErrOverflowingLevel)
	}
	idx := w.childCounts[parent]
	if err := w.occupancy.Mark(childLevel, idx); err != nil {
		return 0, fmt.Errorf("document: write child: parent gid=%d already has %d children (order[%d]=%d): %w",
			parent, idx, childLevel, w.order[childLevel], coreerr.ErrOverflowingLevel)
	}

	first, err := w.tree.FirstChild(parent)
	if err != nil {
		return 0, err
	}
	gid := first + gidtree.GID(idx)
	if err := w.persist(gid, n); err != nil {
		return 0, err
	}
	w.childCounts[parent] = idx + 1
	return gid, nil
}

// WriteElementChild is WriteChild specialized for element nodes, interning
// name first.
func (w *Writer) WriteElementChild(parent gidtree.GID, name qname.QName, attrCount uint8, childCount uint32) (gidtree.GID, error) {
	ref, err := w.nameRef(name)
	if err != nil {
		return 0, err
	}
	n := &domnode.Node{Type: domnode.Element, NameRef: ref, AttrCount: attrCount, ChildCount: childCount}
	return w.WriteChild(parent, n)
}

// WriteAttributeChild is WriteChild specialized for attribute nodes.
func (w *Writer) WriteAttributeChild(parent gidtree.GID, name qname.QName, kind domnode.AttrType, value string) (gidtree.GID, error) {
	ref, err := w.nameRef(name)
	if err != nil {
		return 0, err
	}
	n := &domnode.Node{Type: domnode.Attribute, NameRef: ref, AttrKind: kind, AttrValue: value}
	return w.WriteChild(parent, n)
}

// WriteTextChild is WriteChild specialized for text nodes.
func (w *Writer) WriteTextChild(parent gidtree.GID, value []byte) (gidtree.GID, error) {
	n := &domnode.Node{Type: domnode.Text, TextValue: value}
	return w.WriteChild(parent, n)
}

// WriteCommentChild is WriteChild specialized for comment nodes.
func (w *Writer) WriteCommentChild(parent gidtree.GID, value []byte) (gidtree.GID, error) {
	n := &domnode.Node{Type: domnode.Comment, TextValue: value}
	return w.WriteChild(parent, n)
}

// WritePIChild is WriteChild specialized for processing-instruction nodes.
func (w *Writer) WritePIChild(parent gidtree.GID, target, data string) (gidtree.GID, error) {
	n := &domnode.Node{Type: domnode.ProcessingInstruction, PITarget: target, PIData: data}
	return w.WriteChild(parent, n)
}

func (w *Writer) persist(gid gidtree.GID, n *domnode.Node) error {
	b, err := codec.Serialize(n)
	if err != nil {
		return fmt.Errorf("document: serialize gid=%d: %w", gid, err)
	}
	return w.store.Put(w.docID, gid, int64(gid), b)
}

// Finish freezes the document's order table and top-level sibling list into
// the page store's metadata row, completing ingest.
func (w *Writer) Finish() error {
	return w.store.PutDocumentMeta(pagestore.DocumentMeta{
		DocID:            w.docID,
		CollectionPath:   w.collectionPath,
		OrderTable:       w.order,
		TopLevelSiblings: w.topLevel,
	})
}
