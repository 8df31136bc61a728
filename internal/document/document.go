// Package document implements the document model (C5): the owner of a
// document's frozen order table, its broker handle (the page store, D1),
// its level-occupancy index (D2) and its symbol-table cache, exposing
// parent/sibling/child navigation built on gidtree (C3) and domnode (C4).
//
// Document satisfies domnode.Owner without domnode importing this package —
// the back reference described there.
package document

import (
	"fmt"
	"log"

	"github.com/agentic-research/mache-xml/internal/codec"
	"github.com/agentic-research/mache-xml/internal/domnode"
	"github.com/agentic-research/mache-xml/internal/gidtree"
	"github.com/agentic-research/mache-xml/internal/pagestore"
	"github.com/agentic-research/mache-xml/internal/qname"
)

// Document owns one document's navigable node tree. It holds no strong
// pointers into domnode.Node beyond what the pool-backed GetNode path
// allocates on demand; nodes are reconstructed from D1 on every lookup.
type Document struct {
	docID          string
	collectionPath string
	store          *pagestore.Store
	tree           *gidtree.Tree
	occupancy      *occupancyIndex
	topLevel       []gidtree.GID // ascending; the document-level sibling list (root + outer comments/PIs)
	pool           *domnode.Pool
	logger         *log.Logger
}

// storeResolver adapts pagestore.Store.Lookup (which is keyed per-document)
// to codec.NameResolver, which knows only a bare name ref.
type storeResolver struct {
	store *pagestore.Store
	docID string
}

func (r storeResolver) Lookup(nameRef int32) (qname.QName, bool) {
	return r.store.Lookup(r.docID, nameRef)
}

// Open loads a previously ingested document's frozen metadata from store and
// returns a ready-to-query Document.
func Open(store *pagestore.Store, docID string, logger *log.Logger) (*Document, error) {
	meta, err := store.GetDocumentMeta(docID)
	if err != nil {
		return nil, fmt.Errorf("document: open %s: %w", docID, err)
	}
	if logger == nil {
		logger = log.Default()
	}
	d := &Document{
		docID:          docID,
		collectionPath: meta.CollectionPath,
		store:          store,
		tree:           gidtree.New(meta.OrderTable),
		occupancy:      newOccupancyIndex(meta.OrderTable),
		topLevel:       meta.TopLevelSiblings,
		pool:           domnode.NewPool(),
		logger:         logger,
	}
	return d, nil
}

// DocID returns the document's identifier.
func (d *Document) DocID() string { return d.docID }

// CollectionPath returns the logical path this document was ingested from.
func (d *Document) CollectionPath() string { return d.collectionPath }

// Root returns the document's root element node (GID 1).
func (d *Document) Root() (*domnode.Node, error) {
	return d.GetNode(gidtree.RootGID)
}

// GetNode fetches and decodes the node at gid, binding it to d as owner. The
// returned Node is drawn from d's pool; callers that hold onto many nodes at
// once (rather than one at a time during a walk) should call ReleaseNode
// once done with each to let the pool reclaim it.
func (d *Document) GetNode(gid gidtree.GID) (*domnode.Node, error) {
	raw, err := d.store.Fetch(d.docID, gid)
	if err != nil {
		return nil, err
	}
	resolver := storeResolver{store: d.store, docID: d.docID}
	n, err := codec.DeserializeInto(d.pool.Get(), raw, 0, len(raw), d, uint64(gid), resolver)
	if err != nil {
		return nil, fmt.Errorf("document: decode gid=%d: %w", gid, err)
	}
	n.GID = gid
	return n, nil
}

// ReleaseNode returns n to d's node pool. n must not be used again by the
// caller afterward.
func (d *Document) ReleaseNode(n *domnode.Node) {
	d.pool.Put(n)
}

// --- domnode.Owner ---

// TreeLevel returns g's tree level via C3 arithmetic. GIDs on the
// document's top-level sibling list (the root and the comments/PIs outside
// it) are level 0.
func (d *Document) TreeLevel(g gidtree.GID) (int, error) {
	if d.topLevelIndex(g) >= 0 {
		return 0, nil
	}
	return d.tree.TreeLevel(g)
}

// Parent returns g's parent GID, or NoGID if g is the document root.
func (d *Document) Parent(g gidtree.GID) (gidtree.GID, error) { return d.tree.Parent(g) }

// FirstChild returns g's first potential child slot.
func (d *Document) FirstChild(g gidtree.GID) (gidtree.GID, error) { return d.tree.FirstChild(g) }

// NextSibling returns g's next sibling GID within its level-computed window.
func (d *Document) NextSibling(g gidtree.GID) (gidtree.GID, error) { return d.tree.NextSibling(g) }

// PreviousSibling returns g's previous sibling GID within its window.
func (d *Document) PreviousSibling(g gidtree.GID) (gidtree.GID, error) {
	return d.tree.PreviousSibling(g)
}

// FollowingSibling answers level-0 sibling navigation (the document's
// top-level comment/PI/root list), which gidtree's pure arithmetic cannot:
// order[0] is always 1, so level 0 has no sibling window of its own.
func (d *Document) FollowingSibling(n *domnode.Node) (gidtree.GID, error) {
	idx := d.topLevelIndex(n.GID)
	if idx < 0 || idx+1 >= len(d.topLevel) {
		return gidtree.NoGID, nil
	}
	return d.topLevel[idx+1], nil
}

// PrecedingSibling is FollowingSibling's mirror at level 0.
func (d *Document) PrecedingSibling(n *domnode.Node) (gidtree.GID, error) {
	idx := d.topLevelIndex(n.GID)
	if idx <= 0 {
		return gidtree.NoGID, nil
	}
	return d.topLevel[idx-1], nil
}

func (d *Document) topLevelIndex(g gidtree.GID) int {
	for i, v := range d.topLevel {
		if v == g {
			return i
		}
	}
	return -1
}

var _ domnode.Owner = (*Document)(nil)
