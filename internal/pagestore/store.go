// Package pagestore implements the broker (D1): a SQLite-resident byte-span
// store backing the document model. Keys are (doc_id, gid); values are the
// codec-encoded bytes for one node record plus the internal address the
// document model assigned it.
//
// Open resolves the backing file's path through a billy.Filesystem (joining
// its Root and the given path); SQLite then opens that host path itself, so
// the database's contents never pass through the billy.Filesystem and a
// memfs does not keep the store in memory. OpenDSN takes a DSN directly
// (e.g. ":memory:").
package pagestore

import (
	"database/sql"
	"fmt"
	"sort"
	"sync"

	billy "github.com/go-git/go-billy/v5"
	_ "modernc.org/sqlite"

	"github.com/agentic-research/mache-xml/internal/coreerr"
	"github.com/agentic-research/mache-xml/internal/gidtree"
	"github.com/agentic-research/mache-xml/internal/qname"
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS pages (
	doc_id TEXT NOT NULL,
	gid INTEGER NOT NULL,
	internal_address INTEGER NOT NULL,
	bytes BLOB NOT NULL,
	PRIMARY KEY (doc_id, gid)
);
CREATE TABLE IF NOT EXISTS symbols (
	doc_id TEXT NOT NULL,
	name_ref INTEGER NOT NULL,
	uri TEXT NOT NULL,
	local TEXT NOT NULL,
	prefix TEXT NOT NULL,
	PRIMARY KEY (doc_id, name_ref)
);
CREATE TABLE IF NOT EXISTS documents (
	doc_id TEXT PRIMARY KEY,
	collection_path TEXT NOT NULL,
	order_table BLOB NOT NULL,
	top_level_siblings BLOB NOT NULL
);
`

// Store owns the SQLite connection backing one or more documents' page
// tables. A single Store may be shared by multiple documents distinguished
// by doc_id.
type Store struct {
	db *sql.DB

	// symCacheMu guards symCache, an in-process read cache over the symbols
	// table keyed by "doc_id\x00name_ref" — append-only during ingest, so a
	// cache entry is never invalidated once written.
	symCacheMu sync.RWMutex
	symCache   map[string]qname.QName
}

// Open joins fs.Root() and path (e.g. an osfs.New("/var/lib/mache-xml")
// root) and opens or creates the SQLite database at that host path; only the
// path is taken from fs, not the file's storage.
func Open(fs billy.Filesystem, path string) (*Store, error) {
	full := fs.Join(fs.Root(), path)
	db, err := sql.Open("sqlite", full)
	if err != nil {
		return nil, fmt.Errorf("pagestore: open %s: %w", full, err)
	}
	if _, err := db.Exec(schemaDDL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pagestore: create schema: %w", err)
	}
	return &Store{db: db, symCache: make(map[string]qname.QName)}, nil
}

// OpenDSN opens a Store directly against a SQLite DSN, bypassing billy. Used
// when the caller already has a concrete path (e.g. ":memory:" in tests that
// don't need filesystem swapping).
func OpenDSN(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("pagestore: open %s: %w", dsn, err)
	}
	if _, err := db.Exec(schemaDDL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pagestore: create schema: %w", err)
	}
	return &Store{db: db, symCache: make(map[string]qname.QName)}, nil
}

// Close closes the backing SQLite connection.
func (s *Store) Close() error { return s.db.Close() }

// Fetch returns the encoded bytes for (docID, gid).
func (s *Store) Fetch(docID string, gid gidtree.GID) ([]byte, error) {
	var b []byte
	err := s.db.QueryRow(
		"SELECT bytes FROM pages WHERE doc_id = ? AND gid = ?", docID, uint64(gid),
	).Scan(&b)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("pagestore: fetch doc=%s gid=%d: %w", docID, gid, coreerr.ErrNodeNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("pagestore: fetch doc=%s gid=%d: %w", docID, gid, err)
	}
	return b, nil
}

// Put writes (docID, gid) -> (internalAddress, bytes), overwriting any prior
// value stored for that key.
func (s *Store) Put(docID string, gid gidtree.GID, internalAddress int64, bytes []byte) error {
	_, err := s.db.Exec(
		"INSERT OR REPLACE INTO pages (doc_id, gid, internal_address, bytes) VALUES (?, ?, ?, ?)",
		docID, uint64(gid), internalAddress, bytes,
	)
	if err != nil {
		return fmt.Errorf("pagestore: put doc=%s gid=%d: %w", docID, gid, err)
	}
	return nil
}

// Page is one row yielded by an Iterator.
type Page struct {
	GID   gidtree.GID
	Bytes []byte
}

// Iterator yields a document's pages in ascending GID order. It is lazy and
// non-restartable: once exhausted, a new Iterator must be opened.
type Iterator struct {
	rows *sql.Rows
}

// Iterator opens a GID-ascending cursor over docID's pages, starting at the
// first GID >= fromGID.
func (s *Store) Iterator(docID string, fromGID gidtree.GID) (*Iterator, error) {
	rows, err := s.db.Query(
		"SELECT gid, bytes FROM pages WHERE doc_id = ? AND gid >= ? ORDER BY gid ASC",
		docID, uint64(fromGID),
	)
	if err != nil {
		return nil, fmt.Errorf("pagestore: iterator doc=%s: %w", docID, err)
	}
	return &Iterator{rows: rows}, nil
}

// Next advances the iterator, returning ok=false once exhausted.
func (it *Iterator) Next() (Page, bool, error) {
	if !it.rows.Next() {
		return Page{}, false, it.rows.Err()
	}
	var gid uint64
	var b []byte
	if err := it.rows.Scan(&gid, &b); err != nil {
		return Page{}, false, fmt.Errorf("pagestore: iterator scan: %w", err)
	}
	return Page{GID: gidtree.GID(gid), Bytes: b}, true, nil
}

// SeekTo discards rows before gid by re-issuing the query; used when a
// caller holding an Iterator needs to jump ahead rather than scanning.
func (s *Store) SeekTo(docID string, gid gidtree.GID) (*Iterator, error) {
	return s.Iterator(docID, gid)
}

// Close releases the iterator's underlying rows.
func (it *Iterator) Close() error { return it.rows.Close() }

// PutSymbol records a name_ref -> QName mapping, append-only.
func (s *Store) PutSymbol(docID string, nameRef int32, name qname.QName) error {
	_, err := s.db.Exec(
		"INSERT OR IGNORE INTO symbols (doc_id, name_ref, uri, local, prefix) VALUES (?, ?, ?, ?, ?)",
		docID, nameRef, name.URI(), name.Local(), name.Prefix(),
	)
	if err != nil {
		return fmt.Errorf("pagestore: put symbol doc=%s ref=%d: %w", docID, nameRef, err)
	}
	s.symCacheMu.Lock()
	s.symCache[cacheKey(docID, nameRef)] = name
	s.symCacheMu.Unlock()
	return nil
}

// Lookup resolves a name_ref to its QName, consulting the in-process cache
// before falling back to SQLite. document's storeResolver adapts it to
// codec.NameResolver.
func (s *Store) Lookup(docID string, nameRef int32) (qname.QName, bool) {
	key := cacheKey(docID, nameRef)
	s.symCacheMu.RLock()
	if q, ok := s.symCache[key]; ok {
		s.symCacheMu.RUnlock()
		return q, true
	}
	s.symCacheMu.RUnlock()

	var uri, local, prefix string
	err := s.db.QueryRow(
		"SELECT uri, local, prefix FROM symbols WHERE doc_id = ? AND name_ref = ?", docID, nameRef,
	).Scan(&uri, &local, &prefix)
	if err != nil {
		return qname.QName{}, false
	}
	q := qname.New(uri, local, prefix)
	s.symCacheMu.Lock()
	s.symCache[key] = q
	s.symCacheMu.Unlock()
	return q, true
}

func cacheKey(docID string, nameRef int32) string {
	return fmt.Sprintf("%s\x00%d", docID, nameRef)
}

// DocumentMeta is the frozen, document-level metadata row.
type DocumentMeta struct {
	DocID             string
	CollectionPath    string
	OrderTable        []uint64
	TopLevelSiblings  []gidtree.GID
}

// PutDocumentMeta freezes a document's order table and top-level sibling
// list. Called once, by document.Writer.Finish at the end of ingest.
func (s *Store) PutDocumentMeta(meta DocumentMeta) error {
	orderBlob := encodeUint64Slice(meta.OrderTable)
	siblingBlob := encodeGIDSlice(meta.TopLevelSiblings)
	_, err := s.db.Exec(
		"INSERT OR REPLACE INTO documents (doc_id, collection_path, order_table, top_level_siblings) VALUES (?, ?, ?, ?)",
		meta.DocID, meta.CollectionPath, orderBlob, siblingBlob,
	)
	if err != nil {
		return fmt.Errorf("pagestore: put document meta %s: %w", meta.DocID, err)
	}
	return nil
}

// GetDocumentMeta loads a previously frozen document's metadata.
func (s *Store) GetDocumentMeta(docID string) (DocumentMeta, error) {
	var collectionPath string
	var orderBlob, siblingBlob []byte
	err := s.db.QueryRow(
		"SELECT collection_path, order_table, top_level_siblings FROM documents WHERE doc_id = ?", docID,
	).Scan(&collectionPath, &orderBlob, &siblingBlob)
	if err == sql.ErrNoRows {
		return DocumentMeta{}, fmt.Errorf("pagestore: document %s: %w", docID, coreerr.ErrNodeNotFound)
	}
	if err != nil {
		return DocumentMeta{}, fmt.Errorf("pagestore: get document meta %s: %w", docID, err)
	}
	return DocumentMeta{
		DocID:            docID,
		CollectionPath:   collectionPath,
		OrderTable:       decodeUint64Slice(orderBlob),
		TopLevelSiblings: decodeGIDSlice(siblingBlob),
	}, nil
}

// ListDocuments returns every doc_id known to this store, sorted.
func (s *Store) ListDocuments() ([]string, error) {
	rows, err := s.db.Query("SELECT doc_id FROM documents")
	if err != nil {
		return nil, fmt.Errorf("pagestore: list documents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("pagestore: list documents scan: %w", err)
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, rows.Err()
}
