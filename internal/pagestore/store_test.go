package pagestore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/mache-xml/internal/coreerr"
	"github.com/agentic-research/mache-xml/internal/gidtree"
	"github.com/agentic-research/mache-xml/internal/qname"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenDSN(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestPutFetchRoundTrip(t *testing.T) {
	s := openTestStore(t)
	payload := []byte{0x30, 0x05, 'h', 'e', 'l', 'l', 'o'}
	require.NoError(t, s.Put("doc1", gidtree.GID(3), 42, payload))

	got, err := s.Fetch("doc1", gidtree.GID(3))
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestFetchMissingIsNodeNotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Fetch("doc1", gidtree.GID(99))
	assert.ErrorIs(t, err, coreerr.ErrNodeNotFound)
}

func TestPutOverwrites(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Put("doc1", gidtree.GID(1), 0, []byte("first")))
	require.NoError(t, s.Put("doc1", gidtree.GID(1), 1, []byte("second")))

	got, err := s.Fetch("doc1", gidtree.GID(1))
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), got)
}

func TestDocumentsAreIsolated(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Put("doc1", gidtree.GID(1), 0, []byte("a")))
	require.NoError(t, s.Put("doc2", gidtree.GID(1), 0, []byte("b")))

	got1, err := s.Fetch("doc1", gidtree.GID(1))
	require.NoError(t, err)
	assert.Equal(t, []byte("a"), got1)

	got2, err := s.Fetch("doc2", gidtree.GID(1))
	require.NoError(t, err)
	assert.Equal(t, []byte("b"), got2)
}

func TestIteratorAscendingOrder(t *testing.T) {
	s := openTestStore(t)
	for _, gid := range []gidtree.GID{5, 1, 3, 2, 4} {
		require.NoError(t, s.Put("doc1", gid, 0, []byte{byte(gid)}))
	}

	it, err := s.Iterator("doc1", gidtree.RootGID)
	require.NoError(t, err)
	defer func() { _ = it.Close() }()

	var seen []gidtree.GID
	for {
		page, ok, err := it.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		seen = append(seen, page.GID)
	}
	assert.Equal(t, []gidtree.GID{1, 2, 3, 4, 5}, seen)
}

func TestIteratorSeekTo(t *testing.T) {
	s := openTestStore(t)
	for _, gid := range []gidtree.GID{1, 2, 3, 4} {
		require.NoError(t, s.Put("doc1", gid, 0, []byte{byte(gid)}))
	}

	it, err := s.SeekTo("doc1", gidtree.GID(3))
	require.NoError(t, err)
	defer func() { _ = it.Close() }()

	page, ok, err := it.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, gidtree.GID(3), page.GID)
}

func TestSymbolLookupFindsPutSymbolAndMissesUnknownRef(t *testing.T) {
	s := openTestStore(t)
	name := qname.New("urn:ex", "value", "ex")
	require.NoError(t, s.PutSymbol("doc1", 7, name))

	got, ok := s.Lookup("doc1", 7)
	require.True(t, ok)
	assert.True(t, got.Equal(name))

	_, ok = s.Lookup("doc1", 404)
	assert.False(t, ok)
}

func TestDocumentMetaRoundTrip(t *testing.T) {
	s := openTestStore(t)
	meta := DocumentMeta{
		DocID:            "doc1",
		CollectionPath:   "/collection/a.xml",
		OrderTable:       []uint64{1, 2, 2, 2},
		TopLevelSiblings: []gidtree.GID{1, 2},
	}
	require.NoError(t, s.PutDocumentMeta(meta))

	got, err := s.GetDocumentMeta("doc1")
	require.NoError(t, err)
	assert.Equal(t, meta.CollectionPath, got.CollectionPath)
	assert.Equal(t, meta.OrderTable, got.OrderTable)
	assert.Equal(t, meta.TopLevelSiblings, got.TopLevelSiblings)
}

func TestListDocumentsSorted(t *testing.T) {
	s := openTestStore(t)
	for _, id := range []string{"zdoc", "adoc", "mdoc"} {
		require.NoError(t, s.PutDocumentMeta(DocumentMeta{DocID: id, CollectionPath: "/" + id}))
	}
	ids, err := s.ListDocuments()
	require.NoError(t, err)
	assert.Equal(t, []string{"adoc", "mdoc", "zdoc"}, ids)
}
