package docfs

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/mache-xml/internal/document"
	"github.com/agentic-research/mache-xml/internal/domnode"
	"github.com/agentic-research/mache-xml/internal/pagestore"
	"github.com/agentic-research/mache-xml/internal/qname"
)

func buildDoc(t *testing.T) *document.Document {
	t.Helper()
	st, err := pagestore.OpenDSN(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	w := document.NewWriter(st, "doc1", "/a.xml", []uint64{1, 2, 2}, nil)
	root, err := w.WriteRoot(qname.New("", "root", ""), 1, 2)
	require.NoError(t, err)
	_, err = w.WriteAttributeChild(root, qname.New("", "id", ""), domnode.CDATA, "r1")
	require.NoError(t, err)
	_, err = w.WriteElementChild(root, qname.New("", "child", ""), 0, 0)
	require.NoError(t, err)
	require.NoError(t, w.Finish())

	doc, err := document.Open(st, "doc1", nil)
	require.NoError(t, err)
	return doc
}

func TestReadDirListsAttributeAndElementChild(t *testing.T) {
	fs := New(buildDoc(t))
	infos, err := fs.ReadDir("/root[0]")
	require.NoError(t, err)

	names := make([]string, len(infos))
	for i, fi := range infos {
		names[i] = fi.Name()
	}
	assert.ElementsMatch(t, []string{"@id", "child[0]"}, names)
}

func TestOpenAttributeFileReadsValue(t *testing.T) {
	fs := New(buildDoc(t))
	f, err := fs.Open("/root[0]/@id")
	require.NoError(t, err)
	defer f.Close()

	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "r1", string(data))
}

func TestOpenElementDirectoryFails(t *testing.T) {
	fs := New(buildDoc(t))
	_, err := fs.Open("/root[0]")
	require.Error(t, err)
}

func TestWriteSyscallsAreReadOnly(t *testing.T) {
	fs := New(buildDoc(t))
	_, err := fs.Create("/whatever")
	assert.ErrorIs(t, err, errReadOnly)

	err = fs.Remove("/root[0]/@id")
	assert.ErrorIs(t, err, errReadOnly)

	err = fs.MkdirAll("/newdir", 0o755)
	assert.ErrorIs(t, err, errReadOnly)
}

func TestLstatRootIsDirectory(t *testing.T) {
	fs := New(buildDoc(t))
	fi, err := fs.Lstat("/")
	require.NoError(t, err)
	assert.True(t, fi.IsDir())
}
