package trigger

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/mache-xml/internal/qname"
)

// recordingSink renders every event it receives back into a flat XML-ish
// string, purely so tests can assert on the re-emitted stream shape.
type recordingSink struct {
	out strings.Builder
}

func (s *recordingSink) StartElement(name qname.QName, attrs []Attr) error {
	s.out.WriteByte('<')
	s.out.WriteString(name.Local())
	for _, a := range attrs {
		s.out.WriteByte(' ')
		s.out.WriteString(a.Name.Local())
		s.out.WriteString(`="`)
		s.out.WriteString(a.Value)
		s.out.WriteString(`"`)
	}
	s.out.WriteByte('>')
	return nil
}

func (s *recordingSink) Characters(text []byte) error {
	s.out.Write(text)
	return nil
}

func (s *recordingSink) EndElement(name qname.QName) error {
	s.out.WriteString("</")
	s.out.WriteString(name.Local())
	s.out.WriteByte('>')
	return nil
}

func csvConfig(t *testing.T) *Config {
	t.Helper()
	src := []byte(`
trigger "product-csv" {
  separator = "|"

  extraction {
    path      = "content/properties/value"
    predicate = "key eq \"product_model\""
    emit "1" { element = "product_code" }
    emit "0" { element = "product_name" }
  }
}
`)
	cfg, err := LoadTriggerConfig(src, "test.hcl")
	require.NoError(t, err)
	return cfg
}

func el(local string) qname.QName { return qname.New("", local, "") }

// spec.md §8 example 3: predicate matches, text splits and is replaced by
// two synthetic child elements in ascending index order regardless of
// configuration order.
func TestCaptureSplitsOnSeparatorInIndexOrder(t *testing.T) {
	cfg := csvConfig(t)
	sink := &recordingSink{}
	f := NewFilter(sink, cfg, nil)

	require.NoError(t, f.StartElement(el("content"), nil))
	require.NoError(t, f.StartElement(el("properties"), nil))
	require.NoError(t, f.StartElement(el("value"), []Attr{{Name: el("key"), Value: "product_model"}}))
	require.NoError(t, f.Characters([]byte("SomeName|SomeCode")))
	require.NoError(t, f.EndElement(el("value")))
	require.NoError(t, f.EndElement(el("properties")))
	require.NoError(t, f.EndElement(el("content")))

	want := `<content><properties><value key="product_model">` +
		`<product_name>SomeName</product_name><product_code>SomeCode</product_code>` +
		`</value></properties></content>`
	assert.Equal(t, want, sink.out.String())
}

// spec.md §8 example 4: predicate mismatch passes the value element through
// unchanged, text included.
func TestPredicateMismatchPassesThrough(t *testing.T) {
	cfg := csvConfig(t)
	sink := &recordingSink{}
	f := NewFilter(sink, cfg, nil)

	require.NoError(t, f.StartElement(el("content"), nil))
	require.NoError(t, f.StartElement(el("properties"), nil))
	require.NoError(t, f.StartElement(el("value"), []Attr{{Name: el("key"), Value: "other"}}))
	require.NoError(t, f.Characters([]byte("A|B")))
	require.NoError(t, f.EndElement(el("value")))
	require.NoError(t, f.EndElement(el("properties")))
	require.NoError(t, f.EndElement(el("content")))

	want := `<content><properties><value key="other">A|B</value></properties></content>`
	assert.Equal(t, want, sink.out.String())
}

// Running the trigger a second time over already-extracted output is a
// no-op: the capture opened at the matching <value> is aborted by the
// nested <product_name> element, so the stream passes through unchanged.
func TestTriggerIdempotentOnAlreadyExtractedDocument(t *testing.T) {
	cfg := csvConfig(t)
	sink := &recordingSink{}
	f := NewFilter(sink, cfg, nil)

	require.NoError(t, f.StartElement(el("content"), nil))
	require.NoError(t, f.StartElement(el("properties"), nil))
	require.NoError(t, f.StartElement(el("value"), []Attr{{Name: el("key"), Value: "product_model"}}))
	require.NoError(t, f.StartElement(el("product_name"), nil))
	require.NoError(t, f.Characters([]byte("SomeName")))
	require.NoError(t, f.EndElement(el("product_name")))
	require.NoError(t, f.EndElement(el("value")))
	require.NoError(t, f.EndElement(el("properties")))
	require.NoError(t, f.EndElement(el("content")))

	want := `<content><properties><value key="product_model">` +
		`<product_name>SomeName</product_name>` +
		`</value></properties></content>`
	assert.Equal(t, want, sink.out.String())
}

// A nested element opening inside a capture zone aborts the capture rather
// than letting it accumulate text across the nested element's boundary.
func TestNestedElementAbortsCapture(t *testing.T) {
	cfg := csvConfig(t)
	sink := &recordingSink{}
	f := NewFilter(sink, cfg, nil)

	require.NoError(t, f.StartElement(el("content"), nil))
	require.NoError(t, f.StartElement(el("properties"), nil))
	require.NoError(t, f.StartElement(el("value"), []Attr{{Name: el("key"), Value: "product_model"}}))
	require.NoError(t, f.StartElement(el("weird"), nil))
	require.NoError(t, f.EndElement(el("weird")))
	require.NoError(t, f.EndElement(el("value")))
	require.NoError(t, f.EndElement(el("properties")))
	require.NoError(t, f.EndElement(el("content")))

	want := `<content><properties><value key="product_model"><weird></weird></value></properties></content>`
	assert.Equal(t, want, sink.out.String())
}
