package codec

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/agentic-research/mache-xml/internal/coreerr"
	"github.com/agentic-research/mache-xml/internal/domnode"
	"github.com/agentic-research/mache-xml/internal/qname"
)

// literal scenario 2 from spec.md §8.
func TestLiteralTextScenario(t *testing.T) {
	n := &domnode.Node{Type: domnode.Text, TextValue: []byte("hello")}
	got, err := Serialize(n)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	want := []byte{0x30, 0x05, 'h', 'e', 'l', 'l', 'o'}
	if !bytes.Equal(got, want) {
		t.Fatalf("Serialize(text \"hello\") = % x, want % x", got, want)
	}

	decoded, err := Deserialize(got, 0, len(got), nil, 0, nil)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if decoded.NodeValue() != "hello" {
		t.Fatalf("NodeValue() = %q, want %q", decoded.NodeValue(), "hello")
	}
}

type fakeResolver map[int32]qname.QName

func (f fakeResolver) Lookup(ref int32) (qname.QName, bool) {
	q, ok := f[ref]
	return q, ok
}

func roundTrip(t *testing.T, n *domnode.Node, resolver NameResolver) *domnode.Node {
	t.Helper()
	b, err := Serialize(n)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	got, err := Deserialize(b, 0, len(b), nil, 0, resolver)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	return got
}

func TestRoundTripTextEmptyAndLongAndUnicode(t *testing.T) {
	cases := [][]byte{
		[]byte(""),
		[]byte(strings.Repeat("x", 1000)),
		[]byte("héllo wörld 𝄞 surrogate-pair-clef"),
	}
	for _, payload := range cases {
		n := &domnode.Node{Type: domnode.Text, TextValue: payload}
		got := roundTrip(t, n, nil)
		if !bytes.Equal(got.TextValue, payload) {
			t.Fatalf("round trip mismatch for payload %q: got %q", payload, got.TextValue)
		}
	}
}

func TestRoundTripComment(t *testing.T) {
	n := &domnode.Node{Type: domnode.Comment, TextValue: []byte("a comment")}
	got := roundTrip(t, n, nil)
	if string(got.TextValue) != "a comment" {
		t.Fatalf("got %q", got.TextValue)
	}
	if !got.Name.IsComment() {
		t.Fatalf("expected comment singleton name")
	}
}

func TestRoundTripPI(t *testing.T) {
	n := &domnode.Node{Type: domnode.ProcessingInstruction, PITarget: "xml-stylesheet", PIData: `type="text/xsl" href="a.xsl"`}
	got := roundTrip(t, n, nil)
	if got.PITarget != n.PITarget || got.PIData != n.PIData {
		t.Fatalf("got target=%q data=%q", got.PITarget, got.PIData)
	}
}

func TestRoundTripAttribute(t *testing.T) {
	resolver := fakeResolver{7: qname.New("", "key", "")}
	n := &domnode.Node{Type: domnode.Attribute, NameRef: 7, AttrKind: domnode.ID, AttrValue: strings.Repeat("v", 400)}
	got := roundTrip(t, n, resolver)
	if got.AttrValue != n.AttrValue {
		t.Fatalf("attribute value mismatch")
	}
	if got.AttrKind != domnode.ID {
		t.Fatalf("attribute type mismatch: got %v", got.AttrKind)
	}
	if !got.Name.Equal(qname.New("", "key", "")) {
		t.Fatalf("attribute name not resolved: got %v", got.Name)
	}
}

func TestRoundTripElement(t *testing.T) {
	resolver := fakeResolver{3: qname.New("urn:ex", "value", "ex")}
	n := &domnode.Node{Type: domnode.Element, NameRef: 3, AttrCount: 2, ChildCount: 5}
	got := roundTrip(t, n, resolver)
	if got.AttrCount != 2 || got.ChildCount != 5 {
		t.Fatalf("element fields mismatch: %+v", got)
	}
	if !got.Name.Equal(qname.New("urn:ex", "value", "ex")) {
		t.Fatalf("element name not resolved: got %v", got.Name)
	}
}

func TestUnknownSignatureIsCorrupt(t *testing.T) {
	_, err := Deserialize([]byte{0xF0, 0x00}, 0, 2, nil, 0, nil)
	if !errors.Is(err, coreerr.ErrCorruptNodeRecord) {
		t.Fatalf("expected ErrCorruptNodeRecord, got %v", err)
	}
}

func TestTruncatedRecord(t *testing.T) {
	// the length byte claims 10 bytes of text but only 2 are present.
	b := []byte{0x30, 0x0A, 'h', 'i'}
	_, err := Deserialize(b, 0, len(b), nil, 0, nil)
	if !errors.Is(err, coreerr.ErrTruncatedRecord) {
		t.Fatalf("expected ErrTruncatedRecord, got %v", err)
	}
}

func TestEmptySpanIsTruncated(t *testing.T) {
	_, err := Deserialize([]byte{}, 0, 0, nil, 0, nil)
	if !errors.Is(err, coreerr.ErrTruncatedRecord) {
		t.Fatalf("expected ErrTruncatedRecord, got %v", err)
	}
}
