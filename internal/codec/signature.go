// Package codec implements the node codec (C2): serialization of a
// domnode.Node variant to a tagged byte span, and the reverse dispatch
// that reads a signature byte and reconstructs the right variant.
//
// On-disk format (the signature-byte layout fixed by SPEC_FULL.md §4.2,
// since the excerpts this module was distilled from left it undetermined):
//
//	bit:     7 6 5 4 3 2 1 0
//	         [ node type  ][ variant flags ]
//
// High nibble: node type (1=element, 2=attribute, 3=text, 4=comment,
// 5=processing-instruction). Low nibble: variant-specific flags, see the
// flag constants below and the encode*/decode* functions in codec.go.
//
// GID is never part of the payload: it is the key under which a record
// lives in the page store, supplied by the caller on decode.
package codec

import (
	"github.com/agentic-research/mache-xml/internal/domnode"
)

const (
	typeElement   = 0x1
	typeAttribute = 0x2
	typeText      = 0x3
	typeComment   = 0x4
	typePI        = 0x5

	typeMask  = 0xF0
	flagMask  = 0x0F
	typeShift = 4
)

// flag bits, meaning depends on node type — see package doc.
const (
	flagLongLen   = 0x1 // TEXT/COMMENT: length prefix is a varint, not a single byte
	flagHasAttrs  = 0x1 // ELEMENT: element has >=1 attribute child
	attrTypeMask  = 0x3 // ATTRIBUTE: low 2 bits encode AttrType
	flagLongValue = 0x4 // ATTRIBUTE: value length is varint, not a byte
)

func signatureFor(nodeType byte, flags byte) byte {
	return (nodeType << typeShift) | (flags & flagMask)
}

func splitSignature(sig byte) (nodeType byte, flags byte) {
	return (sig & typeMask) >> typeShift, sig & flagMask
}

// nodeTypeToTag maps a domnode.NodeType to its on-disk type tag.
func nodeTypeToTag(t domnode.NodeType) (byte, bool) {
	switch t {
	case domnode.Element:
		return typeElement, true
	case domnode.Attribute:
		return typeAttribute, true
	case domnode.Text:
		return typeText, true
	case domnode.Comment:
		return typeComment, true
	case domnode.ProcessingInstruction:
		return typePI, true
	default:
		return 0, false
	}
}

func tagToNodeType(tag byte) (domnode.NodeType, bool) {
	switch tag {
	case typeElement:
		return domnode.Element, true
	case typeAttribute:
		return domnode.Attribute, true
	case typeText:
		return domnode.Text, true
	case typeComment:
		return domnode.Comment, true
	case typePI:
		return domnode.ProcessingInstruction, true
	default:
		return 0, false
	}
}
