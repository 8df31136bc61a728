package codec

import (
	"encoding/binary"
	"fmt"

	"github.com/agentic-research/mache-xml/internal/coreerr"
	"github.com/agentic-research/mache-xml/internal/domnode"
	"github.com/agentic-research/mache-xml/internal/gidtree"
	"github.com/agentic-research/mache-xml/internal/qname"
)

const shortLenMax = 255

// Serialize encodes a node variant's payload to bytes. GID and
// InternalAddress are never written — they are the page store's key and
// an out-of-band value respectively.
func Serialize(n *domnode.Node) ([]byte, error) {
	tag, ok := nodeTypeToTag(n.Type)
	if !ok {
		return nil, fmt.Errorf("codec: serialize: unknown node type %v: %w", n.Type, coreerr.ErrCorruptNodeRecord)
	}

	switch n.Type {
	case domnode.Text, domnode.Comment:
		return encodeLengthPrefixed(tag, n.TextValue), nil
	case domnode.ProcessingInstruction:
		return encodePI(tag, n.PITarget, n.PIData), nil
	case domnode.Attribute:
		return encodeAttribute(tag, n.NameRef, n.AttrKind, n.AttrValue), nil
	case domnode.Element:
		return encodeElement(tag, n.NameRef, n.AttrCount, n.ChildCount), nil
	default:
		return nil, fmt.Errorf("codec: serialize: unhandled node type %v: %w", n.Type, coreerr.ErrCorruptNodeRecord)
	}
}

func encodeLengthPrefixed(tag byte, payload []byte) []byte {
	if len(payload) <= shortLenMax {
		buf := make([]byte, 0, 2+len(payload))
		buf = append(buf, signatureFor(tag, 0))
		buf = append(buf, byte(len(payload)))
		buf = append(buf, payload...)
		return buf
	}
	lenBuf := make([]byte, binary.MaxVarintLen64)
	n := binary.PutUvarint(lenBuf, uint64(len(payload)))
	buf := make([]byte, 0, 1+n+len(payload))
	buf = append(buf, signatureFor(tag, flagLongLen))
	buf = append(buf, lenBuf[:n]...)
	buf = append(buf, payload...)
	return buf
}

func encodePI(tag byte, target, data string) []byte {
	targetBytes := []byte(target)
	dataBytes := []byte(data)
	var tlen, dlen [binary.MaxVarintLen64]byte
	tn := binary.PutUvarint(tlen[:], uint64(len(targetBytes)))
	dn := binary.PutUvarint(dlen[:], uint64(len(dataBytes)))

	buf := make([]byte, 0, 1+tn+len(targetBytes)+dn+len(dataBytes))
	buf = append(buf, signatureFor(tag, 0))
	buf = append(buf, tlen[:tn]...)
	buf = append(buf, targetBytes...)
	buf = append(buf, dlen[:dn]...)
	buf = append(buf, dataBytes...)
	return buf
}

func encodeAttribute(tag byte, nameRef int32, kind domnode.AttrType, value string) []byte {
	valueBytes := []byte(value)
	flags := byte(kind) & attrTypeMask
	var lenBytes []byte
	if len(valueBytes) <= shortLenMax {
		lenBytes = []byte{byte(len(valueBytes))}
	} else {
		flags |= flagLongValue
		var lb [binary.MaxVarintLen64]byte
		n := binary.PutUvarint(lb[:], uint64(len(valueBytes)))
		lenBytes = lb[:n]
	}

	buf := make([]byte, 0, 1+4+1+len(lenBytes)+len(valueBytes))
	buf = append(buf, signatureFor(tag, flags))
	var nameBuf [4]byte
	binary.BigEndian.PutUint32(nameBuf[:], uint32(nameRef))
	buf = append(buf, nameBuf[:]...)
	buf = append(buf, lenBytes...)
	buf = append(buf, valueBytes...)
	return buf
}

func encodeElement(tag byte, nameRef int32, attrCount uint8, childCount uint32) []byte {
	flags := byte(0)
	if attrCount > 0 {
		flags |= flagHasAttrs
	}
	buf := make([]byte, 0, 1+4+1+4+1)
	buf = append(buf, signatureFor(tag, flags))
	var nameBuf [4]byte
	binary.BigEndian.PutUint32(nameBuf[:], uint32(nameRef))
	buf = append(buf, nameBuf[:]...)
	buf = append(buf, attrCount)
	var childBuf [4]byte
	binary.BigEndian.PutUint32(childBuf[:], childCount)
	buf = append(buf, childBuf[:]...)
	buf = append(buf, 0) // extra flags, reserved
	return buf
}

// NameResolver resolves a symbol-table reference back to a QName, so
// Deserialize can populate Node.Name for variants that carry one.
type NameResolver interface {
	Lookup(nameRef int32) (qname.QName, bool)
}

// Deserialize reads a signature byte from b[start:start+len] and
// reconstructs the appropriate node variant, populating owner and gid as
// supplied by the caller (neither is present in the payload). It always
// allocates a fresh Node; callers reading through a domnode.Pool should use
// DeserializeInto instead.
func Deserialize(b []byte, start, length int, owner domnode.Owner, gid uint64, resolver NameResolver) (*domnode.Node, error) {
	return DeserializeInto(nil, b, start, length, owner, gid, resolver)
}

// DeserializeInto behaves like Deserialize but fills dst rather than
// allocating, letting callers source dst from a domnode.Pool. If dst is nil
// a fresh Node is allocated, matching Deserialize.
func DeserializeInto(dst *domnode.Node, b []byte, start, length int, owner domnode.Owner, gid uint64, resolver NameResolver) (*domnode.Node, error) {
	if start < 0 || length < 0 || start+length > len(b) {
		return nil, fmt.Errorf("codec: deserialize: byte span out of range: %w", coreerr.ErrTruncatedRecord)
	}
	span := b[start : start+length]
	if len(span) < 1 {
		return nil, fmt.Errorf("codec: deserialize: empty span: %w", coreerr.ErrTruncatedRecord)
	}

	tag, flags := splitSignature(span[0])
	nodeType, ok := tagToNodeType(tag)
	if !ok {
		return nil, fmt.Errorf("codec: deserialize: signature byte 0x%02x: %w", span[0], coreerr.ErrCorruptNodeRecord)
	}

	n := dst
	if n == nil {
		n = &domnode.Node{}
	}
	n.Type = nodeType
	n.GID = gidtree.GID(gid)
	n.NameRef = domnode.NoNameRef
	n.InternalAddress = domnode.NoAddress
	n.SetOwner(owner)

	rest := span[1:]
	var err error
	switch nodeType {
	case domnode.Text, domnode.Comment:
		n.TextValue, err = decodeLengthPrefixed(rest, flags)
	case domnode.ProcessingInstruction:
		err = decodePI(n, rest)
	case domnode.Attribute:
		err = decodeAttribute(n, rest, flags)
	case domnode.Element:
		err = decodeElement(n, rest, flags)
	}
	if err != nil {
		return nil, err
	}

	if resolver != nil && n.NameRef != domnode.NoNameRef {
		if name, ok := resolver.Lookup(n.NameRef); ok {
			n.Name = name
		}
	}
	if nodeType == domnode.Text {
		n.Name = qname.TextQName
	} else if nodeType == domnode.Comment {
		n.Name = qname.CommentQName
	}
	return n, nil
}

func decodeLengthPrefixed(rest []byte, flags byte) ([]byte, error) {
	if flags&flagLongLen == 0 {
		if len(rest) < 1 {
			return nil, fmt.Errorf("codec: decode: missing length byte: %w", coreerr.ErrTruncatedRecord)
		}
		n := int(rest[0])
		if len(rest) < 1+n {
			return nil, fmt.Errorf("codec: decode: declared length %d exceeds %d available bytes: %w", n, len(rest)-1, coreerr.ErrTruncatedRecord)
		}
		out := make([]byte, n)
		copy(out, rest[1:1+n])
		return out, nil
	}
	n64, consumed := binary.Uvarint(rest)
	if consumed <= 0 {
		return nil, fmt.Errorf("codec: decode: malformed varint length: %w", coreerr.ErrTruncatedRecord)
	}
	n := int(n64)
	if len(rest) < consumed+n {
		return nil, fmt.Errorf("codec: decode: declared length %d exceeds %d available bytes: %w", n, len(rest)-consumed, coreerr.ErrTruncatedRecord)
	}
	out := make([]byte, n)
	copy(out, rest[consumed:consumed+n])
	return out, nil
}

func decodePI(n *domnode.Node, rest []byte) error {
	tlen, tn := binary.Uvarint(rest)
	if tn <= 0 {
		return fmt.Errorf("codec: decode PI: malformed target length: %w", coreerr.ErrTruncatedRecord)
	}
	rest = rest[tn:]
	if len(rest) < int(tlen) {
		return fmt.Errorf("codec: decode PI: target length %d exceeds %d available bytes: %w", tlen, len(rest), coreerr.ErrTruncatedRecord)
	}
	n.PITarget = string(rest[:tlen])
	rest = rest[tlen:]

	dlen, dn := binary.Uvarint(rest)
	if dn <= 0 {
		return fmt.Errorf("codec: decode PI: malformed data length: %w", coreerr.ErrTruncatedRecord)
	}
	rest = rest[dn:]
	if len(rest) < int(dlen) {
		return fmt.Errorf("codec: decode PI: data length %d exceeds %d available bytes: %w", dlen, len(rest), coreerr.ErrTruncatedRecord)
	}
	n.PIData = string(rest[:dlen])
	return nil
}

func decodeAttribute(n *domnode.Node, rest []byte, flags byte) error {
	if len(rest) < 4 {
		return fmt.Errorf("codec: decode attribute: missing name ref: %w", coreerr.ErrTruncatedRecord)
	}
	n.NameRef = int32(binary.BigEndian.Uint32(rest[:4]))
	n.AttrKind = domnode.AttrType(flags & attrTypeMask)
	rest = rest[4:]

	if flags&flagLongValue == 0 {
		if len(rest) < 1 {
			return fmt.Errorf("codec: decode attribute: missing length byte: %w", coreerr.ErrTruncatedRecord)
		}
		vlen := int(rest[0])
		if len(rest) < 1+vlen {
			return fmt.Errorf("codec: decode attribute: declared length %d exceeds %d available bytes: %w", vlen, len(rest)-1, coreerr.ErrTruncatedRecord)
		}
		n.AttrValue = string(rest[1 : 1+vlen])
		return nil
	}
	vlen64, consumed := binary.Uvarint(rest)
	if consumed <= 0 {
		return fmt.Errorf("codec: decode attribute: malformed varint length: %w", coreerr.ErrTruncatedRecord)
	}
	vlen := int(vlen64)
	if len(rest) < consumed+vlen {
		return fmt.Errorf("codec: decode attribute: declared length %d exceeds %d available bytes: %w", vlen, len(rest)-consumed, coreerr.ErrTruncatedRecord)
	}
	n.AttrValue = string(rest[consumed : consumed+vlen])
	return nil
}

func decodeElement(n *domnode.Node, rest []byte, flags byte) error {
	if len(rest) < 4+1+4+1 {
		return fmt.Errorf("codec: decode element: truncated fixed fields: %w", coreerr.ErrTruncatedRecord)
	}
	n.NameRef = int32(binary.BigEndian.Uint32(rest[:4]))
	n.AttrCount = rest[4]
	n.ChildCount = binary.BigEndian.Uint32(rest[5:9])
	_ = flags // extra flags byte at rest[9] is reserved
	return nil
}
