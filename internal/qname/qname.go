// Package qname implements the immutable (namespace-URI, local-name, prefix)
// triple used to name element, attribute and processing-instruction nodes.
package qname

// QName is an immutable node name. Equality and hashing ignore Prefix:
// two QNames naming the same (URI, local) pair are the same name even if
// bound to different prefixes in source.
type QName struct {
	uri    string
	local  string
	prefix string
}

// New constructs a QName from its three parts.
func New(uri, local, prefix string) QName {
	return QName{uri: uri, local: local, prefix: prefix}
}

// Local returns the local part of the name, e.g. "value" in "ex:value".
func (q QName) Local() string { return q.local }

// URI returns the namespace URI, or "" if unbound.
func (q QName) URI() string { return q.uri }

// Prefix returns the bound prefix, or "" if none.
func (q QName) Prefix() string { return q.prefix }

// WithPrefix returns a new QName sharing URI and Local with q but bound to
// prefix. q itself is never mutated — see SPEC_FULL.md §4.1 on the source's
// in-place QName.setPrefix, which this redesigns away.
func (q QName) WithPrefix(prefix string) QName {
	return QName{uri: q.uri, local: q.local, prefix: prefix}
}

// Equal reports whether q and other name the same (URI, local) pair,
// ignoring prefix.
func (q QName) Equal(other QName) bool {
	return q.uri == other.uri && q.local == other.local
}

// Hash combines URI and local into a hash usable as a map key component.
// Two equal QNames (per Equal) always hash the same.
func (q QName) Hash() uint64 {
	h := uint64(fnvOffset)
	for i := 0; i < len(q.uri); i++ {
		h ^= uint64(q.uri[i])
		h *= fnvPrime
	}
	h ^= separatorByte
	h *= fnvPrime
	for i := 0; i < len(q.local); i++ {
		h ^= uint64(q.local[i])
		h *= fnvPrime
	}
	return h
}

const (
	fnvOffset     = 14695981039346656037
	fnvPrime      = 1099511628211
	separatorByte = 0x1f
)

// String renders a debug form "{uri}local" or "prefix:local" when a prefix
// is bound; it is not a canonical serialization.
func (q QName) String() string {
	if q.prefix != "" {
		return q.prefix + ":" + q.local
	}
	if q.uri != "" {
		return "{" + q.uri + "}" + q.local
	}
	return q.local
}

// TextQName and CommentQName are well-known singletons standing in for
// node types that carry no XML name.
var (
	TextQName    = QName{local: "#text"}
	CommentQName = QName{local: "#comment"}
)

// IsText reports whether q is the TextQName singleton.
func (q QName) IsText() bool { return q == TextQName }

// IsComment reports whether q is the CommentQName singleton.
func (q QName) IsComment() bool { return q == CommentQName }
