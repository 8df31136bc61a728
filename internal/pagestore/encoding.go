package pagestore

import (
	"encoding/binary"

	"github.com/agentic-research/mache-xml/internal/gidtree"
)

func encodeUint64Slice(vals []uint64) []byte {
	buf := make([]byte, len(vals)*8)
	for i, v := range vals {
		binary.BigEndian.PutUint64(buf[i*8:], v)
	}
	return buf
}

func decodeUint64Slice(b []byte) []uint64 {
	n := len(b) / 8
	out := make([]uint64, n)
	for i := 0; i < n; i++ {
		out[i] = binary.BigEndian.Uint64(b[i*8:])
	}
	return out
}

func encodeGIDSlice(vals []gidtree.GID) []byte {
	buf := make([]byte, len(vals)*8)
	for i, v := range vals {
		binary.BigEndian.PutUint64(buf[i*8:], uint64(v))
	}
	return buf
}

func decodeGIDSlice(b []byte) []gidtree.GID {
	n := len(b) / 8
	out := make([]gidtree.GID, n)
	for i := 0; i < n; i++ {
		out[i] = gidtree.GID(binary.BigEndian.Uint64(b[i*8:]))
	}
	return out
}
