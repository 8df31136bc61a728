package domnode

import "sync"

// Pool recycles Node values so the ingest reader does not allocate one per
// node. Get returns a zeroed Node (via Clear); Put returns it to the pool
// after the caller is done — typically once a node has been serialized and
// its in-memory form is no longer needed.
type Pool struct {
	p sync.Pool
}

// NewPool constructs an empty node pool.
func NewPool() *Pool {
	return &Pool{p: sync.Pool{New: func() any { return &Node{} }}}
}

// Get returns a cleared Node ready for reuse.
func (p *Pool) Get() *Node {
	n := p.p.Get().(*Node)
	n.Clear()
	return n
}

// Put returns n to the pool. n must not be referenced by the caller after
// this call.
func (p *Pool) Put(n *Node) {
	p.p.Put(n)
}
