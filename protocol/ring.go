package protocol

import "github.com/joeycumines/go-linksim/wire"

// srRing is the Selective Repeat receive buffer: a fixed-capacity ring
// indexed by sequence number modulo capacity, using power-of-two masking
// in place of a general modulo (nr_bufs is always (max_seq+1)/2 with
// max_seq+1 a power of two, so the ring never needs to grow or support
// arbitrary insertion order). It tracks which slots hold an undelivered
// frame (arrived) and the frame itself (buf).
type srRing struct {
	arrived []bool
	buf     []wire.Packet
	mask    int
}

func newSRRing(nrBufs int) *srRing {
	return &srRing{
		arrived: make([]bool, nrBufs),
		buf:     make([]wire.Packet, nrBufs),
		mask:    nrBufs - 1,
	}
}

func (r *srRing) idx(seq int) int { return seq & r.mask }

func (r *srRing) has(seq int) bool { return r.arrived[r.idx(seq)] }

func (r *srRing) put(seq int, p wire.Packet) {
	i := r.idx(seq)
	r.arrived[i] = true
	r.buf[i] = p
}

func (r *srRing) take(seq int) wire.Packet {
	i := r.idx(seq)
	p := r.buf[i]
	r.arrived[i] = false
	r.buf[i] = wire.Packet{}
	return p
}
