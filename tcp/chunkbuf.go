package tcp

import (
	"errors"

	"github.com/arl/tcpstack/internal"
)

// errOutOfWindow is returned by [chunkBuffer.write]/[chunkBuffer.readAt] when
// the requested absolute sequence number does not fall within the buffer's
// current validity range.
var errOutOfWindow = errors.New("tcp: seq outside chunk buffer window")

// chunkBuffer generalizes [internal.Ring] to a logically contiguous byte
// region addressed by absolute 32-bit sequence number modulo 2^32, rather
// than by Ring's relative Off/End cursor pair. It is the RX-side
// counterpart to [ringTx]'s absolute-seq addressing on the TX side: where
// ringTx tracks iss/sentlist for retransmission bookkeeping, chunkBuffer
// only needs to know the sequence number its oldest unread byte carries
// (base) to reject/accept incoming segments by sequence number instead of
// by raw backing-array offset.
//
// No internal locking: serialization is the caller's responsibility (the
// owning [ControlBlock]'s mutex).
type chunkBuffer struct {
	ring internal.Ring
	base Value // absolute sequence number of the oldest unread byte (ring.Off).
}

// setLength installs buf as the backing storage and anchors the buffer at
// base, discarding any previously buffered bytes. Mirrors spec.md §4.1's
// setLength(n), generalized to take the backing array directly the way the
// teacher's [internal.Ring] is sized, rather than allocating chunks itself.
func (c *chunkBuffer) setLength(buf []byte, base Value) {
	c.ring.Buf = buf
	c.ring.Reset()
	c.base = base
}

// size returns the buffer's total byte capacity.
func (c *chunkBuffer) size() int { return c.ring.Size() }

// free returns the capacity available for further writes.
func (c *chunkBuffer) free() int { return c.ring.Free() }

// buffered returns the number of unread bytes currently stored.
func (c *chunkBuffer) buffered() int { return c.ring.Buffered() }

// end returns the absolute sequence number one past the last written byte,
// i.e. the only sequence number [chunkBuffer.write] will currently accept.
func (c *chunkBuffer) end() Value {
	return Add(c.base, Size(c.ring.Buffered()))
}

// write copies src into the buffer at absolute sequence number seq, which
// must equal [chunkBuffer.end]: the buffer only ever grows contiguously.
// Rejecting out-of-order or overlapping segments is the caller's
// responsibility (see [ControlBlock.Recv]'s in-window check, which only
// admits segments at rcv.NXT), matching spec.md §4.1's "caller guarantees
// the logical window lies within the buffer's current validity range".
func (c *chunkBuffer) write(seq Value, src []byte) (int, error) {
	if c.ring.Buffered() == 0 {
		// Empty buffer re-anchors on whatever sequence number arrives next,
		// same bootstrap case [internal.Ring.Write] itself special-cases via
		// End==0.
		c.base = seq
	} else if seq != c.end() {
		return 0, errOutOfWindow
	}
	if len(src) > c.ring.Free() {
		return 0, internal.ErrRingBufferFull
	}
	return c.ring.Write(src)
}

// read drains up to len(dst) of the oldest buffered bytes and advances base
// by the amount read, so the next [chunkBuffer.end] reflects the new
// read cursor.
func (c *chunkBuffer) read(dst []byte) (int, error) {
	n, err := c.ring.Read(dst)
	if n > 0 {
		c.base = Add(c.base, Size(n))
	}
	return n, err
}

// readAt copies up to len(dst) bytes starting at absolute sequence number
// seq without consuming them, per spec.md §4.1's read(seq, dst, len). seq
// must lie within [c.base, c.end()).
func (c *chunkBuffer) readAt(seq Value, dst []byte) (int, error) {
	if !seq.InWindow(c.base, Size(c.ring.Buffered())) {
		return 0, errOutOfWindow
	}
	off := Sizeof(c.base, seq)
	return c.ring.ReadAt(dst, int64(off))
}

// reset discards all buffered bytes without changing the backing storage or
// base.
func (c *chunkBuffer) reset() { c.ring.Reset() }
