package tcp

// congestionState implements RFC 5681 slow start, congestion avoidance and
// fast retransmit/fast recovery on top of [ControlBlock]'s existing send
// window accounting. It caps how much of the peer-advertised window
// ([sendSpace.WND]) the local side is actually allowed to use at any given
// moment, the same way a BSD-derived TCP stack layers cwnd under rwnd.
type congestionState struct {
	mss      Size // sender maximum segment size, used as the cwnd/ssthresh unit (RFC 5681 §2).
	cwnd     Size // congestion window.
	ssthresh Size // slow start threshold.
	dupAcks  int  // consecutive duplicate ACKs seen since the last new ACK.
}

// defaultSSThresh is used until the first loss reaction (RTO or fast
// retransmit), per RFC 5681 §3.1: "ssthresh
// SHOULD be set arbitrarily high (e.g., to the size of the largest possible
// advertised window)".
const defaultSSThresh Size = 1 << 30

// reset (re)initializes congestion state at connection establishment. Initial
// window follows RFC 5681 §3.1's IW formula for a single segment of size mss
// (at most 4*mss, never more than 2 segments for mss > 2190).
func (c *congestionState) reset(mss Size) {
	if mss == 0 {
		mss = defaultMSS
	}
	c.mss = mss
	c.ssthresh = defaultSSThresh
	c.dupAcks = 0
	switch {
	case mss > 2190:
		c.cwnd = 2 * mss
	case mss > 1095:
		c.cwnd = 3 * mss
	default:
		c.cwnd = 4 * mss
	}
}

// inSlowStart reports whether the sender is in slow start (cwnd < ssthresh).
func (c *congestionState) inSlowStart() bool {
	return c.cwnd < c.ssthresh
}

// onNewAck advances cwnd after ackedBytes of previously-unacked data is
// newly acknowledged. Slow start increases cwnd by the number of bytes
// acked, capped at one mss per ACK (effectively doubling cwnd every round
// trip); congestion avoidance
// increases it by roughly one mss per round trip using the standard
// mss*mss/cwnd approximation (RFC 5681 §3.1).
func (c *congestionState) onNewAck(ackedBytes Size) {
	c.dupAcks = 0
	if ackedBytes == 0 {
		return
	}
	if c.inSlowStart() {
		incr := ackedBytes
		if incr > c.mss {
			incr = c.mss
		}
		c.cwnd += incr
		return
	}
	incr := (uint64(c.mss) * uint64(c.mss)) / uint64(c.cwnd)
	if incr == 0 {
		incr = 1
	}
	c.cwnd += Size(incr)
}

// onDupAck records a duplicate ACK and, on the third consecutive one,
// performs fast retransmit/fast recovery: halve the flight size into
// ssthresh and inflate cwnd by 3 segments for the retransmit in flight
// (RFC 5681 §3.2). flightSize is the sender's current unacked byte count.
// Returns true the instant fast retransmit should fire.
func (c *congestionState) onDupAck(flightSize Size) bool {
	c.dupAcks++
	if c.dupAcks < 3 {
		return false
	}
	if c.dupAcks == 3 {
		half := flightSize / 2
		if half < 2*c.mss {
			half = 2 * c.mss
		}
		c.ssthresh = half
		c.cwnd = c.ssthresh + 3*c.mss
		return true
	}
	// Further dup ACKs inflate the window per RFC 5681 §3.2 step 3.
	c.cwnd += c.mss
	return false
}

// onRTO implements RFC 5681 §3.1's retransmission timeout reaction: ssthresh
// drops to half the flight size (at least 2 segments) and cwnd collapses to
// one segment, forcing a fresh slow start.
func (c *congestionState) onRTO(flightSize Size) {
	half := flightSize / 2
	if half < 2*c.mss {
		half = 2 * c.mss
	}
	c.ssthresh = half
	c.cwnd = c.mss
	c.dupAcks = 0
}

// window returns the number of additional bytes the sender may put in
// flight right now under the congestion window alone (independent of the
// peer's advertised receive window).
func (c *congestionState) window(flightSize Size) Size {
	if c.cwnd <= flightSize {
		return 0
	}
	return c.cwnd - flightSize
}
