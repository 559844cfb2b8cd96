package tcp

import "testing"

func TestCongestionSlowStart(t *testing.T) {
	var c congestionState
	c.reset(1460)
	if !c.inSlowStart() {
		t.Fatal("want slow start immediately after reset")
	}
	if c.cwnd != 3*1460 {
		t.Fatalf("want IW=3*mss for mss in (1095,2190], got %d", c.cwnd)
	}

	before := c.cwnd
	c.onNewAck(1460)
	if c.cwnd != before+1460 {
		t.Fatalf("want cwnd to grow by full ack in slow start, got %d want %d", c.cwnd, before+1460)
	}
}

func TestCongestionAvoidance(t *testing.T) {
	var c congestionState
	c.reset(1460)
	c.ssthresh = c.cwnd // force congestion avoidance on next ack.
	if c.inSlowStart() {
		t.Fatal("want congestion avoidance once cwnd == ssthresh is exceeded")
	}
	before := c.cwnd
	c.onNewAck(1460)
	if c.cwnd <= before {
		t.Fatalf("want cwnd to grow in congestion avoidance, got %d from %d", c.cwnd, before)
	}
	if grew := c.cwnd - before; grew >= 1460 {
		t.Fatalf("want sub-mss growth in congestion avoidance, grew by %d", grew)
	}
}

func TestCongestionFastRetransmit(t *testing.T) {
	var c congestionState
	c.reset(1460)
	flight := Size(8760) // 6 segments in flight.

	var fire bool
	for i := 0; i < 3; i++ {
		fire = c.onDupAck(flight)
	}
	if !fire {
		t.Fatal("want fast retransmit to fire on third duplicate ack")
	}
	wantSsthresh := flight / 2
	if wantSsthresh < 2*1460 {
		wantSsthresh = 2 * 1460
	}
	if c.ssthresh != wantSsthresh {
		t.Fatalf("want ssthresh=%d, got %d", wantSsthresh, c.ssthresh)
	}
	if c.cwnd != c.ssthresh+3*1460 {
		t.Fatalf("want cwnd inflated by 3*mss, got %d", c.cwnd)
	}

	// A fourth duplicate ack should not refire fast retransmit, only inflate.
	before := c.cwnd
	if c.onDupAck(flight) {
		t.Fatal("want no re-fire on further duplicate acks")
	}
	if c.cwnd != before+1460 {
		t.Fatalf("want cwnd inflate by mss on further dup ack, got %d from %d", c.cwnd, before)
	}
}

func TestCongestionRTO(t *testing.T) {
	var c congestionState
	c.reset(1460)
	c.cwnd = 20000
	c.dupAcks = 2
	c.onRTO(10000)
	if c.cwnd != 1460 {
		t.Fatalf("want cwnd collapse to mss on RTO, got %d", c.cwnd)
	}
	if c.dupAcks != 0 {
		t.Fatalf("want dupAcks reset on RTO, got %d", c.dupAcks)
	}
	if !c.inSlowStart() {
		t.Fatal("want fresh slow start after RTO")
	}
}

func TestCongestionWindow(t *testing.T) {
	var c congestionState
	c.reset(1460)
	w := c.window(0)
	if w != c.cwnd {
		t.Fatalf("want full cwnd available with nothing in flight, got %d", w)
	}
	if got := c.window(c.cwnd); got != 0 {
		t.Fatalf("want 0 available once flight fills cwnd, got %d", got)
	}
	if got := c.window(c.cwnd + 1000); got != 0 {
		t.Fatalf("want 0 available when flight exceeds cwnd, got %d", got)
	}
}
