package tcp

import (
	"math/rand"
	"testing"

	"github.com/arl/tcpstack"
)

// fixedPool is a minimal [pool] backed by a preallocated slice of *Conn, for
// driving [Listener] directly without a full socket/stack fixture.
type fixedPool struct {
	conns []*Conn
	idx   int
}

func (p *fixedPool) GetTCP() (*Conn, Value) {
	if p.idx >= len(p.conns) {
		return nil, 0
	}
	c := p.conns[p.idx]
	p.idx++
	return c, Value(0x1000 + p.idx) // arbitrary non-cookie ISS, to contrast with cookie-derived ones.
}

func (p *fixedPool) PutTCP(*Conn) {}

func newListenerTestConn(t *testing.T) *Conn {
	t.Helper()
	c := new(Conn)
	err := c.Configure(ConnConfig{
		RxBuf:             make([]byte, 64),
		TxBuf:             make([]byte, 64),
		TxPacketQueueSize: 2,
	})
	if err != nil {
		t.Fatal(err)
	}
	return c
}

// buildIPv4TCPSegment returns a minimal IPv4+TCP frame (no options, no
// payload) suitable for [Listener.Demux]: a 20-byte IPv4 header (version 4,
// IHL 5) directly followed by a 20-byte TCP header.
func buildIPv4TCPSegment(srcIP, dstIP [4]byte, srcPort, dstPort uint16, seg Segment) []byte {
	buf := make([]byte, 40)
	buf[0] = 0x45
	copy(buf[12:16], srcIP[:])
	copy(buf[16:20], dstIP[:])
	tfrm, err := NewFrame(buf[20:])
	if err != nil {
		panic(err)
	}
	tfrm.SetSourcePort(srcPort)
	tfrm.SetDestinationPort(dstPort)
	tfrm.SetSegment(seg, 5)
	return buf
}

func newIPv4OutBuf(n int) []byte {
	buf := make([]byte, n)
	buf[0] = 0x45
	return buf
}

func TestListenerSYNCookieDerivesISS(t *testing.T) {
	var jar SYNCookieJar
	if err := jar.Reset(SYNCookieConfig{Rand: rand.New(rand.NewSource(1))}); err != nil {
		t.Fatal(err)
	}

	p := &fixedPool{conns: []*Conn{newListenerTestConn(t)}}
	var listener Listener
	if err := listener.Reset(80, p); err != nil {
		t.Fatal(err)
	}
	listener.UseSYNCookies(&jar)

	srcIP, dstIP := [4]byte{10, 0, 0, 1}, [4]byte{10, 0, 0, 2}
	const srcPort, dstPort = 4444, 80
	clientISN := Value(0xAABBCCDD)

	in := buildIPv4TCPSegment(srcIP, dstIP, srcPort, dstPort, Segment{SEQ: clientISN, Flags: FlagSYN, WND: 1024})
	if err := listener.Demux(in, 20); err != nil {
		t.Fatalf("Demux: %v", err)
	}

	want := jar.MakeSYNCookie(srcIP[:], dstIP[:], srcPort, dstPort, clientISN)

	out := newIPv4OutBuf(100)
	n, err := listener.Encapsulate(out, 0, 20)
	if err != nil {
		t.Fatalf("Encapsulate: %v", err)
	}
	if n == 0 {
		t.Fatal("expected a SYN-ACK to be encapsulated")
	}
	tfrm, err := NewFrame(out[20 : 20+n])
	if err != nil {
		t.Fatal(err)
	}
	if got := tfrm.Seq(); got != want {
		t.Fatalf("SYN-ACK ISS = %#x, want cookie %#x", got, want)
	}
}

func TestListenerStatelessSYNACKOnPoolExhaustion(t *testing.T) {
	var jar SYNCookieJar
	if err := jar.Reset(SYNCookieConfig{Rand: rand.New(rand.NewSource(2))}); err != nil {
		t.Fatal(err)
	}

	p := &fixedPool{} // no conns available.
	var listener Listener
	if err := listener.Reset(80, p); err != nil {
		t.Fatal(err)
	}
	listener.UseSYNCookies(&jar)

	srcIP, dstIP := [4]byte{10, 0, 0, 1}, [4]byte{10, 0, 0, 2}
	const srcPort, dstPort = 4444, 80
	clientISN := Value(0x11223344)

	in := buildIPv4TCPSegment(srcIP, dstIP, srcPort, dstPort, Segment{SEQ: clientISN, Flags: FlagSYN, WND: 1024})
	err := listener.Demux(in, 20)
	if err != tcpstack.ErrPacketDrop {
		t.Fatalf("Demux err = %v, want ErrPacketDrop", err)
	}
	if got := listener.rstq.Pending(); got != 1 {
		t.Fatalf("rstq.Pending() = %d, want 1", got)
	}

	want := jar.MakeSYNCookie(srcIP[:], dstIP[:], srcPort, dstPort, clientISN)

	out := newIPv4OutBuf(100)
	n, err := listener.Encapsulate(out, 0, 20)
	if err != nil {
		t.Fatalf("Encapsulate: %v", err)
	}
	if n == 0 {
		t.Fatal("expected a stateless SYN-ACK to be drained")
	}
	tfrm, err := NewFrame(out[20 : 20+n])
	if err != nil {
		t.Fatal(err)
	}
	if _, flags := tfrm.OffsetAndFlags(); flags != FlagSYN|FlagACK {
		t.Fatalf("flags = %v, want SYN|ACK", flags)
	}
	if got := tfrm.Seq(); got != want {
		t.Fatalf("stateless SYN-ACK seq = %#x, want cookie %#x", got, want)
	}
	if got, wantAck := tfrm.Ack(), clientISN+1; got != wantAck {
		t.Fatalf("stateless SYN-ACK ack = %#x, want %#x", got, wantAck)
	}
	if listener.rstq.Pending() != 0 {
		t.Fatal("expected queue to be drained")
	}
}

func TestListenerQueuesStatelessRSTForUnmatchedSegment(t *testing.T) {
	p := &fixedPool{conns: []*Conn{newListenerTestConn(t)}}
	var listener Listener
	if err := listener.Reset(80, p); err != nil {
		t.Fatal(err)
	}

	srcIP, dstIP := [4]byte{10, 0, 0, 1}, [4]byte{10, 0, 0, 2}
	const srcPort, dstPort = 5555, 80
	in := buildIPv4TCPSegment(srcIP, dstIP, srcPort, dstPort, Segment{SEQ: 100, ACK: 200, Flags: FlagACK})
	err := listener.Demux(in, 20)
	if err != tcpstack.ErrPacketDrop {
		t.Fatalf("Demux err = %v, want ErrPacketDrop", err)
	}
	if got := listener.rstq.Pending(); got != 1 {
		t.Fatalf("rstq.Pending() = %d, want 1", got)
	}

	out := newIPv4OutBuf(100)
	n, err := listener.Encapsulate(out, 0, 20)
	if err != nil {
		t.Fatalf("Encapsulate: %v", err)
	}
	if n == 0 {
		t.Fatal("expected a stateless RST to be drained")
	}
	tfrm, err := NewFrame(out[20 : 20+n])
	if err != nil {
		t.Fatal(err)
	}
	if _, flags := tfrm.OffsetAndFlags(); flags != FlagRST {
		t.Fatalf("flags = %v, want RST", flags)
	}
	if got, want := tfrm.Seq(), Value(200); got != want {
		t.Fatalf("RST seq = %#x, want echoed ACK %#x", got, want)
	}
}
