package tcp

import (
	"context"
	"log/slog"
	"net"
	"net/netip"
	"time"

	"github.com/arl/tcpstack/internal"
)

// Socket adapts [Conn]'s backoff-polling Write/Read into genuinely blocking
// calls. It keeps the single mutex cooperative-multitasking model the
// underlying Handler state machine was built around, but replaces the busy
// loop with a [sync.Cond] bound to that same mutex: every Demux, Write, Read,
// OpenActive, OpenListen, Close and Abort call broadcasts after mutating
// state, and callers here block in Cond.Wait until the predicate they care
// about becomes true, their deadline or ctx expires, or the connection is
// aborted.
//
// Socket additionally owns the timers Handler deliberately stays free of
// (see Handler's doc comment): the RTO/retransmission timer, the Nagle
// "override" timer and the TIME-WAIT 2MSL hold are all driven from here,
// armed and disarmed as Demux/Encapsulate observe data moving in and out of
// flight.
type Socket struct {
	Conn
	tun     Tunables
	rto     rtoTimer
	persist persistTimer
	overr   overrideTimer
	twoMSL  twoMSLTimer
}

// NewSocket allocates a Socket ready for [Socket.Connect] or to be handed to
// a [ListenSocket] pool. Buffers are wired via config the same way a plain
// Conn is, through [Conn.Configure]. A zero Tunables uses [DefaultTunables].
func NewSocket(config ConnConfig, tun Tunables) (*Socket, error) {
	tun = tun.withDefaults()
	s := &Socket{tun: tun}
	s.bindCond()
	s.rto.init(tun, s.onRTOFire)
	s.persist.init(s.onPersistProbe)
	s.overr.init(s.onOverrideFire)
	if err := s.Configure(config); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Socket) onRTOFire() {
	s.mu.Lock()
	s.h.Retransmit()
	s.h.NotifyRTO()
	s.mu.Unlock()
	s.notify()
}

// onPersistProbe runs when the zero-window probe timer fires. Actually
// emitting a 1-byte probe segment is the driving stack loop's job the next
// time it calls Encapsulate; this just wakes it up promptly instead of
// waiting for its own poll cadence.
func (s *Socket) onPersistProbe() {
	s.notify()
}

// onOverrideFire bounds how long a write into a previously-empty send
// buffer can sit uncoalesced; like onPersistProbe, actual transmission
// timing belongs to the driving stack loop, so this only wakes it.
func (s *Socket) onOverrideFire() {
	s.notify()
}

// Encapsulate implements [StackNode], overriding the embedded [Conn]'s to
// arm the RTO timer whenever this call puts new data in flight.
func (s *Socket) Encapsulate(carrierData []byte, offsetToIP, offsetToFrame int) (int, error) {
	n, err := s.Conn.Encapsulate(carrierData, offsetToIP, offsetToFrame)
	if n > 0 {
		s.mu.Lock()
		if s.h.InFlight() > 0 {
			s.rto.arm()
		}
		s.mu.Unlock()
	}
	return n, err
}

// Demux implements [StackNode], overriding the embedded [Conn]'s to sample
// RTT / rearm or disarm the RTO timer whenever an incoming segment
// acknowledges in-flight data.
func (s *Socket) Demux(buf []byte, off int) error {
	s.mu.Lock()
	before := s.h.InFlight()
	s.mu.Unlock()
	err := s.Conn.Demux(buf, off)
	s.mu.Lock()
	after := s.h.InFlight()
	if after < before {
		s.rto.ackSample(after > 0)
	}
	if s.h.State() == StateTimeWait {
		s.twoMSL.arm(s.tun.TwoMSLTimeout, s.Abort)
	}
	zeroWindow := s.h.PeerWindowZero()
	s.mu.Unlock()
	if zeroWindow {
		s.persist.arm(s.tun.MinRTO)
	} else {
		s.persist.disarm()
	}
	return err
}

// waitFor blocks until pred returns true (evaluated under s.mu), the
// connection aborts, ctx is cancelled, or deadline elapses. A zero deadline
// means no deadline. ctx may be nil, meaning no cancellation.
func (s *Socket) waitFor(ctx context.Context, deadline time.Time, pred func() bool) error {
	cond := s.bindCond()
	if !deadline.IsZero() {
		d := time.Until(deadline)
		if d <= 0 {
			return errDeadlineExceeded
		}
		timer := time.AfterFunc(d, cond.Broadcast)
		defer timer.Stop()
	}
	if ctx != nil {
		stop := context.AfterFunc(ctx, cond.Broadcast)
		defer stop()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for !pred() {
		if ctx != nil && ctx.Err() != nil {
			return ctx.Err()
		}
		if !deadline.IsZero() && !time.Now().Before(deadline) {
			return errDeadlineExceeded
		}
		if s.abortErr != nil {
			return s.abortErr
		}
		cond.Wait()
	}
	return nil
}

// Connect opens an active connection and blocks until the handshake
// completes, the connection is refused/aborted, or ctx is cancelled.
func (s *Socket) Connect(ctx context.Context, localPort uint16, remote netip.AddrPort, iss Value) error {
	if err := s.OpenActive(localPort, remote, iss); err != nil {
		return translateErr(err)
	}
	err := s.waitFor(ctx, time.Time{}, func() bool {
		st := s.h.State()
		return st == StateEstablished || st.IsClosed()
	})
	if err != nil {
		return translateErr(err)
	}
	s.mu.Lock()
	st := s.h.State()
	abortErr := s.abortErr
	s.mu.Unlock()
	if st.IsClosed() {
		if abortErr != nil {
			return wrapKind(ErrSockConnFailed, abortErr)
		}
		return wrapKind(ErrSockConnFailed, net.ErrClosed)
	}
	return nil
}

// Send blocks until all of b has been accepted into the send buffer (the
// peer need not have ACKed it yet), ctx is cancelled, or the write deadline
// set by [Conn.SetWriteDeadline] elapses.
func (s *Socket) Send(ctx context.Context, b []byte) (int, error) {
	connid, err := s.lockPipeConnID()
	if err != nil {
		return 0, translateErr(err)
	}
	s.trace("Socket.Send:start", slog.Int("len", len(b)))
	n := 0
	for n < len(b) {
		s.mu.Lock()
		if s.h.connid != connid {
			s.mu.Unlock()
			return n, translateErr(net.ErrClosed)
		}
		if !s.h.State().TxDataOpen() {
			s.mu.Unlock()
			return n, translateErr(net.ErrClosed)
		}
		wasEmpty := s.h.BufferedUnsent() == 0
		ngot, werr := s.h.Write(b[n:])
		s.notify()
		s.mu.Unlock()
		if ngot > 0 {
			s.overr.armIfWasEmpty(wasEmpty, s.tun.OverrideTimeout)
		}
		n += ngot
		if werr != nil && werr != internal.ErrRingBufferFull {
			return n, translateErr(werr)
		}
		if n == len(b) {
			break
		}
		err := s.waitFor(ctx, s.wdead, func() bool {
			return s.h.connid != connid || s.h.AvailableOutput() > 0 || !s.h.State().TxDataOpen()
		})
		if err != nil {
			return n, translateErr(err)
		}
	}
	return n, nil
}

// Receive blocks until at least one byte is available, the peer has shut
// down its send side with no more data pending, ctx is cancelled, or the
// read deadline elapses.
func (s *Socket) Receive(ctx context.Context, b []byte) (int, error) {
	connid, err := s.lockPipeConnID()
	if err != nil {
		if s.BufferedInput() > 0 {
			n, rerr := s.handlerRead(b)
			return n, translateErr(rerr)
		}
		return 0, translateErr(err)
	}
	err = s.waitFor(ctx, s.rdead, func() bool {
		return s.h.BufferedInput() > 0 || s.h.connid != connid || !s.h.State().RxDataOpen()
	})
	if err != nil {
		if s.BufferedInput() > 0 {
			n, rerr := s.handlerRead(b)
			return n, translateErr(rerr)
		}
		return 0, translateErr(err)
	}
	n, rerr := s.handlerRead(b)
	return n, translateErr(rerr)
}

// Shutdown gracefully closes the connection (sends FIN) and blocks until the
// peer has acknowledged the close sequence or ctx is cancelled.
func (s *Socket) Shutdown(ctx context.Context) error {
	if err := s.Close(); err != nil {
		return translateErr(err)
	}
	return translateErr(s.waitFor(ctx, time.Time{}, func() bool {
		return s.h.State().IsClosed()
	}))
}

// disarmTimers stops every timer Socket owns. Safe to call repeatedly.
func (s *Socket) disarmTimers() {
	s.rto.disarm()
	s.persist.disarm()
	s.overr.disarm()
	s.twoMSL.disarm()
}

// Abort overrides [Conn.Abort] to also release Socket's timers.
func (s *Socket) Abort() {
	s.Conn.Abort()
	s.disarmTimers()
}

// ListenSocket adapts [Listener]'s polling TryAccept into a blocking Accept,
// using the same mutex+cond pattern [Socket] uses over [Conn].
type ListenSocket struct {
	Listener
}

// NewListenSocket starts listening on port, handing out connections from p
// (typically backed by a fixed pool of pre-allocated [Socket] values so
// Accept never allocates on the hot path).
func NewListenSocket(port uint16, p pool) (*ListenSocket, error) {
	ls := &ListenSocket{}
	ls.bindCond()
	if err := ls.Reset(port, p); err != nil {
		return nil, err
	}
	return ls, nil
}

// Accept blocks until an incoming connection completes its handshake, the
// listener is closed, or ctx is cancelled.
func (ls *ListenSocket) Accept(ctx context.Context) (*Conn, error) {
	cond := ls.bindCond()
	if ctx != nil {
		stop := context.AfterFunc(ctx, cond.Broadcast)
		defer stop()
	}
	ls.mu.Lock()
	defer ls.mu.Unlock()
	for {
		if ls.isClosed() {
			return nil, net.ErrClosed
		}
		conn, err := ls.tryAcceptLocked()
		if err == nil {
			return conn, nil
		}
		if err != errNoConnAvailable {
			return nil, err
		}
		if ctx != nil && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		cond.Wait()
	}
}
