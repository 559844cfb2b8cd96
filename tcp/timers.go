package tcp

import (
	"time"

	"github.com/arl/tcpstack/internal"
)

// rtoEstimator computes the retransmission timeout per RFC 6298, using the
// standard Jacobson/Karn smoothed round-trip time algorithm. It holds no
// wall-clock state itself (that lives in the timer that owns it, see
// [rtoTimer]); given round-trip samples it only maintains SRTT/RTTVAR/RTO.
type rtoEstimator struct {
	srtt    time.Duration
	rttvar  time.Duration
	rto     time.Duration
	started bool
	min     time.Duration
	max     time.Duration
}

func (e *rtoEstimator) reset(initial, min, max time.Duration) {
	*e = rtoEstimator{rto: initial, min: min, max: max}
}

// sample feeds a new round-trip measurement into the estimator. Per Karn's
// algorithm, the caller must never call sample with an RTT measured on a
// segment that was retransmitted.
func (e *rtoEstimator) sample(rtt time.Duration) {
	const alpha = 8 // 1/8
	const beta = 4  // 1/4
	if !e.started {
		e.srtt = rtt
		e.rttvar = rtt / 2
		e.started = true
	} else {
		diff := e.srtt - rtt
		if diff < 0 {
			diff = -diff
		}
		e.rttvar += (diff - e.rttvar) / beta
		e.srtt += (rtt - e.srtt) / alpha
	}
	e.rto = e.srtt + 4*e.rttvar
	e.clamp()
}

// backoff doubles RTO after a retransmission timeout (RFC 6298 §5.5),
// without touching SRTT/RTTVAR.
func (e *rtoEstimator) backoff() {
	e.rto *= 2
	e.clamp()
}

func (e *rtoEstimator) clamp() {
	if e.rto < e.min {
		e.rto = e.min
	} else if e.rto > e.max {
		e.rto = e.max
	}
}

func (e *rtoEstimator) get() time.Duration { return e.rto }

// rtoTimer drives retransmission for one connection: it arms when data
// enters flight and was previously idle, samples RTT on full ACKs of
// untouched segments, and doubles its interval (Karn's algorithm) each time
// it fires without a fresh sample. The zero value is ready to use.
type rtoTimer struct {
	est          rtoEstimator
	timer        *time.Timer
	armedAt      time.Time
	retransmitted bool // true if armed interval already saw a retransmit; suppresses RTT sampling.
	onFire       func()
}

func (t *rtoTimer) init(tun Tunables, onFire func()) {
	t.est.reset(tun.InitialRTO, tun.MinRTO, tun.MaxRTO)
	t.onFire = onFire
}

// arm starts the timer if it is not already running.
func (t *rtoTimer) arm() {
	if t.timer != nil {
		return
	}
	t.armedAt = timeNow()
	t.retransmitted = false
	t.timer = time.AfterFunc(t.est.get(), t.fire)
}

// disarm stops the timer; called once all in-flight data has been acked.
func (t *rtoTimer) disarm() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}

// rearm restarts the timer for newly-remaining in-flight data, e.g. right
// after a partial ACK: a fresh RTT sample window begins.
func (t *rtoTimer) rearm() {
	t.disarm()
	t.arm()
}

func (t *rtoTimer) fire() {
	t.est.backoff()
	t.timer = nil
	t.retransmitted = true
	if t.onFire != nil {
		t.onFire()
	}
}

// ackSample feeds Karn-filtered RTT measurement and rearms for any
// remaining in-flight data. hasMoreInFlight tells it whether to keep
// running.
func (t *rtoTimer) ackSample(hasMoreInFlight bool) {
	if !t.retransmitted && !t.armedAt.IsZero() {
		t.est.sample(timeNow().Sub(t.armedAt))
	}
	t.disarm()
	if hasMoreInFlight {
		t.arm()
	}
}

// timeNow is a var so tests can substitute a fake clock without the
// standard library's monotonic wall-clock machinery getting in the way.
var timeNow = time.Now

// persistTimer implements the zero-window probe per RFC 9293 §3.8.6.1:
// when the peer advertises a zero window, periodically send a 1-byte probe
// so the connection is not stuck forever if the peer's window-update ACK is
// lost. Each arm schedules one probe after the interval it is given; the
// interval does not grow between probes, and the backoff field is not
// consulted.
type persistTimer struct {
	backoff internal.Backoff
	timer   *time.Timer
	onProbe func()
}

func (p *persistTimer) init(onProbe func()) {
	p.backoff = internal.NewBackoff(internal.BackoffHasPriority)
	p.onProbe = onProbe
}

func (p *persistTimer) arm(interval time.Duration) {
	if p.timer != nil {
		return
	}
	p.timer = time.AfterFunc(interval, p.fire)
}

func (p *persistTimer) fire() {
	p.timer = nil
	if p.onProbe != nil {
		p.onProbe()
	}
}

func (p *persistTimer) disarm() {
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
}

// overrideTimer implements the Nagle-adjacent "override timer" quirk kept
// from the teacher's cyclone_tcp-derived design (see DESIGN.md): armed only
// when a write fills a previously-empty send buffer, forcing a maximum
// delay before that first small write is flushed even if more data keeps
// trickling in behind it.
type overrideTimer struct {
	timer  *time.Timer
	onFire func()
}

func (o *overrideTimer) init(onFire func()) { o.onFire = onFire }

// armIfWasEmpty arms the timer only if wasEmpty is true (the buffer held no
// unsent data before this write), matching the teacher's
// `n == sndUser`-gated arm condition verbatim (spec.md's Open Question:
// decided to preserve, not "fix").
func (o *overrideTimer) armIfWasEmpty(wasEmpty bool, d time.Duration) {
	if !wasEmpty || o.timer != nil {
		return
	}
	o.timer = time.AfterFunc(d, o.fire)
}

func (o *overrideTimer) fire() {
	o.timer = nil
	if o.onFire != nil {
		o.onFire()
	}
}

func (o *overrideTimer) disarm() {
	if o.timer != nil {
		o.timer.Stop()
		o.timer = nil
	}
}

// twoMSLTimer holds a connection in TIME-WAIT for 2*MSL per RFC 9293 §3.5
// before the final callback (typically returning the Conn to its pool)
// fires.
type twoMSLTimer struct {
	timer *time.Timer
}

func (t *twoMSLTimer) arm(d time.Duration, onExpire func()) {
	t.disarm()
	t.timer = time.AfterFunc(d, onExpire)
}

func (t *twoMSLTimer) disarm() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}
