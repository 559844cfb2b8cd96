package tcp

import "time"

// Tuning constants used where RFC 9293 leaves a choice up to the
// implementation. Mirrors the teacher's style of plain const blocks rather
// than a loaded config struct, but groups them behind one [Tunables] value
// so a caller can override the whole set at once (e.g. for tests that want
// faster timers).
const (
	// defaultMSS is used by [congestionState] and segment sizing whenever a
	// connection's MSS has not been negotiated via the MSS option.
	defaultMSS Size = 536
	// maxMSS bounds the MSS option value accepted from a peer.
	maxMSS Size = 1460

	defaultInitialRTO     = time.Second
	minRTO                = 200 * time.Millisecond
	maxRTO                = 60 * time.Second
	defaultOverrideWindow = 200 * time.Millisecond
	defaultTwoMSL         = 2 * 60 * time.Second // RFC 9293 suggests 2 minutes for MSL=1 minute.
)

// Tunables groups the knobs a caller may want to override per [Handler] or
// [Listener] instance: buffer sizes, timer durations and queue depths. Zero
// fields fall back to the package defaults above.
type Tunables struct {
	DefaultMSS Size
	MaxMSS     Size

	InitialRTO      time.Duration
	MinRTO          time.Duration
	MaxRTO          time.Duration
	OverrideTimeout time.Duration
	TwoMSLTimeout   time.Duration

	TxBufferSize  int
	RxBufferSize  int
	SYNQueueDepth int
}

// DefaultTunables returns the tunables used when a zero-value [Tunables] is
// supplied.
func DefaultTunables() Tunables {
	return Tunables{
		DefaultMSS:      defaultMSS,
		MaxMSS:          maxMSS,
		InitialRTO:      defaultInitialRTO,
		MinRTO:          minRTO,
		MaxRTO:          maxRTO,
		OverrideTimeout: defaultOverrideWindow,
		TwoMSLTimeout:   defaultTwoMSL,
		TxBufferSize:    4096,
		RxBufferSize:    4096,
		SYNQueueDepth:   16,
	}
}

// withDefaults fills any zero field of t with the package default.
func (t Tunables) withDefaults() Tunables {
	d := DefaultTunables()
	if t.DefaultMSS == 0 {
		t.DefaultMSS = d.DefaultMSS
	}
	if t.MaxMSS == 0 {
		t.MaxMSS = d.MaxMSS
	}
	if t.InitialRTO == 0 {
		t.InitialRTO = d.InitialRTO
	}
	if t.MinRTO == 0 {
		t.MinRTO = d.MinRTO
	}
	if t.MaxRTO == 0 {
		t.MaxRTO = d.MaxRTO
	}
	if t.OverrideTimeout == 0 {
		t.OverrideTimeout = d.OverrideTimeout
	}
	if t.TwoMSLTimeout == 0 {
		t.TwoMSLTimeout = d.TwoMSLTimeout
	}
	if t.TxBufferSize == 0 {
		t.TxBufferSize = d.TxBufferSize
	}
	if t.RxBufferSize == 0 {
		t.RxBufferSize = d.RxBufferSize
	}
	if t.SYNQueueDepth == 0 {
		t.SYNQueueDepth = d.SYNQueueDepth
	}
	return t
}
