package tcp

// Value is a 32 bit TCP sequence or acknowledgment number. Sequence space is
// circular modulo 2^32 as described in RFC 9293 Section 3.4.1: comparisons
// and arithmetic on Value must account for wraparound instead of treating
// the number as a plain unsigned integer.
type Value uint32

// Size is a difference between two sequence numbers, or a window/length
// measured in octets. Size is never negative; wraparound differences are
// always resolved to their small positive representative.
type Size uint32

// Add returns the sequence number sz octets after v, wrapping modulo 2^32.
func Add(v Value, sz Size) Value {
	return v + Value(sz)
}

// Sizeof returns the number of octets between a (exclusive) and b (inclusive),
// i.e. the size of the interval (a, b] walking forward from a to b around the
// sequence space. Sizeof(a, a) is 0.
func Sizeof(a, b Value) Size {
	return Size(b - a)
}

// LessThan reports whether v precedes other in circular sequence space,
// per the RFC 9293 definition: a <= b is defined as b-a being in the smaller
// (non-wrapped) half of the sequence space.
func (v Value) LessThan(other Value) bool {
	return int32(v-other) < 0
}

// LessThanEq reports whether v precedes or equals other in circular sequence space.
func (v Value) LessThanEq(other Value) bool {
	return v == other || v.LessThan(other)
}

// InWindow reports whether v falls in the half-open window [start, start+size)
// of the circular sequence space. A zero size window contains no values.
func (v Value) InWindow(start Value, size Size) bool {
	if size == 0 {
		return false
	}
	offset := Sizeof(start, v)
	return offset < size
}

// UpdateForward advances v to newer if newer is ahead of (or equal to) v in
// sequence space. It is a no-op if newer is behind v, guarding against stale
// or reordered updates moving the counter backwards.
func (v *Value) UpdateForward(newer Value) {
	if v.LessThanEq(newer) {
		*v = newer
	}
}

// String implements fmt.Stringer.
func (v Value) String() string {
	return itoa(uint32(v))
}

// String implements fmt.Stringer.
func (sz Size) String() string {
	return itoa(uint32(sz))
}

func itoa(v uint32) string {
	if v == 0 {
		return "0"
	}
	var buf [10]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}
