package aria

// BlockSize is the ARIA block size in bytes (RFC 5794 §2: a 128-bit block).
const BlockSize = 16

// ck holds the twelve 32-bit key-schedule constants from RFC 5794 §2.4.2,
// grouped into three 128-bit constants CK1=ck[0][:], CK2=ck[1][:], CK3=ck[2][:].
// Which triplet feeds W0/W1/W2 depends on the master key size; see
// (*Context).init.
var ck = [3][4]uint32{
	{0x517CC1B7, 0x27220A94, 0xFE13ABE8, 0xFA9A6EE0},
	{0x6DB14ACC, 0x9E21C820, 0xFF28B1D5, 0xEF5DE2B0},
	{0xDB92371D, 0x2126E970, 0x03249775, 0x04E8C90E},
}

// rolAmounts are the five 128-bit left-rotation counts applied to the W1,
// W2, W3, KL cycle (and, for the last amount, just W1) when deriving the 17
// encryption round-key groups ek[0..16] from W0..W2 and KL.
var rolAmounts = [5]int{109, 97, 61, 31, 19}
