// Package aria implements the ARIA block cipher (RFC 5794): a 128-bit block
// cipher with 128-, 192- or 256-bit keys, 12/14/16 rounds respectively.
//
// The key schedule and round structure are ported from CycloneCrypto's
// aria.c, translated from its word-macro/endian-conversion style (needed in
// C to keep SL1/SL2's byte-cast substitution layer consistent across host
// byte orders) into plain big-endian-word arithmetic, since Go values carry
// no ambient memory byte order to normalize against.
package aria

import (
	"encoding/binary"
	"errors"
)

// ErrInvalidKeyLength is returned by Init/(*Context).init when the key is
// not 16, 24 or 32 bytes (RFC 5794 §2: 128-, 192- or 256-bit keys only).
var ErrInvalidKeyLength = errors.New("aria: invalid key length")

// ErrContextTooSmall is returned when a ctx buffer shorter than
// ContextSizeBytes is handed to Init/EncryptBlock/DecryptBlock.
var ErrContextTooSmall = errors.New("aria: context buffer too small")

// Context holds the expanded encryption and decryption round-key schedule
// for one ARIA key, plus the round count that key size selected.
//
// ek and dk are 17 groups of 4 words (68 words, matching RFC 5794's maximum
// of 17 round-key groups for a 256-bit key); only the first nr+1 groups of
// each are populated for a given key size.
type Context struct {
	ek [68]uint32
	dk [68]uint32
	nr int
}

// ContextSizeBytes is the wire size of an encoded Context: one word for nr
// followed by len(ek)+len(dk) round-key words, each stored big-endian.
// Computed from the real field lengths, not duplicated as a constant, so a
// future change to ek/dk's size doesn't leave ContextSizeBytes stale.
func ContextSizeBytes() int {
	var c Context
	return (len(c.ek) + len(c.dk) + 1) * 4
}

func (c *Context) encode(buf []byte) {
	binary.BigEndian.PutUint32(buf[0:4], uint32(c.nr))
	off := 4
	for _, w := range c.ek {
		binary.BigEndian.PutUint32(buf[off:off+4], w)
		off += 4
	}
	for _, w := range c.dk {
		binary.BigEndian.PutUint32(buf[off:off+4], w)
		off += 4
	}
}

func (c *Context) decode(buf []byte) {
	c.nr = int(binary.BigEndian.Uint32(buf[0:4]))
	off := 4
	for i := range c.ek {
		c.ek[i] = binary.BigEndian.Uint32(buf[off : off+4])
		off += 4
	}
	for i := range c.dk {
		c.dk[i] = binary.BigEndian.Uint32(buf[off : off+4])
		off += 4
	}
}

// init expands key into the encryption and decryption round-key schedules,
// following ariaInit's KL/KR/W0/W1/W2 construction (aria.c, ariaInit).
func (c *Context) init(key []byte) error {
	var ck1, ck2, ck3 *[4]uint32
	switch len(key) {
	case 16:
		ck1, ck2, ck3 = &ck[0], &ck[1], &ck[2]
		c.nr = 12
	case 24:
		ck1, ck2, ck3 = &ck[1], &ck[2], &ck[0]
		c.nr = 14
	case 32:
		ck1, ck2, ck3 = &ck[2], &ck[0], &ck[1]
		c.nr = 16
	default:
		return ErrInvalidKeyLength
	}

	var kl, kr [4]uint32
	loadWords(kl[:], key[0:16])
	if len(key) > 16 {
		var krBytes [16]byte
		copy(krBytes[:], key[16:])
		loadWords(kr[:], krBytes[:])
	}

	w0 := kl
	oddRound(w0[:], ck1[:])
	xor128(w0[:], kr[:])

	w1 := w0
	evenRound(w1[:], ck2[:])
	xor128(w1[:], kl[:])

	w2 := w1
	oddRound(w2[:], ck3[:])
	xor128(w2[:], w0[:])

	// ek[0..nr]: the W1,W2,W3,KL / prev-group cycle rotated by
	// {109,97,61,31} (4 groups each) then once more by 19 (1 group). Only
	// groups up to nr are ever read back (by the tail switch in
	// processBlock and by the decryption-key derivation below), so unlike
	// the C source — which always fills all 17 groups — only the groups a
	// given key size actually uses are computed.
	src := [4][4]uint32{w0, w1, w2, kl}
	prev := [4][4]uint32{kl, w0, w1, w2}
	g := 0
ekLoop:
	for _, n := range rolAmounts {
		reps := 4
		if n == 19 {
			reps = 1
		}
		for j := 0; j < reps; j++ {
			rol128(c.ek[g*4:g*4+4], src[j][:], n)
			xor128(c.ek[g*4:g*4+4], prev[j][:])
			g++
			if g > c.nr {
				break ekLoop
			}
		}
	}

	// Decryption keys derive from the encryption schedule (aria.c,
	// ariaInit): dk0 is the last encryption round key, dk(nr) the first,
	// and the rest are the diffusion layer applied to the reversed
	// schedule.
	copy(c.dk[0:4], c.ek[c.nr*4:c.nr*4+4])
	for i := 1; i < c.nr; i++ {
		diffuseA(c.dk[i*4:i*4+4], c.ek[(c.nr-i)*4:(c.nr-i)*4+4])
	}
	copy(c.dk[c.nr*4:c.nr*4+4], c.ek[0:4])
	return nil
}

func loadWords(dst []uint32, src []byte) {
	for i := range dst {
		dst[i] = binary.BigEndian.Uint32(src[i*4 : i*4+4])
	}
}

// processBlock runs the 11 fixed OF/EF rounds followed by the nr-dependent
// tail shared by encryptBlock and decryptBlock (aria.c, ariaEncryptBlock /
// ariaDecryptBlock: decryption reuses the exact same round shape over dk).
func processBlock(rk []uint32, nr int, dst, src []byte) {
	var p [4]uint32
	loadWords(p[:], src)

	oddRound(p[:], rk[0:4])
	evenRound(p[:], rk[4:8])
	oddRound(p[:], rk[8:12])
	evenRound(p[:], rk[12:16])
	oddRound(p[:], rk[16:20])
	evenRound(p[:], rk[20:24])
	oddRound(p[:], rk[24:28])
	evenRound(p[:], rk[28:32])
	oddRound(p[:], rk[32:36])
	evenRound(p[:], rk[36:40])
	oddRound(p[:], rk[40:44])

	var q [4]uint32
	switch nr {
	case 12:
		xor128(p[:], rk[44:48])
		sl2(q[:], p[:])
		xor128(q[:], rk[48:52])
	case 14:
		evenRound(p[:], rk[44:48])
		oddRound(p[:], rk[48:52])
		xor128(p[:], rk[52:56])
		sl2(q[:], p[:])
		xor128(q[:], rk[56:60])
	default: // 16
		evenRound(p[:], rk[44:48])
		oddRound(p[:], rk[48:52])
		evenRound(p[:], rk[52:56])
		oddRound(p[:], rk[56:60])
		xor128(p[:], rk[60:64])
		sl2(q[:], p[:])
		xor128(q[:], rk[64:68])
	}

	for i, w := range q {
		binary.BigEndian.PutUint32(dst[i*4:i*4+4], w)
	}
}

func (c *Context) encryptBlock(dst, src []byte) { processBlock(c.ek[:], c.nr, dst, src) }
func (c *Context) decryptBlock(dst, src []byte) { processBlock(c.dk[:], c.nr, dst, src) }

// Algo implements cipher.CipherAlgo over an opaque ctx []byte, so code
// generic over block ciphers (cipher.CBCEncrypt/CBCDecrypt) never needs to
// know Context's layout.
type Algo struct{}

func (Algo) Name() string     { return "ARIA" }
func (Algo) BlockSize() int   { return BlockSize }
func (Algo) ContextSize() int { return ContextSizeBytes() }

func (Algo) Init(ctx []byte, key []byte) error {
	if len(ctx) < ContextSizeBytes() {
		return ErrContextTooSmall
	}
	var c Context
	if err := c.init(key); err != nil {
		return err
	}
	c.encode(ctx)
	return nil
}

func (Algo) EncryptBlock(ctx []byte, dst, src []byte) {
	var c Context
	c.decode(ctx)
	c.encryptBlock(dst, src)
}

func (Algo) DecryptBlock(ctx []byte, dst, src []byte) {
	var c Context
	c.decode(ctx)
	c.decryptBlock(dst, src)
}
