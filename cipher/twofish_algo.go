package cipher

import (
	"errors"

	"golang.org/x/crypto/twofish"
)

// ErrKeyTooLong is returned by (Twofish).Init for a key longer than
// Twofish's maximum (256-bit, 32 bytes).
var ErrKeyTooLong = errors.New("cipher: twofish key longer than 32 bytes")

const twofishMaxKeyLen = 32

// Twofish implements CipherAlgo over golang.org/x/crypto/twofish — a second
// concrete algorithm alongside aria.Algo, proving CipherAlgo is genuinely
// cipher-agnostic rather than shaped around ARIA's particular context
// layout.
//
// Unlike aria.Algo, which encodes an expanded round-key schedule into ctx,
// ctx here just holds the raw key: *twofish.Cipher's key schedule lives in
// unexported fields that aren't safe to reinterpret from a byte buffer, so
// EncryptBlock/DecryptBlock re-derive a *twofish.Cipher from the stored key
// on every call.
type Twofish struct{}

func (Twofish) Name() string     { return "Twofish" }
func (Twofish) BlockSize() int   { return twofish.BlockSize }
func (Twofish) ContextSize() int { return 1 + twofishMaxKeyLen }

func (Twofish) Init(ctx []byte, key []byte) error {
	if len(key) > twofishMaxKeyLen {
		return ErrKeyTooLong
	}
	if len(ctx) < 1+len(key) {
		return ErrBufferTooSmall
	}
	if _, err := twofish.NewCipher(key); err != nil {
		return err
	}
	ctx[0] = byte(len(key))
	copy(ctx[1:], key)
	return nil
}

func (Twofish) EncryptBlock(ctx []byte, dst, src []byte) {
	c, err := twofish.NewCipher(storedKey(ctx))
	if err != nil {
		panic("cipher: twofish context holds a key Init should have rejected: " + err.Error())
	}
	c.Encrypt(dst, src)
}

func (Twofish) DecryptBlock(ctx []byte, dst, src []byte) {
	c, err := twofish.NewCipher(storedKey(ctx))
	if err != nil {
		panic("cipher: twofish context holds a key Init should have rejected: " + err.Error())
	}
	c.Decrypt(dst, src)
}

func storedKey(ctx []byte) []byte {
	n := int(ctx[0])
	return ctx[1 : 1+n]
}
