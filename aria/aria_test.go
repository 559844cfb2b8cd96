package aria

import (
	"bytes"
	"encoding/hex"
	"testing"
)

// Test vectors are RFC 5794's Appendix A worked example encrypted under
// each of the three key sizes.
func TestEncryptBlockVectors(t *testing.T) {
	plaintext := mustHex(t, "00112233445566778899aabbccddeeff")

	cases := []struct {
		name string
		key  string
		ct   string
	}{
		{"ARIA-128", "000102030405060708090a0b0c0d0e0f", "d718fbd6ab644c739da95f3be6451778"},
		{"ARIA-192", "000102030405060708090a0b0c0d0e0f1011121314151617", "26449c1805dbe7aa25a468ce263a9e79"},
		{"ARIA-256", "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f", "f92bd7c79fb72e2f2b8f80c1972d24fc"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			key := mustHex(t, c.key)
			want := mustHex(t, c.ct)

			var ctx Context
			if err := ctx.init(key); err != nil {
				t.Fatalf("init: %v", err)
			}

			got := make([]byte, BlockSize)
			ctx.encryptBlock(got, plaintext)
			if !bytes.Equal(got, want) {
				t.Fatalf("encryptBlock = %x, want %x", got, want)
			}

			back := make([]byte, BlockSize)
			ctx.decryptBlock(back, got)
			if !bytes.Equal(back, plaintext) {
				t.Fatalf("decryptBlock(encryptBlock(pt)) = %x, want %x", back, plaintext)
			}
		})
	}
}

func TestAlgoImplementsCipherAlgoShape(t *testing.T) {
	var a Algo
	if a.Name() != "ARIA" {
		t.Fatalf("Name() = %q, want ARIA", a.Name())
	}
	if a.BlockSize() != 16 {
		t.Fatalf("BlockSize() = %d, want 16", a.BlockSize())
	}
	ctx := make([]byte, a.ContextSize())
	key := mustHex(t, "000102030405060708090a0b0c0d0e0f")
	if err := a.Init(ctx, key); err != nil {
		t.Fatalf("Init: %v", err)
	}
	pt := mustHex(t, "00112233445566778899aabbccddeeff")
	ctbuf := make([]byte, a.BlockSize())
	a.EncryptBlock(ctx, ctbuf, pt)
	want := mustHex(t, "d718fbd6ab644c739da95f3be6451778")
	if !bytes.Equal(ctbuf, want) {
		t.Fatalf("EncryptBlock via Algo = %x, want %x", ctbuf, want)
	}
	back := make([]byte, a.BlockSize())
	a.DecryptBlock(ctx, back, ctbuf)
	if !bytes.Equal(back, pt) {
		t.Fatalf("DecryptBlock via Algo = %x, want %x", back, pt)
	}
}

func TestInitRejectsBadKeyLength(t *testing.T) {
	var ctx Context
	if err := ctx.init(make([]byte, 20)); err != ErrInvalidKeyLength {
		t.Fatalf("init with 20-byte key: got %v, want ErrInvalidKeyLength", err)
	}
}

func TestAlgoInitRejectsUndersizedContext(t *testing.T) {
	var a Algo
	key := mustHex(t, "000102030405060708090a0b0c0d0e0f")
	if err := a.Init(make([]byte, 4), key); err != ErrContextTooSmall {
		t.Fatalf("Init with undersized ctx: got %v, want ErrContextTooSmall", err)
	}
}

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("bad hex literal %q: %v", s, err)
	}
	return b
}
