package tcp

import (
	"errors"
	"io"
	"net"
	"testing"
)

func TestTranslateErr(t *testing.T) {
	cases := []struct {
		name string
		in   error
		want ErrorKind
	}{
		{"nil", nil, ErrNone},
		{"deadline", errDeadlineExceeded, ErrTimeout},
		{"eof", io.EOF, ErrEndOfStream},
		{"closed", net.ErrClosed, ErrNotConnected},
		{"closing", errConnectionClosing, ErrConnectionClosing},
		{"reset", errConnReset, ErrConnectionReset},
		{"other", errors.New("boom"), ErrFailure},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := translateErr(c.in)
			if c.in == nil {
				if got != nil {
					t.Fatalf("want nil, got %v", got)
				}
				return
			}
			kinder, ok := got.(interface{ Kind() ErrorKind })
			if !ok {
				t.Fatalf("want a type exposing Kind(), got %T: %v", got, got)
			}
			if kinder.Kind() != c.want {
				t.Fatalf("want kind %v, got %v", c.want, kinder.Kind())
			}
			if !errors.Is(got, c.in) {
				t.Fatalf("want errors.Is to still reach original cause %v", c.in)
			}
		})
	}
}

func TestSocketErrorIsMatchesByKind(t *testing.T) {
	a := wrapKind(ErrSockTimeout, errDeadlineExceeded)
	if !errors.Is(a, ErrSockTimeout) {
		t.Fatal("want errors.Is to match sentinel by kind, not pointer identity")
	}
	if errors.Is(a, ErrSockConnReset) {
		t.Fatal("want kinds to not cross-match")
	}
}
