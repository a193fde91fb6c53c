package sealer

import (
	"errors"
	"reflect"
	"testing"
)

const testKey = "lfQVRuulcL2iOhOJ2r8BYTweoSKwVAJnIF9U+AL+M60="

func TestSealOpen(t *testing.T) {
	s, err := New(testKey)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	parts := []string{"tutor-1", "2026-10-19", "07:00", "60"}
	token, err := s.Seal(parts...)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}

	got, err := s.Open(token)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !reflect.DeepEqual(got, parts) {
		t.Errorf("Open = %v, want %v", got, parts)
	}

	other, _ := s.Seal(parts...)
	if other == token {
		t.Error("tokens for the same parts should differ")
	}
}

func TestOpen_RejectsTampering(t *testing.T) {
	s, _ := New(testKey)
	token, _ := s.Seal("tutor-1", "2026-10-19")

	tampered := []byte(token)
	mid := len(tampered) / 2
	if tampered[mid] == 'A' {
		tampered[mid] = 'B'
	} else {
		tampered[mid] = 'A'
	}

	for _, bad := range []string{string(tampered), "", "not*base64", "AAAA"} {
		if _, err := s.Open(bad); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Open(%q) = %v, want ErrInvalidToken", bad, err)
		}
	}
}

func TestOpen_OtherKey(t *testing.T) {
	a, _ := New(testKey)
	b, _ := New("AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA=")
	token, _ := a.Seal("x")
	if _, err := b.Open(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestNew_BadKey(t *testing.T) {
	if _, err := New("short"); err == nil {
		t.Error("expected error for invalid key")
	}
}

func TestSeal_RejectsSeparator(t *testing.T) {
	s, _ := New(testKey)
	if _, err := s.Seal("a\x1fb"); err == nil {
		t.Error("expected error for part containing separator")
	}
}
