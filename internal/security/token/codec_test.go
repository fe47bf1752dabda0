package token

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func fixedCodec(secret string, at time.Time) *Codec {
	c := NewCodec(secret)
	c.now = func() time.Time { return at }
	return c
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	c := NewCodec("test-secret")

	payload := map[string]string{"sub": "alice@example.com", "extra": "x"}
	tok, err := c.Encode(payload, PurposeAuth)
	if err != nil {
		t.Fatalf("Encode err: %v", err)
	}

	got, err := c.Decode(tok, PurposeAuth, time.Hour)
	if err != nil {
		t.Fatalf("Decode err: %v", err)
	}
	if got["sub"] != "alice@example.com" || got["extra"] != "x" {
		t.Fatalf("payload mismatch: %v", got)
	}
}

func TestDecode_PurposeIsolation(t *testing.T) {
	// Un token emitido para un propósito jamás valida contra otro,
	// incluso con la misma clave y el mismo sujeto.
	c := NewCodec("test-secret")

	tok, err := c.Encode(map[string]string{"sub": "alice@example.com"}, PurposeVerification)
	if err != nil {
		t.Fatalf("Encode err: %v", err)
	}

	others := []string{PurposeAuth, PurposeRefresh, PurposeReset, PurposeTfa, PurposeOAuthState}
	for _, p := range others {
		if _, err := c.Decode(tok, p, time.Hour); !errors.Is(err, ErrInvalid) {
			t.Fatalf("purpose %q: got %v, want ErrInvalid", p, err)
		}
	}

	// El propósito correcto sí valida.
	if _, err := c.Decode(tok, PurposeVerification, time.Hour); err != nil {
		t.Fatalf("correct purpose: %v", err)
	}
}

func TestDecode_Expiry(t *testing.T) {
	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	c := fixedCodec("test-secret", issued)
	tok, err := c.Encode(map[string]string{"sub": "bob@example.com"}, PurposeReset)
	if err != nil {
		t.Fatalf("Encode err: %v", err)
	}

	// Dentro de la ventana
	c.now = func() time.Time { return issued.Add(14 * time.Minute) }
	if _, err := c.Decode(tok, PurposeReset, 15*time.Minute); err != nil {
		t.Fatalf("within maxAge: %v", err)
	}

	// Fuera de la ventana
	c.now = func() time.Time { return issued.Add(16 * time.Minute) }
	if _, err := c.Decode(tok, PurposeReset, 15*time.Minute); !errors.Is(err, ErrInvalid) {
		t.Fatalf("past maxAge: got %v, want ErrInvalid", err)
	}
}

func TestDecode_WrongKey(t *testing.T) {
	tok, err := NewCodec("key-a").Encode(map[string]string{"sub": "x"}, PurposeAuth)
	if err != nil {
		t.Fatalf("Encode err: %v", err)
	}
	if _, err := NewCodec("key-b").Decode(tok, PurposeAuth, time.Hour); !errors.Is(err, ErrInvalid) {
		t.Fatalf("wrong key: got %v, want ErrInvalid", err)
	}
}

func TestDecode_Tampered(t *testing.T) {
	c := NewCodec("test-secret")
	tok, err := c.Encode(map[string]string{"sub": "alice@example.com"}, PurposeAuth)
	if err != nil {
		t.Fatalf("Encode err: %v", err)
	}

	parts := strings.Split(tok, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token format")
	}
	// Payload adulterado, firma original.
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]
	if _, err := c.Decode(tampered, PurposeAuth, time.Hour); !errors.Is(err, ErrInvalid) {
		t.Fatalf("tampered: got %v, want ErrInvalid", err)
	}
}

func TestDecode_Garbage(t *testing.T) {
	c := NewCodec("test-secret")
	for _, tok := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := c.Decode(tok, PurposeAuth, time.Hour); !errors.Is(err, ErrInvalid) {
			t.Fatalf("%q: got %v, want ErrInvalid", tok, err)
		}
	}
}

func TestEncode_EmptyPurpose(t *testing.T) {
	if _, err := NewCodec("test-secret").Encode(map[string]string{"sub": "x"}, ""); err == nil {
		t.Fatalf("expected error for empty purpose")
	}
}

func TestGenerateOpaque_Unique(t *testing.T) {
	a, err := GenerateOpaque(32)
	if err != nil {
		t.Fatalf("GenerateOpaque err: %v", err)
	}
	b, err := GenerateOpaque(32)
	if err != nil {
		t.Fatalf("GenerateOpaque err: %v", err)
	}
	if a == b {
		t.Fatalf("two opaque tokens collided")
	}
	if len(a) < 32 {
		t.Fatalf("token too short: %d", len(a))
	}
}
