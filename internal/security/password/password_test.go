package password

import (
	"strings"
	"testing"
)

// Parámetros livianos para que los tests no paguen 64 MiB por hash.
var testParams = Params{Memory: 8 * 1024, Time: 1, Parallelism: 1, KeyLen: 32}

func TestHashVerify_RoundTrip(t *testing.T) {
	phc, err := Hash(testParams, "s3cret-pa55word")
	if err != nil {
		t.Fatalf("Hash err: %v", err)
	}
	if !strings.HasPrefix(phc, "$argon2id$v=19$") {
		t.Fatalf("unexpected PHC prefix: %q", phc)
	}
	if !Verify("s3cret-pa55word", phc) {
		t.Fatalf("correct password rejected")
	}
	if Verify("wrong-password", phc) {
		t.Fatalf("wrong password accepted")
	}
}

func TestHash_SaltedPerCall(t *testing.T) {
	a, err := Hash(testParams, "same")
	if err != nil {
		t.Fatalf("Hash err: %v", err)
	}
	b, err := Hash(testParams, "same")
	if err != nil {
		t.Fatalf("Hash err: %v", err)
	}
	if a == b {
		t.Fatalf("two hashes of the same password collided (salt reuse)")
	}
	if !Verify("same", a) || !Verify("same", b) {
		t.Fatalf("both hashes should verify")
	}
}

func TestHash_EmptyPassword(t *testing.T) {
	if _, err := Hash(testParams, ""); err == nil {
		t.Fatalf("expected error for empty password")
	}
}

func TestVerify_MalformedHash(t *testing.T) {
	// Hashes malformados verifican falso, nunca panic ni error.
	malformed := []string{
		"",
		"plaintext",
		"$argon2i$v=19$m=8192,t=1,p=1$c2FsdA$ZGs",       // variante equivocada
		"$argon2id$v=18$m=8192,t=1,p=1$c2FsdA$ZGs",      // versión equivocada
		"$argon2id$v=19$m=x,t=1,p=1$c2FsdA$ZGs",         // params rotos
		"$argon2id$v=19$m=8192,t=1,p=1$!!notb64!!$ZGs",  // salt roto
		"$argon2id$v=19$m=8192,t=1,p=1$c2FsdA$!!nob64!", // dk roto
		"$argon2id$v=19$m=8192,t=1,p=1$c2FsdA",          // faltan partes
	}
	for _, phc := range malformed {
		if Verify("whatever", phc) {
			t.Fatalf("malformed hash verified: %q", phc)
		}
	}
}
