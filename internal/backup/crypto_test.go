package backup

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "plain.db")
	enc := filepath.Join(dir, "plain.db.enc")
	dec := filepath.Join(dir, "restored.db")

	want := []byte("sqlite bytes go here")
	if err := os.WriteFile(src, want, 0600); err != nil {
		t.Fatalf("write source: %v", err)
	}

	if err := EncryptFile(src, enc, "correct horse"); err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if err := DecryptFile(enc, dec, "correct horse"); err != nil {
		t.Fatalf("decrypt: %v", err)
	}

	got, err := os.ReadFile(dec)
	if err != nil {
		t.Fatalf("read restored: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("restored = %q, want %q", got, want)
	}
}

func TestDecryptWrongPassphraseFails(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "plain.db")
	enc := filepath.Join(dir, "plain.db.enc")
	os.WriteFile(src, []byte("secret"), 0600)

	if err := EncryptFile(src, enc, "right"); err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if err := DecryptFile(enc, filepath.Join(dir, "out.db"), "wrong"); err == nil {
		t.Error("expected decryption failure with wrong passphrase")
	}
}

func TestDecryptTamperedCiphertextFails(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "plain.db")
	enc := filepath.Join(dir, "plain.db.enc")
	os.WriteFile(src, []byte("secret"), 0600)

	if err := EncryptFile(src, enc, "pass"); err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	data, _ := os.ReadFile(enc)
	data[len(data)-1] ^= 0xff
	os.WriteFile(enc, data, 0600)

	if err := DecryptFile(enc, filepath.Join(dir, "out.db"), "pass"); err == nil {
		t.Error("expected GCM to reject tampered ciphertext")
	}
}

func TestEncryptUsesFreshSalt(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "plain.db")
	os.WriteFile(src, []byte("same input"), 0600)

	encA := filepath.Join(dir, "a.enc")
	encB := filepath.Join(dir, "b.enc")
	EncryptFile(src, encA, "pass")
	EncryptFile(src, encB, "pass")

	a, _ := os.ReadFile(encA)
	b, _ := os.ReadFile(encB)
	if bytes.Equal(a[:saltSize], b[:saltSize]) {
		t.Error("two encryptions reused a salt")
	}
}

func TestDecryptTruncatedFileFails(t *testing.T) {
	dir := t.TempDir()
	enc := filepath.Join(dir, "short.enc")
	os.WriteFile(enc, make([]byte, saltSize), 0600)

	if err := DecryptFile(enc, filepath.Join(dir, "out.db"), "pass"); err == nil {
		t.Error("expected failure on truncated file")
	}
}
