package crypto

import (
	"bytes"
	"testing"
)

func TestDeriveKey_Deterministic(t *testing.T) {
	master := []byte("enclave-manifest-secret")

	k1, err := DeriveKey(master, []byte("operator-1"), "wallet-key", 32)
	if err != nil {
		t.Fatalf("DeriveKey failed: %v", err)
	}
	k2, err := DeriveKey(master, []byte("operator-1"), "wallet-key", 32)
	if err != nil {
		t.Fatalf("DeriveKey failed: %v", err)
	}

	if !bytes.Equal(k1, k2) {
		t.Fatal("DeriveKey should be deterministic for identical inputs")
	}
	if len(k1) != 32 {
		t.Fatalf("expected 32-byte key, got %d", len(k1))
	}
}

func TestDeriveKey_DifferentSaltDifferentKey(t *testing.T) {
	master := []byte("enclave-manifest-secret")

	k1, _ := DeriveKey(master, []byte("operator-1"), "wallet-key", 32)
	k2, _ := DeriveKey(master, []byte("operator-2"), "wallet-key", 32)

	if bytes.Equal(k1, k2) {
		t.Fatal("different salts should derive different keys")
	}
}

func TestDeriveKey_DifferentInfoDifferentKey(t *testing.T) {
	master := []byte("enclave-manifest-secret")

	k1, _ := DeriveKey(master, []byte("operator-1"), "wallet-key", 32)
	k2, _ := DeriveKey(master, []byte("operator-1"), "snapshot-encryption-key", 32)

	if bytes.Equal(k1, k2) {
		t.Fatal("different info strings should derive different keys")
	}
}

func TestGenerateRandomBytes(t *testing.T) {
	b, err := GenerateRandomBytes(16)
	if err != nil {
		t.Fatalf("GenerateRandomBytes failed: %v", err)
	}
	if len(b) != 16 {
		t.Fatalf("expected 16 bytes, got %d", len(b))
	}
}

func TestHMACSignVerify(t *testing.T) {
	key := []byte("webhook-secret")
	payload := []byte(`{"pool_id":1,"status":"resolved"}`)

	sig := HMACSign(key, payload)
	if !HMACVerify(key, payload, sig) {
		t.Fatal("HMACVerify should succeed for a matching signature")
	}

	if HMACVerify(key, []byte("tampered"), sig) {
		t.Fatal("HMACVerify should fail for tampered payload")
	}

	if HMACVerify([]byte("wrong-key"), payload, sig) {
		t.Fatal("HMACVerify should fail for wrong key")
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	plaintext := []byte("cached evidence snapshot")

	ciphertext, err := Encrypt(key, plaintext)
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	if bytes.Equal(ciphertext, plaintext) {
		t.Fatal("ciphertext should not equal plaintext")
	}

	decrypted, err := Decrypt(key, ciphertext)
	if err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}
	if !bytes.Equal(decrypted, plaintext) {
		t.Fatalf("expected %q, got %q", plaintext, decrypted)
	}
}

func TestDecrypt_TamperedCiphertextFails(t *testing.T) {
	key := make([]byte, 32)
	plaintext := []byte("cached evidence snapshot")

	ciphertext, _ := Encrypt(key, plaintext)
	ciphertext[len(ciphertext)-1] ^= 0xFF

	if _, err := Decrypt(key, ciphertext); err == nil {
		t.Fatal("expected Decrypt to fail for tampered ciphertext")
	}
}

func TestZeroBytes(t *testing.T) {
	b := []byte{1, 2, 3, 4}
	ZeroBytes(b)
	for i, v := range b {
		if v != 0 {
			t.Fatalf("byte %d not zeroed: %d", i, v)
		}
	}
}
