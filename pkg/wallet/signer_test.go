package wallet

import (
	"errors"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

func testFingerprint(t *testing.T, seed string) string {
	t.Helper()
	return hexutil.Encode(crypto.Keccak256([]byte(seed)))
}

func TestSignVerify(t *testing.T) {
	kp, err := Generate()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	fp := testFingerprint(t, "sender|u2|50.00|ZARP|nonce-1")

	sig, err := SignFingerprint(fp, kp.PrivateKey)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if !strings.HasPrefix(sig, "0x") || len(sig) != 132 {
		t.Errorf("signature = %q, want 65-byte hex", sig)
	}
	if !VerifyFingerprint(fp, sig, kp.Address) {
		t.Error("signature does not verify against own address")
	}
}

func TestVerifyRejectsOtherKeypair(t *testing.T) {
	kp, _ := Generate()
	other, _ := Generate()
	fp := testFingerprint(t, "sender|u2|50.00|ZARP|nonce-2")

	sig, err := SignFingerprint(fp, kp.PrivateKey)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if VerifyFingerprint(fp, sig, other.Address) {
		t.Error("signature verifies against unrelated address")
	}
}

func TestVerifyRejectsTamperedFingerprint(t *testing.T) {
	kp, _ := Generate()
	fp := testFingerprint(t, "original")
	tampered := testFingerprint(t, "tampered")

	sig, err := SignFingerprint(fp, kp.PrivateKey)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if VerifyFingerprint(tampered, sig, kp.Address) {
		t.Error("signature verifies over a different fingerprint")
	}
}

func TestVerifyAcceptsZeroBasedRecoveryByte(t *testing.T) {
	kp, _ := Generate()
	fp := testFingerprint(t, "recovery-byte")

	sig, err := SignFingerprint(fp, kp.PrivateKey)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	raw, _ := hexutil.Decode(sig)
	raw[crypto.RecoveryIDOffset] -= 27
	if !VerifyFingerprint(fp, hexutil.Encode(raw), kp.Address) {
		t.Error("0/1 recovery byte form rejected")
	}
}

func TestSignFailsLoudly(t *testing.T) {
	if _, err := SignFingerprint(testFingerprint(t, "x"), nil); !errors.Is(err, ErrSigningFailed) {
		t.Errorf("nil key sign = %v, want ErrSigningFailed", err)
	}

	kp, _ := Generate()
	if _, err := SignFingerprint("not-hex", kp.PrivateKey); !errors.Is(err, ErrSigningFailed) {
		t.Errorf("bad fingerprint sign = %v, want ErrSigningFailed", err)
	}
}
