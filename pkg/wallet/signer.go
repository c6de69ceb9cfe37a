package wallet

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// SignFingerprint signs the raw bytes of a server-issued fingerprint with
// the private key, using the Ethereum personal-message scheme. The returned
// signature is 65 bytes, hex-encoded, with the recovery byte in the 27/28
// form so the authority can recover the signer address.
//
// Signing is local and synchronous; no network is involved.
func SignFingerprint(fingerprint string, key *ecdsa.PrivateKey) (string, error) {
	if key == nil {
		return "", fmt.Errorf("%w: private key missing", ErrSigningFailed)
	}

	msg, err := hexutil.Decode(fingerprint)
	if err != nil {
		return "", fmt.Errorf("%w: bad fingerprint encoding: %v", ErrSigningFailed, err)
	}

	sig, err := crypto.Sign(accounts.TextHash(msg), key)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSigningFailed, err)
	}
	sig[crypto.RecoveryIDOffset] += 27

	return hexutil.Encode(sig), nil
}

// VerifyFingerprint reports whether the signature over the fingerprint was
// produced by the keypair whose address is addr.
func VerifyFingerprint(fingerprint, signature string, addr common.Address) bool {
	msg, err := hexutil.Decode(fingerprint)
	if err != nil {
		return false
	}
	sig, err := hexutil.Decode(signature)
	if err != nil || len(sig) != crypto.SignatureLength {
		return false
	}

	// Accept both 0/1 and 27/28 recovery byte encodings.
	rec := make([]byte, crypto.SignatureLength)
	copy(rec, sig)
	if rec[crypto.RecoveryIDOffset] >= 27 {
		rec[crypto.RecoveryIDOffset] -= 27
	}

	pub, err := crypto.SigToPub(accounts.TextHash(msg), rec)
	if err != nil {
		return false
	}
	return crypto.PubkeyToAddress(*pub) == addr
}
