package wallet

import (
	"crypto/ecdsa"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Keypair is the device-local signing credential. Immutable once created:
// either absent entirely or fully present.
type Keypair struct {
	Address    common.Address
	PrivateKey *ecdsa.PrivateKey
}

// credentialRecord is the persisted form of a keypair. The private key is
// hex-encoded; the record never leaves the device.
type credentialRecord struct {
	Address    common.Address `json:"address"`
	PrivateKey string         `json:"private_key"`
	CreatedAt  time.Time      `json:"created_at"`
}
