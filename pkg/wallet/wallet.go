// Package wallet owns the device-local signing credential: generation,
// durable storage, and fingerprint signing.
package wallet

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/chargehq/chargewallet/pkg/logger"
)

// Service provides app-lifetime access to the signing credential.
type Service struct {
	store CredentialStore
}

// NewService creates a wallet service over a credential store.
func NewService(store CredentialStore) *Service {
	return &Service{store: store}
}

// Generate creates a fresh secp256k1 keypair. The address is derived from
// the public half.
func Generate() (*Keypair, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSigningFailed, err)
	}
	return &Keypair{
		Address:    crypto.PubkeyToAddress(key.PublicKey),
		PrivateKey: key,
	}, nil
}

// Exists reports whether a keypair has been provisioned.
func (s *Service) Exists() bool {
	_, err := s.store.Get()
	return err == nil
}

// Load returns the persisted keypair. Absence is ErrCredentialMissing;
// store faults and corrupt records wrap ErrCredentialStore.
func (s *Service) Load() (*Keypair, error) {
	blob, err := s.store.Get()
	if err != nil {
		return nil, err
	}

	var rec credentialRecord
	if err := json.Unmarshal(blob, &rec); err != nil {
		return nil, fmt.Errorf("%w: corrupt credential record: %v", ErrCredentialStore, err)
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(rec.PrivateKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("%w: corrupt private key: %v", ErrCredentialStore, err)
	}

	derived := crypto.PubkeyToAddress(key.PublicKey)
	if derived != rec.Address {
		return nil, fmt.Errorf("%w: address does not match private key", ErrCredentialStore)
	}

	return &Keypair{Address: rec.Address, PrivateKey: key}, nil
}

// Store persists a keypair, replacing any prior value.
func (s *Service) Store(kp *Keypair) error {
	rec := credentialRecord{
		Address:    kp.Address,
		PrivateKey: hexutil.Encode(crypto.FromECDSA(kp.PrivateKey)),
		CreatedAt:  time.Now().UTC(),
	}

	blob, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCredentialStore, err)
	}

	if err := s.store.Set(blob); err != nil {
		return err
	}

	logger.InfoCF("wallet", "Keypair stored", map[string]any{
		"address": kp.Address.Hex(),
	})
	return nil
}

// Provision generates and stores a keypair if none exists yet.
func (s *Service) Provision() (*Keypair, error) {
	if _, err := s.store.Get(); err == nil {
		return nil, ErrKeypairExists
	} else if !errors.Is(err, ErrCredentialMissing) {
		return nil, err
	}

	kp, err := Generate()
	if err != nil {
		return nil, err
	}
	if err := s.Store(kp); err != nil {
		return nil, err
	}
	return kp, nil
}
