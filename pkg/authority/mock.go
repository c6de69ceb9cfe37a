package authority

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/chargehq/chargewallet/pkg/logger"
	"github.com/chargehq/chargewallet/pkg/wallet"
)

// Mock is an in-process authority used while on-chain settlement is stubbed
// out. It issues single-use fingerprints, verifies submissions against each
// account's registered address, and settles balances in memory.
//
// Fingerprint expiry and replay are the authority's responsibility, not the
// client's; the mock enforces single use so that contract stays testable.
type Mock struct {
	mu       sync.Mutex
	accounts map[string]*mockAccount
	issued   map[Fingerprint]pendingTransfer
}

type mockAccount struct {
	address  common.Address
	balances map[Currency]decimal.Decimal
}

type pendingTransfer struct {
	senderID string
	req      TransferRequest
}

// NewMock creates an empty mock authority.
func NewMock() *Mock {
	return &Mock{
		accounts: make(map[string]*mockAccount),
		issued:   make(map[Fingerprint]pendingTransfer),
	}
}

// RegisterAccount adds an account with its signing address and opening
// balances.
func (m *Mock) RegisterAccount(userID string, addr common.Address, opening map[Currency]decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()

	balances := make(map[Currency]decimal.Decimal, len(opening))
	for cur, amt := range opening {
		balances[cur] = amt
	}
	m.accounts[userID] = &mockAccount{address: addr, balances: balances}
}

// Balance returns an account's balance for a currency.
func (m *Mock) Balance(userID string, cur Currency) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	acct, ok := m.accounts[userID]
	if !ok {
		return decimal.Zero, ErrUnknownAccount
	}
	return acct.balances[cur], nil
}

// RequestFingerprint issues a fresh single-use fingerprint binding
// {sender, recipient, amount, currency} plus a nonce.
func (m *Mock) RequestFingerprint(ctx context.Context, senderID string, req TransferRequest) (Fingerprint, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := req.Validate(); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.accounts[senderID]; !ok {
		return "", fmt.Errorf("%w: sender %s", ErrUnknownAccount, senderID)
	}
	if _, ok := m.accounts[req.RecipientID]; !ok {
		return "", fmt.Errorf("%w: recipient %s", ErrUnknownAccount, req.RecipientID)
	}

	payload := fmt.Sprintf("%s|%s|%s|%s|%s",
		senderID, req.RecipientID, req.Amount.StringFixed(2), req.Currency, uuid.NewString())
	fp := Fingerprint(hexutil.Encode(crypto.Keccak256([]byte(payload))))
	m.issued[fp] = pendingTransfer{senderID: senderID, req: req}

	return fp, nil
}

// Submit verifies the signed payload against the issued fingerprint and the
// sender's registered address, then settles the transfer. Every failure is a
// rejection outcome, not an error; the fingerprint is consumed either way.
func (m *Mock) Submit(ctx context.Context, senderID string, sub Submission) (TransactionOutcome, error) {
	if err := ctx.Err(); err != nil {
		return TransactionOutcome{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	pending, ok := m.issued[sub.Fingerprint]
	if !ok {
		return reject("Unknown or expired transaction fingerprint"), nil
	}
	delete(m.issued, sub.Fingerprint)

	if pending.senderID != senderID ||
		pending.req.RecipientID != sub.RecipientID ||
		!pending.req.Amount.Equal(sub.Amount) ||
		pending.req.Currency != sub.Currency {
		return reject("Submission does not match fingerprinted transfer"), nil
	}

	sender := m.accounts[senderID]
	recipient := m.accounts[sub.RecipientID]
	if sender == nil || recipient == nil {
		return reject("Unknown account"), nil
	}

	if !wallet.VerifyFingerprint(string(sub.Fingerprint), sub.Signature, sender.address) {
		return reject("Invalid signature"), nil
	}

	if sender.balances[sub.Currency].LessThan(sub.Amount) {
		return reject("Insufficient funds"), nil
	}

	sender.balances[sub.Currency] = sender.balances[sub.Currency].Sub(sub.Amount)
	recipient.balances[sub.Currency] = recipient.balances[sub.Currency].Add(sub.Amount)

	txHash := hexutil.Encode(crypto.Keccak256([]byte(uuid.NewString())))
	logger.InfoCF("authority", "Transfer settled", map[string]any{
		"sender":    senderID,
		"recipient": sub.RecipientID,
		"amount":    sub.Amount.StringFixed(2),
		"currency":  sub.Currency,
		"tx_hash":   txHash,
	})

	return TransactionOutcome{Success: true, TxHash: txHash}, nil
}

func reject(msg string) TransactionOutcome {
	return TransactionOutcome{Success: false, Error: msg}
}
