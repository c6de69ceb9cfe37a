// ChargeWallet - mobile wallet client core
// License: MIT

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/chargehq/chargewallet/pkg/authority"
	"github.com/chargehq/chargewallet/pkg/backend"
	"github.com/chargehq/chargewallet/pkg/send"
	"github.com/chargehq/chargewallet/pkg/store"
	"github.com/chargehq/chargewallet/pkg/wallet"
)

// defaultSenderID is the sender identity used against the mock authority
// when no backend session exists.
const defaultSenderID = "local-user"

func senderID() string {
	if id := os.Getenv("CHARGE_USER_ID"); id != "" {
		return id
	}
	return defaultSenderID
}

func runSend(args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("usage: chargewallet send <recipient> <amount> <currency>")
	}

	recipient := args[0]
	amount, err := decimal.NewFromString(args[1])
	if err != nil {
		return fmt.Errorf("invalid amount %q", args[1])
	}
	currency, err := parseCurrency(args[2])
	if err != nil {
		return err
	}

	a, err := loadApp()
	if err != nil {
		return err
	}

	auth, err := a.newAuthority(recipient)
	if err != nil {
		return err
	}

	flow := send.NewFlow(a.wallet, auth)
	flow.SetNotify(func(s send.Status) {
		switch s {
		case send.StatusSigning:
			fmt.Println("Signing transaction...")
		case send.StatusSubmitting:
			fmt.Println("Sending...")
		}
	})

	// Ctrl-C abandons the attempt; the in-flight result is discarded.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	req := authority.TransferRequest{RecipientID: recipient, Amount: amount, Currency: currency}
	result, err := flow.Confirm(ctx, senderID(), req)
	if err != nil {
		if msg := flow.ErrorMessage(); msg != "" {
			return fmt.Errorf("%s", msg)
		}
		return err
	}

	fmt.Println("Sent!")
	fmt.Printf("  %s%s to %s\n", currency.Symbol(), result.Amount, result.RecipientID)
	fmt.Printf("  Tx: %s\n", result.TxHash)

	recordSend(a, result)
	return nil
}

// newAuthority picks the configured authority. In mock mode the sender is
// registered under the device keypair with a demo opening balance, and the
// recipient gets a throwaway account so the transfer can settle.
func (a *app) newAuthority(recipient string) (authority.Authority, error) {
	if a.cfg.Authority.Mode == "http" {
		return authority.NewClient(a.cfg.Authority.BaseURL, a.cfg.AuthorityTimeout(), nil), nil
	}

	kp, err := a.wallet.Load()
	if err != nil {
		// Let the flow surface CredentialMissing on confirm.
		return authority.NewMock(), nil
	}

	mock := authority.NewMock()
	mock.RegisterAccount(senderID(), kp.Address, map[authority.Currency]decimal.Decimal{
		authority.CurrencyZARP: decimal.RequireFromString("1000.00"),
		authority.CurrencyUSDC: decimal.RequireFromString("100.00"),
	})

	counterparty, err := wallet.Generate()
	if err != nil {
		return nil, err
	}
	mock.RegisterAccount(recipient, counterparty.Address, nil)

	return mock, nil
}

func parseCurrency(raw string) (authority.Currency, error) {
	switch strings.ToUpper(raw) {
	case "ZARP", "ZAR", "R":
		return authority.CurrencyZARP, nil
	case "USDC", "USD":
		return authority.CurrencyUSDC, nil
	default:
		return "", fmt.Errorf("unsupported currency %q (use ZARP or USDC)", raw)
	}
}

// recordSend appends the settled transfer to the local history cache.
// Cache trouble never fails a completed send.
func recordSend(a *app, result *send.Result) {
	cache, err := store.Open(a.cfg.CachePath())
	if err != nil {
		fmt.Printf("Warning: could not open history cache: %v\n", err)
		return
	}
	defer cache.Close()

	amount, _ := decimal.NewFromString(result.Amount)
	err = cache.UpsertTransactions([]backend.Transaction{{
		ID:          uuid.NewString(),
		SenderID:    senderID(),
		ReceiverID:  result.RecipientID,
		Amount:      amount,
		AssetSymbol: string(result.Currency),
		Status:      "COMPLETED",
		CreatedAt:   time.Now().UTC(),
		Note:        result.TxHash,
	}})
	if err != nil {
		fmt.Printf("Warning: could not record transaction: %v\n", err)
	}
}
