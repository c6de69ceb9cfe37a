// ChargeWallet - mobile wallet client core
// License: MIT

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/chargehq/chargewallet/pkg/backend"
	"github.com/chargehq/chargewallet/pkg/state"
	"github.com/chargehq/chargewallet/pkg/store"
)

// runSync signs in with backend credentials from the environment and pulls
// profile, balance, contacts, and history into the local cache.
func runSync() error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	if a.cfg.Backend.URL == "" {
		return fmt.Errorf("no backend configured (set backend.url or CHARGE_BACKEND_URL)")
	}

	email := os.Getenv("CHARGE_EMAIL")
	password := os.Getenv("CHARGE_PASSWORD")
	if email == "" || password == "" {
		return fmt.Errorf("set CHARGE_EMAIL and CHARGE_PASSWORD to sync")
	}

	ctx := context.Background()
	auth := backend.NewAuthClient(a.cfg.Backend.URL, a.cfg.Backend.AnonKey, a.cfg.BackendTimeout())
	session, err := auth.SignIn(ctx, email, password)
	if err != nil {
		return err
	}

	appState := state.NewStore()
	appState.SetSession(session)

	data := backend.NewDataClient(a.cfg.Backend.URL, a.cfg.Backend.AnonKey, a.cfg.BackendTimeout(), appState.Session)
	if err := appState.Refresh(ctx, data); err != nil {
		fmt.Fprintf(os.Stderr, "warning: refresh incomplete: %v\n", err)
	}

	cache, err := store.Open(a.cfg.CachePath())
	if err != nil {
		return err
	}
	defer cache.Close()

	if err := cache.UpsertTransactions(appState.Transactions()); err != nil {
		return err
	}
	if err := cache.ReplaceContacts(appState.Contacts()); err != nil {
		return err
	}

	balance := appState.Balance()
	if profile := appState.Profile(); profile != nil {
		fmt.Printf("Synced as %s (%s)\n", profile.Name(), session.UserID)
	}
	fmt.Printf("  Balance:      R%s / $%s\n", balance.ZAR.StringFixed(2), balance.USD.StringFixed(2))
	fmt.Printf("  Contacts:     %d\n", len(appState.Contacts()))
	fmt.Printf("  Transactions: %d\n", len(appState.Transactions()))
	return nil
}

func runHistory() error {
	a, err := loadApp()
	if err != nil {
		return err
	}

	cache, err := store.Open(a.cfg.CachePath())
	if err != nil {
		return err
	}
	defer cache.Close()

	txs, err := cache.RecentTransactions(20)
	if err != nil {
		return err
	}
	if len(txs) == 0 {
		fmt.Println("No transactions yet.")
		return nil
	}

	for _, tx := range txs {
		fmt.Printf("%s  %s -> %s  %s %s  [%s]\n",
			tx.CreatedAt.Format("2006-01-02 15:04"),
			tx.SenderID, tx.ReceiverID,
			tx.Amount.StringFixed(2), tx.AssetSymbol, tx.Status)
	}
	return nil
}

func runContacts() error {
	a, err := loadApp()
	if err != nil {
		return err
	}

	cache, err := store.Open(a.cfg.CachePath())
	if err != nil {
		return err
	}
	defer cache.Close()

	contacts, err := cache.Contacts()
	if err != nil {
		return err
	}
	if len(contacts) == 0 {
		fmt.Println("No contacts cached. Run 'chargewallet sync' first.")
		return nil
	}

	for _, contact := range contacts {
		if contact.Phone != "" {
			fmt.Printf("%s  %s  (%s)\n", contact.Name, contact.ContactUserID, contact.Phone)
		} else {
			fmt.Printf("%s  %s\n", contact.Name, contact.ContactUserID)
		}
	}
	return nil
}
