// ChargeWallet - mobile wallet client core
// License: MIT

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/chargehq/chargewallet/pkg/config"
	"github.com/chargehq/chargewallet/pkg/logger"
	"github.com/chargehq/chargewallet/pkg/wallet"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "onboard":
		err = onboard()
	case "info":
		err = runInfo()
	case "send":
		err = runSend(os.Args[2:])
	case "sync":
		err = runSync()
	case "history":
		err = runHistory()
	case "contacts":
		err = runContacts()
	case "help", "-h", "--help":
		usage()
	default:
		fmt.Printf("Unknown command: %s\n\n", os.Args[1])
		usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("ChargeWallet - send money with a device-held key")
	fmt.Println("")
	fmt.Println("Usage:")
	fmt.Println("  chargewallet onboard                      create config and wallet keypair")
	fmt.Println("  chargewallet info                         show wallet address and balances")
	fmt.Println("  chargewallet send <recipient> <amount> <currency>")
	fmt.Println("  chargewallet sync                         refresh profile/contacts/history from the backend")
	fmt.Println("  chargewallet history                      show cached transaction history")
	fmt.Println("  chargewallet contacts                     show cached contacts")
}

func getConfigPath() string {
	if path := os.Getenv("CHARGE_CONFIG"); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.json"
	}
	return filepath.Join(home, ".chargewallet", "config.json")
}

type app struct {
	cfg    *config.Config
	wallet *wallet.Service
}

func loadApp() (*app, error) {
	configPath := getConfigPath()
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("no config at %s, run 'chargewallet onboard' first", configPath)
		}
		return nil, err
	}
	logger.SetLevel(cfg.App.LogLevel)

	credStore, err := wallet.NewFileStore(cfg.WalletDir())
	if err != nil {
		return nil, err
	}

	return &app{cfg: cfg, wallet: wallet.NewService(credStore)}, nil
}

func runInfo() error {
	a, err := loadApp()
	if err != nil {
		return err
	}

	kp, err := a.wallet.Load()
	if err != nil {
		fmt.Println("No wallet found. Run 'chargewallet onboard' to create one.")
		return nil
	}

	fmt.Println("ChargeWallet")
	fmt.Printf("  Address:   %s\n", kp.Address.Hex())
	fmt.Printf("  Authority: %s\n", a.cfg.Authority.Mode)
	if a.cfg.Backend.URL != "" {
		fmt.Printf("  Backend:   %s\n", a.cfg.Backend.URL)
	}
	return nil
}
