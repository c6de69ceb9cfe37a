// ChargeWallet - mobile wallet client core
// License: MIT

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/chargehq/chargewallet/pkg/config"
	"github.com/chargehq/chargewallet/pkg/wallet"
)

func onboard() error {
	configPath := getConfigPath()

	if _, err := os.Stat(configPath); err == nil {
		fmt.Printf("Config already exists at %s\n", configPath)
	} else {
		cfg := config.DefaultConfig()
		if err := config.SaveConfig(configPath, cfg); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		fmt.Printf("Created config at %s\n", configPath)
	}

	a, err := loadApp()
	if err != nil {
		return err
	}

	kp, err := a.wallet.Provision()
	if err != nil {
		if errors.Is(err, wallet.ErrKeypairExists) {
			existing, loadErr := a.wallet.Load()
			if loadErr != nil {
				return loadErr
			}
			fmt.Printf("Wallet already provisioned: %s\n", existing.Address.Hex())
			return nil
		}
		return fmt.Errorf("provisioning wallet: %w", err)
	}

	fmt.Println("Wallet created!")
	fmt.Printf("  Address: %s\n", kp.Address.Hex())
	fmt.Println("")
	fmt.Println("The private key stays on this device and is never transmitted.")
	fmt.Println("Next: chargewallet send <recipient> <amount> <currency>")
	return nil
}
