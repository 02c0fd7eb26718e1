package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"celvest/pkg/auth"
)

// authCmd groups API key management commands
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the stored Celenium API key",
	Long: `Store and manage a Celenium API key. A key is optional: without one
the public rate limit applies. Keys are kept in the system keychain when
available, with an encrypted file fallback; CELVEST_API_KEY in the
environment always wins.`,
}

// authSetCmd stores an API key
var authSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Store an API key",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAuthSet()
	},
}

// authStatusCmd reports whether a key is stored
var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether an API key is configured",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAuthStatus()
	},
}

// authRemoveCmd deletes the stored API key
var authRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove the stored API key",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAuthRemove()
	},
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authSetCmd)
	authCmd.AddCommand(authStatusCmd)
	authCmd.AddCommand(authRemoveCmd)
}

func runAuthSet() error {
	key, err := promptAPIKey()
	if err != nil {
		return err
	}
	if key == "" {
		return fmt.Errorf("API key cannot be empty")
	}

	mgr, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to open credential store: %w", err)
	}

	if err := mgr.Store(&auth.Credential{Name: "default", APIKey: key}); err != nil {
		return err
	}

	fmt.Println("API key stored")
	return nil
}

func runAuthStatus() error {
	if os.Getenv("CELVEST_API_KEY") != "" {
		fmt.Println("API key configured via CELVEST_API_KEY")
		return nil
	}

	mgr, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to open credential store: %w", err)
	}

	if mgr.Exists("default") {
		fmt.Println("API key stored")
	} else {
		fmt.Println("no API key configured (public rate limit applies)")
	}
	return nil
}

func runAuthRemove() error {
	mgr, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to open credential store: %w", err)
	}

	if err := mgr.Delete("default"); err != nil {
		return err
	}

	fmt.Println("API key removed")
	return nil
}

// promptAPIKey reads the key without echoing when stdin is a terminal
func promptAPIKey() (string, error) {
	fmt.Print("Celenium API key: ")

	if term.IsTerminal(int(syscall.Stdin)) {
		raw, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			return "", fmt.Errorf("failed to read API key: %w", err)
		}
		return strings.TrimSpace(string(raw)), nil
	}

	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read API key: %w", err)
	}
	return strings.TrimSpace(line), nil
}
