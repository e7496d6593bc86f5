package auth

import (
	"github.com/spf13/cobra"
)

// AuthCmd groups account commands.
var AuthCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage your account",
	Long:  `Register, log in, log out and show the current session.`,
}
