// Package main provides the pdabridge binary: it connects the chat network,
// the running game and the terminal UI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "0.0.0-dev"

var configPath string

var rootCmd = &cobra.Command{
	Use:   "pdabridge",
	Short: "Bridge between the in-game PDA chat and an IRC channel",
	Long: `pdabridge relays chat between an IRC channel and the game's PDA.

It watches the game process, exchanges records with the game through two
files in its configs directory and shows the channel in a terminal UI.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/pdabridge.yaml", "path to configuration file")
	rootCmd.Version = version
	rootCmd.AddCommand(runCmd, migrateCmd, hashPasswordCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
