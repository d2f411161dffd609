package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "muzzle-id",
	Short: "A biometric identification service for cattle",
	Long: `Muzzle ID identifies individual cows by their muzzle print, the bovine
equivalent of a fingerprint. It enrolls animals from photos stored in an
S3-compatible bucket and matches new photos against the enrolled gallery
using muzzle detection and signature extraction model servers.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
