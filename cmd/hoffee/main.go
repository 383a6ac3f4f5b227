package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "hoffee",
	Short: "Hoffee — coffee-shop loyalty client and barista terminal",
	Long: "Hoffee runs the coffee-shop domain store with its barista terminal:\n" +
		"QR points confirmation, live order feed and catalog back-office.",
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(pinCmd)
	rootCmd.AddCommand(qrCmd)
	rootCmd.AddCommand(levelsCmd)
}
