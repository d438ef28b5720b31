package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "dibs",
	Short: "DIBS payment gateway integration",
	Long:  "Payment form generation, callback handling and order operations against the DIBS D2 and Easy gateways.",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
