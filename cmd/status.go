package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/vibast-solutions/ms-go-dibs/app/easy"
	"github.com/vibast-solutions/ms-go-dibs/app/status"
)

var statusCmd = &cobra.Command{
	Use:   "status <payment-id>",
	Short: "Fetch an Easy payment and print its derived status",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := mustLoadConfig()

		clientCfg := easy.ConfigFor(cfg.Easy.TestMode, cfg.Easy.TestSecretKey, cfg.Easy.LiveSecretKey)
		if cfg.Easy.BaseURL != "" {
			clientCfg.BaseURL = cfg.Easy.BaseURL
		}
		clientCfg.HTTPTimeout = cfg.Easy.HTTPTimeout

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		payment, err := easy.NewClient(clientCfg).GetPayment(ctx, args[0])
		if err != nil {
			return err
		}

		summary := payment.Summary.Remote()
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "payment:   %s\n", payment.PaymentID)
		fmt.Fprintf(out, "reserved:  %d\n", summary.Reserved)
		fmt.Fprintf(out, "charged:   %d\n", summary.Charged)
		fmt.Fprintf(out, "refunded:  %d\n", summary.Refunded)
		fmt.Fprintf(out, "cancelled: %d\n", summary.Cancelled)
		fmt.Fprintf(out, "status:    %s\n", status.Derive(summary))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
