package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vibast-solutions/ms-go-dibs/app/signature"
)

var signCmd = &cobra.Command{
	Use:   "sign key=value [key=value...]",
	Short: "Compute a legacy MD5 digest",
	Long:  "Compute the chained MD5 digest of the given fields, in the given order, with the configured DIBS_D2_MD5_KEY1 and DIBS_D2_MD5_KEY2.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := mustLoadConfig()

		fields, err := parseFields(args)
		if err != nil {
			return err
		}
		digest, err := signature.Sign(fields, cfg.D2.MD5Key1, cfg.D2.MD5Key2)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), signature.Payload(fields))
		fmt.Fprintln(cmd.OutOrStdout(), digest)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(signCmd)
}

func parseFields(args []string) ([]signature.Field, error) {
	fields := make([]signature.Field, 0, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, errors.New("fields must be given as key=value")
		}
		fields = append(fields, signature.Field{Key: strings.TrimSpace(key), Value: value})
	}
	return fields, nil
}
