package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"iara.com/iarasync/security"
)

func main() {
	var name string
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "createtoken",
		Short: "Print an operator token for the sync HTTP trigger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, err := security.SecretFromEnv()
			if err != nil {
				return err
			}
			token, err := security.CreateOperatorToken(security.Operator{Name: name, Scope: security.ScopeSync}, secret, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "operator", "operator name carried in the token")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
